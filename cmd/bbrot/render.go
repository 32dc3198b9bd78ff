package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/gogpu/brot"
)

func renderCmd() *cobra.Command {
	var (
		ranks       int
		out         string
		paletteName string
		gamma       float64
		scale       int
		workers     int
	)

	cmd := &cobra.Command{
		Use:   "render seed-file [seed-file...]",
		Short: "Trace seed orbits and render the density image",
		Long: `render replays every orbit from the given seed files, accumulating a
visit histogram over the viewport, and renders the merged histogram as a
density image. Orbits run until they escape, so only use seed files whose
points are known to diverge. Without --out the image is named after the
first seed file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			ctx := cmd.Context()

			pal, err := paletteByName(paletteName)
			if err != nil {
				return err
			}

			seeds, err := brot.LoadSeedFiles(args...)
			if err != nil {
				return err
			}

			v := brot.DefaultViewport()

			eng := brot.NewEngine(brot.WithWorkers(workers), brot.WithRanks(ranks))
			defer eng.Close()

			b := brot.NewSeedBuffer(seeds)
			arena := brot.NewHistArena(eng.Ranks(), v.Steps)

			start := time.Now()
			passes, err := eng.Trace(ctx, b, arena, v, brot.UnboundedIters)
			if err != nil {
				return err
			}

			img := brot.HistImage(arena.Merge(), v.Steps, pal)
			img = brot.PostProcess(img, brot.RenderOptions{Gamma: gamma, Scale: scale})

			if out == "" {
				out = brot.RenderFileName(args[0])
			}
			if err := brot.SavePNG(out, img); err != nil {
				return err
			}

			brot.Logger().Info("density image rendered",
				"out", out, "passes", passes, "elapsed", time.Since(start))
			human.Fprintf(cmd.OutOrStdout(), "traced %d orbits -> %s\n", len(seeds), out)
			return nil
		},
	}

	cmd.Flags().IntVar(&ranks, "ranks", 0, "histogram slices traced in parallel (0 picks from worker count)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output image path (default derives from the seed file name)")
	cmd.Flags().StringVar(&paletteName, "palette", "flame", "palette: mandel, flame, or ice")
	cmd.Flags().Float64Var(&gamma, "gamma", 1.0, "gamma correction (1.0 leaves the image unchanged)")
	cmd.Flags().IntVar(&scale, "scale", 1, "integer upscale factor")
	cmd.Flags().IntVar(&workers, "workers", 0, "CPU workers (0 means GOMAXPROCS)")
	return cmd
}
