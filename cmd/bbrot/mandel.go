package main

import (
	"image"
	"time"

	"github.com/spf13/cobra"

	"github.com/gogpu/brot"
)

func mandelCmd() *cobra.Command {
	var (
		steps       int
		maxIters    int32
		out         string
		paletteName string
		gamma       float64
		scale       int
		workers     int
	)

	cmd := &cobra.Command{
		Use:   "mandel",
		Short: "Render the escape-time set view",
		Long: `mandel iterates every grid cell center up to --max-iters and colors
cells by how quickly their orbits escape, cycling through the palette
ramp. Cells that never escape take the first ramp entry.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			pal, err := paletteByName(paletteName)
			if err != nil {
				return err
			}

			v := brot.DefaultViewport()
			v.Steps = steps

			eng := brot.NewEngine(brot.WithWorkers(workers))
			defer eng.Close()

			b := brot.NewGridBuffer(v)

			start := time.Now()
			passes, err := eng.Iterate(cmd.Context(), b, maxIters)
			if err != nil {
				return err
			}

			var img image.Image = brot.EscapeImage(b.Iters, v.Steps, maxIters, pal)
			img = brot.PostProcess(img, brot.RenderOptions{Gamma: gamma, Scale: scale})
			if err := brot.SavePNG(out, img); err != nil {
				return err
			}

			brot.Logger().Info("set view rendered",
				"out", out, "steps", steps, "maxIters", maxIters,
				"passes", passes, "elapsed", time.Since(start))
			return nil
		},
	}

	cmd.Flags().IntVar(&steps, "steps", brot.Steps, "grid cells per axis")
	cmd.Flags().Int32Var(&maxIters, "max-iters", brot.MaxItersCells, "iteration cap per cell")
	cmd.Flags().StringVarP(&out, "out", "o", "mandel.png", "output image path")
	cmd.Flags().StringVar(&paletteName, "palette", "mandel", "palette: mandel, flame, or ice")
	cmd.Flags().Float64Var(&gamma, "gamma", 1.0, "gamma correction (1.0 leaves the image unchanged)")
	cmd.Flags().IntVar(&scale, "scale", 1, "integer upscale factor")
	cmd.Flags().IntVar(&workers, "workers", 0, "CPU workers (0 means GOMAXPROCS)")
	return cmd
}
