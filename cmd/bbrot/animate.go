package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/gogpu/brot"
)

func animateCmd() *cobra.Command {
	var (
		fps         int
		seconds     int
		outDir      string
		ranks       int
		paletteName string
		workers     int
	)

	cmd := &cobra.Command{
		Use:   "animate seed-file [seed-file...]",
		Short: "Trace seed orbits in checkpoints and write animation frames",
		Long: `animate replays the seed orbits like render does, but pauses at evenly
spaced iteration checkpoints and writes one frame per checkpoint showing
the histogram growth since the previous one. Checkpoints span the minimum
orbit length the seeds were filtered for, so the last frame lands where
the density image begins to saturate. Frames are numbered %05d.png and
can be assembled with any encoder, e.g.

	ffmpeg -framerate 25 -i frames/%05d.png bbrot.mp4`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			ctx := cmd.Context()

			pal, err := paletteByName(paletteName)
			if err != nil {
				return err
			}
			frames := fps * seconds
			if frames <= 0 {
				return fmt.Errorf("fps %d and seconds %d give no frames", fps, seconds)
			}

			seeds, err := brot.LoadSeedFiles(args...)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}

			v := brot.DefaultViewport()

			eng := brot.NewEngine(brot.WithWorkers(workers), brot.WithRanks(ranks))
			defer eng.Close()

			b := brot.NewSeedBuffer(seeds)
			arena := brot.NewHistArena(eng.Ranks(), v.Steps)

			// Checkpoints are spaced so the animation covers the shortest
			// orbit any kept seed is guaranteed to reach.
			limit := int32(brot.MinItersSamples)
			step := limit / int32(frames)
			if step < 1 {
				step = 1
			}

			start := time.Now()
			prev := make([]int32, v.Steps*v.Steps)
			frame := 0
			for checkpoint := step; checkpoint <= limit; checkpoint += step {
				if _, err := eng.Trace(ctx, b, arena, v, checkpoint); err != nil {
					return err
				}
				merged := arena.Merge()

				img := brot.FrameImage(merged, prev, v.Steps, pal)
				path := filepath.Join(outDir, fmt.Sprintf("%05d.png", frame))
				if err := brot.SavePNG(path, img); err != nil {
					return err
				}

				copy(prev, merged)
				b.ResetDone()
				frame++
				brot.Logger().Debug("frame written", "frame", frame, "iters", checkpoint)
			}

			brot.Logger().Info("animation frames written",
				"dir", outDir, "frames", frame, "elapsed", time.Since(start))
			human.Fprintf(cmd.OutOrStdout(), "wrote %d frames from %d orbits -> %s\n",
				frame, len(seeds), outDir)
			return nil
		},
	}

	cmd.Flags().IntVar(&fps, "fps", brot.AnimateFPS, "frames per second of the target animation")
	cmd.Flags().IntVar(&seconds, "seconds", brot.AnimateSeconds, "animation length in seconds")
	cmd.Flags().StringVar(&outDir, "out-dir", "frames", "directory for frame images")
	cmd.Flags().IntVar(&ranks, "ranks", 0, "histogram slices traced in parallel (0 picks from worker count)")
	cmd.Flags().StringVar(&paletteName, "palette", "flame", "palette: mandel, flame, or ice")
	cmd.Flags().IntVar(&workers, "workers", 0, "CPU workers (0 means GOMAXPROCS)")
	return cmd
}
