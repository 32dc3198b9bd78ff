package main

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/gogpu/brot"
)

func computeCmd() *cobra.Command {
	var (
		samples  int
		minIters int32
		maxIters int32
		outDir   string
		rngSeed  int64
		workers  int
	)

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Sample the set boundary and write a seed file",
		Long: `compute runs the full sampling stage: a coarse escape-time pass over the
grid, a scan for boundary cells, random points jittered inside those
cells, and a deep iteration pass that keeps only points whose orbits
escape between --min-iters and --max-iters. The survivors are written to
a seed file named after the stage parameters.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			ctx := cmd.Context()

			v := brot.DefaultViewport()

			eng := brot.NewEngine(brot.WithWorkers(workers))
			defer eng.Close()

			// Coarse pass: classify every grid cell so the boundary scan has
			// escape counts to compare.
			start := time.Now()
			grid := brot.NewGridBuffer(v)
			if _, err := eng.Iterate(ctx, grid, brot.MaxItersCells); err != nil {
				return err
			}
			cells := eng.Frontier(grid.Iters, v.Steps, brot.MaxItersCells)
			if len(cells) == 0 {
				return fmt.Errorf("no boundary cells found on a %d-step grid", v.Steps)
			}
			brot.Logger().Info("boundary scan finished",
				"cells", len(cells), "elapsed", time.Since(start))

			if rngSeed == 0 {
				rngSeed = time.Now().UnixNano()
			}
			rng := rand.New(rand.NewSource(rngSeed))

			// Deep pass: iterate the sampled points far enough to separate
			// long-orbit seeds from the rest.
			start = time.Now()
			b := brot.SampleCells(v, cells, samples, rng)
			if _, err := eng.Iterate(ctx, b, maxIters); err != nil {
				return err
			}
			seeds := brot.FilterSeeds(b, minIters, maxIters)
			if len(seeds) == 0 {
				return fmt.Errorf("no orbits escaped between %d and %d iterations", minIters, maxIters)
			}

			name := brot.SeedFileName(samples, minIters, maxIters, time.Now().Unix())
			path := filepath.Join(outDir, name)
			if err := brot.SaveSeeds(path, seeds); err != nil {
				return err
			}

			brot.Logger().Info("seed file written",
				"path", path, "seeds", len(seeds), "elapsed", time.Since(start))
			human.Fprintf(cmd.OutOrStdout(), "kept %d of %d samples -> %s\n",
				len(seeds), samples, path)
			return nil
		},
	}

	cmd.Flags().IntVar(&samples, "samples", brot.Samples, "points to sample across boundary cells")
	cmd.Flags().Int32Var(&minIters, "min-iters", brot.MinItersSamples, "minimum escape iteration to keep a seed")
	cmd.Flags().Int32Var(&maxIters, "max-iters", brot.MaxItersSamples, "iteration cap for the deep pass")
	cmd.Flags().StringVar(&outDir, "out-dir", ".", "directory for the seed file")
	cmd.Flags().Int64Var(&rngSeed, "rng-seed", 0, "sampling RNG seed (0 means time-based)")
	cmd.Flags().IntVar(&workers, "workers", 0, "CPU workers (0 means GOMAXPROCS)")
	return cmd
}
