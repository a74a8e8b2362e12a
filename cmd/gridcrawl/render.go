package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/gridcrawl/internal/recordlog/file"
	"github.com/JakeFAU/gridcrawl/internal/render"
)

func newRenderCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Draw the crawl as a PNG, one pixel per grid cell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := envFrom(cmd)
			if err != nil {
				return err
			}
			records, err := file.ReadAll(cmd.Context(), env.cfg.Log.Path)
			if err != nil {
				return err
			}
			img, err := render.Rasterize(records, render.Config{
				Pattern:    env.cfg.Dataset.CoordinatePattern,
				CellWidth:  env.cfg.Dataset.CellWidth,
				CellHeight: env.cfg.Dataset.CellHeight,
			})
			if err != nil {
				return err
			}

			// #nosec G304 -- output path is chosen by the operator.
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := render.WritePNG(f, img); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", out, err)
			}
			env.logger.Info("map rendered",
				zap.String("out", out),
				zap.Int("width", img.Bounds().Dx()),
				zap.Int("height", img.Bounds().Dy()),
			)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d)\n", out, img.Bounds().Dx(), img.Bounds().Dy())
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "map.png", "output PNG path")
	return cmd
}
