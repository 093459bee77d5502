package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"projects-dashboard/internal/config"
	"projects-dashboard/internal/export"
	"projects-dashboard/internal/generator"
)

type exportOptions struct {
	dir    string
	format string
	seed   uint64
}

func newExportCmd(configPath *string) *cobra.Command {
	opts := exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Generate one snapshot and write each record set to a file",
		Example: `  dashboard export --dir out --format parquet
  dashboard export --format csv --seed 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if !cmd.Flags().Changed("seed") {
				opts.seed = cfg.Generator.Seed
			}

			paths, err := runExport(cmd.Context(), opts, cfg.Generator.Counts, time.Now())
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.dir, "dir", "d", "export", "Output directory")
	cmd.Flags().StringVarP(&opts.format, "format", "f", string(export.CSV), "Output format: csv, json or parquet")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "Generator seed (0 draws a fresh one)")
	return cmd
}

func runExport(ctx context.Context, opts exportOptions, counts generator.Counts, now time.Time) ([]string, error) {
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return nil, err
	}

	snap, err := generator.Snapshot(ctx, opts.seed, now, counts)
	if err != nil {
		return nil, fmt.Errorf("generate snapshot: %w", err)
	}

	paths, err := export.WriteSnapshot(ctx, opts.dir, format, snap)
	if err != nil {
		return paths, fmt.Errorf("export snapshot: %w", err)
	}
	return paths, nil
}
