package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagelinker/internal/app"
	"github.com/yokitheyo/imagelinker/internal/config"
	"github.com/yokitheyo/imagelinker/internal/domain"
	"github.com/yokitheyo/imagelinker/internal/usecase"
)

type rootOptions struct {
	configPath string
	batch      usecase.BatchOptions
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "optimize",
		Short: "Re-optimize the images referenced by the records table",
		Long: "Downloads every referenced image, runs it through the optimizer with the\n" +
			"current processing settings, uploads the result and updates the record.\n" +
			"With --dry-run nothing is uploaded or written and only the size report is printed.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptimize(cmd, opts)
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config.yaml")
	root.Flags().BoolVar(&opts.batch.DryRun, "dry-run", false, "report sizes without uploading or updating records")
	root.Flags().IntVar(&opts.batch.Limit, "limit", 0, "process at most this many records (0 means all)")
	root.Flags().IntVar(&opts.batch.Concurrency, "concurrency", 4, "records processed in parallel")

	root.AddCommand(newCheckCmd(opts))
	return root
}

func newCheckCmd(root *rootOptions) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:          "check",
		Short:        "Validate every image reference and print the statuses",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			statusFilter, ok := domain.ParseStatusFilter(filter)
			if !ok {
				return fmt.Errorf("--status must be one of: all, ok, error")
			}

			a, err := buildApp(cmd, root.configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.Records.ListRecords(cmd.Context(), statusFilter)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().StringVar(&filter, "status", "all", "show only records with this status: all, ok or error")
	return cmd
}

func runOptimize(cmd *cobra.Command, opts *rootOptions) error {
	if opts.batch.Limit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}
	if opts.batch.Concurrency <= 0 {
		return fmt.Errorf("--concurrency must be positive")
	}

	a, err := buildApp(cmd, opts.configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	refs, err := a.Repo.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}

	optimizer := usecase.NewBatchOptimizer(a.Records, a.Pipeline, a.Config.Processing)
	report := optimizer.Run(cmd.Context(), refs, opts.batch)

	if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
		return err
	}

	zlog.Logger.Info().
		Int("total", report.Total).
		Int("optimized", report.Optimized).
		Int("failed", report.Failed).
		Int64("original_bytes", report.OriginalBytes).
		Int64("optimized_bytes", report.OptimizedBytes).
		Int64("saved_bytes", report.SavedBytes()).
		Bool("dry_run", report.DryRun).
		Msg("optimization summary")

	if report.Failed > 0 {
		return fmt.Errorf("%d of %d records failed", report.Failed, report.Total)
	}
	return nil
}

func buildApp(cmd *cobra.Command, configPath string) (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	app.SetLevel(cfg.Logging.Level)

	// A one-shot run has nothing scraping it.
	return app.Build(cmd.Context(), cfg, nil, prometheus.NewRegistry())
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
