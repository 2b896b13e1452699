package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qcwatch/internal/exclusion"
	"github.com/mesh-intelligence/qcwatch/internal/extract"
	"github.com/mesh-intelligence/qcwatch/internal/helper"
	"github.com/mesh-intelligence/qcwatch/internal/pipeline"
	"github.com/mesh-intelligence/qcwatch/internal/scan"
	"github.com/mesh-intelligence/qcwatch/pkg/sqlite"
)

type scanOptions struct {
	dir     string
	workers int
}

func newScanCmd() *cobra.Command {
	var opts scanOptions
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Extract new log files and merge them into the store",
		Long: "Scan the log directory for files changed since the last checkpoint,\n" +
			"extract them in parallel and merge the results. The checkpoint is written\n" +
			"only when the whole batch has finished.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.dir, "dir", "", "directory to scan (default: scan.dir from config)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "extraction workers (default: workers from config)")
	return cmd
}

// scanSummary is the --json output of scan.
type scanSummary struct {
	Candidates int       `json:"candidates"`
	Merged     int       `json:"merged"`
	Failed     int       `json:"failed"`
	Checkpoint time.Time `json:"checkpoint"`
	Failures   []string  `json:"failures,omitempty"`
}

func runScan(cmd *cobra.Command, opts scanOptions) error {
	cfg, _, err := loadRuntimeConfig()
	if err != nil {
		return err
	}
	if opts.dir != "" {
		cfg.ScanDir = opts.dir
	}
	if opts.workers < 0 {
		return usageErrorf("--workers must not be negative")
	}
	if opts.workers > 0 {
		cfg.Workers = opts.workers
	}
	if cfg.ScanDir == "" {
		return usageErrorf("no scan directory: set scan.dir in config.yaml or pass --dir")
	}
	logger := newLogger(cmd.ErrOrStderr())

	store, err := sqlite.Open(cfg)
	if err != nil {
		return fmt.Errorf("attach store: %w", err)
	}
	defer store.Detach()

	filter, err := exclusion.Load(cfg.ExclusionsFile)
	if err != nil {
		return err
	}
	installer := &helper.Installer{Dir: cfg.HelperDir}
	if cfg.HelperSource != "" {
		installer.Source = os.DirFS(cfg.HelperSource)
	}
	location, err := cfg.Location()
	if err != nil {
		return err
	}
	extractor, err := extract.New(extract.Config{
		Source:      &helper.ProcessSource{Installer: installer},
		Filter:      filter,
		CV:          cfg.CV,
		Instruments: cfg.Instruments,
		Metadata:    cfg.Metadata,
		Location:    location,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	p, err := pipeline.New(pipeline.Config{
		Workers:   cfg.WorkerCount(),
		Extractor: extractor,
		Gateway:   store,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	checkpoint := scan.NewFileCheckpoint(cfg.DataDir)
	since, err := checkpoint.Load()
	if err != nil {
		return err
	}
	candidates, err := scan.Candidates(cfg.ScanDir, cfg.Extensions, since)
	if err != nil {
		return err
	}
	logger.Info("scan started", "dir", cfg.ScanDir, "candidates", len(candidates), "since", since)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := p.Run(ctx, scan.Paths(candidates), since)
	if err != nil {
		return fmt.Errorf("scan interrupted, checkpoint not written: %w", err)
	}
	if report.Checkpoint.After(since) {
		if err := checkpoint.Save(report.Checkpoint); err != nil {
			return err
		}
	}

	summary := scanSummary{
		Candidates: len(candidates),
		Merged:     report.Merged,
		Failed:     report.Failed,
		Checkpoint: report.Checkpoint,
	}
	for _, f := range report.Failures {
		summary.Failures = append(summary.Failures, fmt.Sprintf("%s: %v", f.Path, f.Err))
	}
	if flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), summary)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "merged %s of %s files", humanize.Comma(int64(summary.Merged)), humanize.Comma(int64(summary.Candidates)))
	if summary.Failed > 0 {
		fmt.Fprintf(out, " (%d failed)", summary.Failed)
	}
	fmt.Fprintln(out)
	if !summary.Checkpoint.IsZero() {
		fmt.Fprintf(out, "checkpoint: %s (%s)\n", summary.Checkpoint.Local().Format(time.DateTime), humanize.Time(summary.Checkpoint))
	}
	return nil
}
