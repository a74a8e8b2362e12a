package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/gridcrawl/internal/api"
	"github.com/JakeFAU/gridcrawl/internal/classify"
	"github.com/JakeFAU/gridcrawl/internal/config"
	"github.com/JakeFAU/gridcrawl/internal/crawler"
	"github.com/JakeFAU/gridcrawl/internal/engine"
	"github.com/JakeFAU/gridcrawl/internal/extract"
	collyfetcher "github.com/JakeFAU/gridcrawl/internal/fetcher/colly"
	"github.com/JakeFAU/gridcrawl/internal/recordlog/file"
	"github.com/JakeFAU/gridcrawl/internal/recordlog/memory"
	"github.com/JakeFAU/gridcrawl/internal/runid"
)

type crawlOptions struct {
	dryRun bool
	addr   string
}

func newCrawlCmd() *cobra.Command {
	var opts crawlOptions
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Visit every queued grid cell",
		Long: `Replays the record log, then fetches every Queued URL in the order it was
queued, appending newly discovered neighbors and each page's result. The run
ends when nothing is left to visit. An interrupted run is resumed by running
crawl again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawl(cmd, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "crawl against an in-memory copy of the log; the file is not modified")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "status server listen address (overrides server.addr)")
	return cmd
}

func runCrawl(cmd *cobra.Command, opts crawlOptions) error {
	env, err := envFrom(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	cfg := env.cfg
	id, err := runid.New()
	if err != nil {
		return err
	}
	logger := env.logger.With(zap.String("run_id", id))

	recordLog, closeLog, err := openRecordLog(ctx, cfg.Log.Path, opts.dryRun, logger)
	if err != nil {
		return err
	}
	defer closeLog()

	session, err := engine.Open(ctx, recordLog)
	if err != nil {
		return err
	}
	eng, err := buildEngine(cfg, logger.Named("engine"))
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if opts.addr != "" {
		addr = opts.addr
	}

	var summary engine.Summary
	g, gCtx := errgroup.WithContext(ctx)
	var srv *http.Server
	if addr != "" {
		srv = &http.Server{
			Addr:              addr,
			Handler:           api.NewServer(cfg.Log.Path, id, logger.Named("api")).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("status server started", zap.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("status server: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		defer shutdownServer(srv, logger)
		var runErr error
		summary, runErr = eng.Run(gCtx, session)
		return runErr
	})
	err = g.Wait()

	logger.Info("crawl finished",
		zap.Int("fetched", summary.Fetched),
		zap.Int("pages", summary.Pages),
		zap.Int("absent", summary.Absent),
		zap.Int("errors", summary.Errors),
		zap.Int("indeterminate", summary.Indeterminate),
		zap.Int("discovered", summary.Discovered),
		zap.Int("pending", session.Pending()),
		zap.Duration("duration", summary.Duration),
	)
	printSummary(cmd.OutOrStdout(), summary, session.Pending())

	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		logger.Warn("crawl interrupted; run crawl again to resume", zap.Int("pending", session.Pending()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("crawl: %w", err)
	}
	return nil
}

// openRecordLog opens the file log, or for a dry run an in-memory log seeded
// with the file's current records.
func openRecordLog(ctx context.Context, path string, dryRun bool, logger *zap.Logger) (crawler.RecordLog, func(), error) {
	if dryRun {
		records, err := file.ReadAll(ctx, path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, nil, err
		}
		logger.Info("dry run: record log will not be modified", zap.String("path", path))
		return memory.NewLog(records...), func() {}, nil
	}
	fileLog, err := file.Open(file.Config{Path: path}, logger.Named("recordlog"))
	if err != nil {
		return nil, nil, err
	}
	return fileLog, func() {
		if err := fileLog.Close(); err != nil {
			logger.Warn("close record log failed", zap.Error(err))
		}
	}, nil
}

func buildEngine(cfg config.Config, logger *zap.Logger) (*engine.Engine, error) {
	extractor, err := extract.New(cfg.Dataset.LinkPattern, cfg.Dataset.Labels)
	if err != nil {
		return nil, fmt.Errorf("init extractor: %w", err)
	}
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:     cfg.HTTP.UserAgent,
		RespectRobots: cfg.HTTP.RespectRobots,
		Timeout:       cfg.Timeout(),
	})
	return engine.New(fetcher, classify.New(cfg.Dataset.AbsentMarkers), extractor, logger), nil
}

func shutdownServer(srv *http.Server, logger *zap.Logger) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("status server shutdown error", zap.Error(err))
	}
}

func printSummary(w io.Writer, s engine.Summary, pending int) {
	_, _ = fmt.Fprintf(w,
		"fetched=%d page=%d absent=%d error=%d indeterminate=%d discovered=%d pending=%d duration=%s\n",
		s.Fetched, s.Pages, s.Absent, s.Errors, s.Indeterminate, s.Discovered, pending, s.Duration.Round(time.Millisecond),
	)
}
