package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jingkaihe/streamstat/internal/errx"
	"github.com/jingkaihe/streamstat/pkg/config"
	"github.com/jingkaihe/streamstat/pkg/instrument"
	"github.com/jingkaihe/streamstat/pkg/metrics"
)

var probeCmd = &cobra.Command{
	Use:   "probe [flags] <path|url>...",
	Short: "Repeatedly read targets and export the counters",
	Long: `Repeatedly read every target through the instrumented layer.

Each round reads all targets concurrently and discards the bytes. Opens
for the same scheme are serialized while the native call is in flight, so
https targets only overlap once their response headers arrive. With
--listen (or metrics.listen) the counters are served in Prometheus format
at /metrics. Rounds run until --rounds is reached or the process is
interrupted; --rounds 0 means no limit.`,
	Example: `  streamstat probe --rounds 3 https://example.com/ /var/lib/app/data/index
  streamstat probe --listen 127.0.0.1:9464 --interval 30s https://example.com/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().Duration("interval", 10*time.Second, "Delay between rounds")
	probeCmd.Flags().Int("rounds", 1, "Number of rounds (0 = until interrupted)")
	probeCmd.Flags().Int("concurrency", 4, "Targets read in parallel (opens per scheme are serialized)")
	probeCmd.Flags().String("listen", "", "Serve Prometheus metrics on this address")
	probeCmd.Flags().String("caller", "probe", "Caller identifier logged with each operation")

	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	interval, _ := cmd.Flags().GetDuration("interval")
	rounds, _ := cmd.Flags().GetInt("rounds")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	caller, _ := cmd.Flags().GetString("caller")
	if interval <= 0 {
		return ErrInvalidInterval
	}

	a, err := newApp(cmd, config.FlagBindings{"metrics.listen": "listen"})
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.enable(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	if listen := a.cfg.Metrics.Listen; listen != "" {
		reg := metrics.InitRegistry()
		if err := reg.Register(metrics.NewPerfCollector(a.file, a.http)); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return errx.Wrap(ErrRegisterMetrics, err)
			}
		}
		srv := metrics.NewServer(listen, reg, a.logger)
		g.Go(func() error {
			return srv.Start(gctx)
		})
	}

	g.Go(func() error {
		defer cancel()
		return a.probe(instrument.WithCaller(gctx, caller), args, rounds, concurrency, interval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return writeStats(cmd, cmd.OutOrStdout(), a.stats())
}

// probe runs rounds of concurrent reads, storing a snapshot after each.
func (a *app) probe(ctx context.Context, targets []string, rounds, concurrency int, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for round := 1; rounds <= 0 || round <= rounds; round++ {
		start := time.Now()
		if err := a.probeRound(ctx, targets, concurrency); err != nil {
			return err
		}
		if err := a.snapshot(ctx); err != nil {
			a.logger.Warn("snapshot failed", "round", round, "error", err)
		}
		a.logger.Info("probe round complete", "round", round, "targets", len(targets), "duration", time.Since(start))

		if rounds > 0 && round == rounds {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// probeRound reads every target once. Target failures are logged and
// counted by the instruments; only cancellation stops the round.
func (a *app) probeRound(ctx context.Context, targets []string, concurrency int) error {
	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for _, target := range targets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := a.copyStream(gctx, io.Discard, target); err != nil {
				a.logger.Warn("probe target failed", "target", target, "error", err)
			}
			return nil
		})
	}
	return g.Wait()
}
