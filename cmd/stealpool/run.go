package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/vnykmshr/stealpool/internal/demo"
	"github.com/vnykmshr/stealpool/pkg/metrics"
	"github.com/vnykmshr/stealpool/pkg/scheduling/stealpool"
)

type runOptions struct {
	Workers     int
	Tasks       int
	Steps       int
	Step        time.Duration
	Wait        time.Duration
	Sums        int
	StopPolicy  string
	MetricsAddr string
}

func loadRunOptions(v *viper.Viper) runOptions {
	return runOptions{
		Workers:     v.GetInt("workers"),
		Tasks:       v.GetInt("tasks"),
		Steps:       v.GetInt("steps"),
		Step:        v.GetDuration("step"),
		Wait:        v.GetDuration("wait"),
		Sums:        v.GetInt("sums"),
		StopPolicy:  v.GetString("stop-policy"),
		MetricsAddr: v.GetString("metrics-addr"),
	}
}

func newRunCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the sleeper and sum workloads",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorkloads(cmd.Context(), loadRunOptions(v), zap.L())
		},
	}

	flags := cmd.Flags()
	flags.Int("workers", 4, "number of workers, 0 for GOMAXPROCS")
	flags.Int("tasks", 30, "sleeper tasks queued before start")
	flags.Int("steps", 10, "sleeps per sleeper task")
	flags.Duration("step", 10*time.Millisecond, "length of one sleep")
	flags.Duration("wait", 2*time.Second, "pause before the late sleeper task")
	flags.Int("sums", 10, "number of 10+20 tasks")
	flags.String("stop-policy", stealpool.StopDrain.String(), "queued tasks at join: abandon, fail-pending or drain")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address")
	mustBind(v, flags)

	return cmd
}

func runWorkloads(ctx context.Context, opts runOptions, logger *zap.Logger) error {
	policy, err := stealpool.ParseStopPolicy(opts.StopPolicy)
	if err != nil {
		return err
	}

	var reg *metrics.Registry
	if opts.MetricsAddr != "" {
		promReg := prometheus.NewRegistry()
		reg = metrics.NewRegistry(promReg)
		stopServer := serveMetrics(opts.MetricsAddr, promReg, logger)
		defer stopServer()
	}

	pool, err := stealpool.NewWithConfig(stealpool.Config{
		WorkerCount: opts.Workers,
		Name:        "sleepers",
		StopPolicy:  policy,
		Logger:      logger,
		Metrics:     reg,
	})
	if err != nil {
		return err
	}

	completed, err := demo.Sleepers(ctx, pool, demo.SleepersConfig{
		Tasks: opts.Tasks,
		Steps: opts.Steps,
		Step:  opts.Step,
		Wait:  opts.Wait,
	}, logger)
	if err != nil {
		return err
	}
	logger.Info("sleepers done", zap.Int64("completed", completed), zap.Int("submitted", opts.Tasks+1))

	// The sum workload reuses the joined pool.
	if err := pool.Start(); err != nil {
		return err
	}
	defer pool.JoinAll()

	sums, err := demo.Sums(ctx, pool, opts.Sums)
	if err != nil {
		return err
	}
	logger.Info("sums done", zap.Ints("results", sums))

	stats := pool.Stats()
	logger.Info("pool stats",
		zap.Int64("submitted", stats.Submitted),
		zap.Int64("executed", stats.Executed),
		zap.Int64("stolen", stats.Stolen),
		zap.Int64("failed", stats.Failed))
	return nil
}

func serveMetrics(addr string, gatherer prometheus.Gatherer, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
