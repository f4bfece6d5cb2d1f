// Command bench runs a synthetic workload against the cache and exposes
// optional pprof/Prometheus endpoints.
//
// Settings come from an optional YAML/JSON file (--config); flags that are
// set explicitly override the file.
//
//	bench --policy lfu --cap 50000 --duration 5s
//	bench --config bench.yaml --http :9090
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/stripecache/cache"
	"github.com/IvanBrykalov/stripecache/internal/config"
	"github.com/IvanBrykalov/stripecache/internal/logging"
	pmet "github.com/IvanBrykalov/stripecache/metrics/prom"
	"github.com/IvanBrykalov/stripecache/policy"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout, os.Stderr).Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "bench:", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	def := config.Default()
	return &cli.Command{
		Name:  "bench",
		Usage: "drive a zipf-distributed Get/Put workload against an LRU or LFU cache",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML or JSON settings file"},
			&cli.StringFlag{Name: "policy", Value: def.Cache.Policy.String(), Usage: "eviction policy: lru | lfu"},
			&cli.IntFlag{Name: "cap", Value: def.Cache.Capacity, Usage: "cache capacity (entries)"},
			&cli.IntFlag{Name: "segments", Value: def.Cache.Segments, Usage: "LRU key stripe locks (rounded up to a power of two)"},

			&cli.IntFlag{Name: "workers", Value: def.Workload.Workers, Usage: "number of worker goroutines"},
			&cli.DurationFlag{Name: "duration", Value: def.Workload.Duration, Usage: "benchmark duration"},
			&cli.IntFlag{Name: "reads", Value: def.Workload.Reads, Usage: "read percentage [0..100]"},
			&cli.IntFlag{Name: "keys", Value: def.Workload.Keys, Usage: "keyspace size"},
			&cli.Float64Flag{Name: "zipf_s", Value: def.Workload.ZipfS, Usage: "Zipf s > 1 (skew)"},
			&cli.Float64Flag{Name: "zipf_v", Value: def.Workload.ZipfV, Usage: "Zipf v >= 1"},
			&cli.Int64Flag{Name: "seed", Usage: "random seed (0 = time-based)"},
			&cli.IntFlag{Name: "preload", Usage: "preload entries (0 = cap/2)"},

			&cli.StringFlag{Name: "http", Value: def.Metrics.Addr, Usage: "serve /metrics and /debug/pprof at addr; empty = disabled"},
			&cli.StringFlag{Name: "namespace", Value: def.Metrics.Namespace, Usage: "Prometheus namespace"},
			&cli.BoolFlag{Name: "otel", Usage: "also record through an OpenTelemetry meter and print its totals"},

			&cli.StringFlag{Name: "log-level", Value: def.Log.Level, Usage: "debug | info | warn | error"},
			&cli.StringFlag{Name: "log-format", Value: def.Log.Format, Usage: "text | json"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			logger, _, err := logging.New(stderr, cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			return run(ctx, cfg, logger, stdout)
		},
	}
}

// resolveConfig loads --config (if any) and applies explicitly set flags.
func resolveConfig(cmd *cli.Command) (config.Config, error) {
	cfg := config.Default()
	if path := cmd.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}

	if cmd.IsSet("policy") {
		k, err := policy.Parse(cmd.String("policy"))
		if err != nil {
			return cfg, err
		}
		cfg.Cache.Policy = k
	}
	setInt := func(name string, dst *int) {
		if cmd.IsSet(name) {
			*dst = cmd.Int(name)
		}
	}
	setInt("cap", &cfg.Cache.Capacity)
	setInt("segments", &cfg.Cache.Segments)
	setInt("workers", &cfg.Workload.Workers)
	setInt("reads", &cfg.Workload.Reads)
	setInt("keys", &cfg.Workload.Keys)
	setInt("preload", &cfg.Workload.Preload)
	if cmd.IsSet("duration") {
		cfg.Workload.Duration = cmd.Duration("duration")
	}
	if cmd.IsSet("zipf_s") {
		cfg.Workload.ZipfS = cmd.Float64("zipf_s")
	}
	if cmd.IsSet("zipf_v") {
		cfg.Workload.ZipfV = cmd.Float64("zipf_v")
	}
	if cmd.IsSet("seed") {
		cfg.Workload.Seed = cmd.Int64("seed")
	}
	if cmd.IsSet("http") {
		cfg.Metrics.Addr = cmd.String("http")
	}
	if cmd.IsSet("namespace") {
		cfg.Metrics.Namespace = cmd.String("namespace")
	}
	if cmd.IsSet("otel") {
		cfg.Metrics.OTel = cmd.Bool("otel")
	}
	if cmd.IsSet("log-level") {
		cfg.Log.Level = cmd.String("log-level")
	}
	if cmd.IsSet("log-format") {
		cfg.Log.Format = cmd.String("log-format")
	}
	return cfg, cfg.Validate()
}

// run wires metrics, serves them while the workload runs and prints the report.
func run(ctx context.Context, cfg config.Config, logger *slog.Logger, out io.Writer) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pm, err := pmet.New(reg, cfg.Metrics.Namespace, "bench", prometheus.Labels{"policy": cfg.Cache.Policy.String()})
	if err != nil {
		return err
	}
	metrics := []cache.Metrics{pm}

	var om *otelTotals
	if cfg.Metrics.OTel {
		if om, err = newOTelTotals(cfg.Cache.Policy); err != nil {
			return err
		}
		defer om.shutdown()
		metrics = append(metrics, om.adapter)
	}

	g, ctx := errgroup.WithContext(ctx)
	benchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Metrics.Addr != "" {
		ln, err := net.Listen("tcp", cfg.Metrics.Addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.Metrics.Addr, err)
		}
		srv := newMetricsServer(reg)
		logger.Info("metrics: serving", slog.String("addr", ln.Addr().String()))
		g.Go(func() error {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-benchCtx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	var rep report
	g.Go(func() error {
		defer cancel()
		var err error
		rep, err = runWorkload(benchCtx, cfg, cache.Tee(metrics...), logger)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	rep.print(out)
	if om != nil {
		totals, err := om.collect(context.Background())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "otel: hits=%d misses=%d evictions=%d size=%d\n",
			totals.hits, totals.misses, totals.evictions, totals.size)
	}
	return nil
}

func newMetricsServer(reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}
