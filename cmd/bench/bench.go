package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strconv"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/stripecache/cache"
	"github.com/IvanBrykalov/stripecache/internal/config"
	motel "github.com/IvanBrykalov/stripecache/metrics/otel"
	"github.com/IvanBrykalov/stripecache/policy"
)

// report is the summary printed after a run.
type report struct {
	policy   policy.Kind
	capacity int
	segments int
	workers  int
	keys     int
	seed     int64
	elapsed  time.Duration

	ops, reads, writes, hits, misses uint64

	length int
	stats  cache.Stats
}

func (r report) print(w io.Writer) {
	hitRate := 0.0
	if r.reads > 0 {
		hitRate = float64(r.hits) / float64(r.reads) * 100
	}
	opsPerSec := 0.0
	if s := r.elapsed.Seconds(); s > 0 {
		opsPerSec = float64(r.ops) / s
	}
	fmt.Fprintf(w, "policy=%s cap=%d segments=%d workers=%d keys=%d dur=%v seed=%d\n",
		r.policy, r.capacity, r.segments, r.workers, r.keys, r.elapsed.Round(time.Millisecond), r.seed)
	fmt.Fprintf(w, "ops=%d (%.0f ops/s)  reads=%d  writes=%d\n", r.ops, opsPerSec, r.reads, r.writes)
	fmt.Fprintf(w, "hits=%d  misses=%d  hit-rate=%.2f%%\n", r.hits, r.misses, hitRate)
	fmt.Fprintf(w, "Len()=%d  evictions=%d\n", r.length, r.stats.Evictions)
}

// statser and capper are implemented by both cache policies.
type statser interface {
	Stats() cache.Stats
}

type capper interface {
	Cap() int
}

// runWorkload preloads the cache, then runs cfg.Workload.Workers goroutines
// until the duration elapses or ctx is cancelled.
func runWorkload(ctx context.Context, cfg config.Config, m cache.Metrics, logger *slog.Logger) (report, error) {
	c, err := cache.New[string, string](cache.Options[string, string]{
		Capacity: cfg.Cache.Capacity,
		Policy:   cfg.Cache.Policy,
		Segments: cfg.Cache.Segments,
		Metrics:  m,
		Logger:   logger,
	})
	if err != nil {
		return report{}, err
	}

	w := cfg.Workload
	seed := w.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	preload := w.Preload
	if preload == 0 {
		preload = cfg.Cache.Capacity / 2
	}
	for i := 0; i < preload; i++ {
		if err := c.Put("k:"+strconv.Itoa(i), "v"+strconv.Itoa(i)); err != nil {
			return report{}, err
		}
	}
	logger.Info("workload starting",
		slog.String("policy", cfg.Cache.Policy.String()),
		slog.Int("preloaded", c.Len()),
		slog.Int("workers", w.Workers),
		slog.Duration("duration", w.Duration))

	ctx, cancel := context.WithTimeout(ctx, w.Duration)
	defer cancel()

	var reads, writes, hits, misses, total atomic.Uint64
	keysMax := uint64(w.Keys - 1)

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for id := 0; id < w.Workers; id++ {
		g.Go(func() error {
			// rand.Rand is not goroutine-safe: one RNG and Zipf per worker.
			r := rand.New(rand.NewSource(seed + int64(id)*9973))
			zipf := rand.NewZipf(r, w.ZipfS, w.ZipfV, keysMax)
			key := func() string { return "k:" + strconv.FormatUint(zipf.Uint64(), 10) }

			for ctx.Err() == nil {
				total.Add(1)
				if int(r.Int31n(100)) < w.Reads {
					reads.Add(1)
					if _, ok := c.Get(key()); ok {
						hits.Add(1)
					} else {
						misses.Add(1)
					}
					continue
				}
				writes.Add(1)
				if err := c.Put(key(), "v"+strconv.Itoa(r.Int())); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report{}, err
	}

	rep := report{
		policy:   cfg.Cache.Policy,
		capacity: cfg.Cache.Capacity,
		segments: cfg.Cache.Segments,
		workers:  w.Workers,
		keys:     w.Keys,
		seed:     seed,
		elapsed:  time.Since(start),
		ops:      total.Load(),
		reads:    reads.Load(),
		writes:   writes.Load(),
		hits:     hits.Load(),
		misses:   misses.Load(),
		length:   c.Len(),
	}
	if s, ok := c.(statser); ok {
		rep.stats = s.Stats()
	}
	if cp, ok := c.(capper); ok {
		rep.capacity = cp.Cap()
	}
	if rep.length > rep.capacity {
		return rep, fmt.Errorf("cache holds %d entries, capacity %d", rep.length, rep.capacity)
	}
	logger.Info("workload finished", slog.Uint64("ops", rep.ops), slog.Int("len", rep.length))
	return rep, nil
}

// otelTotals records through an in-process OTel SDK and reads the totals back.
type otelTotals struct {
	provider *sdkmetric.MeterProvider
	reader   *sdkmetric.ManualReader
	adapter  *motel.Adapter
}

type totals struct {
	hits, misses, evictions, size int64
}

func newOTelTotals(kind policy.Kind) (*otelTotals, error) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	a, err := motel.New(
		motel.WithMeterProvider(mp),
		motel.WithAttributes(attribute.String("policy", kind.String())),
	)
	if err != nil {
		_ = mp.Shutdown(context.Background())
		return nil, err
	}
	return &otelTotals{provider: mp, reader: reader, adapter: a}, nil
}

func (o *otelTotals) collect(ctx context.Context) (totals, error) {
	var rm metricdata.ResourceMetrics
	if err := o.reader.Collect(ctx, &rm); err != nil {
		return totals{}, err
	}
	var t totals
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			var v int64
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					v += dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					v = dp.Value
				}
			}
			switch m.Name {
			case "cache.hits":
				t.hits = v
			case "cache.misses":
				t.misses = v
			case "cache.evictions":
				t.evictions = v
			case "cache.size":
				t.size = v
			}
		}
	}
	return t, nil
}

func (o *otelTotals) shutdown() { _ = o.provider.Shutdown(context.Background()) }
