// Package bench fires many concurrent requests through an epidata.Client
// and summarizes outcomes and latency. It backs the `epidata bench` command.
package bench

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/okian/epidata/pkg/epidata"
	"github.com/okian/epidata/pkg/logger"
)

// Worker and report constants.
const (
	workerChannelMultiplier = 2
	percentageMultiplier    = 100
	p50                     = 0.50
	p95                     = 0.95
)

// Sentinel kinds for bench errors.
var (
	ErrInvalidConfig = errors.New("invalid bench config")
	ErrUnknownSource = errors.New("source is not a parameterless metadata source")
)

// Call issues one request. done runs exactly once when it returns nil.
type Call func(ctx context.Context, c *epidata.Client, done epidata.Completion) error

// Sources are the endpoints that take no parameters.
var Sources = map[string]Call{
	epidata.SourceMeta: func(ctx context.Context, c *epidata.Client, d epidata.Completion) error {
		return c.Meta(ctx, d)
	},
	epidata.SourceFluviewMeta: func(ctx context.Context, c *epidata.Client, d epidata.Completion) error {
		return c.FluviewMeta(ctx, d)
	},
	epidata.SourceCovidcastMeta: func(ctx context.Context, c *epidata.Client, d epidata.Completion) error {
		return c.CovidcastMeta(ctx, d)
	},
}

// Config holds configuration for one run.
type Config struct {
	Source   string // parameterless source to request
	Requests int    // total requests to send
	Workers  int    // requests in flight; defaults to CPU cores * 2
}

// Latency summarizes request durations in milliseconds.
type Latency struct {
	Min float64 `json:"min"`
	Avg float64 `json:"avg"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	Max float64 `json:"max"`
}

// Stats holds run statistics.
type Stats struct {
	Source            string         `json:"source"`
	Requests          int            `json:"requests"`
	Workers           int            `json:"workers"`
	Completed         int            `json:"completed"`
	Results           map[string]int `json:"results"`
	SuccessRate       float64        `json:"success_rate"`
	RequestsPerSecond float64        `json:"requests_per_second"`
	Duration          string         `json:"duration"`
	Latency           Latency        `json:"latency_ms"`
}

type sample struct {
	result  int
	elapsed time.Duration
}

// Run sends cfg.Requests requests from cfg.Workers goroutines and waits for
// every completion. Cancelling ctx stops handing out new requests.
func Run(ctx context.Context, c *epidata.Client, cfg Config, log logger.Logger) (*Stats, error) {
	call, ok := Sources[cfg.Source]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, cfg.Source)
	}
	if cfg.Requests <= 0 {
		return nil, fmt.Errorf("%w: requests must be positive", ErrInvalidConfig)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU() * workerChannelMultiplier
	}
	if cfg.Workers > cfg.Requests {
		cfg.Workers = cfg.Requests
	}
	if log == nil {
		log = logger.Nop()
	}

	log.Info(ctx, "starting bench",
		logger.Source(cfg.Source),
		logger.Int("requests", cfg.Requests),
		logger.Int("workers", cfg.Workers))

	jobs := make(chan struct{}, cfg.Workers*workerChannelMultiplier)
	samples := make(chan sample, cfg.Requests)

	var wg sync.WaitGroup
	start := time.Now()
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				samples <- once(ctx, c, call)
			}
		}()
	}

feed:
	for i := 0; i < cfg.Requests; i++ {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- struct{}{}:
		}
	}
	close(jobs)
	wg.Wait()
	close(samples)

	stats := summarize(cfg, samples, time.Since(start))
	log.Info(ctx, "bench finished",
		logger.Int("completed", stats.Completed),
		logger.Float64("successRate", stats.SuccessRate),
		logger.Float64("requestsPerSecond", stats.RequestsPerSecond),
		logger.String("duration", stats.Duration))
	return stats, nil
}

func once(ctx context.Context, c *epidata.Client, call Call) sample {
	done, out := epidata.Collect()
	begin := time.Now()
	if err := call(ctx, c, done); err != nil {
		return sample{result: epidata.ResultUnknown, elapsed: time.Since(begin)}
	}
	resp := <-out
	return sample{result: resp.Result, elapsed: time.Since(begin)}
}

func summarize(cfg Config, samples <-chan sample, total time.Duration) *Stats {
	stats := &Stats{
		Source:   cfg.Source,
		Requests: cfg.Requests,
		Workers:  cfg.Workers,
		Results:  map[string]int{},
		Duration: total.String(),
	}

	var ms []float64
	ok := 0
	for s := range samples {
		stats.Completed++
		stats.Results[strconv.Itoa(s.result)]++
		if s.result == epidata.ResultSuccess || s.result == epidata.ResultTruncated {
			ok++
		}
		ms = append(ms, float64(s.elapsed.Microseconds())/1000)
	}

	if stats.Completed > 0 {
		stats.SuccessRate = float64(ok) / float64(stats.Completed) * percentageMultiplier
	}
	if total > 0 {
		stats.RequestsPerSecond = float64(stats.Completed) / total.Seconds()
	}
	stats.Latency = latency(ms)
	return stats
}

func latency(ms []float64) Latency {
	if len(ms) == 0 {
		return Latency{}
	}
	slices.Sort(ms)
	var sum float64
	for _, v := range ms {
		sum += v
	}
	return Latency{
		Min: ms[0],
		Avg: sum / float64(len(ms)),
		P50: percentile(ms, p50),
		P95: percentile(ms, p95),
		Max: ms[len(ms)-1],
	}
}

// percentile uses nearest rank on sorted input.
func percentile(sorted []float64, q float64) float64 {
	idx := int(q*float64(len(sorted))+0.5) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}
