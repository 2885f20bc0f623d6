// Command bench runs a synthetic force-storm against the cells and exposes
// optional pprof/Prometheus endpoints while it runs.
package main

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/thunk/group"
	"github.com/IvanBrykalov/thunk/metrics/prom"
	"github.com/IvanBrykalov/thunk/thunk"
)

func main() {
	cmd := &cli.Command{
		Name:  "bench",
		Usage: "Force-storm benchmark for the thunk cells",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Category: "Workload",
				Name:     "mode",
				Usage:    "what to hammer: atomic | shared | group",
				Value:    "atomic",
			},
			&cli.IntFlag{
				Category: "Workload",
				Name:     "cells",
				Usage:    "number of distinct cells (or keys) in the population",
				Value:    100_000,
			},
			&cli.IntFlag{
				Category: "Workload",
				Name:     "workers",
				Usage:    "number of forcing goroutines",
				Value:    2 * runtime.GOMAXPROCS(0),
			},
			&cli.DurationFlag{
				Category: "Workload",
				Name:     "duration",
				Usage:    "how long to run",
				Value:    10 * time.Second,
			},
			&cli.IntFlag{
				Category: "Workload",
				Name:     "work",
				Usage:    "xor-fold iterations per computation (CPU cost of one force)",
				Value:    10_000,
			},
			&cli.Int64Flag{
				Category: "Workload",
				Name:     "seed",
				Usage:    "random seed",
				Value:    time.Now().UnixNano(),
			},
			&cli.StringFlag{
				Category: "Endpoints",
				Name:     "http",
				Usage:    "serve Prometheus metrics at addr (empty = disabled)",
				Value:    ":8080",
			},
			&cli.StringFlag{
				Category: "Endpoints",
				Name:     "pprof",
				Usage:    "serve pprof at addr (e.g. :6060); empty = disabled",
				Value:    "",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	var (
		mode     = cmd.String("mode")
		cells    = cmd.Int("cells")
		workers  = cmd.Int("workers")
		duration = cmd.Duration("duration")
		work     = cmd.Int("work")
		seed     = cmd.Int64("seed")
	)
	if cells <= 0 || workers <= 0 {
		return errors.New("cells and workers must be > 0")
	}

	// ---- pprof server (on DefaultServeMux) ----
	if addr := cmd.String("pprof"); addr != "" {
		go func() {
			log.Printf("pprof: serving at %s", addr)
			log.Println(http.ListenAndServe(addr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := prom.New(nil, "thunk", "bench", nil)
	if addr := cmd.String("http"); addr != "" {
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			log.Printf("metrics: serving at %s", addr)
			log.Println(http.ListenAndServe(addr, nil))
		}()
	}

	force, err := buildWorkload(mode, cells, work, metrics)
	if err != nil {
		return err
	}

	log.Printf("bench: mode=%s cells=%d workers=%d duration=%s work=%d",
		mode, cells, workers, duration, work)

	var forces uint64
	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		id := w
		g.Go(func() error {
			// Each worker gets its own RNG (rand.Rand is not goroutine-safe).
			r := rand.New(rand.NewSource(seed + int64(id)*9973))
			for {
				select {
				case <-ctx.Done():
					return nil
				default:
				}
				if err := force(r.Intn(cells)); err != nil {
					return errors.Wrap(err, "force")
				}
				atomic.AddUint64(&forces, 1)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	elapsed := time.Since(start)
	total := atomic.LoadUint64(&forces)
	log.Printf("bench: %d forces in %s (%.0f forces/s)",
		total, elapsed.Round(time.Millisecond), float64(total)/elapsed.Seconds())
	return nil
}

// buildWorkload constructs the cell population for a mode and returns the
// per-iteration force function over a cell index.
func buildWorkload(mode string, cells, work int, m thunk.Metrics) (func(int) error, error) {
	computation := func(n int) (int, error) {
		acc := n
		for i := 0; i < work; i++ {
			acc ^= i
		}
		return acc, nil
	}

	switch mode {
	case "atomic":
		pop := make([]*thunk.AtomicThunk[int], cells)
		for i := range pop {
			i := i
			pop[i] = thunk.NewAtomicWith(func() (int, error) { return computation(i) }, thunk.Options{Metrics: m})
		}
		return func(i int) error {
			_, err := pop[i].Force()
			return err
		}, nil

	case "shared":
		pop := make([]*thunk.AtomicShared[int], cells)
		for i := range pop {
			i := i
			pop[i] = thunk.ShareAtomic(func() (int, error) { return computation(i) })
		}
		return func(i int) error {
			h := pop[i].Clone()
			defer h.Release()
			_, err := h.Force()
			return err
		}, nil

	case "group":
		g := group.New(func(k string) (int, error) {
			n, err := strconv.Atoi(k)
			if err != nil {
				return 0, err
			}
			return computation(n)
		}, group.Options{Metrics: m})
		return func(i int) error {
			_, err := g.Get(strconv.Itoa(i))
			return err
		}, nil

	default:
		return nil, errors.Errorf("unknown mode: %q (use atomic, shared or group)", mode)
	}
}
