// Command ioqueued runs the I/O scheduling core against a target store
// with a synthetic workload.
//
// It plays every external role the core leaves to its environment: the
// replenishment driver (a ticker calling Pool.Replenish), the dispatch
// driver (a ticker calling Queue.Poll and draining the sink through the
// store executor), the workload (rate-limited random reads and writes
// spread over the configured priority classes) and the observability
// surface (a Prometheus /metrics endpoint).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luzhanping/ioqueued/internal/logger"
	"github.com/luzhanping/ioqueued/internal/ratelimiter"
	"github.com/luzhanping/ioqueued/pkg/capacity"
	"github.com/luzhanping/ioqueued/pkg/config"
	"github.com/luzhanping/ioqueued/pkg/intent"
	"github.com/luzhanping/ioqueued/pkg/ioqueue"
	"github.com/luzhanping/ioqueued/pkg/ioreq"
	"github.com/luzhanping/ioqueued/pkg/iosink"
	"github.com/luzhanping/ioqueued/pkg/metrics"
	"github.com/luzhanping/ioqueued/pkg/priority"
	"github.com/luzhanping/ioqueued/pkg/sched"
	"github.com/luzhanping/ioqueued/pkg/store"
	badgerstore "github.com/luzhanping/ioqueued/pkg/store/badger"
	fsstore "github.com/luzhanping/ioqueued/pkg/store/fs"
	memorystore "github.com/luzhanping/ioqueued/pkg/store/memory"
)

func newStore(ctx context.Context, cfg *config.StoreConfig) (store.Store, error) {
	switch cfg.Type {
	case "memory":
		return memorystore.NewMemoryStore(), nil
	case "fs":
		return fsstore.NewFSStore(ctx, cfg.FS.Path)
	case "badger":
		return badgerstore.NewBadgerStore(ctx, cfg.Badger.Dir)
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}

func main() {
	configPath := flag.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/ioqueued/config.yaml)")
	duration := flag.Duration("duration", 10*time.Second, "How long to run the synthetic workload (0 = until signalled)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.SetLevel(cfg.Logging.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Shut down on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("Received %s, shutting down", sig)
		cancel()
	}()

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
		go func() {
			logger.Info("Metrics endpoint listening on %s", cfg.Metrics.Listen)
			if err := http.ListenAndServe(cfg.Metrics.Listen, mux); err != nil {
				logger.Error("Metrics endpoint failed: %v", err)
			}
		}()
	}

	targets, err := newStore(ctx, &cfg.Store)
	if err != nil {
		log.Fatalf("Failed to create %s store: %v", cfg.Store.Type, err)
	}
	defer targets.Close()
	logger.Info("Target store: %s", cfg.Store.Type)

	// Priority classes from config.
	registry := priority.NewRegistry()
	classes := make([]*priority.Class, 0, len(cfg.Classes))
	for _, cc := range cfg.Classes {
		class, err := registry.Register(cc.Name, cc.Shares)
		if err != nil {
			log.Fatalf("Failed to register class: %v", err)
		}
		classes = append(classes, class)
		logger.Info("Priority class %s registered with %d shares", cc.Name, cc.Shares)
	}
	defaultClass := registry.Lookup(cfg.Queue.DefaultClass)
	if defaultClass == nil {
		log.Fatalf("Default class %q not registered", cfg.Queue.DefaultClass)
	}

	pool := capacity.NewPool(cfg.Pool.Capacity, cfg.Pool.RatePerSecond)
	sink := iosink.NewSink()
	queue := ioqueue.New(pool, sink, sched.NewFair(), ioqueue.Config{
		MaxTransferSize: cfg.Queue.MaxTransferSize,
		Metrics:         metrics.NewQueueMetrics("ioqueued"),
	})
	executor := store.NewExecutor(targets)
	logger.Info("Queue %s ready (pool capacity %d, max transfer %d)",
		queue.ID(), cfg.Pool.Capacity, cfg.Queue.MaxTransferSize)

	// Replenishment driver: the pool never ticks itself.
	replenishEvery, _ := time.ParseDuration(cfg.Pool.ReplenishInterval)
	go func() {
		ticker := time.NewTicker(replenishEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				pool.Replenish(now)
			}
		}
	}()

	// Dispatch driver: poll the queue, then drain the sink into the
	// store. The queue and the intents it binds are single-context,
	// so Submit and Cancel calls are funnelled onto this goroutine
	// alongside Poll.
	pollEvery, _ := time.ParseDuration(cfg.Queue.PollInterval)
	callCh := make(chan func())
	go func() {
		ticker := time.NewTicker(pollEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case call := <-callCh:
				call()
			case <-ticker.C:
				queue.Poll()
				executor.Drain(ctx, sink)
			}
		}
	}()
	onQueue := func(fn func()) {
		done := make(chan struct{})
		select {
		case callCh <- func() { fn(); close(done) }:
			<-done
		case <-ctx.Done():
		}
	}

	if *duration > 0 {
		go func() {
			<-time.After(*duration)
			cancel()
		}()
	}

	runWorkload(ctx, cfg, classes, defaultClass, queue, onQueue)
	logger.Info("Workload finished")
}

// runWorkload submits rate-limited random writes and read-backs until
// the context is cancelled. A slice of operations runs under an intent
// that is cancelled mid-flight to exercise the cancellation path.
func runWorkload(
	ctx context.Context,
	cfg *config.Config,
	classes []*priority.Class,
	defaultClass *priority.Class,
	queue *ioqueue.Queue,
	onQueue func(func()),
) {
	limiter := ratelimiter.New(cfg.Queue.SubmitRate, 0)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var (
		issued    int
		cancelled int
		failed    int
	)

	for {
		if err := limiter.Wait(ctx); err != nil {
			break
		}

		// Half the operations name a class explicitly; the rest fall
		// back to the configured default class.
		class := defaultClass
		if rng.Intn(2) == 0 {
			class = classes[rng.Intn(len(classes))]
		}
		target := rng.Intn(16)
		off := uint64(rng.Intn(1 << 20))
		size := rng.Intn(256<<10) + 1
		buf := make([]byte, size)
		rng.Read(buf)

		// One in four operations runs under a scope we cancel right
		// after submission: queued-but-undispatched ones resolve
		// with a cancellation failure.
		scoped := rng.Intn(4) == 0

		var p *ioqueue.Pending
		onQueue(func() {
			var in *intent.Intent
			if scoped {
				in = intent.New()
			}
			p = queue.Submit(class, ioreq.MakeWrite(target, off, buf, false), in)
			if in != nil {
				in.Cancel()
			}
		})
		if p == nil {
			break
		}
		issued++

		if _, err := p.Wait(ctx); err != nil {
			switch {
			case err == intent.ErrCancelled:
				cancelled++
			case ctx.Err() != nil:
				// Shutdown race, not a workload failure.
			default:
				failed++
				logger.Warn("Write failed: %v", err)
			}
		}

		if issued%1000 == 0 {
			logger.Info("Workload: %d issued, %d cancelled, %d failed", issued, cancelled, failed)
		}

		if ctx.Err() != nil {
			break
		}
	}

	logger.Info("Workload totals: %d issued, %d cancelled, %d failed", issued, cancelled, failed)
}
