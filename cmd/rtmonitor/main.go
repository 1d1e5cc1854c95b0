// Command rtmonitor runs a periodic task set continuously while serving
// its live statistics two ways: Prometheus scrape endpoint at /metrics,
// and a WebSocket telemetry feed at /ws dashboards can subscribe to. It
// exists to exercise the observability domain stack end to end, the way
// a real deployment would watch a running scheduler rather than read a
// one-shot CSV report.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rtsched/rtsched/metrics"
	"github.com/rtsched/rtsched/policy"
	"github.com/rtsched/rtsched/rtstats"
	"github.com/rtsched/rtsched/simkernel"
	"github.com/rtsched/rtsched/telemetry"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func main() {
	policyName := flag.String("policy", "MOD_EDF", "scheduling policy: DEADLINE_ONLY|MOD_EDF|RMS|WSRT|LLF|PFS")
	addr := flag.String("addr", ":9090", "listen address")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := policy.Select(*policyName)
	if err != nil {
		log.Fatalf("rtmonitor: %v", err)
	}

	k := simkernel.NewKernel(p, rtstats.Config{Detailed: true, Squared: true})
	for _, t := range []*simkernel.Task{
		{ID: "t1", Period: 50, ExecTime: 10, Weight: 5},
		{ID: "t2", Period: 80, ExecTime: 15, Weight: 3},
		{ID: "t3", Period: 200, ExecTime: 60, Weight: 1},
	} {
		k.Register(t)
	}

	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(reg)
	go recordLoop(ctx, k, rec)

	hub := telemetry.NewHub(k, 500*time.Millisecond)
	go hub.Run(ctx)

	go func() {
		// Runs effectively forever; a real deployment would tie this to
		// the kernel's own shutdown rather than a fixed cycle budget.
		if err := k.Run(1 << 40); err != nil {
			log.Printf("rtmonitor: kernel run: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("rtmonitor: upgrade: %v", err)
			return
		}
		hub.Register(conn)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("rtmonitor: policy=%s listening on %s (/metrics, /ws)", p.Name(), *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("rtmonitor: %v", err)
	}
}

// recordLoop periodically diffs every thread's statistics snapshot into
// the Prometheus recorder. 1 cycle is defined as 1 millisecond
// (simkernel.VirtualClock's documented assumption).
func recordLoop(ctx context.Context, k *simkernel.Kernel, rec *metrics.Recorder) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	prev := map[string]rtstats.Block{}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, cur := k.Snapshot()
			for id, block := range cur {
				rec.Observe(id, prev[id], block, 0.001)
			}
			prev = cur
		}
	}
}
