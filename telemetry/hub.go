// Package telemetry streams live per-thread statistics snapshots to
// connected dashboards over WebSocket. It is adapted from the teacher
// control plane's single-broadcaster pattern
// (itskum47-FluxForge/control_plane/ws_hub.go), repointed from tenant
// dashboard metrics to scheduler RT statistics snapshots.
package telemetry

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/google/uuid"

	"github.com/rtsched/rtsched/rtstats"
)

// maxConnections caps concurrent dashboard clients, matching the
// teacher's connection cap against a misbehaving dashboard flooding the
// hub with connections.
const maxConnections = 200

// Snapshot is one broadcast frame: a correlation ID plus every thread's
// current statistics block.
type Snapshot struct {
	ID      string                  `json:"id"`
	Cycle   int64                   `json:"cycle"`
	Threads map[string]rtstats.Block `json:"threads"`
}

// Source supplies the data a Hub broadcasts. simkernel.Kernel satisfies
// it directly through its Snapshot method (cmd/rtmonitor passes the
// kernel as is); it is kept as an interface here so telemetry has no
// import-time dependency on sched or simkernel.
type Source interface {
	// Snapshot returns the current cycle and every known thread's
	// statistics block.
	Snapshot() (cycle int64, threads map[string]rtstats.Block)
}

// Hub manages WebSocket connections and periodically broadcasts a
// Source's snapshot to all of them.
type Hub struct {
	source   Source
	period   time.Duration
	clients  map[*websocket.Conn]struct{}
	register chan *websocket.Conn
	unreg    chan *websocket.Conn
	mu       sync.RWMutex
}

// NewHub creates a hub that polls source every period and broadcasts.
func NewHub(source Source, period time.Duration) *Hub {
	return &Hub{
		source:   source,
		period:   period,
		clients:  make(map[*websocket.Conn]struct{}),
		register: make(chan *websocket.Conn),
		unreg:    make(chan *websocket.Conn),
	}
}

// Run drives the hub's main loop until ctx is cancelled. It is the
// single goroutine that both owns the client set and performs every
// broadcast, preventing the N-duplicate-ticker problem the teacher's
// comment on MetricsHub calls out.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case conn := <-h.register:
			h.mu.Lock()
			if len(h.clients) >= maxConnections {
				h.mu.Unlock()
				conn.Close()
				log.Printf("telemetry: connection rejected, max clients (%d) reached", maxConnections)
				continue
			}
			h.clients[conn] = struct{}{}
			h.mu.Unlock()
		case conn := <-h.unreg:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()
		case <-ticker.C:
			h.broadcast()
		}
	}
}

func (h *Hub) broadcast() {
	cycle, threads := h.source.Snapshot()
	frame := Snapshot{ID: uuid.NewString(), Cycle: cycle, Threads: threads}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(frame); err != nil {
			log.Printf("telemetry: write error: %v", err)
			go h.Unregister(conn)
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
	}
	h.clients = make(map[*websocket.Conn]struct{})
}

// Register adds a new client connection to the broadcast set.
func (h *Hub) Register(conn *websocket.Conn) { h.register <- conn }

// Unregister removes a client connection.
func (h *Hub) Unregister(conn *websocket.Conn) { h.unreg <- conn }

// ClientCount reports how many dashboards are currently connected.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalSnapshot is a small helper for handlers that want to serve one
// frame over plain HTTP instead of a WebSocket upgrade (e.g. a
// /debug/snapshot endpoint).
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	return json.Marshal(s)
}
