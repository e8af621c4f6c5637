// Package memory provides an in-process broadcast hub. It backs the demo
// command and lets tests drive several clients deterministically.
package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"auction-sync/internal/auctionerrors"
	"auction-sync/internal/transport"
)

type pending struct {
	to      string
	payload []byte
}

// Hub routes payloads between the transports that joined it.
type Hub struct {
	mu      sync.Mutex
	members map[string]*Transport
	order   []string

	held  bool
	queue []pending
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{members: make(map[string]*Transport)}
}

// Join registers a client and returns its transport. Joining twice with the
// same id returns the existing transport.
func (h *Hub) Join(clientID string) *Transport {
	h.mu.Lock()
	defer h.mu.Unlock()

	if t, ok := h.members[clientID]; ok {
		return t
	}
	t := &Transport{hub: h, id: clientID}
	t.connected.Store(true)
	h.members[clientID] = t
	h.order = append(h.order, clientID)
	return t
}

// Hold queues every delivery instead of dispatching it, so a test can choose
// the arrival order per client with Drain and Inject.
func (h *Hub) Hold() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.held = true
}

// Release stops holding and delivers everything still queued, in send order.
func (h *Hub) Release() {
	h.mu.Lock()
	h.held = false
	queue := h.queue
	h.queue = nil
	h.mu.Unlock()

	for _, p := range queue {
		h.deliver(p.to, p.payload)
	}
}

// Drain removes and returns the payloads queued for clientID, in send order.
func (h *Hub) Drain(clientID string) [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out [][]byte
	kept := h.queue[:0]
	for _, p := range h.queue {
		if p.to == clientID {
			out = append(out, p.payload)
			continue
		}
		kept = append(kept, p)
	}
	h.queue = kept
	return out
}

// Inject delivers payload to clientID immediately, bypassing scope rules.
func (h *Hub) Inject(clientID string, payload []byte) {
	h.deliver(clientID, payload)
}

func (h *Hub) route(origin string, payload []byte, scope transport.Scope) {
	h.mu.Lock()
	var targets []string
	for _, id := range h.order {
		member := h.members[id]
		if !member.Connected() || !transport.Accepts(id, origin, scope) {
			continue
		}
		if h.held {
			h.queue = append(h.queue, pending{to: id, payload: clone(payload)})
			continue
		}
		targets = append(targets, id)
	}
	h.mu.Unlock()

	for _, id := range targets {
		h.deliver(id, payload)
	}
}

func (h *Hub) deliver(clientID string, payload []byte) {
	h.mu.Lock()
	member, ok := h.members[clientID]
	h.mu.Unlock()
	if !ok || !member.Connected() {
		return
	}
	member.subs.Deliver(clone(payload))
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}

// Transport is one client's connection to a Hub.
type Transport struct {
	hub       *Hub
	id        string
	subs      transport.Subscribers
	connected atomic.Bool
}

// ID returns the client id this transport was joined with.
func (t *Transport) ID() string { return t.id }

// Broadcast routes payload through the hub.
func (t *Transport) Broadcast(_ context.Context, payload []byte, scope transport.Scope) error {
	if !t.Connected() {
		return fmt.Errorf("memory: broadcast from %s: %w", t.id, auctionerrors.ErrTransportUnavailable)
	}
	t.hub.route(t.id, payload, scope)
	return nil
}

// Subscribe registers h for deliveries addressed to this client.
func (t *Transport) Subscribe(h transport.Handler) func() {
	return t.subs.Subscribe(h)
}

// Connected reports the simulated connection state.
func (t *Transport) Connected() bool { return t.connected.Load() }

// SetConnected simulates a disconnect or reconnect.
func (t *Transport) SetConnected(v bool) { t.connected.Store(v) }

// Close disconnects the transport.
func (t *Transport) Close() error {
	t.connected.Store(false)
	return nil
}

var _ transport.Transport = (*Transport)(nil)
