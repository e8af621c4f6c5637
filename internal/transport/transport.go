// Package transport defines the best-effort broadcast channel every client
// uses to exchange auction events, plus helpers shared by the concrete
// implementations in its sub-packages.
package transport

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// Scope selects which clients receive a broadcast.
type Scope int

const (
	// ScopeAll delivers to every connected client, the sender included.
	ScopeAll Scope = iota
	// ScopeOthers delivers to every connected client except the sender.
	ScopeOthers
	// ScopeSelf delivers only to the sender.
	ScopeSelf
)

// String returns the wire name of the scope.
func (s Scope) String() string {
	switch s {
	case ScopeAll:
		return "all"
	case ScopeOthers:
		return "others"
	case ScopeSelf:
		return "self"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// ParseScope converts a wire name back into a Scope.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(s) {
	case "all":
		return ScopeAll, nil
	case "others":
		return ScopeOthers, nil
	case "self":
		return ScopeSelf, nil
	default:
		return 0, fmt.Errorf("unknown scope %q", s)
	}
}

// Handler receives one delivered payload. Handlers must not block.
type Handler func(payload []byte)

// Transport is the broadcast channel consumed by a client node.
// Delivery is unordered and best-effort.
type Transport interface {
	// Broadcast sends payload to the clients selected by scope. It returns an
	// error wrapping auctionerrors.ErrTransportUnavailable when disconnected.
	Broadcast(ctx context.Context, payload []byte, scope Scope) error
	// Subscribe registers h for every delivered payload and returns a func that removes it.
	Subscribe(h Handler) (unsubscribe func())
	// Connected reports whether the transport can currently send and receive.
	Connected() bool
	// Close releases the underlying connection.
	Close() error
}

// Frame is the JSON wrapper used by transports without message headers.
// Payload is the encoded event, embedded as-is.
type Frame struct {
	Origin  string          `json:"origin,omitempty"`
	Scope   string          `json:"scope,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// EncodeFrame wraps payload in a Frame.
func EncodeFrame(origin string, scope Scope, payload []byte) ([]byte, error) {
	out, err := json.Marshal(Frame{Origin: origin, Scope: scope.String(), Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("transport: encode frame: %w", err)
	}
	return out, nil
}

// DecodeFrame parses a Frame and its scope. A frame without a scope is
// treated as ScopeAll.
func DecodeFrame(raw []byte) (Frame, Scope, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Frame{}, 0, fmt.Errorf("transport: decode frame: %w", err)
	}
	if len(f.Payload) == 0 {
		return Frame{}, 0, fmt.Errorf("transport: frame without payload")
	}
	if f.Scope == "" {
		return f, ScopeAll, nil
	}
	scope, err := ParseScope(f.Scope)
	if err != nil {
		return Frame{}, 0, fmt.Errorf("transport: %w", err)
	}
	return f, scope, nil
}

// Accepts reports whether a frame sent by origin with scope should be
// delivered to the client identified by self.
func Accepts(self, origin string, scope Scope) bool {
	switch scope {
	case ScopeAll:
		return true
	case ScopeOthers:
		return origin != self
	case ScopeSelf:
		return origin == self
	default:
		return false
	}
}

// Subscribers is a concurrency-safe set of handlers. Implementations embed
// it to satisfy Subscribe and fan payloads out with Deliver.
type Subscribers struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
}

// Subscribe registers h and returns its unsubscribe func. Calling the
// returned func more than once is harmless.
func (s *Subscribers) Subscribe(h Handler) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handlers == nil {
		s.handlers = make(map[int]Handler)
	}
	id := s.nextID
	s.nextID++
	s.handlers[id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.handlers, id)
			s.mu.Unlock()
		})
	}
}

// Deliver hands payload to every registered handler.
func (s *Subscribers) Deliver(payload []byte) {
	s.mu.RLock()
	handlers := make([]Handler, 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.mu.RUnlock()

	for _, h := range handlers {
		h(payload)
	}
}

// Len returns the number of registered handlers.
func (s *Subscribers) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handlers)
}
