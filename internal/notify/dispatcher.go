package notify

import (
	"context"
	"fmt"
	"strings"

	"auction-sync/utils"
)

// Dispatcher forwards notifications to remote Senders on its own goroutine so
// slow webhooks never stall the event loop. Notifications arriving while the
// queue is full are dropped.
type Dispatcher struct {
	senders []Sender
	kinds   map[Kind]bool // allowed kinds
	queue   chan Notification
}

// NewDispatcher creates a Dispatcher. Only notifications whose kind appears in
// kinds are forwarded; an empty list allows every kind.
func NewDispatcher(senders []Sender, kinds []string, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	allowed := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		if k = strings.TrimSpace(k); k != "" {
			allowed[Kind(k)] = true
		}
	}
	return &Dispatcher{
		senders: senders,
		kinds:   allowed,
		queue:   make(chan Notification, queueSize),
	}
}

// Allows reports whether notifications of kind pass the filter.
func (d *Dispatcher) Allows(kind Kind) bool {
	return len(d.kinds) == 0 || d.kinds[kind]
}

// Handle enqueues n without blocking. It is meant to be passed to Emitter.Subscribe.
func (d *Dispatcher) Handle(n Notification) {
	if len(d.senders) == 0 || !d.Allows(n.Kind) {
		return
	}
	select {
	case d.queue <- n:
	default:
		utils.Warn("notify: queue full, notification dropped", map[string]any{"kind": string(n.Kind), "auction_id": n.AuctionID})
	}
}

// Run delivers queued notifications until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-d.queue:
			if err := d.dispatch(ctx, n); err != nil {
				utils.Error("notify: delivery failed", map[string]any{"kind": string(n.Kind), "error": err.Error()})
			}
		}
	}
}

// dispatch sends n to every sender; one sender failing does not stop the others.
func (d *Dispatcher) dispatch(ctx context.Context, n Notification) error {
	var errs []string
	for _, s := range d.senders {
		if err := s.Send(ctx, n.Title, n.Message); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		utils.Debug("notification sent", map[string]any{"sender": s.Name(), "title": n.Title})
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
