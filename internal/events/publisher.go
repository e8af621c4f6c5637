package events

import (
	"context"
	"fmt"

	"auction-sync/internal/auctionerrors"
	"auction-sync/internal/transport"
)

// Publisher sends events over the broadcast channel.
type Publisher interface {
	Publish(ctx context.Context, e Event, scope transport.Scope) error
	Connected() bool
}

// TransportPublisher encodes events and hands them to a transport.
type TransportPublisher struct {
	t transport.Transport
}

// NewPublisher creates a Publisher backed by t.
func NewPublisher(t transport.Transport) *TransportPublisher {
	return &TransportPublisher{t: t}
}

// Publish encodes e and broadcasts it with scope. Nothing is queued when the
// transport is down.
func (p *TransportPublisher) Publish(ctx context.Context, e Event, scope transport.Scope) error {
	if !p.t.Connected() {
		return fmt.Errorf("publish %s: %w", e.EventType(), auctionerrors.ErrTransportUnavailable)
	}
	payload, err := Encode(e)
	if err != nil {
		return err
	}
	if err := p.t.Broadcast(ctx, payload, scope); err != nil {
		return fmt.Errorf("publish %s to %s: %w", e.EventType(), scope, err)
	}
	return nil
}

// Connected reports the transport's connection state.
func (p *TransportPublisher) Connected() bool {
	return p.t.Connected()
}
