// Package natsbus carries auction events over core NATS publish/subscribe.
// The sender id and scope travel in message headers.
package natsbus

import (
	"context"
	"fmt"
	"time"

	"auction-sync/internal/auctionerrors"
	"auction-sync/internal/transport"
	"auction-sync/utils"

	"github.com/nats-io/nats.go"
)

const (
	HeaderOrigin = "Auction-Origin"
	HeaderScope  = "Auction-Scope"
)

// Config holds connection settings for the NATS transport.
type Config struct {
	URL           string
	Subject       string
	ClientID      string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConfig returns the default NATS transport configuration.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		Subject:       "auction.events",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// Transport is a transport.Transport over one NATS subject.
type Transport struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string
	id      string
	subs    transport.Subscribers
}

// Dial connects to NATS and subscribes to the configured subject.
func Dial(cfg Config) (*Transport, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("natsbus: client id is required")
	}
	opts := []nats.Option{
		nats.Name("auction-sync " + cfg.ClientID),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			fields := map[string]any{"client_id": cfg.ClientID}
			if err != nil {
				fields["error"] = err.Error()
			}
			utils.Warn("NATS disconnected", fields)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			utils.Info("NATS reconnected", map[string]any{"url": nc.ConnectedUrl()})
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("natsbus: connect to %s: %w", cfg.URL, err)
	}

	t, err := New(nc, cfg.Subject, cfg.ClientID)
	if err != nil {
		nc.Close()
		return nil, err
	}
	return t, nil
}

// New builds a Transport on an existing connection.
func New(nc *nats.Conn, subject, clientID string) (*Transport, error) {
	t := &Transport{nc: nc, subject: subject, id: clientID}
	sub, err := nc.Subscribe(subject, t.handleMsg)
	if err != nil {
		return nil, fmt.Errorf("natsbus: subscribe %s: %w", subject, err)
	}
	t.sub = sub
	return t, nil
}

// newMsg builds the NATS message for one broadcast.
func newMsg(subject, origin string, payload []byte, scope transport.Scope) *nats.Msg {
	msg := nats.NewMsg(subject)
	msg.Data = payload
	msg.Header.Set(HeaderOrigin, origin)
	msg.Header.Set(HeaderScope, scope.String())
	return msg
}

// Broadcast publishes payload. Self-only broadcasts never leave the process.
func (t *Transport) Broadcast(_ context.Context, payload []byte, scope transport.Scope) error {
	if !t.Connected() {
		return fmt.Errorf("natsbus: broadcast: %w", auctionerrors.ErrTransportUnavailable)
	}
	if scope == transport.ScopeSelf {
		t.subs.Deliver(append([]byte(nil), payload...))
		return nil
	}
	if err := t.nc.PublishMsg(newMsg(t.subject, t.id, payload, scope)); err != nil {
		return fmt.Errorf("natsbus: publish %s: %w", t.subject, err)
	}
	return nil
}

// handleMsg filters one delivery by its headers and hands it to subscribers.
func (t *Transport) handleMsg(msg *nats.Msg) {
	origin := msg.Header.Get(HeaderOrigin)
	scope, err := transport.ParseScope(msg.Header.Get(HeaderScope))
	if err != nil {
		utils.Debug("natsbus: message without valid scope dropped", map[string]any{"origin": origin, "error": err.Error()})
		return
	}
	if !transport.Accepts(t.id, origin, scope) {
		return
	}
	t.subs.Deliver(msg.Data)
}

// Subscribe registers h for accepted deliveries.
func (t *Transport) Subscribe(h transport.Handler) func() {
	return t.subs.Subscribe(h)
}

// Connected reports whether the NATS connection is up.
func (t *Transport) Connected() bool {
	return t.nc != nil && t.nc.IsConnected()
}

// Close drains the subscription and closes the connection.
func (t *Transport) Close() error {
	if t.sub != nil {
		_ = t.sub.Unsubscribe()
	}
	t.nc.Close()
	return nil
}

var _ transport.Transport = (*Transport)(nil)
