// Package wsrelay connects a client to the websocket relay served by
// `auction-sync relay` and keeps reconnecting while the relay is away.
package wsrelay

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"auction-sync/internal/auctionerrors"
	"auction-sync/internal/transport"
	"auction-sync/utils"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Config holds the relay client settings.
type Config struct {
	URL           string // e.g. ws://localhost:9090/relay
	ClientID      string
	ReconnectWait time.Duration
}

// DefaultConfig returns the default relay client configuration.
func DefaultConfig() Config {
	return Config{
		URL:           "ws://localhost:9090/relay",
		ReconnectWait: 2 * time.Second,
	}
}

// Transport is a transport.Transport over the relay.
type Transport struct {
	url  string
	id   string
	wait time.Duration
	subs transport.Subscribers

	writeMu   sync.Mutex
	conn      *websocket.Conn
	connected atomic.Bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Dial starts the connection loop and returns immediately; Connected turns
// true once the relay accepts the client.
func Dial(cfg Config) (*Transport, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("wsrelay: client id is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("wsrelay: parse url %q: %w", cfg.URL, err)
	}
	q := u.Query()
	q.Set("client_id", cfg.ClientID)
	u.RawQuery = q.Encode()

	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = DefaultConfig().ReconnectWait
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Transport{url: u.String(), id: cfg.ClientID, wait: cfg.ReconnectWait, cancel: cancel}
	t.wg.Add(1)
	go t.run(ctx)
	return t, nil
}

// run keeps one connection open, redialing after a fixed backoff.
func (t *Transport) run(ctx context.Context) {
	defer t.wg.Done()
	for {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.url, nil)
		if err != nil {
			utils.Debug("wsrelay: dial failed", map[string]any{"url": t.url, "error": err.Error()})
		} else {
			t.setConn(conn)
			utils.Info("Relay connected", map[string]any{"client_id": t.id})
			t.readLoop(ctx, conn)
			t.setConn(nil)
			utils.Warn("Relay disconnected", map[string]any{"client_id": t.id})
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(t.wait):
		}
	}
}

func (t *Transport) setConn(conn *websocket.Conn) {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	t.conn = conn
	t.connected.Store(conn != nil)
}

func (t *Transport) readLoop(ctx context.Context, conn *websocket.Conn) {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	defer conn.Close()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		f, _, err := transport.DecodeFrame(message)
		if err != nil {
			utils.Debug("wsrelay: frame dropped", map[string]any{"error": err.Error()})
			continue
		}
		t.subs.Deliver(f.Payload)
	}
}

// Broadcast sends payload to the relay, which applies scope. Self-only
// broadcasts never leave the process.
func (t *Transport) Broadcast(_ context.Context, payload []byte, scope transport.Scope) error {
	if !t.Connected() {
		return fmt.Errorf("wsrelay: broadcast: %w", auctionerrors.ErrTransportUnavailable)
	}
	if scope == transport.ScopeSelf {
		t.subs.Deliver(append([]byte(nil), payload...))
		return nil
	}

	frame, err := transport.EncodeFrame("", scope, payload)
	if err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if t.conn == nil {
		return fmt.Errorf("wsrelay: broadcast: %w", auctionerrors.ErrTransportUnavailable)
	}
	t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := t.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("wsrelay: write: %w", err)
	}
	return nil
}

// Subscribe registers h for relayed deliveries.
func (t *Transport) Subscribe(h transport.Handler) func() {
	return t.subs.Subscribe(h)
}

// Connected reports whether the relay connection is open.
func (t *Transport) Connected() bool {
	return t.connected.Load()
}

// Close stops reconnecting and closes the connection.
func (t *Transport) Close() error {
	t.cancel()
	t.wg.Wait()
	return nil
}

var _ transport.Transport = (*Transport)(nil)
