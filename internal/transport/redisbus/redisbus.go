// Package redisbus carries auction events over a Redis pub/sub channel.
// Each message is a JSON transport.Frame naming its sender and scope.
package redisbus

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"auction-sync/internal/auctionerrors"
	"auction-sync/internal/transport"
	"auction-sync/utils"

	"github.com/redis/go-redis/v9"
)

// Config holds connection parameters for the Redis transport.
type Config struct {
	Addr           string
	Password       string
	DB             int
	TLSEnabled     bool
	Channel        string
	ClientID       string
	HealthInterval time.Duration
}

// DefaultConfig returns the default Redis transport configuration.
func DefaultConfig() Config {
	return Config{
		Addr:           "localhost:6379",
		Channel:        "auction:events",
		HealthInterval: 2 * time.Second,
	}
}

// Transport is a transport.Transport over one Redis pub/sub channel.
type Transport struct {
	rdb     *redis.Client
	pubsub  *redis.PubSub
	channel string
	id      string
	subs    transport.Subscribers

	connected atomic.Bool
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Dial connects to Redis, verifies the subscription and starts the reader and
// health-check goroutines.
func Dial(ctx context.Context, cfg Config) (*Transport, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("redisbus: client id is required")
	}
	if cfg.HealthInterval <= 0 {
		cfg.HealthInterval = DefaultConfig().HealthInterval
	}

	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.TLSEnabled {
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}
	rdb := redis.NewClient(opts)

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	pubsub := rdb.Subscribe(ctx, cfg.Channel)
	// Verify the subscription is established by receiving the confirmation.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", cfg.Channel, err)
	}

	t := &Transport{
		rdb:     rdb,
		pubsub:  pubsub,
		channel: cfg.Channel,
		id:      cfg.ClientID,
		done:    make(chan struct{}),
	}
	t.connected.Store(true)

	t.wg.Add(2)
	go t.readLoop()
	go t.healthLoop(cfg.HealthInterval)
	return t, nil
}

func (t *Transport) readLoop() {
	defer t.wg.Done()
	ch := t.pubsub.Channel()
	for {
		select {
		case <-t.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			t.handleFrame([]byte(msg.Payload))
		}
	}
}

// healthLoop pings Redis so Connected reflects reachability. go-redis
// re-establishes the subscription on its own.
func (t *Transport) healthLoop(interval time.Duration) {
	defer t.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			err := t.rdb.Ping(ctx).Err()
			cancel()

			was := t.connected.Swap(err == nil)
			switch {
			case err != nil && was:
				utils.Warn("Redis unreachable", map[string]any{"channel": t.channel, "error": err.Error()})
			case err == nil && !was:
				utils.Info("Redis reachable again", map[string]any{"channel": t.channel})
			}
		}
	}
}

// handleFrame filters one frame by scope and hands its payload to subscribers.
func (t *Transport) handleFrame(raw []byte) {
	f, scope, err := transport.DecodeFrame(raw)
	if err != nil {
		utils.Debug("redisbus: frame dropped", map[string]any{"error": err.Error()})
		return
	}
	if !transport.Accepts(t.id, f.Origin, scope) {
		return
	}
	t.subs.Deliver(f.Payload)
}

// Broadcast publishes payload. Self-only broadcasts never leave the process.
func (t *Transport) Broadcast(ctx context.Context, payload []byte, scope transport.Scope) error {
	if !t.Connected() {
		return fmt.Errorf("redisbus: broadcast: %w", auctionerrors.ErrTransportUnavailable)
	}
	if scope == transport.ScopeSelf {
		t.subs.Deliver(append([]byte(nil), payload...))
		return nil
	}

	frame, err := transport.EncodeFrame(t.id, scope, payload)
	if err != nil {
		return err
	}
	if err := t.rdb.Publish(ctx, t.channel, frame).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", t.channel, err)
	}
	return nil
}

// Subscribe registers h for accepted deliveries.
func (t *Transport) Subscribe(h transport.Handler) func() {
	return t.subs.Subscribe(h)
}

// Connected reports the result of the last health check.
func (t *Transport) Connected() bool {
	return t.connected.Load()
}

// Close stops the background goroutines and closes the connection.
func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.connected.Store(false)
		if t.done != nil {
			close(t.done)
		}
		if t.pubsub != nil {
			_ = t.pubsub.Close()
		}
		t.wg.Wait()
		if t.rdb != nil {
			err = t.rdb.Close()
		}
	})
	return err
}

var _ transport.Transport = (*Transport)(nil)
