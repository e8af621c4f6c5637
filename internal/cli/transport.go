package cli

import (
	"context"
	"fmt"
	"strings"

	"auction-sync/internal/config"
	"auction-sync/internal/transport"
	"auction-sync/internal/transport/memory"
	"auction-sync/internal/transport/natsbus"
	"auction-sync/internal/transport/redisbus"
	"auction-sync/internal/transport/wsrelay"
	"auction-sync/utils"
)

// openTransport connects clientID to the transport selected by cfg.Kind.
func openTransport(ctx context.Context, cfg config.TransportConfig, clientID string) (transport.Transport, error) {
	switch strings.ToLower(cfg.Kind) {
	case config.TransportMemory:
		utils.Warn("memory transport only reaches clients in this process", map[string]any{"client_id": clientID})
		return memory.NewHub().Join(clientID), nil

	case config.TransportNATS:
		nc := natsbus.DefaultConfig()
		nc.URL = cfg.NATS.URL
		nc.Subject = cfg.NATS.Subject
		nc.ClientID = clientID
		nc.MaxReconnects = cfg.NATS.MaxReconnects
		if cfg.NATS.ReconnectWait.Duration > 0 {
			nc.ReconnectWait = cfg.NATS.ReconnectWait.Duration
		}
		tr, err := natsbus.Dial(nc)
		if err != nil {
			return nil, err
		}
		return tr, nil

	case config.TransportRedis:
		rc := redisbus.DefaultConfig()
		rc.Addr = cfg.Redis.Addr
		rc.Password = cfg.Redis.Password
		rc.DB = cfg.Redis.DB
		rc.TLSEnabled = cfg.Redis.TLSEnabled
		rc.Channel = cfg.Redis.Channel
		rc.ClientID = clientID
		if cfg.Redis.HealthInterval.Duration > 0 {
			rc.HealthInterval = cfg.Redis.HealthInterval.Duration
		}
		tr, err := redisbus.Dial(ctx, rc)
		if err != nil {
			return nil, err
		}
		return tr, nil

	case config.TransportWebsocket:
		wc := wsrelay.DefaultConfig()
		wc.URL = cfg.Websocket.URL
		wc.ClientID = clientID
		if cfg.Websocket.ReconnectWait.Duration > 0 {
			wc.ReconnectWait = cfg.Websocket.ReconnectWait.Duration
		}
		tr, err := wsrelay.Dial(wc)
		if err != nil {
			return nil, err
		}
		return tr, nil

	default:
		return nil, fmt.Errorf("unknown transport kind %q", cfg.Kind)
	}
}
