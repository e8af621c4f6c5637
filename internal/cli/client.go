package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"auction-sync/internal/config"
	"auction-sync/internal/node"
	"auction-sync/internal/notify"
	"auction-sync/internal/server"
	"auction-sync/utils"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// ClientOptions holds flags for the client command. Non-empty flags override the config file.
type ClientOptions struct {
	*RootOptions
	Name      string
	Session   string
	Transport string
	NATSURL   string
	RedisAddr string
	RelayURL  string
	Addr      string
}

// NewClientCommand creates the client command.
func NewClientCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClientOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "client",
		Short: "Run one auction client with its HTTP UI",
		Long: `Run one auction client: the event loop, the lifecycle tick and the
HTTP UI on --addr, until interrupted.

Example:
  auction-sync client --name ana --transport nats --nats-url nats://127.0.0.1:4222
  auction-sync client --name ben --transport websocket --relay-url ws://localhost:9090/relay --addr :8081`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *opts.Config
			opts.apply(&cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runClient(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "display name bids are placed under")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session id (generated when empty)")
	cmd.Flags().StringVar(&opts.Transport, "transport", "", "transport kind (memory|nats|redis|websocket)")
	cmd.Flags().StringVar(&opts.NATSURL, "nats-url", "", "NATS server URL")
	cmd.Flags().StringVar(&opts.RedisAddr, "redis-addr", "", "Redis address")
	cmd.Flags().StringVar(&opts.RelayURL, "relay-url", "", "websocket relay URL")
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "HTTP UI listen address")

	return cmd
}

// apply copies the non-empty flags into cfg.
func (o *ClientOptions) apply(cfg *config.Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Client.DisplayName, o.Name)
	set(&cfg.Client.SessionID, o.Session)
	set(&cfg.Transport.Kind, o.Transport)
	set(&cfg.Transport.NATS.URL, o.NATSURL)
	set(&cfg.Transport.Redis.Addr, o.RedisAddr)
	set(&cfg.Transport.Websocket.URL, o.RelayURL)
	set(&cfg.Server.Addr, o.Addr)
}

func runClient(ctx context.Context, cfg config.Config) error {
	identity := node.Identity{SessionID: cfg.Client.SessionID, DisplayName: cfg.Client.DisplayName}
	if identity.SessionID == "" {
		identity.SessionID = utils.NewSessionID()
	}

	tr, err := openTransport(ctx, cfg.Transport, identity.SessionID)
	if err != nil {
		return fmt.Errorf("client: failed to open %s transport: %w", cfg.Transport.Kind, err)
	}
	defer tr.Close()

	emitter := notify.NewEmitter()
	emitter.Subscribe(notify.LogSink)

	n, err := node.New(node.Options{
		Identity:     identity,
		Transport:    tr,
		Emitter:      emitter,
		TickInterval: cfg.Lifecycle.TickInterval.Duration,
		InboxSize:    cfg.Client.InboxSize,
	})
	if err != nil {
		return err
	}

	utils.Info("client starting", map[string]any{
		"session_id": identity.SessionID,
		"user":       identity.User(),
		"transport":  cfg.Transport.Kind,
		"addr":       cfg.Server.Addr,
	})

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return n.Run(ctx)
	})

	if senders := buildSenders(cfg.Notify); len(senders) > 0 {
		d := notify.NewDispatcher(senders, cfg.Notify.Events, cfg.Notify.QueueSize)
		emitter.Subscribe(d.Handle)
		g.Go(func() error {
			return d.Run(ctx)
		})
	}

	handler := server.Handler(server.SetupRouter(n, emitter), cfg.Server.CORSOrigins)
	g.Go(func() error {
		return server.ListenAndServe(ctx, cfg.Server.Addr, handler)
	})

	return g.Wait()
}

func buildSenders(cfg config.NotifyConfig) []notify.Sender {
	var senders []notify.Sender
	if cfg.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.DiscordWebhookURL))
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.TelegramToken, cfg.TelegramChatID))
	}
	return senders
}
