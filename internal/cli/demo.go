package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"auction-sync/internal/node"
	"auction-sync/internal/notify"
	"auction-sync/internal/server"
	"auction-sync/internal/transport/memory"
	"auction-sync/utils"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// DemoOptions holds flags for the demo command.
type DemoOptions struct {
	*RootOptions
	Nodes    int
	BasePort int
}

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DemoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run several clients in one process over an in-memory hub",
		Long: `Run --nodes clients sharing an in-memory broadcast hub. Client i serves
its HTTP UI on --base-port + i.

Example:
  auction-sync demo --nodes 3 --base-port 8081`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Nodes < 1 {
				return fmt.Errorf("--nodes must be >= 1, got %d", opts.Nodes)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runDemo(ctx, opts.Nodes, opts.BasePort, opts.Config.Lifecycle.TickInterval.Duration, opts.Config.Server.CORSOrigins)
		},
	}

	cmd.Flags().IntVar(&opts.Nodes, "nodes", 3, "number of clients")
	cmd.Flags().IntVar(&opts.BasePort, "base-port", 8081, "HTTP port of the first client")

	return cmd
}

func runDemo(ctx context.Context, count, basePort int, tick time.Duration, origins []string) error {
	hub := memory.NewHub()
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < count; i++ {
		identity := node.Identity{SessionID: utils.NewSessionID(), DisplayName: fmt.Sprintf("user%d", i+1)}
		emitter := notify.NewEmitter()
		emitter.Subscribe(notify.LogSink)

		n, err := node.New(node.Options{
			Identity:     identity,
			Transport:    hub.Join(identity.SessionID),
			Emitter:      emitter,
			TickInterval: tick,
		})
		if err != nil {
			return err
		}

		addr := fmt.Sprintf(":%d", basePort+i)
		handler := server.Handler(server.SetupRouter(n, emitter), origins)
		utils.Info("demo client ready", map[string]any{"user": identity.User(), "session_id": identity.SessionID, "addr": addr})

		g.Go(func() error {
			return n.Run(ctx)
		})
		g.Go(func() error {
			return server.ListenAndServe(ctx, addr, handler)
		})
	}

	return g.Wait()
}
