package cli

import (
	"os/signal"
	"syscall"

	"auction-sync/internal/relay"
	"auction-sync/internal/server"
	"auction-sync/utils"

	"github.com/spf13/cobra"
)

// NewRelayCommand creates the relay command.
func NewRelayCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Run the websocket relay clients broadcast through",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = rootOpts.Config.Relay.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			hub := relay.NewHub()
			defer hub.Close()

			utils.Info("relay starting", map[string]any{"addr": addr})
			return server.ListenAndServe(ctx, addr, hub.Router())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "relay listen address")

	return cmd
}
