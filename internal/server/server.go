package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"auction-sync/utils"

	"github.com/rs/cors"
)

const shutdownTimeout = 10 * time.Second

// Handler wraps h with CORS for the browser UI. An empty origin list allows any origin.
func Handler(h http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: origins,
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(h)
}

// ListenAndServe serves h on addr until ctx is done, then shuts the server
// down gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Info("HTTP server listening", map[string]any{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutCtx); err != nil {
		utils.Error("HTTP server shutdown failed", map[string]any{"addr": addr, "error": err.Error()})
		return err
	}
	utils.Info("HTTP server stopped", map[string]any{"addr": addr})
	return <-errCh
}
