package serve

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/rouletteai/roulette-client/internal/app"
	"github.com/rouletteai/roulette-client/internal/conf"
	"github.com/rouletteai/roulette-client/internal/logger"
)

const shutdownTimeout = 10 * time.Second

// Command creates the serve command.
func Command(settings *conf.Settings) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis display over HTTP and WebSocket",
		Long:  "Start the display server. Spins posted to it are forwarded to the analysis backend and every state change is pushed to connected WebSocket clients.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, settings, listen)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address (default: webserver.listen)")

	return cmd
}

func run(cmd *cobra.Command, settings *conf.Settings, listen string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	log := logger.Global().Module("serve")

	a, err := app.New(ctx, settings)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.Session.LoadSnapshot(ctx); err != nil {
		log.Warn("Initial snapshot unavailable, starting with empty state", logger.Error(err))
	}

	var wg sync.WaitGroup
	if settings.Metrics.Enabled {
		if _, err := a.StartMetricsEndpoint(ctx, &wg); err != nil {
			return err
		}
	}

	srv, err := a.StartDisplay(ctx, listen)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Display server listening on http://%s\n", srv.Addr())

	<-ctx.Done()
	cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Display server shutdown incomplete", logger.Error(err))
	}
	wg.Wait()
	return nil
}
