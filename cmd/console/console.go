package console

import (
	"context"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/rouletteai/roulette-client/internal/app"
	"github.com/rouletteai/roulette-client/internal/conf"
	interactive "github.com/rouletteai/roulette-client/internal/console"
	"github.com/rouletteai/roulette-client/internal/display"
	"github.com/rouletteai/roulette-client/internal/logger"
)

const shutdownTimeout = 10 * time.Second

// Command creates the console command.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		historyFile string
		top         int
	)

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Record spins and inspect outcomes interactively",
		Long:  "Start an interactive prompt. When webserver.enabled is set the display server runs alongside it and follows every change made at the prompt.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), settings, historyFile, top)
		},
	}

	cmd.Flags().StringVar(&historyFile, "history-file", "", "File to keep prompt history in")
	cmd.Flags().IntVar(&top, "top", interactive.DefaultTop, "Number of most frequent outcomes to list")

	return cmd
}

func run(ctx context.Context, settings *conf.Settings, historyFile string, top int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	log := logger.Global().Module("console")

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

	var srv *display.Server
	if settings.WebServer.Enabled {
		srv, err = a.StartDisplay(ctx, "")
		if err != nil {
			return err
		}
	}

	term, err := interactive.NewTerminal(historyFile)
	if err != nil {
		return err
	}
	defer term.Close()

	c := interactive.New(a.Session, a.Prefs, term.Stdout(),
		interactive.WithReset(a.ResetSession),
		interactive.WithTop(top))
	runErr := c.Run(ctx, term)

	cancel()
	if srv != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("Display server shutdown incomplete", logger.Error(err))
		}
	}
	wg.Wait()
	return runErr
}
