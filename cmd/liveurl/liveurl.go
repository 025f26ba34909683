package liveurl

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rouletteai/roulette-client/internal/app"
	"github.com/rouletteai/roulette-client/internal/conf"
	"github.com/rouletteai/roulette-client/internal/logger"
	"github.com/rouletteai/roulette-client/internal/prefs"
)

// Command creates the liveurl command.
func Command(settings *conf.Settings) *cobra.Command {
	var clearURL bool

	cmd := &cobra.Command{
		Use:   "liveurl [url]",
		Short: "Show or set the live stream URL shown by the display",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := app.OpenPreferences(ctx, settings)
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					logger.Global().Module("liveurl").Warn("Failed to close preference store", logger.Error(err))
				}
			}()

			out := cmd.OutOrStdout()
			switch {
			case clearURL:
				if err := prefs.SetLiveURL(ctx, store, ""); err != nil {
					return err
				}
				fmt.Fprintln(out, "Live stream URL cleared")
			case len(args) == 1:
				if err := prefs.SetLiveURL(ctx, store, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(out, "Live stream URL set to %s\n", args[0])
			default:
				u, err := prefs.LiveURL(ctx, store)
				if err != nil {
					return err
				}
				if u == "" {
					fmt.Fprintln(out, "No live stream URL configured")
					return nil
				}
				fmt.Fprintln(out, u)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearURL, "clear", false, "Remove the stored URL")

	return cmd
}
