package snapshot

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/rouletteai/roulette-client/internal/app"
	"github.com/rouletteai/roulette-client/internal/conf"
	"github.com/rouletteai/roulette-client/internal/display"
)

// Command creates the snapshot command.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		asJSON bool
		top    int
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch and print the current analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer a.Close()

			payload, err := a.Session.LoadSnapshot(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(payload)
			}
			return display.NewRenderer(cmd.OutOrStdout()).RenderState(a.Session.State(), top)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw analysis as JSON")
	cmd.Flags().IntVar(&top, "top", 5, "Number of most frequent outcomes to list")

	return cmd
}
