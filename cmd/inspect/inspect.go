package inspect

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/rouletteai/roulette-client/internal/app"
	"github.com/rouletteai/roulette-client/internal/conf"
	"github.com/rouletteai/roulette-client/internal/display"
	"github.com/rouletteai/roulette-client/internal/wheel"
)

// Command creates the inspect command.
func Command(settings *conf.Settings) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect <number>",
		Short: "Resolve neighbors, pressure, horse pairing and zone for an outcome",
		Long:  "Fetch the current analysis and resolve the given outcome against it. The most recent occurrence in the history is selected when there is one.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := wheel.ParseOutcome(args[0])
			if err != nil {
				return err
			}

			a, err := app.New(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.Session.LoadSnapshot(cmd.Context()); err != nil {
				return err
			}

			a.Session.Select(lastIndex(a.Session.State().History, o), o)

			res, _ := a.Session.Inspect()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			return display.NewRenderer(cmd.OutOrStdout()).RenderInspection(res)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the inspection result as JSON")

	cmd.SetFlagErrorFunc(app.OutcomeFlagError)

	return cmd
}

// lastIndex returns the position of the most recent o in history, or -1.
func lastIndex(history []wheel.Outcome, o wheel.Outcome) int {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i] == o {
			return i
		}
	}
	return -1
}
