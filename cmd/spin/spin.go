package spin

import (
	"github.com/spf13/cobra"

	"github.com/rouletteai/roulette-client/internal/app"
	"github.com/rouletteai/roulette-client/internal/conf"
	"github.com/rouletteai/roulette-client/internal/display"
	"github.com/rouletteai/roulette-client/internal/wheel"
)

// Command creates the spin command.
func Command(settings *conf.Settings) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "spin <number>...",
		Short: "Record spins and print the refreshed analysis",
		Long:  "Submit one or more outcomes (0-36) to the analysis backend in order. All numbers are validated before anything is sent.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outcomes := make([]wheel.Outcome, 0, len(args))
			for _, raw := range args {
				o, err := wheel.ParseOutcome(raw)
				if err != nil {
					return err
				}
				outcomes = append(outcomes, o)
			}

			a, err := app.New(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer a.Close()

			for _, o := range outcomes {
				if _, err := a.Session.SubmitOutcome(cmd.Context(), o); err != nil {
					return err
				}
			}

			return display.NewRenderer(cmd.OutOrStdout()).RenderState(a.Session.State(), top)
		},
	}

	cmd.Flags().IntVar(&top, "top", 5, "Number of most frequent outcomes to list")

	cmd.SetFlagErrorFunc(app.OutcomeFlagError)

	return cmd
}
