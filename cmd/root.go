package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rouletteai/roulette-client/cmd/console"
	"github.com/rouletteai/roulette-client/cmd/inspect"
	"github.com/rouletteai/roulette-client/cmd/liveurl"
	"github.com/rouletteai/roulette-client/cmd/serve"
	"github.com/rouletteai/roulette-client/cmd/snapshot"
	"github.com/rouletteai/roulette-client/cmd/spin"
	"github.com/rouletteai/roulette-client/internal/app"
	"github.com/rouletteai/roulette-client/internal/conf"
	"github.com/rouletteai/roulette-client/internal/logger"
)

// RootCommand creates and returns the root command. settings is filled from
// the config file, the environment and flags before any subcommand runs.
func RootCommand(settings *conf.Settings) *cobra.Command {
	var (
		configFile    string
		centralLogger *logger.CentralLogger
	)

	rootCmd := &cobra.Command{
		Use:           "roulette-client",
		Short:         "Roulette analytics client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file (default: search ~/.config/roulette-client and /etc/roulette-client)")

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd); err != nil {
		panic(fmt.Sprintf("error setting up flags: %v", err))
	}

	subcommands := []*cobra.Command{
		spin.Command(settings),
		snapshot.Command(settings),
		inspect.Command(settings),
		console.Command(settings),
		serve.Command(settings),
		liveurl.Command(settings),
	}
	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := conf.Load(configFile)
		if err != nil {
			return err
		}
		*settings = *loaded

		centralLogger, err = initialize(settings)
		return err
	}

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if centralLogger == nil {
			return nil
		}
		return centralLogger.Close()
	}

	return rootCmd
}

// initialize is called before any subcommand runs, after the settings are loaded.
func initialize(settings *conf.Settings) (*logger.CentralLogger, error) {
	cl, err := app.SetupLogging(settings, true)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return cl, nil
}

// flagBindings maps persistent flags to their config keys.
var flagBindings = []struct {
	flag string
	key  string
}{
	{"debug", "debug"},
	{"backend-url", "backend.url"},
	{"api-prefix", "backend.apiprefix"},
	{"history-limit", "backend.historylimit"},
	{"session-id", "backend.sessionid"},
	{"prefs", "preferences.backend"},
	{"log-level", "logging.level"},
}

// setupFlags defines flags that are global to the command line interface.
// A flag overrides the config file and environment only when it is set.
func setupFlags(rootCmd *cobra.Command) error {
	flags := rootCmd.PersistentFlags()
	flags.BoolP("debug", "d", false, "Enable debug output")
	flags.String("backend-url", "", "Base URL of the analysis backend")
	flags.String("api-prefix", "", "API path prefix, e.g. /api/v1")
	flags.Int("history-limit", 0, "History window requested from the backend (10-200)")
	flags.String("session-id", "", "Backend session id")
	flags.String("prefs", "", "Preference store: sqlite, redis or memory")
	flags.String("log-level", "", "Log level: trace, debug, info, warn or error")

	for _, b := range flagBindings {
		if err := viper.BindPFlag(b.key, flags.Lookup(b.flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", b.flag, err)
		}
	}

	return nil
}
