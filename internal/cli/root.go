package cli

import (
	"github.com/soyeahso/matchat/internal/config"
	"github.com/soyeahso/matchat/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths config.Paths
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "matchat",
		Short: "matchat is an embeddable chat widget",
		Long:  "matchat serves a floating chat widget to browsers, runs it in the terminal, and answers it from a webhook or canned replies.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}
			level := logLevel
			if level == "" {
				level = "info"
			}
			log = logging.New(nil, level)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.matchat/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newSendCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

// loadConfig reads the config file, falling back to defaults when it is
// unreadable. The logger is rebuilt from the logging section unless
// --log-level was given.
func loadConfig() config.Config {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		log.Warn().Err(err).Str("path", paths.Config).Msg("config unreadable, using defaults")
		cfg = config.Defaults()
	}
	if logLevel == "" && (cfg.Logging.Level != "" || cfg.Logging.ConsoleStyle != "") {
		level := cfg.Logging.Level
		if level == "" {
			level = "info"
		}
		log = logging.NewStyled(level, cfg.Logging.ConsoleStyle)
	}
	return cfg
}
