package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skyguard/ccuas-sim/pkg/logger"
)

var (
	cfgFile  string
	logLevel string
	noColor  bool
)

var rootCmd = &cobra.Command{
	Use:   "ccuas-sim",
	Short: "Counter-UAV engagement kernel",
	Long: `ccuas-sim runs the counter-UAV command-and-control simulation kernel:
tick-driven world state, a three-sensor observation pipeline, multi-target
track fusion, proportional-navigation guidance, and an engagement/abort
decision layer, all driven from a YAML scenario file.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "kernel tunables file (default: built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scenarioCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	logger.SetLevel(logger.ParseLevel(logLevel))
	logger.SetNoColor(noColor)

	viper.AddConfigPath("$HOME/.ccuas-sim")
	viper.SetConfigType("yaml")
	viper.SetConfigName("config")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}
