package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/san-kum/torcsdrive/internal/config"
	"github.com/san-kum/torcsdrive/internal/control"
)

const envPrefix = "TORCSDRIVE"

var (
	cfgFile   string
	dataDir   string
	logLevel  string
	logFormat string

	// driver selection, shared by race and replay
	preset       string
	policy       string
	driverConfig string
	trackFile    string
	lookahead    bool
)

// main registers the commands and runs the root command; a bare
// invocation races with the default settings. Interrupts and server
// shutdowns end without an error, anything else exits with status 1.
func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "torcsdrive",
		Short:         "autonomous driver for the TORCS SCR server",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRace,
	}
	cobra.OnInitialize(func() { initConfig(rootCmd) })

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./.torcsdrive.yaml or $HOME/.torcsdrive.yaml)")
	pf.StringVar(&dataDir, "data", ".torcsdrive", "directory for recorded runs")
	pf.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "text", "log format: text or json")
	pf.StringVar(&preset, "preset", config.DefaultPreset, "driving preset")
	pf.StringVar(&policy, "policy", control.DefaultVariant, "driving policy variant")
	pf.StringVar(&driverConfig, "driver-config", "", "driving config file (yaml), overrides --preset")
	pf.StringVar(&trackFile, "track-file", "", "segment table file (yaml) for the lookahead policy")
	pf.BoolVar(&lookahead, "lookahead", false, "shorthand for --policy lookahead")

	addRaceFlags(rootCmd.Flags())

	raceCmd := &cobra.Command{
		Use:   "race",
		Short: "connect to the server and drive",
		Args:  cobra.NoArgs,
		RunE:  runRace,
	}
	addRaceFlags(raceCmd.Flags())

	rootCmd.AddCommand(
		raceCmd,
		newPresetsCmd(),
		newPoliciesCmd(),
		newTrackCmd(),
		newReplayCmd(),
		newListCmd(),
		newPlotCmd(),
		newExportCmd(),
	)
	return rootCmd
}

// initConfig reads in config file and ENV variables if set.
func initConfig(rootCmd *cobra.Command) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName(".torcsdrive")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	bindFlags(rootCmd, viper.GetViper())
	for _, cmd := range rootCmd.Commands() {
		bindFlags(cmd, viper.GetViper())
	}
}

// bindFlags applies config file and environment values to every flag the
// user did not set on the command line.
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// env vars can't hold dashes: --log-level reads TORCSDRIVE_LOG_LEVEL
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name, fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "could not bind env var %s: %v\n", f.Name, err)
			}
		}
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				fmt.Fprintf(os.Stderr, "could not set flag value for %s: %v\n", f.Name, err)
			}
		}
	})
}
