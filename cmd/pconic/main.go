package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ChristopherRabotin/pconic"
	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/spf13/cobra"
)

const appName = "pconic"

var (
	cfgFile string
	verbose bool
	logger  kitlog.Logger
	// conf is the configuration shared by all commands, resolved before any of them runs.
	conf pconic.Config
	// settings holds the defaults, the configuration file, PCONIC_* variables and flags.
	settings = pconic.NewViper()
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Patched conics orbital engine",
	Long: `pconic computes two dimensional orbits with patched conics.

Each craft is attracted by the body whose sphere of influence contains it. The tool
derives orbital elements, predicts trajectories across spheres of influence, searches
for encounters, computes transfers and flies whole scenarios.

The configuration is read from --config, or from $PCONIC_CONFIG/conf.toml, and any
setting can be overridden with a PCONIC_ variable (e.g. PCONIC_PHYSICS_GRAVITY_MODE).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger(os.Stderr, verbose)
		var err error
		conf, err = loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if verbose {
			level.Debug(logger).Log("subsys", "conf", "physics", fmt.Sprintf("%+v", conf.Physics), "prediction", fmt.Sprintf("%+v", conf.Prediction))
		}
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "configuration TOML file (default $PCONIC_CONFIG/conf.toml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log debug information")
	flags.Float64("G", pconic.DefaultGravitationalConstant, "gravitational constant")
	flags.String("gravity", pconic.PatchedConicsMode.String(), "gravity mode (patched or hybrid)")
	flags.String("method", pconic.EulerMethod.String(), "prediction integration method (euler or rk4)")
	flags.Int("points", 300, "number of predicted points")
	flags.Float64("max-time", 30, "prediction horizon")
	for key, flag := range map[string]string{
		"physics.gravitational_constant": "G",
		"physics.gravity_mode":           "gravity",
		"prediction.method":              "method",
		"prediction.points":              "points",
		"prediction.max_time":            "max-time",
	} {
		if err := settings.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

// loadConfig reads the configuration file, if any, under the bound flags.
func loadConfig() (pconic.Config, error) {
	switch {
	case cfgFile != "":
		settings.SetConfigFile(cfgFile)
	case os.Getenv(pconic.ConfigEnv) != "":
		settings.SetConfigName("conf")
		settings.SetConfigType("toml")
		settings.AddConfigPath(os.Getenv(pconic.ConfigEnv))
	default:
		return pconic.FromViper(settings)
	}
	if err := settings.ReadInConfig(); err != nil {
		return pconic.Config{}, err
	}
	return pconic.FromViper(settings)
}

// overridden applies the flags explicitly set on the command line to the provided
// configuration, which is how scenario files are tuned.
func overridden(cmd *cobra.Command, c pconic.Config) (pconic.Config, error) {
	flags := cmd.Flags()
	if flags.Changed("G") {
		c.Physics.GravitationalConstant = settings.GetFloat64("physics.gravitational_constant")
	}
	if flags.Changed("gravity") {
		c.Physics.GravityMode = settings.GetString("physics.gravity_mode")
	}
	if flags.Changed("method") {
		c.Prediction.Method = settings.GetString("prediction.method")
	}
	if flags.Changed("points") {
		c.Prediction.Points = settings.GetInt("prediction.points")
	}
	if flags.Changed("max-time") {
		c.Prediction.MaxTime = settings.GetFloat64("prediction.max_time")
	}
	return c, c.Validate()
}

func newLogger(w io.Writer, debug bool) kitlog.Logger {
	l := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(w))
	l = kitlog.With(l, "ts", kitlog.DefaultTimestampUTC, "app", appName)
	if debug {
		return level.NewFilter(l, level.AllowDebug())
	}
	return level.NewFilter(l, level.AllowInfo())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
