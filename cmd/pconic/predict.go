package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ChristopherRabotin/pconic"
	"github.com/go-kit/kit/log/level"
	"github.com/spf13/cobra"
)

var (
	predictFormat string
	predictOutput string
)

var predictCmd = &cobra.Command{
	Use:   "predict [scenario]",
	Short: "Predict the trajectory of the craft of a scenario",
	Long: `Predict the trajectory of the craft of a scenario at its initial state, split in
one patch per reference body. Positions are relative to the reference of each patch.

Examples:
  pconic predict testdata/moon.toml
  pconic predict testdata/moon.toml --method rk4 --format json --output moon.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scenario, err := loadScenario(cmd, args[0])
		if err != nil {
			return err
		}
		predictor, err := pconic.NewPredictor(scenario.Config, logger)
		if err != nil {
			return err
		}
		p := scenario.Config.Prediction
		patches := predictor.Predict(scenario.Craft.Position, scenario.Craft.Velocity, scenario.Bodies, p.MaxTime, p.Points)
		for _, patch := range patches {
			logger.Log("level", "info", "subsys", "predict", "patch", patch)
		}

		var out io.Writer = cmd.OutOrStdout()
		if predictOutput != "" {
			f, err := os.Create(predictOutput)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		switch predictFormat {
		case "csv":
			return pconic.WritePatchesCSV(out, patches)
		case "json":
			return pconic.WritePatchesJSON(out, patches)
		default:
			return fmt.Errorf("unknown format `%s`", predictFormat)
		}
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)
	predictCmd.Flags().StringVar(&predictFormat, "format", "csv", "output format (csv or json)")
	predictCmd.Flags().StringVarP(&predictOutput, "output", "o", "", "output file (default stdout)")
}

// loadScenario reads a scenario and applies the command line overrides to its configuration.
func loadScenario(cmd *cobra.Command, path string) (pconic.Scenario, error) {
	scenario, err := pconic.LoadScenario(path)
	if err != nil {
		return scenario, err
	}
	if scenario.Config, err = overridden(cmd, scenario.Config); err != nil {
		return scenario, err
	}
	level.Debug(logger).Log("subsys", "conf", "scenario", path, "bodies", len(scenario.Bodies), "burns", len(scenario.Burns))
	return scenario, nil
}
