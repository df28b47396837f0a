package main

import (
	"errors"
	"fmt"

	"github.com/ChristopherRabotin/pconic"
	"github.com/spf13/cobra"
)

var (
	encTarget  string
	encPeriods float64
	encSamples int
)

var encounterCmd = &cobra.Command{
	Use:   "encounter [scenario]",
	Short: "Find when the craft of a scenario enters the SOI of its target",
	Long: `Find when the craft of a scenario enters the sphere of influence of the target body.
The craft and the target must both be on bound orbits about the parent of the target.
The target is the body flagged with target = true unless --target is set.

Examples:
  pconic encounter testdata/moon.toml --target moon --periods 3`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scenario, err := loadScenario(cmd, args[0])
		if err != nil {
			return err
		}
		target, err := encounterTarget(scenario)
		if err != nil {
			return err
		}
		if target.Parent == nil {
			return fmt.Errorf("%s does not orbit anything", target)
		}
		G := scenario.Config.Physics.GravitationalConstant
		μ := target.Parent.GM(G)
		R, V := target.Parent.Relative(scenario.Craft.Position, scenario.Craft.Velocity)
		ship := pconic.DeriveElements(R, V, μ)
		R, V = target.Parent.Relative(target.Position, target.Velocity)
		tgt := pconic.DeriveElements(R, V, μ)
		if !ship.IsBound() || !tgt.IsBound() {
			return fmt.Errorf("craft (%s) and target (%s) must be on bound orbits about %s", ship, tgt, target.Parent)
		}
		soi := target.SOI(G, scenario.Config.Physics.SOIMultiplier)
		logger.Log("level", "info", "subsys", "encounter", "ship", ship, "target", tgt, "soi", soi)

		out := cmd.OutOrStdout()
		enc, found := pconic.FindSOIEntry(ship, tgt, soi, encPeriods*ship.Period, encSamples)
		if !found {
			fmt.Fprintf(out, "no encounter with %s within %.1f periods\n", target, encPeriods)
			return nil
		}
		fmt.Fprintf(out, "%s: %s\n", target, enc)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(encounterCmd)
	encounterCmd.Flags().StringVar(&encTarget, "target", "", "name of the target body")
	encounterCmd.Flags().Float64Var(&encPeriods, "periods", 2, "search horizon in craft orbital periods")
	encounterCmd.Flags().IntVar(&encSamples, "samples", 500, "number of samples before refinement")
}

func encounterTarget(scenario pconic.Scenario) (*pconic.Body, error) {
	if encTarget != "" {
		if b := scenario.Body(encTarget); b != nil {
			return b, nil
		}
		return nil, fmt.Errorf("unknown body `%s`", encTarget)
	}
	for _, b := range scenario.Bodies {
		if b.Target {
			return b, nil
		}
	}
	return nil, errors.New("no target body in the scenario")
}
