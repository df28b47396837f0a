package main

import (
	"errors"
	"fmt"

	"github.com/ChristopherRabotin/pconic"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r2"
)

var (
	elemMass   float64
	elemMu     float64
	elemR      []float64
	elemV      []float64
	elemPoints int
)

var elementsCmd = &cobra.Command{
	Use:   "elements",
	Short: "Derive the orbital elements of a relative state",
	Long: `Derive the orbital elements of a craft from its position and velocity relative to
a central body, given either by its mass or directly by its gravitational parameter.

Examples:
  pconic elements --mass 20 --position 1000,0 --velocity 0,100
  pconic elements --mu 1e7 --position 1000,0 --velocity 0,140 --samples 8`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		R, V, err := relativeState()
		if err != nil {
			return err
		}
		μ := elemMu
		if μ == 0 {
			μ = conf.Physics.GravitationalConstant * elemMass
		}
		if μ <= 0 {
			return errors.New("either --mass or --mu must be positive")
		}
		o := pconic.DeriveElements(R, V, μ)
		if !o.Valid {
			return fmt.Errorf("no orbit for R=%+v V=%+v", R, V)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n", o)
		fmt.Fprintf(out, "type\t%s\n", conicType(o))
		fmt.Fprintf(out, "energy\t%f\nperiapsis\t%f\napoapsis\t%f\nperiod\t%f\nretrograde\t%t\n", o.Energy, o.Periapsis, o.Apoapsis, o.Period, o.IsRetrograde())
		if elemPoints > 0 && o.IsBound() {
			for i := 0; i <= elemPoints; i++ {
				t := o.Period * float64(i) / float64(elemPoints)
				P := o.PositionAtTime(t)
				fmt.Fprintf(out, "%f\t%f\t%f\n", t, P.X, P.Y)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(elementsCmd)
	elementsCmd.Flags().Float64Var(&elemMass, "mass", 0, "mass of the central body")
	elementsCmd.Flags().Float64Var(&elemMu, "mu", 0, "gravitational parameter of the central body (overrides --mass)")
	elementsCmd.Flags().Float64SliceVar(&elemR, "position", nil, "relative position x,y")
	elementsCmd.Flags().Float64SliceVar(&elemV, "velocity", nil, "relative velocity vx,vy")
	elementsCmd.Flags().IntVar(&elemPoints, "samples", 0, "also print this many positions over one period")
}

func relativeState() (R, V r2.Vec, err error) {
	if len(elemR) != 2 || len(elemV) != 2 {
		err = errors.New("--position and --velocity need two components each")
		return
	}
	return r2.Vec{X: elemR[0], Y: elemR[1]}, r2.Vec{X: elemV[0], Y: elemV[1]}, nil
}

func conicType(o pconic.OrbitalElements) string {
	switch {
	case o.IsCircular():
		return "circular"
	case o.IsElliptical():
		return "elliptical"
	case o.IsParabolic():
		return "parabolic"
	default:
		return "hyperbolic"
	}
}
