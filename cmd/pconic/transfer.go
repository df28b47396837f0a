package main

import (
	"errors"
	"fmt"
	"math"

	"github.com/ChristopherRabotin/pconic"
	"github.com/go-kit/kit/log/level"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r2"
)

var (
	xferMu   float64
	xferMass float64
	xferFrom float64
	xferTo   float64
	xferRi   []float64
	xferRf   []float64
	xferTOF  float64
	xferType string
)

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Compute transfers between orbits",
}

var hohmannCmd = &cobra.Command{
	Use:   "hohmann",
	Short: "Hohmann transfer between two circular orbits",
	Long: `Compute the tangential burns and time of flight of a Hohmann transfer between two
coplanar circular orbits. Negative burns are retrograde.

Examples:
  pconic transfer hohmann --mass 20 --from 5000 --to 8000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		μ, err := transferMu()
		if err != nil {
			return err
		}
		Δv1, Δv2, tof, err := pconic.Hohmann(μ, xferFrom, xferTo)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Δv1\t%f\nΔv2\t%f\ntotal\t%f\ntof\t%f\n", Δv1, Δv2, math.Abs(Δv1)+math.Abs(Δv2), tof)
		return nil
	},
}

var lambertCmd = &cobra.Command{
	Use:   "lambert",
	Short: "Lambert transfer between two positions",
	Long: `Solve the Lambert problem between two positions relative to the central body for
the given time of flight. Only zero revolution transfers are computed.

Examples:
  pconic transfer lambert --mu 398600.433 --ri 15945.34,0 --rf 12214.83899,10249.46731 --tof 4560
  pconic transfer lambert --mass 20 --ri 5000,0 --rf -4000,6928.2 --tof 600 --type type-2`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		μ, err := transferMu()
		if err != nil {
			return err
		}
		if len(xferRi) != 2 || len(xferRf) != 2 {
			return errors.New("--ri and --rf need two components each")
		}
		var ttype pconic.TransferType
		for _, tt := range []pconic.TransferType{pconic.TTypeAuto, pconic.TType1, pconic.TType2} {
			if tt.String() == xferType {
				ttype = tt
			}
		}
		if ttype == 0 {
			return fmt.Errorf("unknown transfer type `%s`", xferType)
		}
		Ri := r2.Vec{X: xferRi[0], Y: xferRi[1]}
		Rf := r2.Vec{X: xferRf[0], Y: xferRf[1]}
		Vi, Vf, φ, err := pconic.Lambert(Ri, Rf, xferTOF, ttype, μ)
		if err != nil {
			return err
		}
		level.Debug(logger).Log("subsys", "lambert", "φ", φ)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Vi\t%f\t%f\nVf\t%f\t%f\n", Vi.X, Vi.Y, Vf.X, Vf.Y)
		fmt.Fprintf(out, "orbit\t%s\n", pconic.DeriveElements(Ri, Vi, μ))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(transferCmd)
	transferCmd.AddCommand(hohmannCmd)
	transferCmd.AddCommand(lambertCmd)
	transferCmd.PersistentFlags().Float64Var(&xferMass, "mass", 0, "mass of the central body")
	transferCmd.PersistentFlags().Float64Var(&xferMu, "mu", 0, "gravitational parameter of the central body (overrides --mass)")
	hohmannCmd.Flags().Float64Var(&xferFrom, "from", 0, "initial orbit radius")
	hohmannCmd.Flags().Float64Var(&xferTo, "to", 0, "final orbit radius")
	lambertCmd.Flags().Float64SliceVar(&xferRi, "ri", nil, "initial position x,y")
	lambertCmd.Flags().Float64SliceVar(&xferRf, "rf", nil, "final position x,y")
	lambertCmd.Flags().Float64Var(&xferTOF, "tof", 0, "time of flight")
	lambertCmd.Flags().StringVar(&xferType, "type", pconic.TTypeAuto.String(), "transfer type (auto, type-1 or type-2)")
}

func transferMu() (float64, error) {
	μ := xferMu
	if μ == 0 {
		μ = conf.Physics.GravitationalConstant * xferMass
	}
	if μ <= 0 {
		return 0, errors.New("either --mass or --mu must be positive")
	}
	return μ, nil
}
