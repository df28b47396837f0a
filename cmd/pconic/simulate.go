package main

import (
	"errors"
	"math"
	"net/http"
	"sort"
	"sync"

	"github.com/ChristopherRabotin/pconic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r2"
)

var (
	simExport      pconic.ExportConfig
	simMetricsAddr string
	simReports     int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate [scenario]",
	Short: "Fly the craft of a scenario",
	Long: `Fly the craft of a scenario for its duration, executing its burns. The bodies follow
their orbits and every change of reference body is logged.

Examples:
  pconic simulate testdata/moon.toml --csv --catalog --dir out
  pconic simulate testdata/moon.toml --gravity hybrid --metrics-addr :9090`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scenario, err := loadScenario(cmd, args[0])
		if err != nil {
			return err
		}
		if simExport.Filename == "" {
			simExport.Filename = scenario.Craft.Name
		}
		var metrics *pconic.Metrics
		if simMetricsAddr != "" {
			if metrics, err = pconic.NewMetrics(prometheus.DefaultRegisterer); err != nil {
				return err
			}
			go func() {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				if err := http.ListenAndServe(simMetricsAddr, mux); err != nil {
					logger.Log("level", "error", "subsys", "metrics", "err", err)
				}
			}()
		}
		return simulate(scenario, metrics)
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	flags := simulateCmd.Flags()
	flags.StringVar(&simExport.Dir, "dir", ".", "export directory")
	flags.StringVar(&simExport.Filename, "name", "", "export file name (default the craft name)")
	flags.BoolVar(&simExport.AsCSV, "csv", false, "export the states as CSV, one file per reference body")
	flags.BoolVar(&simExport.Catalog, "catalog", false, "export a JSON catalog of the flight segments")
	flags.BoolVar(&simExport.Timestamp, "timestamp", false, "timestamp the exported files")
	flags.StringVar(&simMetricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	flags.IntVar(&simReports, "reports", 10, "number of status reports over the flight")
}

func simulate(scenario pconic.Scenario, metrics *pconic.Metrics) error {
	craft, err := scenario.NewCraft(metrics, logger)
	if err != nil {
		return err
	}
	G := scenario.Config.Physics.GravitationalConstant
	resolver := pconic.NewResolver(scenario.Config, logger)
	burns := append([]pconic.Burn(nil), scenario.Burns...)
	sort.Slice(burns, func(i, j int) bool { return burns[i].Time < burns[j].Time })

	var wg sync.WaitGroup
	var exportErr error
	var states chan pconic.CraftState
	if !simExport.IsUseless() {
		states = make(chan pconic.CraftState, 1000)
		wg.Add(1)
		go func() {
			defer wg.Done()
			exportErr = pconic.StreamStates(simExport, states)
		}()
	}

	changes := 0
	craft.OnReferenceChange = func(from, to *pconic.Body, state pconic.SOIHierarchyState) {
		changes++
	}
	ticks := int(math.Ceil(scenario.Duration / scenario.Step))
	reportEvery := ticks
	if simReports > 0 && ticks > simReports {
		reportEvery = ticks / simReports
	}
	vInit := r2.Norm(craft.Velocity)
	Δv := 0.0
	var tickErr error
	for tick := 0; tick < ticks; tick++ {
		for len(burns) > 0 && burns[0].Time <= craft.Time {
			ref := resolver.Resolve(craft.Position, scenario.Bodies).Reference
			relV := craft.Velocity
			if ref != nil {
				_, relV = ref.Relative(craft.Position, craft.Velocity)
			}
			impulse := burns[0].Δv(relV)
			craft.Thrust(impulse)
			Δv += r2.Norm(impulse)
			logger.Log("level", "notice", "subsys", "astro", "burn", burns[0], "reference", ref, "time", craft.Time)
			burns = burns[1:]
		}
		state, err := craft.Tick(scenario.Bodies, scenario.Step)
		if err != nil {
			tickErr = err
			break
		}
		pconic.AdvanceBodies(scenario.Bodies, scenario.Step, G)
		if states != nil {
			states <- state
		}
		if tick%reportEvery == 0 {
			craft.LogStatus()
		}
	}
	if states != nil {
		close(states)
	}
	wg.Wait()
	craft.LogStatus()
	logger.Log("level", "notice", "subsys", "astro", "status", "finished", "time", craft.Time, "soi changes", changes, "Δv", Δv, "|v| change", r2.Norm(craft.Velocity)-vInit)
	if len(burns) > 0 {
		logger.Log("level", "warning", "subsys", "astro", "status", "burns not executed", "count", len(burns))
	}
	return errors.Join(tickErr, exportErr)
}
