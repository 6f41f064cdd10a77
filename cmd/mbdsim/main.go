package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/hjelmeland/mbdsim/internal/config"
	"github.com/hjelmeland/mbdsim/internal/dyn"
	"github.com/hjelmeland/mbdsim/internal/integrators"
	"github.com/hjelmeland/mbdsim/internal/metrics"
	"github.com/hjelmeland/mbdsim/internal/sim"
	"github.com/hjelmeland/mbdsim/internal/storage"
	"github.com/hjelmeland/mbdsim/internal/tui"
)

var (
	dataDir    string
	configFile string
	dt         float64
	duration   float64
	integrator string
	alpha      float64
	beta       float64
	noSave     bool
	maxPlots   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mbdsim",
		Short: "constraint-based rigid multibody simulation",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mbdsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a scenario (preset name, or --config yaml)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	runCmd.Flags().Float64Var(&dt, "dt", 0, "timestep override")
	runCmd.Flags().Float64Var(&duration, "time", 0, "duration override")
	runCmd.Flags().StringVar(&integrator, "integrator", "", "integrator override (euler, semi, rk4)")
	runCmd.Flags().Float64Var(&alpha, "alpha", -1, "baumgarte velocity gain override")
	runCmd.Flags().Float64Var(&beta, "beta", -1, "baumgarte position gain override")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "skip saving the run")

	validateCmd := &cobra.Command{
		Use:   "validate [scenario]",
		Short: "check a scenario: body data, constraint rank, jacobian consistency",
		Args:  cobra.MaximumNArgs(1),
		RunE:  validateScenario,
	}
	validateCmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&maxPlots, "max", 6, "maximum number of traces")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [scenario]",
		Short: "run a scenario and write the result as JSON to stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportJSONRun,
	}
	exportJSONCmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "run a scenario with a live terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	liveCmd.Flags().Float64Var(&dt, "dt", 0, "timestep override")
	liveCmd.Flags().StringVar(&integrator, "integrator", "", "integrator override")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.Presets() {
				fmt.Println(name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, validateCmd, listCmd, plotCmd, exportJSONCmd, liveCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadScenario resolves the scenario from --config or a preset name
// argument, applying CLI overrides.
func loadScenario(cmd *cobra.Command, args []string) (*config.Scenario, error) {
	var sc *config.Scenario
	var err error
	switch {
	case configFile != "":
		sc, err = config.Load(configFile)
	case len(args) == 1:
		sc, err = config.Preset(args[0])
	default:
		return nil, fmt.Errorf("need a preset name or --config file (presets: %v)", config.Presets())
	}
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("dt") {
		sc.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		sc.Duration = duration
	}
	if cmd.Flags().Changed("integrator") {
		sc.Integrator = integrator
	}
	if cmd.Flags().Changed("alpha") {
		sc.Baumgarte.Alpha = alpha
	}
	if cmd.Flags().Changed("beta") {
		sc.Baumgarte.Beta = beta
	}
	return sc, nil
}

func pickIntegrator(name string) (dyn.Integrator, error) {
	switch name {
	case "euler":
		return integrators.NewEuler(), nil
	case "semi", "semi_implicit":
		return integrators.NewSemiImplicit(), nil
	case "rk4", "":
		return integrators.NewRK4(), nil
	default:
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	sys, err := sc.Build()
	if err != nil {
		return err
	}
	integ, err := pickIntegrator(sc.Integrator)
	if err != nil {
		return err
	}

	cfg := sc.RunConfig()
	simulator := sim.New(sys, integ, cfg)
	simulator.AddMetric(metrics.NewResidualDrift(sys))
	simulator.AddMetric(metrics.NewQuatNormDrift())
	simulator.AddMetric(metrics.NewEnergyDrift(sys))

	fmt.Printf("running %s (%d bodies, %d constraint rows)...\n",
		sc.Name, len(sys.Bodies), sys.ConstraintRows())
	start := time.Now()

	result, err := simulator.Run(context.Background(), cfg)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("completed %d steps in %v\n", result.StepsTaken, elapsed)
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6e\n", name, val)
	}

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(sc.Name, sc.Integrator, sc.Dt, sc.Duration, len(sys.Bodies), result)
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func validateScenario(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	sys, err := sc.Build()
	if err != nil {
		return err
	}
	if err := sys.Validate(); err != nil {
		return fmt.Errorf("system invalid: %w", err)
	}

	rows := sys.ConstraintRows()
	rank := sys.RankCq()
	fmt.Printf("scenario: %s\n", sc.Name)
	fmt.Printf("bodies: %d (dof %d)\n", len(sys.Bodies), sys.DOF())
	fmt.Printf("constraint rows: %d, jacobian rank: %d\n", rows, rank)
	if rank < rows {
		fmt.Println("warning: redundant constraints (rank-deficient jacobian)")
	}

	if err := sys.VerifyJacobians(0, 1e-5); err != nil {
		return fmt.Errorf("jacobian check failed: %w", err)
	}
	fmt.Println("jacobians consistent with finite differences")
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tDT\tINTEG\tBODIES")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Bodies,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	cols, _, series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(series) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(series[0]))

	plotted := 0
	for i, col := range cols {
		if !interesting(col) {
			continue
		}
		if plotted >= maxPlots {
			break
		}
		graph := asciigraph.Plot(series[i],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(col),
		)
		fmt.Println(graph)
		fmt.Println()
		plotted++
	}
	return nil
}

// interesting keeps position and residual columns; orientation and
// velocity columns stay available via export-json.
func interesting(col string) bool {
	if col == "residual" {
		return true
	}
	switch suffix(col) {
	case "rx", "ry", "rz":
		return true
	}
	return false
}

func suffix(col string) string {
	for i := len(col) - 1; i >= 0; i-- {
		if col[i] == '_' {
			return col[i+1:]
		}
	}
	return col
}

func exportJSONRun(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	sys, err := sc.Build()
	if err != nil {
		return err
	}
	integ, err := pickIntegrator(sc.Integrator)
	if err != nil {
		return err
	}

	cfg := sc.RunConfig()
	simulator := sim.New(sys, integ, cfg)
	result, err := simulator.Run(context.Background(), cfg)
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, sc.Name, sc.Integrator, sc.Dt, sc.Duration, result)
}

func runLive(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	sys, err := sc.Build()
	if err != nil {
		return err
	}
	if err := sys.Validate(); err != nil {
		return err
	}
	integ, err := pickIntegrator(sc.Integrator)
	if err != nil {
		return err
	}

	cfg := sc.RunConfig()
	simulator := sim.New(sys, integ, cfg)
	return tui.Run(sc.Name, simulator.Dynamics(), integ, sys.PackState(), cfg)
}
