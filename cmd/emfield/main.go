package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"emfield/internal/analysis"
	"emfield/internal/config"
	"emfield/internal/export"
	"emfield/internal/fieldop"
	"emfield/internal/integrate"
	"emfield/internal/maxwell"
	"emfield/internal/metrics"
	"emfield/internal/plan"
	"emfield/internal/sim"
	"emfield/internal/storage"
	"emfield/internal/tui"
)

var (
	dataDir    string
	cells      int
	length     float64
	duration   float64
	maxSteps   int
	order      int
	freq       float64
	drive      string
	preset     string
	configFile string
	dtmax      float64
	stride     int
	svgPath    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "emfield",
		Short: "electromagnetic field time-evolution lab",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".emfield", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a field simulation",
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with a live terminal view",
		RunE:  runLive,
	}
	addRunFlags(liveCmd)
	liveCmd.Flags().IntVar(&stride, "stride", 0, "steps per frame (0 = auto)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the energy trace of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&svgPath, "svg", "", "also write the energy trace to an SVG file")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run one problem at every integration order and compare drift",
		RunE:  runSweep,
	}
	addRunFlags(sweepCmd)

	spectrumCmd := &cobra.Command{
		Use:   "spectrum [run_id]",
		Short: "frequency spectrum of a stored run's energy trace",
		Args:  cobra.ExactArgs(1),
		RunE:  spectrumRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available problem presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
			return nil
		},
	}

	quantizeCmd := &cobra.Command{
		Use:   "quantize",
		Short: "compute the step plan for a duration and stability bound",
		RunE:  quantizeOnly,
	}
	quantizeCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration to simulate")
	quantizeCmd.Flags().Float64Var(&dtmax, "dtmax", 0, "maximum stable step (0 = derive from grid)")
	quantizeCmd.Flags().IntVar(&cells, "cells", config.DefaultCells, "grid cells")
	quantizeCmd.Flags().Float64Var(&length, "length", config.DefaultLength, "domain length")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, presetsCmd, quantizeCmd,
		sweepCmd, spectrumCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&cells, "cells", config.DefaultCells, "grid cells")
	cmd.Flags().Float64Var(&length, "length", config.DefaultLength, "domain length")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration to simulate")
	cmd.Flags().IntVar(&maxSteps, "max-steps", config.DefaultMaxSteps, "cap on total steps")
	cmd.Flags().IntVar(&order, "order", config.DefaultOrder, "time integration order (1-4)")
	cmd.Flags().Float64Var(&freq, "freq", config.DefaultFrequency, "drive frequency")
	cmd.Flags().StringVar(&drive, "drive", "", "boundary drive (sine, gauss)")
	cmd.Flags().StringVar(&preset, "preset", "", "preset problem setup")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
}

// buildConfig layers preset, config file and explicit flags, flags
// winning.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("cells") {
		cfg.Grid.Cells = cells
	}
	if cmd.Flags().Changed("length") {
		cfg.Grid.Length = length
	}
	if cmd.Flags().Changed("time") {
		cfg.Time.Duration = duration
	}
	if cmd.Flags().Changed("max-steps") {
		cfg.Time.MaxSteps = maxSteps
	}
	if cmd.Flags().Changed("order") {
		cfg.Time.Order = order
	}
	if cmd.Flags().Changed("freq") {
		cfg.Problem.Frequency = freq
	}
	if cmd.Flags().Changed("drive") {
		cfg.Problem.Drive = drive
	}
	return cfg, nil
}

func setupRun(cfg *config.Config) (*maxwell.System, plan.StepPlan, error) {
	prob, err := cfg.ToProblem()
	if err != nil {
		return nil, plan.StepPlan{}, err
	}
	sys, err := maxwell.NewSystem(prob)
	if err != nil {
		return nil, plan.StepPlan{}, err
	}
	if init := cfg.Problem.Initial; init != nil {
		sys.SetInitialE(func(x float64) float64 {
			r := (x - init.Center) / init.Width
			return init.Amplitude * math.Exp(-r*r)
		})
	}

	bound, err := sys.MaxStableStep()
	if err != nil {
		return nil, plan.StepPlan{}, err
	}
	fmt.Printf("maximum stable step: %.6e\n", bound)

	p, err := plan.Quantize(cfg.Time.Duration, bound)
	if err != nil {
		return nil, plan.StepPlan{}, err
	}
	fmt.Printf("steps: %d  dt: %.6e\n", p.Steps, p.Dt)
	if cfg.Time.MaxSteps > 0 && p.Steps > cfg.Time.MaxSteps {
		fmt.Printf("computed step count %d exceeds cap %d; requested duration will not be reached\n",
			p.Steps, cfg.Time.MaxSteps)
	}
	return sys, p, nil
}

type energyPrinter struct {
	every int
}

func (e *energyPrinter) OnStep(step int, state fieldop.FieldState, energy float64) {
	if e.every > 0 && step%e.every == 0 {
		fmt.Printf("step %6d  t=%10.4f  energy: %.8e\n", step, state.Time, energy)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	sys, p, err := setupRun(cfg)
	if err != nil {
		return err
	}

	stepper, err := integrate.NewSymplectic(cfg.Time.Order)
	if err != nil {
		return err
	}

	drv := sim.New(sys, stepper)
	drift := metrics.NewEnergyDrift()
	sanity := metrics.NewFieldSanity()
	drv.AddMetric(drift)
	drv.AddMetric(sanity)

	every := p.Steps / 20
	if every < 1 {
		every = 1
	}
	drv.AddObserver(&energyPrinter{every: every})

	fmt.Println("running simulation...")
	start := time.Now()
	result, err := drv.Run(context.Background(), p, cfg.Time.MaxSteps)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	name := preset
	if name == "" {
		name = "custom"
	}
	runID, err := st.Save(name, cfg.Grid.Cells, cfg.Time.Order, cfg.Time.Duration, p.Dt, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps taken: %d  final time: %.4f\n", result.Steps, result.FinalTime)
	if result.Truncated {
		fmt.Println("warning: run truncated by step cap before the requested duration")
	}
	if sanity.Diverged() {
		fmt.Println("warning: field values diverged; step size likely exceeded the stability bound")
	}
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6e\n", name, val)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	sys, p, err := setupRun(cfg)
	if err != nil {
		return err
	}

	stepper, err := integrate.NewSymplectic(cfg.Time.Order)
	if err != nil {
		return err
	}

	drv := sim.New(sys, stepper)
	drv.AddMetric(metrics.NewEnergyDrift())

	steps := p.Steps
	if cfg.Time.MaxSteps > 0 && steps > cfg.Time.MaxSteps {
		steps = cfg.Time.MaxSteps
	}
	frameStride := stride
	if frameStride <= 0 {
		frameStride = steps / 400
		if frameStride < 1 {
			frameStride = 1
		}
	}
	relay := tui.NewRelay(frameStride)
	drv.AddObserver(relay)

	go func() {
		_, err := drv.Run(context.Background(), p, cfg.Time.MaxSteps)
		relay.Done(err)
	}()

	prog := tea.NewProgram(tui.NewModel(relay, steps))
	_, err = prog.Run()
	return err
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
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tCELLS\tORDER\tDT\tSTEPS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.3e\t%d\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Cells,
			run.Order,
			run.Dt,
			run.Steps,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	_, energy, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}
	if len(energy) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s  cells: %d  order: %d\n\n", meta.Preset, meta.Cells, meta.Order)

	graph := asciigraph.Plot(energy,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("field energy vs step"),
	)
	fmt.Println(graph)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	if svgPath != "" {
		times, energy, err := st.LoadSeries(args[0])
		if err != nil {
			return err
		}
		doc := export.SeriesToSVG(times, energy, 800, 300, "#00ff00")
		if doc == "" {
			return fmt.Errorf("not enough data to render")
		}
		if err := os.WriteFile(svgPath, []byte(doc), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgPath)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	prob, err := cfg.ToProblem()
	if err != nil {
		return err
	}

	build := func() (*maxwell.System, error) {
		sys, err := maxwell.NewSystem(prob)
		if err != nil {
			return nil, err
		}
		if init := cfg.Problem.Initial; init != nil {
			sys.SetInitialE(func(x float64) float64 {
				r := (x - init.Center) / init.Width
				return init.Amplitude * math.Exp(-r*r)
			})
		}
		return sys, nil
	}

	probe, err := build()
	if err != nil {
		return err
	}
	bound, err := probe.MaxStableStep()
	if err != nil {
		return err
	}
	p, err := plan.Quantize(cfg.Time.Duration, bound)
	if err != nil {
		return err
	}
	fmt.Printf("steps: %d  dt: %.6e\n", p.Steps, p.Dt)

	var cases []sim.Case
	for ord := 1; ord <= 4; ord++ {
		sys, err := build()
		if err != nil {
			return err
		}
		cases = append(cases, sim.Case{
			Name:     fmt.Sprintf("order %d", ord),
			System:   sys,
			Order:    ord,
			Plan:     p,
			MaxSteps: cfg.Time.MaxSteps,
			Metrics:  []fieldop.Metric{metrics.NewEnergyDrift(), metrics.NewFieldSanity()},
		})
	}

	fmt.Printf("running %d cases...\n", len(cases))
	start := time.Now()
	results, err := sim.RunCases(context.Background(), cases)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CASE\tENERGY DRIFT\tCLEAN FRACTION\tFINAL ENERGY")
	for _, r := range results {
		res := r.Result
		fmt.Fprintf(w, "%s\t%.3e\t%.2f\t%.6e\n",
			r.Name,
			res.Metrics["energy_drift"],
			res.Metrics["field_sanity"],
			res.Energy[len(res.Energy)-1],
		)
	}
	return w.Flush()
}

func spectrumRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	times, energy, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}
	if len(energy) < 2 {
		return fmt.Errorf("not enough data to analyze")
	}
	dt := meta.Dt
	if dt <= 0 {
		dt = times[1] - times[0]
	}

	freq, amp := analysis.DominantFrequency(energy, dt)
	_, power := analysis.PowerSpectrum(energy, dt)

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("dominant frequency: %.4f  amplitude: %.3e\n\n", freq, amp)
	graph := asciigraph.Plot(power,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("energy spectrum (amplitude vs frequency bin)"),
	)
	fmt.Println(graph)
	return nil
}

func quantizeOnly(cmd *cobra.Command, args []string) error {
	bound := dtmax
	if bound <= 0 {
		sys, err := maxwell.NewSystem(maxwell.Problem{Cells: cells, Length: length})
		if err != nil {
			return err
		}
		if bound, err = sys.MaxStableStep(); err != nil {
			return err
		}
		fmt.Printf("derived stability bound: %.6e\n", bound)
	}
	p, err := plan.Quantize(duration, bound)
	if err != nil {
		return err
	}
	fmt.Printf("steps: %d\n", p.Steps)
	fmt.Printf("dt:    %.6e\n", p.Dt)
	fmt.Printf("covers %.6f time units\n", float64(p.Steps)*p.Dt)
	return nil
}
