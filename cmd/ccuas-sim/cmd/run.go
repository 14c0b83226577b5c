package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/skyguard/ccuas-sim/internal/sim"
	"github.com/skyguard/ccuas-sim/pkg/aar"
	"github.com/skyguard/ccuas-sim/pkg/eventlog"
	"github.com/skyguard/ccuas-sim/pkg/kconfig"
	"github.com/skyguard/ccuas-sim/pkg/logger"
)

var (
	runScenarioPath string
	runKconfigPath  string
	runSpeed        float64
	runEventLogPath string
	runAARDir       string
	runAARFormat    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario against the kernel",
	RunE:  runScenario,
}

func init() {
	runCmd.Flags().StringVarP(&runScenarioPath, "scenario", "s", "", "scenario YAML file (prompts interactively if omitted)")
	runCmd.Flags().StringVarP(&runKconfigPath, "kconfig", "k", "", "kernel tunables YAML file (defaults if omitted)")
	runCmd.Flags().Float64Var(&runSpeed, "speed", 1.0, "wall-clock speed multiplier")
	runCmd.Flags().StringVar(&runEventLogPath, "event-log", "", "NDJSON event sink path (disabled if omitted)")
	runCmd.Flags().StringVar(&runAARDir, "aar-dir", "reports", "after-action report output directory")
	runCmd.Flags().StringVar(&runAARFormat, "aar-format", "json", "after-action report format (json, markdown)")
}

func runScenario(cmd *cobra.Command, args []string) error {
	path := runScenarioPath
	if path == "" {
		selected, err := promptForScenario()
		if err != nil {
			return fmt.Errorf("selecting scenario: %w", err)
		}
		path = selected
	}

	scenario, err := sim.LoadScenario(path)
	if err != nil {
		return fmt.Errorf("loading scenario: %w", err)
	}

	kcfg, err := kconfig.Load(runKconfigPath)
	if err != nil {
		return fmt.Errorf("loading kernel config: %w", err)
	}

	basePos := sim.Position3D{X: scenario.Base.X, Y: scenario.Base.Y, Z: scenario.Base.Z}
	base := kcfg.ToWorldConfig(scenario.Seed, basePos)
	world := scenario.BuildWorldFrom(base)

	if runEventLogPath != "" {
		writer, err := eventlog.NewWriter(runEventLogPath)
		if err != nil {
			return fmt.Errorf("opening event log: %w", err)
		}
		defer writer.Close()
		if err := writer.WriteScenarioStart(scenario.Name); err != nil {
			logger.Warnf("event log: %v", err)
		}
		world.Bus().Subscribe(writer.Observer())
		defer writer.WriteScenarioEnd()
	}

	recorder := aar.NewRecorder(scenario.Name, aar.Config{
		OutputDir:   runAARDir,
		Format:      runAARFormat,
		DetailLevel: "detailed",
	})
	world.Bus().Subscribe(recorder.Observer())
	world.Bus().Subscribe(statusPrinter())

	if err := world.Start(); err != nil {
		return fmt.Errorf("starting world: %w", err)
	}
	if runSpeed != 1.0 {
		if err := world.SetSpeedMultiplier(runSpeed); err != nil {
			return fmt.Errorf("setting speed: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Warn("received interrupt, stopping run...")
		world.Stop()
		cancel()
	}()

	logger.LogSection(fmt.Sprintf("Running scenario: %s", scenario.Name))
	world.Run(ctx)
	world.Bus().Flush(world.Time())

	report := recorder.Build()
	reportPath, err := recorder.Save(report)
	if err != nil {
		logger.Errorf("failed to save after-action report: %v", err)
	} else {
		logger.Success("after-action report: " + reportPath)
	}

	return nil
}

// statusPrinter renders simulation_status events as a single colorized
// console line, the CLI's only non-report output during a run.
func statusPrinter() sim.Observer {
	info := color.New(color.FgCyan)
	return func(batch []sim.Event) {
		for _, e := range batch {
			if e.Kind != sim.EventSimulationStatus || e.SimStatus == nil {
				continue
			}
			s := e.SimStatus
			info.Printf("[%s] hostiles=%d tracks=%d interceptors=%d engagements=%d speed=%.1fx\n",
				logger.FormatSimTime(s.SimTime), s.ActiveHostiles, s.ActiveTracks, s.ActiveInterceptors, s.ActiveEngagements, s.SpeedMultiplier)
		}
	}
}

func promptForScenario() (string, error) {
	found, err := discoverScenarios(scenarioDir)
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "", fmt.Errorf("no scenario files found in %s", scenarioDir)
	}

	options := make([]string, len(found))
	paths := make(map[string]string, len(found))
	for i, d := range found {
		label := fmt.Sprintf("%s (%s)", d.Scenario.Name, d.Path)
		options[i] = label
		paths[label] = d.Path
	}

	var selected string
	prompt := &survey.Select{Message: "Select scenario:", Options: options}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", err
	}
	return paths[selected], nil
}
