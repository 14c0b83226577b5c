package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/skyguard/ccuas-sim/internal/sim"
	"github.com/skyguard/ccuas-sim/pkg/logger"
)

var scenarioDir string

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Inspect available scenario files",
}

var scenarioListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scenario files in a directory",
	RunE:  listScenarios,
}

func init() {
	scenarioCmd.PersistentFlags().StringVarP(&scenarioDir, "dir", "d", "scenarios", "directory to search for *.yaml scenario files")
	scenarioCmd.AddCommand(scenarioListCmd)
}

// discoveredScenario pairs a scenario file's path with the parsed content,
// so a listing can show both the filename and the scenario's declared name.
type discoveredScenario struct {
	Path     string
	Scenario *sim.Scenario
}

func discoverScenarios(dir string) ([]discoveredScenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var found []discoveredScenario
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		sc, err := sim.LoadScenario(path)
		if err != nil {
			logger.Warnf("skipping %s: %v", path, err)
			continue
		}
		found = append(found, discoveredScenario{Path: path, Scenario: sc})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })
	return found, nil
}

func listScenarios(cmd *cobra.Command, args []string) error {
	found, err := discoverScenarios(scenarioDir)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Println("no scenario files found in", scenarioDir)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tNAME\tPOLICY\tHOSTILES\tINTERCEPTORS")
	fmt.Fprintln(w, "----\t----\t------\t--------\t------------")
	for _, d := range found {
		policy := d.Scenario.Policy
		if policy == "" {
			policy = "FUSION"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n",
			filepath.Base(d.Path), d.Scenario.Name, policy, len(d.Scenario.Hostiles), len(d.Scenario.Interceptors))
	}
	return w.Flush()
}
