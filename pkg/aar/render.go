package aar

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/skyguard/ccuas-sim/pkg/logger"
)

// Save writes the report to cfg.OutputDir in cfg.Format, returning the
// path written.
func (r *Recorder) Save(rep *Report) (string, error) {
	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("aar: creating output dir: %w", err)
	}

	stamp := rep.Metadata.GeneratedAt.Format("20060102_150405")
	name := fmt.Sprintf("AAR_%s_%s", sanitizeName(rep.Metadata.ScenarioName), stamp)

	var path string
	var err error
	switch r.cfg.Format {
	case "markdown":
		path, err = saveMarkdown(r.cfg.OutputDir, name, rep)
	default:
		path, err = saveJSON(r.cfg.OutputDir, name, rep)
	}
	if err != nil {
		return "", err
	}
	logger.Successf("after-action report saved to %s", path)
	return path, nil
}

func saveJSON(dir, name string, rep *Report) (string, error) {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("aar: marshaling report: %w", err)
	}
	path := filepath.Join(dir, name+".json")
	return path, os.WriteFile(path, data, 0o644)
}

func saveMarkdown(dir, name string, rep *Report) (string, error) {
	var sb strings.Builder

	sb.WriteString("# After Action Report\n\n")
	sb.WriteString(fmt.Sprintf("**Scenario:** %s\n\n", rep.Metadata.ScenarioName))
	sb.WriteString(fmt.Sprintf("**Generated:** %s\n\n", rep.Metadata.GeneratedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("**Sim duration:** %s\n\n", rep.Metadata.Duration))

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- Hostiles seen: %d\n", rep.Summary.HostilesSeen))
	sb.WriteString(fmt.Sprintf("- Hostiles neutralized: %d (%.1f%%)\n", rep.Summary.HostilesNeutralized, rep.Summary.NeutralizationRate*100))
	sb.WriteString(fmt.Sprintf("- Hostiles leaked: %d\n", rep.Summary.HostilesLeaked))
	sb.WriteString(fmt.Sprintf("- Interceptors launched: %d\n", rep.Summary.InterceptorsLaunched))
	sb.WriteString(fmt.Sprintf("- Total engagements: %d (%.1f%% hit rate)\n", rep.Summary.TotalEngagements, rep.Summary.HitRate*100))
	sb.WriteString(fmt.Sprintf("- Peak threat level: %s\n", rep.Summary.PeakThreatLevel))
	sb.WriteString(fmt.Sprintf("- Peak active tracks: %d\n\n", rep.Summary.PeakActiveTracks))

	if len(rep.Interceptors) > 0 {
		sb.WriteString("## Interceptor Method Analysis\n\n")
		sb.WriteString("| Method | Attempts | Successes | Hit Rate |\n")
		sb.WriteString("|---|---|---|---|\n")
		for _, m := range rep.Interceptors {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.1f%% |\n", m.Method, m.Attempts, m.Successes, m.HitRate*100))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Track Lifecycle\n\n")
	sb.WriteString(fmt.Sprintf("- Tracks created: %d\n", rep.Tracks.Created))
	for reason, n := range rep.Tracks.DroppedByReason {
		sb.WriteString(fmt.Sprintf("- Dropped (%s): %d\n", reason, n))
	}
	sb.WriteString("\n")

	if len(rep.Detections) > 0 {
		sb.WriteString("## Detections by Sensor\n\n")
		for sensor, n := range rep.Detections {
			sb.WriteString(fmt.Sprintf("- %s: %d\n", sensor, n))
		}
		sb.WriteString("\n")
	}

	if rep.PeakThreatTrack != nil {
		sb.WriteString("## Peak Threat Track\n\n")
		sb.WriteString(fmt.Sprintf("- %v\n\n", rep.PeakThreatTrack))
	}

	if len(rep.InterceptorsFinalState) > 0 {
		sb.WriteString("## Interceptor Final States\n\n")
		for id, meta := range rep.InterceptorsFinalState {
			sb.WriteString(fmt.Sprintf("- %s: %v\n", id, meta))
		}
		sb.WriteString("\n")
	}

	if len(rep.Recommendations) > 0 {
		sb.WriteString("## Recommendations\n\n")
		for _, rec := range rep.Recommendations {
			sb.WriteString(fmt.Sprintf("### %s (%s priority)\n\n%s\n\n", rec.Category, rec.Priority, rec.Description))
		}
	}

	path := filepath.Join(dir, name+".md")
	return path, os.WriteFile(path, []byte(sb.String()), 0o644)
}

func sanitizeName(s string) string {
	if s == "" {
		return "scenario"
	}
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
