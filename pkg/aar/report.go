package aar

import (
	"fmt"
	"sort"
	"time"

	"github.com/skyguard/ccuas-sim/internal/sim"
)

// Report is the rendered after-action report for one run.
type Report struct {
	Metadata        Metadata            `json:"metadata"`
	Summary         Summary             `json:"summary"`
	Interceptors    []MethodAnalysis    `json:"interceptor_analysis"`
	Tracks          TrackAnalysis       `json:"track_analysis"`
	Detections      map[string]int      `json:"detections_by_sensor"`
	EventLog        []sim.Event         `json:"event_log,omitempty"`
	Recommendations []Recommendation    `json:"recommendations"`

	// PeakThreatTrack is the Metadata() snapshot of the track that produced
	// PeakThreatLevel, if any fused track update was observed.
	PeakThreatTrack map[string]any `json:"peak_threat_track,omitempty"`
	// InterceptorsFinalState is each interceptor's last-known Metadata()
	// snapshot, keyed by interceptor id.
	InterceptorsFinalState map[string]map[string]any `json:"interceptors_final_state,omitempty"`
}

// Metadata identifies the run the report was generated from.
type Metadata struct {
	ScenarioName string        `json:"scenario_name"`
	GeneratedAt  time.Time     `json:"generated_at"`
	SimStart     time.Duration `json:"sim_start"`
	SimEnd       time.Duration `json:"sim_end"`
	Duration     time.Duration `json:"duration"`
}

// Summary is the executive-summary section.
type Summary struct {
	HostilesSeen         int     `json:"hostiles_seen"`
	HostilesNeutralized  int     `json:"hostiles_neutralized"`
	HostilesLeaked       int     `json:"hostiles_leaked"`
	NeutralizationRate   float64 `json:"neutralization_rate"`
	InterceptorsLaunched int     `json:"interceptors_launched"`
	TotalEngagements     int     `json:"total_engagements"`
	HitRate              float64 `json:"hit_rate"`
	PeakThreatLevel      string  `json:"peak_threat_level"`
	PeakActiveTracks     int     `json:"peak_active_tracks"`
}

// MethodAnalysis breaks engagement outcomes down per interceptor method.
type MethodAnalysis struct {
	Method       string         `json:"method"`
	Attempts     int            `json:"attempts"`
	Successes    int            `json:"successes"`
	HitRate      float64        `json:"hit_rate"`
	Outcomes     map[string]int `json:"outcomes"`
}

// TrackAnalysis summarizes the fusion layer's track lifecycle.
type TrackAnalysis struct {
	Created      int            `json:"created"`
	DroppedByReason map[string]int `json:"dropped_by_reason"`
}

// Recommendation is a generated, rule-based improvement suggestion.
type Recommendation struct {
	Priority    string `json:"priority"` // High/Medium/Low
	Category    string `json:"category"`
	Description string `json:"description"`
}

// Build renders a Report snapshot of everything observed so far. It is
// safe to call mid-run, though a report generated after the scenario has
// fully resolved (all hostiles neutralized or out of range) is the
// intended use.
func (r *Recorder) Build() *Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep := &Report{
		Metadata: Metadata{
			ScenarioName: r.scenarioName,
			GeneratedAt:  time.Now(),
			SimStart:     r.start,
			SimEnd:       r.end,
			Duration:     r.end - r.start,
		},
		Detections: make(map[string]int),
	}

	leaked := len(r.hostilesSeen) - len(r.hostilesNeutralized)
	if leaked < 0 {
		leaked = 0
	}

	var neutralizationRate float64
	if len(r.hostilesSeen) > 0 {
		neutralizationRate = float64(len(r.hostilesNeutralized)) / float64(len(r.hostilesSeen))
	}

	totalEngagements, totalHits := 0, 0
	for _, outcomes := range r.outcomesByMethod {
		for result, n := range outcomes {
			totalEngagements += n
			if result == sim.ResultSuccess {
				totalHits += n
			}
		}
	}
	var hitRate float64
	if totalEngagements > 0 {
		hitRate = float64(totalHits) / float64(totalEngagements)
	}

	rep.Summary = Summary{
		HostilesSeen:         len(r.hostilesSeen),
		HostilesNeutralized:  len(r.hostilesNeutralized),
		HostilesLeaked:       leaked,
		NeutralizationRate:   neutralizationRate,
		InterceptorsLaunched: r.launches,
		TotalEngagements:     totalEngagements,
		HitRate:              hitRate,
		PeakThreatLevel:      string(r.peakThreatLevel),
		PeakActiveTracks:     r.peakActiveTracks,
	}

	methods := make([]sim.Method, 0, len(r.outcomesByMethod))
	for m := range r.outcomesByMethod {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })
	for _, m := range methods {
		outcomes := r.outcomesByMethod[m]
		analysis := MethodAnalysis{
			Method:   string(m),
			Outcomes: make(map[string]int, len(outcomes)),
		}
		for result, n := range outcomes {
			analysis.Outcomes[string(result)] = n
			analysis.Attempts += n
			if result == sim.ResultSuccess {
				analysis.Successes += n
			}
		}
		if analysis.Attempts > 0 {
			analysis.HitRate = float64(analysis.Successes) / float64(analysis.Attempts)
		}
		rep.Interceptors = append(rep.Interceptors, analysis)
	}

	rep.Tracks = TrackAnalysis{
		Created:         r.tracksCreated,
		DroppedByReason: make(map[string]int, len(r.tracksDropped)),
	}
	for reason, n := range r.tracksDropped {
		rep.Tracks.DroppedByReason[string(reason)] = n
	}

	for sensor, n := range r.detections {
		rep.Detections[string(sensor)] = n
	}

	if r.cfg.DetailLevel == "full" {
		rep.EventLog = append([]sim.Event(nil), r.fullLog...)
	}

	rep.PeakThreatTrack = r.peakThreatTrackMeta
	if len(r.lastInterceptorMeta) > 0 {
		rep.InterceptorsFinalState = make(map[string]map[string]any, len(r.lastInterceptorMeta))
		for id, meta := range r.lastInterceptorMeta {
			rep.InterceptorsFinalState[id.String()] = meta
		}
	}

	rep.Recommendations = recommend(rep)

	return rep
}

// recommend generates rule-based recommendations from the finished report,
// the same threshold-driven style the rest of the kernel uses for its own
// tuning knobs rather than a learned model.
func recommend(rep *Report) []Recommendation {
	var recs []Recommendation

	if rep.Summary.HitRate < 0.5 && rep.Summary.TotalEngagements > 0 {
		recs = append(recs, Recommendation{
			Priority:    "High",
			Category:    "engagement",
			Description: fmt.Sprintf("hit rate %.0f%% across %d engagements; review guidance gains or engagement range gates", rep.Summary.HitRate*100, rep.Summary.TotalEngagements),
		})
	}

	if rep.Summary.HostilesLeaked > 0 {
		recs = append(recs, Recommendation{
			Priority:    "High",
			Category:    "coverage",
			Description: fmt.Sprintf("%d hostile(s) left the engagement envelope unneutralized; consider tightening MaxEngageRange or adding interceptor capacity", rep.Summary.HostilesLeaked),
		})
	}

	if dropped := rep.Tracks.DroppedByReason[string(sim.DropTimeout)]; dropped > 0 {
		recs = append(recs, Recommendation{
			Priority:    "Medium",
			Category:    "fusion",
			Description: fmt.Sprintf("%d track(s) dropped on timeout; sensor coverage gaps may be losing contact between scans", dropped),
		})
	}

	if rep.Summary.PeakThreatLevel == string(sim.ThreatCritical) {
		recs = append(recs, Recommendation{
			Priority:    "Medium",
			Category:    "threat-response",
			Description: "threat level reached CRITICAL during the run; verify MaxConcurrent engagements is sized for the scenario's peak load",
		})
	}

	return recs
}
