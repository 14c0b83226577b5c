// Package eventlog is an optional NDJSON sink for a kernel run's event
// stream: one JSON object per line, append-only, suitable for tailing or
// replay. It is a reference Observer implementation, not something the
// kernel itself imports — internal/sim only depends on the Observer
// function type it defines, never on a concrete sink.
package eventlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/skyguard/ccuas-sim/internal/sim"
)

// Writer appends one JSON line per event to an underlying file.
type Writer struct {
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
}

// record is the on-disk shape of one logged event: the event's own Kind
// and Time plus whichever payload field was populated, flattened so a
// line-oriented reader doesn't have to know the Event tagged-union shape.
type record struct {
	Kind sim.EventKind `json:"kind"`
	Time string        `json:"time"`
	Data interface{}   `json:"data,omitempty"`
}

// NewWriter opens (creating parent directories and the file if needed,
// appending if it already exists) an NDJSON sink at path.
func NewWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("eventlog: creating directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("eventlog: opening %s: %w", path, err)
	}
	enc := json.NewEncoder(file)
	enc.SetEscapeHTML(false)
	return &Writer{file: file, encoder: enc}, nil
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// WriteScenarioStart appends a scenario_start marker line; callers write
// one before subscribing the Writer's Observer to the world's event bus.
func (w *Writer) WriteScenarioStart(scenarioName string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.encoder.Encode(record{Kind: "scenario_start", Data: map[string]string{"scenario": scenarioName}})
}

// WriteScenarioEnd appends a scenario_end marker line; callers write one
// after the run stops, before Close.
func (w *Writer) WriteScenarioEnd() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.encoder.Encode(record{Kind: "scenario_end"})
}

// Observer returns the callback to register with (*sim.EventBus).Subscribe.
// A write error is logged to stderr rather than propagated: a stalled
// disk should not be able to stall the simulation loop that's publishing
// to this sink.
func (w *Writer) Observer() sim.Observer {
	return func(batch []sim.Event) {
		w.mu.Lock()
		defer w.mu.Unlock()
		for _, e := range batch {
			if err := w.encoder.Encode(toRecord(e)); err != nil {
				fmt.Fprintf(os.Stderr, "eventlog: write failed: %v\n", err)
				return
			}
		}
	}
}

func toRecord(e sim.Event) record {
	r := record{Kind: e.Kind, Time: e.Time.String()}
	switch e.Kind {
	case sim.EventDroneStateUpdate:
		r.Data = e.DroneState
	case sim.EventInterceptorUpdate:
		r.Data = e.InterceptorState
	case sim.EventInterceptResult:
		r.Data = e.InterceptResult
	case sim.EventSimulationStatus:
		r.Data = e.SimStatus
	case sim.EventRadarDetection, sim.EventAudioDetection, sim.EventEODetection:
		r.Data = e.Detection
	case sim.EventFusedTrackUpdate:
		r.Data = e.TrackUpdate
	case sim.EventTrackCreated, sim.EventTrackDropped:
		r.Data = e.TrackLifecycle
	}
	return r
}
