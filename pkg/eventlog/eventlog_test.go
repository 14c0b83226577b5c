package eventlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/skyguard/ccuas-sim/internal/sim"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scanning %s: %v", path, err)
	}
	return lines
}

func TestNewWriterCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "run.ndjson")
	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file at %s, stat error: %v", path, err)
	}
}

func TestNewWriterAppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.ndjson")
	if err := os.WriteFile(path, []byte("{\"kind\":\"preexisting\"}\n"), 0o644); err != nil {
		t.Fatalf("seeding file: %v", err)
	}

	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.WriteScenarioStart("demo"); err != nil {
		t.Fatalf("WriteScenarioStart: %v", err)
	}
	w.Close()

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2 (preexisting + appended)", len(lines))
	}
}

func TestWriteScenarioStartAndEndWriteMarkerLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.ndjson")
	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.WriteScenarioStart("raid-01"); err != nil {
		t.Fatalf("WriteScenarioStart: %v", err)
	}
	if err := w.WriteScenarioEnd(); err != nil {
		t.Fatalf("WriteScenarioEnd: %v", err)
	}
	w.Close()

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}

	var start record
	if err := json.Unmarshal([]byte(lines[0]), &start); err != nil {
		t.Fatalf("unmarshal start line: %v", err)
	}
	if start.Kind != "scenario_start" {
		t.Errorf("first line kind = %q, want scenario_start", start.Kind)
	}

	var end record
	if err := json.Unmarshal([]byte(lines[1]), &end); err != nil {
		t.Fatalf("unmarshal end line: %v", err)
	}
	if end.Kind != "scenario_end" {
		t.Errorf("second line kind = %q, want scenario_end", end.Kind)
	}
}

func TestObserverWritesOneLinePerEventInBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.ndjson")
	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	obs := w.Observer()
	obs([]sim.Event{
		{Kind: sim.EventTrackCreated, Time: time.Second},
		{Kind: sim.EventTrackCreated, Time: 2 * time.Second},
		{Kind: sim.EventTrackCreated, Time: 3 * time.Second},
	})
	w.Close()

	lines := readLines(t, path)
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
}

func TestToRecordFlattensEventKindAndTime(t *testing.T) {
	e := sim.Event{
		Kind:       sim.EventInterceptResult,
		Time:       5 * time.Second,
		InterceptResult: &sim.InterceptResultEvent{Result: sim.ResultSuccess, Method: sim.MethodRAM},
	}
	r := toRecord(e)
	if r.Kind != sim.EventInterceptResult {
		t.Errorf("Kind = %v, want EventInterceptResult", r.Kind)
	}
	if r.Time != (5 * time.Second).String() {
		t.Errorf("Time = %q, want %q", r.Time, (5 * time.Second).String())
	}
	data, ok := r.Data.(*sim.InterceptResultEvent)
	if !ok {
		t.Fatalf("Data = %#v, want *sim.InterceptResultEvent", r.Data)
	}
	if data.Result != sim.ResultSuccess {
		t.Errorf("Data.Result = %v, want SUCCESS", data.Result)
	}
}

func TestToRecordOmitsDataForUnmappedKinds(t *testing.T) {
	r := toRecord(sim.Event{Kind: "unrecognized_kind"})
	if r.Data != nil {
		t.Errorf("Data = %v, want nil for an unmapped event kind", r.Data)
	}
}

func TestToRecordSharesDataAcrossDetectionKinds(t *testing.T) {
	det := &sim.DetectionEvent{Observation: sim.SensorObservation{Sensor: sim.SensorEO}}
	for _, kind := range []sim.EventKind{sim.EventRadarDetection, sim.EventAudioDetection, sim.EventEODetection} {
		r := toRecord(sim.Event{Kind: kind, Detection: det})
		if r.Data != det {
			t.Errorf("kind %v: Data = %v, want the shared DetectionEvent pointer", kind, r.Data)
		}
	}
}

func TestWriteRoundTripsThroughJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.ndjson")
	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	obs := w.Observer()
	obs([]sim.Event{{
		Kind: sim.EventInterceptResult,
		Time: 9 * time.Second,
		InterceptResult: &sim.InterceptResultEvent{
			Result: sim.ResultMiss,
			Reason: sim.FailureGunMissed,
			Method: sim.MethodGun,
		},
	}})
	w.Close()

	lines := readLines(t, path)
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(lines))
	}

	var decoded struct {
		Kind string `json:"kind"`
		Time string `json:"time"`
		Data struct {
			Result string `json:"Result"`
			Reason string `json:"Reason"`
			Method string `json:"Method"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Data.Result != string(sim.ResultMiss) {
		t.Errorf("decoded Data.Result = %q, want MISS", decoded.Data.Result)
	}
}
