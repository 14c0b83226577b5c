package aar

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/skyguard/ccuas-sim/internal/sim"
)

func TestNewRecorderFillsDefaults(t *testing.T) {
	r := NewRecorder("smoke-test", Config{})
	if r.cfg.DetailLevel == "" {
		t.Error("NewRecorder left DetailLevel empty")
	}
	if r.cfg.Format == "" {
		t.Error("NewRecorder left Format empty")
	}
	if r.scenarioName != "smoke-test" {
		t.Errorf("scenarioName = %q, want smoke-test", r.scenarioName)
	}
	if r.peakThreatLevel != sim.ThreatInfo {
		t.Errorf("peakThreatLevel = %v, want INFO before any events", r.peakThreatLevel)
	}
}

func TestNewRecorderPreservesExplicitConfig(t *testing.T) {
	r := NewRecorder("run", Config{DetailLevel: "full", Format: "markdown"})
	if r.cfg.DetailLevel != "full" {
		t.Errorf("DetailLevel = %q, want full", r.cfg.DetailLevel)
	}
	if r.cfg.Format != "markdown" {
		t.Errorf("Format = %q, want markdown", r.cfg.Format)
	}
}

func deliver(r *Recorder, events ...sim.Event) {
	obs := r.Observer()
	obs(events)
}

func TestIngestCountsDetectionsBySensor(t *testing.T) {
	r := NewRecorder("run", Config{})
	deliver(r,
		sim.Event{Kind: sim.EventRadarDetection, Detection: &sim.DetectionEvent{Observation: sim.SensorObservation{Sensor: sim.SensorRadar}}},
		sim.Event{Kind: sim.EventRadarDetection, Detection: &sim.DetectionEvent{Observation: sim.SensorObservation{Sensor: sim.SensorRadar}}},
		sim.Event{Kind: sim.EventAudioDetection, Detection: &sim.DetectionEvent{Observation: sim.SensorObservation{Sensor: sim.SensorAcoustic}}},
	)
	if r.detections[sim.SensorRadar] != 2 {
		t.Errorf("detections[RADAR] = %d, want 2", r.detections[sim.SensorRadar])
	}
	if r.detections[sim.SensorAcoustic] != 1 {
		t.Errorf("detections[ACOUSTIC] = %d, want 1", r.detections[sim.SensorAcoustic])
	}
}

func TestIngestCountsTrackCreatedAndDropped(t *testing.T) {
	r := NewRecorder("run", Config{})
	deliver(r,
		sim.Event{Kind: sim.EventTrackCreated},
		sim.Event{Kind: sim.EventTrackCreated},
		sim.Event{Kind: sim.EventTrackDropped, TrackLifecycle: &sim.TrackLifecycleEvent{Drop: &sim.DropEvent{Reason: sim.DropTimeout}}},
	)
	if r.tracksCreated != 2 {
		t.Errorf("tracksCreated = %d, want 2", r.tracksCreated)
	}
	if r.tracksDropped[sim.DropTimeout] != 1 {
		t.Errorf("tracksDropped[Timeout] = %d, want 1", r.tracksDropped[sim.DropTimeout])
	}
}

func TestIngestTrackDroppedWithoutDropDetailIsIgnoredSafely(t *testing.T) {
	r := NewRecorder("run", Config{})
	deliver(r, sim.Event{Kind: sim.EventTrackDropped, TrackLifecycle: &sim.TrackLifecycleEvent{}})
	if len(r.tracksDropped) != 0 {
		t.Errorf("tracksDropped = %v, want empty when Drop detail is nil", r.tracksDropped)
	}
}

func TestIngestTracksPeakThreatLevelRatchetsUp(t *testing.T) {
	r := NewRecorder("run", Config{})
	lowTrack := sim.FusedTrack{ThreatLevel: sim.ThreatCaution}
	highTrack := sim.FusedTrack{ThreatLevel: sim.ThreatCritical}

	deliver(r, sim.Event{Kind: sim.EventFusedTrackUpdate, TrackUpdate: &sim.FusedTrackUpdateEvent{Track: lowTrack}})
	if r.peakThreatLevel != sim.ThreatCaution {
		t.Fatalf("peakThreatLevel = %v, want CAUTION", r.peakThreatLevel)
	}

	deliver(r, sim.Event{Kind: sim.EventFusedTrackUpdate, TrackUpdate: &sim.FusedTrackUpdateEvent{Track: highTrack}})
	if r.peakThreatLevel != sim.ThreatCritical {
		t.Errorf("peakThreatLevel = %v, want CRITICAL", r.peakThreatLevel)
	}

	// A subsequent lower-threat update must not un-ratchet the peak.
	deliver(r, sim.Event{Kind: sim.EventFusedTrackUpdate, TrackUpdate: &sim.FusedTrackUpdateEvent{Track: sim.FusedTrack{ThreatLevel: sim.ThreatInfo}}})
	if r.peakThreatLevel != sim.ThreatCritical {
		t.Errorf("peakThreatLevel regressed to %v after a lower update", r.peakThreatLevel)
	}
}

func TestIngestCountsLaunchesAndEngagementsByMethod(t *testing.T) {
	r := NewRecorder("run", Config{})
	id := sim.InterceptorID(uuid.New())
	deliver(r,
		sim.Event{Kind: sim.EventInterceptorUpdate, InterceptorState: &sim.InterceptorStateUpdate{InterceptorID: id, State: sim.StatePursuing}},
		sim.Event{Kind: sim.EventInterceptResult, InterceptResult: &sim.InterceptResultEvent{Method: sim.MethodRAM, Result: sim.ResultSuccess}},
		sim.Event{Kind: sim.EventInterceptResult, InterceptResult: &sim.InterceptResultEvent{Method: sim.MethodRAM, Result: sim.ResultMiss, Reason: sim.FailureTargetLost}},
	)
	if r.launches != 1 {
		t.Errorf("launches = %d, want 1", r.launches)
	}
	if r.engagementsByMethod[sim.MethodRAM] != 2 {
		t.Errorf("engagementsByMethod[RAM] = %d, want 2", r.engagementsByMethod[sim.MethodRAM])
	}
	if r.outcomesByMethod[sim.MethodRAM][sim.ResultSuccess] != 1 {
		t.Errorf("outcomesByMethod[RAM][Success] = %d, want 1", r.outcomesByMethod[sim.MethodRAM][sim.ResultSuccess])
	}
	if r.outcomesByMethod[sim.MethodRAM][sim.ResultMiss] != 1 {
		t.Errorf("outcomesByMethod[RAM][Miss] = %d, want 1", r.outcomesByMethod[sim.MethodRAM][sim.ResultMiss])
	}
	if r.failuresByReason[sim.FailureTargetLost] != 1 {
		t.Errorf("failuresByReason[TargetLost] = %d, want 1", r.failuresByReason[sim.FailureTargetLost])
	}
}

func TestIngestInterceptorUpdateAtIdleDoesNotCountAsLaunch(t *testing.T) {
	r := NewRecorder("run", Config{})
	id := sim.InterceptorID(uuid.New())
	deliver(r,
		sim.Event{Kind: sim.EventInterceptorUpdate, InterceptorState: &sim.InterceptorStateUpdate{InterceptorID: id, State: sim.StateIdle}},
		sim.Event{Kind: sim.EventInterceptorUpdate, InterceptorState: &sim.InterceptorStateUpdate{InterceptorID: id, State: sim.StateReturning}},
	)
	if r.launches != 0 {
		t.Errorf("launches = %d, want 0 for IDLE/RETURNING updates", r.launches)
	}
}

func TestIngestTracksHostilesSeenAndNeutralized(t *testing.T) {
	r := NewRecorder("run", Config{})
	hostile := sim.DroneID(uuid.New())
	deliver(r,
		sim.Event{Kind: sim.EventDroneStateUpdate, DroneState: &sim.DroneStateUpdate{HostileID: hostile}},
		sim.Event{Kind: sim.EventInterceptResult, InterceptResult: &sim.InterceptResultEvent{HostileID: hostile, Result: sim.ResultSuccess}},
	)
	if !r.hostilesSeen[hostile] {
		t.Error("hostilesSeen did not record the hostile")
	}
	if !r.hostilesNeutralized[hostile] {
		t.Error("hostilesNeutralized did not record a successful outcome")
	}
}

func TestIngestMissDoesNotMarkHostileNeutralized(t *testing.T) {
	r := NewRecorder("run", Config{})
	hostile := sim.DroneID(uuid.New())
	deliver(r, sim.Event{Kind: sim.EventInterceptResult, InterceptResult: &sim.InterceptResultEvent{HostileID: hostile, Result: sim.ResultMiss}})
	if r.hostilesNeutralized[hostile] {
		t.Error("a miss must not mark the hostile as neutralized")
	}
}

func TestIngestTracksLastInterceptorMetadata(t *testing.T) {
	r := NewRecorder("run", Config{})
	id := sim.InterceptorID(uuid.New())
	meta1 := map[string]any{"state": "BOOST"}
	meta2 := map[string]any{"state": "TERMINAL"}

	deliver(r, sim.Event{Kind: sim.EventInterceptorUpdate, InterceptorState: &sim.InterceptorStateUpdate{InterceptorID: id, State: sim.StatePursuing, Metadata: meta1}})
	if r.lastInterceptorMeta[id]["state"] != "BOOST" {
		t.Fatalf("lastInterceptorMeta = %v, want BOOST", r.lastInterceptorMeta[id])
	}

	deliver(r, sim.Event{Kind: sim.EventInterceptorUpdate, InterceptorState: &sim.InterceptorStateUpdate{InterceptorID: id, State: sim.StatePursuing, Metadata: meta2}})
	if r.lastInterceptorMeta[id]["state"] != "TERMINAL" {
		t.Errorf("lastInterceptorMeta = %v, want TERMINAL (overwritten by the later update)", r.lastInterceptorMeta[id])
	}
}

func TestIngestTracksPeakActiveTracksAndHostiles(t *testing.T) {
	r := NewRecorder("run", Config{})
	deliver(r,
		sim.Event{Kind: sim.EventSimulationStatus, SimStatus: &sim.SimulationStatusEvent{ActiveTracks: 3, ActiveHostiles: 2}},
		sim.Event{Kind: sim.EventSimulationStatus, SimStatus: &sim.SimulationStatusEvent{ActiveTracks: 7, ActiveHostiles: 1}},
		sim.Event{Kind: sim.EventSimulationStatus, SimStatus: &sim.SimulationStatusEvent{ActiveTracks: 5, ActiveHostiles: 4}},
	)
	if r.peakActiveTracks != 7 {
		t.Errorf("peakActiveTracks = %d, want 7", r.peakActiveTracks)
	}
	if r.peakActiveHostile != 4 {
		t.Errorf("peakActiveHostile = %d, want 4", r.peakActiveHostile)
	}
}

func TestObserverAppendsFullLogOnlyWhenDetailLevelIsFull(t *testing.T) {
	summaryOnly := NewRecorder("run", Config{DetailLevel: "summary"})
	deliver(summaryOnly, sim.Event{Kind: sim.EventTrackCreated})
	if len(summaryOnly.fullLog) != 0 {
		t.Errorf("fullLog = %d entries, want 0 at summary detail level", len(summaryOnly.fullLog))
	}

	full := NewRecorder("run", Config{DetailLevel: "full"})
	deliver(full, sim.Event{Kind: sim.EventTrackCreated}, sim.Event{Kind: sim.EventTrackCreated})
	if len(full.fullLog) != 2 {
		t.Errorf("fullLog = %d entries, want 2 at full detail level", len(full.fullLog))
	}
}

func TestObserverIsSafeAcrossSequentialBatches(t *testing.T) {
	r := NewRecorder("run", Config{})
	deliver(r, sim.Event{Kind: sim.EventRadarDetection, Detection: &sim.DetectionEvent{Observation: sim.SensorObservation{Sensor: sim.SensorEO}}})
	deliver(r, sim.Event{Kind: sim.EventRadarDetection, Detection: &sim.DetectionEvent{Observation: sim.SensorObservation{Sensor: sim.SensorEO}}})
	if r.detections[sim.SensorEO] != 2 {
		t.Errorf("detections[EO] across two batches = %d, want 2", r.detections[sim.SensorEO])
	}
}

func TestIngestSetsStartOnFirstEventAndAdvancesEnd(t *testing.T) {
	r := NewRecorder("run", Config{})
	deliver(r,
		sim.Event{Kind: sim.EventTrackCreated, Time: 10 * time.Second},
		sim.Event{Kind: sim.EventTrackCreated, Time: 42 * time.Second},
	)
	if r.start != 10*time.Second {
		t.Errorf("start = %v, want 10s (first event's time)", r.start)
	}
	if r.end != 42*time.Second {
		t.Errorf("end = %v, want 42s (last event's time)", r.end)
	}
}
