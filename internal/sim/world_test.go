package sim

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestWorld() *World {
	cfg := DefaultWorldConfig()
	cfg.Policy = PolicyBaseline
	w := NewWorld(cfg)
	w.Start()
	return w
}

func TestWorldTickIsNoopWhilePaused(t *testing.T) {
	cfg := DefaultWorldConfig()
	w := NewWorld(cfg)
	hostile := NewHostileVehicle(uuid.New(), Position3D{X: 100}, Velocity3D{}, BehaviorNormal, testHostileLimits(), LabelHostile)
	w.AddHostile(hostile)

	before := hostile.Position
	w.Tick(time.Second)

	if hostile.Position != before {
		t.Error("Tick advanced world state while paused")
	}
	if w.Time() != 0 {
		t.Errorf("Time() after paused Tick = %v, want 0", w.Time())
	}
}

func TestWorldTickAdvancesClockAndHostiles(t *testing.T) {
	w := newTestWorld()
	hostile := NewHostileVehicle(uuid.New(), Position3D{X: 1000}, Velocity3D{}, BehaviorNormal, testHostileLimits(), LabelHostile)
	w.AddHostile(hostile)

	before := hostile.Position
	w.Tick(time.Second)

	if w.Time() != time.Second {
		t.Errorf("Time() = %v, want 1s", w.Time())
	}
	if hostile.Position == before {
		t.Error("hostile did not move after a Tick")
	}
}

func TestWorldTickProducesDetectionAndStatusEvents(t *testing.T) {
	w := newTestWorld()
	hostile := NewHostileVehicle(uuid.New(), Position3D{X: 300, Y: 0, Z: 80}, Velocity3D{}, BehaviorNormal, testHostileLimits(), LabelHostile)
	w.AddHostile(hostile)

	var kinds []EventKind
	w.Bus().Subscribe(func(batch []Event) {
		for _, e := range batch {
			kinds = append(kinds, e.Kind)
		}
	})

	for i := 0; i < 60; i++ {
		w.Tick(time.Second)
	}
	w.Bus().Flush(w.Time())

	seen := map[EventKind]bool{}
	for _, k := range kinds {
		seen[k] = true
	}
	if !seen[EventDroneStateUpdate] {
		t.Error("no drone state update events observed over 60 ticks")
	}
	if !seen[EventRadarDetection] {
		t.Error("no radar detection events observed over 60 ticks")
	}
	if !seen[EventSimulationStatus] {
		t.Error("no simulation status event observed over 60 ticks (default StatusInterval is 5s)")
	}
}

func TestWorldScanAndIngestSkipsFalseAlarms(t *testing.T) {
	w := newTestWorld()
	rng := 100.0
	bearing := 0.0

	w.scanAndIngest([]SensorObservation{{
		Sensor:   SensorRadar,
		Time:     w.clock,
		Range:    &rng,
		Bearing:  &bearing,
		Metadata: SensorMetadata{IsFalseAlarm: true},
	}})

	if len(w.fusion.Tracks()) != 0 {
		t.Errorf("tracks after a false-alarm-only scan = %d, want 0", len(w.fusion.Tracks()))
	}
}

func TestWorldResetClearsEntitiesAndClock(t *testing.T) {
	w := newTestWorld()
	hostile := NewHostileVehicle(uuid.New(), Position3D{X: 100}, Velocity3D{}, BehaviorNormal, testHostileLimits(), LabelHostile)
	w.AddHostile(hostile)
	w.Tick(time.Second)

	w.Reset()

	if w.Time() != 0 {
		t.Errorf("Time() after Reset = %v, want 0", w.Time())
	}
	if len(w.fusion.Tracks()) != 0 {
		t.Error("Reset left fusion tracks behind")
	}
}

func TestWorldApplyCommandSimControlStartPauseReset(t *testing.T) {
	w := NewWorld(DefaultWorldConfig())

	if err := w.ApplyCommand(Command{Kind: CommandSimulationControl, SimControl: &SimControlCommand{Action: ControlStart}}); err != nil {
		t.Fatalf("ControlStart: %v", err)
	}
	if !w.running {
		t.Error("world not running after ControlStart")
	}

	if err := w.ApplyCommand(Command{Kind: CommandSimulationControl, SimControl: &SimControlCommand{Action: ControlPause}}); err != nil {
		t.Fatalf("ControlPause: %v", err)
	}
	if w.running {
		t.Error("world still running after ControlPause")
	}

	if err := w.ApplyCommand(Command{Kind: CommandSimulationControl, SimControl: &SimControlCommand{Action: ControlSpeed, SpeedMultiplier: 2}}); err != nil {
		t.Fatalf("ControlSpeed: %v", err)
	}
	if w.speedMultiplier != 2 {
		t.Errorf("speedMultiplier = %v, want 2", w.speedMultiplier)
	}
}

func TestWorldApplyCommandSimControlNilPayload(t *testing.T) {
	w := NewWorld(DefaultWorldConfig())
	if err := w.ApplyCommand(Command{Kind: CommandSimulationControl}); err != ErrInvalidScenario {
		t.Errorf("err = %v, want ErrInvalidScenario", err)
	}
}

func TestWorldApplyCommandLaunchInterceptor(t *testing.T) {
	w := NewWorld(DefaultWorldConfig())
	hostile := NewHostileVehicle(uuid.New(), Position3D{X: 100}, Velocity3D{}, BehaviorNormal, testHostileLimits(), LabelHostile)
	interceptor := NewInterceptorVehicle(uuid.New(), Position3D{}, testInterceptorLimits())
	w.AddHostile(hostile)
	w.AddInterceptor(interceptor)

	err := w.ApplyCommand(Command{Kind: CommandLaunchInterceptor, LaunchInterceptor: &LaunchInterceptorCommand{
		InterceptorID: interceptor.ID, HostileID: hostile.ID, Method: MethodGun,
	}})
	if err != nil {
		t.Fatalf("ApplyCommand(launch) = %v", err)
	}
	if interceptor.State != StateScramble {
		t.Errorf("interceptor State = %v, want SCRAMBLE", interceptor.State)
	}
}

func TestWorldApplyCommandLaunchUnknownInterceptor(t *testing.T) {
	w := NewWorld(DefaultWorldConfig())
	hostile := NewHostileVehicle(uuid.New(), Position3D{X: 100}, Velocity3D{}, BehaviorNormal, testHostileLimits(), LabelHostile)
	w.AddHostile(hostile)

	err := w.ApplyCommand(Command{Kind: CommandLaunchInterceptor, LaunchInterceptor: &LaunchInterceptorCommand{
		InterceptorID: uuid.New(), HostileID: hostile.ID, Method: MethodGun,
	}})
	if err != ErrUnknownInterceptor {
		t.Errorf("err = %v, want ErrUnknownInterceptor", err)
	}
}

func TestWorldApplyCommandLaunchBusyInterceptor(t *testing.T) {
	w := NewWorld(DefaultWorldConfig())
	hostile := NewHostileVehicle(uuid.New(), Position3D{X: 100}, Velocity3D{}, BehaviorNormal, testHostileLimits(), LabelHostile)
	interceptor := NewInterceptorVehicle(uuid.New(), Position3D{}, testInterceptorLimits())
	interceptor.State = StatePursuing
	w.AddHostile(hostile)
	w.AddInterceptor(interceptor)

	err := w.ApplyCommand(Command{Kind: CommandLaunchInterceptor, LaunchInterceptor: &LaunchInterceptorCommand{
		InterceptorID: interceptor.ID, HostileID: hostile.ID, Method: MethodGun,
	}})
	if err != ErrInterceptorBusy {
		t.Errorf("err = %v, want ErrInterceptorBusy", err)
	}
}

func TestWorldApplyCommandEngageHostile(t *testing.T) {
	w := NewWorld(DefaultWorldConfig())
	hostile := NewHostileVehicle(uuid.New(), Position3D{X: 100}, Velocity3D{}, BehaviorNormal, testHostileLimits(), LabelHostile)
	interceptor := NewInterceptorVehicle(uuid.New(), Position3D{}, testInterceptorLimits())
	w.AddHostile(hostile)
	w.AddInterceptor(interceptor)

	err := w.ApplyCommand(Command{Kind: CommandEngageHostile, Engage: &EngageCommand{
		HostileID: hostile.ID, Method: MethodNet,
	}})
	if err != nil {
		t.Fatalf("ApplyCommand(engage) = %v", err)
	}
	if interceptor.State != StateScramble {
		t.Errorf("interceptor State = %v, want SCRAMBLE", interceptor.State)
	}
	rec := w.engagement.Records()[hostile.ID]
	if rec == nil || rec.State != EngagementActive || rec.Method != MethodNet {
		t.Errorf("engagement record = %+v, want an ACTIVE NET record", rec)
	}
}

func TestWorldApplyCommandEngageHostileNoIdleInterceptor(t *testing.T) {
	w := NewWorld(DefaultWorldConfig())
	hostile := NewHostileVehicle(uuid.New(), Position3D{X: 100}, Velocity3D{}, BehaviorNormal, testHostileLimits(), LabelHostile)
	interceptor := NewInterceptorVehicle(uuid.New(), Position3D{}, testInterceptorLimits())
	interceptor.State = StatePursuing
	w.AddHostile(hostile)
	w.AddInterceptor(interceptor)

	err := w.ApplyCommand(Command{Kind: CommandEngageHostile, Engage: &EngageCommand{
		HostileID: hostile.ID, Method: MethodNet,
	}})
	if err != ErrNoIdleInterceptors {
		t.Errorf("err = %v, want ErrNoIdleInterceptors", err)
	}
}

func TestWorldApplyCommandEngagementState(t *testing.T) {
	w := newTestWorld()
	hostile := NewHostileVehicle(uuid.New(), Position3D{X: 100}, Velocity3D{}, BehaviorNormal, testHostileLimits(), LabelHostile)
	w.AddHostile(hostile)
	w.engagement.recordFor(hostile.ID, 0)

	err := w.ApplyCommand(Command{Kind: CommandEngagementState, EngagementState: &EngagementStateCommand{
		HostileID: hostile.ID, State: EngagementAborted,
	}})
	if err != nil {
		t.Fatalf("ApplyCommand(engagement state) = %v", err)
	}
	if w.engagement.Records()[hostile.ID].State != EngagementAborted {
		t.Error("engagement record state not updated")
	}
}

func TestWorldApplyCommandUnrecognizedKindIsIgnored(t *testing.T) {
	w := NewWorld(DefaultWorldConfig())
	if err := w.ApplyCommand(Command{Kind: CommandKind("unknown")}); err != nil {
		t.Errorf("unrecognized command returned %v, want nil", err)
	}
}

func TestWorldApplyCommandManualActionIsAcceptedNoop(t *testing.T) {
	w := NewWorld(DefaultWorldConfig())
	if err := w.ApplyCommand(Command{Kind: CommandManualAction, ManualAction: &ManualActionCommand{Action: "force_neutralize"}}); err != nil {
		t.Errorf("manual action returned %v, want nil", err)
	}
}

func TestWorldSetSpeedMultiplierRejectsNonPositive(t *testing.T) {
	w := NewWorld(DefaultWorldConfig())
	if err := w.SetSpeedMultiplier(0); err != ErrInvalidSpeed {
		t.Errorf("SetSpeedMultiplier(0) = %v, want ErrInvalidSpeed", err)
	}
	if err := w.SetSpeedMultiplier(-1); err != ErrInvalidSpeed {
		t.Errorf("SetSpeedMultiplier(-1) = %v, want ErrInvalidSpeed", err)
	}
}

// TestWorldApproachingHostileReachesDangerWithinThreeSeconds exercises
// concrete scenario 1 (seed 12345, dt=0.1s, base at origin): a single
// approaching hostile seen by radar only should be flagged DANGER within
// 30 ticks, with existence > 0.7.
func TestWorldApproachingHostileReachesDangerWithinThreeSeconds(t *testing.T) {
	cfg := DefaultWorldConfig()
	cfg.Seed = 12345
	cfg.Policy = PolicyFusion
	w := NewWorld(cfg)
	w.acoustic = NewAcousticSensor(AcousticConfig{Position: Position3D{}, MaxRange: 0}, w.rnd)
	w.eo = NewEOSensor(EOConfig{Position: Position3D{}, MaxRange: 0}, w.rnd)
	w.Start()

	hostile := NewHostileVehicle(uuid.New(), Position3D{X: 300, Y: 300, Z: 80}, Velocity3D{X: -15, Y: -15}, BehaviorNormal, testHostileLimits(), LabelHostile)
	w.AddHostile(hostile)

	for i := 0; i < 30; i++ {
		w.Tick(100 * time.Millisecond)
	}

	track, ok := w.fusion.TrackByHostile(hostile.ID)
	if !ok {
		t.Fatalf("no track maps to the hostile after 30 ticks")
	}

	if track.ExistenceProb <= 0.7 {
		t.Errorf("existenceProb = %v, want > 0.7", track.ExistenceProb)
	}
	if track.ThreatScore < 60 {
		t.Errorf("threatScore = %v, want >= 60", track.ThreatScore)
	}
	if track.ThreatLevel != ThreatDanger && track.ThreatLevel != ThreatCritical {
		t.Errorf("threatLevel = %v, want DANGER or CRITICAL", track.ThreatLevel)
	}
}

func TestWorldStartTwiceErrors(t *testing.T) {
	w := NewWorld(DefaultWorldConfig())
	if err := w.Start(); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := w.Start(); err != ErrAlreadyRunning {
		t.Errorf("second Start = %v, want ErrAlreadyRunning", err)
	}
}

func TestWorldPauseWhileNotRunningErrors(t *testing.T) {
	w := NewWorld(DefaultWorldConfig())
	if err := w.Pause(); err != ErrNotRunning {
		t.Errorf("Pause on a fresh world = %v, want ErrNotRunning", err)
	}
}
