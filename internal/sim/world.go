package sim

import (
	"context"
	"sync"
	"time"

	"github.com/skyguard/ccuas-sim/pkg/logger"
)

// WorldConfig bundles the tunables World needs at construction time.
type WorldConfig struct {
	Seed             int64
	BasePosition     Position3D
	Policy           EngagementPolicy
	Thresholds       EngagementThresholds
	Fusion           FusionConfig
	Threat           ThreatConfig
	UseEKF           bool
	TickInterval     time.Duration // wall-clock pacing for Run
	StatusInterval   time.Duration // sim-time interval for status events
	BusBatchSize     int
	BusFlushInterval time.Duration
}

// DefaultWorldConfig returns sane defaults for an ad-hoc scenario.
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		Seed:             1,
		BasePosition:     Position3D{},
		Policy:           PolicyFusion,
		Thresholds:       DefaultThresholds(),
		Fusion:           DefaultFusionConfig(),
		Threat:           DefaultThreatConfig(),
		UseEKF:           false,
		TickInterval:     100 * time.Millisecond,
		StatusInterval:   5 * time.Second,
		BusBatchSize:     50,
		BusFlushInterval: 250 * time.Millisecond,
	}
}

// World owns every simulation entity and drives the fixed per-tick
// execution order: advance time, update hostiles, update
// interceptors, scan sensors, ingest+decay fusion, evaluate/abort
// engagements, periodically emit status.
type World struct {
	mu sync.Mutex

	cfg   WorldConfig
	rnd   *RandSource
	clock time.Duration

	running         bool
	speedMultiplier float64

	hostiles     map[DroneID]*HostileVehicle
	interceptors map[InterceptorID]*InterceptorVehicle

	radar    *RadarSensor
	acoustic *AcousticSensor
	eo       *EOSensor

	fusion     *FusionEngine
	engagement *EngagementManager
	bus        *EventBus

	lastStatus time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewWorld constructs a fully wired, paused World at sim-time zero.
func NewWorld(cfg WorldConfig) *World {
	rnd := NewRandSource(cfg.Seed)
	return &World{
		cfg:             cfg,
		rnd:             rnd,
		speedMultiplier: 1.0,
		hostiles:        make(map[DroneID]*HostileVehicle),
		interceptors:    make(map[InterceptorID]*InterceptorVehicle),
		radar:           NewRadarSensor(DefaultRadarConfig(cfg.BasePosition), rnd),
		acoustic:        NewAcousticSensor(DefaultAcousticConfig(cfg.BasePosition), rnd),
		eo:              NewEOSensor(DefaultEOConfig(cfg.BasePosition), rnd),
		fusion:          NewFusionEngine(cfg.Fusion, cfg.UseEKF),
		engagement:      NewEngagementManager(cfg.Policy, cfg.Thresholds, rnd),
		bus:             NewEventBus(cfg.BusBatchSize, cfg.BusFlushInterval),
	}
}

// Bus exposes the event bus for observer registration.
func (w *World) Bus() *EventBus { return w.bus }

// Time returns the current sim-time clock.
func (w *World) Time() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.clock
}

// AddHostile registers a hostile vehicle with the world.
func (w *World) AddHostile(h *HostileVehicle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.hostiles[h.ID] = h
}

// AddInterceptor registers an interceptor vehicle with the world.
func (w *World) AddInterceptor(in *InterceptorVehicle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.interceptors[in.ID] = in
}

// Start flips the scheduler to running; Tick becomes a no-op while paused.
func (w *World) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return ErrAlreadyRunning
	}
	w.running = true
	return nil
}

// Pause flips the scheduler to not-running.
func (w *World) Pause() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return ErrNotRunning
	}
	w.running = false
	return nil
}

// SetSpeedMultiplier adjusts how much sim-time a wall-clock tick advances
// in Run. It has no effect on direct Tick(dt) calls, which always take dt
// at face value.
func (w *World) SetSpeedMultiplier(m float64) error {
	if m <= 0 {
		return ErrInvalidSpeed
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.speedMultiplier = m
	return nil
}

// Reset clears all entity and fusion/engagement state and returns the
// clock to zero. Hostiles/interceptors must be re-added by the caller.
func (w *World) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clock = 0
	w.hostiles = make(map[DroneID]*HostileVehicle)
	w.interceptors = make(map[InterceptorID]*InterceptorVehicle)
	w.fusion.Reset()
	w.engagement.Reset()
	w.radar.Reset()
	w.acoustic.Reset()
	w.eo.Reset()
	w.lastStatus = 0
}

// Tick advances the simulation by dt, running every subsystem in the fixed
// order required for reproducibility. It is a no-op while paused.
func (w *World) Tick(dt time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running || dt <= 0 {
		return
	}

	w.clock += dt
	dtSec := dt.Seconds()

	for _, h := range w.hostiles {
		UpdateHostile(h, dtSec, w.cfg.BasePosition, w.interceptors, w.rnd)
		w.bus.Publish(Event{Kind: EventDroneStateUpdate, Time: w.clock, DroneState: &DroneStateUpdate{
			HostileID: h.ID, Position: h.Position, Velocity: h.Velocity, Behavior: h.Behavior, IsEvading: h.IsEvading,
		}})
	}

	for _, in := range w.interceptors {
		outcome := UpdateInterceptor(in, dtSec, w.clock, w.hostiles, w.rnd)
		w.bus.Publish(Event{Kind: EventInterceptorUpdate, Time: w.clock, InterceptorState: &InterceptorStateUpdate{
			InterceptorID: in.ID, Position: in.Position, Velocity: in.Velocity, State: in.State, TargetID: in.TargetID, Method: in.Method,
			Metadata: in.Metadata(),
		}})
		if outcome != nil {
			w.engagement.CompleteEngagement(outcome)
			if outcome.Result == ResultSuccess {
				w.fusion.SetTrackNeutralized(outcome.TargetID, true)
			}
			w.bus.Publish(Event{Kind: EventInterceptResult, Time: w.clock, InterceptResult: &InterceptResultEvent{
				InterceptorID: outcome.InterceptorID, HostileID: outcome.TargetID, Result: outcome.Result, Reason: outcome.Reason, Method: outcome.Method,
			}})
		}
	}

	for _, h := range w.hostiles {
		w.fusion.SetTrackEvading(h.ID, h.IsEvading)
	}

	w.scanAndIngest(w.radar.Scan(w.clock, w.hostiles))
	w.scanAndIngest(w.acoustic.Scan(w.clock, w.hostiles))
	w.scanAndIngest(w.eo.Scan(w.clock, w.hostiles))

	_, dropped := w.fusion.Decay(w.clock)
	for _, d := range dropped {
		w.bus.Publish(Event{Kind: EventTrackDropped, Time: w.clock, TrackLifecycle: &TrackLifecycleEvent{
			TrackID: d.TrackID, Drop: &d,
		}})
	}
	for _, t := range w.fusion.Tracks() {
		snapshot := *t
		w.bus.Publish(Event{Kind: EventFusedTrackUpdate, Time: w.clock, TrackUpdate: &FusedTrackUpdateEvent{Track: snapshot}})
		if t.ThreatLevel == ThreatCritical {
			logger.Alertf(string(t.ThreatLevel), "track %s threat score %.0f", t.TrackNumber, t.ThreatScore)
		}
	}

	for _, d := range w.engagement.Evaluate(w.clock, w.fusion.Tracks(), w.hostiles, w.interceptors, w.cfg.BasePosition) {
		_ = d // decisions are observable via the interceptor/intercept-result events already published above next tick
	}
	for _, d := range w.engagement.CheckAborts(w.fusion.Tracks(), w.hostiles, w.cfg.BasePosition) {
		if in, ok := w.interceptors[d.InterceptorID]; ok {
			AbortInterceptor(in, d.AbortReason)
		}
	}

	if w.clock-w.lastStatus >= w.cfg.StatusInterval {
		w.lastStatus = w.clock
		w.bus.Publish(w.statusEvent())
	}

	w.bus.Tick(w.clock)
}

func (w *World) scanAndIngest(obs []SensorObservation) {
	for _, o := range obs {
		kind := EventRadarDetection
		switch o.Sensor {
		case SensorAcoustic:
			kind = EventAudioDetection
		case SensorEO:
			kind = EventEODetection
		}
		w.bus.Publish(Event{Kind: kind, Time: w.clock, Detection: &DetectionEvent{Observation: o}})

		if o.Metadata.IsFalseAlarm {
			continue
		}
		_, created := w.fusion.Ingest(o, w.clock)
		if created {
			if t, ok := w.fusion.TrackByHostile(orZero(o.HostileID)); ok {
				w.bus.Publish(Event{Kind: EventTrackCreated, Time: w.clock, TrackLifecycle: &TrackLifecycleEvent{
					TrackID: t.ID, HostileID: o.HostileID, Created: true,
				}})
			}
		}
	}
}

func orZero(id *DroneID) DroneID {
	if id == nil {
		return DroneID{}
	}
	return *id
}

func (w *World) statusEvent() Event {
	active := 0
	for _, r := range w.engagement.Records() {
		if r.State == EngagementActive || r.State == EngagementPending {
			active++
		}
	}
	return Event{Kind: EventSimulationStatus, Time: w.clock, SimStatus: &SimulationStatusEvent{
		SimTime:            w.clock,
		ActiveHostiles:     len(w.hostiles),
		ActiveTracks:       len(w.fusion.Tracks()),
		ActiveInterceptors: len(w.interceptors),
		ActiveEngagements:  active,
		SpeedMultiplier:    w.speedMultiplier,
		Running:            w.running,
	}}
}

// Run drives Tick on a wall-clock ticker scaled by speedMultiplier, until
// ctx is cancelled or Stop is called. It is the real-time playback mode;
// batch/headless callers should prefer driving Tick directly.
func (w *World) Run(ctx context.Context) {
	w.mu.Lock()
	w.stopChan = make(chan struct{})
	w.mu.Unlock()

	ticker := time.NewTicker(w.cfg.TickInterval)
	defer ticker.Stop()

	w.wg.Add(1)
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			w.bus.Flush(w.Time())
			return
		case <-w.stopChan:
			w.bus.Flush(w.Time())
			return
		case <-ticker.C:
			w.mu.Lock()
			mult := w.speedMultiplier
			w.mu.Unlock()
			dt := time.Duration(float64(w.cfg.TickInterval) * mult)
			w.Tick(dt)
		}
	}
}

// Stop ends a Run loop started on another goroutine.
func (w *World) Stop() {
	w.mu.Lock()
	ch := w.stopChan
	w.mu.Unlock()
	if ch != nil {
		close(ch)
	}
	w.wg.Wait()
}

// ApplyCommand dispatches a single inbound Command against world state.
// Unrecognized kinds are logged and ignored rather than erroring,
// matching the kernel's tolerance of forward-compatible command payloads.
func (w *World) ApplyCommand(cmd Command) error {
	switch cmd.Kind {
	case CommandSimulationControl:
		return w.applySimControl(cmd.SimControl)
	case CommandLaunchInterceptor:
		return w.applyLaunch(cmd.LaunchInterceptor)
	case CommandEngagementState:
		return w.applyEngagementState(cmd.EngagementState)
	case CommandEngageHostile:
		return w.applyEngage(cmd.Engage)
	case CommandManualAction:
		logger.WithSimTime(w.clock).Debugf("command %s accepted but not yet actionable", cmd.Kind)
		return nil
	default:
		logger.WithSimTime(w.clock).Warnf("unrecognized command kind %q", cmd.Kind)
		return nil
	}
}

func (w *World) applySimControl(c *SimControlCommand) error {
	if c == nil {
		return ErrInvalidScenario
	}
	switch c.Action {
	case ControlStart:
		return w.Start()
	case ControlPause:
		return w.Pause()
	case ControlReset:
		w.Reset()
		return nil
	case ControlSpeed:
		return w.SetSpeedMultiplier(c.SpeedMultiplier)
	}
	return nil
}

func (w *World) applyLaunch(c *LaunchInterceptorCommand) error {
	if c == nil {
		return ErrInvalidScenario
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	in, ok := w.interceptors[c.InterceptorID]
	if !ok {
		return ErrUnknownInterceptor
	}
	if in.State != StateIdle {
		return ErrInterceptorBusy
	}
	if _, ok := w.hostiles[c.HostileID]; !ok {
		return ErrUnknownHostile
	}
	in.Launch(c.HostileID, c.Method, w.clock)
	return nil
}

// applyEngage handles an operator-issued engage_command: launch a specific
// (or any idle) interceptor at a named hostile with a named method,
// bypassing the engagement manager's normal eligibility filter.
func (w *World) applyEngage(c *EngageCommand) error {
	if c == nil {
		return ErrInvalidScenario
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.hostiles[c.HostileID]; !ok {
		return ErrUnknownHostile
	}

	var in *InterceptorVehicle
	if c.InterceptorID != nil {
		candidate, ok := w.interceptors[*c.InterceptorID]
		if !ok {
			return ErrUnknownInterceptor
		}
		in = candidate
	} else if idle := idleInterceptors(w.interceptors); len(idle) > 0 {
		in = idle[0]
	}
	if in == nil {
		return ErrNoIdleInterceptors
	}
	if in.State != StateIdle {
		return ErrInterceptorBusy
	}

	in.Launch(c.HostileID, c.Method, w.clock)

	var trackID TrackID
	track, found := w.fusion.TrackByHostile(c.HostileID)
	if found {
		trackID = track.ID
	}
	w.engagement.StartEngagement(trackID, c.HostileID, in.ID, c.Method, w.clock, w.cfg.BasePosition, track)
	return nil
}

func (w *World) applyEngagementState(c *EngagementStateCommand) error {
	if c == nil {
		return ErrInvalidScenario
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	rec, ok := w.engagement.Records()[c.HostileID]
	if !ok {
		return ErrUnknownHostile
	}
	rec.State = c.State
	return nil
}
