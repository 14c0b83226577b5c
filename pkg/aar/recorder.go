// Package aar builds an after-action report from a completed kernel run:
// it subscribes to the world's event bus as a plain Observer, accumulates
// counters as events arrive, and renders a report on demand. It never
// reaches into World/FusionEngine/EngagementManager state directly — the
// event stream is the only interface it depends on, so it works the same
// whether the run came from the CLI, a scenario batch, or a test harness.
package aar

import (
	"sync"
	"time"

	"github.com/skyguard/ccuas-sim/internal/sim"
)

// Config controls report generation and output.
type Config struct {
	OutputDir   string // directory reports are written to
	Format      string // "json" or "markdown"
	DetailLevel string // "summary", "detailed", or "full"
}

// Recorder accumulates engagement, track, and detection statistics from a
// kernel run's event stream. Zero value is not usable; build one with
// NewRecorder.
type Recorder struct {
	mu sync.Mutex

	scenarioName string
	cfg          Config

	start   time.Duration
	end     time.Duration
	started bool

	detections       map[sim.SensorKind]int
	tracksCreated     int
	tracksDropped     map[sim.DropReason]int
	peakThreatLevel   sim.ThreatLevel
	peakActiveTracks  int
	peakActiveHostile int

	launches       int
	engagementsByMethod map[sim.Method]int
	outcomesByMethod    map[sim.Method]map[sim.InterceptResult]int
	failuresByReason    map[sim.FailureReason]int

	hostilesSeen       map[sim.DroneID]bool
	hostilesNeutralized map[sim.DroneID]bool

	peakThreatTrackMeta map[string]any
	lastInterceptorMeta map[sim.InterceptorID]map[string]any
	interceptorActive   map[sim.InterceptorID]bool

	fullLog []sim.Event
}

// NewRecorder constructs a Recorder for a run of the named scenario.
func NewRecorder(scenarioName string, cfg Config) *Recorder {
	if cfg.DetailLevel == "" {
		cfg.DetailLevel = "detailed"
	}
	if cfg.Format == "" {
		cfg.Format = "json"
	}
	return &Recorder{
		scenarioName:        scenarioName,
		cfg:                 cfg,
		detections:          make(map[sim.SensorKind]int),
		tracksDropped:       make(map[sim.DropReason]int),
		engagementsByMethod: make(map[sim.Method]int),
		outcomesByMethod:    make(map[sim.Method]map[sim.InterceptResult]int),
		failuresByReason:    make(map[sim.FailureReason]int),
		hostilesSeen:        make(map[sim.DroneID]bool),
		hostilesNeutralized: make(map[sim.DroneID]bool),
		lastInterceptorMeta: make(map[sim.InterceptorID]map[string]any),
		interceptorActive:   make(map[sim.InterceptorID]bool),
		peakThreatLevel:     sim.ThreatInfo,
	}
}

// Observer returns the callback to register with (*sim.EventBus).Subscribe.
func (r *Recorder) Observer() sim.Observer {
	return func(batch []sim.Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		for _, e := range batch {
			r.ingest(e)
		}
	}
}

func (r *Recorder) ingest(e sim.Event) {
	if !r.started {
		r.start = e.Time
		r.started = true
	}
	r.end = e.Time

	if r.cfg.DetailLevel == "full" {
		r.fullLog = append(r.fullLog, e)
	}

	switch e.Kind {
	case sim.EventDroneStateUpdate:
		if e.DroneState != nil {
			r.hostilesSeen[e.DroneState.HostileID] = true
		}

	case sim.EventRadarDetection, sim.EventAudioDetection, sim.EventEODetection:
		if e.Detection != nil {
			r.detections[e.Detection.Observation.Sensor]++
		}

	case sim.EventTrackCreated:
		r.tracksCreated++

	case sim.EventTrackDropped:
		if e.TrackLifecycle != nil && e.TrackLifecycle.Drop != nil {
			r.tracksDropped[e.TrackLifecycle.Drop.Reason]++
		}

	case sim.EventFusedTrackUpdate:
		if e.TrackUpdate != nil {
			t := e.TrackUpdate.Track
			if rankThreat(t.ThreatLevel) > rankThreat(r.peakThreatLevel) {
				r.peakThreatLevel = t.ThreatLevel
				r.peakThreatTrackMeta = t.Metadata()
			}
		}

	case sim.EventInterceptorUpdate:
		if e.InterceptorState != nil {
			id := e.InterceptorState.InterceptorID
			r.lastInterceptorMeta[id] = e.InterceptorState.Metadata
			// The world publishes an update every tick; count a launch only
			// when an interceptor first leaves IDLE/RETURNING.
			active := e.InterceptorState.State != sim.StateIdle && e.InterceptorState.State != sim.StateReturning
			if active && !r.interceptorActive[id] {
				r.launches++
			}
			r.interceptorActive[id] = active
		}

	case sim.EventInterceptResult:
		if e.InterceptResult != nil {
			res := e.InterceptResult
			r.engagementsByMethod[res.Method]++
			if _, ok := r.outcomesByMethod[res.Method]; !ok {
				r.outcomesByMethod[res.Method] = make(map[sim.InterceptResult]int)
			}
			r.outcomesByMethod[res.Method][res.Result]++
			if res.Result != sim.ResultSuccess && res.Reason != "" {
				r.failuresByReason[res.Reason]++
			}
			if res.Result == sim.ResultSuccess {
				r.hostilesNeutralized[res.HostileID] = true
			}
		}

	case sim.EventSimulationStatus:
		if e.SimStatus != nil {
			if e.SimStatus.ActiveTracks > r.peakActiveTracks {
				r.peakActiveTracks = e.SimStatus.ActiveTracks
			}
			if e.SimStatus.ActiveHostiles > r.peakActiveHostile {
				r.peakActiveHostile = e.SimStatus.ActiveHostiles
			}
		}
	}
}

func rankThreat(l sim.ThreatLevel) int {
	switch l {
	case sim.ThreatCritical:
		return 4
	case sim.ThreatDanger:
		return 3
	case sim.ThreatCaution:
		return 2
	default:
		return 1
	}
}
