package sim

import "time"

// EventKind discriminates the outbound event tagged union.
type EventKind string

const (
	EventDroneStateUpdate   EventKind = "drone_state_update"
	EventInterceptorUpdate  EventKind = "interceptor_update"
	EventInterceptResult    EventKind = "intercept_result"
	EventSimulationStatus   EventKind = "simulation_status"
	EventRadarDetection     EventKind = "radar_detection"
	EventAudioDetection     EventKind = "audio_detection"
	EventEODetection        EventKind = "eo_detection"
	EventFusedTrackUpdate   EventKind = "fused_track_update"
	EventTrackCreated       EventKind = "track_created"
	EventTrackDropped       EventKind = "track_dropped"
)

// Event is the kernel's single outbound payload type. Only the field(s)
// matching Kind are populated; the rest are left zero. This mirrors the
// same discriminated-bag shape SensorObservation uses for inbound readings.
type Event struct {
	Kind EventKind
	Time time.Duration

	DroneState       *DroneStateUpdate
	InterceptorState *InterceptorStateUpdate
	InterceptResult  *InterceptResultEvent
	SimStatus        *SimulationStatusEvent
	Detection        *DetectionEvent
	TrackUpdate      *FusedTrackUpdateEvent
	TrackLifecycle   *TrackLifecycleEvent
}

// DroneStateUpdate mirrors one hostile's ground-truth kinematic state.
type DroneStateUpdate struct {
	HostileID DroneID
	Position  Position3D
	Velocity  Velocity3D
	Behavior  HostileBehavior
	IsEvading bool
}

// InterceptorStateUpdate mirrors one interceptor's kinematic/FSM state.
type InterceptorStateUpdate struct {
	InterceptorID InterceptorID
	Position      Position3D
	Velocity      Velocity3D
	State         InterceptorState
	TargetID      *DroneID
	Method        Method
	Metadata      map[string]any
}

// InterceptResultEvent reports a completed or aborted intercept attempt.
type InterceptResultEvent struct {
	InterceptorID InterceptorID
	HostileID     DroneID
	Result        InterceptResult
	Reason        FailureReason
	Method        Method
}

// SimulationStatusEvent is the periodic (default every 5s sim-time)
// summary broadcast.
type SimulationStatusEvent struct {
	SimTime           time.Duration
	ActiveHostiles    int
	ActiveTracks      int
	ActiveInterceptors int
	ActiveEngagements int
	SpeedMultiplier   float64
	Running           bool
}

// DetectionEvent carries one raw sensor observation out to observers,
// regardless of sensor kind (RADAR/ACOUSTIC/EO all use this shape).
type DetectionEvent struct {
	Observation SensorObservation
}

// FusedTrackUpdateEvent carries a fused track's current snapshot.
type FusedTrackUpdateEvent struct {
	Track FusedTrack
}

// TrackLifecycleEvent reports track creation or drop.
type TrackLifecycleEvent struct {
	TrackID   TrackID
	HostileID *DroneID
	Created   bool
	Drop      *DropEvent
}
