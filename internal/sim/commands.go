package sim

import "time"

// CommandKind discriminates the inbound command tagged union.
type CommandKind string

const (
	CommandSimulationControl CommandKind = "simulation_control"
	CommandEngageHostile     CommandKind = "engage_command"
	CommandEngagementState   CommandKind = "engagement_state_command"
	CommandLaunchInterceptor CommandKind = "launch_interceptor"
	CommandManualAction      CommandKind = "manual_action"
)

// SimControlAction is the payload for CommandSimulationControl.
type SimControlAction string

const (
	ControlStart SimControlAction = "start"
	ControlPause SimControlAction = "pause"
	ControlReset SimControlAction = "reset"
	ControlSpeed SimControlAction = "set_speed"
)

// Command is the kernel's single inbound payload type, matching Event's
// discriminated-bag shape.
type Command struct {
	Kind CommandKind
	Time time.Duration

	SimControl        *SimControlCommand
	Engage            *EngageCommand
	EngagementState   *EngagementStateCommand
	LaunchInterceptor *LaunchInterceptorCommand
	ManualAction      *ManualActionCommand
}

// SimControlCommand starts/pauses/resets the scheduler or adjusts its
// speed multiplier.
type SimControlCommand struct {
	Action          SimControlAction
	SpeedMultiplier float64 // only meaningful for ControlSpeed
}

// EngageCommand requests the engagement manager immediately pursue a
// specific hostile, bypassing its normal eligibility filter (operator
// override). InterceptorID is optional: nil lets the kernel pick any idle
// interceptor.
type EngageCommand struct {
	HostileID     DroneID
	Method        Method
	InterceptorID *InterceptorID
}

// EngagementStateCommand forces a hostile's engagement record to a new
// state, e.g. operator-issued ABORTED.
type EngagementStateCommand struct {
	HostileID DroneID
	State     EngagementState
}

// LaunchInterceptorCommand launches a specific idle interceptor at a
// specific hostile with a specific method, bypassing automatic assignment.
type LaunchInterceptorCommand struct {
	InterceptorID InterceptorID
	HostileID     DroneID
	Method        Method
}

// ManualActionCommand carries free-form operator actions that don't fit
// the other command shapes. World.ApplyCommand accepts and logs them
// without changing any simulation state.
type ManualActionCommand struct {
	Action string
	Target string
}
