package sim

import "errors"

// Sentinel errors for the kernel's error taxonomy. Callers should
// compare with errors.Is rather than matching strings.
var (
	ErrUnknownHostile     = errors.New("sim: unknown hostile id")
	ErrUnknownInterceptor = errors.New("sim: unknown interceptor id")
	ErrUnknownTrack       = errors.New("sim: unknown track id")
	ErrInterceptorBusy    = errors.New("sim: interceptor is not idle")
	ErrNoIdleInterceptors = errors.New("sim: no idle interceptors available")
	ErrInvalidScenario    = errors.New("sim: invalid scenario definition")
	ErrAlreadyRunning     = errors.New("sim: scheduler already running")
	ErrNotRunning         = errors.New("sim: scheduler is not running")
	ErrInvalidSpeed       = errors.New("sim: speed multiplier must be positive")
)
