package sim

import (
	"math"
	"sort"
	"time"
)

// EngagementState is the per-hostile engagement lifecycle.
type EngagementState string

const (
	EngagementIdle      EngagementState = "IDLE"
	EngagementTracking  EngagementState = "TRACKING"
	EngagementPending   EngagementState = "ENGAGE_PENDING"
	EngagementActive    EngagementState = "ENGAGING"
	EngagementCompleted EngagementState = "COMPLETED"
	EngagementAborted   EngagementState = "ABORTED"
)

// EngagementResult is the terminal disposition of an engagement, distinct
// from InterceptResult: it summarizes the whole per-hostile engagement
// rather than a single intercept attempt.
type EngagementResult string

const (
	EngagementResultPending EngagementResult = "PENDING"
	EngagementResultSuccess EngagementResult = "SUCCESS"
	EngagementResultFail    EngagementResult = "FAIL"
	EngagementResultAborted EngagementResult = "ABORTED"
)

// EngagementRecord is the engagement manager's bookkeeping for one hostile.
type EngagementRecord struct {
	HostileID     DroneID
	TrackID       TrackID
	InterceptorID *InterceptorID
	Method        Method
	State         EngagementState
	StartedAt     time.Duration
	LastDecision  time.Duration

	// EngageReason names why an engagement was started (threshold crossing,
	// baseline range/probability roll, operator override).
	EngageReason string
	Result       EngagementResult
	AbortReason  FailureReason

	// FirstDetectAt is set once, the first time this hostile is seen by
	// the engagement manager. ThresholdCrossedAt is set the first time its
	// track clears the FUSION engage threshold.
	FirstDetectAt      time.Duration
	ThresholdCrossedAt time.Duration

	// *AtEngage snapshot the track state at the moment an engagement was
	// started, for after-action reporting.
	ThreatAtEngage    float64
	ExistenceAtEngage float64
	DistanceAtEngage  float64
}

// EngagementDecision is emitted whenever the manager starts or aborts an
// engagement, for the outbound event surface.
type EngagementDecision struct {
	HostileID     DroneID
	InterceptorID InterceptorID
	Method        Method
	Started       bool
	AbortReason   FailureReason
}

// EngagementManager implements : BASELINE/FUSION eligibility, priority
// ordering, throttling, and abort-condition monitoring.
type EngagementManager struct {
	policy     EngagementPolicy
	thresholds EngagementThresholds
	rnd        *RandSource
	records    map[DroneID]*EngagementRecord
	lastEval   time.Duration
	hasEval    bool
}

// NewEngagementManager constructs a manager under the given policy. rnd may
// be nil (the BASELINE per-evaluation probability roll then always
// succeeds), but production callers should always thread the world's
// seeded source so a replay stays reproducible.
func NewEngagementManager(policy EngagementPolicy, thresholds EngagementThresholds, rnd *RandSource) *EngagementManager {
	return &EngagementManager{
		policy:     policy,
		thresholds: thresholds,
		rnd:        rnd,
		records:    make(map[DroneID]*EngagementRecord),
	}
}

// Records returns the current per-hostile engagement bookkeeping.
func (m *EngagementManager) Records() map[DroneID]*EngagementRecord {
	return m.records
}

// Reset clears all engagement state.
func (m *EngagementManager) Reset() {
	m.records = make(map[DroneID]*EngagementRecord)
	m.hasEval = false
}

func (m *EngagementManager) recordFor(hostileID DroneID, now time.Duration) *EngagementRecord {
	r, ok := m.records[hostileID]
	if !ok {
		r = &EngagementRecord{HostileID: hostileID, State: EngagementIdle, FirstDetectAt: now, Result: EngagementResultPending}
		m.records[hostileID] = r
	}
	return r
}

// candidate is an eligible hostile/track pair scored for priority ordering.
// Ties in priority break by shorter distance, then by approaching vehicles
// first (spec's FUSION priority tiebreakers).
type candidate struct {
	hostileID   DroneID
	track       *FusedTrack
	priority    float64
	distance    float64
	approaching bool
}

// Evaluate runs one engagement-decision pass if EvalInterval has elapsed,
// launching interceptors for newly eligible hostiles up to MaxConcurrent,
// honoring MinDecisionInterval per hostile. It returns the decisions made
// this pass (empty if throttled or nothing eligible).
func (m *EngagementManager) Evaluate(
	now time.Duration,
	tracks map[TrackID]*FusedTrack,
	hostiles map[DroneID]*HostileVehicle,
	interceptors map[InterceptorID]*InterceptorVehicle,
	basePos Position3D,
) []EngagementDecision {
	if m.hasEval && now-m.lastEval < m.thresholds.EvalInterval {
		return nil
	}
	m.hasEval = true
	m.lastEval = now

	var decisions []EngagementDecision

	active := m.activeCount()
	if active >= m.thresholds.MaxConcurrent {
		return decisions
	}

	candidates := m.eligibleCandidates(now, tracks, basePos)
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].priority != candidates[j].priority {
			return candidates[i].priority > candidates[j].priority
		}
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].approaching && !candidates[j].approaching
	})

	idle := idleInterceptors(interceptors)
	idx := 0
	for _, c := range candidates {
		if active >= m.thresholds.MaxConcurrent || idx >= len(idle) {
			break
		}
		rec := m.recordFor(c.hostileID, now)
		if rec.State == EngagementActive || rec.State == EngagementPending {
			continue
		}
		if rec.LastDecision != 0 && now-rec.LastDecision < m.thresholds.MinDecisionInterval {
			continue
		}

		h, ok := hostiles[c.hostileID]
		if !ok || h.IsNeutralized {
			continue
		}

		method := recommendedMethod(h)
		interceptor := idle[idx]
		idx++
		interceptor.Launch(c.hostileID, method, now)

		rec.TrackID = c.track.ID
		rec.InterceptorID = &interceptor.ID
		rec.Method = method
		rec.State = EngagementActive
		rec.StartedAt = now
		rec.LastDecision = now
		rec.Result = EngagementResultPending
		if m.policy == PolicyFusion {
			rec.EngageReason = "threat_score_threshold"
		} else {
			rec.EngageReason = "baseline_range_probability"
		}
		rec.ThreatAtEngage = c.track.ThreatScore
		rec.ExistenceAtEngage = c.track.ExistenceProb
		rec.DistanceAtEngage = c.distance
		active++

		decisions = append(decisions, EngagementDecision{
			HostileID:     c.hostileID,
			InterceptorID: interceptor.ID,
			Method:        method,
			Started:       true,
		})
	}

	return decisions
}

// StartEngagement registers an operator-driven engagement (bypassing the
// normal eligibility filter), overwriting any prior record for the hostile.
// track may be nil (no fused track yet); callers are responsible for
// actually launching the interceptor.
func (m *EngagementManager) StartEngagement(trackID TrackID, hostileID DroneID, interceptorID InterceptorID, method Method, now time.Duration, basePos Position3D, track *FusedTrack) {
	rec := m.recordFor(hostileID, now)
	rec.TrackID = trackID
	rec.InterceptorID = &interceptorID
	rec.Method = method
	rec.EngageReason = "operator_override"
	rec.Result = EngagementResultPending
	rec.State = EngagementActive
	rec.StartedAt = now
	rec.LastDecision = now
	if track != nil {
		rec.ThreatAtEngage = track.ThreatScore
		rec.ExistenceAtEngage = track.ExistenceProb
		rec.DistanceAtEngage = basePos.Distance2D(track.Position)
	}
}

func (m *EngagementManager) activeCount() int {
	n := 0
	for _, r := range m.records {
		if r.State == EngagementActive || r.State == EngagementPending {
			n++
		}
	}
	return n
}

func idleInterceptors(interceptors map[InterceptorID]*InterceptorVehicle) []*InterceptorVehicle {
	var out []*InterceptorVehicle
	for _, in := range interceptors {
		if in.State == StateIdle {
			out = append(out, in)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

// recommendedMethod picks the intercept method: the hostile's extended
// attribute recommendation if present, falling back to GUN (the widest
// engagement envelope in MethodTable).
func recommendedMethod(h *HostileVehicle) Method {
	if h.Attributes != nil && h.Attributes.RecommendedMethod != MethodNone {
		return h.Attributes.RecommendedMethod
	}
	return MethodGun
}

// isApproaching reports whether t's velocity has a net closing component
// toward basePos.
func isApproaching(t *FusedTrack, basePos Position3D) bool {
	toBase := basePos.Sub(t.Position)
	rng := math.Hypot(toBase.X, toBase.Y)
	if rng < 1e-6 {
		return true
	}
	closing := t.Velocity.X*toBase.X + t.Velocity.Y*toBase.Y
	return closing > 0
}

func (m *EngagementManager) eligibleCandidates(now time.Duration, tracks map[TrackID]*FusedTrack, basePos Position3D) []candidate {
	var out []candidate
	for _, t := range tracks {
		if t.HostileID == nil || t.IsNeutralized {
			continue
		}
		rng := basePos.Distance2D(t.Position)
		approaching := isApproaching(t, basePos)

		switch m.policy {
		case PolicyBaseline:
			if rng > m.thresholds.BaselineEngageDist {
				continue
			}
			if m.rnd != nil && !m.rnd.Bool(m.thresholds.BaselineEngageProb) {
				continue
			}
			out = append(out, candidate{hostileID: *t.HostileID, track: t, priority: -rng, distance: rng, approaching: approaching})
		case PolicyFusion:
			if t.ExistenceProb < m.thresholds.ExistProbEngage {
				continue
			}
			if t.ThreatScore < m.thresholds.ThreatEngage {
				continue
			}
			if rng > m.thresholds.MaxEngageRange {
				continue
			}
			if t.Class.Classification == LabelCivil && t.Class.Confidence >= m.thresholds.CivilExcludeConf {
				continue
			}
			if t.Class.Classification == LabelFriendly {
				continue
			}
			rec := m.recordFor(*t.HostileID, now)
			if rec.ThresholdCrossedAt == 0 {
				rec.ThresholdCrossedAt = now
			}
			out = append(out, candidate{hostileID: *t.HostileID, track: t, priority: t.ThreatScore, distance: rng, approaching: approaching})
		}
	}
	return out
}

// CheckAborts scans active engagements for abort conditions and
// returns the abort decisions made; callers are responsible for applying
// them to the corresponding InterceptorVehicle via AbortInterceptor.
func (m *EngagementManager) CheckAborts(tracks map[TrackID]*FusedTrack, hostiles map[DroneID]*HostileVehicle, basePos Position3D) []EngagementDecision {
	var decisions []EngagementDecision
	for hostileID, rec := range m.records {
		if rec.State != EngagementActive || rec.InterceptorID == nil {
			continue
		}

		h, ok := hostiles[hostileID]
		if !ok || h.IsNeutralized {
			rec.State = EngagementCompleted
			rec.Result = EngagementResultSuccess
			continue
		}

		if m.policy == PolicyFusion {
			t, found := tracks[rec.TrackID]
			if !found {
				decisions = append(decisions, m.abort(rec, FailureTargetLost))
				continue
			}
			if t.ExistenceProb < m.thresholds.ExistProbAbort {
				decisions = append(decisions, m.abort(rec, FailureTargetLost))
				continue
			}
			if t.ThreatScore < m.thresholds.ThreatAbort {
				decisions = append(decisions, m.abort(rec, FailureTargetLost))
				continue
			}
			if t.Class.Classification == LabelCivil && t.Class.Confidence >= m.thresholds.CivilExcludeConf {
				decisions = append(decisions, m.abort(rec, FailureTargetLost))
				continue
			}
			if basePos.Distance2D(t.Position) > 1.5*m.thresholds.MaxEngageRange {
				decisions = append(decisions, m.abort(rec, FailureTargetLost))
				continue
			}
		}
	}
	return decisions
}

func (m *EngagementManager) abort(rec *EngagementRecord, reason FailureReason) EngagementDecision {
	d := EngagementDecision{HostileID: rec.HostileID, Method: rec.Method, Started: false, AbortReason: reason}
	if rec.InterceptorID != nil {
		d.InterceptorID = *rec.InterceptorID
	}
	rec.State = EngagementAborted
	rec.AbortReason = reason
	rec.Result = EngagementResultAborted
	rec.InterceptorID = nil
	return d
}

// CompleteEngagement records an interceptor's terminal outcome against the
// engagement it was performing, called by the scheduler after
// UpdateInterceptor returns an outcome.
func (m *EngagementManager) CompleteEngagement(outcome *InterceptOutcome) {
	rec, ok := m.records[outcome.TargetID]
	if !ok {
		return
	}
	switch outcome.Result {
	case ResultSuccess:
		rec.State = EngagementCompleted
		rec.Result = EngagementResultSuccess
	case ResultMiss, ResultEvaded:
		rec.State = EngagementTracking
		rec.InterceptorID = nil
		rec.Result = EngagementResultFail
	case ResultAborted:
		rec.State = EngagementAborted
		rec.AbortReason = outcome.Reason
		rec.InterceptorID = nil
		rec.Result = EngagementResultAborted
	}
}

// AbortInterceptor forces an interceptor back to RETURNING, used by the
// scheduler to apply an EngagementManager abort decision.
func AbortInterceptor(in *InterceptorVehicle, reason FailureReason) *InterceptOutcome {
	if in.State == StateIdle || in.State == StateReturning || in.State == StateNeutralized {
		return nil
	}
	return abortToReturning(in, reason)
}
