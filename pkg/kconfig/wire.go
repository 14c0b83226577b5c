package kconfig

import "github.com/skyguard/ccuas-sim/internal/sim"

// ToWorldConfig translates the loaded tunables into a sim.WorldConfig
// ready for sim.NewWorld, given a seed and base position that come from
// the scenario file rather than the kernel config.
func (c *KernelConfig) ToWorldConfig(seed int64, base sim.Position3D) sim.WorldConfig {
	wc := sim.DefaultWorldConfig()
	wc.Seed = seed
	wc.BasePosition = base
	wc.Policy = sim.EngagementPolicy(c.Engagement.Policy)
	wc.UseEKF = c.Fusion.UseEKF

	wc.Thresholds = sim.EngagementThresholds{
		ThreatEngage:        c.Engagement.ThreatEngage,
		ExistProbEngage:     c.Engagement.ExistProbEngage,
		MaxEngageRange:      c.Engagement.MaxEngageRange,
		CivilExcludeConf:    c.Engagement.CivilExcludeConf,
		ExistProbAbort:      c.Engagement.ExistProbAbort,
		ThreatAbort:         c.Engagement.ThreatAbort,
		MinDecisionInterval: c.Engagement.MinDecisionInterval,
		MaxConcurrent:       c.Engagement.MaxConcurrent,
		EvalInterval:        c.Engagement.EvalInterval,
		BaselineEngageDist:  c.Engagement.BaselineEngageDist,
		BaselineEngageProb:  c.Engagement.BaselineEngageProb,
	}

	wc.Fusion = sim.FusionConfig{
		AssociationRangeGate:   c.Fusion.AssociationRangeGate,
		AssociationBearingGate: c.Fusion.AssociationBearingGate,
		SensorPositionWeight:   c.Fusion.SensorPositionWeight,
		ExistenceMin:           c.Fusion.ExistenceMin,
		ExistenceMax:           c.Fusion.ExistenceMax,
		ExistenceDecayRate:     c.Fusion.ExistenceDecayRate,
		DropExistenceThreshold: c.Fusion.DropExistenceThreshold,
		DropTimeout:            c.Fusion.DropTimeout,
		MaxHistory:             c.Fusion.MaxHistory,
	}

	wc.TickInterval = c.Playback.TickInterval
	wc.StatusInterval = c.Playback.StatusInterval
	wc.BusBatchSize = c.Playback.BusBatchSize
	wc.BusFlushInterval = c.Playback.BusFlushInterval

	return wc
}
