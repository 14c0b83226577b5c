package kconfig

import (
	"testing"

	"github.com/skyguard/ccuas-sim/internal/sim"
)

func TestToWorldConfigMapsSeedAndBase(t *testing.T) {
	cfg := Default()
	base := sim.Position3D{X: 1, Y: 2, Z: 3}
	wc := cfg.ToWorldConfig(42, base)

	if wc.Seed != 42 {
		t.Errorf("Seed = %v, want 42", wc.Seed)
	}
	if wc.BasePosition != base {
		t.Errorf("BasePosition = %+v, want %+v", wc.BasePosition, base)
	}
	if wc.Policy != sim.PolicyFusion {
		t.Errorf("Policy = %v, want FUSION (Default's engagement policy)", wc.Policy)
	}
}

func TestToWorldConfigMapsThresholdsAndFusion(t *testing.T) {
	cfg := Default()
	cfg.Engagement.ThreatEngage = 88
	cfg.Fusion.DropTimeout = 7_000_000_000 // 7s in nanoseconds

	wc := cfg.ToWorldConfig(1, sim.Position3D{})

	if wc.Thresholds.ThreatEngage != 88 {
		t.Errorf("Thresholds.ThreatEngage = %v, want 88", wc.Thresholds.ThreatEngage)
	}
	if wc.Fusion.DropTimeout != cfg.Fusion.DropTimeout {
		t.Errorf("Fusion.DropTimeout = %v, want %v", wc.Fusion.DropTimeout, cfg.Fusion.DropTimeout)
	}
}

func TestToWorldConfigMapsPlaybackTuning(t *testing.T) {
	cfg := Default()
	wc := cfg.ToWorldConfig(1, sim.Position3D{})

	if wc.TickInterval != cfg.Playback.TickInterval {
		t.Errorf("TickInterval = %v, want %v", wc.TickInterval, cfg.Playback.TickInterval)
	}
	if wc.BusBatchSize != cfg.Playback.BusBatchSize {
		t.Errorf("BusBatchSize = %v, want %v", wc.BusBatchSize, cfg.Playback.BusBatchSize)
	}
}

func TestToWorldConfigPropagatesUseEKF(t *testing.T) {
	cfg := Default()
	cfg.Fusion.UseEKF = true
	wc := cfg.ToWorldConfig(1, sim.Position3D{})
	if !wc.UseEKF {
		t.Error("UseEKF not propagated into WorldConfig")
	}
}
