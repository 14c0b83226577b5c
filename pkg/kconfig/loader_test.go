package kconfig

import (
	"os"
	"path/filepath"
	"testing"
)

const fixtureYAML = `
engagement:
  policy: BASELINE
  threat_engage: 55
fusion:
  existence_min: 0.1
  existence_max: 0.9
sensors:
  radar_max_range: 2000
`

func writeConfigFixture(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kconfig.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config fixture: %v", err)
	}
	return path
}

func TestLoadWithNoPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") = %v", err)
	}
	if cfg.Engagement.Policy != Default().Engagement.Policy {
		t.Errorf("Load(\"\") policy = %q, want default %q", cfg.Engagement.Policy, Default().Engagement.Policy)
	}
}

func TestLoadParsesYAMLOverrides(t *testing.T) {
	path := writeConfigFixture(t, fixtureYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engagement.Policy != "BASELINE" {
		t.Errorf("Policy = %q, want BASELINE", cfg.Engagement.Policy)
	}
	if cfg.Engagement.ThreatEngage != 55 {
		t.Errorf("ThreatEngage = %v, want 55", cfg.Engagement.ThreatEngage)
	}
	if cfg.Sensors.RadarMaxRange != 2000 {
		t.Errorf("RadarMaxRange = %v, want 2000", cfg.Sensors.RadarMaxRange)
	}
	// Fields the fixture doesn't mention should retain their defaults.
	if cfg.Playback.BusBatchSize != Default().Playback.BusBatchSize {
		t.Errorf("BusBatchSize = %v, want default %v", cfg.Playback.BusBatchSize, Default().Playback.BusBatchSize)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load on a missing file returned nil error")
	}
}

func TestLoadRejectsInvalidResult(t *testing.T) {
	path := writeConfigFixture(t, "engagement:\n  policy: NOT_A_POLICY\n")
	if _, err := Load(path); err == nil {
		t.Error("Load did not validate the parsed config")
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("KCONFIG_ENGAGEMENT_POLICY", "BASELINE")
	t.Setenv("KCONFIG_ENGAGEMENT_MAX_CONCURRENT", "7")
	t.Setenv("KCONFIG_FUSION_USE_EKF", "true")
	t.Setenv("KCONFIG_SENSORS_RADAR_MAX_RANGE", "3000")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engagement.Policy != "BASELINE" {
		t.Errorf("Policy = %q, want BASELINE from env override", cfg.Engagement.Policy)
	}
	if cfg.Engagement.MaxConcurrent != 7 {
		t.Errorf("MaxConcurrent = %v, want 7 from env override", cfg.Engagement.MaxConcurrent)
	}
	if !cfg.Fusion.UseEKF {
		t.Error("UseEKF = false, want true from env override")
	}
	if cfg.Sensors.RadarMaxRange != 3000 {
		t.Errorf("RadarMaxRange = %v, want 3000 from env override", cfg.Sensors.RadarMaxRange)
	}
}

func TestLoadEnvOverridesTakePrecedenceOverYAML(t *testing.T) {
	path := writeConfigFixture(t, fixtureYAML)
	t.Setenv("KCONFIG_ENGAGEMENT_THREAT_ENGAGE", "99")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engagement.ThreatEngage != 99 {
		t.Errorf("ThreatEngage = %v, want 99 (env should win over YAML's 55)", cfg.Engagement.ThreatEngage)
	}
}
