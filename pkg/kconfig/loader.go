package kconfig

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads KernelConfig from path (if non-empty) falling back to the
// built-in defaults, then applies KCONFIG_*-prefixed environment variable
// overrides via viper. A .env file in the working directory, if present,
// is loaded first so its values participate in the override.
func Load(path string) (*KernelConfig, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("kconfig: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("kconfig: parsing %s: %w", path, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix("KCONFIG")
	v.AutomaticEnv()

	applyStringOverride(v, "LOGGING_CONSOLE_LEVEL", &cfg.Logging.ConsoleLevel)
	applyStringOverride(v, "ENGAGEMENT_POLICY", &cfg.Engagement.Policy)
	applyFloatOverride(v, "ENGAGEMENT_THREAT_ENGAGE", &cfg.Engagement.ThreatEngage)
	applyFloatOverride(v, "ENGAGEMENT_EXIST_PROB_ENGAGE", &cfg.Engagement.ExistProbEngage)
	applyFloatOverride(v, "ENGAGEMENT_MAX_RANGE", &cfg.Engagement.MaxEngageRange)
	applyIntOverride(v, "ENGAGEMENT_MAX_CONCURRENT", &cfg.Engagement.MaxConcurrent)
	applyBoolOverride(v, "FUSION_USE_EKF", &cfg.Fusion.UseEKF)
	applyFloatOverride(v, "SENSORS_RADAR_MAX_RANGE", &cfg.Sensors.RadarMaxRange)
	applyFloatOverride(v, "SENSORS_EO_MAX_RANGE", &cfg.Sensors.EOMaxRange)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyStringOverride(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}

func applyFloatOverride(v *viper.Viper, key string, dst *float64) {
	if v.IsSet(key) {
		*dst = v.GetFloat64(key)
	}
}

func applyIntOverride(v *viper.Viper, key string, dst *int) {
	if v.IsSet(key) {
		*dst = v.GetInt(key)
	}
}

func applyBoolOverride(v *viper.Viper, key string, dst *bool) {
	if v.IsSet(key) {
		*dst = v.GetBool(key)
	}
}

// Validate checks the engagement policy field and a handful of range
// invariants that would otherwise silently produce a non-functional world.
func (c *KernelConfig) Validate() error {
	if c.Engagement.Policy != "BASELINE" && c.Engagement.Policy != "FUSION" {
		return fmt.Errorf("kconfig: engagement.policy must be BASELINE or FUSION, got %q", c.Engagement.Policy)
	}
	if c.Fusion.ExistenceMin < 0 || c.Fusion.ExistenceMax > 1 || c.Fusion.ExistenceMin >= c.Fusion.ExistenceMax {
		return fmt.Errorf("kconfig: fusion.existence_min/max must satisfy 0 <= min < max <= 1")
	}
	if c.Engagement.MaxConcurrent <= 0 {
		return fmt.Errorf("kconfig: engagement.max_concurrent_engagements must be positive")
	}
	return nil
}
