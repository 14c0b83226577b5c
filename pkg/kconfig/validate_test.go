package kconfig

import "testing"

func TestValidateRejectsUnknownPolicy(t *testing.T) {
	cfg := Default()
	cfg.Engagement.Policy = "AGGRESSIVE"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate accepted an unrecognized policy")
	}
}

func TestValidateRejectsInvertedExistenceBounds(t *testing.T) {
	cases := []struct {
		name       string
		min, max   float64
	}{
		{"min above max", 0.9, 0.1},
		{"min equal max", 0.5, 0.5},
		{"min negative", -0.1, 0.9},
		{"max above one", 0.1, 1.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.Fusion.ExistenceMin = tc.min
			cfg.Fusion.ExistenceMax = tc.max
			if err := cfg.Validate(); err == nil {
				t.Errorf("Validate accepted ExistenceMin=%v ExistenceMax=%v", tc.min, tc.max)
			}
		})
	}
}

func TestValidateRejectsNonPositiveMaxConcurrent(t *testing.T) {
	cfg := Default()
	cfg.Engagement.MaxConcurrent = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate accepted MaxConcurrent=0")
	}
}
