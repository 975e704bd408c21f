package config

import "testing"

func TestGetDefaults(t *testing.T) {
	cfg := GetDefaults()

	if err := validateConfig(cfg); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}

	if cfg.Anomaly.ZScoreThreshold != 3 {
		t.Errorf("expected default z-score threshold 3, got %g", cfg.Anomaly.ZScoreThreshold)
	}
	if cfg.Anomaly.Forest.Contamination != 0.1 {
		t.Errorf("expected default contamination 0.1, got %g", cfg.Anomaly.Forest.Contamination)
	}
	if cfg.Drift.Threshold != 0.2 {
		t.Errorf("expected default drift threshold 0.2, got %g", cfg.Drift.Threshold)
	}
	if cfg.Drift.WindowDays != 7 {
		t.Errorf("expected default drift window 7 days, got %d", cfg.Drift.WindowDays)
	}
	if cfg.Trust.ReportPeriodDays != 30 {
		t.Errorf("expected default report period 30 days, got %d", cfg.Trust.ReportPeriodDays)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"zero z-score threshold", func(c *Config) { c.Anomaly.ZScoreThreshold = 0 }},
		{"negative contamination", func(c *Config) { c.Anomaly.Forest.Contamination = -0.1 }},
		{"contamination too high", func(c *Config) { c.Anomaly.Forest.Contamination = 0.5 }},
		{"zero drift threshold", func(c *Config) { c.Drift.Threshold = 0 }},
		{"zero drift window", func(c *Config) { c.Drift.WindowDays = 0 }},
		{"zero batch size", func(c *Config) { c.Ingest.BatchSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaults()
			tt.mutate(cfg)
			if err := validateConfig(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
