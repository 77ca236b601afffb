package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	t.Setenv("SALON_API_KEY", "secret")

	yamlContent := `
upstream:
  base_url: "https://salon.example.com"
  api_key: "${SALON_API_KEY}"
  timeout: 5s
schedule:
  start: "10:00"
  end: "20:00"
  slot_minutes: 15
verification:
  otp_ttl: 2m
telegram:
  manager_chat_ids: [101, 202]
api:
  auth:
    api_keys:
      - key: "admin-key"
        name: "dashboard"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	// No .env in the package dir; Load must not fail on it.
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Upstream.APIKey != "secret" {
		t.Errorf("expected api key from env, got %q", cfg.Upstream.APIKey)
	}
	if cfg.Upstream.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %s", cfg.Upstream.Timeout)
	}
	if cfg.Schedule.SlotMinutes != 15 || cfg.Schedule.Start != "10:00" {
		t.Errorf("unexpected schedule %+v", cfg.Schedule)
	}
	if cfg.Verification.OTPTTL != 2*time.Minute {
		t.Errorf("expected otp ttl 2m, got %s", cfg.Verification.OTPTTL)
	}
	if len(cfg.Telegram.ManagerChatIDs) != 2 {
		t.Errorf("expected 2 manager chats, got %d", len(cfg.Telegram.ManagerChatIDs))
	}
	if len(cfg.API.Auth.APIKeys) != 1 || cfg.API.Auth.APIKeys[0].Name != "dashboard" {
		t.Errorf("unexpected api keys %+v", cfg.API.Auth.APIKeys)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := Parse([]byte("upstream:\n  base_url: http://localhost:3000\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.Schedule.Timezone != "Europe/Istanbul" {
		t.Errorf("timezone default, got %q", cfg.Schedule.Timezone)
	}
	if cfg.Schedule.Start != "11:30" || cfg.Schedule.End != "18:30" || cfg.Schedule.SlotMinutes != 30 {
		t.Errorf("working hours default, got %+v", cfg.Schedule)
	}
	if cfg.Schedule.MonthsCount != 3 {
		t.Errorf("months default, got %d", cfg.Schedule.MonthsCount)
	}
	if cfg.Verification.OTPLength != 4 || cfg.Verification.OTPTTL != 5*time.Minute || cfg.Verification.ResendCooldown != time.Minute {
		t.Errorf("verification defaults, got %+v", cfg.Verification)
	}
	if cfg.Verification.AutoSubmitDelay != 500*time.Millisecond {
		t.Errorf("autosubmit default, got %s", cfg.Verification.AutoSubmitDelay)
	}
	if cfg.Submission.MaxRetries != 3 || cfg.Submission.BaseDelay != time.Second || cfg.Submission.RateLimitDelay != time.Minute {
		t.Errorf("submission defaults, got %+v", cfg.Submission)
	}
	if cfg.Submission.RequestTimeout != 10*time.Second {
		t.Errorf("request timeout default, got %s", cfg.Submission.RequestTimeout)
	}
	if cfg.Session.TTL != 2*time.Hour {
		t.Errorf("session ttl default, got %s", cfg.Session.TTL)
	}
	if cfg.API.HTTP.Port != 8080 || cfg.API.Auth.HeaderAPIKey != "x-api-key" {
		t.Errorf("api defaults, got %+v", cfg.API)
	}
	if cfg.Location().String() != "Europe/Istanbul" {
		t.Errorf("location, got %s", cfg.Location())
	}
	wh := cfg.WorkingHours()
	if wh.Start != "11:30" || wh.SlotMinutes != 30 {
		t.Errorf("working hours, got %+v", wh)
	}
}

func TestValidateConfig(t *testing.T) {
	valid := func() Config {
		c := Config{Upstream: UpstreamConfig{BaseURL: "http://x"}}
		c.applyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}, wantErr: false},
		{name: "missing base url", mutate: func(c *Config) { c.Upstream.BaseURL = " " }, wantErr: true},
		{name: "bad timezone", mutate: func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "bad start", mutate: func(c *Config) { c.Schedule.Start = "25:99" }, wantErr: true},
		{name: "start after end", mutate: func(c *Config) { c.Schedule.Start = "19:00" }, wantErr: true},
		{name: "negative slot", mutate: func(c *Config) { c.Schedule.SlotMinutes = -5 }, wantErr: true},
		{name: "otp too long", mutate: func(c *Config) { c.Verification.OTPLength = 12 }, wantErr: true},
		{name: "negative retries", mutate: func(c *Config) { c.Submission.MaxRetries = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
