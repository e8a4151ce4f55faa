package config

import (
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		shouldSet bool
		wantPanic bool
	}{
		{
			name:      "variable set",
			key:       "TEST_VAR",
			value:     "test_value",
			shouldSet: true,
			wantPanic: false,
		},
		{
			name:      "variable not set",
			key:       "TEST_VAR_MISSING",
			shouldSet: false,
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.value)
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv(tt.key)
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONSUL_ADDR", "127.0.0.1:8500")

	cfg := Load()

	if cfg.ConsulAddr != "127.0.0.1:8500" {
		t.Errorf("ConsulAddr = %q", cfg.ConsulAddr)
	}
	if cfg.ConsulScheme != "http" {
		t.Errorf("ConsulScheme = %q, want http", cfg.ConsulScheme)
	}
	if cfg.AppSpecFile != "appspec.yml" {
		t.Errorf("AppSpecFile = %q, want appspec.yml", cfg.AppSpecFile)
	}
	if cfg.CheckInterval != 10*time.Second || cfg.CheckTimeout != 5*time.Second {
		t.Errorf("check policy = %v/%v, want 10s/5s", cfg.CheckInterval, cfg.CheckTimeout)
	}
	if cfg.RegistrationConcurrency != 4 {
		t.Errorf("RegistrationConcurrency = %d, want 4", cfg.RegistrationConcurrency)
	}
	if cfg.JournalEnabled() {
		t.Error("journal should be disabled without AGENT_REDIS_ADDR")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CONSUL_ADDR", "consul.service:8501")
	t.Setenv("CONSUL_SCHEME", "https")
	t.Setenv("AGENT_CHECK_INTERVAL", "30s")
	t.Setenv("AGENT_REGISTRATION_CONCURRENCY", "8")
	t.Setenv("AGENT_REDIS_ADDR", "localhost:6379")
	t.Setenv("AGENT_ALLOWED_CIDRS", "127.0.0.1, '10.0.0.0/8'")

	cfg := Load()

	if cfg.ConsulScheme != "https" {
		t.Errorf("ConsulScheme = %q, want https", cfg.ConsulScheme)
	}
	if cfg.CheckInterval != 30*time.Second {
		t.Errorf("CheckInterval = %v, want 30s", cfg.CheckInterval)
	}
	if cfg.RegistrationConcurrency != 8 {
		t.Errorf("RegistrationConcurrency = %d, want 8", cfg.RegistrationConcurrency)
	}
	if !cfg.JournalEnabled() {
		t.Error("journal should be enabled with AGENT_REDIS_ADDR")
	}
	if len(cfg.AllowedCIDRS) != 2 || cfg.AllowedCIDRS[1] != "10.0.0.0/8" {
		t.Errorf("AllowedCIDRS = %v", cfg.AllowedCIDRS)
	}
}

func TestLoadPanics(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing consul address", env: map[string]string{"CONSUL_ADDR": ""}},
		{name: "invalid scheme", env: map[string]string{"CONSUL_ADDR": "127.0.0.1:8500", "CONSUL_SCHEME": "grpc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("Load() should have panicked")
				}
			}()
			Load()
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := &Config{ConsulToken: "secret-token", RedisPassword: "hunter2", RedisUser: "agent"}
	red := cfg.Redacted()

	if red.ConsulToken == "secret-token" || red.RedisPassword == "hunter2" || red.RedisUser == "agent" {
		t.Errorf("Redacted() leaked secrets: %+v", red)
	}
	if cfg.ConsulToken != "secret-token" {
		t.Error("Redacted() must not modify the original config")
	}

	empty := (&Config{}).Redacted()
	if empty.ConsulToken != "" {
		t.Error("Redacted() should keep empty secrets empty")
	}
}

func TestGetenvInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_INT_INVALID", "many")

	if got := getenvInt("TEST_INT", 1); got != 42 {
		t.Errorf("getenvInt() = %d, want 42", got)
	}
	if got := getenvInt("TEST_INT_INVALID", 7); got != 7 {
		t.Errorf("getenvInt() with invalid value = %d, want default 7", got)
	}
	if got := getenvInt("TEST_INT_MISSING", 3); got != 3 {
		t.Errorf("getenvInt() with missing value = %d, want default 3", got)
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{name: "true value", key: "TEST_BOOL", value: "true", def: false, expected: true},
		{name: "false value", key: "TEST_BOOL_FALSE", value: "false", def: true, expected: false},
		{name: "invalid value uses default", key: "TEST_BOOL_INVALID", value: "invalid", def: true, expected: true},
		{name: "missing variable uses default", key: "TEST_BOOL_MISSING", value: "", def: false, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			result := mustBool(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}
