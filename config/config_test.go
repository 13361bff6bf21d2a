package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Auth:   AuthConfig{JWTSecret: "a-long-enough-secret-key"},
		Defense: DefenseConfig{
			MaxPresidenciesPerDay:  4,
			DefaultDurationMinutes: 30,
			Timezone:               "UTC",
		},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"empty secret", func(c *Config) { c.Auth.JWTSecret = "" }, "jwt_secret"},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, "at least 16"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"zero quota", func(c *Config) { c.Defense.MaxPresidenciesPerDay = 0 }, "max_presidencies_per_day"},
		{"zero duration", func(c *Config) { c.Defense.DefaultDurationMinutes = 0 }, "default_duration_minutes"},
		{"bad timezone", func(c *Config) { c.Defense.Timezone = "Mars/Olympus" }, "defense.timezone"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(c)
			err := c.Validate()
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PFE_AUTH_JWT_SECRET", "env-provided-secret-value")
	t.Setenv("PFE_DEFENSE_MAX_PRESIDENCIES_PER_DAY", "3")
	t.Setenv("PFE_DEFENSE_TIMEZONE", "UTC")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Auth.JWTSecret != "env-provided-secret-value" {
		t.Errorf("expected secret from env, got %q", cfg.Auth.JWTSecret)
	}
	if cfg.Defense.MaxPresidenciesPerDay != 3 {
		t.Errorf("expected quota 3, got %d", cfg.Defense.MaxPresidenciesPerDay)
	}
	if cfg.Defense.DefaultDurationMinutes != 30 {
		t.Errorf("expected default duration 30, got %d", cfg.Defense.DefaultDurationMinutes)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
}
