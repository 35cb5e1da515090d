package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "f1replay.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	t.Setenv(PathEnv, "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg, Defaults()) {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestFileThenEnvironment(t *testing.T) {
	t.Setenv(PathEnv, writeFile(t, `
listen_addr: ":9000"
replay_ttl: 10m
cache_db: /tmp/cache.db
race_years: [2024]
mock: true
log_level: debug
`))
	t.Setenv(EnvPrefix+"LISTEN_ADDR", ":9100")
	t.Setenv(EnvPrefix+"MOCK_SEED", "42")
	t.Setenv(EnvPrefix+"RACE_YEARS", "2025,2024")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenAddr != ":9100" {
		t.Errorf("environment should win over the file, got %q", cfg.ListenAddr)
	}
	if cfg.ReplayTTL != 10*time.Minute || cfg.CacheDB != "/tmp/cache.db" || !cfg.Mock {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.MockSeed != 42 {
		t.Errorf("expected seed 42, got %d", cfg.MockSeed)
	}
	if !reflect.DeepEqual(cfg.RaceYears, []int{2025, 2024}) {
		t.Errorf("unexpected race years %v", cfg.RaceYears)
	}
	if cfg.ResponseTTL != Defaults().ResponseTTL {
		t.Errorf("unset keys should keep their defaults, got %s", cfg.ResponseTTL)
	}
	if l, _ := cfg.Level(); l != slog.LevelDebug {
		t.Errorf("expected debug level, got %s", l)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "missing file", env: map[string]string{PathEnv: filepath.Join(os.TempDir(), "does-not-exist.yaml")}},
		{name: "bad yaml", file: "listen_addr: [unclosed"},
		{name: "bad duration", env: map[string]string{EnvPrefix + "REPLAY_TTL": "soon"}},
		{name: "zero ttl", env: map[string]string{EnvPrefix + "RESPONSE_TTL": "0s"}},
		{name: "empty address", file: `listen_addr: " "`},
		{name: "bad level", env: map[string]string{EnvPrefix + "LOG_LEVEL": "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(PathEnv, "")
			if tt.file != "" {
				t.Setenv(PathEnv, writeFile(t, tt.file))
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestValidateMockWithoutBaseURL(t *testing.T) {
	cfg := Defaults()
	cfg.BaseURL = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("the live client needs a base url")
	}
	cfg.Mock = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("mock mode does not need a base url: %v", err)
	}
}
