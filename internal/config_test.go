package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/sislog/pkg/config"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
}

func TestUserConfig_InvalidRole(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.User.Role = "producer"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("unknown role should fail validation")
	}
	if !strings.Contains(err.Error(), "user") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestUserConfig_MissingID(t *testing.T) {
	cfg := UserConfig{Role: "admin"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing id should fail validation")
	}
}

func TestUserConfig_User(t *testing.T) {
	cfg := UserConfig{ID: "u1", Name: "Ana", Role: "viewer"}
	u := cfg.User()
	if u.ID != "u1" || u.CanEdit() {
		t.Errorf("user = %+v, CanEdit = %v", u, u.CanEdit())
	}
}

func TestClockConfig(t *testing.T) {
	cases := []struct {
		name    string
		cfg     ClockConfig
		wantErr bool
	}{
		{"default", ClockConfig{TickInterval: 33 * time.Millisecond}, false},
		{"zero tick", ClockConfig{}, true},
		{"slow tick", ClockConfig{TickInterval: 2 * time.Second}, true},
		{"named zone", ClockConfig{TickInterval: 33 * time.Millisecond, Timezone: "UTC"}, false},
		{"bad zone", ClockConfig{TickInterval: 33 * time.Millisecond, Timezone: "Mars/Olympus"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestStoreConfig_PathRequired(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Store.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty store path should fail validation")
	}
}

func TestHTTPConfig_Port(t *testing.T) {
	cfg := HTTPConfig{Port: 70000}
	if err := cfg.Validate(); err == nil {
		t.Fatal("out of range port should fail validation")
	}
	if got := (&HTTPConfig{Port: 9090}).Address(); got != ":9090" {
		t.Errorf("Address() = %q", got)
	}
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("SISLOG_TEST_DB", "/tmp/from-env.db")
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
app:
  log_level: debug
  http:
    port: 9000
store:
  path: ${SISLOG_TEST_DB}
  watch: false
  watch_debounce: 250ms
settings:
  path: ./s.yaml
clock:
  tick_interval: 40ms
  timezone: UTC
user:
  id: u7
  role: admin
sse:
  timecode_throttle: 1s
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Path != "/tmp/from-env.db" || cfg.Store.Watch || cfg.Store.WatchDebounce != 250*time.Millisecond {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Clock.TickInterval != 40*time.Millisecond || cfg.SSE.TimecodeThrottle != time.Second {
		t.Errorf("clock = %+v, sse = %+v", cfg.Clock, cfg.SSE)
	}
	if cfg.App.HTTP.Port != 9000 || cfg.User.ID != "u7" {
		t.Errorf("app = %+v, user = %+v", cfg.App, cfg.User)
	}
}
