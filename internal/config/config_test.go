package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServoHost != DefaultServoHost {
		t.Errorf("servo host = %q, want %q", cfg.ServoHost, DefaultServoHost)
	}
	if cfg.Camera.FOVHorizontal != 66.3 {
		t.Errorf("horizontal FOV = %v, want 66.3", cfg.Camera.FOVHorizontal)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roomwatch.yaml")
	data := []byte(`
servo_host: 192.168.1.40
scan:
  overlap_degrees: 15
  settling_seconds: 0.5
  confidence_threshold: 0.5
  persistence_frames: 3
  primary_min: 30
  primary_max: 150
  fallback_enabled: false
  extreme_timeout_seconds: 30
watch:
  max_adjustment: 3
  deadband: 1
  damping: 0.3
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServoHost != "192.168.1.40" {
		t.Errorf("servo host = %q, want 192.168.1.40", cfg.ServoHost)
	}

	sc := cfg.ScanConfig()
	if sc.OverlapDegrees != 15 {
		t.Errorf("overlap = %v, want 15", sc.OverlapDegrees)
	}
	if sc.SettlingTime != 500*time.Millisecond {
		t.Errorf("settling = %v, want 500ms", sc.SettlingTime)
	}
	if sc.Primary.Min != 30 || sc.Primary.Max != 150 {
		t.Errorf("primary range = %+v, want [30, 150]", sc.Primary)
	}
	if sc.FallbackEnabled {
		t.Error("fallback should be disabled")
	}
	if err := sc.Validate(); err != nil {
		t.Errorf("loaded scan config invalid: %v", err)
	}

	wc := cfg.WatchConfig()
	if wc.MaxAdjustment != 3 {
		t.Errorf("max adjustment = %v, want 3", wc.MaxAdjustment)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roomwatch.yaml")
	if err := os.WriteFile(path, []byte("servo_host: from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SERVO_HOST", "from-env")
	t.Setenv("CAMERA_ID", "2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServoHost != "from-env" {
		t.Errorf("servo host = %q, want from-env", cfg.ServoHost)
	}
	if cfg.Camera.ID != 2 {
		t.Errorf("camera id = %d, want 2", cfg.Camera.ID)
	}
}

func TestFallbackDefaultsOnWhenUnset(t *testing.T) {
	cfg := Default()
	if !cfg.ScanConfig().FallbackEnabled {
		t.Error("fallback scanning should default to enabled")
	}
}
