// Package config provides configuration for roomwatch commands: a YAML
// file with environment-variable overrides for the settings that change
// per deployment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roomwatch/go-roomwatch/pkg/detect"
	"github.com/roomwatch/go-roomwatch/pkg/scan"
	"github.com/roomwatch/go-roomwatch/pkg/watch"
)

// Defaults used when neither the file nor the environment says otherwise.
const (
	DefaultServoHost = "127.0.0.1"
	DefaultWebPort   = "8080"
	DefaultLogLevel  = "info"
)

// Config is the full roomwatch configuration.
type Config struct {
	LogLevel  string `yaml:"log_level"`
	ServoHost string `yaml:"servo_host"`

	Web struct {
		Port string `yaml:"port"`
	} `yaml:"web"`

	Camera struct {
		ID              int     `yaml:"id"`
		Width           float64 `yaml:"width"`
		Height          float64 `yaml:"height"`
		FOVHorizontal   float64 `yaml:"fov_horizontal"`
		FOVVertical     float64 `yaml:"fov_vertical"`
		FrameIntervalMS int     `yaml:"frame_interval_ms"`
	} `yaml:"camera"`

	Models struct {
		Person string `yaml:"person"`
		Face   string `yaml:"face"`
	} `yaml:"models"`

	Scan struct {
		OverlapDegrees      float64 `yaml:"overlap_degrees"`
		SettlingSeconds     float64 `yaml:"settling_seconds"`
		ConfidenceThreshold float64 `yaml:"confidence_threshold"`
		PersistenceFrames   int     `yaml:"persistence_frames"`
		PrimaryMin          float64 `yaml:"primary_min"`
		PrimaryMax          float64 `yaml:"primary_max"`
		FallbackEnabled     *bool   `yaml:"fallback_enabled"`
		ExtremeTimeoutSecs  float64 `yaml:"extreme_timeout_seconds"`
	} `yaml:"scan"`

	Watch struct {
		MaxAdjustment float64 `yaml:"max_adjustment"`
		Deadband      float64 `yaml:"deadband"`
		Damping       float64 `yaml:"damping"`
	} `yaml:"watch"`

	Daemon struct {
		ScanIntervalSecs float64 `yaml:"scan_interval_seconds"`
		WatchTickMS      int     `yaml:"watch_tick_ms"`
	} `yaml:"daemon"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	var c Config
	c.LogLevel = DefaultLogLevel
	c.ServoHost = DefaultServoHost
	c.Web.Port = DefaultWebPort

	c.Camera.Width = 1280
	c.Camera.Height = 720
	c.Camera.FOVHorizontal = 66.3
	c.Camera.FOVVertical = 50.0
	c.Camera.FrameIntervalMS = 100

	c.Models.Person = detect.DefaultYOLOConfig().ModelPath
	c.Models.Face = detect.DefaultFaceConfig().ModelPath

	sc := scan.DefaultConfig()
	c.Scan.OverlapDegrees = sc.OverlapDegrees
	c.Scan.SettlingSeconds = sc.SettlingTime.Seconds()
	c.Scan.ConfidenceThreshold = sc.ConfidenceThreshold
	c.Scan.PersistenceFrames = sc.PersistenceFrames
	c.Scan.PrimaryMin = sc.Primary.Min
	c.Scan.PrimaryMax = sc.Primary.Max
	c.Scan.ExtremeTimeoutSecs = sc.ExtremeTimeout.Seconds()

	wc := watch.DefaultConfig()
	c.Watch.MaxAdjustment = wc.MaxAdjustment
	c.Watch.Deadband = wc.Deadband
	c.Watch.Damping = wc.Damping

	c.Daemon.ScanIntervalSecs = 60
	c.Daemon.WatchTickMS = 100
	return c
}

// Load reads the YAML file at path, applies environment overrides, and
// returns the result. A missing file is not an error: defaults plus
// environment apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv lets the environment override the deployment-specific
// settings without editing the file.
func (c *Config) applyEnv() {
	if host := os.Getenv("SERVO_HOST"); host != "" {
		c.ServoHost = host
	}
	if port := os.Getenv("WEB_PORT"); port != "" {
		c.Web.Port = port
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	if id := os.Getenv("CAMERA_ID"); id != "" {
		if n, err := strconv.Atoi(id); err == nil {
			c.Camera.ID = n
		}
	}
	if path := os.Getenv("PERSON_MODEL"); path != "" {
		c.Models.Person = path
	}
	if path := os.Getenv("FACE_MODEL"); path != "" {
		c.Models.Face = path
	}
}

// ScanConfig builds the scanner configuration.
func (c Config) ScanConfig() scan.Config {
	sc := scan.DefaultConfig()
	sc.FOVDegrees = c.Camera.FOVHorizontal
	sc.VerticalFOV = c.Camera.FOVVertical
	sc.FrameWidth = c.Camera.Width
	sc.FrameHeight = c.Camera.Height
	sc.OverlapDegrees = c.Scan.OverlapDegrees
	sc.SettlingTime = secondsToDuration(c.Scan.SettlingSeconds)
	sc.ConfidenceThreshold = c.Scan.ConfidenceThreshold
	sc.PersistenceFrames = c.Scan.PersistenceFrames
	sc.Primary = scan.Range{Min: c.Scan.PrimaryMin, Max: c.Scan.PrimaryMax}
	if c.Scan.FallbackEnabled != nil {
		sc.FallbackEnabled = *c.Scan.FallbackEnabled
	}
	sc.ExtremeTimeout = secondsToDuration(c.Scan.ExtremeTimeoutSecs)
	return sc
}

// WatchConfig builds the watch controller configuration.
func (c Config) WatchConfig() watch.Config {
	wc := watch.DefaultConfig()
	wc.MaxAdjustment = c.Watch.MaxAdjustment
	wc.Deadband = c.Watch.Deadband
	wc.Damping = c.Watch.Damping
	wc.FrameWidth = c.Camera.Width
	wc.FrameHeight = c.Camera.Height
	wc.FOVDegrees = c.Camera.FOVHorizontal
	wc.VerticalFOVDegrees = c.Camera.FOVVertical
	return wc
}

// PipelineConfig builds the detection pipeline configuration.
func (c Config) PipelineConfig() detect.PipelineConfig {
	pc := detect.DefaultPipelineConfig()
	pc.CameraID = c.Camera.ID
	if c.Camera.FrameIntervalMS > 0 {
		pc.FrameInterval = time.Duration(c.Camera.FrameIntervalMS) * time.Millisecond
	}
	return pc
}

// YOLOConfig builds the person detector configuration.
func (c Config) YOLOConfig() detect.YOLOConfig {
	yc := detect.DefaultYOLOConfig()
	yc.ModelPath = c.Models.Person
	return yc
}

// FaceConfig builds the face detector configuration.
func (c Config) FaceConfig() detect.FaceConfig {
	fc := detect.DefaultFaceConfig()
	fc.ModelPath = c.Models.Face
	return fc
}

// ScanInterval returns how long the daemon idles between scan cycles
// that found nobody.
func (c Config) ScanInterval() time.Duration {
	return secondsToDuration(c.Daemon.ScanIntervalSecs)
}

// WatchTick returns the watch-phase update interval.
func (c Config) WatchTick() time.Duration {
	if c.Daemon.WatchTickMS <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(c.Daemon.WatchTickMS) * time.Millisecond
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
