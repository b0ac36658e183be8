// Package app wires the delicious-food camera: the UI looper, consent
// store, capture helper, label detectors and the dashboard.
package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/teslashibe/go-deliciousfood/internal/config"
	"github.com/teslashibe/go-deliciousfood/pkg/activity"
	"github.com/teslashibe/go-deliciousfood/pkg/camera"
	"github.com/teslashibe/go-deliciousfood/pkg/detection"
)

// Capture sources.
const (
	SourceDevice   = "device"
	SourceSnapshot = "snapshot"
	SourceFile     = "file"
)

// Config holds all configuration for the app.
// Flag parsing is done in cmd/deliciousfood/main.go; this struct is data only.
type Config struct {
	// Addr is the dashboard listen address.
	Addr string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// Detector selects the label backend: "on-device" or "cloud".
	Detector string

	// Capture source.
	Source       string // "device", "snapshot" or "file"
	CameraDevice int    // Device index for SourceDevice
	SnapshotURL  string // Still image URL for SourceSnapshot
	SourceFile   string // Image path for SourceFile

	// On-device classifier.
	ModelPath           string
	LabelsPath          string
	ConfidenceThreshold float64

	// Cloud Vision credentials. Both empty uses application default
	// credentials.
	GoogleCredentials string
	GoogleAPIKey      string

	// PicsDir receives captured pictures.
	PicsDir string

	// ConsentFile persists permission decisions. Empty keeps them in memory.
	ConsentFile string

	// StringsFile overrides user-visible text. Optional.
	StringsFile string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	od := detection.DefaultOnDeviceConfig()
	return Config{
		Addr:                config.DefaultAddr,
		LogLevel:            "info",
		Detector:            string(activity.VariantOnDevice),
		Source:              SourceDevice,
		CameraDevice:        config.DefaultCameraDevice,
		ModelPath:           od.ModelPath,
		LabelsPath:          od.LabelsPath,
		ConfidenceThreshold: od.ConfidenceThreshold,
		PicsDir:             camera.DefaultConfig().Directory,
		ConsentFile:         "consent.json",
	}
}

// LoadEnvConfig applies environment overrides. Call it before flag parsing
// so flags win.
func (c *Config) LoadEnvConfig() {
	c.Addr = config.Addr(c.Addr)
	c.LogLevel = config.String("LOG_LEVEL", c.LogLevel)
	c.Detector = config.String("FOOD_DETECTOR", c.Detector)
	c.Source = config.String("FOOD_SOURCE", c.Source)
	c.CameraDevice = config.CameraDevice(c.CameraDevice)
	c.SnapshotURL = config.String("FOOD_SNAPSHOT_URL", c.SnapshotURL)
	c.SourceFile = config.String("FOOD_SOURCE_FILE", c.SourceFile)
	c.ModelPath = config.String("FOOD_MODEL", c.ModelPath)
	c.LabelsPath = config.String("FOOD_LABELS", c.LabelsPath)
	c.PicsDir = config.String("FOOD_PICS_DIR", c.PicsDir)
	c.ConsentFile = config.String("FOOD_CONSENT_FILE", c.ConsentFile)
	c.StringsFile = config.String("FOOD_STRINGS_FILE", c.StringsFile)
	c.GoogleCredentials = config.GoogleCredentials()
	c.GoogleAPIKey = config.GoogleAPIKey()

	if v := os.Getenv("FOOD_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.ConfidenceThreshold = f
		}
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var problems []string

	if c.Addr == "" {
		problems = append(problems, "addr is required")
	}
	if _, err := activity.ParseVariant(c.Detector); err != nil {
		problems = append(problems, err.Error())
	}
	switch c.Source {
	case SourceDevice:
		if c.CameraDevice < 0 {
			problems = append(problems, "camera device must not be negative")
		}
	case SourceSnapshot:
		if c.SnapshotURL == "" {
			problems = append(problems, "snapshot source needs FOOD_SNAPSHOT_URL")
		}
	case SourceFile:
		if c.SourceFile == "" {
			problems = append(problems, "file source needs FOOD_SOURCE_FILE")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown source %q (want %s, %s or %s)", c.Source, SourceDevice, SourceSnapshot, SourceFile))
	}
	if c.Detector == string(activity.VariantOnDevice) && (c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1) {
		problems = append(problems, "confidence threshold must be between 0 and 1")
	}
	if c.PicsDir == "" {
		problems = append(problems, "pictures directory is required")
	}

	if len(problems) > 0 {
		return &ConfigError{Problems: problems}
	}
	return nil
}

// ConfigError lists every configuration problem found.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}
