// Delicious Food - take a picture and find out whether it shows food.
// Serves a dashboard that plays the camera screen; labels come from an
// on-device classifier or Google Cloud Vision.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-deliciousfood/internal/log"
	"github.com/teslashibe/go-deliciousfood/pkg/app"
)

func main() {
	cfg := parseFlags()

	log.Init(cfg.LogLevel)
	logger := log.L()

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(2)
	}

	if err := a.Init(); err != nil {
		logger.Error("initialization failed", "error", err)
		os.Exit(1)
	}
	defer a.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		logger.Error("runtime error", "error", err)
		a.Shutdown()
		os.Exit(1)
	}
}

// parseFlags applies environment overrides, then command line flags.
func parseFlags() app.Config {
	cfg := app.DefaultConfig()
	cfg.LoadEnvConfig()

	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "Dashboard listen address (FOOD_ADDR)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error (LOG_LEVEL)")
	flag.StringVar(&cfg.Detector, "detector", cfg.Detector, "Label detector: on-device or cloud (FOOD_DETECTOR)")
	flag.StringVar(&cfg.Source, "source", cfg.Source, "Capture source: device, snapshot or file (FOOD_SOURCE)")
	flag.IntVar(&cfg.CameraDevice, "camera", cfg.CameraDevice, "Camera device index (FOOD_CAMERA_DEVICE)")
	flag.StringVar(&cfg.SnapshotURL, "snapshot-url", cfg.SnapshotURL, "Still image URL for the snapshot source (FOOD_SNAPSHOT_URL)")
	flag.StringVar(&cfg.SourceFile, "source-file", cfg.SourceFile, "Image path for the file source (FOOD_SOURCE_FILE)")
	flag.StringVar(&cfg.ModelPath, "model", cfg.ModelPath, "ONNX classifier for the on-device detector (FOOD_MODEL)")
	flag.StringVar(&cfg.LabelsPath, "labels", cfg.LabelsPath, "Class names for the on-device detector (FOOD_LABELS)")
	flag.Float64Var(&cfg.ConfidenceThreshold, "threshold", cfg.ConfidenceThreshold, "Minimum on-device label confidence (FOOD_THRESHOLD)")
	flag.StringVar(&cfg.PicsDir, "pics", cfg.PicsDir, "Directory for captured pictures (FOOD_PICS_DIR)")
	flag.StringVar(&cfg.ConsentFile, "consent", cfg.ConsentFile, "Permission decisions file, empty for memory only (FOOD_CONSENT_FILE)")
	flag.StringVar(&cfg.StringsFile, "strings", cfg.StringsFile, "JSON file overriding user-visible text (FOOD_STRINGS_FILE)")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	return cfg
}
