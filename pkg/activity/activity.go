// Package activity is the screen controller of the delicious-food camera.
//
// It gates capture on permissions, hands the captured picture to a label
// detector and turns the labels into a green or red verdict panel. Every
// exported method must run on the UI looper; background work posts its
// results back through Deps.Post.
package activity

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/google/uuid"

	"github.com/teslashibe/go-deliciousfood/pkg/camera"
	"github.com/teslashibe/go-deliciousfood/pkg/detection"
	"github.com/teslashibe/go-deliciousfood/pkg/food"
	"github.com/teslashibe/go-deliciousfood/pkg/permission"
	"github.com/teslashibe/go-deliciousfood/pkg/ui"
)

// Variant selects the detector used after a capture.
type Variant string

const (
	// VariantOnDevice classifies locally with a confidence threshold.
	VariantOnDevice Variant = "on-device"
	// VariantCloud asks Cloud Vision for a fixed number of labels.
	VariantCloud Variant = "cloud"
)

// ParseVariant validates a variant name.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(s); v {
	case VariantOnDevice, VariantCloud:
		return v, nil
	}
	return "", fmt.Errorf("unknown detector variant %q (want %s or %s)", s, VariantOnDevice, VariantCloud)
}

// Capturer is the capture helper used by the activity.
type Capturer interface {
	TakePicture(ctx context.Context) error
	Bitmap() image.Image
	Close() error
}

// Deps wires the activity to its collaborators.
type Deps struct {
	View        ui.View
	Permissions permission.Checker
	Strings     ui.Strings

	// Post schedules fn on the UI looper.
	Post func(fn func()) bool

	// NewCamera builds the capture helper. deliver must be called once per
	// started capture, from any goroutine.
	NewCamera func(deliver func(camera.ActivityResult)) (Capturer, error)

	// NewDetector builds the detector for a variant.
	NewDetector func(ctx context.Context, v Variant) (detection.Detector, error)

	// Variant is the detector used by the capture flow.
	Variant Variant

	Logger *slog.Logger
}

// Activity is the UI controller.
type Activity struct {
	deps    Deps
	strings ui.Strings
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	camera    Capturer
	detectors map[Variant]detection.Detector

	// detectionToken identifies the newest detection; older results are
	// dropped when they arrive.
	detectionToken string
}

// New creates an activity. Call OnCreate before anything else.
func New(deps Deps) (*Activity, error) {
	switch {
	case deps.View == nil:
		return nil, errors.New("activity: view is required")
	case deps.Permissions == nil:
		return nil, errors.New("activity: permission checker is required")
	case deps.Post == nil:
		return nil, errors.New("activity: post is required")
	case deps.NewCamera == nil:
		return nil, errors.New("activity: camera factory is required")
	case deps.NewDetector == nil:
		return nil, errors.New("activity: detector factory is required")
	}
	if deps.Variant == "" {
		deps.Variant = VariantOnDevice
	}
	if _, err := ParseVariant(string(deps.Variant)); err != nil {
		return nil, err
	}
	if deps.Strings == (ui.Strings{}) {
		deps.Strings = ui.DefaultStrings()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Activity{
		deps:      deps,
		strings:   deps.Strings,
		logger:    logger.With("component", "activity"),
		detectors: make(map[Variant]detection.Detector),
	}, nil
}

// OnCreate initializes the detector for the configured variant and the
// capture helper.
func (a *Activity) OnCreate(ctx context.Context) error {
	a.ctx, a.cancel = context.WithCancel(ctx)

	if _, err := a.detector(a.deps.Variant); err != nil {
		a.cancel()
		return fmt.Errorf("init %s detector: %w", a.deps.Variant, err)
	}

	cam, err := a.deps.NewCamera(func(r camera.ActivityResult) {
		a.deps.Post(func() { a.OnActivityResult(r.RequestCode, r.ResultCode) })
	})
	if err != nil {
		a.closeDetectors()
		a.cancel()
		return fmt.Errorf("init camera: %w", err)
	}
	a.camera = cam

	a.logger.Info("activity created", "detector", a.deps.Variant)
	return nil
}

// OnDestroy cancels in-flight work and releases the camera and detectors.
func (a *Activity) OnDestroy() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.camera != nil {
		if err := a.camera.Close(); err != nil {
			a.logger.Warn("failed to close camera", "error", err)
		}
	}
	a.closeDetectors()
}

func (a *Activity) closeDetectors() {
	for v, d := range a.detectors {
		if err := d.Close(); err != nil {
			a.logger.Warn("failed to close detector", "variant", v, "error", err)
		}
		delete(a.detectors, v)
	}
}

// TakePicture is the "take picture" UI action.
func (a *Activity) TakePicture() {
	if !a.deps.Permissions.Check(permission.WriteExternalStorage) ||
		!a.deps.Permissions.Check(permission.Camera) {
		a.requestPermissions()
		return
	}
	a.capture()
}

// requestPermissions asks for both permissions, explaining why first if
// storage was denied before.
func (a *Activity) requestPermissions() {
	request := func() {
		a.deps.Permissions.Request(permission.RequestPermissions, permission.Required())
	}

	if a.deps.Permissions.ShouldShowRationale(permission.WriteExternalStorage) {
		a.deps.View.Snackbar(a.strings.PermissionMessage, a.strings.OK, request)
		return
	}
	request()
}

// OnRequestPermissionsResult handles the answer to a permission request.
// A denial leaves the screen unchanged.
func (a *Activity) OnRequestPermissionsResult(code permission.RequestCode, perms []permission.Permission, grants []permission.Grant) {
	if code != permission.RequestPermissions {
		return
	}
	if len(grants) < len(permission.Required()) || !permission.AllGranted(grants) {
		a.logger.Info("permissions not granted, no picture taken", "permissions", perms, "grants", grants)
		return
	}
	a.capture()
}

func (a *Activity) capture() {
	if err := a.camera.TakePicture(a.ctx); err != nil {
		a.logger.Warn("take picture failed", "error", err)
		a.deps.View.Toast(a.strings.ErrorTakingPicture)
	}
}

// OnActivityResult handles capture completion.
func (a *Activity) OnActivityResult(code permission.RequestCode, result camera.ResultCode) {
	if result != camera.ResultOK || code != permission.RequestTakePhoto {
		return
	}

	bitmap := a.camera.Bitmap()
	if bitmap == nil {
		a.deps.View.Toast(a.strings.PictureNotTaken)
		return
	}

	a.deps.View.HideResult()
	a.deps.View.ShowImage(bitmap)
	switch a.deps.Variant {
	case VariantCloud:
		a.DetectOnCloud(bitmap)
	default:
		a.DetectOnDevice(bitmap)
	}
}

// DetectOnDevice labels img with the on-device classifier.
func (a *Activity) DetectOnDevice(img image.Image) {
	a.detect(VariantOnDevice, img)
}

// DetectOnCloud labels img with Cloud Vision.
func (a *Activity) DetectOnCloud(img image.Image) {
	a.detect(VariantCloud, img)
}

func (a *Activity) detect(v Variant, img image.Image) {
	a.deps.View.SetProgressVisible(true)

	d, err := a.detector(v)
	if err != nil {
		a.logger.Error("detector unavailable", "variant", v, "error", err)
		a.deps.View.SetProgressVisible(false)
		a.deps.View.Toast(a.strings.Error)
		return
	}

	token := uuid.NewString()
	a.detectionToken = token
	a.logger.Debug("detection started", "variant", v, "token", token)

	detection.DetectAsync(a.ctx, d, img, func(r detection.Result) {
		a.deps.Post(func() { a.onDetection(token, v, r) })
	})
}

// onDetection applies a detection result if it belongs to the newest request.
func (a *Activity) onDetection(token string, v Variant, r detection.Result) {
	if token != a.detectionToken {
		a.logger.Debug("dropping stale detection", "variant", v, "token", token)
		return
	}
	a.detectionToken = ""

	a.deps.View.SetProgressVisible(false)

	if !r.Succeeded() {
		a.logger.Warn("detection failed", "variant", v, "error", r.Err)
		a.deps.View.Toast(a.strings.Error)
		return
	}

	labels := r.Texts()
	delicious := food.HasDeliciousFood(labels)
	a.logger.Info("detection finished", "variant", v, "labels", labels, "verdict", food.Classify(labels))
	a.displayResultMessage(delicious)
}

func (a *Activity) displayResultMessage(hasDeliciousFood bool) {
	if hasDeliciousFood {
		a.deps.View.ShowResult(ui.Panel{Color: ui.ColorGreen, Text: a.strings.DeliciousFood})
		return
	}
	a.deps.View.ShowResult(ui.Panel{Color: ui.ColorRed, Text: a.strings.NotDeliciousFood})
}

// detector returns the cached detector for v, creating it on first use.
func (a *Activity) detector(v Variant) (detection.Detector, error) {
	if d, ok := a.detectors[v]; ok {
		return d, nil
	}
	d, err := a.deps.NewDetector(a.ctx, v)
	if err != nil {
		return nil, err
	}
	a.detectors[v] = d
	return d, nil
}
