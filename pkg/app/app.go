package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-deliciousfood/pkg/activity"
	"github.com/teslashibe/go-deliciousfood/pkg/camera"
	"github.com/teslashibe/go-deliciousfood/pkg/detection"
	"github.com/teslashibe/go-deliciousfood/pkg/permission"
	"github.com/teslashibe/go-deliciousfood/pkg/ui"
	"github.com/teslashibe/go-deliciousfood/pkg/web"
)

const shutdownTimeout = 5 * time.Second

// App owns every component and their lifecycle.
type App struct {
	config Config
	logger *slog.Logger

	looper   *ui.Looper
	consent  *permission.Store
	web      *web.Server
	activity *activity.Activity
	created  bool

	// Replaced in tests.
	openSource     func() (camera.Source, error)
	openDetector   func(ctx context.Context, v activity.Variant) (detection.Detector, error)
	serveDashboard func(ctx context.Context) error
}

// New validates cfg and creates the app.
func New(cfg Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{
		config: cfg,
		logger: logger,
	}
	a.openSource = a.defaultSource
	a.openDetector = a.defaultDetector
	return a, nil
}

// Init builds the components. Call this after New and before Run.
func (a *App) Init() error {
	strs := ui.DefaultStrings()
	if a.config.StringsFile != "" {
		loaded, err := ui.LoadStrings(a.config.StringsFile)
		if err != nil {
			a.logger.Warn("using default strings", "file", a.config.StringsFile, "error", err)
		}
		strs = loaded
	}

	a.looper = ui.NewLooper(ui.DefaultQueueSize, a.logger)

	consent, err := permission.NewStore(a.config.ConsentFile, a.logger)
	if err != nil {
		return fmt.Errorf("consent store: %w", err)
	}
	a.consent = consent

	webCfg := web.DefaultConfig()
	webCfg.Addr = a.config.Addr
	webCfg.Logger = a.logger
	a.web = web.NewServer(webCfg)
	a.serveDashboard = a.web.Start

	act, err := activity.New(activity.Deps{
		View:        a.web,
		Permissions: a.consent,
		Strings:     strs,
		Post:        a.looper.Post,
		NewCamera:   a.newCamera,
		NewDetector: a.openDetector,
		Variant:     activity.Variant(a.config.Detector),
		Logger:      a.logger,
	})
	if err != nil {
		return fmt.Errorf("activity: %w", err)
	}
	a.activity = act

	// Store.Request is called on the looper, Resolve from HTTP handlers.
	a.consent.OnRequest(a.web.ShowPermissionRequest)
	a.consent.OnResult(func(code permission.RequestCode, perms []permission.Permission, grants []permission.Grant) {
		a.looper.Post(func() { a.activity.OnRequestPermissionsResult(code, perms, grants) })
	})

	a.web.Post = a.looper.Post
	a.web.OnCapture = func() error {
		if !a.looper.Post(a.activity.TakePicture) {
			return ui.ErrLooperStopped
		}
		return nil
	}
	a.web.OnPermissionResult = a.consent.Resolve
	a.web.OnResetPermissions = a.consent.Reset

	a.logger.Info("initialized",
		"detector", a.config.Detector,
		"source", a.config.Source,
		"pics", a.config.PicsDir)
	return nil
}

// Run creates the activity on the looper and serves the dashboard.
// Blocks until ctx is cancelled or the dashboard fails.
func (a *App) Run(ctx context.Context) error {
	looperDone := make(chan error, 1)
	go func() { looperDone <- a.looper.Run(ctx) }()

	var createErr error
	if err := a.looper.Await(ctx, func() { createErr = a.activity.OnCreate(ctx) }); err != nil {
		a.looper.Stop()
		<-looperDone
		return err
	}
	if createErr != nil {
		a.looper.Stop()
		<-looperDone
		return createErr
	}
	a.created = true

	serveErr := make(chan error, 1)
	go func() { serveErr <- a.serveDashboard(ctx) }()

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
		if err != nil {
			err = fmt.Errorf("dashboard: %w", err)
		}
	}

	a.looper.Stop()
	<-looperDone
	return err
}

// Shutdown stops the dashboard and releases the camera and detectors.
// Call after Run has returned.
func (a *App) Shutdown() {
	if a.web != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.web.Shutdown(ctx); err != nil {
			a.logger.Warn("dashboard shutdown", "error", err)
		}
	}
	if a.looper != nil {
		a.looper.Stop()
	}
	if a.created {
		a.activity.OnDestroy()
		a.created = false
	}
	a.logger.Info("stopped")
}

// Dashboard returns the web server.
func (a *App) Dashboard() *web.Server {
	return a.web
}

func (a *App) newCamera(deliver func(camera.ActivityResult)) (activity.Capturer, error) {
	src, err := a.openSource()
	if err != nil {
		return nil, err
	}

	cfg := camera.DefaultConfig()
	cfg.Directory = a.config.PicsDir

	cam, err := camera.New(cfg, src, deliver, a.logger)
	if err != nil {
		src.Close()
		return nil, err
	}
	return cam, nil
}

func (a *App) defaultSource() (camera.Source, error) {
	switch a.config.Source {
	case SourceSnapshot:
		return &camera.SnapshotSource{URL: a.config.SnapshotURL}, nil
	case SourceFile:
		return &camera.FileSource{Path: a.config.SourceFile}, nil
	default:
		dc := camera.DefaultDeviceConfig()
		dc.Device = a.config.CameraDevice
		return camera.OpenDevice(dc)
	}
}

func (a *App) defaultDetector(ctx context.Context, v activity.Variant) (detection.Detector, error) {
	switch v {
	case activity.VariantCloud:
		cfg := detection.DefaultCloudConfig()
		cfg.CredentialsFile = a.config.GoogleCredentials
		cfg.APIKey = a.config.GoogleAPIKey
		cfg.Logger = a.logger
		return detection.NewCloud(ctx, cfg)
	default:
		cfg := detection.DefaultOnDeviceConfig()
		cfg.ModelPath = a.config.ModelPath
		cfg.LabelsPath = a.config.LabelsPath
		cfg.ConfidenceThreshold = a.config.ConfidenceThreshold
		cfg.Logger = a.logger
		return detection.NewOnDevice(cfg)
	}
}
