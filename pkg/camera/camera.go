package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/teslashibe/go-deliciousfood/pkg/permission"
)

// ResultCode reports how a capture ended.
type ResultCode int

const (
	// ResultCanceled means no picture was produced by the source.
	ResultCanceled ResultCode = 0
	// ResultOK means the capture finished; the bitmap may still be missing
	// if the frame could not be decoded or saved.
	ResultOK ResultCode = -1
)

// String returns "ok" or "canceled".
func (r ResultCode) String() string {
	if r == ResultOK {
		return "ok"
	}
	return "canceled"
}

// ActivityResult is delivered exactly once per accepted TakePicture call.
type ActivityResult struct {
	RequestCode permission.RequestCode
	ResultCode  ResultCode
}

// Camera is the capture helper.
type Camera struct {
	config  Config
	source  Source
	deliver func(ActivityResult)
	logger  *slog.Logger

	// now is replaced in tests.
	now func() time.Time

	mu       sync.Mutex
	inFlight bool
	closed   bool
	bitmap   image.Image
	lastPath string
	wg       sync.WaitGroup
}

// New creates a capture helper. deliver receives one ActivityResult per
// capture and is called from a background goroutine.
func New(cfg Config, src Source, deliver func(ActivityResult), logger *slog.Logger) (*Camera, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, errs)
	}
	if src == nil {
		return nil, ErrNoSource
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Camera{
		config:  cfg,
		source:  src,
		deliver: deliver,
		logger:  logger.With("component", "camera"),
		now:     time.Now,
	}, nil
}

// Config returns the capture configuration.
func (c *Camera) Config() Config {
	return c.config
}

// TakePicture starts a capture. Errors returned here mean nothing was
// started and no ActivityResult will follow.
func (c *Camera) TakePicture(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.inFlight {
		return ErrBusy
	}
	if err := os.MkdirAll(c.config.Directory, 0755); err != nil {
		return fmt.Errorf("failed to create picture directory '%s': %w", c.config.Directory, err)
	}

	c.inFlight = true
	c.wg.Add(1)
	go c.capture(ctx)
	return nil
}

// capture grabs, decodes and saves one frame, then reports the result.
func (c *Camera) capture(ctx context.Context) {
	defer c.wg.Done()

	result := ActivityResult{RequestCode: c.config.RequestCode, ResultCode: ResultOK}
	img, path, err := c.grab(ctx)

	c.mu.Lock()
	switch {
	case err == nil:
		c.bitmap, c.lastPath = img, path
	case isSourceError(err):
		result.ResultCode = ResultCanceled
		c.bitmap = nil
	default:
		c.bitmap = nil
	}
	c.inFlight = false
	deliver := c.deliver
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("capture failed", "error", err, "result", result.ResultCode)
	} else {
		b := img.Bounds()
		c.logger.Info("picture saved", "path", path, "width", b.Dx(), "height", b.Dy())
	}

	if deliver != nil {
		deliver(result)
	}
}

// sourceError marks failures of the frame source itself.
type sourceError struct{ err error }

func (e *sourceError) Error() string { return "capture source: " + e.err.Error() }
func (e *sourceError) Unwrap() error { return e.err }

func isSourceError(err error) bool {
	var se *sourceError
	return errors.As(err, &se)
}

func (c *Camera) grab(ctx context.Context) (image.Image, string, error) {
	data, err := c.source.CaptureFrame(ctx)
	if err != nil {
		return nil, "", &sourceError{err}
	}
	if len(data) == 0 {
		return nil, "", &sourceError{ErrNoFrame}
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(c.config.CorrectOrientation))
	if err != nil {
		return nil, "", fmt.Errorf("decode frame: %w", err)
	}

	name := c.config.NamePrefix + strconv.FormatInt(c.now().UnixMilli(), 10) + c.config.Format.Ext()
	path := filepath.Join(c.config.Directory, name)

	var opts []imaging.EncodeOption
	if c.config.Format == FormatJPEG {
		opts = append(opts, imaging.JPEGQuality(c.config.Compression))
	}
	if err := imaging.Save(img, path, opts...); err != nil {
		return nil, "", fmt.Errorf("save picture '%s': %w", path, err)
	}

	return img, path, nil
}

// Bitmap returns the last captured picture, or nil if the last capture
// produced none.
func (c *Camera) Bitmap() image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bitmap
}

// LastPath returns the file written by the last successful capture.
func (c *Camera) LastPath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPath
}

// Close waits for an in-flight capture and releases the source.
func (c *Camera) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.wg.Wait()
	return c.source.Close()
}
