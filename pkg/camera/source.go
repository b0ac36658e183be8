package camera

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-deliciousfood/internal/httpc"
)

// Source provides encoded still images.
type Source interface {
	// CaptureFrame returns one encoded image (JPEG or PNG).
	CaptureFrame(ctx context.Context) ([]byte, error)

	// Close releases the source.
	Close() error
}

// maxSnapshotBytes bounds a snapshot download.
const maxSnapshotBytes = 32 << 20

// DeviceSource grabs frames from a local video device through OpenCV.
type DeviceSource struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	quality int
}

// DeviceConfig selects and sizes the capture device.
type DeviceConfig struct {
	Device  int // Device index, 0 is the default camera
	Width   int // Requested frame width, 0 keeps the driver default
	Height  int // Requested frame height, 0 keeps the driver default
	Quality int // JPEG quality of the grabbed frame
}

// DefaultDeviceConfig returns the first camera at driver resolution.
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{Device: 0, Quality: 95}
}

// OpenDevice opens a video capture device.
func OpenDevice(cfg DeviceConfig) (*DeviceSource, error) {
	vc, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("open camera %d: device not available", cfg.Device)
	}

	if cfg.Width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	}
	if cfg.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	if cfg.Quality < 1 || cfg.Quality > 100 {
		cfg.Quality = 95
	}

	return &DeviceSource{capture: vc, quality: cfg.Quality}, nil
}

// CaptureFrame reads one frame and encodes it as JPEG.
func (d *DeviceSource) CaptureFrame(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture == nil {
		return nil, ErrClosed
	}

	mat := gocv.NewMat()
	defer mat.Close()

	if ok := d.capture.Read(&mat); !ok || mat.Empty() {
		return nil, ErrNoFrame
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{int(gocv.IMWriteJpegQuality), d.quality})
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	// The native buffer is freed on Close; copy out.
	return append([]byte(nil), buf.GetBytes()...), nil
}

// Close releases the device.
func (d *DeviceSource) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.capture == nil {
		return nil
	}
	err := d.capture.Close()
	d.capture = nil
	return err
}

// SnapshotSource fetches a still image over HTTP, e.g. from an IP camera.
type SnapshotSource struct {
	URL    string
	Client *http.Client // nil uses httpc.Client
}

// CaptureFrame downloads one snapshot.
func (s *SnapshotSource) CaptureFrame(ctx context.Context) ([]byte, error) {
	resp, err := httpc.Get(ctx, s.Client, s.URL)
	if err != nil {
		return nil, fmt.Errorf("snapshot request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot error (status %d)", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}

// Close is a no-op.
func (s *SnapshotSource) Close() error { return nil }

// FileSource returns the same image file on every capture.
type FileSource struct {
	Path string
}

// CaptureFrame reads the file.
func (f *FileSource) CaptureFrame(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read picture file: %w", err)
	}
	return data, nil
}

// Close is a no-op.
func (f *FileSource) Close() error { return nil }
