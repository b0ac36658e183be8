package camera

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"github.com/teslashibe/go-deliciousfood/internal/log"
	"github.com/teslashibe/go-deliciousfood/pkg/permission"
)

// stubSource returns canned frames.
type stubSource struct {
	frame  []byte
	err    error
	block  chan struct{}
	closed bool
}

func (s *stubSource) CaptureFrame(ctx context.Context) ([]byte, error) {
	if s.block != nil {
		<-s.block
	}
	return s.frame, s.err
}

func (s *stubSource) Close() error {
	s.closed = true
	return nil
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 120, B: 40, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func testConfig(t *testing.T) Config {
	cfg := DefaultConfig()
	cfg.Directory = filepath.Join(t.TempDir(), "pics")
	return cfg
}

// newTestCamera returns a camera whose results are sent on the channel.
func newTestCamera(t *testing.T, cfg Config, src Source) (*Camera, chan ActivityResult) {
	t.Helper()
	results := make(chan ActivityResult, 4)
	cam, err := New(cfg, src, func(r ActivityResult) { results <- r }, log.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cam.now = func() time.Time { return time.UnixMilli(1700000000123) }
	return cam, results
}

func waitResult(t *testing.T, results chan ActivityResult) ActivityResult {
	t.Helper()
	select {
	case r := <-results:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for activity result")
		return ActivityResult{}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Directory != "pics" {
		t.Errorf("Directory = %q, want pics", cfg.Directory)
	}
	if cfg.Format != FormatJPEG {
		t.Errorf("Format = %q, want jpeg", cfg.Format)
	}
	if cfg.Compression != 75 {
		t.Errorf("Compression = %d, want 75", cfg.Compression)
	}
	if !cfg.CorrectOrientation {
		t.Error("CorrectOrientation should be on")
	}
	if cfg.RequestCode != permission.RequestTakePhoto {
		t.Errorf("RequestCode = %d, want %d", cfg.RequestCode, permission.RequestTakePhoto)
	}
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("default config should be valid: %v", errs)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no directory", func(c *Config) { c.Directory = "" }},
		{"no prefix", func(c *Config) { c.NamePrefix = "" }},
		{"bad format", func(c *Config) { c.Format = "gif" }},
		{"compression zero", func(c *Config) { c.Compression = 0 }},
		{"compression too high", func(c *Config) { c.Compression = 101 }},
		{"no request code", func(c *Config) { c.RequestCode = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if errs := cfg.Validate(); len(errs) != 1 {
				t.Errorf("expected 1 validation error, got %v", errs)
			}
			if _, err := New(cfg, &stubSource{}, nil, nil); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("New: expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestNewRequiresSource(t *testing.T) {
	if _, err := New(DefaultConfig(), nil, nil, nil); !errors.Is(err, ErrNoSource) {
		t.Errorf("expected ErrNoSource, got %v", err)
	}
}

func TestTakePictureSuccess(t *testing.T) {
	cfg := testConfig(t)
	cam, results := newTestCamera(t, cfg, &stubSource{frame: testJPEG(t, 64, 48)})

	if err := cam.TakePicture(context.Background()); err != nil {
		t.Fatalf("TakePicture: %v", err)
	}

	r := waitResult(t, results)
	if r.ResultCode != ResultOK || r.RequestCode != permission.RequestTakePhoto {
		t.Fatalf("unexpected result: %+v", r)
	}

	bmp := cam.Bitmap()
	if bmp == nil {
		t.Fatal("expected a bitmap after a successful capture")
	}
	if b := bmp.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("bitmap size = %dx%d, want 64x48", b.Dx(), b.Dy())
	}

	want := filepath.Join(cfg.Directory, "delicious_1700000000123.jpg")
	if cam.LastPath() != want {
		t.Errorf("LastPath = %q, want %q", cam.LastPath(), want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("picture not written: %v", err)
	}
}

func TestTakePicturePNG(t *testing.T) {
	cfg := testConfig(t)
	cfg.Format = FormatPNG
	cam, results := newTestCamera(t, cfg, &stubSource{frame: testJPEG(t, 8, 8)})

	if err := cam.TakePicture(context.Background()); err != nil {
		t.Fatalf("TakePicture: %v", err)
	}
	waitResult(t, results)

	if filepath.Ext(cam.LastPath()) != ".png" {
		t.Errorf("expected .png file, got %q", cam.LastPath())
	}
}

func TestTakePictureSourceFailure(t *testing.T) {
	cam, results := newTestCamera(t, testConfig(t), &stubSource{err: errors.New("no device")})

	if err := cam.TakePicture(context.Background()); err != nil {
		t.Fatalf("TakePicture: %v", err)
	}

	if r := waitResult(t, results); r.ResultCode != ResultCanceled {
		t.Errorf("source failure should cancel, got %v", r.ResultCode)
	}
	if cam.Bitmap() != nil {
		t.Error("expected no bitmap")
	}
}

func TestTakePictureUndecodable(t *testing.T) {
	cam, results := newTestCamera(t, testConfig(t), &stubSource{frame: []byte("not an image")})

	if err := cam.TakePicture(context.Background()); err != nil {
		t.Fatalf("TakePicture: %v", err)
	}

	if r := waitResult(t, results); r.ResultCode != ResultOK {
		t.Errorf("decode failure should still report ok, got %v", r.ResultCode)
	}
	if cam.Bitmap() != nil {
		t.Error("expected no bitmap for an undecodable frame")
	}
}

func TestTakePictureBusy(t *testing.T) {
	src := &stubSource{frame: testJPEG(t, 8, 8), block: make(chan struct{})}
	cam, results := newTestCamera(t, testConfig(t), src)

	if err := cam.TakePicture(context.Background()); err != nil {
		t.Fatalf("TakePicture: %v", err)
	}
	if err := cam.TakePicture(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}

	close(src.block)
	waitResult(t, results)

	if err := cam.TakePicture(context.Background()); err != nil {
		t.Errorf("capture should be allowed again, got %v", err)
	}
	waitResult(t, results)
}

func TestTakePictureDirectoryError(t *testing.T) {
	cfg := testConfig(t)
	// A file where the directory should be.
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg.Directory = filepath.Join(blocker, "pics")

	cam, _ := newTestCamera(t, cfg, &stubSource{})
	if err := cam.TakePicture(context.Background()); err == nil {
		t.Error("expected error when the directory cannot be created")
	}
}

func TestClose(t *testing.T) {
	src := &stubSource{}
	cam, _ := newTestCamera(t, testConfig(t), src)

	if err := cam.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !src.closed {
		t.Error("Close should close the source")
	}
	if err := cam.TakePicture(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := cam.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}

func TestSnapshotSource(t *testing.T) {
	frame := testJPEG(t, 4, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/snapshot.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(frame)
	}))
	defer srv.Close()

	src := &SnapshotSource{URL: srv.URL + "/snapshot.jpg"}
	data, err := src.CaptureFrame(context.Background())
	if err != nil {
		t.Fatalf("CaptureFrame: %v", err)
	}
	if !bytes.Equal(data, frame) {
		t.Error("snapshot bytes differ")
	}

	missing := &SnapshotSource{URL: srv.URL + "/missing"}
	if _, err := missing.CaptureFrame(context.Background()); err == nil {
		t.Error("expected error for 404 snapshot")
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plate.jpg")
	frame := testJPEG(t, 4, 4)
	if err := os.WriteFile(path, frame, 0644); err != nil {
		t.Fatal(err)
	}

	data, err := (&FileSource{Path: path}).CaptureFrame(context.Background())
	if err != nil {
		t.Fatalf("CaptureFrame: %v", err)
	}
	if !bytes.Equal(data, frame) {
		t.Error("file bytes differ")
	}

	if _, err := (&FileSource{Path: path + ".missing"}).CaptureFrame(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}
