package detection

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

// OnDeviceConfig holds on-device classifier configuration.
type OnDeviceConfig struct {
	ModelPath           string     // Path to ONNX image classification model
	LabelsPath          string     // One class name per line, in model output order
	ConfidenceThreshold float64    // Minimum confidence to report a label
	MaxResults          int        // Upper bound on returned labels, 0 for no limit
	InputWidth          int        // Model input width
	InputHeight         int        // Model input height
	Scale               float64    // Pixel scale factor applied before the mean
	Mean                [3]float64 // Per-channel mean subtracted from the input
	Softmax             bool       // Apply softmax to raw model outputs
	Logger              *slog.Logger
}

// DefaultOnDeviceConfig returns production defaults for a MobileNet-style
// ImageNet classifier.
func DefaultOnDeviceConfig() OnDeviceConfig {
	return OnDeviceConfig{
		ModelPath:           "models/mobilenetv2.onnx",
		LabelsPath:          "models/imagenet_labels.txt",
		ConfidenceThreshold: 0.8,
		MaxResults:          10,
		InputWidth:          224,
		InputHeight:         224,
		Scale:               1.0 / 255.0,
		Softmax:             true,
	}
}

// OnDevice classifies images locally with an OpenCV DNN.
type OnDevice struct {
	net    gocv.Net
	labels []string
	config OnDeviceConfig
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewOnDevice loads the model and label file.
func NewOnDevice(cfg OnDeviceConfig) (*OnDevice, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNoModel, cfg.ModelPath)
	}

	labels, err := LoadLabels(cfg.LabelsPath)
	if err != nil {
		return nil, err
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load classifier model from %s", cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &OnDevice{
		net:    net,
		labels: labels,
		config: cfg,
		logger: logger.With("component", "detection", "variant", "on-device"),
	}, nil
}

// Detect classifies img and returns labels at or above the threshold.
func (d *OnDevice) Detect(ctx context.Context, img image.Image) ([]Label, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	defer mat.Close()

	m := d.config.Mean
	blob := gocv.BlobFromImage(mat, d.config.Scale, image.Pt(d.config.InputWidth, d.config.InputHeight),
		gocv.NewScalar(m[0], m[1], m[2], 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	output := d.net.Forward("")
	defer output.Close()

	raw, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read model output: %w", err)
	}

	scores := make([]float64, len(raw))
	for i, v := range raw {
		scores[i] = float64(v)
	}
	if d.config.Softmax {
		scores = softmax(scores)
	}

	labels := rankLabels(scores, d.labels, d.config.ConfidenceThreshold, d.config.MaxResults)
	d.logger.Debug("classified image", "labels", len(labels))
	return labels, nil
}

// Close releases the detector resources.
func (d *OnDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.net.Close()
}

// LoadLabels reads one class name per line. Blank lines keep their index
// so names stay aligned with the model outputs.
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoLabels, err)
	}
	defer f.Close()

	var labels []string
	nonEmpty := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		label := strings.TrimSpace(scanner.Text())
		if label != "" {
			nonEmpty++
		}
		labels = append(labels, label)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	if nonEmpty == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNoLabels, path)
	}
	return labels, nil
}

// softmax converts logits to probabilities.
func softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return nil
	}
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}

	out := make([]float64, len(logits))
	sum := 0.0
	for i, v := range logits {
		out[i] = math.Exp(v - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// rankLabels keeps named classes scoring at least threshold, most
// confident first, capped at limit when limit > 0.
func rankLabels(scores []float64, names []string, threshold float64, limit int) []Label {
	labels := make([]Label, 0)
	for i, score := range scores {
		if i >= len(names) || names[i] == "" || score < threshold {
			continue
		}
		labels = append(labels, Label{Text: names[i], Confidence: score})
	}

	sort.SliceStable(labels, func(i, j int) bool {
		return labels[i].Confidence > labels[j].Confidence
	})

	if limit > 0 && len(labels) > limit {
		labels = labels[:limit]
	}
	return labels
}
