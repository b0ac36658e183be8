package detection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/disintegration/imaging"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/grpc/status"
)

// CloudConfig holds Cloud Vision label detection configuration.
type CloudConfig struct {
	MaxResults      int    // Number of labels requested from the API
	CredentialsFile string // Service account JSON, empty for default credentials
	APIKey          string // API key, takes precedence over credentials
	Endpoint        string // Override the API endpoint (tests, private endpoints)
	JPEGQuality     int    // Quality of the upload
	Logger          *slog.Logger
}

// DefaultCloudConfig returns production defaults.
func DefaultCloudConfig() CloudConfig {
	return CloudConfig{
		MaxResults:  10,
		JPEGQuality: 90,
	}
}

// labelAnnotator is the part of the Cloud Vision client used here.
type labelAnnotator interface {
	DetectLabels(ctx context.Context, img *visionpb.Image, ictx *visionpb.ImageContext, maxResults int) ([]*visionpb.EntityAnnotation, error)
	Close() error
}

// Cloud labels images with Google Cloud Vision.
type Cloud struct {
	client labelAnnotator
	config CloudConfig
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewCloud creates a Cloud Vision client.
func NewCloud(ctx context.Context, cfg CloudConfig) (*Cloud, error) {
	opts, err := clientOptions(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}

	return newCloud(&visionClient{client: client}, cfg), nil
}

// visionClient adapts the generated client to labelAnnotator.
type visionClient struct {
	client *vision.ImageAnnotatorClient
}

func (v *visionClient) DetectLabels(ctx context.Context, img *visionpb.Image, ictx *visionpb.ImageContext, maxResults int) ([]*visionpb.EntityAnnotation, error) {
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:        img,
			ImageContext: ictx,
			Features: []*visionpb.Feature{{
				Type:       visionpb.Feature_LABEL_DETECTION,
				MaxResults: int32(maxResults),
			}},
		}},
	}
	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.GetResponses()) == 0 {
		return nil, nil
	}
	res := resp.GetResponses()[0]
	if res.GetError() != nil {
		return nil, status.ErrorProto(res.GetError())
	}
	return res.GetLabelAnnotations(), nil
}

func (v *visionClient) Close() error {
	return v.client.Close()
}

func newCloud(client labelAnnotator, cfg CloudConfig) *Cloud {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultCloudConfig().MaxResults
	}
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = DefaultCloudConfig().JPEGQuality
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Cloud{
		client: client,
		config: cfg,
		logger: logger.With("component", "detection", "variant", "cloud"),
	}
}

// clientOptions picks the authentication method: API key, credentials
// file, or application default credentials.
func clientOptions(ctx context.Context, cfg CloudConfig) ([]option.ClientOption, error) {
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	switch {
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	default:
		creds, err := google.FindDefaultCredentials(ctx, vision.DefaultAuthScopes()...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoCredentials, err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}
	return opts, nil
}

// Detect uploads img and returns up to MaxResults labels.
func (c *Cloud) Detect(ctx context.Context, img image.Image) ([]Label, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(c.config.JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	annotations, err := c.client.DetectLabels(ctx, &visionpb.Image{Content: buf.Bytes()}, nil, c.config.MaxResults)
	if err != nil {
		return nil, wrapAPIError(err)
	}

	labels := make([]Label, 0, len(annotations))
	for _, a := range annotations {
		if a == nil || a.GetDescription() == "" {
			continue
		}
		labels = append(labels, Label{Text: a.GetDescription(), Confidence: float64(a.GetScore())})
	}

	c.logger.Debug("labeled image", "labels", len(labels), "bytes", buf.Len())
	return labels, nil
}

// Close releases the client connection.
func (c *Cloud) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.client.Close()
}

// wrapAPIError converts gRPC status errors to *APIError.
func wrapAPIError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if st, ok := status.FromError(err); ok {
		return &APIError{Code: st.Code(), Message: st.Message()}
	}
	return fmt.Errorf("detection [cloud]: %w", err)
}
