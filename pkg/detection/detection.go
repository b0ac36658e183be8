// Package detection labels images, either on-device with an ONNX
// classifier or in the cloud with Google Cloud Vision.
//
// Detection is asynchronous from the caller's point of view: DetectAsync
// runs a Detector off the UI goroutine and hands back exactly one Result,
// which is either a label set or an error.
package detection

import (
	"context"
	"fmt"
	"image"
)

// Label is one descriptive tag for an image.
type Label struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Detector is the interface for label detection backends.
type Detector interface {
	// Detect returns labels for img, most confident first.
	Detect(ctx context.Context, img image.Image) ([]Label, error)

	// Close releases resources.
	Close() error
}

// Result is the outcome of one detection: Labels on success, Err on failure.
type Result struct {
	Labels []Label
	Err    error
}

// Success wraps a label set.
func Success(labels []Label) Result {
	return Result{Labels: labels}
}

// Failure wraps an error. A nil error is reported as ErrUnknown.
func Failure(err error) Result {
	if err == nil {
		err = ErrUnknown
	}
	return Result{Err: err}
}

// Succeeded reports whether the detection returned labels.
func (r Result) Succeeded() bool {
	return r.Err == nil
}

// Texts returns the label strings in order.
func (r Result) Texts() []string {
	texts := make([]string, len(r.Labels))
	for i, l := range r.Labels {
		texts[i] = l.Text
	}
	return texts
}

// DetectAsync runs d.Detect in a new goroutine and calls deliver exactly
// once with the outcome. A panicking detector is reported as a failure.
func DetectAsync(ctx context.Context, d Detector, img image.Image, deliver func(Result)) {
	go func() {
		var res Result
		defer func() {
			if r := recover(); r != nil {
				res = Failure(fmt.Errorf("%w: %v", ErrDetectorPanic, r))
			}
			deliver(res)
		}()

		labels, err := d.Detect(ctx, img)
		if err != nil {
			res = Failure(err)
			return
		}
		res = Success(labels)
	}()
}
