package camera

import "errors"

var (
	// ErrInvalidConfig is returned by New when Config.Validate fails.
	ErrInvalidConfig = errors.New("camera: invalid config")

	// ErrBusy is returned when a capture is already in flight.
	ErrBusy = errors.New("camera: capture already in progress")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("camera: closed")

	// ErrNoSource is returned when no capture source is configured.
	ErrNoSource = errors.New("camera: no capture source")

	// ErrNoFrame is returned when a source produced an empty frame.
	ErrNoFrame = errors.New("camera: no frame")
)
