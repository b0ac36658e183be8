package ui

import (
	"image"

	"github.com/teslashibe/go-deliciousfood/pkg/permission"
)

// Color is the background of the result panel.
type Color string

const (
	ColorGreen Color = "green"
	ColorRed   Color = "red"
)

// Panel is the result card shown after a detection.
type Panel struct {
	Color Color  `json:"color"`
	Text  string `json:"text"`
}

// View renders controller state. Every method is called on the looper.
type View interface {
	// ShowImage displays the captured picture.
	ShowImage(img image.Image)

	// SetProgressVisible shows or hides the loading indicator.
	SetProgressVisible(visible bool)

	// ShowResult makes the result panel visible with the given state.
	ShowResult(p Panel)

	// HideResult hides the result panel.
	HideResult()

	// Toast shows a short transient notification.
	Toast(text string)

	// Snackbar shows a dismissible prompt that stays until acted on.
	// onAction runs on the looper when the action button is pressed.
	Snackbar(text, action string, onAction func())

	// ShowPermissionRequest presents a consent dialog for req.
	ShowPermissionRequest(req permission.Request)
}
