// Package camera is the capture helper: it grabs a frame from a Source,
// fixes its orientation, writes it to the pictures directory and reports
// completion through an ActivityResult.
package camera

import (
	"fmt"

	"github.com/teslashibe/go-deliciousfood/pkg/permission"
)

// Format is the on-disk encoding of a captured picture.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	if f == FormatPNG {
		return ".png"
	}
	return ".jpg"
}

// Config holds the fixed output parameters of the capture helper.
// It is built once and never modified after New.
type Config struct {
	// Directory receives the captured pictures. Created on demand.
	Directory string `json:"directory"`

	// NamePrefix is followed by the capture time in unix milliseconds.
	NamePrefix string `json:"name_prefix"`

	// Format is the encoding written to disk.
	Format Format `json:"format"`

	// Compression is the JPEG quality 1-100. Ignored for PNG.
	Compression int `json:"compression"`

	// CorrectOrientation applies EXIF orientation before saving.
	CorrectOrientation bool `json:"correct_orientation"`

	// RequestCode tags the ActivityResult delivered for each capture.
	RequestCode permission.RequestCode `json:"request_code"`
}

// DefaultConfig returns the capture settings used by the app.
func DefaultConfig() Config {
	return Config{
		Directory:          "pics",
		NamePrefix:         "delicious_",
		Format:             FormatJPEG,
		Compression:        75,
		CorrectOrientation: true,
		RequestCode:        permission.RequestTakePhoto,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Directory == "" {
		errors = append(errors, "directory is required")
	}
	if c.NamePrefix == "" {
		errors = append(errors, "name_prefix is required")
	}
	if c.Format != FormatJPEG && c.Format != FormatPNG {
		errors = append(errors, fmt.Sprintf("format must be %s or %s", FormatJPEG, FormatPNG))
	}
	if c.Compression < 1 || c.Compression > 100 {
		errors = append(errors, "compression must be between 1 and 100")
	}
	if c.RequestCode <= 0 {
		errors = append(errors, "request_code must be positive")
	}

	return errors
}
