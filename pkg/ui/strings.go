package ui

import (
	"encoding/json"
	"fmt"
	"os"
)

// Strings is the table of user-visible text.
type Strings struct {
	PermissionMessage  string `json:"permission_message"`
	OK                 string `json:"ok"`
	Error              string `json:"error"`
	ErrorTakingPicture string `json:"error_taking_picture"`
	PictureNotTaken    string `json:"picture_not_taken"`
	DeliciousFood      string `json:"delicious_food"`
	NotDeliciousFood   string `json:"not_delicious_food"`
}

// DefaultStrings returns the English string table.
func DefaultStrings() Strings {
	return Strings{
		PermissionMessage:  "Camera and storage access are needed to take a picture of your food.",
		OK:                 "OK",
		Error:              "Oops, something went wrong. Please try again.",
		ErrorTakingPicture: "Could not take the picture.",
		PictureNotTaken:    "Picture not taken!",
		DeliciousFood:      "Delicious food!",
		NotDeliciousFood:   "Not delicious food :(",
	}
}

// LoadStrings reads a JSON string table from path. Missing keys keep their
// default value.
func LoadStrings(path string) (Strings, error) {
	s := DefaultStrings()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("failed to read strings: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return DefaultStrings(), fmt.Errorf("failed to parse strings: %w", err)
	}
	return s, nil
}
