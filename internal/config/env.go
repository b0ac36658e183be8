// Package config provides environment helpers for delicious-food commands.
package config

import (
	"os"
	"strconv"
)

// Defaults used when the environment does not override them.
const (
	DefaultAddr         = ":8080"
	DefaultCameraDevice = 0
)

// Addr returns the dashboard listen address from FOOD_ADDR.
// Falls back to the provided default if not set.
func Addr(defaultAddr string) string {
	if addr := os.Getenv("FOOD_ADDR"); addr != "" {
		return addr
	}
	return defaultAddr
}

// GoogleCredentials returns the service account file from
// GOOGLE_APPLICATION_CREDENTIALS, or "" to use default credentials.
func GoogleCredentials() string {
	return os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
}

// GoogleAPIKey returns the API key from GOOGLE_API_KEY.
func GoogleAPIKey() string {
	return os.Getenv("GOOGLE_API_KEY")
}

// CameraDevice returns the capture device index from FOOD_CAMERA_DEVICE.
// Falls back to the provided default if unset or not a number.
func CameraDevice(defaultDevice int) int {
	if v := os.Getenv("FOOD_CAMERA_DEVICE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return defaultDevice
}

// String returns the value of key, or def if it is empty.
func String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
