// Package permission gates camera capture behind user consent.
//
// Two capabilities are required before a picture can be taken: writing the
// picture to storage and using the camera. Requests are keyed by a
// RequestCode so the result can be matched to whoever asked.
package permission

// Permission names a capability the user must grant.
type Permission string

const (
	// WriteExternalStorage allows captured pictures to be written to disk.
	WriteExternalStorage Permission = "storage.write"
	// Camera allows frames to be grabbed from the capture source.
	Camera Permission = "camera"
)

// Required returns the permissions needed for a capture, in request order.
func Required() []Permission {
	return []Permission{WriteExternalStorage, Camera}
}

// Valid reports whether p is a known permission.
func (p Permission) Valid() bool {
	return p == WriteExternalStorage || p == Camera
}

// RequestCode correlates an asynchronous request with its result callback.
type RequestCode int

const (
	// RequestPermissions tags permission requests made before a capture.
	RequestPermissions RequestCode = 1
	// RequestTakePhoto tags capture requests made to the camera helper.
	RequestTakePhoto RequestCode = 1234
)

// Grant is the user's answer for one permission.
type Grant int

const (
	Denied Grant = iota
	Granted
)

// String returns "granted" or "denied".
func (g Grant) String() string {
	if g == Granted {
		return "granted"
	}
	return "denied"
}

// Request is a pending ask shown to the user.
type Request struct {
	Code        RequestCode  `json:"code"`
	Permissions []Permission `json:"permissions"`
}

// Checker queries and requests permissions.
type Checker interface {
	// Check reports whether p is currently granted. Never cached by callers.
	Check(p Permission) bool

	// ShouldShowRationale reports whether the user should be told why p is
	// needed before being asked again.
	ShouldShowRationale(p Permission) bool

	// Request asks the user for perms. The answer arrives through the
	// result handler registered with the implementation.
	Request(code RequestCode, perms []Permission)
}

// ResultHandler receives the user's answer to a Request. grants is empty
// when the request was dismissed without an answer.
type ResultHandler func(code RequestCode, perms []Permission, grants []Grant)

// AllGranted reports whether grants is non-empty and every entry is Granted.
func AllGranted(grants []Grant) bool {
	if len(grants) == 0 {
		return false
	}
	for _, g := range grants {
		if g != Granted {
			return false
		}
	}
	return true
}
