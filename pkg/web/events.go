package web

import (
	"time"

	"github.com/teslashibe/go-deliciousfood/pkg/permission"
	"github.com/teslashibe/go-deliciousfood/pkg/ui"
)

// EventType names a UI event pushed to the dashboard.
type EventType string

const (
	EventState             EventType = "state"
	EventImage             EventType = "image"
	EventProgress          EventType = "progress"
	EventResult            EventType = "result"
	EventHideResult        EventType = "hide_result"
	EventToast             EventType = "toast"
	EventSnackbar          EventType = "snackbar"
	EventSnackbarDismissed EventType = "snackbar_dismissed"
	EventPermissionRequest EventType = "permission_request"
	EventPermissionClosed  EventType = "permission_closed"
)

// Event is one websocket frame on /ws/ui.
type Event struct {
	Type    EventType           `json:"type"`
	Time    string              `json:"time"`
	Text    string              `json:"text,omitempty"`
	Visible *bool               `json:"visible,omitempty"`
	Panel   *ui.Panel           `json:"panel,omitempty"`
	Image   int                 `json:"image,omitempty"`
	Snack   *Snackbar           `json:"snackbar,omitempty"`
	Request *permission.Request `json:"request,omitempty"`
	State   *State              `json:"state,omitempty"`
}

// Snackbar is a prompt waiting for its action button.
type Snackbar struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Action string `json:"action"`
}

// State is what a freshly connected dashboard needs to render.
type State struct {
	ImageVersion    int                 `json:"image_version"`
	ProgressVisible bool                `json:"progress_visible"`
	Result          *ui.Panel           `json:"result,omitempty"`
	Snackbar        *Snackbar           `json:"snackbar,omitempty"`
	Permission      *permission.Request `json:"permission,omitempty"`
}

func newEvent(t EventType) Event {
	return Event{Type: t, Time: time.Now().Format("15:04:05")}
}
