package web

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/teslashibe/go-deliciousfood/pkg/permission"
	"github.com/teslashibe/go-deliciousfood/pkg/ui"
)

var _ ui.View = (*Server)(nil)

// ShowImage stores a JPEG preview of img and tells clients to reload it.
func (s *Server) ShowImage(img image.Image) {
	if img == nil {
		return
	}
	if w := s.config.PreviewWidth; w > 0 && img.Bounds().Dx() > w {
		img = imaging.Resize(img, w, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(s.config.JPEGQuality)); err != nil {
		s.logger.Error("failed to encode preview", "error", err)
		return
	}

	s.mu.Lock()
	s.image = buf.Bytes()
	s.state.ImageVersion++
	version := s.state.ImageVersion
	s.mu.Unlock()

	e := newEvent(EventImage)
	e.Image = version
	s.broadcast(e)
}

// SetProgressVisible toggles the loading indicator.
func (s *Server) SetProgressVisible(visible bool) {
	s.mu.Lock()
	s.state.ProgressVisible = visible
	s.mu.Unlock()

	e := newEvent(EventProgress)
	e.Visible = &visible
	s.broadcast(e)
}

// ShowResult shows the verdict panel.
func (s *Server) ShowResult(p ui.Panel) {
	s.mu.Lock()
	s.state.Result = &p
	s.mu.Unlock()

	e := newEvent(EventResult)
	e.Panel = &p
	s.broadcast(e)
}

// HideResult hides the verdict panel.
func (s *Server) HideResult() {
	s.mu.Lock()
	s.state.Result = nil
	s.mu.Unlock()

	s.broadcast(newEvent(EventHideResult))
}

// Toast pushes a transient notification. Toasts are not part of State.
func (s *Server) Toast(text string) {
	e := newEvent(EventToast)
	e.Text = text
	s.broadcast(e)
}

// Snackbar shows a prompt; onAction runs on the looper when its button is
// pressed. A new snackbar replaces the previous one.
func (s *Server) Snackbar(text, action string, onAction func()) {
	sb := Snackbar{ID: uuid.NewString(), Text: text, Action: action}

	s.mu.Lock()
	if s.state.Snackbar != nil {
		delete(s.snackbars, s.state.Snackbar.ID)
	}
	s.snackbars[sb.ID] = onAction
	s.state.Snackbar = &sb
	s.mu.Unlock()

	e := newEvent(EventSnackbar)
	e.Snack = &sb
	s.broadcast(e)
}

// ShowPermissionRequest opens the consent dialog.
func (s *Server) ShowPermissionRequest(req permission.Request) {
	s.mu.Lock()
	s.state.Permission = &req
	s.mu.Unlock()

	e := newEvent(EventPermissionRequest)
	e.Request = &req
	s.broadcast(e)
}
