package web

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-deliciousfood/pkg/hub"
	"github.com/teslashibe/go-deliciousfood/pkg/permission"
)

func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.SendString(indexHTML)
}

func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.State())
}

func (s *Server) handleImage(c *fiber.Ctx) error {
	s.mu.RLock()
	img := s.image
	s.mu.RUnlock()

	if len(img) == 0 {
		return fiber.NewError(fiber.StatusNotFound, "no picture yet")
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Type("jpg")
	return c.Send(img)
}

func (s *Server) handleCapture(c *fiber.Ctx) error {
	if s.OnCapture == nil {
		return fiber.NewError(fiber.StatusNotImplemented, ErrNotConfigured.Error())
	}
	if err := s.OnCapture(); err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
}

func (s *Server) handleSnackbar(c *fiber.Ctx) error {
	id := c.Params("id")

	s.mu.Lock()
	action, ok := s.snackbars[id]
	if ok {
		delete(s.snackbars, id)
		if s.state.Snackbar != nil && s.state.Snackbar.ID == id {
			s.state.Snackbar = nil
		}
	}
	s.mu.Unlock()

	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "unknown snackbar")
	}

	e := newEvent(EventSnackbarDismissed)
	e.Snack = &Snackbar{ID: id}
	s.broadcast(e)

	if action == nil {
		return c.JSON(fiber.Map{"status": "dismissed"})
	}
	if s.Post == nil {
		return fiber.NewError(fiber.StatusNotImplemented, ErrNotConfigured.Error())
	}
	if !s.Post(action) {
		return fiber.NewError(fiber.StatusServiceUnavailable, "ui is not running")
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
}

// PermissionAnswer is the body of POST /api/permissions/:code. Grants
// follow the order of the pending request; an empty list dismisses it.
type PermissionAnswer struct {
	Grants []bool `json:"grants"`
}

func (s *Server) handlePermissionResult(c *fiber.Ctx) error {
	n, err := strconv.Atoi(c.Params("code"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request code")
	}
	code := permission.RequestCode(n)

	var body PermissionAnswer
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
		}
	}

	grants := make([]permission.Grant, len(body.Grants))
	for i, g := range body.Grants {
		if g {
			grants[i] = permission.Granted
		}
	}

	if s.OnPermissionResult == nil {
		return fiber.NewError(fiber.StatusNotImplemented, ErrNotConfigured.Error())
	}
	if err := s.OnPermissionResult(code, grants); err != nil {
		switch {
		case errors.Is(err, permission.ErrUnknownRequest):
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		case errors.Is(err, permission.ErrGrantMismatch):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	s.mu.Lock()
	if s.state.Permission != nil && s.state.Permission.Code == code {
		s.state.Permission = nil
	}
	s.mu.Unlock()

	s.broadcast(newEvent(EventPermissionClosed))
	return c.JSON(fiber.Map{"status": "recorded"})
}

func (s *Server) handleResetPermissions(c *fiber.Ctx) error {
	if s.OnResetPermissions == nil {
		return fiber.NewError(fiber.StatusNotImplemented, ErrNotConfigured.Error())
	}
	if err := s.OnResetPermissions(); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	s.mu.Lock()
	s.state.Permission = nil
	s.mu.Unlock()

	s.broadcast(newEvent(EventPermissionClosed))
	return c.JSON(fiber.Map{"status": "reset"})
}

// handleUIWS sends the current state, then streams events.
func (s *Server) handleUIWS(c *websocket.Conn) {
	client := hub.NewClient(s.hub, c)

	st := s.State()
	e := newEvent(EventState)
	e.State = &st
	if data, err := json.Marshal(e); err == nil {
		client.Send(hub.NewJSONMessage(data))
	}

	client.Run()
}
