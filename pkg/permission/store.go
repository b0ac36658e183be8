package permission

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// state is what the store remembers about one permission.
type state string

const (
	stateUnset   state = ""
	stateGranted state = "granted"
	stateDenied  state = "denied"
)

// Store is a consent store implementing Checker.
//
// Decisions are made by the user through whatever surface is registered
// with OnRequest (the dashboard shows a dialog) and reported back with
// Resolve. If a path is set the decisions survive restarts.
type Store struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	states  map[Permission]state
	pending map[RequestCode]Request

	onRequest func(Request)
	onResult  ResultHandler
}

// storeData is the JSON structure for the consent file.
type storeData struct {
	Version     int                  `json:"version"`
	UpdatedAt   string               `json:"updated_at"`
	Permissions map[Permission]state `json:"permissions"`
}

const currentVersion = 1

// NewStore creates a consent store. An empty path keeps decisions in memory.
// If the file exists it is loaded; otherwise it is created on first change.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		path:    path,
		logger:  logger.With("component", "permission"),
		states:  make(map[Permission]state),
		pending: make(map[RequestCode]Request),
	}

	if path == "" {
		return s, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create consent directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := s.load(); err != nil {
			return nil, fmt.Errorf("failed to load consent file: %w", err)
		}
	}

	return s, nil
}

// OnRequest sets the hook that presents a request to the user.
func (s *Store) OnRequest(fn func(Request)) {
	s.mu.Lock()
	s.onRequest = fn
	s.mu.Unlock()
}

// OnResult sets the handler that receives resolved requests.
func (s *Store) OnResult(fn ResultHandler) {
	s.mu.Lock()
	s.onResult = fn
	s.mu.Unlock()
}

// Check reports whether p has been granted.
func (s *Store) Check(p Permission) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[p] == stateGranted
}

// ShouldShowRationale is true once the user has denied p.
func (s *Store) ShouldShowRationale(p Permission) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[p] == stateDenied
}

// Request records a pending request and hands it to the OnRequest hook.
// A new request with the same code replaces the previous one.
func (s *Store) Request(code RequestCode, perms []Permission) {
	req := Request{Code: code, Permissions: append([]Permission(nil), perms...)}

	s.mu.Lock()
	s.pending[code] = req
	hook := s.onRequest
	s.mu.Unlock()

	s.logger.Info("permission request", "code", int(code), "permissions", perms)

	if hook != nil {
		hook(req)
	}
}

// Pending returns the outstanding request for code, if any.
func (s *Store) Pending(code RequestCode) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.pending[code]
	return req, ok
}

// Resolve answers the pending request for code. grants must be empty
// (dismissed) or line up with the requested permissions. The result
// handler is invoked after the decisions are stored.
func (s *Store) Resolve(code RequestCode, grants []Grant) error {
	s.mu.Lock()
	req, ok := s.pending[code]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w %d", ErrUnknownRequest, code)
	}
	if len(grants) != 0 && len(grants) != len(req.Permissions) {
		s.mu.Unlock()
		return fmt.Errorf("%w: got %d, want %d", ErrGrantMismatch, len(grants), len(req.Permissions))
	}
	delete(s.pending, code)

	for i, g := range grants {
		if g == Granted {
			s.states[req.Permissions[i]] = stateGranted
		} else {
			s.states[req.Permissions[i]] = stateDenied
		}
	}

	var saveErr error
	if len(grants) > 0 {
		saveErr = s.save()
	}
	handler := s.onResult
	s.mu.Unlock()

	if saveErr != nil {
		s.logger.Warn("failed to persist consent", "error", saveErr)
	}
	s.logger.Info("permission result", "code", int(code), "grants", grants)

	if handler != nil {
		handler(code, req.Permissions, append([]Grant(nil), grants...))
	}
	return nil
}

// Revoke forgets the decision for p so the next check asks again without
// a rationale.
func (s *Store) Revoke(p Permission) error {
	if !p.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownPermission, p)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, p)
	return s.save()
}

// Reset forgets every decision and drops pending requests.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = make(map[Permission]state)
	s.pending = make(map[RequestCode]Request)
	return s.save()
}

// load reads the consent file. Unknown permission names are ignored.
func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var stored storeData
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for p, st := range stored.Permissions {
		if p.Valid() && (st == stateGranted || st == stateDenied) {
			s.states[p] = st
		}
	}
	return nil
}

// save writes the consent file. Caller holds s.mu.
func (s *Store) save() error {
	if s.path == "" {
		return nil
	}

	stored := storeData{
		Version:     currentVersion,
		UpdatedAt:   time.Now().Format(time.RFC3339),
		Permissions: s.states,
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	// Write to temp file first, then rename
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
