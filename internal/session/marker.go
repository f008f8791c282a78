// Package session persists the ephemeral authentication marker.
//
// The marker mirrors the current role so a restart within the same
// machine session resumes it. It lives in the per-boot temp directory,
// deliberately separate from the persistent store: clearing one never
// touches the other.
package session

import (
	"os"
	"path/filepath"
	"strings"

	"chartsight/internal/models"
)

// Marker abstracts the ephemeral session marker so it can be backed by
// a file (default) or held in memory for tests.
type Marker interface {
	// Read returns the persisted role. ok is false when no marker is
	// present or its contents are unrecognized.
	Read() (role models.Role, ok bool)
	// Write persists the given role.
	Write(role models.Role) error
	// Clear removes the marker. Clearing an absent marker is a no-op.
	Clear() error
}

// FileMarker stores the marker as a single-line file.
type FileMarker struct {
	path string
}

// DefaultMarkerPath returns the default marker location in the per-boot
// temp directory.
func DefaultMarkerPath() string {
	return filepath.Join(os.TempDir(), "chartsight-session")
}

// NewFileMarker creates a file-backed marker at the given path.
// An empty path selects the default location.
func NewFileMarker(path string) *FileMarker {
	if path == "" {
		path = DefaultMarkerPath()
	}
	return &FileMarker{path: path}
}

// Read implements Marker.
func (m *FileMarker) Read() (models.Role, bool) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return models.RoleUnauthorized, false
	}
	role := models.ParseRole(strings.TrimSpace(string(data)))
	if role == models.RoleUnauthorized {
		return models.RoleUnauthorized, false
	}
	return role, true
}

// Write implements Marker.
func (m *FileMarker) Write(role models.Role) error {
	return os.WriteFile(m.path, []byte(role), 0600)
}

// Clear implements Marker.
func (m *FileMarker) Clear() error {
	err := os.Remove(m.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MemoryMarker is an in-memory Marker for tests.
type MemoryMarker struct {
	role models.Role
	set  bool
}

// NewMemoryMarker creates an empty in-memory marker.
func NewMemoryMarker() *MemoryMarker {
	return &MemoryMarker{}
}

// Read implements Marker.
func (m *MemoryMarker) Read() (models.Role, bool) {
	if !m.set {
		return models.RoleUnauthorized, false
	}
	return m.role, true
}

// Write implements Marker.
func (m *MemoryMarker) Write(role models.Role) error {
	m.role = role
	m.set = true
	return nil
}

// Clear implements Marker.
func (m *MemoryMarker) Clear() error {
	m.role = models.RoleUnauthorized
	m.set = false
	return nil
}
