// Package auth owns the authentication state machine and access code management.
//
// Both collections follow a persist-then-reflect policy: a mutation is
// written through the store first, and the in-memory list changes only
// after the write succeeds.
package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chartsight/internal/audit"
	"chartsight/internal/errors"
	"chartsight/internal/logging"
	"chartsight/internal/models"
	"chartsight/internal/session"
	"chartsight/internal/store"
)

// Manager is the access control state machine. It owns the current
// role, the outstanding access codes, and the login/logout/code
// transitions.
type Manager struct {
	mu        sync.Mutex
	role      models.Role
	codes     []models.AccessCode
	store     store.Store
	marker    session.Marker
	masterKey string
	now       func() time.Time
	logger    zerolog.Logger
	audit     *audit.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithAudit attaches an audit trail.
func WithAudit(l *audit.Logger) Option {
	return func(m *Manager) {
		m.audit = l
	}
}

// NewManager creates a manager in the unauthorized state.
func NewManager(st store.Store, marker session.Marker, masterKey string, opts ...Option) *Manager {
	m := &Manager{
		role:      models.RoleUnauthorized,
		store:     st,
		marker:    marker,
		masterKey: masterKey,
		now:       time.Now,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Bootstrap loads the persisted code collection and restores the role
// from the session marker. Called once at startup.
func (m *Manager) Bootstrap(ctx context.Context) error {
	codes, err := m.store.LoadCodes(ctx)

	m.mu.Lock()
	m.codes = codes
	if role, ok := m.marker.Read(); ok {
		m.role = role
	}
	m.mu.Unlock()

	return err
}

// Role returns the current authentication state.
func (m *Manager) Role() models.Role {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.role
}

// Codes returns a copy of the outstanding access codes, newest first.
// Expired codes stay listed until deleted.
func (m *Manager) Codes() []models.AccessCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.AccessCode, len(m.codes))
	copy(out, m.codes)
	return out
}

// Login attempts a user-level login. The input is normalized to upper
// case, then compared case-sensitively against the code collection; the
// code must also be unexpired at the current instant.
func (m *Manager) Login(input string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	submitted := strings.ToUpper(strings.TrimSpace(input))
	now := m.now()

	for _, c := range m.codes {
		if c.Code == submitted && c.ValidAt(now) {
			m.role = models.RoleUser
			m.marker.Write(models.RoleUser)
			logging.LogLogin(m.logger, string(models.RoleUser), true)
			m.audit.Log(audit.EventLogin, string(models.RoleUser), true, "", nil)
			return nil
		}
	}
	logging.LogLogin(m.logger, string(models.RoleUnauthorized), false)
	m.audit.Log(audit.EventAuthFailed, string(models.RoleUnauthorized), false, errors.ErrInvalidAccessCode.Error(), map[string]interface{}{
		"code": logging.MaskCode(submitted),
	})
	return errors.ErrInvalidAccessCode
}

// LoginMaster attempts an admin-level login. The submitted value must
// equal the configured master key exactly.
func (m *Manager) LoginMaster(input string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if input != m.masterKey {
		logging.LogLogin(m.logger, string(models.RoleUnauthorized), false)
		m.audit.Log(audit.EventAuthFailed, string(models.RoleUnauthorized), false, errors.ErrInvalidMasterKey.Error(), nil)
		return errors.ErrInvalidMasterKey
	}
	m.role = models.RoleAdmin
	m.marker.Write(models.RoleAdmin)
	logging.LogLogin(m.logger, string(models.RoleAdmin), true)
	m.audit.Log(audit.EventLogin, string(models.RoleAdmin), true, "", nil)
	return nil
}

// Logout returns to the unauthorized state and clears the session
// marker. Logging out while already unauthorized is a no-op, including
// on the marker.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.role == models.RoleUnauthorized {
		return nil
	}
	previous := m.role
	m.role = models.RoleUnauthorized
	m.audit.Log(audit.EventLogout, string(previous), true, "", nil)
	return m.marker.Clear()
}

// GenerateCode issues a new access code valid for durationDays
// (fractional days allowed, e.g. 1.0/24 for one hour). Admin only.
func (m *Manager) GenerateCode(ctx context.Context, durationDays float64) (models.AccessCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.role != models.RoleAdmin {
		return models.AccessCode{}, errors.ErrAdminRequired
	}
	if durationDays <= 0 {
		return models.AccessCode{}, errors.NewValidationError("duration", durationDays, "must be positive")
	}

	value, err := m.newCodeValueLocked()
	if err != nil {
		return models.AccessCode{}, errors.Wrap(err, "generating access code")
	}

	code := models.NewAccessCode(value, durationDays, m.now())

	if err := m.store.InsertCode(ctx, code); err != nil {
		return models.AccessCode{}, err
	}
	m.codes = append([]models.AccessCode{code}, m.codes...)
	logging.LogCodeIssued(m.logger, code.Code, durationDays)
	m.audit.Log(audit.EventCodeIssued, string(m.role), true, "", map[string]interface{}{
		"code":          logging.MaskCode(code.Code),
		"duration_days": durationDays,
	})
	return code, nil
}

// DeleteCode revokes an access code. Admin only. Deleting a code that
// is not in the collection is a graceful no-op.
func (m *Manager) DeleteCode(ctx context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.role != models.RoleAdmin {
		return errors.ErrAdminRequired
	}

	value = strings.ToUpper(strings.TrimSpace(value))
	if err := m.store.DeleteCode(ctx, value); err != nil {
		return err
	}

	kept := m.codes[:0]
	for _, c := range m.codes {
		if c.Code != value {
			kept = append(kept, c)
		}
	}
	m.codes = kept
	logging.LogCodeRevoked(m.logger, value)
	m.audit.Log(audit.EventCodeRevoked, string(m.role), true, "", map[string]interface{}{
		"code": logging.MaskCode(value),
	})
	return nil
}

// newCodeValueLocked draws a fresh code, retrying a bounded number of
// times if it collides with an outstanding one.
func (m *Manager) newCodeValueLocked() (string, error) {
	var value string
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		value, err = randomCode()
		if err != nil {
			return "", err
		}
		if !m.hasCodeLocked(value) {
			return value, nil
		}
	}
	// Residual collision risk accepted after bounded retries.
	return value, nil
}

func (m *Manager) hasCodeLocked(value string) bool {
	for _, c := range m.codes {
		if c.Code == value {
			return true
		}
	}
	return false
}
