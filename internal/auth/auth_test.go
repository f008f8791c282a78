package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"chartsight/internal/errors"
	"chartsight/internal/models"
	"chartsight/internal/session"
)

// fakeStore is an in-memory store.Store for state machine tests.
type fakeStore struct {
	codes   []models.AccessCode
	history []models.AnalysisResult
	failAll bool
}

func (f *fakeStore) LoadHistory(ctx context.Context) ([]models.AnalysisResult, error) {
	if f.failAll {
		return nil, errors.NewStoreError("load", "history", errors.ErrStoreUnavailable)
	}
	return f.history, nil
}

func (f *fakeStore) InsertHistory(ctx context.Context, r *models.AnalysisResult) error {
	if f.failAll {
		return errors.NewStoreError("insert", "history", errors.ErrStoreUnavailable)
	}
	f.history = append([]models.AnalysisResult{*r}, f.history...)
	return nil
}

func (f *fakeStore) ClearHistory(ctx context.Context) error {
	if f.failAll {
		return errors.NewStoreError("clear", "history", errors.ErrStoreUnavailable)
	}
	f.history = nil
	return nil
}

func (f *fakeStore) LoadCodes(ctx context.Context) ([]models.AccessCode, error) {
	if f.failAll {
		return nil, errors.NewStoreError("load", "access_codes", errors.ErrStoreUnavailable)
	}
	return f.codes, nil
}

func (f *fakeStore) InsertCode(ctx context.Context, c models.AccessCode) error {
	if f.failAll {
		return errors.NewStoreError("insert", "access_codes", errors.ErrStoreUnavailable)
	}
	f.codes = append([]models.AccessCode{c}, f.codes...)
	return nil
}

func (f *fakeStore) DeleteCode(ctx context.Context, code string) error {
	if f.failAll {
		return errors.NewStoreError("delete", "access_codes", errors.ErrStoreUnavailable)
	}
	kept := f.codes[:0]
	for _, c := range f.codes {
		if c.Code != code {
			kept = append(kept, c)
		}
	}
	f.codes = kept
	return nil
}

func (f *fakeStore) Backend() string { return "fake" }
func (f *fakeStore) Close() error    { return nil }

func newTestManager(t *testing.T, st *fakeStore, at time.Time) (*Manager, *session.MemoryMarker) {
	t.Helper()
	marker := session.NewMemoryMarker()
	m := NewManager(st, marker, "MASTER-KEY", WithClock(func() time.Time { return at }))
	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	return m, marker
}

func TestLogin(t *testing.T) {
	t0 := time.UnixMilli(1_700_000_000_000)
	code := models.NewAccessCode("AB12CD34", 7, t0)

	tests := []struct {
		name    string
		input   string
		at      time.Time
		wantErr bool
	}{
		{"valid code", "AB12CD34", t0.Add(time.Hour), false},
		{"lowercase input normalized", "ab12cd34", t0.Add(time.Hour), false},
		{"whitespace trimmed", "  AB12CD34  ", t0.Add(time.Hour), false},
		{"unknown code", "ZZZZZZZZ", t0.Add(time.Hour), true},
		{"expired code", "AB12CD34", t0.Add(8 * 24 * time.Hour), true},
		{"exactly at expiry", "AB12CD34", code.ExpiresAt(), true},
		{"one millisecond before expiry", "AB12CD34", code.ExpiresAt().Add(-time.Millisecond), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &fakeStore{codes: []models.AccessCode{code}}
			m, marker := newTestManager(t, st, tt.at)

			err := m.Login(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected login to fail")
				}
				if err.Error() != "Invalid or Expired Access Code" {
					t.Errorf("unexpected error message: %q", err.Error())
				}
				if m.Role() != models.RoleUnauthorized {
					t.Errorf("role changed on failed login: %v", m.Role())
				}
				return
			}

			if err != nil {
				t.Fatalf("login failed: %v", err)
			}
			if m.Role() != models.RoleUser {
				t.Errorf("role = %v, want user", m.Role())
			}
			if role, ok := marker.Read(); !ok || role != models.RoleUser {
				t.Errorf("marker = (%v, %v), want (user, true)", role, ok)
			}
		})
	}
}

func TestLoginMaster(t *testing.T) {
	st := &fakeStore{}
	m, marker := newTestManager(t, st, time.Now())

	if err := m.LoginMaster("wrong"); err == nil {
		t.Fatal("expected master login to fail")
	} else if err.Error() != "Invalid Master Code" {
		t.Errorf("unexpected error message: %q", err.Error())
	}
	if m.Role() != models.RoleUnauthorized {
		t.Errorf("role changed on failed master login: %v", m.Role())
	}

	// Exact match required, including case.
	if err := m.LoginMaster("master-key"); err == nil {
		t.Fatal("case-insensitive master match must fail")
	}

	if err := m.LoginMaster("MASTER-KEY"); err != nil {
		t.Fatalf("master login failed: %v", err)
	}
	if m.Role() != models.RoleAdmin {
		t.Errorf("role = %v, want admin", m.Role())
	}
	if role, ok := marker.Read(); !ok || role != models.RoleAdmin {
		t.Errorf("marker = (%v, %v), want (admin, true)", role, ok)
	}
}

func TestLogoutIdempotent(t *testing.T) {
	st := &fakeStore{}
	m, marker := newTestManager(t, st, time.Now())

	if err := m.LoginMaster("MASTER-KEY"); err != nil {
		t.Fatalf("master login failed: %v", err)
	}
	if err := m.Logout(); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if m.Role() != models.RoleUnauthorized {
		t.Errorf("role = %v after logout", m.Role())
	}
	if _, ok := marker.Read(); ok {
		t.Error("marker not cleared on logout")
	}

	// Logging out when already unauthorized touches nothing.
	marker.Write(models.RoleUser) // plant a marker to detect spurious clears
	if err := m.Logout(); err != nil {
		t.Fatalf("second logout failed: %v", err)
	}
	if _, ok := marker.Read(); !ok {
		t.Error("logout while unauthorized must not touch the marker")
	}
}

func TestGenerateCode(t *testing.T) {
	t0 := time.UnixMilli(1_700_000_000_000)
	st := &fakeStore{}
	m, _ := newTestManager(t, st, t0)

	if _, err := m.GenerateCode(context.Background(), 7); !errors.Is(err, errors.ErrAdminRequired) {
		t.Fatalf("expected ErrAdminRequired before admin login, got %v", err)
	}

	if err := m.LoginMaster("MASTER-KEY"); err != nil {
		t.Fatalf("master login failed: %v", err)
	}

	code, err := m.GenerateCode(context.Background(), 7)
	if err != nil {
		t.Fatalf("GenerateCode failed: %v", err)
	}

	if len(code.Code) != CodeLength {
		t.Errorf("code length = %d, want %d", len(code.Code), CodeLength)
	}
	for _, r := range code.Code {
		if !strings.ContainsRune(CodeAlphabet, r) {
			t.Errorf("code %q contains %q outside the alphabet", code.Code, r)
		}
	}
	if code.CreatedAt != t0.UnixMilli() {
		t.Errorf("CreatedAt = %d, want %d", code.CreatedAt, t0.UnixMilli())
	}
	if got := code.Expiry - code.CreatedAt; got != 7*models.MillisPerDay {
		t.Errorf("expiry - createdAt = %d, want %d", got, 7*models.MillisPerDay)
	}

	// Persisted and reflected, newest first.
	if len(st.codes) != 1 || st.codes[0].Code != code.Code {
		t.Errorf("store codes = %+v", st.codes)
	}
	if got := m.Codes(); len(got) != 1 || got[0].Code != code.Code {
		t.Errorf("in-memory codes = %+v", got)
	}

	if _, err := m.GenerateCode(context.Background(), 0); err == nil {
		t.Error("zero duration must be rejected")
	}
}

func TestGenerateCodePersistFailure(t *testing.T) {
	st := &fakeStore{}
	m, _ := newTestManager(t, st, time.Now())
	if err := m.LoginMaster("MASTER-KEY"); err != nil {
		t.Fatalf("master login failed: %v", err)
	}

	st.failAll = true
	if _, err := m.GenerateCode(context.Background(), 1); err == nil {
		t.Fatal("expected persistence failure")
	}
	if len(m.Codes()) != 0 {
		t.Error("in-memory codes mutated despite persistence failure")
	}
}

func TestDeleteCode(t *testing.T) {
	t0 := time.Now()
	st := &fakeStore{codes: []models.AccessCode{
		models.NewAccessCode("KEEP1111", 1, t0),
		models.NewAccessCode("DROP2222", 1, t0),
	}}
	m, _ := newTestManager(t, st, t0)
	if err := m.LoginMaster("MASTER-KEY"); err != nil {
		t.Fatalf("master login failed: %v", err)
	}

	if err := m.DeleteCode(context.Background(), "drop2222"); err != nil {
		t.Fatalf("DeleteCode failed: %v", err)
	}
	if got := m.Codes(); len(got) != 1 || got[0].Code != "KEEP1111" {
		t.Errorf("codes after delete = %+v", got)
	}

	// Deleting an absent code is a graceful no-op.
	if err := m.DeleteCode(context.Background(), "MISSING9"); err != nil {
		t.Fatalf("deleting an absent code errored: %v", err)
	}
	if got := m.Codes(); len(got) != 1 {
		t.Errorf("collection changed on absent delete: %+v", got)
	}
}

func TestHourCodeScenario(t *testing.T) {
	t0 := time.UnixMilli(1_700_000_000_000)
	now := t0
	st := &fakeStore{}
	marker := session.NewMemoryMarker()
	m := NewManager(st, marker, "MASTER-KEY", WithClock(func() time.Time { return now }))
	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}

	if err := m.LoginMaster("MASTER-KEY"); err != nil {
		t.Fatalf("master login failed: %v", err)
	}
	code, err := m.GenerateCode(context.Background(), 1.0/24)
	if err != nil {
		t.Fatalf("GenerateCode failed: %v", err)
	}
	if got := code.Expiry - code.CreatedAt; got != 3_600_000 {
		t.Fatalf("one-hour code expiry delta = %d, want 3600000", got)
	}
	if err := m.Logout(); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	now = t0.Add(1_000_000 * time.Millisecond)
	if err := m.Login(code.Code); err != nil {
		t.Fatalf("login within validity failed: %v", err)
	}
	if err := m.Logout(); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	now = t0.Add(3_700_000 * time.Millisecond)
	err = m.Login(code.Code)
	if err == nil {
		t.Fatal("login after expiry succeeded")
	}
	if err.Error() != "Invalid or Expired Access Code" {
		t.Errorf("unexpected error message: %q", err.Error())
	}
}

func TestBootstrapRestoresMarker(t *testing.T) {
	st := &fakeStore{}
	marker := session.NewMemoryMarker()
	marker.Write(models.RoleAdmin)

	m := NewManager(st, marker, "MASTER-KEY")
	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if m.Role() != models.RoleAdmin {
		t.Errorf("role = %v, want admin restored from marker", m.Role())
	}
}
