package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"chartsight/internal/models"
	"chartsight/internal/session"
)

// Property: every generated code is exactly CodeLength characters long
// and drawn entirely from the unambiguous uppercase alphabet.
func TestProperty_GeneratedCodeShape(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("generated codes match length and alphabet", prop.ForAll(
		func(_ int) bool {
			code, err := randomCode()
			if err != nil {
				t.Logf("randomCode failed: %v", err)
				return false
			}
			if len(code) != CodeLength {
				t.Logf("code %q has length %d", code, len(code))
				return false
			}
			for _, r := range code {
				if !strings.ContainsRune(CodeAlphabet, r) {
					t.Logf("code %q contains %q", code, r)
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}

// Property: for any positive duration in days, the issued code's expiry
// minus its creation instant equals the duration converted to
// milliseconds, and the code validates strictly before that expiry and
// never at or after it.
func TestProperty_CodeExpiryArithmetic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("expiry delta equals duration in milliseconds", prop.ForAll(
		func(durationDays float64, baseMillis int64) bool {
			t0 := time.UnixMilli(baseMillis)
			code := models.NewAccessCode("TESTCODE", durationDays, t0)

			wantDelta := int64(durationDays * models.MillisPerDay)
			if code.Expiry-code.CreatedAt != wantDelta {
				t.Logf("delta = %d, want %d", code.Expiry-code.CreatedAt, wantDelta)
				return false
			}
			if wantDelta > 0 && !code.ValidAt(code.ExpiresAt().Add(-time.Millisecond)) {
				t.Log("code invalid one millisecond before expiry")
				return false
			}
			if code.ValidAt(code.ExpiresAt()) {
				t.Log("code still valid at its expiry instant")
				return false
			}
			return true
		},
		gen.Float64Range(0.001, 365),
		gen.Int64Range(1_600_000_000_000, 1_900_000_000_000),
	))

	properties.TestingRun(t)
}

// Property: a login attempt with an issued code succeeds exactly when the
// clock sits inside the code's validity window, regardless of the case
// or surrounding whitespace of the submitted value.
func TestProperty_LoginValidityWindow(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("login succeeds iff clock is within validity", prop.ForAll(
		func(durationDays float64, offsetMillis int64, lowercase bool) bool {
			t0 := time.UnixMilli(1_700_000_000_000)
			now := t0
			st := &fakeStore{}
			m := NewManager(st, session.NewMemoryMarker(), "MASTER-KEY",
				WithClock(func() time.Time { return now }))
			if err := m.Bootstrap(context.Background()); err != nil {
				t.Logf("Bootstrap failed: %v", err)
				return false
			}
			if err := m.LoginMaster("MASTER-KEY"); err != nil {
				t.Logf("master login failed: %v", err)
				return false
			}
			code, err := m.GenerateCode(context.Background(), durationDays)
			if err != nil {
				t.Logf("GenerateCode failed: %v", err)
				return false
			}
			if err := m.Logout(); err != nil {
				t.Logf("logout failed: %v", err)
				return false
			}

			now = t0.Add(time.Duration(offsetMillis) * time.Millisecond)
			submitted := code.Code
			if lowercase {
				submitted = "  " + strings.ToLower(submitted) + " "
			}
			err = m.Login(submitted)

			withinWindow := now.UnixMilli() < code.Expiry
			if withinWindow {
				return err == nil && m.Role() == models.RoleUser
			}
			return err != nil && m.Role() == models.RoleUnauthorized
		},
		gen.Float64Range(0.01, 30),
		gen.Int64Range(0, 40*models.MillisPerDay),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
