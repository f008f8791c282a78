// Package models provides domain models for the chart analysis application.
package models

import (
	"time"
)

// Role represents the authentication level of the current session.
type Role string

const (
	RoleUnauthorized Role = "unauthorized"
	RoleUser         Role = "user"
	RoleAdmin        Role = "admin"
)

// ParseRole maps a persisted marker value back to a Role.
// Anything unrecognized resolves to RoleUnauthorized.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleUser:
		return RoleUser
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUnauthorized
	}
}

// SignalAction represents the recommended trade direction.
type SignalAction string

const (
	ActionBuy     SignalAction = "BUY"
	ActionSell    SignalAction = "SELL"
	ActionNeutral SignalAction = "NEUTRAL"
)

// HistoryLimit is the maximum number of analysis results retained,
// in memory and in either persistence backend.
const HistoryLimit = 20

// MillisPerDay is the millisecond length of one day, used for access
// code expiry arithmetic.
const MillisPerDay = 86_400_000

// AccessCode is a time-limited credential granting user-level access.
// Expiry is derived once at creation and persisted; it is never
// recomputed from Duration afterwards.
type AccessCode struct {
	Code      string  `json:"code"`
	Duration  float64 `json:"duration"` // days, fractional allowed
	CreatedAt int64   `json:"createdAt"` // epoch milliseconds
	Expiry    int64   `json:"expiry"`    // epoch milliseconds
}

// NewAccessCode creates an access code valid for durationDays from the
// given instant. The same instant is used for both CreatedAt and the
// expiry derivation.
func NewAccessCode(code string, durationDays float64, at time.Time) AccessCode {
	createdAt := at.UnixMilli()
	return AccessCode{
		Code:      code,
		Duration:  durationDays,
		CreatedAt: createdAt,
		Expiry:    createdAt + int64(durationDays*MillisPerDay),
	}
}

// ValidAt reports whether the code is still usable at the given instant.
func (c AccessCode) ValidAt(t time.Time) bool {
	return t.UnixMilli() < c.Expiry
}

// ExpiresAt returns the expiry instant.
func (c AccessCode) ExpiresAt() time.Time {
	return time.UnixMilli(c.Expiry)
}

// TradeSignal is the actionable part of an analysis result.
type TradeSignal struct {
	Pair       string       `json:"pair"`
	Action     SignalAction `json:"action"`
	Entry      string       `json:"entry"`
	TP         string       `json:"tp"`
	SL         string       `json:"sl"`
	Confidence float64      `json:"confidence"`
	Reasoning  string       `json:"reasoning"`
}

// TechnicalView holds the four technical commentary perspectives
// produced by the analysis model.
type TechnicalView struct {
	SNR       string `json:"snr"`
	ICT       string `json:"ict"`
	STD       string `json:"std"`
	Alchemist string `json:"alchemist"`
}

// AnalysisResult is one completed chart analysis. Entries are immutable
// once created and removed only by a bulk history clear.
type AnalysisResult struct {
	Signal      TradeSignal   `json:"signal"`
	Technical   TechnicalView `json:"technical"`
	Fundamental string        `json:"fundamental"`
	Timestamp   string        `json:"timestamp"` // RFC3339, stamped when the analysis returns
}

// Time parses the result timestamp. Returns the zero time if the
// timestamp is missing or malformed.
func (r *AnalysisResult) Time() time.Time {
	t, err := time.Parse(time.RFC3339, r.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}
