// Package app wires the application state: session bootstrap, the
// analysis orchestrator, and the capped history list.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chartsight/internal/analyzer"
	"chartsight/internal/audit"
	"chartsight/internal/auth"
	"chartsight/internal/errors"
	"chartsight/internal/imaging"
	"chartsight/internal/logging"
	"chartsight/internal/models"
	"chartsight/internal/store"
)

// State is the orchestrator state layered on top of whether an image
// is staged.
type State string

const (
	StateIdle      State = "idle"
	StateAnalyzing State = "analyzing"
	StateDone      State = "done"
	StateError     State = "error"
)

// App is the application root: it owns the in-memory collections and
// drives every mutation through the persistence gateway first.
type App struct {
	logger   zerolog.Logger
	store    store.Store
	analyzer analyzer.Analyzer
	audit    *audit.Logger
	now      func() time.Time

	// Auth is the access control state machine.
	Auth *auth.Manager

	mu       sync.Mutex
	history  []models.AnalysisResult
	staged   *imaging.Image
	state    State
	result   *models.AnalysisResult
	lastErr  string
	inFlight bool
}

// Option configures an App.
type Option func(*App)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

// WithAudit attaches an audit trail.
func WithAudit(l *audit.Logger) Option {
	return func(a *App) {
		a.audit = l
	}
}

// New creates the application root.
func New(logger zerolog.Logger, st store.Store, authMgr *auth.Manager, an analyzer.Analyzer, opts ...Option) *App {
	a := &App{
		logger:   logger,
		store:    st,
		analyzer: an,
		Auth:     authMgr,
		now:      time.Now,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Bootstrap runs once at startup: it populates the code collection and
// restores the role via the auth manager, then loads the persisted
// history. Load failures are surfaced but leave the app usable with
// empty collections.
func (a *App) Bootstrap(ctx context.Context) error {
	authErr := a.Auth.Bootstrap(ctx)

	start := a.now()
	history, histErr := a.store.LoadHistory(ctx)
	logging.LogStoreOp(a.logger, "load", store.CollectionHistory, a.now().Sub(start), histErr)

	a.mu.Lock()
	if len(history) > models.HistoryLimit {
		history = history[:models.HistoryLimit]
	}
	a.history = history
	a.mu.Unlock()

	if authErr != nil {
		return authErr
	}
	return histErr
}

// State returns the orchestrator state.
func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// LastError returns the message of the most recent failed analysis.
func (a *App) LastError() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// Result returns the most recent completed result, if any.
func (a *App) Result() *models.AnalysisResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// History returns a copy of the in-memory history, newest first.
func (a *App) History() []models.AnalysisResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.AnalysisResult, len(a.history))
	copy(out, a.history)
	return out
}

// Staged reports whether a chart image is staged for analysis.
func (a *App) Staged() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.staged != nil
}

// SubmitImage normalizes raw image bytes and stages them, replacing
// any previously staged image.
func (a *App) SubmitImage(data []byte, maxEdge int) error {
	img, err := imaging.NormalizeToEdge(data, maxEdge)
	if err != nil {
		return errors.Wrap(err, "staging chart image")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.staged = &img
	a.state = StateIdle
	a.result = nil
	a.lastErr = ""
	return nil
}

// SubmitImageFile stages an image from disk.
func (a *App) SubmitImageFile(path string, maxEdge int) error {
	img, err := imaging.NormalizeFile(path, maxEdge)
	if err != nil {
		return errors.Wrap(err, "staging chart image")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.staged = &img
	a.state = StateIdle
	a.result = nil
	a.lastErr = ""
	return nil
}

// RunAnalysis invokes the external analysis collaborator on the staged
// image. Only one analysis may be in flight; a second call while one is
// outstanding is rejected. On success the result is stamped with the
// current instant and written through to history before the in-memory
// list is updated; a persistence failure is returned alongside the
// result and leaves the in-memory history untouched.
func (a *App) RunAnalysis(ctx context.Context) (*models.AnalysisResult, error) {
	a.mu.Lock()
	if a.inFlight {
		a.mu.Unlock()
		return nil, errors.ErrAnalysisInFlight
	}
	if a.staged == nil {
		a.mu.Unlock()
		return nil, errors.ErrNoImageStaged
	}
	img := *a.staged
	a.inFlight = true
	a.state = StateAnalyzing
	a.result = nil
	a.lastErr = ""
	a.mu.Unlock()

	result, err := a.analyzer.Analyze(ctx, img)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.inFlight = false

	if err != nil {
		a.state = StateError
		a.lastErr = analysisMessage(err)
		a.logger.Error().Str("error", logging.Redact(err.Error())).Msg("Chart analysis failed")
		a.audit.Log(audit.EventAnalysisRun, string(a.Auth.Role()), false, a.lastErr, nil)
		return nil, err
	}

	result.Timestamp = a.now().UTC().Format(time.RFC3339)
	a.state = StateDone
	a.result = result

	logging.LogAnalysis(a.logger, result.Signal.Pair, string(result.Signal.Action), result.Signal.Confidence)
	a.audit.Log(audit.EventAnalysisRun, string(a.Auth.Role()), true, "", map[string]interface{}{
		"pair":   result.Signal.Pair,
		"action": result.Signal.Action,
	})

	start := a.now()
	persistErr := a.store.InsertHistory(ctx, result)
	logging.LogStoreOp(a.logger, "insert", store.CollectionHistory, a.now().Sub(start), persistErr)
	if persistErr != nil {
		return result, persistErr
	}

	a.history = append([]models.AnalysisResult{*result}, a.history...)
	if len(a.history) > models.HistoryLimit {
		a.history = a.history[:models.HistoryLimit]
	}
	return result, nil
}

// Reset clears the done/error state and the staged image; a new image
// must be submitted before the next analysis.
func (a *App) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inFlight {
		return
	}
	a.staged = nil
	a.state = StateIdle
	a.result = nil
	a.lastErr = ""
}

// ClearHistory removes all history entries, persisting first.
func (a *App) ClearHistory(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	start := a.now()
	err := a.store.ClearHistory(ctx)
	logging.LogStoreOp(a.logger, "clear", store.CollectionHistory, a.now().Sub(start), err)
	if err != nil {
		return err
	}

	a.history = nil
	a.audit.Log(audit.EventHistoryCleared, string(a.Auth.Role()), true, "", nil)
	return nil
}

// analysisMessage extracts the user-facing message for a failed
// analysis, or a generic fallback.
func analysisMessage(err error) string {
	var analysisErr *errors.AnalysisError
	if errors.As(err, &analysisErr) {
		return analysisErr.UserMessage()
	}
	if errors.Is(err, errors.ErrCredentialsMissing) {
		return "Analysis credentials are not configured. Set the OpenAI API key first."
	}
	if errors.Is(err, errors.ErrCredentialsInvalid) {
		return "Analysis credentials were rejected. Check the OpenAI API key."
	}
	return "Analysis failed. Please try again."
}
