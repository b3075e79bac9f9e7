// Package models helps control struct access and mutation
package models

import (
	"time"

	"github.com/benjamonnguyen/breathe-go"
)

type SessionSettings struct {
	Duration   time.Duration
	PatternKey breathe.PatternKey

	// ExcludePausedTime subtracts time spent paused from elapsed time.
	// Off by default: elapsed is measured from StartedAt on the wall clock.
	ExcludePausedTime bool
}

// Session is the breathing session state machine. It never reads the clock
// itself; every time-dependent method takes now.
type Session struct {
	ID       breathe.SessionID
	Settings SessionSettings

	state       breathe.SessionState
	startedAt   time.Time
	pausedAt    time.Time
	pausedTotal time.Duration

	// display
	remaining     time.Duration
	progress      float64
	phaseIdx      int // -1 shows breathe.IdlePhase
	phaseDeadline time.Time
}

func NewSession(id breathe.SessionID, settings SessionSettings) Session {
	if settings.Duration == 0 {
		settings.Duration = breathe.DefaultDuration
	}
	if settings.PatternKey == "" {
		settings.PatternKey = breathe.DefaultPattern
	}
	if !breathe.IsDurationPreset(settings.Duration) {
		panic("duration is not a preset: " + settings.Duration.String())
	}
	if _, ok := breathe.GetPattern(settings.PatternKey); !ok {
		panic("unknown pattern: " + string(settings.PatternKey))
	}
	s := Session{
		ID:       id,
		Settings: settings,
	}
	s.resetDisplay()
	return s
}

// TickResult reports what a tick changed.
type TickResult struct {
	CountdownChanged bool
	PhaseChanged     bool
	Completed        bool
}

func (r TickResult) Changed() bool {
	return r.CountdownChanged || r.PhaseChanged || r.Completed
}

func (s *Session) SelectDuration(d time.Duration) error {
	if s.state != breathe.SessionSetup {
		return ErrInvalidTransition
	}
	if !breathe.IsDurationPreset(d) {
		return ErrInvalidDuration
	}
	s.Settings.Duration = d
	s.remaining = d
	return nil
}

func (s *Session) SelectPattern(key breathe.PatternKey) error {
	if s.state != breathe.SessionSetup {
		return ErrInvalidTransition
	}
	if _, ok := breathe.GetPattern(key); !ok {
		return ErrUnknownPattern
	}
	s.Settings.PatternKey = key
	return nil
}

func (s *Session) Start(now time.Time) error {
	if s.state != breathe.SessionSetup {
		return ErrInvalidTransition
	}
	s.state = breathe.SessionRunning
	s.startedAt = now
	s.pausedAt = time.Time{}
	s.pausedTotal = 0
	s.remaining = s.Settings.Duration
	s.progress = 0
	s.restartRotation(now)
	return nil
}

func (s *Session) Pause(now time.Time) error {
	if s.state != breathe.SessionRunning {
		return ErrInvalidTransition
	}
	s.state = breathe.SessionPaused
	s.pausedAt = now
	return nil
}

// Resume re-enters Running. The phase rotation starts over from the first phase.
func (s *Session) Resume(now time.Time) error {
	if s.state != breathe.SessionPaused {
		return ErrInvalidTransition
	}
	if s.Settings.ExcludePausedTime && now.After(s.pausedAt) {
		s.pausedTotal += now.Sub(s.pausedAt)
	}
	s.pausedAt = time.Time{}
	s.state = breathe.SessionRunning
	s.restartRotation(now)
	return nil
}

// Stop abandons an active session and returns to setup.
func (s *Session) Stop() error {
	if !s.state.IsActive() {
		return ErrInvalidTransition
	}
	s.reset()
	return nil
}

// Reset leaves a completed session for a fresh setup.
func (s *Session) Reset() error {
	if s.state != breathe.SessionComplete {
		return ErrInvalidTransition
	}
	s.reset()
	return nil
}

// Tick advances the countdown and the phase rotation to now. It is a no-op unless Running.
func (s *Session) Tick(now time.Time) TickResult {
	var res TickResult
	if s.state != breathe.SessionRunning {
		return res
	}

	secs := s.elapsedSeconds(now)
	total := int64(s.Settings.Duration / time.Second)
	remaining := time.Duration(max(0, total-secs)) * time.Second
	progress := float64(secs) / float64(total) * 100
	if remaining != s.remaining || progress != s.progress {
		res.CountdownChanged = true
	}
	s.remaining = remaining
	s.progress = progress

	if remaining <= 0 {
		s.state = breathe.SessionComplete
		res.Completed = true
		return res
	}

	pattern := s.Pattern()
	for !now.Before(s.phaseDeadline) {
		s.phaseIdx = (s.phaseIdx + 1) % len(pattern.Phases)
		s.phaseDeadline = s.phaseDeadline.Add(pattern.Phases[s.phaseIdx].Duration)
		res.PhaseChanged = true
	}
	return res
}

// Elapsed is the derived elapsed time, floored to seconds and clamped to the duration.
func (s Session) Elapsed(now time.Time) time.Duration {
	if s.startedAt.IsZero() {
		return 0
	}
	secs := s.elapsedSeconds(now)
	return min(time.Duration(secs)*time.Second, s.Settings.Duration)
}

func (s Session) elapsedSeconds(now time.Time) int64 {
	at := now
	if s.state == breathe.SessionPaused {
		at = s.pausedAt
	}
	elapsed := at.Sub(s.startedAt) - s.pausedTotal
	if elapsed < 0 {
		return 0
	}
	return int64(elapsed / time.Second)
}

func (s *Session) restartRotation(now time.Time) {
	pattern := s.Pattern()
	s.phaseIdx = 0
	s.phaseDeadline = now.Add(pattern.Phases[0].Duration)
}

func (s *Session) reset() {
	s.state = breathe.SessionSetup
	s.startedAt = time.Time{}
	s.pausedAt = time.Time{}
	s.pausedTotal = 0
	s.resetDisplay()
}

func (s *Session) resetDisplay() {
	s.remaining = s.Settings.Duration
	s.progress = 0
	s.phaseIdx = -1
	s.phaseDeadline = time.Time{}
}

func (s Session) State() breathe.SessionState {
	return s.state
}

func (s Session) StartedAt() time.Time {
	return s.startedAt
}

func (s Session) Remaining() time.Duration {
	return s.remaining
}

// Progress is elapsed/duration in percent. It is not clamped.
func (s Session) Progress() float64 {
	return s.progress
}

func (s Session) Pattern() breathe.Pattern {
	p, _ := breathe.GetPattern(s.Settings.PatternKey)
	return p
}

func (s Session) PhaseIndex() int {
	return s.phaseIdx
}

func (s Session) Phase() breathe.Phase {
	if s.phaseIdx < 0 {
		return breathe.IdlePhase
	}
	return s.Pattern().Phases[s.phaseIdx]
}

// TickPeriod is the coarsest period that lands on every countdown second and phase boundary.
func TickPeriod(p breathe.Pattern) time.Duration {
	period := time.Second
	for _, ph := range p.Phases {
		period = gcd(period, ph.Duration)
	}
	return period
}

func gcd(a, b time.Duration) time.Duration {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
