package main

import (
	"sync"
	"time"

	"github.com/benjamonnguyen/breathe-go"
	"github.com/benjamonnguyen/breathe-go/cmd/bot/models"
	"github.com/charmbracelet/log"
)

// SessionView is an immutable snapshot of everything a view renders.
type SessionView struct {
	Seq          uint64
	SessionID    breathe.SessionID
	TextCID      breathe.TextChannelID
	State        breathe.SessionState
	Duration     time.Duration
	Pattern      breathe.Pattern
	Remaining    time.Duration
	Progress     float64
	Phase        breathe.Phase
	AudioEnabled bool
	Volume       int
	Colors       breathe.Colors
}

// SessionUpdate is published after every change to a controller.
type SessionUpdate struct {
	View             SessionView
	StateChanged     bool
	PhaseChanged     bool
	CountdownChanged bool
	SettingsChanged  bool
}

// Urgent reports whether the update should reach the user without throttling.
func (u SessionUpdate) Urgent() bool {
	return u.StateChanged || u.PhaseChanged || u.SettingsChanged
}

type controllerConfig struct {
	id                breathe.SessionID
	textCID           breathe.TextChannelID
	prefs             breathe.PreferencesRecord
	excludePausedTime bool
	clock             Clock
	player            AudioPlayer
	bridge            HostBridge
	l                 *log.Logger
}

// SessionController owns one breathing session: its state machine, the tick
// source driving countdown and phase rotation, and the background audio.
type SessionController struct {
	mu           sync.Mutex
	session      models.Session
	textCID      breathe.TextChannelID
	audioEnabled bool
	volume       int
	colors       breathe.Colors
	closed       bool
	seq          uint64

	// tick source; gen is bumped whenever the running period ends
	stopTicks func()
	gen       uint64

	clock  Clock
	player AudioPlayer
	bridge HostBridge
	l      *log.Logger

	onUpdate func(SessionUpdate)
}

func NewSessionController(cfg controllerConfig) *SessionController {
	if cfg.clock == nil {
		cfg.clock = realClock{}
	}
	if cfg.player == nil {
		cfg.player = noopPlayer{}
	}
	if cfg.bridge == nil {
		cfg.bridge = noopBridge{}
	}
	if cfg.l == nil {
		cfg.l = log.Default()
	}
	prefs := cfg.prefs
	if !breathe.IsDurationPreset(prefs.Duration) {
		prefs.Duration = breathe.DefaultDuration
	}
	if _, ok := breathe.GetPattern(prefs.PatternKey); !ok {
		prefs.PatternKey = breathe.DefaultPattern
	}

	c := &SessionController{
		session: models.NewSession(cfg.id, models.SessionSettings{
			Duration:          prefs.Duration,
			PatternKey:        prefs.PatternKey,
			ExcludePausedTime: cfg.excludePausedTime,
		}),
		textCID:      cfg.textCID,
		audioEnabled: prefs.AudioEnabled,
		volume:       clampVolume(prefs.Volume),
		clock:        cfg.clock,
		player:       cfg.player,
		bridge:       cfg.bridge,
		l:            cfg.l.With("sid", cfg.id),
	}
	c.player.SetVolume(c.volume)
	c.colors = breathe.DeriveColors(c.bridge.Theme())

	c.bridge.Ready()
	c.bridge.Expand()
	c.bridge.OnThemeChange(c.applyTheme)
	return c
}

// OnUpdate sets the single subscriber for updates. fn is called without the controller lock held.
func (c *SessionController) OnUpdate(fn func(SessionUpdate)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUpdate = fn
}

func (c *SessionController) Snapshot() SessionView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view()
}

func (c *SessionController) Start() (SessionView, error) {
	return c.mutate(func(now time.Time) (SessionUpdate, error) {
		if err := c.session.Start(now); err != nil {
			return SessionUpdate{}, err
		}
		c.startTicks()
		if c.audioEnabled {
			c.playAudio()
		}
		c.l.Debug("session started",
			"duration", c.session.Settings.Duration,
			"pattern", c.session.Settings.PatternKey,
			"cycle", c.session.Pattern().CycleDuration(),
		)
		return SessionUpdate{StateChanged: true, PhaseChanged: true, CountdownChanged: true}, nil
	})
}

func (c *SessionController) Pause() (SessionView, error) {
	return c.mutate(func(now time.Time) (SessionUpdate, error) {
		if err := c.session.Pause(now); err != nil {
			return SessionUpdate{}, err
		}
		c.cancelTicks()
		c.player.Pause()
		return SessionUpdate{StateChanged: true}, nil
	})
}

// Resume restarts the tick source and re-evaluates the countdown at once.
func (c *SessionController) Resume() (SessionView, error) {
	return c.mutate(func(now time.Time) (SessionUpdate, error) {
		if err := c.session.Resume(now); err != nil {
			return SessionUpdate{}, err
		}
		u := SessionUpdate{StateChanged: true, PhaseChanged: true}
		res := c.session.Tick(now)
		u.CountdownChanged = res.CountdownChanged
		if res.Completed {
			c.finish()
			return u, nil
		}
		c.startTicks()
		if c.audioEnabled {
			c.playAudio()
		}
		return u, nil
	})
}

func (c *SessionController) TogglePause() (SessionView, error) {
	c.mu.Lock()
	paused := c.session.State() == breathe.SessionPaused
	c.mu.Unlock()
	if paused {
		return c.Resume()
	}
	return c.Pause()
}

func (c *SessionController) Stop() (SessionView, error) {
	return c.mutate(func(now time.Time) (SessionUpdate, error) {
		elapsed := c.session.Elapsed(now)
		if err := c.session.Stop(); err != nil {
			return SessionUpdate{}, err
		}
		c.cancelTicks()
		c.player.Pause()
		c.player.Rewind()
		c.l.Debug("session stopped", "elapsed", elapsed)
		return SessionUpdate{StateChanged: true, PhaseChanged: true, CountdownChanged: true}, nil
	})
}

// NewSession returns a completed session to setup.
func (c *SessionController) NewSession() (SessionView, error) {
	return c.mutate(func(time.Time) (SessionUpdate, error) {
		if err := c.session.Reset(); err != nil {
			return SessionUpdate{}, err
		}
		return SessionUpdate{StateChanged: true, PhaseChanged: true, CountdownChanged: true}, nil
	})
}

func (c *SessionController) SelectDuration(d time.Duration) (SessionView, error) {
	return c.mutate(func(time.Time) (SessionUpdate, error) {
		if err := c.session.SelectDuration(d); err != nil {
			return SessionUpdate{}, err
		}
		return SessionUpdate{SettingsChanged: true, CountdownChanged: true}, nil
	})
}

func (c *SessionController) SelectPattern(key breathe.PatternKey) (SessionView, error) {
	return c.mutate(func(time.Time) (SessionUpdate, error) {
		if err := c.session.SelectPattern(key); err != nil {
			return SessionUpdate{}, err
		}
		return SessionUpdate{SettingsChanged: true}, nil
	})
}

// SetAudioEnabled takes effect at the next start or resume, except while
// running where playback follows the toggle immediately.
func (c *SessionController) SetAudioEnabled(enabled bool) (SessionView, error) {
	return c.mutate(func(time.Time) (SessionUpdate, error) {
		return c.setAudioEnabled(enabled), nil
	})
}

func (c *SessionController) ToggleAudio() (SessionView, error) {
	return c.mutate(func(time.Time) (SessionUpdate, error) {
		return c.setAudioEnabled(!c.audioEnabled), nil
	})
}

// SetVolume applies immediately in every state. v is clamped to 0..100.
func (c *SessionController) SetVolume(v int) (SessionView, error) {
	return c.mutate(func(time.Time) (SessionUpdate, error) {
		return c.setVolume(v), nil
	})
}

// StepVolume changes the volume by delta relative to its current level.
func (c *SessionController) StepVolume(delta int) (SessionView, error) {
	return c.mutate(func(time.Time) (SessionUpdate, error) {
		return c.setVolume(c.volume + delta), nil
	})
}

func (c *SessionController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cancelTicks()
	c.player.Close()
	c.l.Debug("session closed")
}

// mutate runs fn under the lock and publishes the resulting update.
func (c *SessionController) mutate(fn func(now time.Time) (SessionUpdate, error)) (SessionView, error) {
	c.mu.Lock()
	if c.closed {
		v := c.view()
		c.mu.Unlock()
		return v, models.ErrSessionClosed
	}
	u, err := fn(c.clock.Now())
	if err != nil {
		v := c.view()
		c.mu.Unlock()
		return v, err
	}
	changed := u.StateChanged || u.PhaseChanged || u.CountdownChanged || u.SettingsChanged
	if changed {
		c.seq++
	}
	u.View = c.view()
	onUpdate := c.onUpdate
	c.mu.Unlock()

	if changed && onUpdate != nil {
		onUpdate(u)
	}
	return u.View, nil
}

func (c *SessionController) tick(gen uint64, now time.Time) {
	c.mu.Lock()
	if gen != c.gen || c.closed || c.session.State() != breathe.SessionRunning {
		c.mu.Unlock()
		return
	}
	res := c.session.Tick(now)
	if !res.Changed() {
		c.mu.Unlock()
		return
	}
	if res.Completed {
		c.finish()
	}
	c.seq++
	u := SessionUpdate{
		View:             c.view(),
		StateChanged:     res.Completed,
		PhaseChanged:     res.PhaseChanged,
		CountdownChanged: res.CountdownChanged,
	}
	onUpdate := c.onUpdate
	c.mu.Unlock()

	if onUpdate != nil {
		onUpdate(u)
	}
}

func (c *SessionController) applyTheme(t breathe.Theme) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.colors = breathe.DeriveColors(t)
	c.seq++
	u := SessionUpdate{View: c.view(), SettingsChanged: true}
	onUpdate := c.onUpdate
	c.mu.Unlock()

	if onUpdate != nil {
		onUpdate(u)
	}
}

func (c *SessionController) setAudioEnabled(enabled bool) SessionUpdate {
	if c.audioEnabled == enabled {
		return SessionUpdate{}
	}
	c.audioEnabled = enabled
	if c.session.State() == breathe.SessionRunning {
		if enabled {
			c.playAudio()
		} else {
			c.player.Pause()
		}
	}
	return SessionUpdate{SettingsChanged: true}
}

func (c *SessionController) setVolume(v int) SessionUpdate {
	v = clampVolume(v)
	if v == c.volume {
		return SessionUpdate{}
	}
	c.volume = v
	c.player.SetVolume(v)
	return SessionUpdate{SettingsChanged: true}
}

// finish handles natural completion. Caller holds the lock.
func (c *SessionController) finish() {
	c.cancelTicks()
	c.player.Pause()
	c.player.Rewind()
	c.l.Debug("session complete")
}

func (c *SessionController) startTicks() {
	c.cancelTicks()
	gen := c.gen
	period := models.TickPeriod(c.session.Pattern())
	c.stopTicks = c.clock.Every(period, func(now time.Time) {
		c.tick(gen, now)
	})
}

// cancelTicks invalidates any in-flight tick. Caller holds the lock.
func (c *SessionController) cancelTicks() {
	c.gen++
	if c.stopTicks != nil {
		c.stopTicks()
		c.stopTicks = nil
	}
}

func (c *SessionController) playAudio() {
	if err := c.player.Play(); err != nil {
		c.l.Warn("audio playback failed", "err", err)
	}
}

func (c *SessionController) view() SessionView {
	return SessionView{
		Seq:          c.seq,
		SessionID:    c.session.ID,
		TextCID:      c.textCID,
		State:        c.session.State(),
		Duration:     c.session.Settings.Duration,
		Pattern:      c.session.Pattern(),
		Remaining:    c.session.Remaining(),
		Progress:     c.session.Progress(),
		Phase:        c.session.Phase(),
		AudioEnabled: c.audioEnabled,
		Volume:       c.volume,
		Colors:       c.colors,
	}
}

func clampVolume(v int) int {
	return min(max(v, 0), 100)
}
