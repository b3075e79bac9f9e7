package models

import (
	"testing"
	"time"

	"github.com/benjamonnguyen/breathe-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var t0 = time.Date(2025, 4, 5, 10, 0, 0, 0, time.UTC)

func newSession(d time.Duration, key breathe.PatternKey) Session {
	return NewSession("test", SessionSettings{Duration: d, PatternKey: key})
}

// tickEvery ticks s once per period from start (exclusive) through end (inclusive).
func tickEvery(s *Session, start, end time.Time, period time.Duration) TickResult {
	var last TickResult
	for now := start.Add(period); !now.After(end); now = now.Add(period) {
		last = s.Tick(now)
		if last.Completed {
			break
		}
	}
	return last
}

func TestNewSession_Defaults(t *testing.T) {
	s := NewSession("id", SessionSettings{})

	assert.Equal(t, breathe.SessionSetup, s.State())
	assert.Equal(t, breathe.DefaultDuration, s.Settings.Duration)
	assert.Equal(t, breathe.DefaultPattern, s.Settings.PatternKey)
	assert.Equal(t, breathe.DefaultDuration, s.Remaining())
	assert.Equal(t, breathe.IdlePhase, s.Phase())
	assert.True(t, s.StartedAt().IsZero())
}

func TestNewSession_PanicsOnInvalidSettings(t *testing.T) {
	assert.Panics(t, func() { NewSession("id", SessionSettings{Duration: 7 * time.Second}) })
	assert.Panics(t, func() { NewSession("id", SessionSettings{PatternKey: "nope"}) })
}

func TestSelectDuration(t *testing.T) {
	s := newSession(5*time.Minute, breathe.SimplePattern)

	require.NoError(t, s.SelectDuration(10*time.Minute))
	assert.Equal(t, 10*time.Minute, s.Settings.Duration)
	assert.Equal(t, 10*time.Minute, s.Remaining())

	assert.ErrorIs(t, s.SelectDuration(2*time.Minute), ErrInvalidDuration)
	assert.Equal(t, 10*time.Minute, s.Settings.Duration)

	require.NoError(t, s.Start(t0))
	assert.ErrorIs(t, s.SelectDuration(time.Minute), ErrInvalidTransition)
	assert.Equal(t, 10*time.Minute, s.Settings.Duration)
}

func TestSelectPattern(t *testing.T) {
	s := newSession(5*time.Minute, breathe.SimplePattern)

	require.NoError(t, s.SelectPattern(breathe.BoxPattern))
	assert.Equal(t, breathe.BoxPattern, s.Settings.PatternKey)
	assert.Equal(t, 5*time.Minute, s.Remaining(), "pattern does not affect timing")

	assert.ErrorIs(t, s.SelectPattern("nope"), ErrUnknownPattern)

	require.NoError(t, s.Start(t0))
	assert.ErrorIs(t, s.SelectPattern(breathe.SimplePattern), ErrInvalidTransition)
}

func TestTransitions_Invalid(t *testing.T) {
	s := newSession(time.Minute, breathe.SimplePattern)
	assert.ErrorIs(t, s.Pause(t0), ErrInvalidTransition)
	assert.ErrorIs(t, s.Resume(t0), ErrInvalidTransition)
	assert.ErrorIs(t, s.Stop(), ErrInvalidTransition)
	assert.ErrorIs(t, s.Reset(), ErrInvalidTransition)

	require.NoError(t, s.Start(t0))
	assert.ErrorIs(t, s.Start(t0), ErrInvalidTransition)
	assert.ErrorIs(t, s.Resume(t0), ErrInvalidTransition)
	assert.ErrorIs(t, s.Reset(), ErrInvalidTransition)

	require.NoError(t, s.Pause(t0))
	assert.ErrorIs(t, s.Pause(t0), ErrInvalidTransition)
	assert.ErrorIs(t, s.Start(t0), ErrInvalidTransition)
}

func TestStart(t *testing.T) {
	s := newSession(5*time.Minute, breathe.FourSevenEight)
	require.NoError(t, s.Start(t0))

	assert.Equal(t, breathe.SessionRunning, s.State())
	assert.Equal(t, t0, s.StartedAt())
	assert.Equal(t, 0, s.PhaseIndex())
	assert.Equal(t, "Вдох", s.Phase().Text)
	assert.Equal(t, 5*time.Minute, s.Remaining())
}

func TestTick_Countdown(t *testing.T) {
	s := newSession(time.Minute, breathe.SimplePattern)
	require.NoError(t, s.Start(t0))

	res := s.Tick(t0.Add(1500 * time.Millisecond))
	assert.True(t, res.CountdownChanged)
	assert.Equal(t, 59*time.Second, s.Remaining(), "elapsed is floored")
	assert.InDelta(t, 100.0/60, s.Progress(), 1e-9)

	res = s.Tick(t0.Add(1900 * time.Millisecond))
	assert.False(t, res.CountdownChanged)
}

func TestTick_NoopOutsideRunning(t *testing.T) {
	s := newSession(time.Minute, breathe.SimplePattern)
	assert.False(t, s.Tick(t0.Add(time.Hour)).Changed())

	require.NoError(t, s.Start(t0))
	require.NoError(t, s.Pause(t0.Add(5*time.Second)))
	assert.False(t, s.Tick(t0.Add(time.Hour)).Changed())
	assert.Equal(t, breathe.SessionPaused, s.State())
}

func TestTick_CompletesAtDuration(t *testing.T) {
	s := newSession(time.Minute, breathe.SimplePattern)
	require.NoError(t, s.Start(t0))

	res := tickEvery(&s, t0, t0.Add(59*time.Second), time.Second)
	assert.False(t, res.Completed)
	assert.Equal(t, breathe.SessionRunning, s.State())
	assert.Equal(t, time.Second, s.Remaining())

	res = s.Tick(t0.Add(60 * time.Second))
	assert.True(t, res.Completed)
	assert.Equal(t, breathe.SessionComplete, s.State())
	assert.Equal(t, time.Duration(0), s.Remaining())
	assert.InDelta(t, 100.0, s.Progress(), 1e-9)
	assert.Equal(t, t0, s.StartedAt(), "start stays recorded until reset")
}

func TestTick_LateTickOvershootsProgress(t *testing.T) {
	s := newSession(time.Minute, breathe.SimplePattern)
	require.NoError(t, s.Start(t0))

	res := s.Tick(t0.Add(90 * time.Second))
	assert.True(t, res.Completed)
	assert.InDelta(t, 150.0, s.Progress(), 1e-9)
	assert.Equal(t, time.Minute, s.Elapsed(t0.Add(90*time.Second)), "elapsed is clamped")
}

func TestTick_FourSevenEightSecondPhase(t *testing.T) {
	s := newSession(5*time.Minute, breathe.FourSevenEight)
	require.NoError(t, s.Start(t0))

	tickEvery(&s, t0, t0.Add(3*time.Second), time.Second)
	assert.Equal(t, "Вдох", s.Phase().Text)

	res := s.Tick(t0.Add(4 * time.Second))
	assert.True(t, res.PhaseChanged)
	assert.Equal(t, 1, s.PhaseIndex())
	assert.Equal(t, "Задержка", s.Phase().Text)
	assert.Equal(t, 7*time.Second, s.Phase().Duration)
}

func TestTick_PhaseCatchUp(t *testing.T) {
	s := newSession(5*time.Minute, breathe.FourSevenEight)
	require.NoError(t, s.Start(t0))

	// 4 + 7 + 8 + 4 = 23s lands on the second phase of the second cycle
	res := s.Tick(t0.Add(23 * time.Second))
	assert.True(t, res.PhaseChanged)
	assert.Equal(t, 1, s.PhaseIndex())
}

func TestPause_FreezesDisplay(t *testing.T) {
	s := newSession(time.Minute, breathe.SimplePattern)
	require.NoError(t, s.Start(t0))
	tickEvery(&s, t0, t0.Add(4*time.Second), time.Second)
	require.NoError(t, s.Pause(t0.Add(4*time.Second)))

	remaining, phase := s.Remaining(), s.PhaseIndex()
	for i := 5; i < 120; i++ {
		s.Tick(t0.Add(time.Duration(i) * time.Second))
	}
	assert.Equal(t, remaining, s.Remaining())
	assert.Equal(t, phase, s.PhaseIndex())
	assert.Equal(t, 4*time.Second, s.Elapsed(t0.Add(100*time.Second)))
}

func TestResume_CountsPausedTime(t *testing.T) {
	s := newSession(time.Minute, breathe.SimplePattern)
	require.NoError(t, s.Start(t0))
	tickEvery(&s, t0, t0.Add(10*time.Second), time.Second)
	require.NoError(t, s.Pause(t0.Add(10*time.Second)))
	assert.Equal(t, 50*time.Second, s.Remaining())

	require.NoError(t, s.Resume(t0.Add(40*time.Second)))
	s.Tick(t0.Add(40 * time.Second))
	assert.Equal(t, 20*time.Second, s.Remaining(), "40s elapsed on the wall clock")
	assert.Equal(t, t0, s.StartedAt())
}

func TestResume_ExcludePausedTime(t *testing.T) {
	s := NewSession("test", SessionSettings{
		Duration:          time.Minute,
		PatternKey:        breathe.SimplePattern,
		ExcludePausedTime: true,
	})
	require.NoError(t, s.Start(t0))
	require.NoError(t, s.Pause(t0.Add(10*time.Second)))
	require.NoError(t, s.Resume(t0.Add(40*time.Second)))
	s.Tick(t0.Add(40 * time.Second))
	assert.Equal(t, 50*time.Second, s.Remaining())

	s.Tick(t0.Add(45 * time.Second))
	assert.Equal(t, 45*time.Second, s.Remaining())
}

func TestResume_RestartsRotation(t *testing.T) {
	s := newSession(5*time.Minute, breathe.BoxPattern)
	require.NoError(t, s.Start(t0))
	tickEvery(&s, t0, t0.Add(9*time.Second), time.Second)
	require.Equal(t, 2, s.PhaseIndex())

	require.NoError(t, s.Pause(t0.Add(9*time.Second)))
	require.NoError(t, s.Resume(t0.Add(12*time.Second)))
	assert.Equal(t, 0, s.PhaseIndex())

	s.Tick(t0.Add(15 * time.Second))
	assert.Equal(t, 0, s.PhaseIndex())
	s.Tick(t0.Add(16 * time.Second))
	assert.Equal(t, 1, s.PhaseIndex())
}

func TestStop_ResetsDisplay(t *testing.T) {
	for _, pause := range []bool{false, true} {
		s := newSession(3*time.Minute, breathe.FourSevenEight)
		require.NoError(t, s.Start(t0))
		tickEvery(&s, t0, t0.Add(30*time.Second), time.Second)
		if pause {
			require.NoError(t, s.Pause(t0.Add(30*time.Second)))
		}

		require.NoError(t, s.Stop())
		assert.Equal(t, breathe.SessionSetup, s.State())
		assert.Equal(t, 3*time.Minute, s.Remaining())
		assert.Equal(t, 0.0, s.Progress())
		assert.Equal(t, breathe.IdlePhase, s.Phase())
		assert.True(t, s.StartedAt().IsZero())
	}
}

func TestReset_FromComplete(t *testing.T) {
	s := newSession(time.Minute, breathe.SimplePattern)
	require.NoError(t, s.Start(t0))
	s.Tick(t0.Add(time.Minute))
	require.Equal(t, breathe.SessionComplete, s.State())

	require.NoError(t, s.Reset())
	assert.Equal(t, breathe.SessionSetup, s.State())
	assert.Equal(t, time.Minute, s.Remaining())
	assert.Equal(t, breathe.IdlePhase, s.Phase())
	assert.True(t, s.StartedAt().IsZero())

	require.NoError(t, s.SelectDuration(3*time.Minute))
}

func TestTickPeriod(t *testing.T) {
	for _, k := range breathe.PatternKeys {
		p, _ := breathe.GetPattern(k)
		assert.Equal(t, time.Second, TickPeriod(p), k)
	}
	odd := breathe.Pattern{Phases: []breathe.Phase{{Duration: 1500 * time.Millisecond}}}
	assert.Equal(t, 500*time.Millisecond, TickPeriod(odd))
}

func TestProperty_CompletesForEveryPreset(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := rapid.SampledFrom(breathe.DurationPresets).Draw(rt, "duration")
		key := rapid.SampledFrom(breathe.PatternKeys).Draw(rt, "pattern")
		overshoot := time.Duration(rapid.IntRange(0, 120).Draw(rt, "overshoot")) * time.Second

		s := newSession(d, key)
		require.NoError(rt, s.Start(t0))
		tickEvery(&s, t0, t0.Add(d+overshoot), time.Second)

		assert.Equal(rt, breathe.SessionComplete, s.State())
		assert.Equal(rt, time.Duration(0), s.Remaining())
		assert.False(rt, s.Tick(t0.Add(d+overshoot+time.Hour)).Changed(), "no mutation after completion")
	})
}

func TestProperty_PhasesCycleInOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		key := rapid.SampledFrom(breathe.PatternKeys).Draw(rt, "pattern")
		pattern, _ := breathe.GetPattern(key)
		cycles := rapid.IntRange(1, 4).Draw(rt, "cycles")

		s := newSession(10*time.Minute, key)
		require.NoError(rt, s.Start(t0))

		// the phase shown at each instant must match the pattern's schedule
		boundary := t0
		idx := 0
		for range cycles * len(pattern.Phases) {
			ph := pattern.Phases[idx]
			for off := time.Duration(0); off < ph.Duration; off += time.Second {
				if now := boundary.Add(off); now.After(t0) {
					s.Tick(now)
				}
				assert.Equal(rt, idx, s.PhaseIndex())
			}
			boundary = boundary.Add(ph.Duration)
			idx = (idx + 1) % len(pattern.Phases)
		}
	})
}

func TestProperty_StopRestoresFullDuration(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := rapid.SampledFrom(breathe.DurationPresets).Draw(rt, "duration")
		key := rapid.SampledFrom(breathe.PatternKeys).Draw(rt, "pattern")
		run := time.Duration(rapid.IntRange(0, int(d/time.Second)-1).Draw(rt, "run")) * time.Second
		pause := rapid.Bool().Draw(rt, "pause")

		s := newSession(d, key)
		require.NoError(rt, s.Start(t0))
		tickEvery(&s, t0, t0.Add(run), time.Second)
		if pause {
			require.NoError(rt, s.Pause(t0.Add(run)))
		}
		require.NoError(rt, s.Stop())

		assert.Equal(rt, d, s.Remaining())
		assert.Equal(rt, breathe.IdlePhase, s.Phase())
	})
}
