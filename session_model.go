package breathe

import (
	"context"
	"time"
)

type SessionState uint8

const (
	SessionSetup SessionState = iota
	SessionRunning
	SessionPaused
	SessionComplete
)

func (s SessionState) String() string {
	switch s {
	case SessionSetup:
		return "setup"
	case SessionRunning:
		return "running"
	case SessionPaused:
		return "paused"
	case SessionComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// IsActive reports whether the session has been started and neither stopped nor completed.
func (s SessionState) IsActive() bool {
	return s == SessionRunning || s == SessionPaused
}

type (
	SessionID      string
	TextChannelID  string
	VoiceChannelID string
)

type PreferencesRecord struct {
	UserID string

	//
	Duration     time.Duration
	PatternKey   PatternKey
	AudioEnabled bool
	Volume       int
}

// DefaultPreferences mirrors the initial setup view for a user with no stored choices.
func DefaultPreferences(userID string) PreferencesRecord {
	return PreferencesRecord{
		UserID:       userID,
		Duration:     DefaultDuration,
		PatternKey:   DefaultPattern,
		AudioEnabled: true,
		Volume:       DefaultVolume,
	}
}

type ExistingPreferencesRecord struct {
	ExistingRecord[string]
	PreferencesRecord
}

type PreferencesRepo interface {
	UpsertPreferences(context.Context, PreferencesRecord) (ExistingPreferencesRecord, error)
	GetPreferences(ctx context.Context, userID string) (ExistingPreferencesRecord, error)
}
