package models

// SessionError is returned by session transitions that are not allowed.
type SessionError string

func (e SessionError) Error() string {
	return string(e)
}

const (
	ErrInvalidTransition SessionError = "action not allowed in current session state"
	ErrInvalidDuration   SessionError = "duration is not a preset"
	ErrUnknownPattern    SessionError = "unknown breathing pattern"
	ErrSessionClosed     SessionError = "session is closed"
	ErrSessionActive     SessionError = "a session is already open in this channel"
	ErrSessionNotFound   SessionError = "no session in this channel"
)
