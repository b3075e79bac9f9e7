// Package sqlite implements repo interfaces
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/breathe-go"
)

const SelectAllPreferences = "SELECT user_id, duration_seconds, pattern, audio_enabled, volume, created_at, updated_at FROM preferences"

type preferencesEntity struct {
	UserID          string
	DurationSeconds int64
	Pattern         string
	AudioEnabled    bool
	Volume          int
	CreatedAt       int64
	UpdatedAt       int64
}

type scannable interface {
	Scan(dest ...any) error
}

type preferencesRepo struct {
	dbGetter txStdLib.DBGetter
	l        *log.Logger
}

var _ breathe.PreferencesRepo = (*preferencesRepo)(nil)

func NewPreferencesRepo(dbGetter txStdLib.DBGetter, logger *log.Logger) *preferencesRepo {
	if logger == nil {
		logger = log.Default()
	}
	return &preferencesRepo{
		dbGetter: dbGetter,
		l:        logger,
	}
}

// UpsertPreferences keeps the original created_at of an existing row.
func (r *preferencesRepo) UpsertPreferences(ctx context.Context, p breathe.PreferencesRecord) (breathe.ExistingPreferencesRecord, error) {
	if p.UserID == "" {
		return breathe.ExistingPreferencesRecord{}, fmt.Errorf("provide required field 'UserID'")
	}

	e := mapToPreferencesEntity(breathe.ExistingPreferencesRecord{
		ExistingRecord:    breathe.NewExistingRecord[string](p.UserID, time.Now()),
		PreferencesRecord: p,
	})
	args := []any{
		e.UserID,
		e.DurationSeconds,
		e.Pattern,
		e.AudioEnabled,
		e.Volume,
		e.CreatedAt,
		e.UpdatedAt,
	}
	query := "INSERT INTO preferences (user_id, duration_seconds, pattern, audio_enabled, volume, created_at, updated_at) VALUES " +
		generateParameters(len(args)) +
		" ON CONFLICT(user_id) DO UPDATE SET duration_seconds = excluded.duration_seconds, pattern = excluded.pattern, audio_enabled = excluded.audio_enabled, volume = excluded.volume, updated_at = excluded.updated_at"
	r.l.Debug("upserting preferences", "query", query, "args", args)
	if _, err := r.dbGetter(ctx).ExecContext(ctx, query, args...); err != nil {
		return breathe.ExistingPreferencesRecord{}, err
	}

	return r.GetPreferences(ctx, p.UserID)
}

func (r *preferencesRepo) GetPreferences(ctx context.Context, userID string) (breathe.ExistingPreferencesRecord, error) {
	if userID == "" {
		return breathe.ExistingPreferencesRecord{}, fmt.Errorf("provide userID")
	}

	row := r.dbGetter(ctx).QueryRowContext(
		ctx,
		fmt.Sprintf("%s WHERE user_id=?", SelectAllPreferences), userID,
	)
	return extractPreferences(row)
}

func extractPreferences(s scannable) (breathe.ExistingPreferencesRecord, error) {
	var e preferencesEntity
	if err := s.Scan(&e.UserID, &e.DurationSeconds, &e.Pattern, &e.AudioEnabled, &e.Volume, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return breathe.ExistingPreferencesRecord{}, breathe.ErrNotFound
		}
		return breathe.ExistingPreferencesRecord{}, err
	}

	return mapToExistingPreferencesRecord(e), nil
}

func mapToPreferencesEntity(p breathe.ExistingPreferencesRecord) preferencesEntity {
	return preferencesEntity{
		UserID:          p.UserID,
		DurationSeconds: int64(p.Duration / time.Second),
		Pattern:         string(p.PatternKey),
		AudioEnabled:    p.AudioEnabled,
		Volume:          p.Volume,
		CreatedAt:       p.CreatedAt.Unix(),
		UpdatedAt:       p.UpdatedAt.Unix(),
	}
}

func mapToExistingPreferencesRecord(e preferencesEntity) breathe.ExistingPreferencesRecord {
	return breathe.ExistingPreferencesRecord{
		ExistingRecord: breathe.ExistingRecord[string]{
			ID:        e.UserID,
			CreatedAt: time.Unix(e.CreatedAt, 0),
			UpdatedAt: time.Unix(e.UpdatedAt, 0),
		},
		PreferencesRecord: breathe.PreferencesRecord{
			UserID:       e.UserID,
			Duration:     time.Duration(e.DurationSeconds) * time.Second,
			PatternKey:   breathe.PatternKey(e.Pattern),
			AudioEnabled: e.AudioEnabled,
			Volume:       e.Volume,
		},
	}
}

// generateParameters returns a placeholder group like (?, ?, ?).
func generateParameters(n int) string {
	if n <= 0 {
		return "()"
	}
	return "(" + strings.TrimSuffix(strings.Repeat("?, ", n), ", ") + ")"
}
