package activity

import (
	"context"
	"errors"

	"github.com/sidlawliet/whiteroom-mentor/internal/chat"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidEvent = errors.New("event id, type and identity required")

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Migrate() error {
	return r.db.AutoMigrate(&SessionEvent{})
}

// Record stores ev. A redelivered event with an id already present is
// ignored; created reports whether a new row was written.
func (r *Repo) Record(ctx context.Context, ev chat.Event) (created bool, err error) {
	if ev.ID == "" || ev.Type == "" || ev.Identity == "" {
		return false, ErrInvalidEvent
	}

	row := &SessionEvent{
		ID:         ev.ID,
		Type:       string(ev.Type),
		Identity:   ev.Identity,
		SessionID:  ev.SessionID,
		MessageID:  ev.MessageID,
		Difficulty: string(ev.Difficulty),
		OccurredAt: ev.At,
	}
	if ev.Detail != "" {
		d := ev.Detail
		row.Detail = &d
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListBySession returns the events of one session, oldest first.
func (r *Repo) ListBySession(ctx context.Context, identity, sessionID string) ([]SessionEvent, error) {
	var out []SessionEvent
	if err := r.db.WithContext(ctx).
		Where("identity = ? AND session_id = ?", identity, sessionID).
		Order("occurred_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListRecent returns the most recent events of identity, newest first.
func (r *Repo) ListRecent(ctx context.Context, identity string, limit int) ([]SessionEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var out []SessionEvent
	if err := r.db.WithContext(ctx).
		Where("identity = ?", identity).
		Order("occurred_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CountByType tallies the events of identity per type.
func (r *Repo) CountByType(ctx context.Context, identity string) (map[string]int64, error) {
	var rows []struct {
		Type  string
		Count int64
	}
	if err := r.db.WithContext(ctx).Model(&SessionEvent{}).
		Select("type, count(*) as count").
		Where("identity = ?", identity).
		Group("type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Type] = row.Count
	}
	return out, nil
}
