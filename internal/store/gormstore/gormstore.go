package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/sidlawliet/whiteroom-mentor/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Record is one serialized registry keyed by "<namespace>_<identity>".
type Record struct {
	Key       string `gorm:"primaryKey;type:varchar(191)"`
	Value     []byte `gorm:"type:longblob;not null"`
	UpdatedAt time.Time
}

func (Record) TableName() string { return "session_records" }

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Record{})
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	var r Record
	if err := s.db.WithContext(ctx).Where(&Record{Key: key}).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return r.Value, nil
}

// Save replaces the record in one statement so a concurrent reader never sees
// a partial registry.
func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	r := Record{Key: key, Value: data, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&r).Error
}
