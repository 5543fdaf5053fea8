// Package store keeps JSON documents under fixed keys in a sqlite table and
// offers read-modify-write primitives that run inside one transaction.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"studynotes/models"
)

type Store struct {
	db *gorm.DB
	mu sync.Mutex
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Tx is the view of the store inside Atomic.
type Tx struct {
	tx *gorm.DB
}

// Atomic runs fn in a transaction. Writers are serialised so a
// read-modify-write can never interleave with another one.
func (s *Store) Atomic(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Tx{tx: tx})
	})
}

// Raw returns the stored value of key and whether it exists.
func (t *Tx) Raw(key string) (string, bool, error) {
	var entry models.Entry
	err := t.tx.Where(map[string]any{"key": key}).Limit(1).Find(&entry).Error
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	if entry.Key == "" {
		return "", false, nil
	}
	return entry.Value, true, nil
}

// SetRaw writes value under key, replacing any previous value.
func (t *Tx) SetRaw(key, value string) error {
	entry := models.Entry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := t.tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Load decodes key into a T. A missing or malformed value yields fallback.
func Load[T any](t *Tx, key string, fallback T) (T, error) {
	raw, ok, err := t.Raw(key)
	if err != nil {
		return fallback, err
	}
	if !ok {
		return fallback, nil
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		log.Warn().Str("key", key).Err(err).Msg("malformed stored value, using default")
		return fallback, nil
	}
	return v, nil
}

// Exists reports whether key holds a value.
func Exists(t *Tx, key string) (bool, error) {
	_, ok, err := t.Raw(key)
	return ok, err
}

// Save encodes v as JSON under key.
func Save[T any](t *Tx, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return t.SetRaw(key, string(data))
}

// Get reads one key outside of any caller transaction.
func Get[T any](ctx context.Context, s *Store, key string, fallback T) (T, error) {
	var out T
	err := s.Atomic(ctx, func(tx *Tx) error {
		v, err := Load(tx, key, fallback)
		out = v
		return err
	})
	return out, err
}
