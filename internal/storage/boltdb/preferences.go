package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.etcd.io/bbolt"

	"github.com/iudanet/vaultbot/internal/generator"
)

// Preferences хранит настройки генератора по пользователям
type Preferences struct {
	s *Storage
}

// Preferences возвращает хранилище настроек поверх Storage
func (s *Storage) Preferences() *Preferences {
	return &Preferences{s: s}
}

func userKey(userID int64) []byte {
	return []byte(strconv.FormatInt(userID, 10))
}

// LoadOptions возвращает сохраненные настройки; found=false, если их нет
func (p *Preferences) LoadOptions(ctx context.Context, userID int64) (generator.Options, bool, error) {
	var (
		opts  generator.Options
		found bool
	)

	err := p.s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketPreferences)
		if bucket == nil {
			return fmt.Errorf("preferences bucket not found")
		}

		data := bucket.Get(userKey(userID))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &opts); err != nil {
			return fmt.Errorf("failed to unmarshal generator options: %w", err)
		}
		found = true
		return nil
	})
	if err != nil {
		return generator.Options{}, false, err
	}

	return opts, found, nil
}

// SaveOptions сохраняет настройки пользователя
func (p *Preferences) SaveOptions(ctx context.Context, userID int64, opts generator.Options) error {
	return p.s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketPreferences)
		if bucket == nil {
			return fmt.Errorf("preferences bucket not found")
		}

		data, err := json.Marshal(opts)
		if err != nil {
			return fmt.Errorf("failed to marshal generator options: %w", err)
		}
		if err := bucket.Put(userKey(userID), data); err != nil {
			return fmt.Errorf("failed to save generator options: %w", err)
		}
		return nil
	})
}
