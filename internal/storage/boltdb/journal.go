package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/vaultbot/internal/disclosure"
	"github.com/iudanet/vaultbot/internal/models"
)

// Journal хранит ожидающие удаления сообщения с секретами
type Journal struct {
	s *Storage
}

// Journal возвращает журнал показов поверх хранилища
func (s *Storage) Journal() *Journal {
	return &Journal{s: s}
}

func journalKey(ref models.MessageRef) []byte {
	return []byte(fmt.Sprintf("%d:%d", ref.ChatID, ref.MessageID))
}

// Record сохраняет запись о показанном сообщении
func (j *Journal) Record(ctx context.Context, entry disclosure.Entry) error {
	return j.s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDisclosures)
		if bucket == nil {
			return fmt.Errorf("disclosures bucket not found")
		}

		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal disclosure entry: %w", err)
		}

		if err := bucket.Put(journalKey(entry.Ref), data); err != nil {
			return fmt.Errorf("failed to save disclosure entry: %w", err)
		}
		return nil
	})
}

// Forget удаляет запись. Отсутствие записи не ошибка.
func (j *Journal) Forget(ctx context.Context, ref models.MessageRef) error {
	return j.s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDisclosures)
		if bucket == nil {
			return fmt.Errorf("disclosures bucket not found")
		}
		return bucket.Delete(journalKey(ref))
	})
}

// Pending возвращает все записи журнала
func (j *Journal) Pending(ctx context.Context) ([]disclosure.Entry, error) {
	var entries []disclosure.Entry

	err := j.s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDisclosures)
		if bucket == nil {
			return fmt.Errorf("disclosures bucket not found")
		}

		return bucket.ForEach(func(k, v []byte) error {
			var entry disclosure.Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("failed to unmarshal disclosure entry %s: %w", k, err)
			}
			entries = append(entries, entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}
