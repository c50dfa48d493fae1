package db

import (
	"encoding/json"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"
)

// CaptchaEvent is one terminal challenge outcome. Events are append
// only; nothing ever mutates or deletes them.
type CaptchaEvent struct {
	UserID    int64     `json:"user_id"`
	ChatID    int64     `json:"chat_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats holds outcome counts for one query window.
type Stats struct {
	Success int
	Kicked  int
	Timeout int
}

func ensureStatsBucket(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte("captcha_stats"))
		return err
	})
}

func LogCaptchaEvent(userID, chatID int64, status string, at time.Time) error {
	db, err := GetDB()
	if err != nil {
		return err
	}
	if err := ensureStatsBucket(db); err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte("captcha_stats"))
		cb, err := b.CreateBucketIfNotExists([]byte(strconv.FormatInt(chatID, 10)))
		if err != nil {
			return err
		}

		id, _ := cb.NextSequence()
		data, err := json.Marshal(&CaptchaEvent{
			UserID:    userID,
			ChatID:    chatID,
			Status:    status,
			Timestamp: at,
		})
		if err != nil {
			return err
		}
		return cb.Put(itob(int(id)), data)
	})
}

// CountOutcomes aggregates outcome counts. A zero chatID or userID
// means "any"; a zero since means "all time".
func CountOutcomes(chatID, userID int64, since time.Time) (*Stats, error) {
	db, err := GetDB()
	if err != nil {
		return nil, err
	}
	if err := ensureStatsBucket(db); err != nil {
		return nil, err
	}

	stats := &Stats{}
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte("captcha_stats"))

		count := func(cb *bolt.Bucket) error {
			return cb.ForEach(func(k, v []byte) error {
				var ev CaptchaEvent
				if err := json.Unmarshal(v, &ev); err != nil {
					return nil
				}
				if userID != 0 && ev.UserID != userID {
					return nil
				}
				if !since.IsZero() && ev.Timestamp.Before(since) {
					return nil
				}
				switch ev.Status {
				case "success":
					stats.Success++
				case "kicked":
					stats.Kicked++
				case "timeout":
					stats.Timeout++
				}
				return nil
			})
		}

		if chatID != 0 {
			cb := b.Bucket([]byte(strconv.FormatInt(chatID, 10)))
			if cb == nil {
				return nil
			}
			return count(cb)
		}

		return b.ForEach(func(k, v []byte) error {
			if cb := b.Bucket(k); cb != nil {
				return count(cb)
			}
			return nil
		})
	})
	return stats, err
}

func itob(v int) []byte {
	b := make([]byte, 8)
	for i := uint(0); i < 8; i++ {
		b[7-i] = byte(v >> (i * 8))
	}
	return b
}
