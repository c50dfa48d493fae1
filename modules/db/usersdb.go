package db

import (
	"encoding/json"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"
)

type User struct {
	UserID          int64     `json:"user_id"`
	Username        string    `json:"username,omitempty"`
	FirstName       string    `json:"first_name,omitempty"`
	LastInteraction time.Time `json:"last_interaction"`
}

func ensureUsersBucket(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte("users"))
		return err
	})
}

func UpsertUser(userID int64, username, firstName string) error {
	db, err := GetDB()
	if err != nil {
		return err
	}
	if err := ensureUsersBucket(db); err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte("users"))
		user := &User{
			UserID:          userID,
			Username:        username,
			FirstName:       firstName,
			LastInteraction: time.Now(),
		}
		data, err := json.Marshal(user)
		if err != nil {
			return err
		}
		return b.Put([]byte(strconv.FormatInt(userID, 10)), data)
	})
}

// AllUserIDs returns every user the bot has interacted with.
func AllUserIDs() ([]int64, error) {
	db, err := GetDB()
	if err != nil {
		return nil, err
	}
	if err := ensureUsersBucket(db); err != nil {
		return nil, err
	}

	var users []int64
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte("users"))
		return b.ForEach(func(k, v []byte) error {
			id, err := strconv.ParseInt(string(k), 10, 64)
			if err == nil {
				users = append(users, id)
			}
			return nil
		})
	})
	return users, err
}

func CountUsers() (int, error) {
	db, err := GetDB()
	if err != nil {
		return 0, err
	}
	if err := ensureUsersBucket(db); err != nil {
		return 0, err
	}

	count := 0
	err = db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket([]byte("users")).Stats().KeyN
		return nil
	})
	return count, err
}
