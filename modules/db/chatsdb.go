package db

import (
	"encoding/json"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"
)

type Chat struct {
	ChatID            int64     `json:"chat_id"`
	Title             string    `json:"title,omitempty"`
	ProtectionEnabled bool      `json:"protection_enabled"`
	ActivatingAdminID int64     `json:"activating_admin_id,omitempty"`
	LastActivity      time.Time `json:"last_activity"`
}

func ensureChatsBucket(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte("chats"))
		return err
	})
}

// SetProtection upserts the chat record with the new protection flag.
// The activating admin is recorded on enable and cleared on disable.
func SetProtection(chatID int64, title string, enabled bool, adminID int64) error {
	db, err := GetDB()
	if err != nil {
		return err
	}
	if err := ensureChatsBucket(db); err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte("chats"))
		key := []byte(strconv.FormatInt(chatID, 10))

		chat := &Chat{ChatID: chatID}
		if data := b.Get(key); data != nil {
			json.Unmarshal(data, chat)
		}

		if title != "" {
			chat.Title = title
		}
		chat.ProtectionEnabled = enabled
		if enabled {
			chat.ActivatingAdminID = adminID
		} else {
			chat.ActivatingAdminID = 0
		}
		chat.LastActivity = time.Now()

		data, err := json.Marshal(chat)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

func GetChat(chatID int64) (*Chat, error) {
	db, err := GetDB()
	if err != nil {
		return nil, err
	}
	if err := ensureChatsBucket(db); err != nil {
		return nil, err
	}

	var chat *Chat
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte("chats"))
		data := b.Get([]byte(strconv.FormatInt(chatID, 10)))
		if data == nil {
			return nil
		}
		chat = &Chat{}
		return json.Unmarshal(data, chat)
	})
	return chat, err
}

// ProtectedChats returns the ids of every chat with protection on.
// Used to repopulate the in-memory toggle cache at startup.
func ProtectedChats() ([]int64, error) {
	db, err := GetDB()
	if err != nil {
		return nil, err
	}
	if err := ensureChatsBucket(db); err != nil {
		return nil, err
	}

	var chats []int64
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte("chats"))
		return b.ForEach(func(k, v []byte) error {
			var chat Chat
			if err := json.Unmarshal(v, &chat); err != nil {
				return nil
			}
			if chat.ProtectionEnabled {
				chats = append(chats, chat.ChatID)
			}
			return nil
		})
	})
	return chats, err
}

// AllChatIDs returns every known chat, protected or not.
func AllChatIDs() ([]int64, error) {
	db, err := GetDB()
	if err != nil {
		return nil, err
	}
	if err := ensureChatsBucket(db); err != nil {
		return nil, err
	}

	var chats []int64
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte("chats"))
		return b.ForEach(func(k, v []byte) error {
			id, err := strconv.ParseInt(string(k), 10, 64)
			if err == nil {
				chats = append(chats, id)
			}
			return nil
		})
	})
	return chats, err
}

// IsActivatingAdmin reports whether the user enabled protection in any
// chat. Gates the admin stats menu.
func IsActivatingAdmin(userID int64) (bool, error) {
	db, err := GetDB()
	if err != nil {
		return false, err
	}
	if err := ensureChatsBucket(db); err != nil {
		return false, err
	}

	found := false
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte("chats"))
		return b.ForEach(func(k, v []byte) error {
			var chat Chat
			if err := json.Unmarshal(v, &chat); err != nil {
				return nil
			}
			if chat.ProtectionEnabled && chat.ActivatingAdminID == userID {
				found = true
			}
			return nil
		})
	})
	return found, err
}

// ChatsActivatedBy lists the chats whose protection this admin enabled.
func ChatsActivatedBy(userID int64) ([]*Chat, error) {
	db, err := GetDB()
	if err != nil {
		return nil, err
	}
	if err := ensureChatsBucket(db); err != nil {
		return nil, err
	}

	var chats []*Chat
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte("chats"))
		return b.ForEach(func(k, v []byte) error {
			var chat Chat
			if err := json.Unmarshal(v, &chat); err != nil {
				return nil
			}
			if chat.ProtectionEnabled && chat.ActivatingAdminID == userID {
				chats = append(chats, &chat)
			}
			return nil
		})
	})
	return chats, err
}
