package gate

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Outcome is the terminal result of a challenge.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeKicked  Outcome = "kicked"
	OutcomeTimeout Outcome = "timeout"
)

// Challenge is the pending captcha state for one member in one chat.
// It only ever lives inside the Registry; callers get copies.
type Challenge struct {
	ChatID    int64
	UserID    int64
	Instance  uuid.UUID
	Answer    int
	Attempts  int
	MessageID int32
	Name      string
	CreatedAt time.Time
	kickTimer *Timer
}

// Key identifies a challenge by (chat, member).
type Key struct {
	ChatID int64
	UserID int64
}

func (k Key) String() string {
	return fmt.Sprintf("%d_%d", k.ChatID, k.UserID)
}

func NewChallenge(chatID, userID int64, name string, answer int) *Challenge {
	return &Challenge{
		ChatID:    chatID,
		UserID:    userID,
		Instance:  uuid.New(),
		Answer:    answer,
		Name:      name,
		CreatedAt: time.Now(),
	}
}

func (c *Challenge) key() Key {
	return Key{ChatID: c.ChatID, UserID: c.UserID}
}
