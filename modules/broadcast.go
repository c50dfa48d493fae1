package modules

import (
	"fmt"
	"strings"
	"sync"

	tg "github.com/amarnathcjd/gogram/telegram"
	"go.uber.org/zap"

	"main/modules/db"
)

type broadcastAudience string

const (
	audienceUsers broadcastAudience = "users"
	audienceChats broadcastAudience = "chats"
)

var (
	broadcastMu      sync.Mutex
	pendingBroadcast = make(map[int64]broadcastAudience)
)

// BroadcastUsersCallback asks the developer for the message to send to
// every known user.
func BroadcastUsersCallback(c *tg.CallbackQuery) error {
	return broadcastPrompt(c, audienceUsers)
}

// BroadcastChatsCallback asks for the message to send to every group.
func BroadcastChatsCallback(c *tg.CallbackQuery) error {
	return broadcastPrompt(c, audienceChats)
}

func broadcastPrompt(c *tg.CallbackQuery, audience broadcastAudience) error {
	if !IsDeveloper(c.SenderID) {
		c.Edit("Sorry, this command is for developers only.")
		return nil
	}

	broadcastMu.Lock()
	pendingBroadcast[c.SenderID] = audience
	broadcastMu.Unlock()

	c.Edit("Please send the message you want to broadcast now.")
	return nil
}

// BroadcastMessageHandler picks up the next private message from a
// developer with a pending broadcast and fans it out. Per-recipient
// failures are logged and skipped.
func BroadcastMessageHandler(m *tg.NewMessage) error {
	if !m.IsPrivate() || strings.HasPrefix(m.Text(), "/") {
		return nil
	}

	broadcastMu.Lock()
	audience, ok := pendingBroadcast[m.SenderID()]
	if ok {
		delete(pendingBroadcast, m.SenderID())
	}
	broadcastMu.Unlock()

	if !ok || !IsDeveloper(m.SenderID()) {
		return nil
	}

	var targets []int64
	var err error
	switch audience {
	case audienceUsers:
		targets, err = db.AllUserIDs()
	case audienceChats:
		targets, err = db.AllChatIDs()
	}
	if err != nil {
		m.Reply("Failed to load broadcast targets.")
		return nil
	}

	sent := 0
	for _, target := range targets {
		if target == m.SenderID() {
			continue
		}
		if _, err := m.Client.SendMessage(target, m.Text()); err != nil {
			Logger.Warn("broadcast send failed", zap.Int64("target", target), zap.Error(err))
			continue
		}
		sent++
	}

	m.Reply(fmt.Sprintf("📢 Broadcast delivered to %d/%d recipients.", sent, len(targets)))
	return nil
}
