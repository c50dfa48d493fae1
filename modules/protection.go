package modules

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tg "github.com/amarnathcjd/gogram/telegram"
	"go.uber.org/zap"

	"main/modules/db"
	"main/modules/gate"
)

var (
	Protection *gate.Gate
	Logger     *zap.Logger
)

// InitGate wires the gate service to the gogram client, the bbolt
// store and the outcome log. Must run before handler registration.
func InitGate(client *tg.Client, logger *zap.Logger, cfg gate.Config) error {
	Logger = logger
	Protection = gate.New(cfg,
		&telegramGateway{client: client},
		&boltOutcomeSink{log: logger},
		boltStateStore{},
		logger,
	)
	return Protection.LoadProtectionCache()
}

type boltOutcomeSink struct {
	log *zap.Logger
}

// RecordOutcome appends to the stats log without blocking the caller;
// durability is not awaited.
func (s *boltOutcomeSink) RecordOutcome(userID, chatID int64, outcome gate.Outcome, at time.Time) {
	go func() {
		if err := db.LogCaptchaEvent(userID, chatID, string(outcome), at); err != nil {
			s.log.Error("failed to log captcha outcome",
				zap.Int64("chat", chatID),
				zap.Int64("user", userID),
				zap.Error(err))
		}
	}()
}

type boltStateStore struct{}

func (boltStateStore) SetProtection(chatID int64, title string, enabled bool, adminID int64) error {
	return db.SetProtection(chatID, title, enabled, adminID)
}

func (boltStateStore) ProtectedChats() ([]int64, error) {
	return db.ProtectedChats()
}

// NewMemberHandler gates members joining a protected chat.
func NewMemberHandler(p *tg.ParticipantUpdate) error {
	if !p.IsJoined() && !p.IsAdded() {
		return nil
	}

	user := p.User
	if user == nil {
		return nil
	}

	db.UpsertUser(user.ID, user.Username, user.FirstName)

	err := Protection.MemberJoined(p.ChatID(), user.ID, DisplayName(user), user.Bot)
	if errors.Is(err, gate.ErrAlreadyPending) {
		return nil
	}
	return err
}

// CaptchaCallbackHandler resolves an answer button press. The payload
// is captcha_<target user id>_<chosen value>.
func CaptchaCallbackHandler(c *tg.CallbackQuery) error {
	parts := strings.Split(strings.TrimPrefix(c.DataString(), "captcha_"), "_")
	if len(parts) != 2 {
		return nil
	}

	targetID, err1 := strconv.ParseInt(parts[0], 10, 64)
	chosen, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return nil
	}

	db.UpsertUser(c.SenderID, "", "")

	res, err := Protection.SubmitAnswer(c.ChatID, c.SenderID, targetID, chosen)
	switch {
	case errors.Is(err, gate.ErrNotFound):
		c.Edit("❌ This question has expired.")
		return nil
	case errors.Is(err, gate.ErrWrongResponder):
		c.Answer("❌ You can only answer your own question!", &tg.CallbackOptions{Alert: true})
		return nil
	case errors.Is(err, gate.ErrAlreadyResolved):
		// Stale duplicate of an already-settled challenge, drop it.
		return nil
	case err != nil:
		return err
	}

	switch res.Outcome {
	case gate.OutcomeSuccess:
		c.Answer("✅ Verified!")
	case gate.OutcomeKicked:
		c.Answer("❌ Too many wrong answers.", &tg.CallbackOptions{Alert: true})
	default:
		c.Answer(fmt.Sprintf("❌ Wrong answer. %d attempt(s) left.", res.AttemptsLeft),
			&tg.CallbackOptions{Alert: true})
	}
	return nil
}

// EnableProtectionHandle turns on the join gate for the chat. Only
// chat admins and developers may toggle it.
func EnableProtectionHandle(m *tg.NewMessage) error {
	if m.IsPrivate() {
		m.Reply("Protection can only be enabled in groups.")
		return nil
	}
	if !canToggle(m) {
		m.Reply("Sorry, only admins or developers can enable protection.")
		return nil
	}

	db.UpsertUser(m.SenderID(), senderUsername(m), senderFirstName(m))

	if err := Protection.Enable(m.ChatID(), chatTitle(m), m.SenderID()); err != nil {
		Logger.Error("failed to enable protection", zap.Int64("chat", m.ChatID()), zap.Error(err))
		m.Reply("Failed to enable protection, try again.")
		return nil
	}

	m.Reply("✅ Protection enabled!\nNew members must now solve a captcha. Anyone who does not solve it in time is removed automatically.")
	return nil
}

// DisableProtectionHandle turns the gate off and abandons pending
// challenges. Abandoned members keep their current mute state.
func DisableProtectionHandle(m *tg.NewMessage) error {
	if m.IsPrivate() {
		m.Reply("Protection can only be disabled in groups.")
		return nil
	}
	if !canToggle(m) {
		m.Reply("Sorry, only admins or developers can disable protection.")
		return nil
	}

	if err := Protection.Disable(m.ChatID(), chatTitle(m), m.SenderID()); err != nil {
		Logger.Error("failed to disable protection", zap.Int64("chat", m.ChatID()), zap.Error(err))
		m.Reply("Failed to disable protection, try again.")
		return nil
	}

	m.Reply("❌ Protection disabled. Pending captchas were abandoned; members still muted stay muted until an admin unmutes them.")
	return nil
}

func canToggle(m *tg.NewMessage) bool {
	if IsDeveloper(m.SenderID()) {
		return true
	}
	return IsUserAdmin(m.Client, m.ChatID(), m.SenderID(), "")
}

func chatTitle(m *tg.NewMessage) string {
	if m.Channel != nil {
		return m.Channel.Title
	}
	return ""
}

func senderUsername(m *tg.NewMessage) string {
	if m.Sender != nil {
		return m.Sender.Username
	}
	return ""
}

func senderFirstName(m *tg.NewMessage) string {
	if m.Sender != nil {
		return m.Sender.FirstName
	}
	return ""
}

func init() {
	Mods.AddModule("Protection", `<b>Protection Module</b>

Gates new members behind a math captcha.

<b>Commands:</b>
 - /enable - Enable the join gate (admins only)
 - /disable - Disable the join gate and abandon pending captchas

New members are muted until they answer correctly. Wrong answers get a
fresh question; too many wrong answers or running out of time removes
the member from the group.`)
}
