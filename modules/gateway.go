package modules

import (
	"fmt"
	"strconv"

	tg "github.com/amarnathcjd/gogram/telegram"

	"main/modules/gate"
)

// telegramGateway adapts the gogram client to the gate.Gateway
// surface. All mechanics (ban-vs-kick, keyboards, HTML) live here so
// the gate itself stays platform-free.
type telegramGateway struct {
	client *tg.Client
}

func (t *telegramGateway) Restrict(chatID, userID int64, canSend bool) error {
	opts := &tg.BannedOptions{Mute: true}
	if canSend {
		opts = &tg.BannedOptions{Unmute: true}
	}
	_, err := t.client.EditBanned(chatID, userID, opts)
	return err
}

// RemoveMember kicks the user out but leaves them free to rejoin.
// KickParticipant bans and immediately lifts the ban, which is exactly
// the "removed now, not banned" contract.
func (t *telegramGateway) RemoveMember(chatID, userID int64) error {
	_, err := t.client.KickParticipant(chatID, userID)
	return err
}

func (t *telegramGateway) PostChallenge(c gate.Challenge, question string, options []int, attemptsLeft int) (int32, error) {
	text := fmt.Sprintf(
		"Welcome %s!\n\nTo verify you are not a bot, please solve:\n\n❓ %s\n\n⏰ Answer within the time limit or you will be removed.",
		Mention(c.UserID, c.Name), question)

	msg, err := t.client.SendMessage(c.ChatID, text, &tg.SendOptions{
		ReplyMarkup: optionsKeyboard(c.UserID, options),
	})
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

func (t *telegramGateway) EditChallenge(c gate.Challenge, question string, options []int, attemptsLeft int) error {
	text := fmt.Sprintf(
		"❌ Wrong answer, try again.\n\n❓ %s\n\n⏰ You have %d attempt(s) left.",
		question, attemptsLeft)

	_, err := t.client.EditMessage(c.ChatID, c.MessageID, text, &tg.SendOptions{
		ReplyMarkup: optionsKeyboard(c.UserID, options),
	})
	return err
}

func (t *telegramGateway) AnnounceOutcome(c gate.Challenge, outcome gate.Outcome) error {
	var text string
	switch outcome {
	case gate.OutcomeSuccess:
		text = fmt.Sprintf("✅ Well done %s! You are verified and can talk now.", Mention(c.UserID, c.Name))
	case gate.OutcomeKicked:
		text = fmt.Sprintf("❌ Too many wrong answers. %s was removed from the group.", Mention(c.UserID, c.Name))
	case gate.OutcomeTimeout:
		text = fmt.Sprintf("❌ Time is up! %s was removed for not solving the captcha.", Mention(c.UserID, c.Name))
	}

	if c.MessageID == 0 {
		_, err := t.client.SendMessage(c.ChatID, text)
		return err
	}
	_, err := t.client.EditMessage(c.ChatID, c.MessageID, text)
	return err
}

func optionsKeyboard(userID int64, options []int) *tg.ReplyInlineMarkup {
	kb := tg.NewKeyboard()
	for _, opt := range options {
		kb.AddRow(tg.Button.Data(
			strconv.Itoa(opt),
			fmt.Sprintf("captcha_%d_%d", userID, opt),
		))
	}
	return kb.Build()
}
