package modules

import (
	"fmt"
	"time"

	tg "github.com/amarnathcjd/gogram/telegram"

	"main/modules/db"
)

// StartHandle greets the user. In private chat it shows the main menu
// with role-dependent buttons; in groups it points at the enable
// command.
func StartHandle(m *tg.NewMessage) error {
	db.UpsertUser(m.SenderID(), senderUsername(m), senderFirstName(m))

	if !m.IsPrivate() {
		m.Reply("Hello! I am a group protection bot.\nUse /enable to turn on the captcha gate in this group.")
		return nil
	}

	text, keyboard := startMenu(m.SenderID())
	if keyboard != nil {
		m.Reply(text, &tg.SendOptions{ReplyMarkup: keyboard})
	} else {
		m.Reply(text)
	}
	return nil
}

// StartMenuCallback re-renders the main menu from a back button.
func StartMenuCallback(c *tg.CallbackQuery) error {
	text, keyboard := startMenu(c.SenderID)
	if keyboard != nil {
		c.Edit(text, &tg.SendOptions{ReplyMarkup: keyboard})
	} else {
		c.Edit(text)
	}
	return nil
}

func startMenu(userID int64) (string, *tg.ReplyInlineMarkup) {
	text := "Hello! I am a group protection bot.\n" +
		"Add me to your group and make me admin so I can protect it.\n" +
		"Use /enable in the group to turn on the captcha gate."

	b := tg.Button
	kb := tg.NewKeyboard()
	rows := 0

	if IsDeveloper(userID) {
		kb.AddRow(b.Data("⚙️ Developer Commands", "dev_menu"))
		rows++
	}
	if ok, _ := db.IsActivatingAdmin(userID); ok {
		kb.AddRow(b.Data("🛠️ Admin Commands", "admin_menu"))
		rows++
	}

	if rows == 0 {
		text += "\n\nEnable the bot in one of your groups to unlock the admin menu."
		return text, nil
	}
	return text, kb.Build()
}

func PingHandle(m *tg.NewMessage) error {
	start := time.Now()
	sent, _ := m.Reply("Pinging...")
	_, err := sent.Edit(fmt.Sprintf("<code>Pong!</code> <code>%s</code>", time.Since(start).String()))
	return err
}

func init() {
	Mods.AddModule("Start", `<b>Here are the commands available in Start module:</b>

<code>/start</code> - open the main menu
<code>/ping</code> - check the bot's response time`)
}
