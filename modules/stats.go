package modules

import (
	"fmt"
	"strings"
	"time"

	tg "github.com/amarnathcjd/gogram/telegram"

	"main/modules/db"
)

// DevMenuCallback shows the developer submenu.
func DevMenuCallback(c *tg.CallbackQuery) error {
	if !IsDeveloper(c.SenderID) {
		c.Edit("Sorry, these commands are for developers only.")
		return nil
	}

	b := tg.Button
	c.Edit("⚙️ Developer commands:", &tg.SendOptions{
		ReplyMarkup: tg.NewKeyboard().
			AddRow(b.Data("📊 Bot Stats", "bot_stats")).
			AddRow(b.Data("📢 Broadcast to Users", "broadcast_users")).
			AddRow(b.Data("📢 Broadcast to Groups", "broadcast_chats")).
			AddRow(b.Data("🔙 Back", "start_menu")).
			Build(),
	})
	return nil
}

// AdminMenuCallback shows the activating-admin submenu.
func AdminMenuCallback(c *tg.CallbackQuery) error {
	ok, _ := db.IsActivatingAdmin(c.SenderID)
	if !ok && !IsDeveloper(c.SenderID) {
		c.Edit("Sorry, these commands are only for admins who enabled the bot in their groups.")
		return nil
	}

	b := tg.Button
	c.Edit("🛠️ Admin commands:", &tg.SendOptions{
		ReplyMarkup: tg.NewKeyboard().
			AddRow(b.Data("📊 My Group Stats", "admin_stats")).
			AddRow(b.Data("🔙 Back", "start_menu")).
			Build(),
	})
	return nil
}

// BotStatsCallback shows global totals to developers.
func BotStatsCallback(c *tg.CallbackQuery) error {
	if !IsDeveloper(c.SenderID) {
		c.Edit("Sorry, these stats are for developers only.")
		return nil
	}

	users, _ := db.CountUsers()
	chats, _ := db.AllChatIDs()
	pending := Protection.Pending()

	totals, _ := db.CountOutcomes(0, 0, time.Time{})
	day, _ := db.CountOutcomes(0, 0, time.Now().Add(-24*time.Hour))

	text := "📊 <b>Bot stats</b>\n\n"
	text += fmt.Sprintf("👥 Total users: %d\n", users)
	text += fmt.Sprintf("🏘️ Total groups: %d\n", len(chats))
	text += fmt.Sprintf("⏳ Pending captchas: %d\n\n", pending)
	text += formatStats("All time", totals)
	text += formatStats("Last 24h", day)

	b := tg.Button
	c.Edit(text, &tg.SendOptions{
		ReplyMarkup: tg.NewKeyboard().AddRow(b.Data("🔙 Back", "dev_menu")).Build(),
	})
	return nil
}

// AdminStatsCallback shows per-group captcha stats for the chats this
// admin activated.
func AdminStatsCallback(c *tg.CallbackQuery) error {
	chats, _ := db.ChatsActivatedBy(c.SenderID)
	if len(chats) == 0 && !IsDeveloper(c.SenderID) {
		c.Edit("Sorry, these stats are only for admins who enabled the bot in their groups.")
		return nil
	}

	var sb strings.Builder
	sb.WriteString("📊 <b>Captcha stats for your groups</b>\n")

	if len(chats) == 0 {
		sb.WriteString("\nNo protected groups yet.")
	}
	for _, chat := range chats {
		stats, _ := db.CountOutcomes(chat.ChatID, 0, time.Time{})
		title := chat.Title
		if title == "" {
			title = fmt.Sprintf("Group %d", chat.ChatID)
		}
		sb.WriteString(fmt.Sprintf("\n<b>%s</b>\n", title))
		sb.WriteString(formatStats("All time", stats))
	}

	b := tg.Button
	c.Edit(sb.String(), &tg.SendOptions{
		ReplyMarkup: tg.NewKeyboard().AddRow(b.Data("🔙 Back", "admin_menu")).Build(),
	})
	return nil
}

func formatStats(label string, s *db.Stats) string {
	if s == nil {
		s = &db.Stats{}
	}
	return fmt.Sprintf("<b>%s</b>\n✅ Verified: %d\n❌ Kicked (wrong answers): %d\n⏰ Kicked (timeout): %d\n",
		label, s.Success, s.Kicked, s.Timeout)
}
