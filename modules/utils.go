package modules

import (
	"fmt"
	"html"
	"os"
	"strconv"
	"strings"

	tg "github.com/amarnathcjd/gogram/telegram"
)

// IsUserAdmin checks the member's live role in the chat; perm narrows
// the check to a specific admin right ("ban", "change_info", ...).
// The chat creator always passes.
func IsUserAdmin(c *tg.Client, chatID, userID int64, perm string) bool {
	p, err := c.GetChatMember(chatID, userID)
	if err != nil || p == nil {
		return false
	}

	switch p.Status {
	case tg.Creator:
		return true
	case tg.Admin:
		if perm == "" || p.Rights == nil {
			return perm == ""
		}
		switch perm {
		case "ban":
			return p.Rights.BanUsers
		case "change_info":
			return p.Rights.ChangeInfo
		case "delete":
			return p.Rights.DeleteMessages
		default:
			return true
		}
	}
	return false
}

// IsDeveloper reports whether the user is in the DEVELOPER_IDS list.
func IsDeveloper(userID int64) bool {
	for _, id := range DeveloperIDs() {
		if id == userID {
			return true
		}
	}
	return false
}

func DeveloperIDs() []int64 {
	var ids []int64
	for _, part := range strings.Split(os.Getenv("DEVELOPER_IDS"), ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err == nil && id != 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// Mention builds an HTML user mention.
func Mention(userID int64, name string) string {
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, userID, html.EscapeString(name))
}

// DisplayName prefers the username over the first name.
func DisplayName(u *tg.UserObj) string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}
