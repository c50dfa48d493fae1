package main

import (
	"main/modules"

	"github.com/amarnathcjd/gogram/telegram"
)

func FilterDeveloper(m *telegram.NewMessage) bool {
	if modules.IsDeveloper(m.SenderID()) {
		return true
	}
	m.Reply("You are not allowed to use this command")
	return false
}

func initFunc(c *telegram.Client) {
	c.UpdatesGetState()
	c.SetCommandPrefixes("/!")

	c.On("cmd:start", modules.StartHandle)
	c.On("cmd:help", modules.HelpHandle)
	c.On("cmd:ping", modules.PingHandle)

	c.On("cmd:enable", modules.EnableProtectionHandle)
	c.On("cmd:disable", modules.DisableProtectionHandle)

	c.On("cmd:sys", modules.GatherSystemInfo, telegram.Custom(FilterDeveloper))

	c.On("callback:captcha_(.*)_(.*)", modules.CaptchaCallbackHandler)

	c.On("callback:start_menu", modules.StartMenuCallback)
	c.On("callback:dev_menu", modules.DevMenuCallback)
	c.On("callback:admin_menu", modules.AdminMenuCallback)
	c.On("callback:bot_stats", modules.BotStatsCallback)
	c.On("callback:admin_stats", modules.AdminStatsCallback)
	c.On("callback:broadcast_users", modules.BroadcastUsersCallback)
	c.On("callback:broadcast_chats", modules.BroadcastChatsCallback)
	c.On("callback:help_back", modules.HelpBackCallback)

	c.On(telegram.OnParticipant, modules.NewMemberHandler)
	c.On(telegram.OnNewMessage, modules.BroadcastMessageHandler)

	modules.Mods.Init(c)
}
