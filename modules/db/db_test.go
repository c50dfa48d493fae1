package db_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/modules/db"
)

// The bolt handle is process wide, so all tests share one database in
// a temp dir. Tests use disjoint chat/user id ranges to stay isolated.
func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "protection-db-test")
	if err != nil {
		os.Exit(1)
	}
	db.SetPath(filepath.Join(dir, "protection.db"))

	code := m.Run()

	db.CloseDB()
	os.RemoveAll(dir)
	os.Exit(code)
}

func TestSetProtectionRoundTrip(t *testing.T) {
	require.NoError(t, db.SetProtection(100, "alpha", true, 9001))

	chat, err := db.GetChat(100)
	require.NoError(t, err)
	require.NotNil(t, chat)
	assert.Equal(t, "alpha", chat.Title)
	assert.True(t, chat.ProtectionEnabled)
	assert.Equal(t, int64(9001), chat.ActivatingAdminID)
	assert.False(t, chat.LastActivity.IsZero())

	// Disable keeps the record but clears the activating admin.
	require.NoError(t, db.SetProtection(100, "", false, 9002))
	chat, err = db.GetChat(100)
	require.NoError(t, err)
	require.NotNil(t, chat)
	assert.Equal(t, "alpha", chat.Title, "empty title leaves the stored one")
	assert.False(t, chat.ProtectionEnabled)
	assert.Zero(t, chat.ActivatingAdminID)
}

func TestGetChatUnknown(t *testing.T) {
	chat, err := db.GetChat(199)
	require.NoError(t, err)
	assert.Nil(t, chat)
}

func TestProtectedChats(t *testing.T) {
	require.NoError(t, db.SetProtection(200, "on", true, 9001))
	require.NoError(t, db.SetProtection(201, "off", false, 9001))
	require.NoError(t, db.SetProtection(202, "on2", true, 9001))

	chats, err := db.ProtectedChats()
	require.NoError(t, err)
	assert.Contains(t, chats, int64(200))
	assert.Contains(t, chats, int64(202))
	assert.NotContains(t, chats, int64(201))

	all, err := db.AllChatIDs()
	require.NoError(t, err)
	assert.Contains(t, all, int64(201), "disabled chats are still known")
}

func TestActivatingAdmin(t *testing.T) {
	require.NoError(t, db.SetProtection(300, "one", true, 9300))
	require.NoError(t, db.SetProtection(301, "two", true, 9300))
	require.NoError(t, db.SetProtection(302, "other", true, 9301))

	ok, err := db.IsActivatingAdmin(9300)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.IsActivatingAdmin(9399)
	require.NoError(t, err)
	assert.False(t, ok)

	chats, err := db.ChatsActivatedBy(9300)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	for _, chat := range chats {
		assert.Equal(t, int64(9300), chat.ActivatingAdminID)
	}

	// Disabling drops the chat from the admin's list.
	require.NoError(t, db.SetProtection(301, "", false, 9300))
	chats, err = db.ChatsActivatedBy(9300)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, int64(300), chats[0].ChatID)
}

func TestUpsertUser(t *testing.T) {
	require.NoError(t, db.UpsertUser(400, "alice", "Alice"))
	require.NoError(t, db.UpsertUser(401, "bob", "Bob"))
	require.NoError(t, db.UpsertUser(400, "alice2", "Alice"))

	users, err := db.AllUserIDs()
	require.NoError(t, err)
	assert.Contains(t, users, int64(400))
	assert.Contains(t, users, int64(401))

	count, err := db.CountUsers()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 2)
}

func TestCaptchaEventCounts(t *testing.T) {
	now := time.Now()
	old := now.Add(-48 * time.Hour)

	require.NoError(t, db.LogCaptchaEvent(500, 5000, "success", now))
	require.NoError(t, db.LogCaptchaEvent(501, 5000, "kicked", now))
	require.NoError(t, db.LogCaptchaEvent(502, 5000, "timeout", old))
	require.NoError(t, db.LogCaptchaEvent(500, 5001, "success", now))

	// Per chat, all time.
	stats, err := db.CountOutcomes(5000, 0, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Success)
	assert.Equal(t, 1, stats.Kicked)
	assert.Equal(t, 1, stats.Timeout)

	// Per chat, last 24h excludes the old event.
	stats, err = db.CountOutcomes(5000, 0, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Success)
	assert.Equal(t, 1, stats.Kicked)
	assert.Zero(t, stats.Timeout)

	// Per user across chats.
	stats, err = db.CountOutcomes(0, 500, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Success)
	assert.Zero(t, stats.Kicked)

	// Unknown chat yields empty stats, not an error.
	stats, err = db.CountOutcomes(5999, 0, time.Time{})
	require.NoError(t, err)
	assert.Zero(t, stats.Success+stats.Kicked+stats.Timeout)
}
