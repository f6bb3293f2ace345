package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestQueries(t *testing.T) *Queries {
	t.Helper()
	queries, err := NewQueries(":memory:")
	require.NoError(t, err)
	require.NoError(t, queries.AutoMigration())
	return queries
}

func TestLoadEmptyCollections(t *testing.T) {
	queries := newTestQueries(t)

	accounts, err := queries.LoadAccounts()
	require.NoError(t, err)
	require.Empty(t, accounts)

	chats, err := queries.LoadChats()
	require.NoError(t, err)
	require.Empty(t, chats)

	messages, err := queries.LoadMessages()
	require.NoError(t, err)
	require.NotNil(t, messages)
	require.Empty(t, messages)
}

func TestSaveAndReloadAccounts(t *testing.T) {
	queries := newTestQueries(t)

	accounts := []Account{
		{
			ID:        "a1",
			Name:      "Ada Lovelace",
			Nickname:  "ada",
			Email:     "ada@example.com",
			Status:    Online,
			JoinedAt:  time.Now().UTC().Truncate(time.Second),
			Presence:  VisibleToEveryone,
			Messaging: MessagingFriendsOnly,
			FriendIDs: []string{"b1"},
		},
	}
	require.NoError(t, queries.SaveAccounts(accounts))

	// Saving again must overwrite, not duplicate
	accounts[0].Nickname = "ada2"
	require.NoError(t, queries.SaveAccounts(accounts))

	loaded, err := queries.LoadAccounts()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "ada2", loaded[0].Nickname)
	require.Equal(t, MessagingFriendsOnly, loaded[0].Messaging)
	require.Equal(t, []string{"b1"}, loaded[0].FriendIDs)
}

func TestSaveConversationsRoundTrip(t *testing.T) {
	queries := newTestQueries(t)

	override := true
	chats := []Chat{
		{
			ID:      "c1",
			IsGroup: true,
			OwnerID: "a1",
			Participants: []ChatParticipant{
				{UserID: "a1", Nickname: "ada"},
				{UserID: "b1", Nickname: "bob"},
			},
			AdminIDs:           []string{"a1"},
			UnreadCounts:       map[string]int{"b1": 2},
			DefaultPermissions: &GroupPermissions{CanSendMessages: true},
			Overrides: map[string]PermissionOverride{
				"b1": {CanPinMessages: &override},
			},
		},
	}
	messages := map[string][]Message{
		"c1": {
			{ID: "m1", ChatID: "c1", SenderID: "a1", Text: "hi", Type: TextMessage,
				Reactions: []Reaction{{Emoji: "👍", UserIDs: []string{"b1"}}},
				ReadBy:    []string{"a1"}},
		},
	}

	require.NoError(t, queries.SaveConversations(chats, messages))

	loadedChats, err := queries.LoadChats()
	require.NoError(t, err)
	require.Len(t, loadedChats, 1)
	require.Equal(t, 2, loadedChats[0].UnreadCounts["b1"])
	require.NotNil(t, loadedChats[0].Overrides["b1"].CanPinMessages)
	require.True(t, *loadedChats[0].Overrides["b1"].CanPinMessages)

	loadedMessages, err := queries.LoadMessages()
	require.NoError(t, err)
	require.Len(t, loadedMessages["c1"], 1)
	require.Equal(t, []string{"b1"}, loadedMessages["c1"][0].Reactions[0].UserIDs)
}

func TestPreferencesKeyedPerIdentity(t *testing.T) {
	queries := newTestQueries(t)

	prefs := map[string]Preferences{
		"a1": {Theme: "dark", Language: "ar", FontSize: "lg"},
	}
	require.NoError(t, queries.SavePreferences(prefs))

	loaded, err := queries.LoadPreferences()
	require.NoError(t, err)
	require.Equal(t, "dark", loaded["a1"].Theme)
	require.Equal(t, "ar", loaded["a1"].Language)
}
