package conversation

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/danglnh07/titan/db"
	"github.com/danglnh07/titan/fault"
	"github.com/danglnh07/titan/service/identity"
	"github.com/danglnh07/titan/service/security"
	"github.com/danglnh07/titan/service/session"
	"github.com/danglnh07/titan/util"
	"github.com/stretchr/testify/require"
)

const testPassword = "secret123"

type testEnv struct {
	engine *Engine
	sess   *session.Manager
	ids    *identity.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	queries, err := db.NewQueries(":memory:")
	require.NoError(t, err)
	require.NoError(t, queries.AutoMigration())

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	ids, err := identity.NewStore(queries, logger)
	require.NoError(t, err)

	config := &util.Config{
		SecretKey:              []byte("test-secret-key"),
		TokenExpiration:        time.Hour,
		RefreshTokenExpiration: 24 * time.Hour,
	}
	sess := session.NewManager(ids, security.NewJWTService(config), logger)

	engine, err := NewEngine(queries, ids, sess, logger)
	require.NoError(t, err)
	sess.AttachPurger(engine)
	return &testEnv{engine: engine, sess: sess, ids: ids}
}

// signup creates and logs in an account, returning its id.
func (env *testEnv) signup(t *testing.T, name, nickname, email string) string {
	t.Helper()
	_, err := env.sess.Signup(session.SignupPayload{
		Name:     name,
		Nickname: nickname,
		Email:    email,
		Password: testPassword,
	})
	require.NoError(t, err)
	return env.sess.CurrentID()
}

func (env *testEnv) loginAs(t *testing.T, email string) {
	t.Helper()
	_, ok := env.sess.Login(email, testPassword)
	require.True(t, ok)
}

// befriend runs the full request/accept handshake between the current user
// and the target, leaving the original user logged in.
func (env *testEnv) befriend(t *testing.T, targetID, targetEmail, backEmail string) {
	t.Helper()
	require.NoError(t, env.sess.SendFriendRequest(targetID))
	requesterID := env.sess.CurrentID()
	env.loginAs(t, targetEmail)
	require.NoError(t, env.sess.AcceptFriendRequest(requesterID))
	env.loginAs(t, backEmail)
}

func TestDirectChatDedupe(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Ada", "ada", "ada@example.com")
	bobID := env.signup(t, "Bob", "bob", "bob@example.com")
	env.loginAs(t, "ada@example.com")

	first, err := env.engine.CreateOrOpenDirectChat(bobID)
	require.NoError(t, err)
	second, err := env.engine.CreateOrOpenDirectChat(bobID)
	require.NoError(t, err)
	require.Equal(t, first, second)

	adaID := env.sess.CurrentID()
	require.Len(t, env.engine.ChatsFor(adaID), 1)

	// The counterpart opening from their side lands in the same chat
	env.loginAs(t, "bob@example.com")
	third, err := env.engine.CreateOrOpenDirectChat(adaID)
	require.NoError(t, err)
	require.Equal(t, first, third)
}

func TestDirectChatBlockedEitherDirection(t *testing.T) {
	env := newTestEnv(t)
	adaID := env.signup(t, "Ada", "ada", "ada@example.com")
	bobID := env.signup(t, "Bob", "bob", "bob@example.com")

	env.loginAs(t, "ada@example.com")
	require.NoError(t, env.sess.Block(bobID))

	_, err := env.engine.CreateOrOpenDirectChat(bobID)
	require.True(t, fault.IsKind(err, fault.Authorization))

	env.loginAs(t, "bob@example.com")
	_, err = env.engine.CreateOrOpenDirectChat(adaID)
	require.True(t, fault.IsKind(err, fault.Authorization))
	require.Equal(t, "chat.cannot_message_blocked_user", err.Error())
}

func TestDirectChatFriendsOnlyGate(t *testing.T) {
	env := newTestEnv(t)
	adaID := env.signup(t, "Ada", "ada", "ada@example.com")
	env.signup(t, "Bob", "bob", "bob@example.com")

	messaging := db.MessagingFriendsOnly
	require.NoError(t, env.ids.UpdateAccount(adaID, identity.Update{Messaging: &messaging}))

	_, err := env.engine.CreateOrOpenDirectChat(adaID)
	require.True(t, fault.IsKind(err, fault.Authorization))
	require.Equal(t, "chat.error_messaging_friends_only", err.Error())

	// Becoming friends opens the gate
	env.befriend(t, adaID, "ada@example.com", "bob@example.com")
	chatID, err := env.engine.CreateOrOpenDirectChat(adaID)
	require.NoError(t, err)
	require.NotEmpty(t, chatID)
}

func TestGroupChatNeedsAnotherMember(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Ada", "ada", "ada@example.com")

	_, err := env.engine.CreateGroupChat("team", []string{"ghost"}, "")
	require.True(t, fault.IsKind(err, fault.Validation))
}

func TestChatOrderingMostRecentFirst(t *testing.T) {
	env := newTestEnv(t)
	adaID := env.signup(t, "Ada", "ada", "ada@example.com")
	bobID := env.signup(t, "Bob", "bob", "bob@example.com")
	carolID := env.signup(t, "Carol", "carol", "carol@example.com")
	env.loginAs(t, "ada@example.com")

	now := time.Now()
	env.engine.Now = func() time.Time { return now }

	withBob, err := env.engine.CreateOrOpenDirectChat(bobID)
	require.NoError(t, err)
	withCarol, err := env.engine.CreateOrOpenDirectChat(carolID)
	require.NoError(t, err)

	// Activity in the older chat moves it to the front
	env.engine.Now = func() time.Time { return now.Add(time.Minute) }
	_, err = env.engine.Send(withBob, "hello", SendOptions{})
	require.NoError(t, err)

	chats := env.engine.ChatsFor(adaID)
	require.Len(t, chats, 2)
	require.Equal(t, withBob, chats[0].ID)
	require.Equal(t, withCarol, chats[1].ID)
}

func TestClearChatHistory(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Ada", "ada", "ada@example.com")
	bobID := env.signup(t, "Bob", "bob", "bob@example.com")
	env.loginAs(t, "ada@example.com")
	adaID := env.sess.CurrentID()

	chatID, err := env.engine.CreateOrOpenDirectChat(bobID)
	require.NoError(t, err)
	_, err = env.engine.Send(chatID, "hello", SendOptions{})
	require.NoError(t, err)

	require.NoError(t, env.engine.ClearChatHistory(chatID))
	require.Empty(t, env.engine.MessagesFor(chatID, adaID))

	chat, ok := env.engine.ChatByID(chatID)
	require.True(t, ok)
	require.Nil(t, chat.LastMessage)
	require.Zero(t, chat.UnreadCounts[bobID])
}

func TestToggleMuteAndBackground(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Ada", "ada", "ada@example.com")
	bobID := env.signup(t, "Bob", "bob", "bob@example.com")
	env.loginAs(t, "ada@example.com")

	chatID, err := env.engine.CreateOrOpenDirectChat(bobID)
	require.NoError(t, err)

	require.NoError(t, env.engine.ToggleMuteChat(chatID))
	chat, _ := env.engine.ChatByID(chatID)
	require.True(t, chat.Muted)
	require.NoError(t, env.engine.ToggleMuteChat(chatID))
	chat, _ = env.engine.ChatByID(chatID)
	require.False(t, chat.Muted)

	require.NoError(t, env.engine.SetChatBackground(chatID, "aurora"))
	chat, _ = env.engine.ChatByID(chatID)
	require.Equal(t, "aurora", chat.BackgroundID)
	require.NoError(t, env.engine.SetChatBackground(chatID, ""))
	chat, _ = env.engine.ChatByID(chatID)
	require.Equal(t, db.DefaultBackgroundID, chat.BackgroundID)
}

func TestPurgeAccountCascade(t *testing.T) {
	env := newTestEnv(t)
	adaID := env.signup(t, "Ada", "ada", "ada@example.com")
	bobID := env.signup(t, "Bob", "bob", "bob@example.com")
	carolID := env.signup(t, "Carol", "carol", "carol@example.com")
	env.loginAs(t, "ada@example.com")

	direct, err := env.engine.CreateOrOpenDirectChat(bobID)
	require.NoError(t, err)
	group, err := env.engine.CreateGroupChat("team", []string{bobID, carolID}, "")
	require.NoError(t, err)

	_, err = env.engine.Send(direct, "one", SendOptions{})
	require.NoError(t, err)
	_, err = env.engine.Send(direct, "two", SendOptions{})
	require.NoError(t, err)
	_, err = env.engine.Send(group, "three", SendOptions{})
	require.NoError(t, err)

	require.NoError(t, env.sess.DeleteOwnAccount())

	// Every authored message is a deleted-user tombstone
	for _, chatID := range []string{direct, group} {
		for _, msg := range env.engine.MessagesFor(chatID, bobID) {
			require.Equal(t, db.DeletedUserID, msg.SenderID)
			require.Equal(t, db.DeletedUserText, msg.Text)
			require.Equal(t, db.SystemMessage, msg.Type)
			require.True(t, msg.DeletedGlobally)
			require.Empty(t, msg.Reactions)
		}
	}

	// Participant removal with group ownership handoff
	groupChat, ok := env.engine.ChatByID(group)
	require.True(t, ok)
	require.False(t, groupChat.HasParticipant(adaID))
	require.NotEqual(t, adaID, groupChat.OwnerID)
	require.True(t, groupChat.IsAdmin(groupChat.OwnerID))

	directChat, ok := env.engine.ChatByID(direct)
	require.True(t, ok)
	require.Len(t, directChat.Participants, 1)
}

func TestNonParticipantOperationsRejected(t *testing.T) {
	env := newTestEnv(t)
	adaID := env.signup(t, "Ada", "ada", "ada@example.com")
	bobID := env.signup(t, "Bob", "bob", "bob@example.com")
	env.signup(t, "Carol", "carol", "carol@example.com")
	env.loginAs(t, "ada@example.com")

	group, err := env.engine.CreateGroupChat("duo", []string{bobID}, "")
	require.NoError(t, err)
	direct, err := env.engine.CreateOrOpenDirectChat(bobID)
	require.NoError(t, err)
	msg, err := env.engine.Send(direct, "between us", SendOptions{})
	require.NoError(t, err)

	// A valid session on its own grants nothing on other people's chats
	env.loginAs(t, "carol@example.com")

	_, err = env.engine.Send(group, "infiltrated", SendOptions{})
	require.True(t, fault.IsKind(err, fault.Authorization))
	require.Empty(t, env.engine.MessagesFor(group, adaID))

	_, err = env.engine.Send(direct, "me too", SendOptions{})
	require.True(t, fault.IsKind(err, fault.Authorization))
	_, err = env.engine.Send(direct, "rewrite", SendOptions{EditMessageID: msg.ID})
	require.True(t, fault.IsKind(err, fault.Authorization))

	require.True(t, fault.IsKind(env.engine.Delete(direct, msg.ID, DeleteForEveryone), fault.Authorization))
	require.True(t, fault.IsKind(env.engine.ToggleReaction(direct, msg.ID, "👍"), fault.Authorization))
	require.True(t, fault.IsKind(env.engine.MarkRead(direct), fault.Authorization))
	require.True(t, fault.IsKind(env.engine.ForwardMessages(direct, msg.ID, []string{group}), fault.Authorization))
	require.True(t, fault.IsKind(env.engine.ClearChatHistory(direct), fault.Authorization))
	require.True(t, fault.IsKind(env.engine.ToggleMuteChat(direct), fault.Authorization))
	require.True(t, fault.IsKind(env.engine.TogglePresenceMute(direct, adaID), fault.Authorization))
	require.True(t, fault.IsKind(env.engine.SetChatBackground(direct, "aurora"), fault.Authorization))
	require.True(t, fault.IsKind(env.engine.SetTyping(direct, true), fault.Authorization))
	require.True(t, fault.IsKind(env.engine.DeleteChat(direct), fault.Authorization))

	// Nothing moved for the real participants
	history := env.engine.MessagesFor(direct, adaID)
	require.Len(t, history, 1)
	require.Equal(t, "between us", history[0].Text)
	require.False(t, history[0].Edited)
	chat, ok := env.engine.ChatByID(direct)
	require.True(t, ok)
	require.False(t, chat.Muted)
}

func TestPurgeScrubsUnreadCounters(t *testing.T) {
	env := newTestEnv(t)
	adaID := env.signup(t, "Ada", "ada", "ada@example.com")
	env.signup(t, "Bob", "bob", "bob@example.com")
	carolID := env.signup(t, "Carol", "carol", "carol@example.com")
	env.loginAs(t, "bob@example.com")

	group, err := env.engine.CreateGroupChat("team", []string{adaID, carolID}, "")
	require.NoError(t, err)
	_, err = env.engine.Send(group, "hello", SendOptions{})
	require.NoError(t, err)

	chat, _ := env.engine.ChatByID(group)
	require.Equal(t, 1, chat.UnreadCounts[adaID])

	env.loginAs(t, "ada@example.com")
	require.NoError(t, env.sess.DeleteOwnAccount())

	// The surviving chat must not keep the purged account's counter key
	chat, _ = env.engine.ChatByID(group)
	_, tracked := chat.UnreadCounts[adaID]
	require.False(t, tracked)
}

func TestPurgeDropsEmptiedChats(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Ada", "ada", "ada@example.com")
	bobID := env.signup(t, "Bob", "bob", "bob@example.com")
	env.loginAs(t, "ada@example.com")

	chatID, err := env.engine.CreateOrOpenDirectChat(bobID)
	require.NoError(t, err)

	env.loginAs(t, "bob@example.com")
	require.NoError(t, env.sess.DeleteOwnAccount())
	env.loginAs(t, "ada@example.com")
	require.NoError(t, env.sess.DeleteOwnAccount())

	_, ok := env.engine.ChatByID(chatID)
	require.False(t, ok)
}
