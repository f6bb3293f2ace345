// Package conversation is the chat state machine: it owns the global chat
// and message collections and enforces every messaging and group governance
// invariant. All mutation goes through the Engine; each public operation is
// one critical section that ends with a synchronous durable write.
package conversation

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/danglnh07/titan/db"
	"github.com/danglnh07/titan/fault"
	"github.com/danglnh07/titan/service/identity"
	"github.com/danglnh07/titan/service/session"
	"github.com/danglnh07/titan/util"
)

type Engine struct {
	mu      sync.Mutex
	queries *db.Queries
	ids     *identity.Store
	sess    *session.Manager
	logger  *slog.Logger

	chats    []db.Chat
	messages map[string][]db.Message
	call     CallInfo

	// Injected collaborators, overridable in tests
	Now   func() time.Time
	NewID func() string
}

func NewEngine(queries *db.Queries, ids *identity.Store, sess *session.Manager, logger *slog.Logger) (*Engine, error) {
	chats, err := queries.LoadChats()
	if err != nil {
		return nil, err
	}
	messages, err := queries.LoadMessages()
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		queries:  queries,
		ids:      ids,
		sess:     sess,
		logger:   logger,
		chats:    chats,
		messages: messages,
		call:     CallInfo{Status: CallIdle},
		Now:      time.Now,
		NewID:    util.NewID,
	}
	engine.sortChats()
	return engine, nil
}

// actor resolves the authenticated account. Must be called before taking the
// engine lock: the session manager calls into the engine during account
// deletion, so lock order is always session before engine.
func (e *Engine) actor() (db.Account, error) {
	account, ok := e.sess.Current()
	if !ok {
		return db.Account{}, fault.Authorizationf("general.error")
	}
	return account, nil
}

// ChatByID returns a copy of the chat.
func (e *Engine) ChatByID(chatID string) (db.Chat, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	chat := e.chat(chatID)
	if chat == nil {
		return db.Chat{}, false
	}
	return *chat, true
}

// ChatsFor returns the viewer's slice of the global chat collection, ordered
// by most recent activity.
func (e *Engine) ChatsFor(userID string) []db.Chat {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []db.Chat
	for i := range e.chats {
		if e.chats[i].HasParticipant(userID) {
			out = append(out, e.chats[i])
		}
	}
	return out
}

// MessagesFor returns the chat's history as the viewer sees it: messages the
// viewer self-deleted are filtered out.
func (e *Engine) MessagesFor(chatID, viewerID string) []db.Message {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []db.Message
	for _, msg := range e.messages[chatID] {
		if msg.HiddenFrom(viewerID) {
			continue
		}
		out = append(out, msg)
	}
	return out
}

// CreateOrOpenDirectChat opens the 1:1 chat with the other party, creating it
// on first contact. A second call with the same pair returns the existing
// chat unchanged.
func (e *Engine) CreateOrOpenDirectChat(otherID string) (string, error) {
	actor, err := e.actor()
	if err != nil {
		return "", err
	}

	other, ok := e.ids.Lookup(otherID)
	if !ok {
		return "", fault.NotFoundf("profile.user_not_found_title")
	}
	if actor.HasBlocked(otherID) || other.HasBlocked(actor.ID) {
		return "", fault.Authorizationf("chat.cannot_message_blocked_user")
	}
	if other.Messaging == db.MessagingFriendsOnly && !actor.IsFriendOf(otherID) {
		return "", fault.Authorizationf("chat.error_messaging_friends_only").WithName(other.Name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.chats {
		c := &e.chats[i]
		if !c.IsGroup && len(c.Participants) == 2 &&
			c.HasParticipant(actor.ID) && c.HasParticipant(otherID) {
			return c.ID, nil
		}
	}

	chat := db.Chat{
		ID:        e.NewID(),
		CreatedAt: e.Now(),
		Name:      other.Name,
		Participants: []db.ChatParticipant{
			participantSnapshot(actor),
			participantSnapshot(other),
		},
		UnreadCounts: map[string]int{},
		Typing:       map[string]bool{},
		BackgroundID: db.DefaultBackgroundID,
	}
	e.chats = append(e.chats, chat)
	e.sortChats()
	if err := e.saveChats(); err != nil {
		return "", err
	}
	return chat.ID, nil
}

// CreateGroupChat makes the creator owner and sole admin. At least one other
// member must resolve to a real account.
func (e *Engine) CreateGroupChat(name string, memberIDs []string, groupImage string) (string, error) {
	actor, err := e.actor()
	if err != nil {
		return "", err
	}

	participants := []db.ChatParticipant{participantSnapshot(actor)}
	for _, id := range memberIDs {
		if id == actor.ID {
			continue
		}
		member, ok := e.ids.Lookup(id)
		if !ok {
			continue
		}
		participants = append(participants, participantSnapshot(member))
	}
	if len(participants) < 2 {
		return "", fault.Validationf("groups.no_contacts_to_add_to_group")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	defaults := db.DefaultGroupPermissions()
	chat := db.Chat{
		ID:                 e.NewID(),
		IsGroup:            true,
		CreatedAt:          e.Now(),
		Name:               name,
		Participants:       participants,
		UnreadCounts:       map[string]int{},
		Typing:             map[string]bool{},
		BackgroundID:       db.DefaultBackgroundID,
		GroupImage:         groupImage,
		GroupAvatarColor:   util.DeterministicColor(name),
		CreatedBy:          actor.ID,
		OwnerID:            actor.ID,
		AdminIDs:           []string{actor.ID},
		BannedIDs:          []string{},
		DefaultPermissions: &defaults,
		Overrides:          map[string]db.PermissionOverride{},
	}
	e.chats = append(e.chats, chat)
	e.messages[chat.ID] = []db.Message{}
	e.sortChats()
	if err := e.saveAll(); err != nil {
		return "", err
	}
	return chat.ID, nil
}

// DeleteChat removes the chat and its history from the global collections.
func (e *Engine) DeleteChat(chatID string) error {
	actor, err := e.actor()
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.memberChat(chatID, actor.ID); err != nil {
		return err
	}
	e.dropChat(chatID)
	return e.saveAll()
}

// ClearChatHistory drops every message but keeps the chat. The last-message
// snapshot and all unread counters are reset with it.
func (e *Engine) ClearChatHistory(chatID string) error {
	actor, err := e.actor()
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	chat, err := e.memberChat(chatID, actor.ID)
	if err != nil {
		return err
	}
	e.messages[chatID] = []db.Message{}
	chat.LastMessage = nil
	chat.LastMessageSenderName = ""
	chat.UnreadCounts = map[string]int{}
	e.sortChats()
	return e.saveAll()
}

// ToggleMuteChat flips the caller's notification mute on the chat.
func (e *Engine) ToggleMuteChat(chatID string) error {
	actor, err := e.actor()
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	chat, err := e.memberChat(chatID, actor.ID)
	if err != nil {
		return err
	}
	chat.Muted = !chat.Muted
	return e.saveChats()
}

// TogglePresenceMute hides or re-shows a participant's presence in this chat.
func (e *Engine) TogglePresenceMute(chatID, targetID string) error {
	actor, err := e.actor()
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	chat, err := e.memberChat(chatID, actor.ID)
	if err != nil {
		return err
	}
	for i, id := range chat.PresenceMutedIDs {
		if id == targetID {
			chat.PresenceMutedIDs = append(chat.PresenceMutedIDs[:i], chat.PresenceMutedIDs[i+1:]...)
			return e.saveChats()
		}
	}
	chat.PresenceMutedIDs = append(chat.PresenceMutedIDs, targetID)
	return e.saveChats()
}

// SetChatBackground records the chat's background theme; empty resets to the
// default.
func (e *Engine) SetChatBackground(chatID, backgroundID string) error {
	actor, err := e.actor()
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	chat, err := e.memberChat(chatID, actor.ID)
	if err != nil {
		return err
	}
	if backgroundID == "" {
		backgroundID = db.DefaultBackgroundID
	}
	chat.BackgroundID = backgroundID
	return e.saveChats()
}

// SetTyping flips the caller's typing flag. In-memory only: the flag has no
// durability requirement and the caller clears it.
func (e *Engine) SetTyping(chatID string, typing bool) error {
	actor, err := e.actor()
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	chat, err := e.memberChat(chatID, actor.ID)
	if err != nil {
		return err
	}
	if chat.Typing == nil {
		chat.Typing = map[string]bool{}
	}
	chat.Typing[actor.ID] = typing
	return nil
}

// PurgeAccount redacts every trace of a deleted account: participant removal
// with ownership handoff, deletion of emptied chats, and tombstoning of all
// authored messages. Chats and messages are written back as one transaction.
func (e *Engine) PurgeAccount(userID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	kept := e.chats[:0]
	for i := range e.chats {
		chat := e.chats[i]
		if !chat.HasParticipant(userID) {
			kept = append(kept, chat)
			continue
		}
		chat.RemoveParticipant(userID)
		if len(chat.Participants) == 0 {
			delete(e.messages, chat.ID)
			continue
		}
		if chat.IsGroup && chat.OwnerID == userID {
			e.promoteOwner(&chat)
		}
		kept = append(kept, chat)
	}
	e.chats = kept

	for chatID, history := range e.messages {
		for i := range history {
			if history[i].SenderID != userID {
				continue
			}
			history[i].SenderID = db.DeletedUserID
			history[i].Text = db.DeletedUserText
			history[i].Type = db.SystemMessage
			history[i].Reactions = []db.Reaction{}
			history[i].DeletedGlobally = true
		}
		e.messages[chatID] = history
	}

	for i := range e.chats {
		e.refreshLastMessage(&e.chats[i])
	}
	e.sortChats()
	return e.saveAll()
}

// promoteOwner hands ownership to another admin still present, else to any
// remaining participant, who is promoted to admin alongside.
func (e *Engine) promoteOwner(chat *db.Chat) {
	for _, adminID := range chat.AdminIDs {
		if chat.HasParticipant(adminID) {
			chat.OwnerID = adminID
			return
		}
	}
	next := chat.Participants[0].UserID
	chat.OwnerID = next
	if !chat.IsAdmin(next) {
		chat.AdminIDs = append(chat.AdminIDs, next)
	}
}

func (e *Engine) chat(chatID string) *db.Chat {
	for i := range e.chats {
		if e.chats[i].ID == chatID {
			return &e.chats[i]
		}
	}
	return nil
}

// memberChat resolves the chat and verifies the caller belongs to it. Every
// chat-scoped mutation goes through it: a valid session alone grants nothing
// on chats the caller is not part of.
func (e *Engine) memberChat(chatID, actorID string) (*db.Chat, error) {
	chat := e.chat(chatID)
	if chat == nil {
		return nil, fault.NotFoundf("general.error")
	}
	if !chat.HasParticipant(actorID) {
		return nil, fault.Authorizationf("chat.error_not_participant")
	}
	return chat, nil
}

func (e *Engine) dropChat(chatID string) {
	for i := range e.chats {
		if e.chats[i].ID == chatID {
			e.chats = append(e.chats[:i], e.chats[i+1:]...)
			break
		}
	}
	delete(e.messages, chatID)
}

// refreshLastMessage recomputes the denormalized snapshot from the tail of
// the history.
func (e *Engine) refreshLastMessage(chat *db.Chat) {
	history := e.messages[chat.ID]
	if len(history) == 0 {
		chat.LastMessage = nil
		return
	}
	last := history[len(history)-1]
	chat.LastMessage = &last
}

// sortChats keeps the list ordered by most recent activity, newest first.
// Ties break on chat id so the ordering is total and rendering deterministic.
func (e *Engine) sortChats() {
	sort.SliceStable(e.chats, func(i, j int) bool {
		a, b := e.chats[i].LastActivity(), e.chats[j].LastActivity()
		if !a.Equal(b) {
			return a.After(b)
		}
		return e.chats[i].ID < e.chats[j].ID
	})
}

func (e *Engine) saveChats() error {
	if err := e.queries.SaveChats(e.chats); err != nil {
		e.logger.Error("Failed to persist chats", "error", err)
		return err
	}
	return nil
}

func (e *Engine) saveAll() error {
	if err := e.queries.SaveConversations(e.chats, e.messages); err != nil {
		e.logger.Error("Failed to persist conversations", "error", err)
		return err
	}
	return nil
}

func participantSnapshot(account db.Account) db.ChatParticipant {
	return db.ChatParticipant{
		UserID:        account.ID,
		Nickname:      account.Nickname,
		AvatarURL:     account.AvatarURL,
		AvatarBgColor: account.AvatarBgColor,
	}
}
