package conversation

import (
	"time"

	"github.com/danglnh07/titan/db"
	"github.com/danglnh07/titan/fault"
)

// DeleteForEveryoneWindow is how long a sender may retract a message for all
// participants. Past it the retraction silently degrades to a self-delete.
const DeleteForEveryoneWindow = 10 * time.Minute

// DeleteScope selects who stops seeing a deleted message.
type DeleteScope string

const (
	DeleteForMe       DeleteScope = "me"
	DeleteForEveryone DeleteScope = "everyone"
)

// SendOptions carries the optional fields of an outgoing message.
type SendOptions struct {
	Type          db.MessageType
	FileName      string
	FileSize      int64
	FileType      string
	ReplyTo       string
	EditMessageID string
	CallDuration  string
	ForwardedFrom *db.ForwardInfo
}

// Send appends a message to a chat after the privacy and permission gates, or
// rewrites an existing one when EditMessageID is set. Edits skip the gates:
// the content was already admitted once.
func (e *Engine) Send(chatID, content string, opts SendOptions) (db.Message, error) {
	actor, err := e.actor()
	if err != nil {
		return db.Message{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.send(actor, chatID, content, opts)
}

func (e *Engine) send(actor db.Account, chatID, content string, opts SendOptions) (db.Message, error) {
	chat, err := e.memberChat(chatID, actor.ID)
	if err != nil {
		return db.Message{}, err
	}
	if opts.Type == "" {
		opts.Type = db.TextMessage
	}

	if opts.EditMessageID != "" {
		return e.edit(actor, chat, opts.EditMessageID, content)
	}

	if err := e.sendGate(actor, chat, opts.Type); err != nil {
		return db.Message{}, err
	}

	msg := db.Message{
		ID:            e.NewID(),
		ChatID:        chatID,
		SenderID:      actor.ID,
		Text:          content,
		Type:          opts.Type,
		FileName:      opts.FileName,
		FileSize:      opts.FileSize,
		FileType:      opts.FileType,
		ReplyTo:       opts.ReplyTo,
		Timestamp:     e.Now(),
		Reactions:     []db.Reaction{},
		ReadBy:        []string{actor.ID},
		CallDuration:  opts.CallDuration,
		ForwardedFrom: opts.ForwardedFrom,
	}
	// Call logs are informational for everyone, so nobody gets an unread badge
	if opts.Type == db.CallLogMessage {
		msg.ReadBy = participantIDs(chat)
	}

	e.messages[chatID] = append(e.messages[chatID], msg)

	last := msg
	chat.LastMessage = &last
	if chat.IsGroup {
		chat.LastMessageSenderName = actor.Name
	}
	if countsTowardUnread(opts.Type) {
		if chat.UnreadCounts == nil {
			chat.UnreadCounts = map[string]int{}
		}
		for _, p := range chat.Participants {
			if p.UserID != actor.ID {
				chat.UnreadCounts[p.UserID]++
			}
		}
	}

	e.sortChats()
	if err := e.saveAll(); err != nil {
		return db.Message{}, err
	}
	return msg, nil
}

// sendGate enforces, in order, the group capability for the message type, the
// group ban list, and the 1:1 block and friends-only privacy rules. System
// and call-log messages are engine-generated and bypass all of it.
func (e *Engine) sendGate(actor db.Account, chat *db.Chat, msgType db.MessageType) error {
	if msgType == db.SystemMessage || msgType == db.CallLogMessage {
		return nil
	}

	if chat.IsGroup {
		if !CanPerform(actor.ID, chat, capabilityFor(msgType)) {
			return fault.Authorizationf("chat.permission_denied_admins_only")
		}
		if chat.IsBanned(actor.ID) {
			return fault.Authorizationf("chat.you_are_blocked_message")
		}
		return nil
	}

	other := chat.OtherParticipant(actor.ID)
	if other == nil {
		return nil
	}
	counterpart, ok := e.ids.Lookup(other.UserID)
	if !ok {
		return nil
	}
	if actor.HasBlocked(counterpart.ID) || counterpart.HasBlocked(actor.ID) {
		return fault.Authorizationf("chat.cannot_message_blocked_user")
	}
	if counterpart.Messaging == db.MessagingFriendsOnly && !counterpart.IsFriendOf(actor.ID) {
		return fault.Authorizationf("chat.error_messaging_friends_only").WithName(counterpart.Name)
	}
	return nil
}

func capabilityFor(msgType db.MessageType) db.Capability {
	switch msgType {
	case db.ImageMessage, db.VideoMessage:
		return db.CanSendMedia
	case db.FileMessage:
		return db.CanSendFiles
	default:
		return db.CanSendMessages
	}
}

// edit rewrites the message in place: new text, type reset to plain text, the
// edited flag set and a fresh timestamp. Only the original sender may edit.
func (e *Engine) edit(actor db.Account, chat *db.Chat, messageID, content string) (db.Message, error) {
	history := e.messages[chat.ID]
	for i := range history {
		if history[i].ID != messageID {
			continue
		}
		if history[i].SenderID != actor.ID {
			return db.Message{}, fault.Authorizationf("chat.error_edit_not_author")
		}
		history[i].Text = content
		history[i].Type = db.TextMessage
		history[i].Edited = true
		history[i].Timestamp = e.Now()
		e.messages[chat.ID] = history
		if chat.LastMessage != nil && chat.LastMessage.ID == messageID {
			last := history[i]
			chat.LastMessage = &last
		}
		e.sortChats()
		if err := e.saveAll(); err != nil {
			return db.Message{}, err
		}
		return history[i], nil
	}
	return db.Message{}, fault.NotFoundf("general.error")
}

// Delete tombstones a message. Scope "me" hides it from the caller only and
// always succeeds. Scope "everyone" replaces the content for all participants
// when the caller authored the message recently enough; otherwise it quietly
// falls back to the self-delete.
func (e *Engine) Delete(chatID, messageID string, scope DeleteScope) error {
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
	history := e.messages[chatID]
	for i := range history {
		if history[i].ID != messageID {
			continue
		}
		msg := &history[i]

		retractable := scope == DeleteForEveryone &&
			msg.SenderID == actor.ID &&
			e.Now().Sub(msg.Timestamp) <= DeleteForEveryoneWindow
		if retractable {
			msg.Text = db.DeletedBySenderText
			msg.Type = db.SystemMessage
			msg.Reactions = []db.Reaction{}
			msg.DeletedGlobally = true
		} else if !msg.HiddenFrom(actor.ID) {
			msg.HiddenFor = append(msg.HiddenFor, actor.ID)
		}

		e.messages[chatID] = history
		if chat.LastMessage != nil && chat.LastMessage.ID == messageID {
			last := *msg
			chat.LastMessage = &last
		}
		return e.saveAll()
	}
	return fault.NotFoundf("general.error")
}

// ToggleReaction adds or removes the caller from the emoji's reactor set. A
// bucket emptied by the removal disappears. Tombstoned messages are inert: the
// call is a no-op, not an error.
func (e *Engine) ToggleReaction(chatID, messageID, emoji string) error {
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
	history := e.messages[chatID]
	for i := range history {
		if history[i].ID != messageID {
			continue
		}
		msg := &history[i]
		if msg.Tombstoned(actor.ID) {
			return nil
		}

		toggled := false
		for j := range msg.Reactions {
			if msg.Reactions[j].Emoji != emoji {
				continue
			}
			bucket := &msg.Reactions[j]
			removed := false
			for k, id := range bucket.UserIDs {
				if id == actor.ID {
					bucket.UserIDs = append(bucket.UserIDs[:k], bucket.UserIDs[k+1:]...)
					removed = true
					break
				}
			}
			if !removed {
				bucket.UserIDs = append(bucket.UserIDs, actor.ID)
			} else if len(bucket.UserIDs) == 0 {
				msg.Reactions = append(msg.Reactions[:j], msg.Reactions[j+1:]...)
			}
			toggled = true
			break
		}
		if !toggled {
			msg.Reactions = append(msg.Reactions, db.Reaction{Emoji: emoji, UserIDs: []string{actor.ID}})
		}

		e.messages[chatID] = history
		if chat.LastMessage != nil && chat.LastMessage.ID == messageID {
			last := *msg
			chat.LastMessage = &last
		}
		return e.saveAll()
	}
	return fault.NotFoundf("general.error")
}

// MarkRead stamps the caller on every message in the chat and zeroes their
// unread counter. Idempotent.
func (e *Engine) MarkRead(chatID string) error {
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

	changed := false
	history := e.messages[chatID]
	for i := range history {
		if !history[i].ReadByUser(actor.ID) {
			history[i].ReadBy = append(history[i].ReadBy, actor.ID)
			changed = true
		}
	}
	e.messages[chatID] = history

	if chat.UnreadCounts[actor.ID] != 0 {
		chat.UnreadCounts[actor.ID] = 0
		changed = true
	}
	if !changed {
		return nil
	}
	return e.saveAll()
}

// ForwardMessages re-sends a message into each target chat, tagged with its
// provenance. Targets that reject the send (blocks, permissions) are skipped
// rather than failing the whole forward.
func (e *Engine) ForwardMessages(sourceChatID, messageID string, targetChatIDs []string) error {
	actor, err := e.actor()
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.memberChat(sourceChatID, actor.ID); err != nil {
		return err
	}

	var original *db.Message
	for i, msg := range e.messages[sourceChatID] {
		if msg.ID == messageID {
			original = &e.messages[sourceChatID][i]
			break
		}
	}
	if original == nil {
		return fault.NotFoundf("general.error")
	}

	senderName := e.ids.Resolve(original.SenderID).DisplayName()
	info := &db.ForwardInfo{
		UserID:             original.SenderID,
		OriginalSenderName: senderName,
		OriginalTimestamp:  original.Timestamp,
	}
	for _, targetID := range targetChatIDs {
		_, err := e.send(actor, targetID, original.Text, SendOptions{
			Type:          original.Type,
			FileName:      original.FileName,
			FileSize:      original.FileSize,
			FileType:      original.FileType,
			ForwardedFrom: info,
		})
		if err != nil {
			e.logger.Warn("Skipped forward target", "chat_id", targetID, "error", err)
		}
	}
	return nil
}

func countsTowardUnread(msgType db.MessageType) bool {
	return msgType != db.SystemMessage && msgType != db.CallLogMessage
}

func participantIDs(chat *db.Chat) []string {
	ids := make([]string, 0, len(chat.Participants))
	for _, p := range chat.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}
