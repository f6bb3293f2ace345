package db

import "time"

type PresenceStatus string

type PresenceVisibility string

type MessagingPrivacy string

type MessageType string

const (
	Online  PresenceStatus = "online"
	Offline PresenceStatus = "offline"

	VisibleToEveryone PresenceVisibility = "everyone"
	VisibleToFriends  PresenceVisibility = "friendsOnly"
	VisibleToNobody   PresenceVisibility = "nobody"

	MessagingEveryone    MessagingPrivacy = "everyone"
	MessagingFriendsOnly MessagingPrivacy = "friendsOnly"

	TextMessage    MessageType = "text"
	ImageMessage   MessageType = "image"
	FileMessage    MessageType = "file"
	LikeMessage    MessageType = "like"
	SystemMessage  MessageType = "system"
	VideoMessage   MessageType = "video"
	CallLogMessage MessageType = "call_log"
)

const (
	// AdminEmail identifies the bootstrap administrator account.
	AdminEmail = "admin@example.com"

	// DeletedUserID is the sentinel sender for messages whose author
	// deleted their account.
	DeletedUserID = "deleted_user"

	DeletedUserText   = "Message from a deleted user."
	DeletedBySenderText = "This message was deleted by the sender."

	DefaultBackgroundID = "default"
)

// StatusReply is a threaded text reply under a status post.
type StatusReply struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"senderId"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusVideo is an ephemeral video post on an account.
type StatusVideo struct {
	ID           string        `json:"id"`
	OwnerID      string        `json:"ownerId"`
	VideoURL     string        `json:"videoUrl"`
	ThumbnailURL string        `json:"thumbnailUrl,omitempty"`
	Caption      string        `json:"caption,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	ViewerIDs    []string      `json:"viewerIds"`
	LikerIDs     []string      `json:"likerIds"`
	Replies      []StatusReply `json:"replies"`
}

// Account is a registered identity.
type Account struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Nickname      string             `json:"nickname"`
	Email         string             `json:"email"`
	PasswordHash  string             `json:"passwordHash"`
	AvatarURL     string             `json:"avatarUrl,omitempty"`
	AvatarBgColor string             `json:"avatarBgColor"`
	IsAdmin       bool               `json:"isAdmin"`
	Status        PresenceStatus     `json:"status"`
	JoinedAt      time.Time          `json:"joinedAt"`
	LastSeen      time.Time          `json:"lastSeen,omitzero"`
	CustomStatus  string             `json:"customStatus,omitempty"`
	Bio           string             `json:"bio,omitempty"`
	BlockedIDs    []string           `json:"blockedUserIds"`
	StatusVideos  []StatusVideo      `json:"statusVideos"`
	Presence      PresenceVisibility `json:"presenceVisibility"`
	Messaging     MessagingPrivacy   `json:"messagingPrivacy"`

	FriendRequestsSent     []string `json:"friendRequestIdsSent"`
	FriendRequestsReceived []string `json:"friendRequestIdsReceived"`
	FriendIDs              []string `json:"friendIds"`
}

func (a *Account) HasBlocked(id string) bool {
	return contains(a.BlockedIDs, id)
}

func (a *Account) IsFriendOf(id string) bool {
	return contains(a.FriendIDs, id)
}

// ChatParticipant is the denormalized display snapshot embedded in a chat so
// list rendering never joins against the accounts collection.
type ChatParticipant struct {
	UserID        string `json:"userId"`
	Nickname      string `json:"nickname"`
	AvatarURL     string `json:"avatarUrl,omitempty"`
	AvatarBgColor string `json:"avatarBgColor"`
}

// Capability names one boolean group permission.
type Capability string

const (
	CanSendMessages    Capability = "canSendMessages"
	CanSendMedia       Capability = "canSendMedia"
	CanSendFiles       Capability = "canSendFiles"
	CanSendLinks       Capability = "canSendLinks"
	CanSendStickers    Capability = "canSendStickersGifs"
	CanCreatePolls     Capability = "canCreatePolls"
	CanPinMessages     Capability = "canPinMessages"
	CanChangeGroupInfo Capability = "canChangeGroupInfo"
	CanAddMembers      Capability = "canAddMembers"
)

// AdministrativeCapability reports whether the capability is one of the three
// that default to admin-only unless the group opens them to everyone.
func AdministrativeCapability(c Capability) bool {
	return c == CanPinMessages || c == CanChangeGroupInfo || c == CanAddMembers
}

// GroupPermissions is the full capability bundle a group carries as its
// default policy.
type GroupPermissions struct {
	CanSendMessages    bool `json:"canSendMessages"`
	CanSendMedia       bool `json:"canSendMedia"`
	CanSendFiles       bool `json:"canSendFiles"`
	CanSendLinks       bool `json:"canSendLinks"`
	CanSendStickers    bool `json:"canSendStickersGifs"`
	CanCreatePolls     bool `json:"canCreatePolls"`
	CanPinMessages     bool `json:"canPinMessages"`
	CanChangeGroupInfo bool `json:"canChangeGroupInfo"`
	CanAddMembers      bool `json:"canAddMembers"`
}

func (p GroupPermissions) Allows(c Capability) bool {
	switch c {
	case CanSendMessages:
		return p.CanSendMessages
	case CanSendMedia:
		return p.CanSendMedia
	case CanSendFiles:
		return p.CanSendFiles
	case CanSendLinks:
		return p.CanSendLinks
	case CanSendStickers:
		return p.CanSendStickers
	case CanCreatePolls:
		return p.CanCreatePolls
	case CanPinMessages:
		return p.CanPinMessages
	case CanChangeGroupInfo:
		return p.CanChangeGroupInfo
	case CanAddMembers:
		return p.CanAddMembers
	}
	return false
}

// DefaultGroupPermissions seeds new groups: members may post freely, the
// three administrative capabilities stay with admins and the owner.
func DefaultGroupPermissions() GroupPermissions {
	return GroupPermissions{
		CanSendMessages: true,
		CanSendMedia:    true,
		CanSendFiles:    true,
		CanSendLinks:    true,
		CanSendStickers: true,
		CanCreatePolls:  true,
	}
}

// PermissionOverride is a partial bundle recorded against one member. A nil
// field defers to the group default for that capability.
type PermissionOverride struct {
	CanSendMessages    *bool `json:"canSendMessages,omitempty"`
	CanSendMedia       *bool `json:"canSendMedia,omitempty"`
	CanSendFiles       *bool `json:"canSendFiles,omitempty"`
	CanSendLinks       *bool `json:"canSendLinks,omitempty"`
	CanSendStickers    *bool `json:"canSendStickersGifs,omitempty"`
	CanCreatePolls     *bool `json:"canCreatePolls,omitempty"`
	CanPinMessages     *bool `json:"canPinMessages,omitempty"`
	CanChangeGroupInfo *bool `json:"canChangeGroupInfo,omitempty"`
	CanAddMembers      *bool `json:"canAddMembers,omitempty"`
}

// Value returns the explicit setting for a capability, or nil when unset.
func (o PermissionOverride) Value(c Capability) *bool {
	switch c {
	case CanSendMessages:
		return o.CanSendMessages
	case CanSendMedia:
		return o.CanSendMedia
	case CanSendFiles:
		return o.CanSendFiles
	case CanSendLinks:
		return o.CanSendLinks
	case CanSendStickers:
		return o.CanSendStickers
	case CanCreatePolls:
		return o.CanCreatePolls
	case CanPinMessages:
		return o.CanPinMessages
	case CanChangeGroupInfo:
		return o.CanChangeGroupInfo
	case CanAddMembers:
		return o.CanAddMembers
	}
	return nil
}

// Empty reports whether every field is unset, which is the signal to drop the
// override entry entirely.
func (o PermissionOverride) Empty() bool {
	return o.CanSendMessages == nil && o.CanSendMedia == nil && o.CanSendFiles == nil &&
		o.CanSendLinks == nil && o.CanSendStickers == nil && o.CanCreatePolls == nil &&
		o.CanPinMessages == nil && o.CanChangeGroupInfo == nil && o.CanAddMembers == nil
}

// Chat is a 1:1 conversation or a group. Governance fields are only
// meaningful when IsGroup is set.
type Chat struct {
	ID                    string            `json:"id"`
	Participants          []ChatParticipant `json:"participants"`
	IsGroup               bool              `json:"isGroup"`
	CreatedAt             time.Time         `json:"createdAt"`
	Name                  string            `json:"name,omitempty"`
	LastMessage           *Message          `json:"lastMessage,omitempty"`
	LastMessageSenderName string            `json:"lastMessageSenderName,omitempty"`
	UnreadCounts          map[string]int    `json:"unreadCounts"`
	Typing                map[string]bool   `json:"typing,omitempty"`
	Muted                 bool              `json:"isMuted"`
	PresenceMutedIDs      []string          `json:"mutedPresenceTargetUserIds,omitempty"`
	BackgroundID          string            `json:"backgroundId"`

	GroupImage         string                        `json:"groupImage,omitempty"`
	GroupAvatarColor   string                        `json:"groupAvatarColor,omitempty"`
	CreatedBy          string                        `json:"createdBy,omitempty"`
	OwnerID            string                        `json:"ownerId,omitempty"`
	AdminIDs           []string                      `json:"groupAdminIds,omitempty"`
	BannedIDs          []string                      `json:"groupBannedUserIds,omitempty"`
	DefaultPermissions *GroupPermissions             `json:"defaultPermissions,omitempty"`
	Overrides          map[string]PermissionOverride `json:"memberPermissionOverrides,omitempty"`
}

func (c *Chat) HasParticipant(id string) bool {
	for _, p := range c.Participants {
		if p.UserID == id {
			return true
		}
	}
	return false
}

func (c *Chat) Participant(id string) *ChatParticipant {
	for i := range c.Participants {
		if c.Participants[i].UserID == id {
			return &c.Participants[i]
		}
	}
	return nil
}

// OtherParticipant returns the counterpart in a 1:1 chat.
func (c *Chat) OtherParticipant(id string) *ChatParticipant {
	for i := range c.Participants {
		if c.Participants[i].UserID != id {
			return &c.Participants[i]
		}
	}
	return nil
}

func (c *Chat) IsOwner(id string) bool {
	return c.OwnerID != "" && c.OwnerID == id
}

// IsAdmin treats the owner as admin-equivalent even when not enumerated.
func (c *Chat) IsAdmin(id string) bool {
	return c.IsOwner(id) || contains(c.AdminIDs, id)
}

func (c *Chat) IsBanned(id string) bool {
	return contains(c.BannedIDs, id)
}

func (c *Chat) RemoveParticipant(id string) {
	for i, p := range c.Participants {
		if p.UserID == id {
			c.Participants = append(c.Participants[:i], c.Participants[i+1:]...)
			break
		}
	}
	c.AdminIDs = remove(c.AdminIDs, id)
	delete(c.Overrides, id)
	delete(c.Typing, id)
	delete(c.UnreadCounts, id)
}

// LastActivity is the chat list sort key.
func (c *Chat) LastActivity() time.Time {
	if c.LastMessage != nil {
		return c.LastMessage.Timestamp
	}
	return c.CreatedAt
}

// Reaction is one emoji bucket on a message.
type Reaction struct {
	Emoji   string   `json:"emoji"`
	UserIDs []string `json:"userIds"`
}

// ForwardInfo records the provenance of a forwarded message.
type ForwardInfo struct {
	UserID             string    `json:"userId"`
	OriginalSenderName string    `json:"originalSenderName"`
	OriginalTimestamp  time.Time `json:"originalTimestamp"`
}

// Message belongs to exactly one chat. Deletion never removes the record:
// HiddenFor is the sender-local tombstone set, DeletedGlobally the
// visible-to-all one.
type Message struct {
	ID              string       `json:"id"`
	ChatID          string       `json:"chatId"`
	SenderID        string       `json:"senderId"`
	Text            string       `json:"text,omitempty"`
	Type            MessageType  `json:"type"`
	FileName        string       `json:"fileName,omitempty"`
	FileSize        int64        `json:"fileSize,omitempty"`
	FileType        string       `json:"fileType,omitempty"`
	ReplyTo         string       `json:"replyTo,omitempty"`
	Timestamp       time.Time    `json:"timestamp"`
	Edited          bool         `json:"isEdited,omitempty"`
	Reactions       []Reaction   `json:"reactions"`
	ReadBy          []string     `json:"readBy"`
	HiddenFor       []string     `json:"hiddenFor,omitempty"`
	DeletedGlobally bool         `json:"isDeletedGlobally,omitempty"`
	CallDuration    string       `json:"callDuration,omitempty"`
	ForwardedFrom   *ForwardInfo `json:"forwardedFrom,omitempty"`
}

func (m *Message) HiddenFrom(id string) bool {
	return contains(m.HiddenFor, id)
}

func (m *Message) ReadByUser(id string) bool {
	return contains(m.ReadBy, id)
}

// Tombstoned reports whether the message is unavailable to the given viewer,
// either globally or through a self-delete.
func (m *Message) Tombstoned(viewerID string) bool {
	return m.DeletedGlobally || m.HiddenFrom(viewerID)
}

// Preferences are the per-identity display settings.
type Preferences struct {
	Theme                string `json:"theme"`
	Language             string `json:"language"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
	FontSize             string `json:"fontSize"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		Theme:                "light",
		Language:             "en",
		NotificationsEnabled: true,
		FontSize:             "base",
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
