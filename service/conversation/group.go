package conversation

import (
	"github.com/danglnh07/titan/db"
	"github.com/danglnh07/titan/fault"
)

// Group governance. Every operation re-checks the caller's standing against
// the live chat record: owner outranks admins, admins outrank members, and
// nobody targets the owner.

// UpdateGroupInfo renames the group or swaps its image. Gated on the
// info-editing capability.
func (e *Engine) UpdateGroupInfo(chatID string, name, image *string) error {
	actor, err := e.actor()
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	chat := e.groupChat(chatID)
	if chat == nil {
		return fault.NotFoundf("general.error")
	}
	if !CanPerform(actor.ID, chat, db.CanChangeGroupInfo) {
		return fault.Authorizationf("chat.permission_denied_admins_only")
	}
	if name != nil && *name != "" {
		chat.Name = *name
	}
	if image != nil {
		chat.GroupImage = *image
	}
	return e.saveChats()
}

// UpdateDefaultPermissions replaces the group's default capability bundle.
// Owner only.
func (e *Engine) UpdateDefaultPermissions(chatID string, bundle db.GroupPermissions) error {
	actor, err := e.actor()
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	chat := e.groupChat(chatID)
	if chat == nil {
		return fault.NotFoundf("general.error")
	}
	if !chat.IsOwner(actor.ID) {
		return fault.Authorizationf("groups.permissions_owner_only")
	}
	chat.DefaultPermissions = &bundle
	return e.saveChats()
}

// UpdateMemberOverride merges a partial capability bundle onto one member.
// Set fields replace, nil fields keep the existing override value, and a
// fully unset bundle deletes the entry. Admins may edit overrides but never
// the owner's.
func (e *Engine) UpdateMemberOverride(chatID, memberID string, override db.PermissionOverride) error {
	actor, err := e.actor()
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	chat := e.groupChat(chatID)
	if chat == nil {
		return fault.NotFoundf("general.error")
	}
	if !chat.IsAdmin(actor.ID) {
		return fault.Authorizationf("chat.permission_denied_admins_only")
	}
	if chat.IsOwner(memberID) {
		return fault.Authorizationf("groups.cannot_override_owner")
	}
	if !chat.HasParticipant(memberID) {
		return fault.NotFoundf("groups.user_not_member")
	}

	if chat.Overrides == nil {
		chat.Overrides = map[string]db.PermissionOverride{}
	}
	if override.Empty() {
		delete(chat.Overrides, memberID)
	} else {
		chat.Overrides[memberID] = mergeOverride(chat.Overrides[memberID], override)
	}
	return e.saveChats()
}

// Kick removes a member immediately. They may be re-added later.
func (e *Engine) Kick(chatID, memberID string) error {
	return e.expel(chatID, memberID, false)
}

// Ban removes a member and blocks their return until unbanned.
func (e *Engine) Ban(chatID, memberID string) error {
	return e.expel(chatID, memberID, true)
}

func (e *Engine) expel(chatID, memberID string, ban bool) error {
	actor, err := e.actor()
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	chat := e.groupChat(chatID)
	if chat == nil {
		return fault.NotFoundf("general.error")
	}
	if memberID == actor.ID {
		return fault.Validationf("groups.cannot_remove_self")
	}
	if !chat.IsAdmin(actor.ID) {
		return fault.Authorizationf("chat.permission_denied_admins_only")
	}
	if chat.IsOwner(memberID) {
		return fault.Authorizationf("groups.cannot_remove_owner")
	}
	// Only the owner may act against another admin
	if chat.IsAdmin(memberID) && !chat.IsOwner(actor.ID) {
		return fault.Authorizationf("groups.cannot_remove_admin")
	}
	if !chat.HasParticipant(memberID) {
		return fault.NotFoundf("groups.user_not_member")
	}

	chat.RemoveParticipant(memberID)
	if ban && !chat.IsBanned(memberID) {
		chat.BannedIDs = append(chat.BannedIDs, memberID)
	}
	return e.saveChats()
}

// Unban lifts a ban without re-adding the member.
func (e *Engine) Unban(chatID, memberID string) error {
	actor, err := e.actor()
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	chat := e.groupChat(chatID)
	if chat == nil {
		return fault.NotFoundf("general.error")
	}
	if !chat.IsAdmin(actor.ID) {
		return fault.Authorizationf("chat.permission_denied_admins_only")
	}
	for i, id := range chat.BannedIDs {
		if id == memberID {
			chat.BannedIDs = append(chat.BannedIDs[:i], chat.BannedIDs[i+1:]...)
			return e.saveChats()
		}
	}
	return nil
}

// AddMembers appends new participants. Ids that are already present, banned,
// or unresolvable are skipped silently.
func (e *Engine) AddMembers(chatID string, memberIDs []string) error {
	actor, err := e.actor()
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	chat := e.groupChat(chatID)
	if chat == nil {
		return fault.NotFoundf("general.error")
	}
	if !CanPerform(actor.ID, chat, db.CanAddMembers) {
		return fault.Authorizationf("chat.permission_denied_admins_only")
	}

	added := false
	for _, id := range memberIDs {
		if chat.HasParticipant(id) || chat.IsBanned(id) {
			continue
		}
		member, ok := e.ids.Lookup(id)
		if !ok {
			continue
		}
		chat.Participants = append(chat.Participants, participantSnapshot(member))
		added = true
	}
	if !added {
		return nil
	}
	return e.saveChats()
}

// TransferOwnership hands the group to another admin member.
func (e *Engine) TransferOwnership(chatID, newOwnerID string) error {
	actor, err := e.actor()
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	chat := e.groupChat(chatID)
	if chat == nil {
		return fault.NotFoundf("general.error")
	}
	if !chat.IsOwner(actor.ID) {
		return fault.Authorizationf("groups.permissions_owner_only")
	}
	if newOwnerID == actor.ID {
		return fault.Validationf("groups.cannot_transfer_to_self")
	}
	if !chat.HasParticipant(newOwnerID) || !chat.IsAdmin(newOwnerID) {
		return fault.Validationf("groups.transfer_target_must_be_admin")
	}

	chat.OwnerID = newOwnerID
	if !contains(chat.AdminIDs, actor.ID) {
		chat.AdminIDs = append(chat.AdminIDs, actor.ID)
	}
	return e.saveChats()
}

// SetAdmins replaces the admin roster. The owner is always an admin, so the
// stored set is the given ids unioned with the owner.
func (e *Engine) SetAdmins(chatID string, adminIDs []string) error {
	actor, err := e.actor()
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	chat := e.groupChat(chatID)
	if chat == nil {
		return fault.NotFoundf("general.error")
	}
	if !chat.IsOwner(actor.ID) {
		return fault.Authorizationf("groups.permissions_owner_only")
	}

	admins := []string{chat.OwnerID}
	for _, id := range adminIDs {
		if id == chat.OwnerID || !chat.HasParticipant(id) || contains(admins, id) {
			continue
		}
		admins = append(admins, id)
	}
	chat.AdminIDs = admins
	return e.saveChats()
}

// LeaveGroup removes the caller. If they owned the group, ownership passes to
// another admin, else to any remaining participant who is promoted alongside.
// The last member out destroys the chat and its history.
func (e *Engine) LeaveGroup(chatID string) error {
	actor, err := e.actor()
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	chat := e.groupChat(chatID)
	if chat == nil {
		return fault.NotFoundf("general.error")
	}
	if !chat.HasParticipant(actor.ID) {
		return fault.NotFoundf("groups.user_not_member")
	}

	wasOwner := chat.IsOwner(actor.ID)
	chat.RemoveParticipant(actor.ID)
	if len(chat.Participants) == 0 {
		e.dropChat(chatID)
		return e.saveAll()
	}
	if wasOwner {
		e.promoteOwner(chat)
	}
	return e.saveChats()
}

func (e *Engine) groupChat(chatID string) *db.Chat {
	chat := e.chat(chatID)
	if chat == nil || !chat.IsGroup {
		return nil
	}
	return chat
}

// mergeOverride lays the update over the existing entry field by field.
func mergeOverride(existing, update db.PermissionOverride) db.PermissionOverride {
	pick := func(old, upd *bool) *bool {
		if upd != nil {
			return upd
		}
		return old
	}
	return db.PermissionOverride{
		CanSendMessages:    pick(existing.CanSendMessages, update.CanSendMessages),
		CanSendMedia:       pick(existing.CanSendMedia, update.CanSendMedia),
		CanSendFiles:       pick(existing.CanSendFiles, update.CanSendFiles),
		CanSendLinks:       pick(existing.CanSendLinks, update.CanSendLinks),
		CanSendStickers:    pick(existing.CanSendStickers, update.CanSendStickers),
		CanCreatePolls:     pick(existing.CanCreatePolls, update.CanCreatePolls),
		CanPinMessages:     pick(existing.CanPinMessages, update.CanPinMessages),
		CanChangeGroupInfo: pick(existing.CanChangeGroupInfo, update.CanChangeGroupInfo),
		CanAddMembers:      pick(existing.CanAddMembers, update.CanAddMembers),
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
