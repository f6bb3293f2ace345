package conversation

import "github.com/danglnh07/titan/db"

// CanPerform evaluates a member's capability in a chat. Resolution order:
// non-group chats and groups without a policy bundle permit everything, the
// owner may always use the administrative capabilities, an explicit member
// override wins outright, and otherwise the group default applies, with the
// administrative capabilities additionally open to admins.
func CanPerform(actorID string, chat *db.Chat, capability db.Capability) bool {
	if !chat.IsGroup || chat.DefaultPermissions == nil {
		return true
	}
	if chat.IsOwner(actorID) && db.AdministrativeCapability(capability) {
		return true
	}
	if override, ok := chat.Overrides[actorID]; ok {
		if value := override.Value(capability); value != nil {
			return *value
		}
	}
	if chat.DefaultPermissions.Allows(capability) {
		return true
	}
	if db.AdministrativeCapability(capability) && chat.IsAdmin(actorID) {
		return true
	}
	return false
}
