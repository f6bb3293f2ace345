package prefs

import "strings"

// Translate maps a message key to user-facing text in the given language,
// applying {placeholder} substitutions. It never fails: unknown keys and
// unknown languages echo the key back so the caller always has something to
// render.
func Translate(language, key string, substitutions map[string]string) string {
	table, ok := translations[language]
	if !ok {
		table = translations["en"]
	}
	text, ok := table[key]
	if !ok {
		if text, ok = translations["en"][key]; !ok {
			return key
		}
	}
	for name, value := range substitutions {
		text = strings.ReplaceAll(text, "{"+name+"}", value)
	}
	return text
}

var translations = map[string]map[string]string{
	"en": {
		"general.error": "Something went wrong. Please try again.",

		"login.error_all_fields_required":     "Please fill in all fields.",
		"login.error_password_length":         "Password must be at least 6 characters.",
		"login.error_email_exists":            "An account with this email already exists.",
		"login.error_nickname_exists":         "This nickname is already taken.",
		"login.error_email_and_nickname_exists": "Both the email and nickname are already taken.",

		"settings.error_incorrect_current_password": "The current password is incorrect.",
		"settings.error_new_password_length":        "New password must be at least 6 characters.",

		"friends.error_sending_request":    "Could not send friend request.",
		"friends.already_friends":          "You are already friends with {name}.",
		"friends.request_already_sent":     "Friend request already sent.",
		"friends.request_already_received": "{name} has already sent you a friend request.",
		"friends.no_friend_requests":       "No pending friend request found.",

		"profile.user_not_found_title": "User not found",

		"chat.cannot_message_blocked_user":   "You cannot message a blocked user.",
		"chat.error_messaging_friends_only":  "{name} only accepts messages from friends.",
		"chat.permission_denied_admins_only": "Only admins are allowed to do that.",
		"chat.you_are_blocked_message":       "You are blocked from sending messages in this group.",
		"chat.error_not_participant":         "You are not a participant of this chat.",
		"chat.error_edit_not_author":         "You can only edit your own messages.",

		"groups.no_contacts_to_add_to_group": "Add at least one other member to create a group.",
		"groups.permissions_owner_only":      "Only the group owner can change this.",
		"groups.cannot_override_owner":       "The owner's permissions cannot be overridden.",
		"groups.user_not_member":             "That user is not a member of this group.",
		"groups.cannot_remove_self":          "You cannot remove yourself. Leave the group instead.",
		"groups.cannot_remove_owner":         "The group owner cannot be removed.",
		"groups.cannot_remove_admin":         "Only the owner can remove another admin.",
		"groups.cannot_transfer_to_self":     "You already own this group.",
		"groups.transfer_target_must_be_admin": "Ownership can only be transferred to an admin.",

		"call.already_in_call":  "Another call is already in progress.",
		"call.no_incoming_call": "There is no incoming call.",
	},
	"ar": {
		"general.error": "حدث خطأ ما. حاول مرة أخرى.",

		"login.error_all_fields_required": "يرجى ملء جميع الحقول.",
		"login.error_password_length":     "يجب أن تتكون كلمة المرور من 6 أحرف على الأقل.",
		"login.error_email_exists":        "يوجد حساب بهذا البريد الإلكتروني بالفعل.",
		"login.error_nickname_exists":     "هذا الاسم المستعار مستخدم بالفعل.",

		"friends.already_friends":      "أنت صديق {name} بالفعل.",
		"friends.request_already_sent": "تم إرسال طلب الصداقة بالفعل.",

		"profile.user_not_found_title": "المستخدم غير موجود",

		"chat.cannot_message_blocked_user":   "لا يمكنك مراسلة مستخدم محظور.",
		"chat.error_messaging_friends_only":  "{name} يقبل الرسائل من الأصدقاء فقط.",
		"chat.permission_denied_admins_only": "هذا الإجراء متاح للمشرفين فقط.",
		"chat.error_not_participant":         "أنت لست مشاركًا في هذه المحادثة.",
	},
}
