// Package fault defines the typed outcomes that domain operations return
// instead of letting raw errors cross component boundaries. Every fault
// carries a translation key the caller can map to user-facing text.
package fault

type Kind int

const (
	// Validation covers bad or conflicting input (duplicate nickname,
	// missing fields, short password).
	Validation Kind = iota
	// Authorization covers permission-denied, blocked-user and
	// friends-only rejections.
	Authorization
	// NotFound covers absent chats, accounts and messages. Operations hit
	// by it degrade to a no-op.
	NotFound
)

type Fault struct {
	Kind Kind
	// Key is a translation table key, e.g. "chat.cannot_message_blocked_user".
	Key string
	// Subs fills the {placeholder} slots of the translated text.
	Subs map[string]string
}

func (f *Fault) Error() string {
	return f.Key
}

// WithName attaches the {name} substitution, the one placeholder the message
// texts actually use.
func (f *Fault) WithName(name string) *Fault {
	if f.Subs == nil {
		f.Subs = map[string]string{}
	}
	f.Subs["name"] = name
	return f
}

func New(kind Kind, key string) *Fault {
	return &Fault{Kind: kind, Key: key}
}

func Validationf(key string) *Fault {
	return New(Validation, key)
}

func Authorizationf(key string) *Fault {
	return New(Authorization, key)
}

func NotFoundf(key string) *Fault {
	return New(NotFound, key)
}

// IsKind reports whether err is a Fault of the given kind.
func IsKind(err error, kind Kind) bool {
	f, ok := err.(*Fault)
	return ok && f.Kind == kind
}
