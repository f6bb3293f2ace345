package identity

import "github.com/danglnh07/titan/db"

// Placeholder is the display stand-in for an account that no longer exists
// (deleted users, dangling participant references).
type Placeholder struct {
	ID            string
	Name          string
	Nickname      string
	AvatarBgColor string
	Bio           string
}

// ResolvedParticipant is a tagged variant: exactly one of Account or
// Placeholder is meaningful. Consumers must branch on Known instead of
// relying on zero values looking vaguely like a real account.
type ResolvedParticipant struct {
	account     *db.Account
	placeholder Placeholder
}

func (r ResolvedParticipant) Known() bool {
	return r.account != nil
}

// Account panics when called on an unknown participant; check Known first.
func (r ResolvedParticipant) Account() db.Account {
	if r.account == nil {
		panic("identity: Account called on unknown participant")
	}
	return *r.account
}

func (r ResolvedParticipant) Placeholder() Placeholder {
	return r.placeholder
}

// DisplayName works for both variants.
func (r ResolvedParticipant) DisplayName() string {
	if r.account != nil {
		return r.account.Name
	}
	return r.placeholder.Name
}

func unknownPlaceholder() Placeholder {
	return Placeholder{
		ID:            "unknown_user_id",
		Name:          "Unknown User",
		Nickname:      "unknown",
		AvatarBgColor: "bg-gray-400",
		Bio:           "This user's information is not available.",
	}
}

// Resolve looks an id up and returns the tagged result.
func (store *Store) Resolve(id string) ResolvedParticipant {
	if account, ok := store.Lookup(id); ok {
		return ResolvedParticipant{account: &account}
	}
	return ResolvedParticipant{placeholder: unknownPlaceholder()}
}
