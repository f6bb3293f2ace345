// Package identity owns the durable collection of registered accounts. Every
// mutation runs as one critical section ending in a synchronous write of the
// whole collection; a failed write rolls the in-memory state back so memory
// and storage never diverge.
package identity

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/danglnh07/titan/db"
	"github.com/danglnh07/titan/fault"
	"github.com/danglnh07/titan/service/security"
	"github.com/danglnh07/titan/util"
)

type Store struct {
	mu       sync.Mutex
	queries  *db.Queries
	logger   *slog.Logger
	accounts []db.Account

	// Injected collaborators, overridable in tests
	Now   func() time.Time
	NewID func() string
}

// NewStore loads the accounts collection and runs the bootstrap rule: when no
// administrator exists, one is synthesized with the well-known admin email.
func NewStore(queries *db.Queries, logger *slog.Logger) (*Store, error) {
	store := &Store{
		queries: queries,
		logger:  logger,
		Now:     time.Now,
		NewID:   util.NewID,
	}

	accounts, err := queries.LoadAccounts()
	if err != nil {
		return nil, err
	}
	store.accounts = accounts

	if !slices.ContainsFunc(accounts, func(a db.Account) bool { return a.IsAdmin }) {
		hash, err := security.BcryptHash("admin")
		if err != nil {
			return nil, err
		}
		admin := db.Account{
			ID:            store.NewID(),
			Name:          "Titan Admin",
			Nickname:      "titanadmin",
			Email:         db.AdminEmail,
			PasswordHash:  hash,
			AvatarBgColor: util.DeterministicColor("AdminSeed"),
			IsAdmin:       true,
			Status:        db.Offline,
			JoinedAt:      store.Now(),
			Presence:      db.VisibleToNobody,
			Messaging:     db.MessagingEveryone,
		}
		store.accounts = append(store.accounts, admin)
		if err := queries.SaveAccounts(store.accounts); err != nil {
			return nil, err
		}
		logger.Info("Bootstrapped administrator account", "email", admin.Email)
	}

	return store, nil
}

// Update is a partial account update. Nil fields are left untouched.
type Update struct {
	Name          *string
	Nickname      *string
	PasswordHash  *string
	AvatarURL     *string
	AvatarBgColor *string
	CustomStatus  *string
	Bio           *string
	Status        *db.PresenceStatus
	LastSeen      *time.Time
	Presence      *db.PresenceVisibility
	Messaging     *db.MessagingPrivacy

	BlockedIDs             *[]string
	FriendIDs              *[]string
	FriendRequestsSent     *[]string
	FriendRequestsReceived *[]string
}

func (u Update) apply(account *db.Account) {
	setIf(&account.Name, u.Name)
	setIf(&account.Nickname, u.Nickname)
	setIf(&account.PasswordHash, u.PasswordHash)
	setIf(&account.AvatarURL, u.AvatarURL)
	setIf(&account.AvatarBgColor, u.AvatarBgColor)
	setIf(&account.CustomStatus, u.CustomStatus)
	setIf(&account.Bio, u.Bio)
	setIf(&account.Status, u.Status)
	setIf(&account.LastSeen, u.LastSeen)
	setIf(&account.Presence, u.Presence)
	setIf(&account.Messaging, u.Messaging)
	setIf(&account.BlockedIDs, u.BlockedIDs)
	setIf(&account.FriendIDs, u.FriendIDs)
	setIf(&account.FriendRequestsSent, u.FriendRequestsSent)
	setIf(&account.FriendRequestsReceived, u.FriendRequestsReceived)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Lookup returns a copy of the account, so callers cannot mutate store state
// behind the lock's back.
func (store *Store) Lookup(id string) (db.Account, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.find(id)
}

func (store *Store) find(id string) (db.Account, bool) {
	for i := range store.accounts {
		if store.accounts[i].ID == id {
			return cloneAccount(store.accounts[i]), true
		}
	}
	return db.Account{}, false
}

// LookupByEmail is used by login.
func (store *Store) LookupByEmail(email string) (db.Account, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for i := range store.accounts {
		if store.accounts[i].Email == email {
			return cloneAccount(store.accounts[i]), true
		}
	}
	return db.Account{}, false
}

// List returns a snapshot of every account, for admin management and search.
func (store *Store) List() []db.Account {
	store.mu.Lock()
	defer store.mu.Unlock()
	out := make([]db.Account, len(store.accounts))
	for i := range store.accounts {
		out[i] = cloneAccount(store.accounts[i])
	}
	return out
}

// NicknameTaken and EmailTaken check global uniqueness, excluding one id so
// self-updates pass.
func (store *Store) NicknameTaken(nickname, excludeID string) bool {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.nicknameTaken(nickname, excludeID)
}

func (store *Store) nicknameTaken(nickname, excludeID string) bool {
	for i := range store.accounts {
		if store.accounts[i].ID != excludeID && store.accounts[i].Nickname == nickname {
			return true
		}
	}
	return false
}

func (store *Store) EmailTaken(email, excludeID string) bool {
	store.mu.Lock()
	defer store.mu.Unlock()
	for i := range store.accounts {
		if store.accounts[i].ID != excludeID && store.accounts[i].Email == email {
			return true
		}
	}
	return false
}

// UpdateAccount applies a partial update. It fails without side effects when
// the new nickname collides with a different account.
func (store *Store) UpdateAccount(id string, update Update) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if update.Nickname != nil && store.nicknameTaken(*update.Nickname, id) {
		return fault.Validationf("login.error_nickname_exists")
	}

	return store.mutate(func() error {
		account := store.pointer(id)
		if account == nil {
			return fault.NotFoundf("profile.user_not_found_title")
		}
		update.apply(account)
		return nil
	})
}

// UpdatePair applies two partial updates and persists them as one write, so a
// coordinated two-sided change (the friend graph) either fully lands or not
// at all.
func (store *Store) UpdatePair(idA string, updateA Update, idB string, updateB Update) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	return store.mutate(func() error {
		accountA := store.pointer(idA)
		accountB := store.pointer(idB)
		if accountA == nil || accountB == nil {
			return fault.NotFoundf("profile.user_not_found_title")
		}
		updateA.apply(accountA)
		updateB.apply(accountB)
		return nil
	})
}

// Append adds a freshly signed-up account. Uniqueness is the caller's
// responsibility (the Session Manager reports the precise duplicate reason).
func (store *Store) Append(account db.Account) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	return store.mutate(func() error {
		store.accounts = append(store.accounts, account)
		return nil
	})
}

// DeleteByAdmin removes an account unconditionally. No cascade: redacting the
// account's traces in chats belongs to the Session Manager.
func (store *Store) DeleteByAdmin(id string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	return store.mutate(func() error {
		for i := range store.accounts {
			if store.accounts[i].ID == id {
				store.accounts = append(store.accounts[:i], store.accounts[i+1:]...)
				return nil
			}
		}
		return fault.NotFoundf("profile.user_not_found_title")
	})
}

// mutate runs fn against the live collection and persists the result. On any
// failure the previous state is restored. Callers must hold the lock.
func (store *Store) mutate(fn func() error) error {
	snapshot := make([]db.Account, len(store.accounts))
	for i := range store.accounts {
		snapshot[i] = cloneAccount(store.accounts[i])
	}

	if err := fn(); err != nil {
		store.accounts = snapshot
		return err
	}
	if err := store.queries.SaveAccounts(store.accounts); err != nil {
		store.accounts = snapshot
		store.logger.Error("Failed to persist accounts", "error", err)
		return err
	}
	return nil
}

func (store *Store) pointer(id string) *db.Account {
	for i := range store.accounts {
		if store.accounts[i].ID == id {
			return &store.accounts[i]
		}
	}
	return nil
}

func cloneAccount(a db.Account) db.Account {
	a.BlockedIDs = slices.Clone(a.BlockedIDs)
	a.FriendIDs = slices.Clone(a.FriendIDs)
	a.FriendRequestsSent = slices.Clone(a.FriendRequestsSent)
	a.FriendRequestsReceived = slices.Clone(a.FriendRequestsReceived)
	videos := make([]db.StatusVideo, len(a.StatusVideos))
	for i, v := range a.StatusVideos {
		v.ViewerIDs = slices.Clone(v.ViewerIDs)
		v.LikerIDs = slices.Clone(v.LikerIDs)
		v.Replies = slices.Clone(v.Replies)
		videos[i] = v
	}
	a.StatusVideos = videos
	return a
}
