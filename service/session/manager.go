// Package session owns the single current-identity pointer and the
// operations gated on it: login/signup/logout, profile updates, the friend
// graph, the block list, and the account deletion cascade.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/danglnh07/titan/db"
	"github.com/danglnh07/titan/fault"
	"github.com/danglnh07/titan/service/identity"
	"github.com/danglnh07/titan/service/security"
	"github.com/danglnh07/titan/util"
)

// Purger redacts every trace of an account from the conversation
// collections. Implemented by the Conversation Engine and attached after
// construction, since the engine itself depends on the session.
type Purger interface {
	PurgeAccount(id string) error
}

type Manager struct {
	mu     sync.Mutex
	ids    *identity.Store
	jwt    *security.JWTService
	logger *slog.Logger
	purger Purger

	current *db.Account
	tokens  Tokens

	// Injected collaborators, overridable in tests
	Now   func() time.Time
	NewID func() string
}

// Tokens holds the access/refresh pair minted at login.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func NewManager(ids *identity.Store, jwt *security.JWTService, logger *slog.Logger) *Manager {
	return &Manager{
		ids:    ids,
		jwt:    jwt,
		logger: logger,
		Now:    time.Now,
		NewID:  util.NewID,
	}
}

// AttachPurger wires the conversation engine in once it exists.
func (m *Manager) AttachPurger(p Purger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purger = p
}

// Current returns a copy of the authenticated account, or false when
// anonymous.
func (m *Manager) Current() (db.Account, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return db.Account{}, false
	}
	return *m.current, true
}

func (m *Manager) CurrentID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ""
	}
	return m.current.ID
}

func (m *Manager) CurrentTokens() Tokens {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens
}

// Login moves the pointer from anonymous to authenticated when the email and
// secret both match. The account's presence is forced online as a side
// effect.
func (m *Manager) Login(email, secret string) (Tokens, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.ids.LookupByEmail(email)
	if !ok || !security.BcryptCompare(account.PasswordHash, secret) {
		return Tokens{}, false
	}

	tokens, err := m.mint(account)
	if err != nil {
		m.logger.Error("Failed to mint session tokens", "error", err)
		return Tokens{}, false
	}

	if err := m.setPresence(account.ID, db.Online); err != nil {
		return Tokens{}, false
	}

	account, _ = m.ids.Lookup(account.ID)
	m.current = &account
	m.tokens = tokens
	return tokens, true
}

// SignupPayload carries the caller-supplied fields of a new account.
type SignupPayload struct {
	Name            string
	Nickname        string
	Email           string
	Password        string
	AvatarURL       string
	AvatarColorSeed string
}

// Signup validates, creates the account, and logs it in immediately. The
// returned fault key distinguishes duplicate email, duplicate nickname, and
// both.
func (m *Manager) Signup(payload SignupPayload) (Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if payload.Name == "" || payload.Nickname == "" || payload.Email == "" || payload.Password == "" {
		return Tokens{}, fault.Validationf("login.error_all_fields_required")
	}
	if len([]rune(payload.Password)) < 6 {
		return Tokens{}, fault.Validationf("login.error_password_length")
	}

	emailTaken := m.ids.EmailTaken(payload.Email, "")
	nicknameTaken := m.ids.NicknameTaken(payload.Nickname, "")
	switch {
	case emailTaken && nicknameTaken:
		return Tokens{}, fault.Validationf("login.error_email_and_nickname_exists")
	case emailTaken:
		return Tokens{}, fault.Validationf("login.error_email_exists")
	case nicknameTaken:
		return Tokens{}, fault.Validationf("login.error_nickname_exists")
	}

	hash, err := security.BcryptHash(payload.Password)
	if err != nil {
		return Tokens{}, err
	}

	seed := payload.AvatarColorSeed
	if seed == "" {
		seed = payload.Name
	}
	now := m.Now()
	account := db.Account{
		ID:            m.NewID(),
		Name:          payload.Name,
		Nickname:      payload.Nickname,
		Email:         payload.Email,
		PasswordHash:  hash,
		AvatarURL:     payload.AvatarURL,
		AvatarBgColor: util.DeterministicColor(seed),
		Status:        db.Online,
		JoinedAt:      now,
		LastSeen:      now,
		Presence:      db.VisibleToEveryone,
		Messaging:     db.MessagingEveryone,
		BlockedIDs:    []string{},
		StatusVideos:  []db.StatusVideo{},

		FriendRequestsSent:     []string{},
		FriendRequestsReceived: []string{},
		FriendIDs:              []string{},
	}
	if err := m.ids.Append(account); err != nil {
		return Tokens{}, err
	}

	tokens, err := m.mint(account)
	if err != nil {
		return Tokens{}, err
	}
	m.current = &account
	m.tokens = tokens
	return tokens, nil
}

// Logout forces presence offline and drops the pointer back to anonymous.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		if err := m.setPresence(m.current.ID, db.Offline); err != nil {
			m.logger.Error("Failed to record offline presence on logout", "error", err)
		}
	}
	m.current = nil
	m.tokens = Tokens{}
}

// Resume rebuilds the pointer from a previously minted token, forcing the
// account online again. A fresh token pair is minted since Logout zeroes the
// old one.
func (m *Manager) Resume(token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	claims, err := m.jwt.VerifyToken(token)
	if err != nil {
		return false
	}
	account, ok := m.ids.Lookup(claims.ID)
	if !ok {
		return false
	}
	tokens, err := m.mint(account)
	if err != nil {
		m.logger.Error("Failed to mint session tokens", "error", err)
		return false
	}
	if err := m.setPresence(account.ID, db.Online); err != nil {
		return false
	}
	account, _ = m.ids.Lookup(account.ID)
	m.current = &account
	m.tokens = tokens
	return true
}

// UpdateCurrent applies a partial update to the authenticated account. On
// failure the pointer is left untouched.
func (m *Manager) UpdateCurrent(update identity.Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateCurrent(update)
}

func (m *Manager) updateCurrent(update identity.Update) error {
	if m.current == nil {
		return fault.Authorizationf("general.error")
	}
	if err := m.ids.UpdateAccount(m.current.ID, update); err != nil {
		return err
	}
	account, _ := m.ids.Lookup(m.current.ID)
	m.current = &account
	return nil
}

// ChangePassword verifies the current secret before rotating.
func (m *Manager) ChangePassword(current, next string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return fault.Authorizationf("general.error")
	}
	if !security.BcryptCompare(m.current.PasswordHash, current) {
		return fault.Validationf("settings.error_incorrect_current_password")
	}
	if len([]rune(next)) < 6 {
		return fault.Validationf("settings.error_new_password_length")
	}
	hash, err := security.BcryptHash(next)
	if err != nil {
		return err
	}
	return m.updateCurrent(identity.Update{PasswordHash: &hash})
}

// DeleteOwnAccount removes the account and cascades: participant removal
// (with group ownership handoff), deletion of emptied chats, and redaction of
// every authored message, all through the engine's purge in one unit.
func (m *Manager) DeleteOwnAccount() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return fault.Authorizationf("general.error")
	}
	id := m.current.ID

	if err := m.ids.DeleteByAdmin(id); err != nil {
		return err
	}
	if m.purger != nil {
		if err := m.purger.PurgeAccount(id); err != nil {
			return err
		}
	}

	m.current = nil
	m.tokens = Tokens{}
	return nil
}

func (m *Manager) mint(account db.Account) (Tokens, error) {
	access, err := m.jwt.CreateToken(account.ID, account.Nickname, account.IsAdmin, security.AccessToken)
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := m.jwt.CreateToken(account.ID, account.Nickname, account.IsAdmin, security.RefreshToken)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

func (m *Manager) setPresence(id string, status db.PresenceStatus) error {
	now := m.Now()
	return m.ids.UpdateAccount(id, identity.Update{Status: &status, LastSeen: &now})
}
