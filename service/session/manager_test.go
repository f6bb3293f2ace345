package session

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/danglnh07/titan/db"
	"github.com/danglnh07/titan/fault"
	"github.com/danglnh07/titan/service/identity"
	"github.com/danglnh07/titan/service/security"
	"github.com/danglnh07/titan/util"
	"github.com/stretchr/testify/require"
)

const testPassword = "secret123"

func newTestManager(t *testing.T) (*Manager, *identity.Store) {
	t.Helper()
	queries, err := db.NewQueries(":memory:")
	require.NoError(t, err)
	require.NoError(t, queries.AutoMigration())

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	ids, err := identity.NewStore(queries, logger)
	require.NoError(t, err)

	config := &util.Config{
		SecretKey:              []byte("test-secret-key"),
		TokenExpiration:        time.Hour,
		RefreshTokenExpiration: 24 * time.Hour,
	}
	return NewManager(ids, security.NewJWTService(config), logger), ids
}

func signup(t *testing.T, m *Manager, name, nickname, email string) string {
	t.Helper()
	_, err := m.Signup(SignupPayload{
		Name:     name,
		Nickname: nickname,
		Email:    email,
		Password: testPassword,
	})
	require.NoError(t, err)
	return m.CurrentID()
}

func TestSignupValidation(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Signup(SignupPayload{Name: "Ada", Nickname: "ada", Email: "ada@example.com"})
	require.Equal(t, "login.error_all_fields_required", err.Error())

	_, err = m.Signup(SignupPayload{Name: "Ada", Nickname: "ada", Email: "ada@example.com", Password: "short"})
	require.Equal(t, "login.error_password_length", err.Error())
	require.True(t, fault.IsKind(err, fault.Validation))
}

func TestSignupDuplicateReasons(t *testing.T) {
	m, _ := newTestManager(t)
	signup(t, m, "Ada", "ada", "ada@example.com")

	_, err := m.Signup(SignupPayload{Name: "X", Nickname: "other", Email: "ada@example.com", Password: testPassword})
	require.Equal(t, "login.error_email_exists", err.Error())

	_, err = m.Signup(SignupPayload{Name: "X", Nickname: "ada", Email: "other@example.com", Password: testPassword})
	require.Equal(t, "login.error_nickname_exists", err.Error())

	_, err = m.Signup(SignupPayload{Name: "X", Nickname: "ada", Email: "ada@example.com", Password: testPassword})
	require.Equal(t, "login.error_email_and_nickname_exists", err.Error())
}

func TestLoginForcesPresenceOnline(t *testing.T) {
	m, ids := newTestManager(t)
	adaID := signup(t, m, "Ada", "ada", "ada@example.com")
	m.Logout()

	ada, _ := ids.Lookup(adaID)
	require.Equal(t, db.Offline, ada.Status)

	tokens, ok := m.Login("ada@example.com", testPassword)
	require.True(t, ok)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)

	ada, _ = ids.Lookup(adaID)
	require.Equal(t, db.Online, ada.Status)

	current, ok := m.Current()
	require.True(t, ok)
	require.Equal(t, adaID, current.ID)
}

func TestLoginRejectsBadSecret(t *testing.T) {
	m, _ := newTestManager(t)
	signup(t, m, "Ada", "ada", "ada@example.com")
	m.Logout()

	_, ok := m.Login("ada@example.com", "wrong-password")
	require.False(t, ok)
	_, ok = m.Current()
	require.False(t, ok)
}

func TestLogoutForcesPresenceOffline(t *testing.T) {
	m, ids := newTestManager(t)
	adaID := signup(t, m, "Ada", "ada", "ada@example.com")

	m.Logout()
	ada, _ := ids.Lookup(adaID)
	require.Equal(t, db.Offline, ada.Status)
	require.Empty(t, m.CurrentID())
	require.Empty(t, m.CurrentTokens().AccessToken)
}

func TestResumeFromToken(t *testing.T) {
	m, ids := newTestManager(t)
	adaID := signup(t, m, "Ada", "ada", "ada@example.com")
	tokens := m.CurrentTokens()
	m.Logout()

	require.True(t, m.Resume(tokens.AccessToken))
	require.Equal(t, adaID, m.CurrentID())
	ada, _ := ids.Lookup(adaID)
	require.Equal(t, db.Online, ada.Status)

	// Logout dropped the old pair, so Resume must mint a fresh one
	resumed := m.CurrentTokens()
	require.NotEmpty(t, resumed.AccessToken)
	require.NotEmpty(t, resumed.RefreshToken)

	m.Logout()
	require.False(t, m.Resume("not-a-token"))
}

func TestChangePassword(t *testing.T) {
	m, _ := newTestManager(t)
	signup(t, m, "Ada", "ada", "ada@example.com")

	err := m.ChangePassword("wrong", "nextsecret")
	require.Equal(t, "settings.error_incorrect_current_password", err.Error())

	err = m.ChangePassword(testPassword, "tiny")
	require.Equal(t, "settings.error_new_password_length", err.Error())

	require.NoError(t, m.ChangePassword(testPassword, "nextsecret"))
	m.Logout()

	_, ok := m.Login("ada@example.com", testPassword)
	require.False(t, ok)
	_, ok = m.Login("ada@example.com", "nextsecret")
	require.True(t, ok)
}

type recordingPurger struct {
	purged []string
}

func (p *recordingPurger) PurgeAccount(id string) error {
	p.purged = append(p.purged, id)
	return nil
}

func TestDeleteOwnAccountCascades(t *testing.T) {
	m, ids := newTestManager(t)
	purger := &recordingPurger{}
	m.AttachPurger(purger)

	adaID := signup(t, m, "Ada", "ada", "ada@example.com")
	require.NoError(t, m.DeleteOwnAccount())

	require.Equal(t, []string{adaID}, purger.purged)
	_, ok := ids.Lookup(adaID)
	require.False(t, ok)
	require.Empty(t, m.CurrentID())
}

func TestAnonymousOperationsRejected(t *testing.T) {
	m, _ := newTestManager(t)

	require.True(t, fault.IsKind(m.DeleteOwnAccount(), fault.Authorization))
	require.True(t, fault.IsKind(m.ChangePassword("a", "b"), fault.Authorization))
	require.True(t, fault.IsKind(m.SendFriendRequest("x"), fault.Authorization))
}
