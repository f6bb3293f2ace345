package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/danglnh07/titan/db"
	"github.com/danglnh07/titan/service/conversation"
	"github.com/danglnh07/titan/service/identity"
	"github.com/danglnh07/titan/service/notify"
	"github.com/danglnh07/titan/service/prefs"
	"github.com/danglnh07/titan/service/security"
	"github.com/danglnh07/titan/service/session"
	"github.com/danglnh07/titan/service/worker"
	"github.com/danglnh07/titan/util"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	queries, err := db.NewQueries(":memory:")
	require.NoError(t, err)
	require.NoError(t, queries.AutoMigration())

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	config := &util.Config{
		ListenAddr:             ":0",
		SecretKey:              []byte("test-secret-key"),
		TokenExpiration:        time.Hour,
		RefreshTokenExpiration: 24 * time.Hour,
		MaxRequest:             1000,
		RefillRate:             time.Second,
		StatusTTL:              24 * time.Hour,
	}

	ids, err := identity.NewStore(queries, logger)
	require.NoError(t, err)
	sess := session.NewManager(ids, security.NewJWTService(config), logger)
	engine, err := conversation.NewEngine(queries, ids, sess, logger)
	require.NoError(t, err)
	sess.AttachPurger(engine)
	prefStore, err := prefs.NewStore(queries, logger)
	require.NoError(t, err)

	server := NewServer(queries, config, ids, sess, engine, prefStore, notify.NewHub(), worker.NewNoopDistributor(), logger)
	server.mux = gin.New()
	server.RegisterHandler()
	return server
}

func (server *Server) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)
	return rec
}

func signupReq(nickname, email string) SignupRequest {
	return SignupRequest{
		Name:     nickname,
		Nickname: nickname,
		Email:    email,
		Password: "secret123",
	}
}

func TestSignupAndLoginEndpoints(t *testing.T) {
	server := newTestServer(t)

	rec := server.do(t, http.MethodPost, "/api/auth/signup", "", signupReq("ada", "ada@example.com"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "ada", resp.UserData.Nickname)
	require.NotEmpty(t, resp.Tokens.AccessToken)

	// Duplicate email maps to a validation failure with translated text
	rec = server.do(t, http.MethodPost, "/api/auth/signup", "", signupReq("other", "ada@example.com"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	require.Equal(t, "An account with this email already exists.", errResp.Message)

	rec = server.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "ada@example.com", Password: "wrong-password"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = server.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "ada@example.com", Password: "secret123"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestProfileRequiresMatchingSession(t *testing.T) {
	server := newTestServer(t)

	rec := server.do(t, http.MethodPost, "/api/auth/signup", "", signupReq("ada", "ada@example.com"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	token := resp.Tokens.AccessToken

	rec = server.do(t, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = server.do(t, http.MethodGet, "/api/profile", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// After logout the token no longer matches an active session
	rec = server.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = server.do(t, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFailRendersNameSubstitution(t *testing.T) {
	server := newTestServer(t)

	rec := server.do(t, http.MethodPost, "/api/auth/signup", "", signupReq("Bob", "bob@example.com"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var bob AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bob))

	messaging := db.MessagingFriendsOnly
	rec = server.do(t, http.MethodPut, "/api/profile", bob.Tokens.AccessToken, UpdateProfileRequest{Messaging: &messaging})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = server.do(t, http.MethodPost, "/api/auth/signup", "", signupReq("ada", "ada@example.com"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var ada AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ada))

	// The counterpart's name fills the {name} slot of the rejection text
	rec = server.do(t, http.MethodPost, "/api/chats/direct", ada.Tokens.AccessToken, DirectChatRequest{UserID: bob.UserData.ID})
	require.Equal(t, http.StatusForbidden, rec.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	require.Equal(t, "Bob only accepts messages from friends.", errResp.Message)
}

func TestChatEndpointsEndToEnd(t *testing.T) {
	server := newTestServer(t)

	rec := server.do(t, http.MethodPost, "/api/auth/signup", "", signupReq("bob", "bob@example.com"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var bob AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bob))

	rec = server.do(t, http.MethodPost, "/api/auth/signup", "", signupReq("ada", "ada@example.com"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var ada AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ada))

	rec = server.do(t, http.MethodPost, "/api/chats/direct", ada.Tokens.AccessToken, DirectChatRequest{UserID: bob.UserData.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	var chat db.Chat
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chat))

	rec = server.do(t, http.MethodPost, "/api/chats/"+chat.ID+"/messages", ada.Tokens.AccessToken,
		SendMessageRequest{Content: "hello"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = server.do(t, http.MethodGet, "/api/chats/"+chat.ID+"/messages", ada.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []db.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 1)
	require.Equal(t, "hello", history[0].Text)
}
