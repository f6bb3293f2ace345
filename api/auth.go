package api

import (
	"context"
	"net/http"

	"github.com/danglnh07/titan/db"
	"github.com/danglnh07/titan/service/security"
	"github.com/danglnh07/titan/service/session"
	"github.com/danglnh07/titan/service/worker"
	"github.com/gin-gonic/gin"
)

// User data return to client, never includes the password hash
type UserData struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Nickname      string `json:"nickname"`
	Email         string `json:"email"`
	AvatarURL     string `json:"avatarUrl,omitempty"`
	AvatarBgColor string `json:"avatarBgColor"`
	IsAdmin       bool   `json:"isAdmin"`
}

func userData(account db.Account) UserData {
	return UserData{
		ID:            account.ID,
		Name:          account.Name,
		Nickname:      account.Nickname,
		Email:         account.Email,
		AvatarURL:     account.AvatarURL,
		AvatarBgColor: account.AvatarBgColor,
		IsAdmin:       account.IsAdmin,
	}
}

// Response struct after login/signup
type AuthResponse struct {
	UserData UserData       `json:"user"`
	Tokens   session.Tokens `json:"tokens"`
}

// Request struct for signup
type SignupRequest struct {
	Name            string `json:"name" binding:"required"`
	Nickname        string `json:"nickname" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	AvatarURL       string `json:"avatarUrl"`
	AvatarColorSeed string `json:"avatarColorSeed"`
}

// Handler for signup
func (server *Server) HandleSignup(ctx *gin.Context) {
	// Get request body and validate
	var req SignupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	tokens, err := server.sess.Signup(session.SignupPayload{
		Name:            req.Name,
		Nickname:        req.Nickname,
		Email:           req.Email,
		Password:        req.Password,
		AvatarURL:       req.AvatarURL,
		AvatarColorSeed: req.AvatarColorSeed,
	})
	if err != nil {
		server.fail(ctx, err)
		return
	}

	account, _ := server.sess.Current()

	// Queue the welcome email, losing it is not worth failing the signup
	err = server.distributor.DistributeTaskSendWelcomeEmail(context.Background(), worker.WelcomeEmailPayload{
		Email: account.Email,
		Name:  account.Name,
	})
	if err != nil {
		server.logger.Error("POST /api/auth/signup: failed to queue welcome email", "error", err)
	}

	ctx.JSON(http.StatusCreated, AuthResponse{UserData: userData(account), Tokens: tokens})
}

// Request struct for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Handler for login
func (server *Server) HandleLogin(ctx *gin.Context) {
	// Get request body and validate
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	tokens, ok := server.sess.Login(req.Email, req.Password)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{"Invalid email or password"})
		return
	}

	account, _ := server.sess.Current()
	ctx.JSON(http.StatusOK, AuthResponse{UserData: userData(account), Tokens: tokens})
}

// Request struct for resuming a session from a stored token
type ResumeRequest struct {
	Token string `json:"token" binding:"required"`
}

// Handler for resuming a previous session
func (server *Server) HandleResume(ctx *gin.Context) {
	var req ResumeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	if !server.sess.Resume(req.Token) {
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{"Invalid or expired token"})
		return
	}

	account, _ := server.sess.Current()
	ctx.JSON(http.StatusOK, AuthResponse{UserData: userData(account), Tokens: server.sess.CurrentTokens()})
}

// Handler for logout
func (server *Server) HandleLogout(ctx *gin.Context) {
	server.sess.Logout()
	ctx.Status(http.StatusNoContent)
}

// Handler for refreshing the token pair. Guarded by the auth middleware,
// which only lets refresh tokens through to this endpoint.
func (server *Server) HandleRefreshToken(ctx *gin.Context) {
	claims, _ := ctx.Get(claimsKey)
	requesterID := claims.(*security.CustomClaims).ID

	account, ok := server.ids.Lookup(requesterID)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{"Invalid token: ID not exists"})
		return
	}

	access, err := server.jwtService.CreateToken(account.ID, account.Nickname, account.IsAdmin, security.AccessToken)
	if err != nil {
		server.logger.Error("POST /api/auth/token/refresh: failed to create access token", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}
	refresh, err := server.jwtService.CreateToken(account.ID, account.Nickname, account.IsAdmin, security.RefreshToken)
	if err != nil {
		server.logger.Error("POST /api/auth/token/refresh: failed to create refresh token", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, session.Tokens{AccessToken: access, RefreshToken: refresh})
}
