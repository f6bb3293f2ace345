package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danglnh07/titan/db"
	"github.com/danglnh07/titan/fault"
	"github.com/danglnh07/titan/service/conversation"
	"github.com/danglnh07/titan/service/identity"
	"github.com/danglnh07/titan/service/notify"
	"github.com/danglnh07/titan/service/prefs"
	"github.com/danglnh07/titan/service/security"
	"github.com/danglnh07/titan/service/session"
	"github.com/danglnh07/titan/service/worker"
	"github.com/danglnh07/titan/util"
	"github.com/gin-gonic/gin"
)

type Server struct {
	mux     *gin.Engine
	queries *db.Queries

	limiter     *RateLimiter
	jwtService  *security.JWTService
	ids         *identity.Store
	sess        *session.Manager
	engine      *conversation.Engine
	prefs       *prefs.Store
	distributor worker.TaskDistributor
	hub         *notify.Hub

	config *util.Config
	logger *slog.Logger
}

func NewServer(
	queries *db.Queries,
	config *util.Config,
	ids *identity.Store,
	sess *session.Manager,
	engine *conversation.Engine,
	prefStore *prefs.Store,
	hub *notify.Hub,
	distributor worker.TaskDistributor,
	logger *slog.Logger,
) *Server {
	return &Server{
		mux:     gin.Default(),
		queries: queries,

		limiter:     NewRateLimiter(config.MaxRequest, config.RefillRate),
		jwtService:  security.NewJWTService(config),
		ids:         ids,
		sess:        sess,
		engine:      engine,
		prefs:       prefStore,
		distributor: distributor,
		hub:         hub,

		config: config,
		logger: logger,
	}
}

type ErrorResponse struct {
	Message string `json:"error"`
}

// fail maps a domain fault to an HTTP status and a translated message in the
// requester's language. Non-fault errors are internal.
func (server *Server) fail(ctx *gin.Context, err error) {
	var f *fault.Fault
	if !errors.As(err, &f) {
		server.logger.Error("Unhandled error", "path", ctx.FullPath(), "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	status := http.StatusInternalServerError
	switch f.Kind {
	case fault.Validation:
		status = http.StatusBadRequest
	case fault.Authorization:
		status = http.StatusForbidden
	case fault.NotFound:
		status = http.StatusNotFound
	}

	language := server.prefs.Get(server.sess.CurrentID()).Language
	ctx.JSON(status, ErrorResponse{prefs.Translate(language, f.Key, f.Subs)})
}

// Helper method to register handler to route
func (server *Server) RegisterHandler() {
	// Setup global middlewares
	server.mux.Use(server.CORSMiddlware(), server.RateLimitingMiddleware())

	api := server.mux.Group("/api")
	{
		// Auth routes
		api.POST("/auth/signup", server.HandleSignup)
		api.POST("/auth/login", server.HandleLogin)
		api.POST("/auth/resume", server.HandleResume)
		api.POST("/auth/logout", server.AuthMiddleware(), server.HandleLogout)
		api.POST("/auth/token/refresh", server.AuthMiddleware(), server.HandleRefreshToken)

		// Profile routes
		api.GET("/profile", server.AuthMiddleware(), server.HandleGetProfile)
		api.PUT("/profile", server.AuthMiddleware(), server.HandleUpdateProfile)
		api.PUT("/profile/password", server.AuthMiddleware(), server.HandleChangePassword)
		api.DELETE("/profile", server.AuthMiddleware(), server.HandleDeleteOwnAccount)

		// User directory
		api.GET("/users", server.AuthMiddleware(), server.HandleListUsers)
		api.GET("/users/:id", server.AuthMiddleware(), server.HandleGetUser)
		api.DELETE("/admin/users/:id", server.AuthMiddleware(), server.HandleAdminDeleteUser)

		// Friend graph
		api.POST("/friends/requests", server.AuthMiddleware(), server.HandleSendFriendRequest)
		api.POST("/friends/requests/:id/accept", server.AuthMiddleware(), server.HandleAcceptFriendRequest)
		api.POST("/friends/requests/:id/reject", server.AuthMiddleware(), server.HandleRejectFriendRequest)
		api.DELETE("/friends/:id", server.AuthMiddleware(), server.HandleUnfriend)
		api.POST("/blocks/:id", server.AuthMiddleware(), server.HandleBlock)
		api.DELETE("/blocks/:id", server.AuthMiddleware(), server.HandleUnblock)

		// Status posts
		api.POST("/status", server.AuthMiddleware(), server.HandlePostStatus)
		api.POST("/status/:ownerId/:statusId/like", server.AuthMiddleware(), server.HandleToggleStatusLike)
		api.POST("/status/:ownerId/:statusId/replies", server.AuthMiddleware(), server.HandleAddStatusReply)
		api.POST("/status/:ownerId/:statusId/viewed", server.AuthMiddleware(), server.HandleMarkStatusViewed)

		// Chats and messages
		api.POST("/chats/direct", server.AuthMiddleware(), server.HandleOpenDirectChat)
		api.POST("/chats/group", server.AuthMiddleware(), server.HandleCreateGroupChat)
		api.GET("/chats", server.AuthMiddleware(), server.HandleListChats)
		api.DELETE("/chats/:id", server.AuthMiddleware(), server.HandleDeleteChat)
		api.GET("/chats/:id/messages", server.AuthMiddleware(), server.HandleListMessages)
		api.POST("/chats/:id/messages", server.AuthMiddleware(), server.HandleSendMessage)
		api.POST("/chats/:id/messages/:messageId/delete", server.AuthMiddleware(), server.HandleDeleteMessage)
		api.POST("/chats/:id/messages/:messageId/reactions", server.AuthMiddleware(), server.HandleToggleReaction)
		api.POST("/chats/:id/messages/:messageId/forward", server.AuthMiddleware(), server.HandleForwardMessage)
		api.POST("/chats/:id/read", server.AuthMiddleware(), server.HandleMarkRead)
		api.POST("/chats/:id/typing", server.AuthMiddleware(), server.HandleSetTyping)
		api.POST("/chats/:id/clear", server.AuthMiddleware(), server.HandleClearChatHistory)
		api.POST("/chats/:id/mute", server.AuthMiddleware(), server.HandleToggleMute)
		api.POST("/chats/:id/presence-mute/:userId", server.AuthMiddleware(), server.HandleTogglePresenceMute)
		api.PUT("/chats/:id/background", server.AuthMiddleware(), server.HandleSetBackground)

		// Group governance
		api.PUT("/chats/:id/group", server.AuthMiddleware(), server.HandleUpdateGroupInfo)
		api.PUT("/chats/:id/permissions", server.AuthMiddleware(), server.HandleUpdateDefaultPermissions)
		api.PUT("/chats/:id/overrides/:userId", server.AuthMiddleware(), server.HandleUpdateMemberOverride)
		api.POST("/chats/:id/kick/:userId", server.AuthMiddleware(), server.HandleKick)
		api.POST("/chats/:id/ban/:userId", server.AuthMiddleware(), server.HandleBan)
		api.POST("/chats/:id/unban/:userId", server.AuthMiddleware(), server.HandleUnban)
		api.POST("/chats/:id/members", server.AuthMiddleware(), server.HandleAddMembers)
		api.POST("/chats/:id/transfer/:userId", server.AuthMiddleware(), server.HandleTransferOwnership)
		api.PUT("/chats/:id/admins", server.AuthMiddleware(), server.HandleSetAdmins)
		api.POST("/chats/:id/leave", server.AuthMiddleware(), server.HandleLeaveGroup)

		// Calls
		api.POST("/chats/:id/calls", server.AuthMiddleware(), server.HandleStartCall)
		api.POST("/calls/answer", server.AuthMiddleware(), server.HandleAnswerCall)
		api.POST("/calls/decline", server.AuthMiddleware(), server.HandleDeclineCall)
		api.POST("/calls/end", server.AuthMiddleware(), server.HandleEndCall)
		api.GET("/calls/current", server.AuthMiddleware(), server.HandleCurrentCall)

		// Preferences
		api.GET("/preferences", server.AuthMiddleware(), server.HandleGetPreferences)
		api.PUT("/preferences", server.AuthMiddleware(), server.HandleUpdatePreferences)

		// Notification stream
		api.GET("/notifications/stream", server.AuthMiddleware(), server.SSEHandler)
	}
}

// Method to start the server
func (server *Server) Start() error {
	server.RegisterHandler()
	return server.mux.Run(server.config.ListenAddr)
}
