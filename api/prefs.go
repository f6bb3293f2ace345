package api

import (
	"net/http"

	"github.com/danglnh07/titan/service/prefs"
	"github.com/gin-gonic/gin"
)

// Handler for fetching the requester's preferences
func (server *Server) HandleGetPreferences(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, server.prefs.Get(server.sess.CurrentID()))
}

// Request struct for preference updates, all fields optional
type UpdatePreferencesRequest struct {
	Theme                *string `json:"theme"`
	Language             *string `json:"language"`
	NotificationsEnabled *bool   `json:"notificationsEnabled"`
	FontSize             *string `json:"fontSize"`
}

// Handler for updating preferences
func (server *Server) HandleUpdatePreferences(ctx *gin.Context) {
	var req UpdatePreferencesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	id := server.sess.CurrentID()
	err := server.prefs.Update(id, prefs.Update{
		Theme:                req.Theme,
		Language:             req.Language,
		NotificationsEnabled: req.NotificationsEnabled,
		FontSize:             req.FontSize,
	})
	if err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, server.prefs.Get(id))
}
