package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/danglnh07/titan/service/security"
	"github.com/gin-gonic/gin"
)

// Handler for SSE, used for notification
func (server *Server) SSEHandler(ctx *gin.Context) {
	// Set header to allow SSE streaming
	ctx.Writer.Header().Set("Content-Type", "text/event-stream")
	ctx.Writer.Header().Set("Cache-Control", "no-cache")
	ctx.Writer.Header().Set("Connection", "keep-alive")

	// Change writer to flusher for streaming
	flusher, ok := ctx.Writer.(http.Flusher)
	if !ok {
		server.logger.Error("SSE handler: failed to type assertion from writer to flusher")
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	// Subscribe to the hub
	claims, _ := ctx.Get(claimsKey)
	requesterID := claims.(*security.CustomClaims).ID
	subscriber := server.hub.Subscribe()
	defer server.hub.Unsubscribe(subscriber)

	// Read and send notifications to client
	for noti := range subscriber {
		// Filter to check if the requester is allowed to get this notification
		if noti.DestID != requesterID {
			continue
		}
		data, err := json.Marshal(noti)
		if err != nil {
			server.logger.Error("SSE handler: failed to marshal notification", "error", err)
			continue
		}
		fmt.Fprintf(ctx.Writer, "data: %s\n\n", data)
		flusher.Flush()
	}
}
