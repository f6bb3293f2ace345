package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danglnh07/titan/db"
	"github.com/danglnh07/titan/service/identity"
	"github.com/danglnh07/titan/service/notify"
	"github.com/danglnh07/titan/service/security"
	"github.com/danglnh07/titan/service/worker"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

// Handler for fetching the authenticated account
func (server *Server) HandleGetProfile(ctx *gin.Context) {
	account, ok := server.sess.Current()
	if !ok {
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{"No active session"})
		return
	}
	ctx.JSON(http.StatusOK, account)
}

// Request struct for profile updates, all fields optional
type UpdateProfileRequest struct {
	Name         *string                `json:"name"`
	Nickname     *string                `json:"nickname"`
	AvatarURL    *string                `json:"avatarUrl"`
	CustomStatus *string                `json:"customStatus"`
	Bio          *string                `json:"bio"`
	Presence     *db.PresenceVisibility `json:"presenceVisibility"`
	Messaging    *db.MessagingPrivacy   `json:"messagingPrivacy"`
}

// Handler for updating the authenticated account's profile
func (server *Server) HandleUpdateProfile(ctx *gin.Context) {
	var req UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	err := server.sess.UpdateCurrent(identity.Update{
		Name:         req.Name,
		Nickname:     req.Nickname,
		AvatarURL:    req.AvatarURL,
		CustomStatus: req.CustomStatus,
		Bio:          req.Bio,
		Presence:     req.Presence,
		Messaging:    req.Messaging,
	})
	if err != nil {
		server.fail(ctx, err)
		return
	}

	account, _ := server.sess.Current()
	ctx.JSON(http.StatusOK, account)
}

// Request struct for password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// Handler for changing the password
func (server *Server) HandleChangePassword(ctx *gin.Context) {
	var req ChangePasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	if err := server.sess.ChangePassword(req.CurrentPassword, req.NewPassword); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Handler for deleting the authenticated account and all its traces
func (server *Server) HandleDeleteOwnAccount(ctx *gin.Context) {
	id := server.sess.CurrentID()
	if err := server.sess.DeleteOwnAccount(); err != nil {
		server.fail(ctx, err)
		return
	}
	if err := server.prefs.Drop(id); err != nil {
		server.logger.Error("DELETE /api/profile: failed to drop preferences", "error", err)
	}
	ctx.Status(http.StatusNoContent)
}

// Handler for listing all accounts
func (server *Server) HandleListUsers(ctx *gin.Context) {
	accounts := server.ids.List()
	out := make([]UserData, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, userData(account))
	}
	ctx.JSON(http.StatusOK, out)
}

// Handler for fetching one account, resolving deleted ids to a placeholder
func (server *Server) HandleGetUser(ctx *gin.Context) {
	resolved := server.ids.Resolve(ctx.Param("id"))
	if !resolved.Known() {
		ctx.JSON(http.StatusOK, resolved.Placeholder())
		return
	}
	ctx.JSON(http.StatusOK, userData(resolved.Account()))
}

// Handler for administrative account removal
func (server *Server) HandleAdminDeleteUser(ctx *gin.Context) {
	claims, _ := ctx.Get(claimsKey)
	if !claims.(*security.CustomClaims).IsAdmin {
		ctx.JSON(http.StatusForbidden, ErrorResponse{"You don't have authorization on this action"})
		return
	}

	if err := server.ids.DeleteByAdmin(ctx.Param("id")); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Request struct for sending friend request
type AddFriendRequest struct {
	TargetID string `json:"targetId" binding:"required"`
}

// Handler for sending friend request
func (server *Server) HandleSendFriendRequest(ctx *gin.Context) {
	// Get request body and validate
	var req AddFriendRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	requesterID := server.sess.CurrentID()
	if err := server.sess.SendFriendRequest(req.TargetID); err != nil {
		server.fail(ctx, err)
		return
	}

	server.notifyAsync(requesterID, req.TargetID, "You have a new friend request", notify.KindFriendRequest)
	ctx.Status(http.StatusNoContent)
}

// Handler for accepting friend request
func (server *Server) HandleAcceptFriendRequest(ctx *gin.Context) {
	requesterID := ctx.Param("id")
	accepterID := server.sess.CurrentID()
	if err := server.sess.AcceptFriendRequest(requesterID); err != nil {
		server.fail(ctx, err)
		return
	}

	server.notifyAsync(accepterID, requesterID, "Your friend request was accepted", notify.KindFriendAccepted)
	ctx.Status(http.StatusNoContent)
}

// Handler for rejecting friend request
func (server *Server) HandleRejectFriendRequest(ctx *gin.Context) {
	if err := server.sess.RejectFriendRequest(ctx.Param("id")); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Handler for unfriending
func (server *Server) HandleUnfriend(ctx *gin.Context) {
	if err := server.sess.Unfriend(ctx.Param("id")); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Handler for blocking a user
func (server *Server) HandleBlock(ctx *gin.Context) {
	if err := server.sess.Block(ctx.Param("id")); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Handler for unblocking a user
func (server *Server) HandleUnblock(ctx *gin.Context) {
	if err := server.sess.Unblock(ctx.Param("id")); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Request struct for posting a status video
type PostStatusRequest struct {
	VideoURL string `json:"videoUrl" binding:"required"`
	Caption  string `json:"caption"`
}

// Handler for posting a status video. The expiry task removes it once the TTL
// elapses.
func (server *Server) HandlePostStatus(ctx *gin.Context) {
	var req PostStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	ownerID := server.sess.CurrentID()
	status, err := server.ids.PostStatus(ownerID, req.VideoURL, req.Caption)
	if err != nil {
		server.fail(ctx, err)
		return
	}

	err = server.distributor.DistributeTaskExpireStatus(context.Background(), worker.ExpireStatusPayload{
		OwnerID:  ownerID,
		StatusID: status.ID,
	}, server.statusExpiryOpts()...)
	if err != nil {
		server.logger.Error("POST /api/status: failed to queue expiry task", "error", err)
	}

	ctx.JSON(http.StatusCreated, status)
}

// Handler for toggling a like on a status video
func (server *Server) HandleToggleStatusLike(ctx *gin.Context) {
	likerID := server.sess.CurrentID()
	ownerID := ctx.Param("ownerId")
	if err := server.ids.ToggleStatusLike(ownerID, ctx.Param("statusId"), likerID); err != nil {
		server.fail(ctx, err)
		return
	}

	server.notifyAsync(likerID, ownerID, "Someone reacted to your status", notify.KindStatusLike)
	ctx.Status(http.StatusNoContent)
}

// Request struct for replying to a status video
type StatusReplyRequest struct {
	Text string `json:"text" binding:"required"`
}

// Handler for replying to a status video
func (server *Server) HandleAddStatusReply(ctx *gin.Context) {
	var req StatusReplyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	replierID := server.sess.CurrentID()
	ownerID := ctx.Param("ownerId")
	if err := server.ids.AddStatusReply(ownerID, ctx.Param("statusId"), replierID, req.Text); err != nil {
		server.fail(ctx, err)
		return
	}

	server.notifyAsync(replierID, ownerID, "Someone replied to your status", notify.KindStatusReply)
	ctx.Status(http.StatusNoContent)
}

// Handler for marking a status video viewed
func (server *Server) HandleMarkStatusViewed(ctx *gin.Context) {
	viewerID := server.sess.CurrentID()
	if err := server.ids.MarkStatusViewed(ctx.Param("ownerId"), ctx.Param("statusId"), viewerID); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (server *Server) statusExpiryOpts() []asynq.Option {
	return []asynq.Option{asynq.ProcessIn(server.config.StatusTTL)}
}

// notifyAsync queues an in-app notification without failing the request that
// triggered it.
func (server *Server) notifyAsync(sourceID, destID, content, kind string) {
	err := server.distributor.DistributeTaskDeliverNotification(context.Background(), worker.NotificationPayload{
		ID:       fmt.Sprintf("%s-%s-%s", kind, sourceID, destID),
		SourceID: sourceID,
		DestID:   destID,
		Kind:     kind,
		Content:  content,
	})
	if err != nil {
		server.logger.Error("Failed to queue notification", "kind", kind, "error", err)
	}
}
