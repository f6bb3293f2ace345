package api

import (
	"net/http"

	"github.com/danglnh07/titan/db"
	"github.com/danglnh07/titan/service/conversation"
	"github.com/danglnh07/titan/service/notify"
	"github.com/gin-gonic/gin"
)

// Request struct for opening a 1:1 chat
type DirectChatRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// Handler for opening (or creating) a 1:1 chat
func (server *Server) HandleOpenDirectChat(ctx *gin.Context) {
	var req DirectChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	chatID, err := server.engine.CreateOrOpenDirectChat(req.UserID)
	if err != nil {
		server.fail(ctx, err)
		return
	}
	chat, _ := server.engine.ChatByID(chatID)
	ctx.JSON(http.StatusOK, chat)
}

// Request struct for creating a group chat
type GroupChatRequest struct {
	Name       string   `json:"name" binding:"required"`
	MemberIDs  []string `json:"memberIds" binding:"required"`
	GroupImage string   `json:"groupImage"`
}

// Handler for creating a group chat
func (server *Server) HandleCreateGroupChat(ctx *gin.Context) {
	var req GroupChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	chatID, err := server.engine.CreateGroupChat(req.Name, req.MemberIDs, req.GroupImage)
	if err != nil {
		server.fail(ctx, err)
		return
	}
	chat, _ := server.engine.ChatByID(chatID)
	ctx.JSON(http.StatusCreated, chat)
}

// Handler for listing the requester's chats, most recent activity first
func (server *Server) HandleListChats(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, server.engine.ChatsFor(server.sess.CurrentID()))
}

// Handler for deleting a chat and its history
func (server *Server) HandleDeleteChat(ctx *gin.Context) {
	if err := server.engine.DeleteChat(ctx.Param("id")); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Handler for listing a chat's messages as the requester sees them
func (server *Server) HandleListMessages(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, server.engine.MessagesFor(ctx.Param("id"), server.sess.CurrentID()))
}

// Request struct for sending or editing a message
type SendMessageRequest struct {
	Content       string         `json:"content"`
	Type          db.MessageType `json:"type"`
	FileName      string         `json:"fileName"`
	FileSize      int64          `json:"fileSize"`
	FileType      string         `json:"fileType"`
	ReplyTo       string         `json:"replyTo"`
	EditMessageID string         `json:"editMessageId"`
}

// Handler for sending a message into a chat
func (server *Server) HandleSendMessage(ctx *gin.Context) {
	// Get request body and validate
	var req SendMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	chatID := ctx.Param("id")
	senderID := server.sess.CurrentID()
	msg, err := server.engine.Send(chatID, req.Content, conversation.SendOptions{
		Type:          req.Type,
		FileName:      req.FileName,
		FileSize:      req.FileSize,
		FileType:      req.FileType,
		ReplyTo:       req.ReplyTo,
		EditMessageID: req.EditMessageID,
	})
	if err != nil {
		server.fail(ctx, err)
		return
	}

	// Notify the other participants unless they muted the chat
	if chat, ok := server.engine.ChatByID(chatID); ok && !chat.Muted && req.EditMessageID == "" {
		for _, p := range chat.Participants {
			if p.UserID != senderID {
				server.notifyAsync(senderID, p.UserID, "New message", notify.KindMessage)
			}
		}
	}

	ctx.JSON(http.StatusCreated, msg)
}

// Request struct for deleting a message
type DeleteMessageRequest struct {
	Scope conversation.DeleteScope `json:"scope" binding:"required"`
}

// Handler for deleting a message for the requester or for everyone
func (server *Server) HandleDeleteMessage(ctx *gin.Context) {
	var req DeleteMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	if err := server.engine.Delete(ctx.Param("id"), ctx.Param("messageId"), req.Scope); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Request struct for toggling a reaction
type ReactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

// Handler for toggling an emoji reaction on a message
func (server *Server) HandleToggleReaction(ctx *gin.Context) {
	var req ReactionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	if err := server.engine.ToggleReaction(ctx.Param("id"), ctx.Param("messageId"), req.Emoji); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Request struct for forwarding a message
type ForwardRequest struct {
	TargetChatIDs []string `json:"targetChatIds" binding:"required"`
}

// Handler for forwarding a message to other chats
func (server *Server) HandleForwardMessage(ctx *gin.Context) {
	var req ForwardRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	if err := server.engine.ForwardMessages(ctx.Param("id"), ctx.Param("messageId"), req.TargetChatIDs); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Handler for marking a whole chat read
func (server *Server) HandleMarkRead(ctx *gin.Context) {
	if err := server.engine.MarkRead(ctx.Param("id")); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Request struct for the typing flag
type TypingRequest struct {
	Typing bool `json:"typing"`
}

// Handler for flipping the requester's typing flag
func (server *Server) HandleSetTyping(ctx *gin.Context) {
	var req TypingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	if err := server.engine.SetTyping(ctx.Param("id"), req.Typing); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Handler for clearing a chat's history
func (server *Server) HandleClearChatHistory(ctx *gin.Context) {
	if err := server.engine.ClearChatHistory(ctx.Param("id")); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Handler for toggling chat notification mute
func (server *Server) HandleToggleMute(ctx *gin.Context) {
	if err := server.engine.ToggleMuteChat(ctx.Param("id")); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Handler for toggling presence mute against one participant
func (server *Server) HandleTogglePresenceMute(ctx *gin.Context) {
	if err := server.engine.TogglePresenceMute(ctx.Param("id"), ctx.Param("userId")); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Request struct for setting the chat background
type BackgroundRequest struct {
	BackgroundID string `json:"backgroundId"`
}

// Handler for setting the chat background theme
func (server *Server) HandleSetBackground(ctx *gin.Context) {
	var req BackgroundRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	if err := server.engine.SetChatBackground(ctx.Param("id"), req.BackgroundID); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Request struct for updating group name/image
type GroupInfoRequest struct {
	Name  *string `json:"name"`
	Image *string `json:"image"`
}

// Handler for updating group info
func (server *Server) HandleUpdateGroupInfo(ctx *gin.Context) {
	var req GroupInfoRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	if err := server.engine.UpdateGroupInfo(ctx.Param("id"), req.Name, req.Image); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Handler for replacing the group's default permission bundle
func (server *Server) HandleUpdateDefaultPermissions(ctx *gin.Context) {
	var bundle db.GroupPermissions
	if err := ctx.ShouldBindJSON(&bundle); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	if err := server.engine.UpdateDefaultPermissions(ctx.Param("id"), bundle); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Handler for merging a member permission override
func (server *Server) HandleUpdateMemberOverride(ctx *gin.Context) {
	var override db.PermissionOverride
	if err := ctx.ShouldBindJSON(&override); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	if err := server.engine.UpdateMemberOverride(ctx.Param("id"), ctx.Param("userId"), override); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Handler for kicking a member
func (server *Server) HandleKick(ctx *gin.Context) {
	if err := server.engine.Kick(ctx.Param("id"), ctx.Param("userId")); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Handler for banning a member
func (server *Server) HandleBan(ctx *gin.Context) {
	if err := server.engine.Ban(ctx.Param("id"), ctx.Param("userId")); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Handler for lifting a ban
func (server *Server) HandleUnban(ctx *gin.Context) {
	if err := server.engine.Unban(ctx.Param("id"), ctx.Param("userId")); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Request struct for adding members to a group
type AddMembersRequest struct {
	MemberIDs []string `json:"memberIds" binding:"required"`
}

// Handler for adding members
func (server *Server) HandleAddMembers(ctx *gin.Context) {
	var req AddMembersRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	if err := server.engine.AddMembers(ctx.Param("id"), req.MemberIDs); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Handler for transferring group ownership
func (server *Server) HandleTransferOwnership(ctx *gin.Context) {
	if err := server.engine.TransferOwnership(ctx.Param("id"), ctx.Param("userId")); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Request struct for replacing the admin roster
type SetAdminsRequest struct {
	AdminIDs []string `json:"adminIds" binding:"required"`
}

// Handler for replacing the admin roster
func (server *Server) HandleSetAdmins(ctx *gin.Context) {
	var req SetAdminsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	if err := server.engine.SetAdmins(ctx.Param("id"), req.AdminIDs); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Handler for leaving a group
func (server *Server) HandleLeaveGroup(ctx *gin.Context) {
	if err := server.engine.LeaveGroup(ctx.Param("id")); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Request struct for starting a call
type StartCallRequest struct {
	UserID string                `json:"userId" binding:"required"`
	Type   conversation.CallType `json:"type" binding:"required"`
}

// Handler for starting an outgoing call
func (server *Server) HandleStartCall(ctx *gin.Context) {
	var req StartCallRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	if err := server.engine.StartCall(ctx.Param("id"), req.UserID, req.Type); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, server.engine.CurrentCall())
}

// Handler for answering an incoming call
func (server *Server) HandleAnswerCall(ctx *gin.Context) {
	if err := server.engine.AnswerCall(); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, server.engine.CurrentCall())
}

// Handler for declining an incoming call
func (server *Server) HandleDeclineCall(ctx *gin.Context) {
	if err := server.engine.DeclineCall(); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Handler for hanging up
func (server *Server) HandleEndCall(ctx *gin.Context) {
	if err := server.engine.EndCall(); err != nil {
		server.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Handler for polling the in-flight call
func (server *Server) HandleCurrentCall(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, server.engine.CurrentCall())
}
