package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "resume-chat-go/internal/errors"
	"resume-chat-go/internal/middleware"
	"resume-chat-go/internal/model"
	"resume-chat-go/internal/service"
)

// CreateChatRequest 是创建会话的请求体，message 为开场的用户消息。
type CreateChatRequest struct {
	Message string `json:"message" validate:"required,max=20000"`
}

// ConversationHandler 处理与会话相关的 API 请求。
type ConversationHandler struct {
	service service.ConversationService
}

// NewConversationHandler 创建一个新的 ConversationHandler。
func NewConversationHandler(service service.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// Create 处理 POST /api/chats。
func (h *ConversationHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		writeError(c, apperrors.ErrUnauthorized)
		return
	}
	var req CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.Join(apperrors.ErrValidation, err))
		return
	}
	if err := validateRequest(req); err != nil {
		writeError(c, err)
		return
	}

	chat, err := h.service.Create(c.Request.Context(), user.ID, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, chat)
}

// List 处理 GET /api/chats，按创建时间倒序返回。
func (h *ConversationHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		writeError(c, apperrors.ErrUnauthorized)
		return
	}
	chats, err := h.service.List(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	if chats == nil {
		chats = []model.Chat{}
	}
	c.JSON(http.StatusOK, chats)
}

// Get 处理 GET /api/chats/:id。
func (h *ConversationHandler) Get(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		writeError(c, apperrors.ErrUnauthorized)
		return
	}
	chat, err := h.service.Get(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}
