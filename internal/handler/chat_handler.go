package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "resume-chat-go/internal/errors"
	"resume-chat-go/internal/middleware"
	"resume-chat-go/internal/model"
	"resume-chat-go/internal/service"
	"resume-chat-go/pkg/llm"
	"resume-chat-go/pkg/log"
)

// TitleHeader 携带本轮新生成的会话标题。
const TitleHeader = "X-Chat-Title"

// ChatRequest 是一次对话提交的请求体。
type ChatRequest struct {
	Model    string           `json:"model" validate:"omitempty,max=100"`
	Messages []model.ChatTurn `json:"messages" validate:"required,min=1,dive"`
	Data     *ChatRequestData `json:"data"`
}

// ChatRequestData 是请求附带的数据。
type ChatRequestData struct {
	ResumeID string `json:"resumeId" validate:"omitempty,max=64"`
}

func (r ChatRequest) toTurn(chatID, userID string) service.TurnRequest {
	turn := service.TurnRequest{ChatID: chatID, UserID: userID, Model: r.Model, Messages: r.Messages}
	if r.Data != nil {
		turn.ResumeID = r.Data.ResumeID
	}
	return turn
}

// ChatHandler 处理流式对话提交。
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// httpChunkWriter 把分块直接写入响应并立即 flush。第一次写入时才提交 200 状态码。
type httpChunkWriter struct {
	w       gin.ResponseWriter
	started bool
}

func (h *httpChunkWriter) WriteChunk(content string) error {
	h.started = true
	if _, err := h.w.WriteString(content); err != nil {
		return err
	}
	h.w.Flush()
	return nil
}

// Submit 处理 POST /api/chats/:id。
func (h *ChatHandler) Submit(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		writeError(c, apperrors.ErrUnauthorized)
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.Join(apperrors.ErrValidation, err))
		return
	}
	if err := validateRequest(req); err != nil {
		writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	turn, err := h.chatService.Prepare(ctx, req.toTurn(c.Param("id"), user.ID))
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	if turn.Title != "" {
		c.Header(TitleHeader, turn.Title)
	}

	writer := &httpChunkWriter{w: c.Writer}
	err = h.chatService.Stream(ctx, turn, writer)
	switch {
	case err == nil:
		if !writer.started {
			c.Status(http.StatusOK)
			c.Writer.WriteHeaderNow()
		}
	case errors.Is(err, llm.ErrWriter) || errors.Is(err, context.Canceled) || ctx.Err() != nil:
		log.Infow("客户端已断开，对话中止", "chatId", turn.ChatID, "userId", user.ID)
	case !writer.started:
		// 标题已落库，客户端可以通过 GET /api/chats/:id 取回
		c.Writer.Header().Del("Content-Type")
		c.Writer.Header().Del(TitleHeader)
		writeError(c, err)
	default:
		// 状态码已经发出，只能截断响应
		log.Errorw("流式回复中途失败", "chatId", turn.ChatID, "error", err)
	}
}
