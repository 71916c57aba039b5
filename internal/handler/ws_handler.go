package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	apperrors "resume-chat-go/internal/errors"
	"resume-chat-go/internal/middleware"
	"resume-chat-go/internal/service"
	"resume-chat-go/pkg/log"
)

const wsReadLimit = 1 << 20

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// wsInbound 是客户端发来的帧，type 为 stop 时中断当前回复，否则按 ChatRequest 处理。
type wsInbound struct {
	Type string `json:"type"`
}

// wsFrame 是服务端下发的帧。
type wsFrame struct {
	Type   string `json:"type,omitempty"`
	Chunk  string `json:"chunk,omitempty"`
	Title  string `json:"title,omitempty"`
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// wsChunkWriter 把每个分块包装成 {"chunk": ...} 帧。
type wsChunkWriter struct {
	conn *websocket.Conn
}

func (w *wsChunkWriter) WriteChunk(content string) error {
	return w.conn.WriteJSON(wsFrame{Chunk: content})
}

// turnCanceller 保存当前正在生成的回复的取消函数。
type turnCanceller struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

func (t *turnCanceller) set(cancel context.CancelFunc) {
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()
}

func (t *turnCanceller) stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel == nil {
		return false
	}
	t.cancel()
	t.cancel = nil
	return true
}

// ChatSocketHandler 通过 WebSocket 提供与 Submit 相同的对话流程。
type ChatSocketHandler struct {
	chatService service.ChatService
}

// NewChatSocketHandler 创建一个新的 ChatSocketHandler。
func NewChatSocketHandler(chatService service.ChatService) *ChatSocketHandler {
	return &ChatSocketHandler{chatService: chatService}
}

// Handle 处理 GET /api/chats/:id/ws。
func (h *ChatSocketHandler) Handle(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		writeError(c, apperrors.ErrUnauthorized)
		return
	}
	chatID := c.Param("id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsReadLimit)
	log.Infow("WebSocket 连接已建立", "userId", user.ID, "chatId", chatID)

	connCtx, closeConn := context.WithCancel(c.Request.Context())
	defer closeConn()

	current := &turnCanceller{}
	requests := make(chan []byte, 4)
	go func() {
		defer close(requests)
		defer closeConn()
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warnf("从 WebSocket 读取消息失败: %v", err)
				}
				return
			}
			var inbound wsInbound
			if err := json.Unmarshal(message, &inbound); err == nil && inbound.Type == "stop" {
				if current.stop() {
					log.Infow("收到停止指令，中断流式响应", "chatId", chatID)
				}
				continue
			}
			select {
			case requests <- message:
			case <-connCtx.Done():
				return
			}
		}
	}()

	for message := range requests {
		h.serveTurn(connCtx, conn, current, chatID, user.ID, message)
	}
	log.Infow("WebSocket 连接已关闭", "userId", user.ID, "chatId", chatID)
}

func (h *ChatSocketHandler) serveTurn(connCtx context.Context, conn *websocket.Conn, current *turnCanceller, chatID, userID string, message []byte) {
	var req ChatRequest
	if err := json.Unmarshal(message, &req); err != nil {
		h.fail(conn, errors.Join(apperrors.ErrValidation, err))
		return
	}
	if err := validateRequest(req); err != nil {
		h.fail(conn, err)
		return
	}

	ctx, cancel := context.WithCancel(connCtx)
	defer cancel()
	current.set(cancel)
	defer current.set(nil)

	turn, err := h.chatService.Prepare(ctx, req.toTurn(chatID, userID))
	if err != nil {
		h.fail(conn, err)
		return
	}
	if turn.Title != "" {
		if err := conn.WriteJSON(wsFrame{Type: "title", Title: turn.Title}); err != nil {
			return
		}
	}

	err = h.chatService.Stream(ctx, turn, &wsChunkWriter{conn: conn})
	switch {
	case err == nil:
		_ = conn.WriteJSON(wsFrame{Type: "completion", Status: "finished"})
	case ctx.Err() != nil && connCtx.Err() == nil:
		// 客户端主动停止，连接仍然可用
		_ = conn.WriteJSON(wsFrame{Type: "completion", Status: "stopped"})
	case connCtx.Err() != nil:
		log.Infow("连接已断开，对话中止", "chatId", chatID, "userId", userID)
	default:
		h.fail(conn, err)
	}
}

// fail 下发错误帧，随后补一条 completion 让客户端结束等待。
func (h *ChatSocketHandler) fail(conn *websocket.Conn, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Errorw("WebSocket 对话失败", "error", err)
	} else {
		log.Warnw("WebSocket 请求被拒绝", "status", status, "error", err)
	}
	_ = conn.WriteJSON(wsFrame{Type: "error", Error: message})
	_ = conn.WriteJSON(wsFrame{Type: "completion", Status: "finished"})
}
