package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "resume-chat-go/internal/errors"
	"resume-chat-go/internal/model"
	"resume-chat-go/internal/repository"
	"resume-chat-go/pkg/llm"
	"resume-chat-go/pkg/log"
	"resume-chat-go/pkg/metrics"
)

// ChatConfig 是对话编排用到的配置，由 main 从配置文件组装后注入。
type ChatConfig struct {
	SystemPrompt string
	DefaultModel string
	MaxTokens    int
}

// TurnRequest 是一次对话提交。Messages 是客户端持有的完整可见历史，最后一条通常是本轮的用户消息。
type TurnRequest struct {
	ChatID   string
	UserID   string
	Model    string
	Messages []model.ChatTurn
	ResumeID string
}

// PreparedTurn 是完成鉴权、标题、上下文与用户消息落库之后，可以开始流式生成的一轮对话。
type PreparedTurn struct {
	ChatID       string
	Title        string // 本轮新生成的标题，未生成时为空
	SystemPrompt string
	Messages     []llm.Message
	Model        string
}

// ChatService 定义了对话编排。Prepare 在开始输出之前完成所有可能失败的前置步骤，
// 调用方据此决定响应状态码与 X-Chat-Title，再调用 Stream。
type ChatService interface {
	Prepare(ctx context.Context, req TurnRequest) (*PreparedTurn, error)
	Stream(ctx context.Context, turn *PreparedTurn, writer llm.MessageWriter) error
}

type chatService struct {
	llmClient llm.Client
	chatRepo  repository.ChatRepository
	titles    TitleService
	resolver  ContextResolver
	cfg       ChatConfig
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(llmClient llm.Client, chatRepo repository.ChatRepository, titles TitleService, resolver ContextResolver, cfg ChatConfig) ChatService {
	return &chatService{
		llmClient: llmClient,
		chatRepo:  chatRepo,
		titles:    titles,
		resolver:  resolver,
		cfg:       cfg,
	}
}

func (s *chatService) Prepare(ctx context.Context, req TurnRequest) (*PreparedTurn, error) {
	// 0. 缺少模型凭证时在任何副作用之前终止
	if err := s.llmClient.Validate(); err != nil {
		metrics.ChatTurns.WithLabelValues("rejected").Inc()
		return nil, err
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("%w: messages must not be empty", apperrors.ErrValidation)
	}

	// 1. 鉴权：会话必须存在且属于调用者
	chat, err := s.chatRepo.FindByIDForOwner(ctx, req.ChatID, req.UserID)
	if err != nil {
		metrics.ChatTurns.WithLabelValues("rejected").Inc()
		return nil, err
	}

	turn := &PreparedTurn{ChatID: chat.ID, Model: req.Model}
	if turn.Model == "" {
		turn.Model = s.cfg.DefaultModel
	}

	// 2. 标题只在为空时生成一次
	if chat.Title == nil {
		turn.Title = s.deriveTitle(ctx, chat.ID, req.Messages)
	}

	// 3. 简历上下文
	rc := ResumeContext{Status: ContextAbsent}
	if req.ResumeID != "" {
		rc = s.resolver.Resolve(ctx, req.UserID, req.ResumeID)
	}
	turn.SystemPrompt = BuildSystemPrompt(s.cfg.SystemPrompt, rc)

	// 4. 非开场轮次的用户消息在生成之前落库；开场消息已在创建会话时写入
	last := req.Messages[len(req.Messages)-1]
	if last.Role == model.RoleUser && len(req.Messages) > 1 {
		if text := last.Text(); strings.TrimSpace(text) != "" {
			if _, err := s.chatRepo.AppendTurn(ctx, chat.ID, model.RoleUser, text); err != nil {
				metrics.ChatTurns.WithLabelValues("failed").Inc()
				return nil, err
			}
		}
	}

	turn.Messages = append([]llm.Message{{Role: string(model.RoleSystem), Content: turn.SystemPrompt}}, toLLMMessages(req.Messages)...)
	return turn, nil
}

// deriveTitle 生成并保存标题。失败只记录日志，标题保持为空，下一轮再试。
func (s *chatService) deriveTitle(ctx context.Context, chatID string, history []model.ChatTurn) string {
	source := ""
	first, err := s.chatRepo.FirstTurn(ctx, chatID)
	switch {
	case err == nil:
		source = first.Content
	case errors.Is(err, apperrors.ErrNotFound):
		source = firstUserText(history)
	default:
		log.Warnw("读取首条消息失败，跳过标题生成", "chatId", chatID, "error", err)
		metrics.TitleDerivations.WithLabelValues("failed").Inc()
		return ""
	}
	if strings.TrimSpace(source) == "" {
		return ""
	}

	raw, err := s.titles.Derive(ctx, source)
	if err != nil {
		log.Warnw("生成会话标题失败", "chatId", chatID, "error", err)
		metrics.TitleDerivations.WithLabelValues("failed").Inc()
		return ""
	}
	title := SanitizeTitle(raw)
	if title == "" {
		log.Warnw("生成的会话标题为空", "chatId", chatID, "raw", raw)
		metrics.TitleDerivations.WithLabelValues("empty").Inc()
		return ""
	}
	if err := s.chatRepo.SetTitle(ctx, chatID, title); err != nil {
		log.Errorw("保存会话标题失败", "chatId", chatID, "error", err)
		metrics.TitleDerivations.WithLabelValues("failed").Inc()
		return ""
	}
	metrics.TitleDerivations.WithLabelValues("set").Inc()
	log.Infow("会话标题已生成", "chatId", chatID, "title", title)
	return title
}

// Stream 流式生成回复。只有完整结束的回复才会作为 assistant 消息落库；
// 调用方断开或写出失败时丢弃已生成的部分。
func (s *chatService) Stream(ctx context.Context, turn *PreparedTurn, writer llm.MessageWriter) error {
	start := time.Now()
	gen := &llm.GenerationParams{Model: turn.Model, MaxTokens: s.cfg.MaxTokens}
	full, err := s.llmClient.StreamChatMessages(ctx, turn.Messages, gen, writer)
	metrics.ChatStreamDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, llm.ErrWriter) {
			metrics.ChatTurns.WithLabelValues("cancelled").Inc()
			log.Infow("客户端中断，丢弃未完成的回复", "chatId", turn.ChatID, "generated", len(full))
			return err
		}
		metrics.ChatTurns.WithLabelValues("failed").Inc()
		return err
	}

	if strings.TrimSpace(full) == "" {
		metrics.ChatTurns.WithLabelValues("completed").Inc()
		log.Warnw("模型返回空回复，不落库", "chatId", turn.ChatID)
		return nil
	}
	// 回复已完整发出，即使请求上下文此时被取消也要落库
	if _, err := s.chatRepo.AppendTurn(context.WithoutCancel(ctx), turn.ChatID, model.RoleAssistant, full); err != nil {
		metrics.ChatTurns.WithLabelValues("failed").Inc()
		return fmt.Errorf("save assistant message: %w", err)
	}
	metrics.ChatTurns.WithLabelValues("completed").Inc()
	return nil
}

func firstUserText(history []model.ChatTurn) string {
	for _, t := range history {
		if t.Role == model.RoleUser {
			if text := t.Text(); strings.TrimSpace(text) != "" {
				return text
			}
		}
	}
	return ""
}

// toLLMMessages 把客户端历史转换为模型消息：text 片段原样传递，图片片段转为 image_url，其余片段忽略。
func toLLMMessages(history []model.ChatTurn) []llm.Message {
	out := make([]llm.Message, 0, len(history))
	for _, t := range history {
		msg := llm.Message{Role: string(t.Role)}
		switch c := t.Content.(type) {
		case model.PlainText:
			msg.Content = string(c)
		case model.Parts:
			for _, p := range c {
				if part, ok := toLLMPart(p); ok {
					msg.Parts = append(msg.Parts, part)
				}
			}
		}
		out = append(out, msg)
	}
	return out
}

func toLLMPart(p model.Part) (llm.ContentPart, bool) {
	switch p.Type {
	case model.PartTypeText:
		return llm.ContentPart{Type: llm.PartText, Text: p.Text}, true
	case "image", "image_url":
		var img struct {
			Image    string          `json:"image"`
			ImageURL json.RawMessage `json:"image_url"`
		}
		if err := json.Unmarshal(p.Raw, &img); err != nil {
			return llm.ContentPart{}, false
		}
		url := img.Image
		if url == "" && len(img.ImageURL) > 0 {
			var nested struct {
				URL string `json:"url"`
			}
			if json.Unmarshal(img.ImageURL, &nested) == nil && nested.URL != "" {
				url = nested.URL
			} else {
				_ = json.Unmarshal(img.ImageURL, &url)
			}
		}
		if url == "" {
			return llm.ContentPart{}, false
		}
		return llm.ContentPart{Type: llm.PartImage, ImageURL: url}, true
	}
	return llm.ContentPart{}, false
}
