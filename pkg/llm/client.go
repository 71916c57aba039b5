// Package llm provides a client for interacting with Large Language Models.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"

	"resume-chat-go/internal/config"
	apperrors "resume-chat-go/internal/errors"
)

// MessageWriter 接收流式输出的每个分块。HTTP 与 WebSocket 两种传输各自实现它。
type MessageWriter interface {
	WriteChunk(content string) error
}

// Client defines the interface for an LLM client.
type Client interface {
	// Validate 在任何副作用之前检查必要配置（如 API Key）。
	Validate() error
	// ChatMessages 以非流式方式调用聊天接口，返回完整回复。
	ChatMessages(ctx context.Context, messages []Message, gen *GenerationParams) (string, error)
	// StreamChatMessages 以 role-based 消息与可选生成参数调用聊天接口，将流式分块写入 writer，并返回拼接后的完整回复。
	StreamChatMessages(ctx context.Context, messages []Message, gen *GenerationParams, writer MessageWriter) (string, error)
}

// Message 表示一条角色消息。Parts 非空时以多段内容发送，否则使用 Content。
type Message struct {
	Role    string
	Content string
	Parts   []ContentPart
}

// ContentPart 是多段消息中的一段，目前支持 text 与 image_url。
type ContentPart struct {
	Type     string
	Text     string
	ImageURL string
}

const (
	PartText  = "text"
	PartImage = "image_url"
)

// GenerationParams 控制生成行为，零值字段使用配置默认值。
type GenerationParams struct {
	Model       string
	Temperature *float32
	MaxTokens   int
}

// ErrWriter 表示向调用方写出分块失败，通常是连接已断开。
var ErrWriter = errors.New("stream writer failed")

type openaiClient struct {
	cfg    config.LLMConfig
	client *openai.Client
}

// NewClient 基于 OpenAI 兼容协议创建客户端，BaseURL 可指向任意兼容网关（如 Gemini 的 OpenAI 端点）。
func NewClient(cfg config.LLMConfig) Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &openaiClient{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientCfg),
	}
}

func (c *openaiClient) Validate() error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return fmt.Errorf("%w: llm api key is not set", apperrors.ErrConfiguration)
	}
	return nil
}

func (c *openaiClient) ChatMessages(ctx context.Context, messages []Message, gen *GenerationParams) (string, error) {
	req := c.buildRequest(messages, gen)
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %v", apperrors.ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: chat completion returned no choices", apperrors.ErrUpstream)
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *openaiClient) StreamChatMessages(ctx context.Context, messages []Message, gen *GenerationParams, writer MessageWriter) (string, error) {
	req := c.buildRequest(messages, gen)
	req.Stream = true

	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: open chat stream: %v", apperrors.ErrUpstream, err)
	}
	defer stream.Close()

	var full strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return full.String(), ctx.Err()
			}
			return full.String(), fmt.Errorf("%w: read chat stream: %v", apperrors.ErrUpstream, err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		content := chunk.Choices[0].Delta.Content
		if content == "" {
			continue
		}
		if err := writer.WriteChunk(content); err != nil {
			return full.String(), fmt.Errorf("%w: %v", ErrWriter, err)
		}
		full.WriteString(content)
	}
	return full.String(), nil
}

func (c *openaiClient) buildRequest(messages []Message, gen *GenerationParams) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:     c.cfg.Model,
		Messages:  toOpenAIMessages(messages),
		MaxTokens: c.cfg.MaxTokens,
	}
	// 传参优先生效
	if gen != nil {
		if gen.Model != "" {
			req.Model = gen.Model
		}
		if gen.MaxTokens > 0 {
			req.MaxTokens = gen.MaxTokens
		}
		if gen.Temperature != nil {
			req.Temperature = *gen.Temperature
		}
	}
	if req.Model == "" {
		req.Model = config.DefaultModel
	}
	return req
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msg := openai.ChatCompletionMessage{Role: m.Role}
		if len(m.Parts) == 0 {
			msg.Content = m.Content
			out = append(out, msg)
			continue
		}
		for _, p := range m.Parts {
			switch p.Type {
			case PartText:
				msg.MultiContent = append(msg.MultiContent, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeText,
					Text: p.Text,
				})
			case PartImage:
				msg.MultiContent = append(msg.MultiContent, openai.ChatMessagePart{
					Type:     openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{URL: p.ImageURL},
				})
			}
		}
		if len(msg.MultiContent) == 0 {
			// 全部是不支持的片段时退化为空文本，避免请求被拒绝
			msg.Content = ""
		}
		out = append(out, msg)
	}
	return out
}
