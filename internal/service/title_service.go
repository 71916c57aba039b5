package service

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"resume-chat-go/pkg/llm"
)

// MaxTitleRunes 是会话标题的最大长度（按字符计）。
const MaxTitleRunes = 30

const titleInstruction = `Generate a short title for a conversation that starts with the user's message below.
- Reply with the title only, on a single line.
- At most 30 characters.
- No quotes, colons or other punctuation.
- Plain text, no markdown.`

// TitleService 根据首条用户消息生成会话标题。返回的是模型原始输出，清洗由调用方完成。
type TitleService interface {
	Derive(ctx context.Context, firstTurn string) (string, error)
}

type titleService struct {
	llmClient llm.Client
	model     string
}

// NewTitleService 创建一个新的 TitleService 实例。
func NewTitleService(llmClient llm.Client, model string) TitleService {
	return &titleService{llmClient: llmClient, model: model}
}

// Derive 非流式调用一次模型。失败时返回 ErrUpstream。
func (s *titleService) Derive(ctx context.Context, firstTurn string) (string, error) {
	messages := []llm.Message{
		{Role: "system", Content: titleInstruction},
		{Role: "user", Content: firstTurn},
	}
	return s.llmClient.ChatMessages(ctx, messages, &llm.GenerationParams{Model: s.model, MaxTokens: 64})
}

// SanitizeTitle 取第一行，剔除所有标点、符号与控制字符，合并空白并截断到 MaxTitleRunes。
// 连字符类标点替换为空格，避免把两个词粘在一起。
func SanitizeTitle(raw string) string {
	line := strings.TrimSpace(raw)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	line = strings.Map(titleRune, line)
	line = strings.Join(strings.Fields(line), " ")
	if utf8.RuneCountInString(line) > MaxTitleRunes {
		line = strings.TrimSpace(string([]rune(line)[:MaxTitleRunes]))
	}
	return line
}

func titleRune(r rune) rune {
	switch {
	case unicode.IsSpace(r), unicode.Is(unicode.Pd, r):
		return ' '
	case unicode.IsPunct(r), unicode.IsSymbol(r), unicode.IsControl(r):
		return -1
	}
	return r
}
