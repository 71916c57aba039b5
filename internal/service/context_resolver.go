package service

import (
	"context"
	"errors"
	"strings"

	apperrors "resume-chat-go/internal/errors"
	"resume-chat-go/internal/repository"
	"resume-chat-go/pkg/log"
	"resume-chat-go/pkg/metrics"
)

// ContextStatus 是简历上下文解析的结果。
type ContextStatus int

const (
	// ContextAbsent 表示请求没有引用简历。
	ContextAbsent ContextStatus = iota
	// ContextPresent 表示取到了简历文本。
	ContextPresent
	// ContextUnavailable 表示引用了简历但无法取得文本。
	ContextUnavailable
)

// ResumeContext 是解析出的简历上下文。
type ResumeContext struct {
	Status ContextStatus
	Text   string
}

const (
	resumeBlockStart = "<resume>"
	resumeBlockEnd   = "</resume>"

	resumePreamble    = "The user has shared their resume. Its full text is enclosed in the resume tags below. Use it to answer their questions."
	resumeUnavailable = "The user referenced a resume, but it could not be loaded. If they ask about it, tell them it is unavailable and suggest uploading it again."
)

// ContextResolver 为一轮对话解析可选的简历上下文。缺失或不可用是正常结果，不返回错误。
type ContextResolver interface {
	Resolve(ctx context.Context, ownerID, resumeID string) ResumeContext
}

type contextResolver struct {
	resumeRepo repository.ResumeRepository
	textCache  repository.TextCache
	documents  DocumentService
}

// NewContextResolver 创建一个新的 ContextResolver 实例。
func NewContextResolver(resumeRepo repository.ResumeRepository, textCache repository.TextCache, documents DocumentService) ContextResolver {
	return &contextResolver{
		resumeRepo: resumeRepo,
		textCache:  textCache,
		documents:  documents,
	}
}

// Resolve 依次查缓存、数据库中的解析结果、对象存储。只解析属于 ownerID 的简历。
func (r *contextResolver) Resolve(ctx context.Context, ownerID, resumeID string) ResumeContext {
	if strings.TrimSpace(resumeID) == "" {
		return ResumeContext{Status: ContextAbsent}
	}

	if text, ok, err := r.textCache.Get(ctx, ownerID, resumeID); err != nil {
		log.Warnw("读取简历文本缓存失败", "resumeId", resumeID, "error", err)
	} else if ok && text != "" {
		return present(text, "cache")
	}

	resume, err := r.resumeRepo.FindByIDForOwner(ctx, resumeID, ownerID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Errorw("查询简历失败", "resumeId", resumeID, "error", err)
		}
		return unavailable()
	}

	if resume.ParsedContent != nil && strings.TrimSpace(*resume.ParsedContent) != "" {
		r.cache(ctx, ownerID, resumeID, *resume.ParsedContent)
		return present(*resume.ParsedContent, "db")
	}

	// 异步解析尚未完成，直接从对象存储读取
	text, err := r.documents.Read(ctx, ownerID, resume.StorageKey)
	if err != nil {
		log.Warnw("读取简历文本失败", "resumeId", resumeID, "key", resume.StorageKey, "error", err)
		return unavailable()
	}
	if strings.TrimSpace(text) == "" {
		return unavailable()
	}
	if err := r.resumeRepo.SetParsedContent(ctx, resumeID, text); err != nil {
		log.Warnw("保存简历解析结果失败", "resumeId", resumeID, "error", err)
	}
	r.cache(ctx, ownerID, resumeID, text)
	return present(text, "store")
}

func (r *contextResolver) cache(ctx context.Context, ownerID, resumeID, text string) {
	if err := r.textCache.Set(ctx, ownerID, resumeID, text); err != nil {
		log.Warnw("写入简历文本缓存失败", "resumeId", resumeID, "error", err)
	}
}

func present(text, source string) ResumeContext {
	metrics.ContextResolutions.WithLabelValues("present", source).Inc()
	return ResumeContext{Status: ContextPresent, Text: text}
}

func unavailable() ResumeContext {
	metrics.ContextResolutions.WithLabelValues("unavailable", "none").Inc()
	return ResumeContext{Status: ContextUnavailable}
}

// BuildSystemPrompt 把简历上下文拼接到基础提示词之后。
func BuildSystemPrompt(base string, rc ResumeContext) string {
	var sb strings.Builder
	sb.WriteString(base)
	switch rc.Status {
	case ContextPresent:
		sb.WriteString("\n\n")
		sb.WriteString(resumePreamble)
		sb.WriteString("\n")
		sb.WriteString(resumeBlockStart)
		sb.WriteString("\n")
		sb.WriteString(rc.Text)
		sb.WriteString("\n")
		sb.WriteString(resumeBlockEnd)
	case ContextUnavailable:
		sb.WriteString("\n\n")
		sb.WriteString(resumeUnavailable)
	}
	return sb.String()
}
