// Package pipeline 定义了简历异步解析的处理流程。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "resume-chat-go/internal/errors"
	"resume-chat-go/internal/repository"
	"resume-chat-go/internal/service"
	"resume-chat-go/pkg/log"
	"resume-chat-go/pkg/tasks"
)

// ErrEmptyText 表示文档中没有可提取的文本。
var ErrEmptyText = errors.New("文档中没有可提取的文本")

// Processor 封装了简历解析的所有依赖和逻辑，实现 kafka.TaskProcessor。
type Processor struct {
	documents  service.DocumentService
	resumeRepo repository.ResumeRepository
	textCache  repository.TextCache
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(documents service.DocumentService, resumeRepo repository.ResumeRepository, textCache repository.TextCache) *Processor {
	return &Processor{
		documents:  documents,
		resumeRepo: resumeRepo,
		textCache:  textCache,
	}
}

// Process 下载对象、提取文本并写回简历记录。对象或记录已被删除时视为成功，不再重试。
func (p *Processor) Process(ctx context.Context, task tasks.DocumentParseTask) error {
	log.Infof("[Processor] 开始解析简历, ResumeID: %s, Key: %s", task.ResumeID, task.StorageKey)

	// 1. 读取并提取文本，Read 会校验对象的 userid 元数据
	text, err := p.documents.Read(ctx, task.UserID, task.StorageKey)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrForbidden) {
			log.Warnf("[Processor] 简历对象不存在或归属不符, 跳过, Key: %s, Error: %v", task.StorageKey, err)
			return nil
		}
		return fmt.Errorf("提取简历文本失败: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	log.Infof("[Processor] 步骤1: 文本提取成功, 字符数: %d", utf8.RuneCountInString(text))

	// 2. 写回数据库
	if err := p.resumeRepo.SetParsedContent(ctx, task.ResumeID, text); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Warnf("[Processor] 简历记录已删除, 跳过, ResumeID: %s", task.ResumeID)
			return nil
		}
		return fmt.Errorf("保存解析结果失败: %w", err)
	}

	// 3. 预热缓存，失败不影响结果
	if err := p.textCache.Set(ctx, task.UserID, task.ResumeID, text); err != nil {
		log.Warnf("[Processor] 写入文本缓存失败, ResumeID: %s, Error: %v", task.ResumeID, err)
	}

	log.Infof("[Processor] 简历解析完成, ResumeID: %s", task.ResumeID)
	return nil
}
