// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	apperrors "resume-chat-go/internal/errors"
	"resume-chat-go/internal/model"
	"resume-chat-go/internal/repository"
	"resume-chat-go/pkg/extract"
	"resume-chat-go/pkg/log"
	"resume-chat-go/pkg/metrics"
	"resume-chat-go/pkg/storage"
	"resume-chat-go/pkg/tasks"
	"resume-chat-go/pkg/tika"
)

// 对象元数据的 key，写入时由 MinIO 加上 x-amz-meta- 前缀。
const (
	MetaUserID   = "userid"
	MetaResumeID = "resumeid"
)

// UploadConstraints 约束上传的简历。
type UploadConstraints struct {
	MaxSizeBytes int64
	AllowedTypes []string
	Prefix       string
}

// ParseTaskPublisher 发送异步解析任务，由 Kafka 生产者实现。
type ParseTaskPublisher interface {
	PublishParseTask(ctx context.Context, task tasks.DocumentParseTask) error
}

// DocumentService 接口定义了简历文档的存取操作。归属以对象元数据为准。
type DocumentService interface {
	Upload(ctx context.Context, ownerID string, files []*multipart.FileHeader) (*model.DocumentRef, error)
	List(ctx context.Context, ownerID string) ([]model.DocumentRef, error)
	Delete(ctx context.Context, ownerID, key string) error
	Head(ctx context.Context, key string) (*model.DocumentRef, error)
	Read(ctx context.Context, ownerID, key string) (string, error)
}

type documentService struct {
	store       storage.ObjectStore
	resumeRepo  repository.ResumeRepository
	textCache   repository.TextCache
	extractor   extract.Extractor
	publisher   ParseTaskPublisher
	constraints UploadConstraints
}

// NewDocumentService 创建一个新的 DocumentService 实例。publisher 可以为 nil，此时简历文本在首次引用时提取。
func NewDocumentService(store storage.ObjectStore, resumeRepo repository.ResumeRepository, textCache repository.TextCache, extractor extract.Extractor, publisher ParseTaskPublisher, constraints UploadConstraints) DocumentService {
	return &documentService{
		store:       store,
		resumeRepo:  resumeRepo,
		textCache:   textCache,
		extractor:   extractor,
		publisher:   publisher,
		constraints: constraints,
	}
}

func (s *documentService) namespace(ownerID string) string {
	return path.Join(s.constraints.Prefix, ownerID) + "/"
}

// Upload 校验全部文件后再逐个写入，返回第一个文件的描述。
func (s *documentService) Upload(ctx context.Context, ownerID string, files []*multipart.FileHeader) (*model.DocumentRef, error) {
	if len(files) == 0 {
		metrics.DocumentOps.WithLabelValues("upload", "no_file").Inc()
		return nil, apperrors.ErrNoFile
	}

	types := make([]string, len(files))
	for i, fh := range files {
		contentType, err := s.validate(fh)
		if err != nil {
			metrics.DocumentOps.WithLabelValues("upload", "rejected").Inc()
			return nil, err
		}
		types[i] = contentType
	}

	var first *model.DocumentRef
	for i, fh := range files {
		ref, err := s.storeFile(ctx, ownerID, fh, types[i])
		if err != nil {
			metrics.DocumentOps.WithLabelValues("upload", "failed").Inc()
			return nil, err
		}
		metrics.DocumentOps.WithLabelValues("upload", "stored").Inc()
		if first == nil {
			first = ref
		}
	}
	return first, nil
}

func (s *documentService) validate(fh *multipart.FileHeader) (string, error) {
	if fh == nil || fh.Size == 0 {
		return "", apperrors.ErrNoFile
	}
	if s.constraints.MaxSizeBytes > 0 && fh.Size > s.constraints.MaxSizeBytes {
		return "", fmt.Errorf("%w: file %s is %d bytes, the limit is %d bytes", apperrors.ErrValidation, fh.Filename, fh.Size, s.constraints.MaxSizeBytes)
	}
	contentType := declaredType(fh)
	for _, allowed := range s.constraints.AllowedTypes {
		if contentType == allowed {
			return contentType, nil
		}
	}
	return "", fmt.Errorf("%w: file type %s is not allowed", apperrors.ErrValidation, contentType)
}

// declaredType 优先使用表单声明的类型，缺失或为通用二进制时按后缀推断。
func declaredType(fh *multipart.FileHeader) string {
	raw := fh.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(raw); err == nil && mediaType != "application/octet-stream" {
		return mediaType
	}
	return tika.DetectMimeType(fh.Filename)
}

func (s *documentService) storeFile(ctx context.Context, ownerID string, fh *multipart.FileHeader, contentType string) (*model.DocumentRef, error) {
	fileName := filepath.Base(fh.Filename)
	key := s.namespace(ownerID) + fileName

	// 同名文件覆盖时沿用原记录 ID
	resumeID := uuid.NewString()
	existing, err := s.resumeRepo.FindByStorageKey(ctx, key)
	switch {
	case err == nil:
		resumeID = existing.ID
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, err
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	obj, err := s.store.Put(ctx, key, f, fh.Size, contentType, map[string]string{
		MetaUserID:   ownerID,
		MetaResumeID: resumeID,
	})
	if err != nil {
		return nil, err
	}

	resume := &model.Resume{
		ID:          resumeID,
		UserID:      ownerID,
		FileName:    fileName,
		StorageKey:  key,
		ContentType: contentType,
		FileSize:    obj.Size,
	}
	if err := s.resumeRepo.Upsert(ctx, resume); err != nil {
		return nil, fmt.Errorf("save resume record: %w", err)
	}
	if existing != nil {
		if err := s.textCache.Invalidate(ctx, ownerID, resume.ID); err != nil {
			log.Warnw("清理简历文本缓存失败", "resumeId", resume.ID, "error", err)
		}
	}

	if s.publisher != nil {
		task := tasks.DocumentParseTask{
			ResumeID:    resume.ID,
			UserID:      ownerID,
			StorageKey:  key,
			FileName:    fileName,
			ContentType: contentType,
		}
		if err := s.publisher.PublishParseTask(ctx, task); err != nil {
			// 解析任务丢失不影响上传，首次引用时会再提取
			log.Warnw("发送简历解析任务失败", "resumeId", resume.ID, "error", err)
		}
	}

	log.Infow("简历上传成功", "userId", ownerID, "key", key, "size", obj.Size)
	ref := toDocumentRef(obj)
	ref.ID = resume.ID
	return &ref, nil
}

// List 返回调用者命名空间下的文档，最新的在前。
func (s *documentService) List(ctx context.Context, ownerID string) ([]model.DocumentRef, error) {
	objects, err := s.store.List(ctx, s.namespace(ownerID))
	if err != nil {
		return nil, err
	}
	refs := make([]model.DocumentRef, 0, len(objects))
	for _, obj := range objects {
		refs = append(refs, toDocumentRef(obj))
	}
	return refs, nil
}

// Delete 先按元数据校验归属再删除对象与记录。
func (s *documentService) Delete(ctx context.Context, ownerID, key string) error {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return fmt.Errorf("%w: pathname is required", apperrors.ErrValidation)
	}
	obj, err := s.store.Head(ctx, key)
	if err != nil {
		metrics.DocumentOps.WithLabelValues("delete", "not_found").Inc()
		return err
	}
	if obj.Metadata[MetaUserID] != ownerID {
		metrics.DocumentOps.WithLabelValues("delete", "forbidden").Inc()
		log.Warnw("拒绝删除他人的简历", "userId", ownerID, "key", key)
		return fmt.Errorf("%w: %s", apperrors.ErrForbidden, key)
	}
	if err := s.store.Delete(ctx, key); err != nil {
		metrics.DocumentOps.WithLabelValues("delete", "failed").Inc()
		return err
	}

	if err := s.resumeRepo.DeleteByStorageKey(ctx, key); err != nil {
		log.Errorw("删除简历记录失败", "key", key, "error", err)
	}
	if resumeID := obj.Metadata[MetaResumeID]; resumeID != "" {
		if err := s.textCache.Invalidate(ctx, ownerID, resumeID); err != nil {
			log.Warnw("清理简历文本缓存失败", "resumeId", resumeID, "error", err)
		}
	}
	metrics.DocumentOps.WithLabelValues("delete", "deleted").Inc()
	log.Infow("简历已删除", "userId", ownerID, "key", key)
	return nil
}

// Head 返回对象的描述，不做归属校验。
func (s *documentService) Head(ctx context.Context, key string) (*model.DocumentRef, error) {
	obj, err := s.store.Head(ctx, key)
	if err != nil {
		return nil, err
	}
	ref := toDocumentRef(obj)
	return &ref, nil
}

// Read 校验归属后下载对象并提取纯文本。
func (s *documentService) Read(ctx context.Context, ownerID, key string) (string, error) {
	obj, err := s.store.Head(ctx, key)
	if err != nil {
		return "", err
	}
	if obj.Metadata[MetaUserID] != ownerID {
		return "", fmt.Errorf("%w: %s", apperrors.ErrForbidden, key)
	}
	rc, err := s.store.Open(ctx, key)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	text, err := s.extractor.Extract(ctx, rc, path.Base(key), obj.ContentType)
	if err != nil {
		return "", fmt.Errorf("%w: extract %s: %v", apperrors.ErrUpstream, key, err)
	}
	return text, nil
}

func toDocumentRef(obj storage.Object) model.DocumentRef {
	return model.DocumentRef{
		ID:             obj.Metadata[MetaResumeID],
		Pathname:       obj.Key,
		ContentType:    obj.ContentType,
		Size:           obj.Size,
		UploadedAt:     obj.UploadedAt,
		CustomMetadata: obj.Metadata,
	}
}
