package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "resume-chat-go/internal/errors"
	"resume-chat-go/internal/model"
)

// ResumeRepository 定义了简历记录的持久化操作。
type ResumeRepository interface {
	Upsert(ctx context.Context, resume *model.Resume) error
	FindByIDForOwner(ctx context.Context, resumeID, ownerID string) (*model.Resume, error)
	FindByStorageKey(ctx context.Context, key string) (*model.Resume, error)
	SetParsedContent(ctx context.Context, resumeID, content string) error
	DeleteByStorageKey(ctx context.Context, key string) error
}

type resumeRepository struct {
	db *gorm.DB
}

// NewResumeRepository 创建一个新的 ResumeRepository 实例。
func NewResumeRepository(db *gorm.DB) ResumeRepository {
	return &resumeRepository{db: db}
}

// Upsert 以存储 key 为唯一键写入记录。同名文件重新上传时沿用原 ID，并清空旧的解析结果。
func (r *resumeRepository) Upsert(ctx context.Context, resume *model.Resume) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Resume
		err := tx.Where("storage_key = ?", resume.StorageKey).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(resume).Error
		}
		if err != nil {
			return fmt.Errorf("lookup resume %s: %w", resume.StorageKey, err)
		}
		resume.ID = existing.ID
		resume.CreatedAt = existing.CreatedAt
		return tx.Model(&existing).Updates(map[string]interface{}{
			"user_id":        resume.UserID,
			"file_name":      resume.FileName,
			"content_type":   resume.ContentType,
			"file_size":      resume.FileSize,
			"parsed_content": nil,
		}).Error
	})
}

// FindByIDForOwner 按 ID 与所有者查找简历。
func (r *resumeRepository) FindByIDForOwner(ctx context.Context, resumeID, ownerID string) (*model.Resume, error) {
	var resume model.Resume
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", resumeID, ownerID).First(&resume).Error
	if err != nil {
		return nil, translate(err, "resume %s", resumeID)
	}
	return &resume, nil
}

// FindByStorageKey 按存储 key 查找简历。
func (r *resumeRepository) FindByStorageKey(ctx context.Context, key string) (*model.Resume, error) {
	var resume model.Resume
	err := r.db.WithContext(ctx).Where("storage_key = ?", key).First(&resume).Error
	if err != nil {
		return nil, translate(err, "resume %s", key)
	}
	return &resume, nil
}

// SetParsedContent 保存提取出的简历文本。
func (r *resumeRepository) SetParsedContent(ctx context.Context, resumeID, content string) error {
	res := r.db.WithContext(ctx).Model(&model.Resume{}).Where("id = ?", resumeID).Update("parsed_content", content)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: resume %s", apperrors.ErrNotFound, resumeID)
	}
	return nil
}

// DeleteByStorageKey 删除存储 key 对应的记录，记录不存在时不报错。
func (r *resumeRepository) DeleteByStorageKey(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("storage_key = ?", key).Delete(&model.Resume{}).Error
}
