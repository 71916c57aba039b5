package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"resume-chat-go/internal/model"
)

// ChatRepository 定义了会话与消息的持久化操作。
// 消息只追加：不提供修改或删除已有消息的方法。
type ChatRepository interface {
	Create(ctx context.Context, chat *model.Chat, opening string) error
	FindByIDForOwner(ctx context.Context, chatID, ownerID string) (*model.Chat, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Chat, error)
	SetTitle(ctx context.Context, chatID, title string) error
	AppendTurn(ctx context.Context, chatID string, role model.Role, content string) (*model.Message, error)
	FirstTurn(ctx context.Context, chatID string) (*model.Message, error)
	ListTurns(ctx context.Context, chatID string) ([]model.Message, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository 创建一个新的 ChatRepository 实例。
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

// Create 在一个事务中创建会话及其开场的用户消息。opening 为空时只创建会话。
func (r *chatRepository) Create(ctx context.Context, chat *model.Chat, opening string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(chat).Error; err != nil {
			return fmt.Errorf("create chat: %w", err)
		}
		if opening == "" {
			return nil
		}
		msg := &model.Message{ChatID: chat.ID, Role: model.RoleUser, Content: opening}
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("create opening message: %w", err)
		}
		return nil
	})
}

// FindByIDForOwner 按 ID 与所有者查找会话，二者任一不匹配都返回 ErrNotFound。
func (r *chatRepository) FindByIDForOwner(ctx context.Context, chatID, ownerID string) (*model.Chat, error) {
	var chat model.Chat
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", chatID, ownerID).First(&chat).Error
	if err != nil {
		return nil, translate(err, "chat %s", chatID)
	}
	return &chat, nil
}

// ListByOwner 返回用户的全部会话，最新的在前。
func (r *chatRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Chat, error) {
	var chats []model.Chat
	err := r.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("created_at desc").Find(&chats).Error
	return chats, err
}

// SetTitle 设置会话标题。并发请求下后写者生效。
func (r *chatRepository) SetTitle(ctx context.Context, chatID, title string) error {
	return r.db.WithContext(ctx).Model(&model.Chat{}).Where("id = ?", chatID).Update("title", title).Error
}

// AppendTurn 追加一条消息。
func (r *chatRepository) AppendTurn(ctx context.Context, chatID string, role model.Role, content string) (*model.Message, error) {
	if !role.Persistable() {
		return nil, fmt.Errorf("role %q cannot be persisted", role)
	}
	msg := &model.Message{ChatID: chatID, Role: role, Content: content}
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, fmt.Errorf("append %s message to chat %s: %w", role, chatID, err)
	}
	return msg, nil
}

// FirstTurn 返回会话中最早的一条消息。
func (r *chatRepository) FirstTurn(ctx context.Context, chatID string) (*model.Message, error) {
	var msg model.Message
	err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).Order("created_at asc, id asc").First(&msg).Error
	if err != nil {
		return nil, translate(err, "first message of chat %s", chatID)
	}
	return &msg, nil
}

// ListTurns 按创建时间升序返回会话中的全部消息，同一时刻按插入顺序。
func (r *chatRepository) ListTurns(ctx context.Context, chatID string) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).Order("created_at asc, id asc").Find(&msgs).Error
	return msgs, err
}
