package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"resume-chat-go/internal/model"
	"resume-chat-go/internal/repository"
	"resume-chat-go/pkg/log"
)

// ConversationService 管理会话本身：创建、列表、查看历史。标题与消息追加由 ChatService 负责。
type ConversationService interface {
	Create(ctx context.Context, ownerID, opening string) (*model.Chat, error)
	List(ctx context.Context, ownerID string) ([]model.Chat, error)
	Get(ctx context.Context, ownerID, chatID string) (*model.ChatWithMessages, error)
}

type conversationService struct {
	chatRepo repository.ChatRepository
}

// NewConversationService 创建一个新的 ConversationService 实例。
func NewConversationService(chatRepo repository.ChatRepository) ConversationService {
	return &conversationService{chatRepo: chatRepo}
}

// Create 创建会话，opening 非空时一并写入开场的用户消息。
func (s *conversationService) Create(ctx context.Context, ownerID, opening string) (*model.Chat, error) {
	chat := &model.Chat{ID: uuid.NewString(), UserID: ownerID}
	if err := s.chatRepo.Create(ctx, chat, strings.TrimSpace(opening)); err != nil {
		return nil, err
	}
	log.Infow("会话已创建", "chatId", chat.ID, "userId", ownerID)
	return chat, nil
}

func (s *conversationService) List(ctx context.Context, ownerID string) ([]model.Chat, error) {
	chats, err := s.chatRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if chats == nil {
		chats = []model.Chat{}
	}
	return chats, nil
}

// Get 返回会话及其按时间排序的全部消息。会话不属于调用者时返回 ErrNotFound。
func (s *conversationService) Get(ctx context.Context, ownerID, chatID string) (*model.ChatWithMessages, error) {
	chat, err := s.chatRepo.FindByIDForOwner(ctx, chatID, ownerID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.chatRepo.ListTurns(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return &model.ChatWithMessages{Chat: *chat, Messages: msgs}, nil
}
