// Package mocks 提供 service 接口的 testify mock 实现。
package mocks

import (
	"context"
	"mime/multipart"

	"github.com/stretchr/testify/mock"

	"resume-chat-go/internal/model"
	"resume-chat-go/internal/service"
	"resume-chat-go/pkg/llm"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

func register(t testingT, m *mock.Mock) {
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
}

// MockTitleService 是 service.TitleService 的 mock。
type MockTitleService struct{ mock.Mock }

func NewMockTitleService(t testingT) *MockTitleService {
	m := &MockTitleService{}
	register(t, &m.Mock)
	return m
}

func (m *MockTitleService) Derive(ctx context.Context, firstTurn string) (string, error) {
	ret := m.Called(ctx, firstTurn)
	return ret.String(0), ret.Error(1)
}

// MockContextResolver 是 service.ContextResolver 的 mock。
type MockContextResolver struct{ mock.Mock }

func NewMockContextResolver(t testingT) *MockContextResolver {
	m := &MockContextResolver{}
	register(t, &m.Mock)
	return m
}

func (m *MockContextResolver) Resolve(ctx context.Context, ownerID, resumeID string) service.ResumeContext {
	ret := m.Called(ctx, ownerID, resumeID)
	return ret.Get(0).(service.ResumeContext)
}

// MockDocumentService 是 service.DocumentService 的 mock。
type MockDocumentService struct{ mock.Mock }

func NewMockDocumentService(t testingT) *MockDocumentService {
	m := &MockDocumentService{}
	register(t, &m.Mock)
	return m
}

func (m *MockDocumentService) Upload(ctx context.Context, ownerID string, files []*multipart.FileHeader) (*model.DocumentRef, error) {
	ret := m.Called(ctx, ownerID, files)
	ref, _ := ret.Get(0).(*model.DocumentRef)
	return ref, ret.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, ownerID string) ([]model.DocumentRef, error) {
	ret := m.Called(ctx, ownerID)
	refs, _ := ret.Get(0).([]model.DocumentRef)
	return refs, ret.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, ownerID, key string) error {
	ret := m.Called(ctx, ownerID, key)
	return ret.Error(0)
}

func (m *MockDocumentService) Head(ctx context.Context, key string) (*model.DocumentRef, error) {
	ret := m.Called(ctx, key)
	ref, _ := ret.Get(0).(*model.DocumentRef)
	return ref, ret.Error(1)
}

func (m *MockDocumentService) Read(ctx context.Context, ownerID, key string) (string, error) {
	ret := m.Called(ctx, ownerID, key)
	return ret.String(0), ret.Error(1)
}

// MockChatService 是 service.ChatService 的 mock。Stream 会把返回的 chunks 写入 writer。
type MockChatService struct{ mock.Mock }

func NewMockChatService(t testingT) *MockChatService {
	m := &MockChatService{}
	register(t, &m.Mock)
	return m
}

func (m *MockChatService) Prepare(ctx context.Context, req service.TurnRequest) (*service.PreparedTurn, error) {
	ret := m.Called(ctx, req)
	turn, _ := ret.Get(0).(*service.PreparedTurn)
	return turn, ret.Error(1)
}

// Stream 的返回值约定为 (chunks []string, err error)。
func (m *MockChatService) Stream(ctx context.Context, turn *service.PreparedTurn, writer llm.MessageWriter) error {
	ret := m.Called(ctx, turn, writer)
	chunks, _ := ret.Get(0).([]string)
	for _, c := range chunks {
		if err := writer.WriteChunk(c); err != nil {
			return err
		}
	}
	return ret.Error(1)
}

// MockConversationService 是 service.ConversationService 的 mock。
type MockConversationService struct{ mock.Mock }

func NewMockConversationService(t testingT) *MockConversationService {
	m := &MockConversationService{}
	register(t, &m.Mock)
	return m
}

func (m *MockConversationService) Create(ctx context.Context, ownerID, opening string) (*model.Chat, error) {
	ret := m.Called(ctx, ownerID, opening)
	chat, _ := ret.Get(0).(*model.Chat)
	return chat, ret.Error(1)
}

func (m *MockConversationService) List(ctx context.Context, ownerID string) ([]model.Chat, error) {
	ret := m.Called(ctx, ownerID)
	chats, _ := ret.Get(0).([]model.Chat)
	return chats, ret.Error(1)
}

func (m *MockConversationService) Get(ctx context.Context, ownerID, chatID string) (*model.ChatWithMessages, error) {
	ret := m.Called(ctx, ownerID, chatID)
	chat, _ := ret.Get(0).(*model.ChatWithMessages)
	return chat, ret.Error(1)
}
