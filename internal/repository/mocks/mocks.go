// Package mocks 提供 repository 接口的 testify mock 实现。
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"resume-chat-go/internal/model"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockChatRepository 是 repository.ChatRepository 的 mock。
type MockChatRepository struct {
	mock.Mock
}

// NewMockChatRepository 创建 mock 并在测试结束时断言期望。
func NewMockChatRepository(t testingT) *MockChatRepository {
	m := &MockChatRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockChatRepository) Create(ctx context.Context, chat *model.Chat, opening string) error {
	ret := m.Called(ctx, chat, opening)
	return ret.Error(0)
}

func (m *MockChatRepository) FindByIDForOwner(ctx context.Context, chatID, ownerID string) (*model.Chat, error) {
	ret := m.Called(ctx, chatID, ownerID)
	chat, _ := ret.Get(0).(*model.Chat)
	return chat, ret.Error(1)
}

func (m *MockChatRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Chat, error) {
	ret := m.Called(ctx, ownerID)
	chats, _ := ret.Get(0).([]model.Chat)
	return chats, ret.Error(1)
}

func (m *MockChatRepository) SetTitle(ctx context.Context, chatID, title string) error {
	ret := m.Called(ctx, chatID, title)
	return ret.Error(0)
}

func (m *MockChatRepository) AppendTurn(ctx context.Context, chatID string, role model.Role, content string) (*model.Message, error) {
	ret := m.Called(ctx, chatID, role, content)
	msg, _ := ret.Get(0).(*model.Message)
	return msg, ret.Error(1)
}

func (m *MockChatRepository) FirstTurn(ctx context.Context, chatID string) (*model.Message, error) {
	ret := m.Called(ctx, chatID)
	msg, _ := ret.Get(0).(*model.Message)
	return msg, ret.Error(1)
}

func (m *MockChatRepository) ListTurns(ctx context.Context, chatID string) ([]model.Message, error) {
	ret := m.Called(ctx, chatID)
	msgs, _ := ret.Get(0).([]model.Message)
	return msgs, ret.Error(1)
}

// MockResumeRepository 是 repository.ResumeRepository 的 mock。
type MockResumeRepository struct {
	mock.Mock
}

// NewMockResumeRepository 创建 mock 并在测试结束时断言期望。
func NewMockResumeRepository(t testingT) *MockResumeRepository {
	m := &MockResumeRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockResumeRepository) Upsert(ctx context.Context, resume *model.Resume) error {
	ret := m.Called(ctx, resume)
	return ret.Error(0)
}

func (m *MockResumeRepository) FindByIDForOwner(ctx context.Context, resumeID, ownerID string) (*model.Resume, error) {
	ret := m.Called(ctx, resumeID, ownerID)
	resume, _ := ret.Get(0).(*model.Resume)
	return resume, ret.Error(1)
}

func (m *MockResumeRepository) FindByStorageKey(ctx context.Context, key string) (*model.Resume, error) {
	ret := m.Called(ctx, key)
	resume, _ := ret.Get(0).(*model.Resume)
	return resume, ret.Error(1)
}

func (m *MockResumeRepository) SetParsedContent(ctx context.Context, resumeID, content string) error {
	ret := m.Called(ctx, resumeID, content)
	return ret.Error(0)
}

func (m *MockResumeRepository) DeleteByStorageKey(ctx context.Context, key string) error {
	ret := m.Called(ctx, key)
	return ret.Error(0)
}

// MockUserRepository 是 repository.UserRepository 的 mock。
type MockUserRepository struct {
	mock.Mock
}

// NewMockUserRepository 创建 mock 并在测试结束时断言期望。
func NewMockUserRepository(t testingT) *MockUserRepository {
	m := &MockUserRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUserRepository) FindByID(ctx context.Context, userID string) (*model.User, error) {
	ret := m.Called(ctx, userID)
	user, _ := ret.Get(0).(*model.User)
	return user, ret.Error(1)
}

// MockTextCache 是 repository.TextCache 的 mock。
type MockTextCache struct {
	mock.Mock
}

// NewMockTextCache 创建 mock 并在测试结束时断言期望。
func NewMockTextCache(t testingT) *MockTextCache {
	m := &MockTextCache{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTextCache) Get(ctx context.Context, ownerID, resumeID string) (string, bool, error) {
	ret := m.Called(ctx, ownerID, resumeID)
	return ret.String(0), ret.Bool(1), ret.Error(2)
}

func (m *MockTextCache) Set(ctx context.Context, ownerID, resumeID, text string) error {
	ret := m.Called(ctx, ownerID, resumeID, text)
	return ret.Error(0)
}

func (m *MockTextCache) Invalidate(ctx context.Context, ownerID, resumeID string) error {
	ret := m.Called(ctx, ownerID, resumeID)
	return ret.Error(0)
}
