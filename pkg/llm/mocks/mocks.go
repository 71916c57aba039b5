// Package mocks 提供 llm.Client 的 testify mock 实现。
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"resume-chat-go/pkg/llm"
)

// MockClient 是 llm.Client 的 mock。StreamChatMessages 会把 Chunks 依次写入 writer。
type MockClient struct {
	mock.Mock
}

// NewMockClient 创建 mock 并在测试结束时断言期望。
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockClient) Validate() error {
	ret := m.Called()
	return ret.Error(0)
}

func (m *MockClient) ChatMessages(ctx context.Context, messages []llm.Message, gen *llm.GenerationParams) (string, error) {
	ret := m.Called(ctx, messages, gen)
	return ret.String(0), ret.Error(1)
}

// StreamChatMessages 的返回值约定为 (chunks []string, err error)：
// 先把 chunks 写入 writer，写入失败时返回 llm.ErrWriter，否则返回拼接结果与 err。
func (m *MockClient) StreamChatMessages(ctx context.Context, messages []llm.Message, gen *llm.GenerationParams, writer llm.MessageWriter) (string, error) {
	ret := m.Called(ctx, messages, gen, writer)
	chunks, _ := ret.Get(0).([]string)
	full := ""
	for _, c := range chunks {
		if ctx.Err() != nil {
			return full, ctx.Err()
		}
		if err := writer.WriteChunk(c); err != nil {
			return full, llm.ErrWriter
		}
		full += c
	}
	return full, ret.Error(1)
}
