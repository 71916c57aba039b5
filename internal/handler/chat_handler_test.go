package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apperrors "resume-chat-go/internal/errors"
	"resume-chat-go/internal/handler"
	"resume-chat-go/internal/model"
	"resume-chat-go/internal/service"
	mock_service "resume-chat-go/internal/service/mocks"
)

func newChatRouter(t *testing.T) (*gin.Engine, *mock_service.MockChatService) {
	chats := mock_service.NewMockChatService(t)
	r := gin.New()
	r.POST("/api/chats/:id", asUser("u1"), handler.NewChatHandler(chats).Submit)
	return r, chats
}

func postTurn(r *gin.Engine, chatID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/chats/"+chatID, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestSubmit_StreamsReplyWithTitle(t *testing.T) {
	r, chats := newChatRouter(t)
	turn := &service.PreparedTurn{ChatID: "c1", Title: "Resume review request"}
	chats.On("Prepare", mock.Anything, mock.MatchedBy(func(req service.TurnRequest) bool {
		return req.ChatID == "c1" && req.UserID == "u1" && req.ResumeID == "r1" &&
			len(req.Messages) == 1 && req.Messages[0].Role == model.RoleUser &&
			req.Messages[0].Text() == "Hello, can you review my resume?"
	})).Return(turn, nil).Once()
	chats.On("Stream", mock.Anything, turn, mock.Anything).Return([]string{"Sure", ", send it."}, nil).Once()

	rr := postTurn(r, "c1", `{"messages":[{"role":"user","content":"Hello, can you review my resume?"}],"data":{"resumeId":"r1"}}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Sure, send it.", rr.Body.String())
	assert.Equal(t, "Resume review request", rr.Header().Get(handler.TitleHeader))
	assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), "text/plain"))
}

func TestSubmit_NoTitleHeaderWhenTitleExists(t *testing.T) {
	r, chats := newChatRouter(t)
	turn := &service.PreparedTurn{ChatID: "c1"}
	chats.On("Prepare", mock.Anything, mock.Anything).Return(turn, nil).Once()
	chats.On("Stream", mock.Anything, turn, mock.Anything).Return([]string{"ok"}, nil).Once()

	rr := postTurn(r, "c1", `{"messages":[{"role":"user","content":"again"}]}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get(handler.TitleHeader))
}

func TestSubmit_EmptyReplyStillOK(t *testing.T) {
	r, chats := newChatRouter(t)
	turn := &service.PreparedTurn{ChatID: "c1"}
	chats.On("Prepare", mock.Anything, mock.Anything).Return(turn, nil).Once()
	chats.On("Stream", mock.Anything, turn, mock.Anything).Return(nil, nil).Once()

	rr := postTurn(r, "c1", `{"messages":[{"role":"user","content":"hi"}]}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestSubmit_RejectsInvalidBody(t *testing.T) {
	r, _ := newChatRouter(t)

	for _, body := range []string{
		`{"messages":[]}`,
		`{"messages":[{"role":"robot","content":"hi"}]}`,
		`not json`,
	} {
		rr := postTurn(r, "c1", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
}

func TestSubmit_ConversationNotFound(t *testing.T) {
	r, chats := newChatRouter(t)
	chats.On("Prepare", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: chat c9", apperrors.ErrNotFound)).Once()

	rr := postTurn(r, "c9", `{"messages":[{"role":"user","content":"hi"}]}`)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"资源不存在"}`, rr.Body.String())
}

func TestSubmit_MissingCredentials(t *testing.T) {
	r, chats := newChatRouter(t)
	chats.On("Prepare", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: llm api key is empty", apperrors.ErrConfiguration)).Once()

	rr := postTurn(r, "c1", `{"messages":[{"role":"user","content":"hi"}]}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestSubmit_UpstreamFailureBeforeFirstChunk(t *testing.T) {
	r, chats := newChatRouter(t)
	turn := &service.PreparedTurn{ChatID: "c1", Title: "Greeting"}
	chats.On("Prepare", mock.Anything, mock.Anything).Return(turn, nil).Once()
	chats.On("Stream", mock.Anything, turn, mock.Anything).
		Return(nil, fmt.Errorf("%w: 503", apperrors.ErrUpstream)).Once()

	rr := postTurn(r, "c1", `{"messages":[{"role":"user","content":"hi"}]}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "error")
	assert.Empty(t, rr.Header().Get(handler.TitleHeader))
	assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json"))
}

func TestSubmit_UpstreamFailureMidStreamTruncates(t *testing.T) {
	r, chats := newChatRouter(t)
	turn := &service.PreparedTurn{ChatID: "c1"}
	chats.On("Prepare", mock.Anything, mock.Anything).Return(turn, nil).Once()
	chats.On("Stream", mock.Anything, turn, mock.Anything).
		Return([]string{"partial"}, fmt.Errorf("%w: stream reset", apperrors.ErrUpstream)).Once()

	rr := postTurn(r, "c1", `{"messages":[{"role":"user","content":"hi"}]}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "partial", rr.Body.String())
}

func TestSubmit_ClientGoneIsNotAnError(t *testing.T) {
	r, chats := newChatRouter(t)
	turn := &service.PreparedTurn{ChatID: "c1"}
	chats.On("Prepare", mock.Anything, mock.Anything).Return(turn, nil).Once()
	chats.On("Stream", mock.Anything, turn, mock.Anything).Return(nil, context.Canceled).Once()

	rr := postTurn(r, "c1", `{"messages":[{"role":"user","content":"hi"}]}`)

	assert.NotEqual(t, http.StatusInternalServerError, rr.Code)
}
