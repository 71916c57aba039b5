package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apperrors "resume-chat-go/internal/errors"
	mock_repo "resume-chat-go/internal/repository/mocks"
	mock_service "resume-chat-go/internal/service/mocks"
	"resume-chat-go/pkg/tasks"
)

var task = tasks.DocumentParseTask{ResumeID: "r1", UserID: "u1", StorageKey: "resumes/u1/cv.pdf", FileName: "cv.pdf"}

func setup(t *testing.T) (*Processor, *mock_service.MockDocumentService, *mock_repo.MockResumeRepository, *mock_repo.MockTextCache) {
	docs := mock_service.NewMockDocumentService(t)
	resumes := mock_repo.NewMockResumeRepository(t)
	cache := mock_repo.NewMockTextCache(t)
	return NewProcessor(docs, resumes, cache), docs, resumes, cache
}

func TestProcess_Success(t *testing.T) {
	p, docs, resumes, cache := setup(t)
	docs.On("Read", mock.Anything, "u1", "resumes/u1/cv.pdf").Return("Jane Doe", nil).Once()
	resumes.On("SetParsedContent", mock.Anything, "r1", "Jane Doe").Return(nil).Once()
	cache.On("Set", mock.Anything, "u1", "r1", "Jane Doe").Return(nil).Once()

	assert.NoError(t, p.Process(context.Background(), task))
}

func TestProcess_ObjectGoneIsNotRetried(t *testing.T) {
	p, docs, _, _ := setup(t)
	docs.On("Read", mock.Anything, "u1", "resumes/u1/cv.pdf").Return("", apperrors.ErrNotFound).Once()

	assert.NoError(t, p.Process(context.Background(), task))
}

func TestProcess_ExtractionFailureRetried(t *testing.T) {
	p, docs, _, _ := setup(t)
	docs.On("Read", mock.Anything, "u1", "resumes/u1/cv.pdf").Return("", apperrors.ErrUpstream).Once()

	assert.ErrorIs(t, p.Process(context.Background(), task), apperrors.ErrUpstream)
}

func TestProcess_EmptyText(t *testing.T) {
	p, docs, _, _ := setup(t)
	docs.On("Read", mock.Anything, "u1", "resumes/u1/cv.pdf").Return("   ", nil).Once()

	assert.ErrorIs(t, p.Process(context.Background(), task), ErrEmptyText)
}

func TestProcess_RecordDeleted(t *testing.T) {
	p, docs, resumes, _ := setup(t)
	docs.On("Read", mock.Anything, "u1", "resumes/u1/cv.pdf").Return("text", nil).Once()
	resumes.On("SetParsedContent", mock.Anything, "r1", "text").Return(apperrors.ErrNotFound).Once()

	assert.NoError(t, p.Process(context.Background(), task))
}

func TestProcess_CacheFailureIgnored(t *testing.T) {
	p, docs, resumes, cache := setup(t)
	docs.On("Read", mock.Anything, "u1", "resumes/u1/cv.pdf").Return("text", nil).Once()
	resumes.On("SetParsedContent", mock.Anything, "r1", "text").Return(nil).Once()
	cache.On("Set", mock.Anything, "u1", "r1", "text").Return(errors.New("redis down")).Once()

	assert.NoError(t, p.Process(context.Background(), task))
}
