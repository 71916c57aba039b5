package handler_test

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "resume-chat-go/internal/errors"
	"resume-chat-go/internal/handler"
	"resume-chat-go/internal/model"
	mock_service "resume-chat-go/internal/service/mocks"
)

func newDocumentRouter(t *testing.T) (*gin.Engine, *mock_service.MockDocumentService) {
	docs := mock_service.NewMockDocumentService(t)
	h := handler.NewDocumentHandler(docs, "files")
	r := gin.New()
	g := r.Group("/api/resumes", asUser("u1"))
	g.GET("", h.List)
	g.POST("", h.Upload)
	g.DELETE("/*pathname", h.Delete)
	return r, docs
}

func multipartBody(t *testing.T, field string, names ...string) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, name := range names {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4 fake"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestDocuments_List(t *testing.T) {
	r, docs := newDocumentRouter(t)
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	docs.On("List", mock.Anything, "u1").Return([]model.DocumentRef{
		{Pathname: "resumes/u1/new.pdf", ContentType: "application/pdf", UploadedAt: now},
		{Pathname: "resumes/u1/old.pdf", ContentType: "application/pdf", UploadedAt: now.Add(-time.Hour)},
	}, nil).Once()

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/resumes", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Less(t, strings.Index(body, "new.pdf"), strings.Index(body, "old.pdf"))
}

func TestDocuments_UploadReturnsFirstFile(t *testing.T) {
	r, docs := newDocumentRouter(t)
	docs.On("Upload", mock.Anything, "u1", mock.MatchedBy(func(files []*multipart.FileHeader) bool {
		return len(files) == 2 && files[0].Filename == "cv.pdf"
	})).Return(&model.DocumentRef{ID: "r1", Pathname: "resumes/u1/cv.pdf", ContentType: "application/pdf"}, nil).Once()

	body, contentType := multipartBody(t, "files", "cv.pdf", "cover.pdf")
	req := httptest.NewRequest(http.MethodPost, "/api/resumes", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"contentType":"application/pdf"`)
	assert.Contains(t, rr.Body.String(), `"pathname":"resumes/u1/cv.pdf"`)
}

func TestDocuments_UploadWrongFieldIsNoFile(t *testing.T) {
	r, docs := newDocumentRouter(t)
	docs.On("Upload", mock.Anything, "u1", mock.MatchedBy(func(files []*multipart.FileHeader) bool {
		return len(files) == 0
	})).Return(nil, apperrors.ErrNoFile).Once()

	body, contentType := multipartBody(t, "attachment", "cv.pdf")
	req := httptest.NewRequest(http.MethodPost, "/api/resumes", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDocuments_UploadNotMultipart(t *testing.T) {
	r, _ := newDocumentRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/resumes", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDocuments_UploadTooLarge(t *testing.T) {
	r, docs := newDocumentRouter(t)
	docs.On("Upload", mock.Anything, "u1", mock.Anything).
		Return(nil, fmt.Errorf("%w: file exceeds 2097152 bytes", apperrors.ErrValidation)).Once()

	body, contentType := multipartBody(t, "files", "big.pdf")
	req := httptest.NewRequest(http.MethodPost, "/api/resumes", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "exceeds")
}

func TestDocuments_Delete(t *testing.T) {
	r, docs := newDocumentRouter(t)
	docs.On("Delete", mock.Anything, "u1", "/resumes/u1/cv.pdf").Return(nil).Once()

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/resumes/resumes/u1/cv.pdf", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestDocuments_DeleteOutcomes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"missing pathname", fmt.Errorf("%w: pathname is required", apperrors.ErrValidation), http.StatusBadRequest},
		{"not found", fmt.Errorf("%w: key", apperrors.ErrNotFound), http.StatusNotFound},
		{"other owner", fmt.Errorf("%w: key", apperrors.ErrForbidden), http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, docs := newDocumentRouter(t)
			docs.On("Delete", mock.Anything, "u1", mock.Anything).Return(tc.err).Once()

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/resumes/resumes/u2/cv.pdf", nil))

			assert.Equal(t, tc.want, rr.Code)
		})
	}
}
