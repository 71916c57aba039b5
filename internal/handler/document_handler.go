package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "resume-chat-go/internal/errors"
	"resume-chat-go/internal/middleware"
	"resume-chat-go/internal/model"
	"resume-chat-go/internal/service"
	"resume-chat-go/pkg/log"
)

// DocumentHandler 负责处理简历文件的上传、列表与删除。
type DocumentHandler struct {
	docService service.DocumentService
	formKey    string
}

// NewDocumentHandler 创建一个新的 DocumentHandler，formKey 是 multipart 中文件字段的名字。
func NewDocumentHandler(docService service.DocumentService, formKey string) *DocumentHandler {
	return &DocumentHandler{docService: docService, formKey: formKey}
}

// List 处理 GET /api/resumes。
func (h *DocumentHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		writeError(c, apperrors.ErrUnauthorized)
		return
	}
	refs, err := h.docService.List(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	if refs == nil {
		refs = []model.DocumentRef{}
	}
	c.JSON(http.StatusOK, refs)
}

// Upload 处理 POST /api/resumes。可以一次上传多个文件，只返回第一个。
func (h *DocumentHandler) Upload(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		writeError(c, apperrors.ErrUnauthorized)
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		log.Warnw("解析上传表单失败", "userId", user.ID, "error", err)
		writeError(c, apperrors.ErrNoFile)
		return
	}

	ref, err := h.docService.Upload(c.Request.Context(), user.ID, form.File[h.formKey])
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ref)
}

// Delete 处理 DELETE /api/resumes/*pathname。
func (h *DocumentHandler) Delete(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		writeError(c, apperrors.ErrUnauthorized)
		return
	}
	if err := h.docService.Delete(c.Request.Context(), user.ID, c.Param("pathname")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
