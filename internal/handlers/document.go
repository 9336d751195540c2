// internal/handlers/document.go
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/G-alileo/e-visa-application-system/internal/i18n"
	"github.com/G-alileo/e-visa-application-system/internal/models"
	"github.com/G-alileo/e-visa-application-system/internal/services"
	"github.com/G-alileo/e-visa-application-system/internal/utils"
)

type DocumentHandler struct {
	documentService *services.DocumentService
	maxUploadSize   int64
}

type VerifyDocumentRequest struct {
	Verified *bool `json:"verified" validate:"required"`
}

func NewDocumentHandler(documentService *services.DocumentService, maxUploadSize int64) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		maxUploadSize:   maxUploadSize,
	}
}

// POST /applications/:id/documents (multipart: file, document_type)
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "application")
	if !ok {
		return
	}

	docType := models.DocumentType(strings.ToUpper(strings.TrimSpace(c.PostForm("document_type"))))
	if !docType.Valid() {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "document_type"), gin.H{
			"allowed": models.DocumentTypes(),
		})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "file"), err.Error())
		return
	}
	if h.maxUploadSize > 0 && fileHeader.Size > h.maxUploadSize {
		h.tooLarge(c, lang)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	doc, err := h.documentService.Upload(c.Request.Context(), actor, id, docType, services.UploadFile{
		Name:        fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		var tooLarge *services.FileTooLargeError
		if errors.As(err, &tooLarge) {
			h.tooLarge(c, lang)
			return
		}
		utils.ServiceErrorResponse(c, err, resourceApplication)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyDocumentUploaded, string(docType)),
		"document": doc,
	})
}

func (h *DocumentHandler) tooLarge(c *gin.Context, lang string) {
	utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
		i18n.T(lang, i18n.KeyDocumentTooLarge, h.maxUploadSize/(1024*1024)), gin.H{
			"max_bytes": h.maxUploadSize,
		})
}

// GET /applications/:id/documents
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "application")
	if !ok {
		return
	}

	docs, err := h.documentService.List(c.Request.Context(), actor, id)
	if err != nil {
		utils.ServiceErrorResponse(c, err, resourceApplication)
		return
	}

	utils.SuccessResponse(c, gin.H{"documents": docs})
}

// GET /applications/:id/documents/summary
func (h *DocumentHandler) GetDocumentSummary(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "application")
	if !ok {
		return
	}

	summary, err := h.documentService.Summary(c.Request.Context(), actor, id)
	if err != nil {
		utils.ServiceErrorResponse(c, err, resourceApplication)
		return
	}

	utils.SuccessResponse(c, summary)
}

// PUT /officer/documents/:id/verify
func (h *DocumentHandler) VerifyDocument(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "document")
	if !ok {
		return
	}

	req := VerifyDocumentRequest{}
	if !bindJSON(c, &req, false) {
		return
	}

	doc, err := h.documentService.Verify(c.Request.Context(), actor, id, *req.Verified)
	if err != nil {
		utils.ServiceErrorResponse(c, err, "document")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyDocumentVerified),
		"document": doc,
	})
}

// GET /documents/:id/download
func (h *DocumentHandler) DownloadDocument(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "document")
	if !ok {
		return
	}

	url, err := h.documentService.DownloadURL(c.Request.Context(), actor, id)
	if err != nil {
		utils.ServiceErrorResponse(c, err, "document")
		return
	}

	utils.SuccessResponse(c, gin.H{"url": url})
}
