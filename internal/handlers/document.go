package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sakshampandey1901/Cite/internal/middleware"
	"github.com/sakshampandey1901/Cite/internal/platform/logger"
	"github.com/sakshampandey1901/Cite/internal/services"
	"github.com/sakshampandey1901/Cite/internal/types"
)

type DocumentHandler struct {
	log       *logger.Logger
	ingestion services.IngestionService
}

func NewDocumentHandler(baseLog *logger.Logger, ingestion services.IngestionService) *DocumentHandler {
	return &DocumentHandler{
		log:       baseLog.With("handler", "DocumentHandler"),
		ingestion: ingestion,
	}
}

type ingestPage struct {
	Number    int    `json:"number"`
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

type ingestRequest struct {
	Title       string       `json:"title" binding:"required"`
	ContentType string       `json:"content_type"`
	Text        string       `json:"text"`
	Pages       []ingestPage `json:"pages"`
}

// POST /api/documents
func (h *DocumentHandler) Ingest(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body ingestRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	contentType := types.ContentType(body.ContentType)
	if body.ContentType != "" && !contentType.Valid() {
		RespondError(c, http.StatusBadRequest, "invalid_content_type",
			fmt.Errorf("invalid content type %q", body.ContentType))
		return
	}

	pages := make([]services.Page, 0, len(body.Pages))
	for _, p := range body.Pages {
		pages = append(pages, services.Page{Number: p.Number, Timestamp: p.Timestamp, Text: p.Text})
	}

	doc, err := h.ingestion.Ingest(c.Request.Context(), services.IngestRequest{
		UserID:      userID,
		Title:       body.Title,
		ContentType: contentType,
		Text:        body.Text,
		Pages:       pages,
	})
	if err != nil {
		h.log.Warn("ingest failed", "user_id", userID, "error", err)
		if doc != nil {
			// The document row survives in status failed; return it so
			// the client can retry or delete.
			c.JSON(http.StatusUnprocessableEntity, gin.H{"document": doc, "error": err.Error()})
			return
		}
		RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"document": doc})
}

// DELETE /api/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_document_id", err)
		return
	}

	if err := h.ingestion.Delete(c.Request.Context(), documentID, userID); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
