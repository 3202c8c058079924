package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sakshampandey1901/Cite/internal/middleware"
	"github.com/sakshampandey1901/Cite/internal/platform/logger"
	"github.com/sakshampandey1901/Cite/internal/repos"
	"github.com/sakshampandey1901/Cite/internal/types"
)

type LabelHandler struct {
	log    *logger.Logger
	labels repos.ChunkLabelRepo
	docs   repos.DocumentRepo
}

func NewLabelHandler(baseLog *logger.Logger, labels repos.ChunkLabelRepo, docs repos.DocumentRepo) *LabelHandler {
	return &LabelHandler{
		log:    baseLog.With("handler", "LabelHandler"),
		labels: labels,
		docs:   docs,
	}
}

// GET /api/labels/unverified?document_id=...&limit=...&offset=...
func (h *LabelHandler) ListUnverified(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	documentID, err := uuid.Parse(c.Query("document_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_document_id", err)
		return
	}

	// Ownership check before any label is exposed.
	if _, err := h.docs.GetForUser(c.Request.Context(), nil, documentID, userID); err != nil {
		RespondServiceError(c, err)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	labels, total, err := h.labels.ListUnverified(c.Request.Context(), nil, documentID, limit, offset)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"labels": labels,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

type verifyRequest struct {
	Role      *string  `json:"role"`
	TopicTags []string `json:"topic_tags"`
}

// POST /api/labels/:chunk_id/verify
func (h *LabelHandler) Verify(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	chunkID, err := uuid.Parse(c.Param("chunk_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_chunk_id", err)
		return
	}

	var body verifyRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	upd := repos.VerifyUpdate{TopicTags: body.TopicTags}
	if body.Role != nil {
		role, err := types.ParseRhetoricalRole(*body.Role)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_role", err)
			return
		}
		upd.Role = &role
	}

	label, err := h.labels.Verify(c.Request.Context(), nil, chunkID, userID, upd)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	h.log.Info("label verified", "chunk_id", chunkID, "user_id", userID, "corrected", !label.IsAutoLabeled)
	RespondOK(c, gin.H{"label": label})
}
