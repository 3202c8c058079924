package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sakshampandey1901/Cite/internal/middleware"
	"github.com/sakshampandey1901/Cite/internal/platform/logger"
	"github.com/sakshampandey1901/Cite/internal/services"
	"github.com/sakshampandey1901/Cite/internal/types"
)

type AssistHandler struct {
	log    *logger.Logger
	assist services.AssistService
}

func NewAssistHandler(baseLog *logger.Logger, assist services.AssistService) *AssistHandler {
	return &AssistHandler{
		log:    baseLog.With("handler", "AssistHandler"),
		assist: assist,
	}
}

type assistRequest struct {
	Mode              string `json:"mode" binding:"required"`
	EditorContent     string `json:"editor_content"`
	AdditionalContext string `json:"additional_context"`
	Role              string `json:"role"`
	MinConfidence     string `json:"min_confidence"`
	MinCoverage       *int   `json:"min_coverage"`
	TopK              int    `json:"top_k"`
}

// POST /api/assist
func (h *AssistHandler) Assist(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body assistRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	mode, err := types.ParseTaskMode(body.Mode)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_mode", err)
		return
	}

	req := services.AssistRequest{
		UserID:            userID,
		Mode:              mode,
		EditorContent:     body.EditorContent,
		AdditionalContext: body.AdditionalContext,
		MinCoverage:       body.MinCoverage,
		TopK:              body.TopK,
	}
	if body.Role != "" {
		role, err := types.ParseRhetoricalRole(body.Role)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_role", err)
			return
		}
		req.Role = &role
	}
	if body.MinConfidence != "" {
		conf, err := types.ParseConfidence(body.MinConfidence)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_confidence", err)
			return
		}
		req.MinConfidence = &conf
	}

	resp, err := h.assist.Assist(c.Request.Context(), req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"mode":    resp.Mode,
		"text":    resp.Text,
		"sources": resp.Sources,
		"validation": gin.H{
			"passed":         resp.Validation.Passed,
			"fallback_used":  resp.Validation.FallbackUsed,
			"attempts":       resp.Validation.Attempts,
			"final_state":    resp.Validation.FinalState,
			"violated_rules": resp.Validation.ViolatedRules,
		},
	})
}
