package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/codepals/collab/internal/ai"
	"github.com/codepals/collab/internal/event"
)

// AIController exposes the external AI collaborator over HTTP. The
// answer travels only to the requesting caller; the room sees nothing
// but the ai-help-requested notification handled on the WS path.
type AIController struct {
	Client *ai.Client
}

func NewAIController(client *ai.Client) *AIController {
	return &AIController{Client: client}
}

type chatRequest struct {
	Messages []ai.Message `json:"messages"`
	Code     string       `json:"code"`
	Language string       `json:"language"`
	Question string       `json:"question"`
}

func (ctl *AIController) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Messages) == 0 && req.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Either messages or code is required"})
		return
	}

	resp, err := ctl.Client.Chat(c.Request.Context(), ai.ChatRequest{
		Messages: req.Messages,
		Code:     req.Code,
		Language: req.Language,
		Question: req.Question,
	})
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("ai chat failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get AI response"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"response":  resp,
		"timestamp": event.Now(),
	})
}

type reviewRequest struct {
	Code     string `json:"code" binding:"required"`
	Language string `json:"language"`
	Context  string `json:"context"`
}

func (ctl *AIController) Review(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code is required"})
		return
	}

	review, raw, err := ctl.Client.Review(c.Request.Context(), ai.ReviewRequest{
		Code:     req.Code,
		Language: req.Language,
		Context:  req.Context,
	})
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("ai review failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get AI review"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"review":      review,
		"rawResponse": raw,
		"timestamp":   event.Now(),
	})
}
