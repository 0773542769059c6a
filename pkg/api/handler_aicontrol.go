package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stagehand-io/stagehand/pkg/models"
)

func (s *Server) pauseAI(c *gin.Context) {
	s.setAIControl(c, true)
}

func (s *Server) resumeAI(c *gin.Context) {
	s.setAIControl(c, false)
}

// setAIControl flips the pause flag at the requested scope and audits the
// operator action.
func (s *Server) setAIControl(c *gin.Context, paused bool) {
	var req aiControlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	businessID, ok := requireOwnBusiness(c, req.BusinessID)
	if !ok {
		return
	}

	var expiresAt *time.Time
	if req.ExpiresInSeconds > 0 {
		t := time.Now().UTC().Add(time.Duration(req.ExpiresInSeconds) * time.Second)
		expiresAt = &t
	}

	setting, err := s.store.SetAIControl(c.Request.Context(), businessID,
		req.Scope, req.ConversationID, req.UserID, paused, expiresAt)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := s.store.WriteAudit(c.Request.Context(), businessID, req.UserID,
		models.AuditActionAIControl, models.JSONMap{
			"scope":           setting.Scope,
			"conversation_id": setting.ConversationID,
			"paused":          paused,
		}); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, setting)
}
