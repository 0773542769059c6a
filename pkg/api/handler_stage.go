package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stagehand-io/stagehand/pkg/models"
	"github.com/stagehand-io/stagehand/pkg/store"
)

func (s *Server) createStage(c *gin.Context) {
	var req stageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	businessID, ok := requireOwnBusiness(c, req.BusinessID)
	if !ok {
		return
	}

	stg, err := s.store.CreateStage(c.Request.Context(), store.CreateStageRequest{
		BusinessID:                   businessID,
		AgentID:                      req.AgentID,
		StageName:                    req.StageName,
		StageDescription:             req.StageDescription,
		StageType:                    req.StageType,
		StageSelectionTemplateID:     req.StageSelectionTemplateID,
		DataExtractionTemplateID:     req.DataExtractionTemplateID,
		ResponseGenerationTemplateID: req.ResponseGenerationTemplateID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, stg)
}

func (s *Server) listStages(c *gin.Context) {
	businessID, ok := requireOwnBusiness(c, c.Query("business_id"))
	if !ok {
		return
	}

	stages, err := s.store.ListStages(c.Request.Context(), businessID, c.Query("agent_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stages": stages})
}

// getStage returns the stage with its three template configurations
// expanded inline.
func (s *Server) getStage(c *gin.Context) {
	businessID, ok := requireOwnBusiness(c, c.Query("business_id"))
	if !ok {
		return
	}

	stg, err := s.store.GetStage(c.Request.Context(), businessID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	templates := map[string]*models.Template{}
	for name, id := range map[string]string{
		"stage_selection":     stg.StageSelectionTemplateID,
		"data_extraction":     stg.DataExtractionTemplateID,
		"response_generation": stg.ResponseGenerationTemplateID,
	} {
		tpl, err := s.store.GetTemplate(c.Request.Context(), businessID, id)
		if err != nil {
			respondError(c, err)
			return
		}
		templates[name] = tpl
	}

	c.JSON(http.StatusOK, gin.H{"stage": stg, "templates": templates})
}

func (s *Server) updateStage(c *gin.Context) {
	var req stageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	businessID, ok := requireOwnBusiness(c, req.BusinessID)
	if !ok {
		return
	}

	stg, err := s.store.UpdateStage(c.Request.Context(), c.Param("id"), store.CreateStageRequest{
		BusinessID:                   businessID,
		AgentID:                      req.AgentID,
		StageName:                    req.StageName,
		StageDescription:             req.StageDescription,
		StageType:                    req.StageType,
		StageSelectionTemplateID:     req.StageSelectionTemplateID,
		DataExtractionTemplateID:     req.DataExtractionTemplateID,
		ResponseGenerationTemplateID: req.ResponseGenerationTemplateID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stg)
}

func (s *Server) deleteStage(c *gin.Context) {
	businessID, ok := requireOwnBusiness(c, c.Query("business_id"))
	if !ok {
		return
	}

	if err := s.store.DeleteStage(c.Request.Context(), businessID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) createStageTransition(c *gin.Context) {
	var req stageTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	businessID, ok := requireOwnBusiness(c, req.BusinessID)
	if !ok {
		return
	}

	tr, err := s.store.CreateStageTransition(c.Request.Context(), businessID, req.FromStageID, req.ToStageID, req.Condition)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tr)
}
