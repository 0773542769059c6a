package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stagehand-io/stagehand/pkg/store"
)

// Template mutations go through the engine, not the raw store, so variable
// usage stays in sync with the text.

func (s *Server) createTemplate(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	businessID, ok := requireOwnBusiness(c, req.BusinessID)
	if !ok {
		return
	}

	tpl, err := s.engine.CreateTemplate(c.Request.Context(), store.CreateTemplateRequest{
		BusinessID:   businessID,
		TemplateName: req.TemplateName,
		TemplateType: req.TemplateType,
		Content:      req.Content,
		SystemPrompt: req.SystemPrompt,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tpl)
}

func (s *Server) listTemplates(c *gin.Context) {
	businessID, ok := requireOwnBusiness(c, c.Query("business_id"))
	if !ok {
		return
	}

	templates, err := s.store.ListTemplates(c.Request.Context(), businessID, c.Query("template_type"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

func (s *Server) getTemplate(c *gin.Context) {
	businessID, ok := requireOwnBusiness(c, c.Query("business_id"))
	if !ok {
		return
	}

	tpl, err := s.store.GetTemplate(c.Request.Context(), businessID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

func (s *Server) updateTemplate(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	businessID, ok := requireOwnBusiness(c, req.BusinessID)
	if !ok {
		return
	}

	tpl, err := s.engine.UpdateTemplate(c.Request.Context(), businessID, c.Param("id"),
		req.TemplateName, req.TemplateType, req.Content, req.SystemPrompt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

func (s *Server) deleteTemplate(c *gin.Context) {
	businessID, ok := requireOwnBusiness(c, c.Query("business_id"))
	if !ok {
		return
	}

	if err := s.store.DeleteTemplate(c.Request.Context(), businessID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// listTemplateVariables returns the variable names a template references.
func (s *Server) listTemplateVariables(c *gin.Context) {
	businessID, ok := requireOwnBusiness(c, c.Query("business_id"))
	if !ok {
		return
	}

	if _, err := s.store.GetTemplate(c.Request.Context(), businessID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	names, err := s.store.ListVariableUsage(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"variables": names})
}
