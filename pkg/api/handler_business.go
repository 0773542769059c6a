package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stagehand-io/stagehand/pkg/store"
)

// createBusiness provisions a tenant. Master-key only. The response is the
// single place the per-business API key appears in plaintext.
func (s *Server) createBusiness(c *gin.Context) {
	var req createBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	business, apiKey, err := s.store.CreateBusiness(c.Request.Context(), store.CreateBusinessRequest{
		OwnerID:             req.OwnerID,
		BusinessName:        req.BusinessName,
		BusinessDescription: req.BusinessDescription,
		Address:             req.Address,
		PhoneNumber:         req.PhoneNumber,
		Website:             req.Website,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"business_id": business.ID,
		"api_key":     apiKey,
	})
}

func (s *Server) getBusiness(c *gin.Context) {
	businessID, ok := requireOwnBusiness(c, c.Param("id"))
	if !ok {
		return
	}

	business, err := s.store.GetBusiness(c.Request.Context(), businessID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, business)
}

// saveConfig validates an entry-point credential triple and, on success,
// sets the HttpOnly cookie the browser client authenticates with.
func (s *Server) saveConfig(c *gin.Context) {
	var req saveConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	business, err := s.store.LookupBusinessByKey(c.Request.Context(), req.BusinessAPIKey)
	if err != nil || business.ID != req.BusinessID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.SetCookie(cookieAPIKey, req.BusinessAPIKey, 30*24*3600, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"business_id": business.ID,
		"user_id":     req.UserID,
	})
}

func (s *Server) createPlatformBinding(c *gin.Context) {
	var req platformBindingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	businessID, ok := requireOwnBusiness(c, req.BusinessID)
	if !ok {
		return
	}

	binding, err := s.store.BindPlatformAccount(c.Request.Context(), businessID, req.Platform, req.PlatformAccountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, binding)
}
