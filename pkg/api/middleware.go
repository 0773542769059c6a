package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stagehand-io/stagehand/pkg/models"
)

const (
	headerRequestID = "X-Request-ID"
	cookieAPIKey    = "businessApiKey"

	contextBusiness = "business"
)

// requestID assigns each request a UUID, echoed in the response header and
// available to error logs.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(headerRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// masterAuth guards provisioning endpoints with the master key.
func (s *Server) masterAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearerToken(c)
		if key == "" {
			key = c.GetHeader("X-Master-Key")
		}
		if key == "" || key != s.cfg.MasterAPIKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// businessAuth resolves the per-business API key from the Authorization
// header or the businessApiKey cookie and stores the tenant on the context.
func (s *Server) businessAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearerToken(c)
		if key == "" {
			key, _ = c.Cookie(cookieAPIKey)
		}
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		business, err := s.store.LookupBusinessByKey(c.Request.Context(), key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(contextBusiness, business)
		c.Next()
	}
}

// authedBusiness returns the tenant resolved by businessAuth.
func authedBusiness(c *gin.Context) *models.Business {
	return c.MustGet(contextBusiness).(*models.Business)
}

// requireOwnBusiness rejects requests whose business_id does not match the
// authenticated tenant. An empty claimed ID defaults to the tenant's own.
func requireOwnBusiness(c *gin.Context, claimed string) (string, bool) {
	business := authedBusiness(c)
	if claimed == "" || claimed == business.ID {
		return business.ID, true
	}
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	return "", false
}

// masterWriteLimit applies the write quota to provisioning calls, which have
// no tenant to key on.
func (s *Server) masterWriteLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.guard.AllowWrite("master") {
			tooManyRequests(c)
			return
		}
		c.Next()
	}
}

// writeLimit applies the configuration-write quota.
func (s *Server) writeLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.guard.AllowWrite(authedBusiness(c).ID) {
			tooManyRequests(c)
			return
		}
		c.Next()
	}
}

// ingressLimit applies the per-minute and daily message quotas.
func (s *Server) ingressLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.guard.AllowMessage(authedBusiness(c).ID) {
			tooManyRequests(c)
			return
		}
		c.Next()
	}
}

func tooManyRequests(c *gin.Context) {
	c.Header("Retry-After", "60")
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
}

func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
