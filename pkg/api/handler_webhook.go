package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stagehand-io/stagehand/pkg/models"
	"github.com/stagehand-io/stagehand/pkg/webhook"
)

// verifyWebhook answers the Meta subscription handshake.
func (s *Server) verifyWebhook(c *gin.Context) {
	verifyToken, _, ok := s.platformCredentials(c.Param("platform"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown platform"})
		return
	}

	challenge, ok := webhook.VerifyChallenge(verifyToken,
		c.Query("hub.mode"), c.Query("hub.verify_token"), c.Query("hub.challenge"))
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "verification failed"})
		return
	}
	c.String(http.StatusOK, challenge)
}

// receiveWebhook verifies the signature over the raw body, normalizes the
// events, and acknowledges immediately. Platforms redeliver on non-2xx, so
// signature failures are the only rejection.
func (s *Server) receiveWebhook(c *gin.Context) {
	platform := c.Param("platform")
	if platform == "facebook" {
		platform = models.PlatformMessenger
	}
	_, appSecret, ok := s.platformCredentials(platform)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown platform"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 1<<20))
	if err != nil {
		badRequest(c, err)
		return
	}

	if !webhook.ValidSignature(body, appSecret, c.GetHeader("X-Hub-Signature-256")) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var events []webhook.Event
	switch platform {
	case models.PlatformMessenger:
		events, err = webhook.ParseMessenger(body)
	case models.PlatformWhatsApp:
		events, err = webhook.ParseWhatsApp(body)
	}
	if err != nil {
		badRequest(c, err)
		return
	}

	s.processor.Process(c.Request.Context(), events)
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// platformCredentials returns the verify token and app secret for a
// platform path parameter. "facebook" is accepted as an alias of messenger.
func (s *Server) platformCredentials(platform string) (verifyToken, appSecret string, ok bool) {
	switch platform {
	case models.PlatformMessenger, "facebook":
		return s.cfg.Webhooks.MessengerVerifyToken, s.cfg.Webhooks.MessengerAppSecret, true
	case models.PlatformWhatsApp:
		return s.cfg.Webhooks.WhatsAppVerifyToken, s.cfg.Webhooks.WhatsAppAppSecret, true
	}
	return "", "", false
}
