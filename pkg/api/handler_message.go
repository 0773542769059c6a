package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stagehand-io/stagehand/pkg/orchestrator"
)

// postMessage is the web-chat ingress: one inbound message, one pipeline
// run, the generated reply in the response body.
func (s *Server) postMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	businessID, ok := requireOwnBusiness(c, req.BusinessID)
	if !ok {
		return
	}

	outcome, err := s.handler.Handle(c.Request.Context(), orchestrator.InboundMessage{
		BusinessID:     businessID,
		UserID:         req.UserID,
		SessionID:      req.SessionID,
		Text:           req.Message,
		AgentID:        req.AgentID,
		SenderType:     req.SenderType,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (s *Server) listConversations(c *gin.Context) {
	businessID, ok := requireOwnBusiness(c, c.Query("business_id"))
	if !ok {
		return
	}

	conversations, err := s.store.ListConversations(c.Request.Context(), businessID, c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// conversationDetail returns one conversation with its transcript and the
// data extracted along the way.
func (s *Server) conversationDetail(c *gin.Context) {
	businessID, ok := requireOwnBusiness(c, c.Query("business_id"))
	if !ok {
		return
	}

	conv, err := s.store.GetConversation(c.Request.Context(), businessID, c.Param("conversation_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	messages, err := s.store.ListMessages(c.Request.Context(), conv.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	extracted, err := s.store.ListExtractedData(c.Request.Context(), conv.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversation":   conv,
		"messages":       messages,
		"extracted_data": extracted,
	})
}
