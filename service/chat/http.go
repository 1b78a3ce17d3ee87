package chat

import (
	"context"
	"net/http"
	"time"

	"hardwire/logger"

	"github.com/gin-gonic/gin"
)

// HandleMessages is the pull path: full ordered history between the
// unordered pair {userId, otherUserId}. This is the source of truth the
// client reconciles from; the socket push is only a latency optimization.
func (s *Server) HandleMessages(c *gin.Context) {
	userID := c.Query("userId")
	otherUserID := c.Query("otherUserId")
	if userID == "" || otherUserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing userId or otherUserId"})
		return
	}

	msgs, err := s.store.ListConversation(c.Request.Context(), userID, otherUserID)
	if err != nil {
		logger.Errorf("[HTTP] list conversation failed user=%s other=%s err=%v", userID, otherUserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// HandleStatus reports the live connection count. Diagnostic only.
func (s *Server) HandleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "running",
		"connections": s.reg.Count(),
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

// HandlePresence reads the Redis mirror, not the local registry, so it also
// sees users connected to sibling nodes. Diagnostic only.
func (s *Server) HandlePresence(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing userId"})
		return
	}
	if s.presence == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "presence mirror disabled"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	node, online, err := s.presence.Lookup(ctx, userID)
	if err != nil {
		logger.Errorf("[HTTP] presence lookup failed user=%s err=%v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "presence lookup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"userId": userID, "online": online, "node": node})
}
