package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/driftline/voicerelay/internal/app"
	"github.com/driftline/voicerelay/internal/domain"
)

type Handlers struct {
	Engine *app.Engine
}

type JoinRequest struct {
	RoomID   string          `json:"room_id"`
	Metadata json.RawMessage `json:"metadata"`
}

type JoinResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
	RoomID    string `json:"room_id"`
}

func (h *Handlers) JoinRoom(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	sess := h.Engine.Join(domain.RoomID(req.RoomID), req.Metadata)
	c.JSON(http.StatusOK, JoinResponse{
		Success:   true,
		SessionID: string(sess.ID),
		RoomID:    string(sess.Room),
	})
}

type SignalRequest struct {
	SessionID string          `json:"session_id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

func (h *Handlers) Signal(c *gin.Context) {
	var req SignalRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionID == "" || req.Type == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id and type are required"})
		return
	}
	err := h.Engine.Signal(domain.SessionID(req.SessionID), req.Type, req.Payload)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, domain.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	default:
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

type LeaveRequest struct {
	SessionID string `json:"session_id"`
}

func (h *Handlers) LeaveRoom(c *gin.Context) {
	var req LeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}
	h.Engine.Leave(domain.SessionID(req.SessionID))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type PollResponse struct {
	Events    []domain.Event `json:"events"`
	Timestamp time.Time      `json:"timestamp"`
}

func (h *Handlers) Poll(c *gin.Context) {
	sid := c.Query("session_id")
	if sid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}
	events := h.Engine.Poll(domain.SessionID(sid))
	if events == nil {
		events = []domain.Event{}
	}
	c.JSON(http.StatusOK, PollResponse{Events: events, Timestamp: time.Now()})
}

func (h *Handlers) Health(c *gin.Context) {
	info := h.Engine.Health()
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"rooms":     info.RoomCount,
		"users":     info.SessionCount,
		"timestamp": time.Now(),
	})
}

func (h *Handlers) Rooms(c *gin.Context) {
	rooms := h.Engine.Rooms()
	c.JSON(http.StatusOK, rooms)
}
