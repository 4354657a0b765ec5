package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agrosense/agrosense/pkg/models"
)

func (s *Server) handleSessionList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	sessions, err := s.deps.Router.Sessions().ListSessions(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	if sessions == nil {
		sessions = []models.SessionMetadata{}
	}
	c.JSON(http.StatusOK, sessions)
}

func (s *Server) handleSessionGet(c *gin.Context) {
	sessionID := c.Param("id")
	store := s.deps.Router.Sessions()

	meta, err := store.Metadata(c.Request.Context(), sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "session not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	turns, err := store.RecentTurns(c.Request.Context(), sessionID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	if turns == nil {
		turns = []models.ConversationTurn{}
	}
	c.JSON(http.StatusOK, SessionDetail{Metadata: meta, Turns: turns})
}
