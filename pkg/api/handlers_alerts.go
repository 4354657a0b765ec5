package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agrosense/agrosense/pkg/models"
)

// handleAlertCreate stores a rule from natural language or a structured spec.
func (s *Server) handleAlertCreate(c *gin.Context) {
	var req AlertCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	spec := req.Spec
	if req.Text != "" {
		parsed, err := s.deps.Router.ParseAlert(req.Text, req.SessionID)
		if err != nil {
			mapServiceError(c, err)
			return
		}
		spec = parsed
	}
	if spec == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "either text or spec is required"})
		return
	}
	spec.SessionID = req.SessionID

	if err := s.deps.Alerts.Create(c.Request.Context(), spec); err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, spec)
}

func (s *Server) handleAlertList(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "session_id query parameter is required"})
		return
	}
	specs, err := s.deps.Alerts.List(c.Request.Context(), sessionID)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	if specs == nil {
		specs = []models.AlertSpec{}
	}
	c.JSON(http.StatusOK, specs)
}

func (s *Server) handleAlertDelete(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "session_id query parameter is required"})
		return
	}
	if err := s.deps.Alerts.Delete(c.Request.Context(), c.Param("id"), sessionID); err != nil {
		mapServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAlertActive(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "session_id query parameter is required"})
		return
	}
	var req AlertActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "body must carry an active boolean"})
		return
	}
	if err := s.deps.Alerts.SetActive(c.Request.Context(), c.Param("id"), sessionID, *req.Active); err != nil {
		mapServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleAlertMonitor runs one evaluation pass over the session's rules and
// returns what fired.
func (s *Server) handleAlertMonitor(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "session_id query parameter is required"})
		return
	}
	fired, err := s.deps.Evaluator.Monitor(c.Request.Context(), sessionID)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"triggered": fired, "count": len(fired)})
}

func (s *Server) handleAlertActions(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "session_id query parameter is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	logs, err := s.deps.Alerts.ListActions(c.Request.Context(), sessionID, limit)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
