package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrosense/agrosense/pkg/models"
	"github.com/agrosense/agrosense/pkg/router"
)

// handleQuery answers one question with the unified result schema. The
// result is always 200; failures are typed inside the body so clients have a
// single shape to parse.
func (s *Server) handleQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	result := s.deps.Router.Ask(c.Request.Context(), router.AskRequest{
		SessionID:      req.SessionID,
		Question:       req.Query,
		FeatureContext: req.FeatureContext,
		ComparisonHint: req.ComparisonMode,
	})
	c.JSON(http.StatusOK, result)
}

// handleQueryStream answers over SSE: progress frames, token frames, a final
// complete frame, and a [DONE] sentinel that is sent even when the client
// cancels mid-stream.
func (s *Server) handleQueryStream(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "streaming unsupported"})
		return
	}

	defer func() {
		io.WriteString(c.Writer, "data: [DONE]\n\n")
		flusher.Flush()
	}()

	emit := func(ev models.StreamEvent) bool {
		if c.Request.Context().Err() != nil {
			return false
		}
		payload, err := json.Marshal(ev)
		if err != nil {
			return false
		}
		if _, err := io.WriteString(c.Writer, "data: "+string(payload)+"\n\n"); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	s.deps.Router.AskStream(c.Request.Context(), router.AskRequest{
		SessionID:      req.SessionID,
		Question:       req.Query,
		FeatureContext: req.FeatureContext,
		ComparisonHint: req.ComparisonMode,
	}, emit)
}
