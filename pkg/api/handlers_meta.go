package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrosense/agrosense/pkg/database"
	"github.com/agrosense/agrosense/pkg/version"
)

// handleHealth reports process and store health.
func (s *Server) handleHealth(c *gin.Context) {
	status, err := database.Health(c.Request.Context(), s.deps.DB)
	code := http.StatusOK
	state := "ok"
	if err != nil {
		code = http.StatusServiceUnavailable
		state = "degraded"
	}
	c.JSON(code, gin.H{
		"status":   state,
		"version":  version.Full(),
		"database": status,
	})
}

// handleSensors lists the canonical catalog: types, units, plausible ranges,
// and synonyms.
func (s *Server) handleSensors(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Registry.Descriptors())
}
