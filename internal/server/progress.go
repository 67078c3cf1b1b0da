package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskflow/internal/models"
)

// handleProgress returns the current user's level, percentage and map state.
func (s *Server) handleProgress(c *gin.Context) {
	user, _ := currentUser(c)
	snap, err := s.svc.Snapshot(c.Request.Context(), user.Username)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, snap)
}

// handleMap returns the map layout, plus the viewer's snapshot when logged in.
func (s *Server) handleMap(c *gin.Context) {
	cfg, err := s.svc.MapConfig(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	body := gin.H{"map": cfg}
	if user, ok := currentUser(c); ok {
		snap, err := s.svc.Snapshot(c.Request.Context(), user.Username)
		if err != nil {
			s.fail(c, err)
			return
		}
		body["progress"] = snap
	}
	respondSuccess(c, http.StatusOK, body)
}

// handleSetPin stores the user's chosen marker position.
func (s *Server) handleSetPin(c *gin.Context) {
	var p models.Point
	if err := c.ShouldBindJSON(&p); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	user, _ := currentUser(c)
	if err := s.svc.SetPin(c.Request.Context(), user.Username, p); err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"pin": p})
}
