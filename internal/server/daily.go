package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type markRequest struct {
	Task string `json:"task" binding:"required"`
}

// handleDaily returns today's tasks, with done flags for a logged-in user.
func (s *Server) handleDaily(c *gin.Context) {
	user, _ := currentUser(c)
	view, err := s.svc.TodayView(c.Request.Context(), user.Username)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, view)
}

// handleMarkDaily records a task as done today for the current user.
func (s *Server) handleMarkDaily(c *gin.Context) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	user, _ := currentUser(c)
	if err := s.svc.MarkDone(c.Request.Context(), user.Username, s.svc.Today(), req.Task); err != nil {
		s.fail(c, err)
		return
	}
	s.respondDayAndProgress(c, user.Username, true)
}

// handleUnmarkDaily removes a task from today's done list.
func (s *Server) handleUnmarkDaily(c *gin.Context) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	user, _ := currentUser(c)
	removed, err := s.svc.UnmarkDone(c.Request.Context(), user.Username, s.svc.Today(), req.Task)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respondDayAndProgress(c, user.Username, removed)
}

func (s *Server) respondDayAndProgress(c *gin.Context, username string, applied bool) {
	ctx := c.Request.Context()
	view, err := s.svc.TodayView(ctx, username)
	if err != nil {
		s.fail(c, err)
		return
	}
	snap, err := s.svc.Snapshot(ctx, username)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"applied": applied, "daily": view, "progress": snap})
}
