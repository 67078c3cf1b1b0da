package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskflow/internal/progress"
)

// handleBoard lists every board task.
func (s *Server) handleBoard(c *gin.Context) {
	tasks, err := s.svc.Board(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, tasks)
}

// handleArchive lists completed board tasks in id order.
func (s *Server) handleArchive(c *gin.Context) {
	tasks, err := s.svc.Archive(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, tasks)
}

func (s *Server) handleClaim(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user, _ := currentUser(c)
	tr, err := s.svc.Claim(c.Request.Context(), id, user.Username)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondTransition(c, tr)
}

func (s *Server) handleComplete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user, _ := currentUser(c)
	tr, err := s.svc.Complete(c.Request.Context(), id, user.Username)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondTransition(c, tr)
}

// respondTransition reports the outcome of a board transition. Only a
// completion attempt by someone other than the claimant is an error; other
// rejections are reported as not applied.
func respondTransition(c *gin.Context, tr progress.Transition) {
	body := gin.H{
		"applied": tr.Outcome == progress.Applied,
		"reason":  tr.Outcome.String(),
	}
	if tr.Outcome != progress.NotFound {
		body["task"] = tr.Task
	}
	if tr.Outcome == progress.NotClaimant {
		body["error"] = "task is claimed by another user"
		c.JSON(http.StatusForbidden, body)
		return
	}
	c.JSON(http.StatusOK, body)
}
