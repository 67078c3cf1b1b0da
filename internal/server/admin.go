package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskflow/internal/models"
	"taskflow/internal/progress"
)

type coinsRequest struct {
	Coins *int `json:"coins" binding:"required"`
}

func (s *Server) handleGetCatalog(c *gin.Context) {
	catalog, err := s.svc.Catalog(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, catalog)
}

func (s *Server) handleReplaceCatalog(c *gin.Context) {
	var catalog models.TaskCatalog
	if err := c.ShouldBindJSON(&catalog); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	admin, _ := currentUser(c)
	saved, err := s.svc.ReplaceCatalog(c.Request.Context(), admin, catalog)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, saved)
}

func (s *Server) handleRegenerateDaily(c *gin.Context) {
	admin, _ := currentUser(c)
	set, err := s.svc.RegenerateDailyTasks(c.Request.Context(), admin)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, set)
}

// handleAddBoardTasks appends free tasks to the board.
func (s *Server) handleAddBoardTasks(c *gin.Context) {
	var tasks []progress.NewBoardTask
	if err := c.ShouldBindJSON(&tasks); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	admin, _ := currentUser(c)
	created, err := s.svc.AddBoardTasks(c.Request.Context(), admin, tasks)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, created)
}

// handleReplaceBoard makes the board match the submitted list. Entries with a
// known id keep their state; the rest are added as free tasks.
func (s *Server) handleReplaceBoard(c *gin.Context) {
	var tasks []progress.NewBoardTask
	if err := c.ShouldBindJSON(&tasks); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	admin, _ := currentUser(c)
	board, err := s.svc.ReplaceBoard(c.Request.Context(), admin, tasks)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, board)
}

func (s *Server) handleSaveMap(c *gin.Context) {
	var cfg models.MapConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	admin, _ := currentUser(c)
	saved, err := s.svc.SaveMapConfig(c.Request.Context(), admin, cfg)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, saved)
}

func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.store.ListUsers(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, users)
}

func (s *Server) handleSetCoins(c *gin.Context) {
	var req coinsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	admin, _ := currentUser(c)
	username := c.Param("username")
	if err := s.svc.SetCoins(c.Request.Context(), admin, username, *req.Coins); err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"username": username, "coins": *req.Coins})
}
