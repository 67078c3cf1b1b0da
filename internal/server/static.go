package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// mountStatic serves the built single-page frontend. Unknown non-API paths
// fall back to index.html so client-side routes such as /board or /map load.
func (s *Server) mountStatic() {
	dir := s.opts.StaticDir
	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
	})
	if dir == "" {
		s.logger.Warn("no static directory configured, serving API only")
		return
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		s.logger.Warn("static directory unavailable, serving API only", "path", dir, "error", err)
		return
	}

	for _, sub := range []string{"assets", "img"} {
		path := filepath.Join(dir, sub)
		if _, err := os.Stat(path); err == nil {
			s.engine.StaticFS("/"+sub, gin.Dir(path, false))
		}
	}
	if favicon := filepath.Join(dir, "favicon.ico"); fileExists(favicon) {
		s.engine.StaticFile("/favicon.ico", favicon)
	}

	index := filepath.Join(dir, "index.html")
	if !fileExists(index) {
		s.logger.Warn("index.html not found", "path", index)
		return
	}
	s.engine.GET("/", func(c *gin.Context) { c.File(index) })
	s.engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") || c.Request.Method != http.MethodGet {
			c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
			return
		}
		c.File(index)
	})
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
