package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskflow/internal/auth"
	"taskflow/internal/models"
	"taskflow/internal/storage"
)

const userKey = "user"

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// loadUser attaches the session's user to the context when the cookie is valid.
func (s *Server) loadUser(c *gin.Context) {
	token, err := c.Cookie(s.opts.CookieName)
	if err != nil || token == "" {
		c.Next()
		return
	}
	username, ok := s.sessions.Lookup(token)
	if !ok {
		c.Next()
		return
	}
	user, err := s.store.GetUser(c.Request.Context(), username)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.fail(c, err)
			return
		}
		s.sessions.Revoke(token)
		c.Next()
		return
	}
	c.Set(userKey, user)
	c.Next()
}

// currentUser returns the logged-in user, if any.
func currentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}

func (s *Server) requireUser(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}
	c.Next()
}

func (s *Server) requireAdmin(c *gin.Context) {
	if user, _ := currentUser(c); !user.IsAdmin() {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
		return
	}
	c.Next()
}

// handleLogin verifies credentials and issues a session cookie.
func (s *Server) handleLogin(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	user, err := auth.Authenticate(c.Request.Context(), s.store, req.Username, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.startSession(c, user.Username, req.Remember)
	respondSuccess(c, http.StatusOK, gin.H{"user": user})
}

// handleRegister creates a regular account and logs it in.
func (s *Server) handleRegister(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	user, err := auth.Register(c.Request.Context(), s.store, req.Username, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.logger.Info("user registered", "user", user.Username)
	s.startSession(c, user.Username, req.Remember)
	respondSuccess(c, http.StatusCreated, gin.H{"user": user})
}

// handleLogout drops the session and clears the cookie.
func (s *Server) handleLogout(c *gin.Context) {
	if token, err := c.Cookie(s.opts.CookieName); err == nil {
		s.sessions.Revoke(token)
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.opts.CookieName, "", -1, "/", "", s.opts.SecureCookie, true)
	respondSuccess(c, http.StatusOK, gin.H{"status": "logged out"})
}

// handleMe returns the logged-in user.
func (s *Server) handleMe(c *gin.Context) {
	user, _ := currentUser(c)
	respondSuccess(c, http.StatusOK, gin.H{"user": user})
}

func (s *Server) startSession(c *gin.Context, username string, remember bool) {
	ttl, maxAge := s.opts.SessionTTL, 0
	if remember {
		ttl = s.opts.RememberFor
		maxAge = int(s.opts.RememberFor.Seconds())
	}
	token := s.sessions.Create(username, ttl)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.opts.CookieName, token, maxAge, "/", "", s.opts.SecureCookie, true)
}
