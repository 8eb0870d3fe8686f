package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"grove/internal/models"
	"grove/internal/service"
)

const ctxCurrentUser = "currentUser"

// RequestLogger replaces gin's text logger with one zerolog line per request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}
		ev = ev.Str("method", c.Request.Method).
			Str("route", routePattern(c)).
			Int("status", status).
			Dur("latency", time.Since(start))
		if u := currentUser(c); u != nil {
			ev = ev.Uint("user_id", u.ID)
		}
		ev.Msg("http request")
	}
}

// sessionUser loads the signed-in user, or nil when the session is
// anonymous or points at a deleted account.
func (s *Server) sessionUser(c *gin.Context) (*models.User, error) {
	uid, ok := sessionUID(c)
	if !ok {
		return nil, nil
	}
	u, err := s.Users.Get(c.Request.Context(), uid)
	if errors.Is(err, service.ErrNotFound) {
		_ = signOut(c)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// requireUser resolves the session user and rejects anonymous or disabled
// accounts.
func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := s.sessionUser(c)
		if err != nil {
			s.fail(c, err)
			return
		}
		if u == nil {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "sign in required")
			return
		}
		if !u.Active {
			abort(c, http.StatusForbidden, "FORBIDDEN", "account is disabled")
			return
		}
		c.Set(ctxCurrentUser, u)
		c.Next()
	}
}

// identify sets the current user when an active one is signed in and lets
// anonymous requests through.
func (s *Server) identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := s.sessionUser(c)
		if err != nil {
			s.fail(c, err)
			return
		}
		if u != nil && u.Active {
			c.Set(ctxCurrentUser, u)
		}
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentUser(c).IsAdmin() {
			abort(c, http.StatusForbidden, "FORBIDDEN", "admin only")
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ctxCurrentUser)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
