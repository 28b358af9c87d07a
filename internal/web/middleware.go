package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agusespa/securecode/internal/session"
)

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		logger.Info("request", fields...)
	}
}

// withSession attaches the caller's session state, creating one when the
// cookie is missing or stale. Requests of one session run one at a time.
func (s *Server) withSession(c *gin.Context) {
	id, _ := c.Cookie(sessionCookie)

	st, release, ok := s.sessions.Acquire(id)
	if !ok {
		created := s.startSession(c)
		st, release, ok = s.sessions.Acquire(created.ID)
		if !ok {
			// Evicted between Create and Acquire by a flood of new sessions.
			st, release = created, func() {}
		}
	}
	defer release()

	c.Set(sessionKey, st)
	c.Next()
}

// startSession registers a new state and points the session cookie at it.
func (s *Server) startSession(c *gin.Context) *session.State {
	st := s.sessions.Create()
	s.setSessionCookie(c, st.ID, cookieMaxAge)
	return st
}

func (s *Server) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, value, maxAge, "/", "", s.opts.CookieSecure, true)
}

func requireLogin(c *gin.Context) {
	if !stateOf(c).LoggedIn() {
		c.Redirect(http.StatusSeeOther, "/login")
		c.Abort()
		return
	}
	c.Next()
}

func stateOf(c *gin.Context) *session.State {
	return c.MustGet(sessionKey).(*session.State)
}
