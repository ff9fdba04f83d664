package main

import (
	"errors"
	"net/http"

	"universe/pkg/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	sessionCookie = "universe_sid"
	ctxSession    = "session"
)

// sessionMiddleware attaches the caller's session to the context. Missing,
// expired or tampered cookies get a fresh session that is only persisted
// once a handler saves it.
func sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxSession, loadSession(c))
		c.Next()
	}
}

func loadSession(c *gin.Context) *session.Session {
	raw, err := c.Cookie(sessionCookie)
	if err != nil || raw == "" {
		return session.New()
	}
	sid, err := cookies.Decode(raw)
	if err != nil {
		return session.New()
	}
	s, err := sessions.Get(c.Request.Context(), sid)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			logger.Error("load session", zap.Error(err))
		}
		return session.New()
	}
	return s
}

func currentSession(c *gin.Context) *session.Session {
	if v, ok := c.Get(ctxSession); ok {
		if s, ok := v.(*session.Session); ok {
			return s
		}
	}
	s := session.New()
	c.Set(ctxSession, s)
	return s
}

// saveSession persists s and (re)issues its cookie. Empty sessions are
// dropped instead of stored.
func saveSession(c *gin.Context, s *session.Session) error {
	if s.Empty() {
		if err := sessions.Destroy(c.Request.Context(), s.ID); err != nil {
			return err
		}
		clearSessionCookie(c)
		return nil
	}
	maxAge := cfg.Session.MaxAge
	if err := sessions.Save(c.Request.Context(), s, maxAge); err != nil {
		return err
	}
	token, err := cookies.Encode(s.ID, maxAge)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, int(maxAge.Seconds()), "/", "", cfg.Session.Secure, true)
	return nil
}

// rotateSession discards the current session and starts a new one. Used at
// sign-in so a pre-login session id never becomes authenticated.
func rotateSession(c *gin.Context) *session.Session {
	old := currentSession(c)
	if err := sessions.Destroy(c.Request.Context(), old.ID); err != nil {
		logger.Warn("destroy session", zap.Error(err))
	}
	fresh := session.New()
	c.Set(ctxSession, fresh)
	return fresh
}

func destroySession(c *gin.Context) error {
	s := currentSession(c)
	err := sessions.Destroy(c.Request.Context(), s.ID)
	clearSessionCookie(c)
	c.Set(ctxSession, session.New())
	return err
}

func clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", cfg.Session.Secure, true)
}
