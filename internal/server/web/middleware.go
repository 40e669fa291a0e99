package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/common"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/logging"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/models"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/session"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionCookieName = "session_id"
	requestIDHeader   = "X-Request-ID"

	ctxKeySessionID = "session_id"
	ctxKeyUser      = "user"
)

// currentUser returns the user loaded by loadSession, or nil.
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ctxKeyUser)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

func sessionID(c *gin.Context) string {
	return c.GetString(ctxKeySessionID)
}

// wantsJSON reports whether the client talks JSON rather than HTML forms.
func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json") ||
		c.ContentType() == gin.MIMEJSON
}

func (h *Handler) setSessionCookie(c *gin.Context, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, id, int(h.cfg.SessionTTL.Seconds()), "/", "", h.cfg.IsProduction(), true)
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, "", -1, "/", "", h.cfg.IsProduction(), true)
}

// loadSession resolves the session cookie and, for signed-in sessions, the
// user. Unknown sessions are treated as anonymous.
func (h *Handler) loadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(sessionCookieName)
		if err != nil || id == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		uid, err := h.sessions.UserID(ctx, id)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				h.logger.Error(ctx, "load session", "error", err)
			}
			c.Next()
			return
		}
		c.Set(ctxKeySessionID, id)

		if uid != "" {
			user, err := h.users.GetUser(ctx, uid)
			switch {
			case err == nil:
				c.Set(ctxKeyUser, user)
			case errors.Is(err, common.ErrorNotFound):
				_ = h.sessions.Delete(ctx, id)
				c.Set(ctxKeySessionID, "")
			default:
				h.logger.Error(ctx, "load session user", "error", err)
			}
		}
		c.Next()
	}
}

// RequireSession rejects anonymous requests: JSON clients get 401, pages
// are redirected to the login form.
func (h *Handler) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c) != nil {
			c.Next()
			return
		}
		if wantsJSON(c) {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
	}
}

// RequireAdmin must run after RequireSession.
func (h *Handler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if u := currentUser(c); u != nil && u.IsAdmin {
			c.Next()
			return
		}
		h.writeError(c, common.ErrForbidden)
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// keep a caller-supplied id only when it is a well-formed UUID
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))

		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			h.logger.Warn(c.Request.Context(), "request failed", args...)
			return
		}
		h.logger.Debug(c.Request.Context(), "request", args...)
	}
}
