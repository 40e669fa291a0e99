package web

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/session"
	"github.com/gin-gonic/gin"
)

// writeError sends the classified form of err. Unclassified errors are sent
// as a 500 with an empty body.
func (h *Handler) writeError(c *gin.Context, err error) {
	resp := h.classifier.Classify(c.Request.Context(), err)
	if resp.Body == nil {
		c.AbortWithStatus(resp.Status)
		return
	}
	c.AbortWithStatusJSON(resp.Status, resp.Body)
}

// writeTrue is the success reply of the profile and account endpoints.
func writeTrue(c *gin.Context) {
	c.JSON(http.StatusOK, true)
}

// flash queues a message for the next page, creating an anonymous session
// when there is none yet.
func (h *Handler) flash(c *gin.Context, kind session.FlashKind, msg string) {
	ctx := c.Request.Context()
	id := sessionID(c)
	if id == "" {
		var err error
		id, err = h.sessions.Create(ctx, "")
		if err != nil {
			h.logger.Error(ctx, "create session", "error", err)
			return
		}
		c.Set(ctxKeySessionID, id)
		h.setSessionCookie(c, id)
	}
	if err := h.sessions.AddFlash(ctx, id, session.Flash{Kind: kind, Message: msg}); err != nil {
		h.logger.Error(ctx, "add flash", "error", err)
	}
}

// flashError queues the human-readable messages for err.
func (h *Handler) flashError(c *gin.Context, err error) {
	for _, msg := range h.classifier.FlashMessages(c.Request.Context(), err) {
		h.flash(c, session.FlashError, msg)
	}
}

func (h *Handler) popFlashes(c *gin.Context) []session.Flash {
	id := sessionID(c)
	if id == "" {
		return nil
	}
	flashes, err := h.sessions.PopFlashes(c.Request.Context(), id)
	if err != nil {
		h.logger.Error(c.Request.Context(), "pop flashes", "error", err)
		return nil
	}
	return flashes
}

// page renders content inside the site layout, consuming pending flashes.
func (h *Handler) page(c *gin.Context, status int, title string, content templ.Component) {
	h.pageWithFlashes(c, status, title, content, h.popFlashes(c))
}

func (h *Handler) pageWithFlashes(c *gin.Context, status int, title string, content templ.Component, flashes []session.Flash) {
	view := layout(layoutData{
		AppName: h.cfg.AppName,
		Title:   h.cfg.AppName + " - " + title,
		User:    currentUser(c),
		Flashes: flashes,
	}, content)

	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := view.Render(c.Request.Context(), c.Writer); err != nil {
		h.logger.Error(c.Request.Context(), "render page", "title", title, "error", err)
	}
}
