package web

import (
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/common"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/models"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/session"
	"github.com/gin-gonic/gin"
)

// UpdateEmail replies 200 true, 400 with the error body, or an empty 500.
func (h *Handler) UpdateEmail(c *gin.Context) {
	var req models.EmailChange
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, common.ErrInvalidField)
		return
	}

	if err := h.profiles.UpdateEmail(c.Request.Context(), currentUser(c).ID, req.OldEmail, req.NewEmail); err != nil {
		h.writeError(c, err)
		return
	}
	writeTrue(c)
}

func (h *Handler) UpdatePassword(c *gin.Context) {
	var req models.PasswordChange
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, common.ErrInvalidField)
		return
	}

	if err := h.profiles.UpdatePassword(c.Request.Context(), currentUser(c).ID, req.OldPassword, req.NewPassword); err != nil {
		h.writeError(c, err)
		return
	}
	writeTrue(c)
}

type resetRequest struct {
	Email string `form:"email" json:"email"`
}

// RequestPasswordReset always reports success so the reply does not reveal
// whether an account exists.
func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var req resetRequest
	_ = c.ShouldBind(&req)

	if err := h.users.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		h.writeError(c, err)
		return
	}

	if wantsJSON(c) {
		writeTrue(c)
		return
	}
	h.flash(c, session.FlashInfo, "If the address is registered, a reset link is on its way")
	c.Redirect(http.StatusFound, "/login")
}

type resetPassword struct {
	Key       string `form:"key" json:"key"`
	Password  string `form:"password" json:"password"`
	PasswordC string `form:"passwordC" json:"passwordC"`
}

// ResetPassword serves both the JSON client and the reset form.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetPassword
	_ = c.ShouldBind(&req)

	err := h.users.ResetPassword(c.Request.Context(), req.Key, req.Password, req.PasswordC)
	if wantsJSON(c) {
		if err != nil {
			h.writeError(c, err)
			return
		}
		writeTrue(c)
		return
	}

	if err != nil {
		h.flashError(c, err)
		c.Redirect(http.StatusFound, "/resetpassword/?key="+url.QueryEscape(req.Key))
		return
	}
	h.flash(c, session.FlashInfo, "Password changed, please log in")
	c.Redirect(http.StatusFound, "/login")
}
