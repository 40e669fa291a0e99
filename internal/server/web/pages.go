package web

import (
	"net/http"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/common"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/models"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/session"
	"github.com/gin-gonic/gin"
)

func (h *Handler) Home(c *gin.Context) {
	h.page(c, http.StatusOK, "Home", homeView(currentUser(c)))
}

func (h *Handler) RegisterPage(c *gin.Context) {
	h.page(c, http.StatusOK, "Register", registerView(models.RegistrationForm{}))
}

// Register creates the account. Failures re-render the form with the
// submitted data and the error messages.
func (h *Handler) Register(c *gin.Context) {
	var form models.RegistrationForm
	if err := c.ShouldBind(&form); err != nil {
		h.writeError(c, common.ErrInvalidField)
		return
	}

	if _, err := h.users.Register(c.Request.Context(), form); err != nil {
		msgs := h.classifier.FlashMessages(c.Request.Context(), err)
		flashes := make([]session.Flash, 0, len(msgs))
		for _, m := range msgs {
			flashes = append(flashes, session.Flash{Kind: session.FlashError, Message: m})
		}
		h.pageWithFlashes(c, http.StatusOK, "Register", registerView(form), flashes)
		return
	}

	h.flash(c, session.FlashInfo, "Registration Successful")
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) LoginPage(c *gin.Context) {
	h.page(c, http.StatusOK, "Login", loginView())
}

type loginForm struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// Login starts a signed-in session. Any previous session is replaced.
func (h *Handler) Login(c *gin.Context) {
	var form loginForm
	_ = c.ShouldBind(&form)
	ctx := c.Request.Context()

	user, err := h.users.Authenticate(ctx, form.Username, form.Password)
	if err != nil {
		h.flashError(c, err)
		c.Redirect(http.StatusFound, "/login")
		return
	}

	if old := sessionID(c); old != "" {
		_ = h.sessions.Delete(ctx, old)
	}
	id, err := h.sessions.Create(ctx, user.ID)
	if err != nil {
		h.logger.Error(ctx, "create session", "error", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Set(ctxKeySessionID, id)
	c.Set(ctxKeyUser, user)
	h.setSessionCookie(c, id)

	h.flash(c, session.FlashInfo, "Login Successful")
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) Logout(c *gin.Context) {
	if id := sessionID(c); id != "" {
		if err := h.sessions.Delete(c.Request.Context(), id); err != nil {
			h.logger.Error(c.Request.Context(), "delete session", "error", err)
		}
	}
	h.clearSessionCookie(c)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) ProfilePage(c *gin.Context) {
	u := currentUser(c)
	h.page(c, http.StatusOK, "Edit Profile", profileView(u.Email, attributesOf(u)))
}

// SaveProfile handles the full profile form. Problems are flashed and the
// form is shown again with the submitted values.
func (h *Handler) SaveProfile(c *gin.Context) {
	var form models.ProfileForm
	if err := c.ShouldBind(&form); err != nil {
		h.writeError(c, common.ErrInvalidField)
		return
	}

	u := currentUser(c)
	saved, err := h.profiles.SaveProfile(c.Request.Context(), u.ID, form)
	if err != nil {
		h.flashError(c, err)
		h.page(c, http.StatusOK, "Edit Profile", profileView(form.Username, form.ProfileAttributes))
		return
	}

	c.Set(ctxKeyUser, saved)
	h.flash(c, session.FlashInfo, "Profile Saved")
	c.Redirect(http.StatusFound, "/profile/edit")
}

func (h *Handler) AdminPage(c *gin.Context) {
	ctx := c.Request.Context()

	count, err := h.users.CountUsers(ctx)
	if err != nil {
		h.writeError(c, err)
		return
	}
	flights, err := h.flights.List(ctx)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.page(c, http.StatusOK, "Admin", adminView(count, flights))
}

// ValidateEmail consumes the link from the verification email.
func (h *Handler) ValidateEmail(c *gin.Context) {
	if _, err := h.users.VerifyEmail(c.Request.Context(), c.Query("key")); err != nil {
		h.flashError(c, err)
	} else {
		h.flash(c, session.FlashInfo, "Email address verified")
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) ResetPasswordPage(c *gin.Context) {
	h.page(c, http.StatusOK, "Reset Password", resetPasswordView(c.Query("key")))
}
