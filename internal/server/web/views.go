package web

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/models"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/session"
)

// printer writes HTML fragments and keeps the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *printer) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *printer) input(label, name, typ, value string) {
	p.raw(`<label>`)
	p.text(label)
	p.raw(`<input type="` + typ + `" name="` + name + `" value="`)
	p.text(value)
	p.raw(`"></label>`)
}

func (p *printer) textarea(label, name, value string) {
	p.raw(`<label>`)
	p.text(label)
	p.raw(`<textarea name="` + name + `">`)
	p.text(value)
	p.raw(`</textarea></label>`)
}

func component(fn func(p *printer)) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		fn(p)
		return p.err
	})
}

type layoutData struct {
	AppName string
	Title   string
	User    *models.User
	Flashes []session.Flash
}

func layout(d layoutData, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>`)
		p.text(d.Title)
		p.raw(`</title><link rel="stylesheet" href="/css/app.css"></head><body><nav><a href="/">`)
		p.text(d.AppName)
		p.raw(`</a>`)
		if d.User != nil {
			p.raw(`<span class="user">`)
			p.text(d.User.DisplayName())
			p.raw(`</span><a href="/profile/edit">Profile</a>`)
			if d.User.IsAdmin {
				p.raw(`<a href="/admin">Admin</a>`)
			}
			p.raw(`<a href="/logout">Log out</a>`)
		} else {
			p.raw(`<a href="/login">Log in</a><a href="/register">Register</a>`)
		}
		p.raw(`</nav><main>`)
		for _, f := range d.Flashes {
			p.raw(`<div class="flash flash-` + string(f.Kind) + `">`)
			p.text(f.Message)
			p.raw(`</div>`)
		}
		if p.err != nil {
			return p.err
		}
		if err := content.Render(ctx, w); err != nil {
			return err
		}
		p.raw(`</main></body></html>`)
		return p.err
	})
}

func homeView(user *models.User) templ.Component {
	return component(func(p *printer) {
		p.raw(`<h1>BJCP Scoresheets</h1>`)
		if user == nil {
			p.raw(`<p>Log in or register to start judging.</p>`)
			return
		}
		p.raw(`<p>Welcome back, `)
		p.text(user.DisplayName())
		p.raw(`.</p>`)
		if !user.EmailVerified {
			p.raw(`<p class="notice">Please verify your email address.</p>`)
		}
	})
}

func attributeFields(p *printer, a models.ProfileAttributes) {
	p.input("Forename", "forename", "text", a.Forename)
	p.input("Surname", "surname", "text", a.Surname)
	p.input("BJCP ID", "bjcpId", "text", a.BJCPID)
	p.input("BJCP rank", "bjcpRank", "text", a.BJCPRank)
	p.input("Cicerone rank", "ciceroneRank", "text", a.CiceroneRank)
	p.input("Pro brewer brewery", "proBrewerBrewery", "text", a.ProBrewerBrewery)
	p.textarea("Industry description", "industryDescription", a.IndustryDescription)
	p.input("Judging years", "judgingYears", "number", a.JudgingYears)
}

// registerView re-fills the form with fData after a failed attempt.
// Passwords are never echoed back.
func registerView(fData models.RegistrationForm) templ.Component {
	return component(func(p *printer) {
		p.raw(`<h1>Register</h1><form method="post" action="/register">`)
		p.input("Email", "username", "email", fData.Username)
		p.input("Password", "password", "password", "")
		p.input("Confirm password", "passwordConfirm", "password", "")
		attributeFields(p, fData.ProfileAttributes)
		p.raw(`<button type="submit">Register</button></form>`)
	})
}

func loginView() templ.Component {
	return component(func(p *printer) {
		p.raw(`<h1>Log in</h1><form method="post" action="/login">`)
		p.input("Email", "username", "email", "")
		p.input("Password", "password", "password", "")
		p.raw(`<button type="submit">Log in</button></form>`)
		p.raw(`<form method="post" action="/resetpassword/request" class="reset">`)
		p.input("Forgot your password? Email", "email", "email", "")
		p.raw(`<button type="submit">Send reset link</button></form>`)
	})
}

func attributesOf(u *models.User) models.ProfileAttributes {
	years := ""
	if u.JudgingYears > 0 {
		years = strconv.Itoa(u.JudgingYears)
	}
	return models.ProfileAttributes{
		Forename:            u.Forename,
		Surname:             u.Surname,
		BJCPID:              u.BJCPID,
		BJCPRank:            u.BJCPRank,
		CiceroneRank:        u.CiceroneRank,
		ProBrewerBrewery:    u.ProBrewerBrewery,
		IndustryDescription: u.IndustryDescription,
		JudgingYears:        years,
	}
}

func profileView(username string, a models.ProfileAttributes) templ.Component {
	return component(func(p *printer) {
		p.raw(`<h1>Edit profile</h1><form method="post" action="/profile/edit">`)
		p.input("Email", "username", "email", username)
		p.input("Current password", "currentPassword", "password", "")
		p.input("New password", "password", "password", "")
		p.input("Confirm new password", "passwordConfirm", "password", "")
		attributeFields(p, a)
		p.raw(`<button type="submit">Save</button></form>`)
	})
}

func resetPasswordView(key string) templ.Component {
	return component(func(p *printer) {
		p.raw(`<h1>Reset password</h1><form method="post" action="/resetpassword">`)
		p.raw(`<input type="hidden" name="key" value="`)
		p.text(key)
		p.raw(`">`)
		p.input("New password", "password", "password", "")
		p.input("Confirm new password", "passwordC", "password", "")
		p.raw(`<button type="submit">Reset</button></form>`)
	})
}

func adminView(userCount int, flights []*models.Flight) templ.Component {
	return component(func(p *printer) {
		p.raw(`<h1>Control panel</h1><p>Registered users: ` + strconv.Itoa(userCount) + `</p>`)
		p.raw(`<table class="flights"><thead><tr><th>Flight</th><th>Status</th></tr></thead><tbody>`)
		for _, f := range flights {
			p.raw(`<tr data-id="`)
			p.text(f.ID)
			p.raw(`"><td>`)
			p.text(f.Name)
			p.raw(`</td><td>`)
			if f.Submitted {
				p.raw(`submitted`)
			} else {
				p.raw(`open`)
			}
			p.raw(`</td></tr>`)
		}
		p.raw(`</tbody></table>`)
	})
}
