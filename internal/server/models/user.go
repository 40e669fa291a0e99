// Package models holds the persistent records and request forms shared by the
// services, repositories and web handlers.
package models

import "time"

type User struct {
	ID                  string
	Email               string
	PasswordHash        string
	Forename            string
	Surname             string
	BJCPID              string
	BJCPRank            string
	CiceroneRank        string
	ProBrewerBrewery    string
	IndustryDescription string
	JudgingYears        int
	IsAdmin             bool
	EmailVerified       bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// DisplayName is "Forename Surname", or the email when both are empty.
func (u *User) DisplayName() string {
	switch {
	case u.Forename != "" && u.Surname != "":
		return u.Forename + " " + u.Surname
	case u.Forename != "":
		return u.Forename
	case u.Surname != "":
		return u.Surname
	default:
		return u.Email
	}
}

// ProfileAttributes are the judge attributes shared by registration and the
// profile form.
type ProfileAttributes struct {
	Forename            string `form:"forename" json:"forename"`
	Surname             string `form:"surname" json:"surname"`
	BJCPID              string `form:"bjcpId" json:"bjcpId"`
	BJCPRank            string `form:"bjcpRank" json:"bjcpRank"`
	CiceroneRank        string `form:"ciceroneRank" json:"ciceroneRank"`
	ProBrewerBrewery    string `form:"proBrewerBrewery" json:"proBrewerBrewery"`
	IndustryDescription string `form:"industryDescription" json:"industryDescription"`
	// JudgingYears is kept as submitted and parsed during validation.
	JudgingYears string `form:"judgingYears" json:"judgingYears"`
}

// ProfileForm is the full-profile edit form.
type ProfileForm struct {
	Username           string `form:"username" json:"username"`
	CurrentPassword    string `form:"currentPassword" json:"currentPassword"`
	NewPassword        string `form:"password" json:"password"`
	NewPasswordConfirm string `form:"passwordConfirm" json:"passwordConfirm"`
	ProfileAttributes
}

// RegistrationForm is the sign-up form.
type RegistrationForm struct {
	Username        string `form:"username" json:"username"`
	Password        string `form:"password" json:"password"`
	PasswordConfirm string `form:"passwordConfirm" json:"passwordConfirm"`
	ProfileAttributes
}

// EmailChange is a request to replace the account email.
type EmailChange struct {
	OldEmail string `json:"oldEmail"`
	NewEmail string `json:"newEmail"`
}

// PasswordChange is a request to replace the account password.
type PasswordChange struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}
