// Package ui builds the login/logout header shown on every page.
package ui

import (
	"strings"

	"github.com/gin-gonic/gin"

	"studynotes/auth"
	"studynotes/models"
)

// UserArea is the data behind the "user_area" template.
type UserArea struct {
	LoggedIn    bool
	DisplayName string
	ShowAdmin   bool
}

// Welcome is the greeting of a logged-in user.
func (u UserArea) Welcome() string {
	return "Welcome, " + u.DisplayName
}

// DisplayName is the local part of email, or "User".
func DisplayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return "User"
	}
	return local
}

// NewUserArea renders from explicit state.
func NewUserArea(loggedIn bool, user models.CurrentUser, isAdmin bool) UserArea {
	if !loggedIn {
		return UserArea{}
	}
	return UserArea{
		LoggedIn:    true,
		DisplayName: DisplayName(user.Email),
		ShowAdmin:   isAdmin,
	}
}

// FromRequest reads the session of c.
func FromRequest(c *gin.Context, a *auth.AuthModule) UserArea {
	user, _ := auth.CurrentUser(c)
	return NewUserArea(auth.CheckLoginStatus(c), user, a.IsAdmin(c))
}
