// Package auth handles signup, login and logout, keeps the login state in
// the cookie session and guards pages that need a user or an admin.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"studynotes/analytics"
	"studynotes/metrics"
	"studynotes/models"
)

// LegacyAdminEmail is always an admin, whatever the allow-list says.
const LegacyAdminEmail = "admin@local.com"

const localDomain = "@local.com"

type AuthModule struct {
	provider  Provider
	admins    []string
	analytics *analytics.AnalyticsModule
}

func NewAuthModule(provider Provider, adminEmails []string, analyticsModule *analytics.AnalyticsModule) *AuthModule {
	admins := make([]string, 0, len(adminEmails))
	for _, e := range adminEmails {
		if e = strings.TrimSpace(e); e != "" {
			admins = append(admins, e)
		}
	}
	return &AuthModule{
		provider:  provider,
		admins:    admins,
		analytics: analyticsModule,
	}
}

func (a *AuthModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/login", a.loginPage)
	router.POST("/login", a.loginPost)
	router.GET("/login/google", a.googleLogin)
	router.GET("/signup", a.signupPage)
	router.POST("/signup", a.signupPost)
	router.GET("/logout", a.logout)
	router.POST("/logout", a.logout)
}

// NormalizeIdentifier turns a bare username into "<name>@local.com".
func NormalizeIdentifier(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || strings.Contains(id, "@") {
		return id
	}
	return id + localDomain
}

// Signup registers a new account.
func (a *AuthModule) Signup(ctx context.Context, email, password, confirmPassword string) error {
	if password != confirmPassword {
		return ErrPasswordMismatch
	}
	return a.provider.SignUp(ctx, NormalizeIdentifier(email), password)
}

// Login checks the credentials and returns the record to keep in the session.
func (a *AuthModule) Login(ctx context.Context, email, password string) (models.CurrentUser, error) {
	email = NormalizeIdentifier(email)
	if err := a.provider.SignIn(ctx, email, password); err != nil {
		return models.CurrentUser{}, err
	}
	return models.CurrentUser{Email: email, IsAdmin: a.inAllowList(email)}, nil
}

func (a *AuthModule) inAllowList(email string) bool {
	for _, e := range a.admins {
		if e == email {
			return true
		}
	}
	return false
}

// IsAdminUser applies every admin rule to u.
func (a *AuthModule) IsAdminUser(u models.CurrentUser) bool {
	return u.IsAdmin || u.Email == LegacyAdminEmail || a.inAllowList(u.Email)
}

// IsAdmin reports whether the request belongs to a logged-in admin.
func (a *AuthModule) IsAdmin(c *gin.Context) bool {
	if !CheckLoginStatus(c) {
		return false
	}
	u, ok := CurrentUser(c)
	return ok && a.IsAdminUser(u)
}

// EnforceLogin sends visitors without a session to /login.
func (a *AuthModule) EnforceLogin(c *gin.Context) {
	if !CheckLoginStatus(c) {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}
	c.Next()
}

// EnforceAdmin requires a logged-in admin.
func (a *AuthModule) EnforceAdmin(c *gin.Context) {
	if !CheckLoginStatus(c) {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}
	if !a.IsAdmin(c) {
		SetFlash(c, "Access denied. Admin only.")
		c.Redirect(http.StatusFound, "/")
		c.Abort()
		return
	}
	c.Next()
}

func (a *AuthModule) loginPage(c *gin.Context) {
	if CheckLoginStatus(c) {
		c.Redirect(http.StatusFound, "/")
		return
	}

	c.HTML(http.StatusOK, "login.html", gin.H{
		"flash": Flash(c),
	})
}

func (a *AuthModule) loginPost(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	user, err := a.Login(c.Request.Context(), email, password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		status, msg := errorResponse(err)
		c.HTML(status, "login.html", gin.H{
			"error": msg,
			"email": email,
		})
		return
	}

	if err := startSession(c, user); err != nil {
		log.Error().Err(err).Msg("Error saving session")
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{
			"error": "Could not start session. Please try again.",
			"email": email,
		})
		return
	}
	a.analytics.TrackLogin(c, user.Email)
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	log.Info().Str("email", user.Email).Bool("admin", user.IsAdmin).Msg("login")
	c.Redirect(http.StatusFound, "/")
}

func (a *AuthModule) googleLogin(c *gin.Context) {
	c.HTML(http.StatusNotImplemented, "login.html", gin.H{
		"error": ErrGoogleUnavailable.Error(),
	})
}

func (a *AuthModule) signupPage(c *gin.Context) {
	if CheckLoginStatus(c) {
		c.Redirect(http.StatusFound, "/")
		return
	}

	c.HTML(http.StatusOK, "signup.html", gin.H{})
}

func (a *AuthModule) signupPost(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")
	confirmPassword := c.PostForm("confirmPassword")

	if err := a.Signup(c.Request.Context(), email, password, confirmPassword); err != nil {
		status, msg := errorResponse(err)
		c.HTML(status, "signup.html", gin.H{
			"error": msg,
			"email": email,
		})
		return
	}

	SetFlash(c, "Signup successful! Please log in.")
	c.Redirect(http.StatusFound, "/login")
}

func (a *AuthModule) logout(c *gin.Context) {
	if err := a.provider.SignOut(c.Request.Context()); err != nil {
		log.Warn().Err(err).Msg("provider sign-out failed")
	}
	if err := endSession(c); err != nil {
		log.Error().Err(err).Msg("Error clearing session")
	}

	c.Redirect(http.StatusFound, "/login")
}

func errorResponse(err error) (int, string) {
	var pe *ProviderError
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, ErrPasswordMismatch), errors.Is(err, ErrEmailExists):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &pe):
		return http.StatusBadGateway, pe.Error()
	}
	log.Error().Err(err).Msg("auth failure")
	return http.StatusInternalServerError, "Something went wrong. Please try again."
}
