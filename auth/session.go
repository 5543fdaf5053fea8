package auth

import (
	"encoding/json"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"studynotes/models"
)

// Session keys.
const (
	keyLoggedIn    = "isLoggedIn"
	keyCurrentUser = "currentUser"
)

// CheckLoginStatus reports whether the session flag is the literal "true".
func CheckLoginStatus(c *gin.Context) bool {
	v, _ := sessions.Default(c).Get(keyLoggedIn).(string)
	return v == "true"
}

// CurrentUser returns the session user record, if any.
func CurrentUser(c *gin.Context) (models.CurrentUser, bool) {
	var u models.CurrentUser
	raw, ok := sessions.Default(c).Get(keyCurrentUser).(string)
	if !ok || raw == "" {
		return u, false
	}
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return u, false
	}
	return u, true
}

func startSession(c *gin.Context, u models.CurrentUser) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	session := sessions.Default(c)
	session.Set(keyLoggedIn, "true")
	session.Set(keyCurrentUser, string(data))
	return session.Save()
}

func endSession(c *gin.Context) error {
	session := sessions.Default(c)
	session.Set(keyLoggedIn, "false")
	session.Delete(keyCurrentUser)
	return session.Save()
}

// SetFlash queues a message for the next rendered page.
func SetFlash(c *gin.Context, msg string) {
	session := sessions.Default(c)
	session.AddFlash(msg)
	session.Save()
}

// Flash pops the queued message, or "".
func Flash(c *gin.Context) string {
	session := sessions.Default(c)
	flashes := session.Flashes()
	if len(flashes) == 0 {
		return ""
	}
	session.Save()
	msg, _ := flashes[0].(string)
	return msg
}
