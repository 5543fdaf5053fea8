package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"studynotes/analytics"
	"studynotes/common"
	"studynotes/database"
	"studynotes/models"
	"studynotes/store"
	"studynotes/views"
)

type client struct {
	router  *gin.Engine
	cookies map[string]*http.Cookie
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		c.cookies[ck.Name] = ck
	}
	return w
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func setupTestStore(t *testing.T) (*store.Store, *analytics.AnalyticsModule) {
	t.Helper()
	db, err := common.ConnectDb(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))
	return store.New(db), analytics.NewAnalyticsModule(db)
}

func setupTestRouter(t *testing.T, admins ...string) (*client, *AuthModule) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, analyticsModule := setupTestStore(t)
	a := NewAuthModule(NewLocalProvider(s, bcrypt.MinCost), admins, analyticsModule)

	router := gin.New()
	router.Use(sessions.Sessions("test-session", cookie.NewStore([]byte("secret"))))
	views.Install(router)
	a.RegisterRoutes(router)

	router.GET("/", a.EnforceLogin, func(c *gin.Context) {
		c.String(http.StatusOK, "home flash=%s", Flash(c))
	})
	router.GET("/admin", a.EnforceAdmin, func(c *gin.Context) {
		c.String(http.StatusOK, "admin")
	})

	return &client{router: router, cookies: map[string]*http.Cookie{}}, a
}

func TestNormalizeIdentifier(t *testing.T) {
	assert.Equal(t, "admin@local.com", NormalizeIdentifier("admin"))
	assert.Equal(t, "jane@example.com", NormalizeIdentifier(" jane@example.com "))
	assert.Equal(t, "", NormalizeIdentifier("  "))
}

func TestSignupLoginLogout(t *testing.T) {
	c, _ := setupTestRouter(t)

	w := c.get("/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w = c.post("/signup", url.Values{
		"email":           {"student@test.com"},
		"password":        {"pw123456"},
		"confirmPassword": {"pw123456"},
	})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w = c.get("/login")
	assert.Contains(t, w.Body.String(), "Signup successful! Please log in.")

	w = c.post("/login", url.Values{"email": {"student@test.com"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid email or password.")

	w = c.post("/login", url.Values{"email": {"student@test.com"}, "password": {"pw123456"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = c.get("/")
	assert.Equal(t, http.StatusOK, w.Code)

	// Logged-in users skip the login page.
	w = c.get("/login")
	assert.Equal(t, http.StatusFound, w.Code)

	w = c.post("/logout", url.Values{})
	assert.Equal(t, http.StatusFound, w.Code)
	w = c.get("/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestSignupErrors(t *testing.T) {
	c, a := setupTestRouter(t)
	require.NoError(t, a.Signup(context.Background(), "taken@test.com", "pw", "pw"))

	w := c.post("/signup", url.Values{"email": {"x@test.com"}, "password": {"a"}, "confirmPassword": {"b"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Passwords do not match.")

	w = c.post("/signup", url.Values{"email": {"taken@test.com"}, "password": {"pw"}, "confirmPassword": {"pw"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Email already exists.")
}

func TestBareUsernameLogin(t *testing.T) {
	c, a := setupTestRouter(t)
	require.NoError(t, a.Signup(context.Background(), "admin", "pw", "pw"))

	w := c.post("/login", url.Values{"email": {"admin"}, "password": {"pw"}})
	require.Equal(t, http.StatusFound, w.Code)

	// admin@local.com is always an admin.
	w = c.get("/admin")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEnforceAdmin(t *testing.T) {
	c, a := setupTestRouter(t, "boss@test.com")
	ctx := context.Background()
	require.NoError(t, a.Signup(ctx, "boss@test.com", "pw", "pw"))
	require.NoError(t, a.Signup(ctx, "student@test.com", "pw", "pw"))

	w := c.get("/admin")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	c.post("/login", url.Values{"email": {"student@test.com"}, "password": {"pw"}})
	w = c.get("/admin")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	w = c.get("/")
	assert.Contains(t, w.Body.String(), "flash=Access denied. Admin only.")

	c.post("/logout", url.Values{})
	c.post("/login", url.Values{"email": {"boss@test.com"}, "password": {"pw"}})
	w = c.get("/admin")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginRecordsAdminFlag(t *testing.T) {
	_, a := setupTestRouter(t, "boss@test.com")
	ctx := context.Background()
	require.NoError(t, a.Signup(ctx, "boss@test.com", "pw", "pw"))

	u, err := a.Login(ctx, "boss@test.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, models.CurrentUser{Email: "boss@test.com", IsAdmin: true}, u)

	assert.True(t, a.IsAdminUser(models.CurrentUser{Email: LegacyAdminEmail}))
	assert.False(t, a.IsAdminUser(models.CurrentUser{Email: "nobody@test.com"}))
}

func TestGoogleLoginUnavailable(t *testing.T) {
	c, _ := setupTestRouter(t)
	w := c.get("/login/google")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Contains(t, w.Body.String(), "Google authentication is not available.")
}

func TestLocalProviderHashesPasswords(t *testing.T) {
	s, _ := setupTestStore(t)
	p := NewLocalProvider(s, bcrypt.MinCost)
	ctx := context.Background()

	require.NoError(t, p.SignUp(ctx, "a@test.com", "pw"))
	assert.ErrorIs(t, p.SignUp(ctx, "a@test.com", "other"), ErrEmailExists)

	users, err := store.Get(ctx, s, models.KeyUsers, []models.User{})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.NotEqual(t, "pw", users[0].PasswordHash)
	assert.True(t, checkPasswordHash("pw", users[0].PasswordHash))

	assert.NoError(t, p.SignIn(ctx, "a@test.com", "pw"))
	assert.ErrorIs(t, p.SignIn(ctx, "a@test.com", "nope"), ErrInvalidCredentials)
	assert.ErrorIs(t, p.SignIn(ctx, "b@test.com", "pw"), ErrInvalidCredentials)
}
