package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"studynotes/analytics"
	"studynotes/auth"
	"studynotes/cache"
	"studynotes/catalog"
	"studynotes/common"
	"studynotes/database"
	"studynotes/models"
	"studynotes/notes"
	"studynotes/store"
	"studynotes/views"
)

const (
	adminEmail   = "admin@test.com"
	studentEmail = "student@test.com"
	testPassword = "secret123"
)

type testEnv struct {
	router  *gin.Engine
	notes   *notes.Service
	catalog *catalog.Catalog
	cache   *cache.Cache
	cookies map[string]*http.Cookie
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := common.ConnectDb(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))

	s := store.New(db)
	provider := auth.NewLocalProvider(s, bcrypt.MinCost)
	ctx := context.Background()
	require.NoError(t, provider.SignUp(ctx, adminEmail, testPassword))
	require.NoError(t, provider.SignUp(ctx, studentEmail, testPassword))

	analyticsModule := analytics.NewAnalyticsModule(db)
	authModule := auth.NewAuthModule(provider, []string{adminEmail}, analyticsModule)
	cat := catalog.New(s)
	svc := notes.NewService(s)
	c := cache.New(filepath.Join(t.TempDir(), "cache"))

	router := gin.New()
	router.Use(sessions.Sessions("test-session", cookie.NewStore([]byte("secret"))))
	views.Install(router)
	authModule.RegisterRoutes(router)
	NewAdminModule(authModule, cat, svc, analyticsModule, c).RegisterRoutes(router)

	return &testEnv{
		router:  router,
		notes:   svc,
		catalog: cat,
		cache:   c,
		cookies: map[string]*http.Cookie{},
	}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range e.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		e.cookies[c.Name] = c
	}
	return w
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (e *testEnv) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req)
}

func (e *testEnv) login(t *testing.T, email string) {
	t.Helper()
	w := e.postForm("/login", url.Values{"email": {email}, "password": {testPassword}})
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))
}

func (e *testEnv) addNote(t *testing.T, subject, title string, folderID *int64) models.Note {
	t.Helper()
	n, err := e.notes.CreateNote(context.Background(), notes.NewNote{
		Subject:  subject,
		FolderID: folderID,
		Title:    title,
		Files: []notes.Upload{
			notes.BytesUpload{FileName: title + ".pdf", MIME: "application/pdf", Data: []byte("%PDF-1.4")},
		},
	})
	require.NoError(t, err)
	return n
}

type testFile struct {
	name, mime, body string
}

func multipartUpload(t *testing.T, fields map[string]string, files []testFile) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, f.name))
		h.Set("Content-Type", f.mime)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	env := setupTestEnv(t)

	w := env.get("/admin")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	env.login(t, studentEmail)
	w = env.get("/admin/upload")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestDashboard(t *testing.T) {
	env := setupTestEnv(t)
	env.addNote(t, "oop", "Classes", nil)
	env.addNote(t, "oop", "Objects", nil)
	env.addNote(t, "python", "Loops", nil)
	env.login(t, adminEmail)

	w := env.get("/admin")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `<span id="total-notes">3</span>`)
	assert.Contains(t, body, `<span id="total-subjects">2</span>`)
	assert.Contains(t, body, `<span id="most-active-subject">oop</span>`)
	assert.Contains(t, body, time.Now().Format(notes.DateLayout))
	assert.Contains(t, body, "Welcome, admin")
}

func TestUploadRejectsInvalidForms(t *testing.T) {
	env := setupTestEnv(t)
	env.login(t, adminEmail)

	tests := []struct {
		name    string
		fields  map[string]string
		files   []testFile
		message string
	}{
		{"no subject", map[string]string{"title": "T"}, []testFile{{"a.pdf", "application/pdf", "x"}}, "Please select a subject"},
		{"no title", map[string]string{"subject": "oop", "title": "  "}, []testFile{{"a.pdf", "application/pdf", "x"}}, "Please enter a title"},
		{"no files", map[string]string{"subject": "oop", "title": "T"}, nil, "Please select at least one file"},
		{"zip", map[string]string{"subject": "oop", "title": "T"}, []testFile{{"a.zip", "application/zip", "x"}}, "Invalid file type for a.zip"},
		{"bad order", map[string]string{"subject": "oop", "title": "T", "order": "0,0"}, []testFile{{"a.pdf", "application/pdf", "x"}}, "Invalid file order"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(multipartUpload(t, tt.fields, tt.files))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
		})
	}

	all, err := env.notes.GetAllNotes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUploadCreatesNoteInChosenOrder(t *testing.T) {
	env := setupTestEnv(t)
	env.login(t, adminEmail)

	folder, err := env.notes.CreateFolder(context.Background(), "oop", "Unit 1")
	require.NoError(t, err)

	req := multipartUpload(t, map[string]string{
		"subject":     "oop",
		"folderId":    fmt.Sprint(folder.ID),
		"title":       "Inheritance",
		"description": "**bold**",
		"order":       "1,0",
	}, []testFile{
		{"first.pdf", "application/pdf", "one"},
		{"second.png", "image/png", "two"},
	})
	w := env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Note uploaded successfully!")

	all, err := env.notes.GetAllNotes(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	n := all[0]
	assert.Equal(t, "Inheritance", n.Title)
	assert.True(t, n.InFolder(folder.ID))
	require.Len(t, n.Files, 2)
	assert.Equal(t, "second.png", n.Files[0].Name)
	assert.Equal(t, "first.pdf", n.Files[1].Name)
}

func TestUploadRejectsForeignOrMissingFolder(t *testing.T) {
	env := setupTestEnv(t)
	env.login(t, adminEmail)

	other, err := env.notes.CreateFolder(context.Background(), "dbms", "Unit 1")
	require.NoError(t, err)

	for name, folderID := range map[string]string{
		"other subject": fmt.Sprint(other.ID),
		"missing":       "12345",
	} {
		t.Run(name, func(t *testing.T) {
			w := env.do(multipartUpload(t, map[string]string{
				"subject":  "oop",
				"folderId": folderID,
				"title":    "Inheritance",
			}, []testFile{{"a.pdf", "application/pdf", "x"}}))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "Please select a valid folder")
		})
	}

	all, err := env.notes.GetAllNotes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestReorderEndpoint(t *testing.T) {
	env := setupTestEnv(t)
	env.login(t, adminEmail)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/admin/upload/reorder", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return env.do(req)
	}

	w := post(`{"order":[0,1,2],"op":"up","index":2}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Order []int `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []int{0, 2, 1}, resp.Order)

	w = post(`{"order":[0,1,2],"op":"move","index":0,"to":2}`)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []int{1, 2, 0}, resp.Order)

	w = post(`{"order":[0,1],"op":"shuffle"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestManageNotesTable(t *testing.T) {
	env := setupTestEnv(t)
	for i := 0; i < 12; i++ {
		env.addNote(t, "oop", fmt.Sprintf("Note %02d", i), nil)
	}
	env.addNote(t, "python", "Snakes", nil)
	env.login(t, adminEmail)

	w := env.get("/admin/notes")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `<span id="total-pages">2</span>`)
	assert.Contains(t, body, `<button id="prev-page" disabled>`)

	w = env.get("/admin/notes?search=snake")
	body = w.Body.String()
	assert.Contains(t, body, "Snakes")
	assert.NotContains(t, body, "Note 01")
	assert.Contains(t, body, `<button id="next-page" disabled>`)
}

func TestDeleteNoteNeedsConfirmation(t *testing.T) {
	env := setupTestEnv(t)
	n := env.addNote(t, "oop", "Doomed", nil)
	env.login(t, adminEmail)
	path := fmt.Sprintf("/admin/notes/%d/delete", n.ID)

	w := env.postForm(path, url.Values{})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Are you sure you want to delete this note?")
	_, found, err := env.notes.GetNote(context.Background(), n.ID)
	require.NoError(t, err)
	assert.True(t, found)

	w = env.postForm(path, url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusFound, w.Code)
	_, found, err = env.notes.GetNote(context.Background(), n.ID)
	require.NoError(t, err)
	assert.False(t, found)

	w = env.postForm(path, url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Note not found.")
}

func TestDeleteFileRedirectsToFolder(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	folder, err := env.notes.CreateFolder(ctx, "oop", "Unit 1")
	require.NoError(t, err)
	n := env.addNote(t, "oop", "Single", &folder.ID)
	env.login(t, adminEmail)

	w := env.postForm(fmt.Sprintf("/admin/notes/%d/files/%s/delete", n.ID, n.Files[0].ID), url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/folders/%d", folder.ID), w.Header().Get("Location"))

	// The only file went, so the note went with it.
	_, found, err := env.notes.GetNote(ctx, n.ID)
	require.NoError(t, err)
	assert.False(t, found)

	w = env.postForm(fmt.Sprintf("/admin/notes/%d/files/x/delete", n.ID), url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFolders(t *testing.T) {
	env := setupTestEnv(t)
	env.login(t, adminEmail)

	w := env.postForm("/admin/folders", url.Values{"name": {"Unit 1"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please select a subject")

	w = env.postForm("/admin/folders", url.Values{"subject": {"oop"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please enter a folder name")

	w = env.get("/admin/folders/options?subject=oop")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No folders available - Create one first")

	w = env.postForm("/admin/folders", url.Values{"subject": {"oop"}, "name": {"Unit 1"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Folder created successfully!")

	w = env.get("/admin/folders/options?subject=oop")
	var resp struct {
		Folders []models.Folder `json:"folders"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Folders, 1)
	assert.Equal(t, "Unit 1", resp.Folders[0].Name)

	folderID := resp.Folders[0].ID
	env.addNote(t, "oop", "Inside", &folderID)

	w = env.postForm(fmt.Sprintf("/admin/folders/%d/delete", folderID), url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusOK, w.Code)
	all, err := env.notes.GetAllNotes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSubjects(t *testing.T) {
	env := setupTestEnv(t)
	env.login(t, adminEmail)
	ctx := context.Background()

	w := env.postForm("/admin/subjects", url.Values{"name": {""}, "category": {"theory"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please enter a subject name")

	w = env.postForm("/admin/subjects", url.Values{"name": {"Data Science"}, "category": {"practical"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Subject added successfully!")

	w = env.postForm("/admin/subjects", url.Values{"name": {"data science"}, "category": {"theory"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Subject already exists")

	w = env.get("/admin/subjects?edit=data-science")
	assert.Contains(t, w.Body.String(), `action="/admin/subjects/data-science"`)

	w = env.postForm("/admin/subjects/data-science", url.Values{"name": {"ml"}, "category": {"extra"}})
	assert.Equal(t, http.StatusOK, w.Code)
	s, found, err := env.catalog.Get(ctx, "ml")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.CategoryExtra, s.Category)

	w = env.postForm("/admin/subjects/ml", url.Values{"name": {"oop"}, "category": {"extra"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "A subject with this name already exists")

	w = env.postForm("/admin/subjects/ml/delete", url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusOK, w.Code)
	_, found, err = env.catalog.Get(ctx, "ml")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCardMutationsClearHomeCache(t *testing.T) {
	env := setupTestEnv(t)
	env.login(t, adminEmail)
	ctx := context.Background()

	require.NoError(t, env.cache.Write(cache.KeyHome, "stale"))

	w := env.postForm("/admin/cards", url.Values{"title": {""}, "url": {"x.html"}, "category": {"theory"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please enter a card title")
	_, cached := env.cache.Read(cache.KeyHome, time.Minute)
	assert.True(t, cached)

	w = env.postForm("/admin/cards", url.Values{"title": {"Rust"}, "url": {"practical-notes/rust.html"}, "category": {"practical"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Card added successfully!")
	_, cached = env.cache.Read(cache.KeyHome, time.Minute)
	assert.False(t, cached)

	cards, err := env.catalog.Cards(ctx)
	require.NoError(t, err)
	last := cards[len(cards)-1]
	assert.Equal(t, "Rust", last.Title)

	w = env.postForm(fmt.Sprintf("/admin/cards/%d", last.ID), url.Values{"title": {"Rust"}, "url": {"r.html"}, "category": {"nope"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.postForm(fmt.Sprintf("/admin/cards/%d/delete", last.ID), url.Values{})
	assert.Contains(t, w.Body.String(), "Are you sure you want to delete this card?")

	w = env.postForm(fmt.Sprintf("/admin/cards/%d/delete", last.ID), url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusOK, w.Code)
	_, found, err := env.catalog.Card(ctx, last.ID)
	require.NoError(t, err)
	assert.False(t, found)

	w = env.postForm("/admin/cards/9999/delete", url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
