// Package admin serves the admin panel: dashboard, uploads, the notes
// table and the folder, subject and card managers.
package admin

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"studynotes/analytics"
	"studynotes/auth"
	"studynotes/cache"
	"studynotes/catalog"
	"studynotes/notes"
	"studynotes/ui"
)

const (
	msgUploaded      = "Note uploaded successfully!"
	msgFileDeleted   = "File deleted successfully!"
	msgNoteDeleted   = "Note deleted successfully!"
	msgNoFolders     = "No folders available - Create one first"
	msgPickSubject   = "Select a subject first"
	msgInvalidFolder = "Please select a valid folder"
	msgInternalError = "Something went wrong. Please try again."
)

type AdminModule struct {
	auth      *auth.AuthModule
	catalog   *catalog.Catalog
	notes     *notes.Service
	analytics *analytics.AnalyticsModule
	cache     *cache.Cache
	now       func() time.Time
}

func NewAdminModule(a *auth.AuthModule, cat *catalog.Catalog, svc *notes.Service, analyticsModule *analytics.AnalyticsModule, c *cache.Cache) *AdminModule {
	return &AdminModule{
		auth:      a,
		catalog:   cat,
		notes:     svc,
		analytics: analyticsModule,
		cache:     c,
		now:       time.Now,
	}
}

func (a *AdminModule) RegisterRoutes(router *gin.Engine) {
	adminGroup := router.Group("/admin")
	adminGroup.Use(a.auth.EnforceAdmin)
	{
		adminGroup.GET("", a.dashboard)
		adminGroup.GET("/", a.dashboard)

		adminGroup.GET("/upload", a.uploadPage)
		adminGroup.POST("/upload", a.uploadPost)
		adminGroup.POST("/upload/reorder", a.reorder)

		adminGroup.GET("/notes", a.listNotes)
		adminGroup.POST("/notes/:id/delete", a.deleteNote)
		adminGroup.POST("/notes/:id/files/:fileId/delete", a.deleteFile)

		adminGroup.GET("/folders", a.listFolders)
		adminGroup.POST("/folders", a.createFolder)
		adminGroup.GET("/folders/options", a.folderOptions)
		adminGroup.POST("/folders/:id/delete", a.deleteFolder)

		adminGroup.GET("/subjects", a.listSubjects)
		adminGroup.POST("/subjects", a.addSubject)
		adminGroup.POST("/subjects/:slug", a.editSubject)
		adminGroup.POST("/subjects/:slug/delete", a.deleteSubject)

		adminGroup.GET("/cards", a.listCards)
		adminGroup.POST("/cards", a.addCard)
		adminGroup.POST("/cards/:id", a.editCard)
		adminGroup.POST("/cards/:id/delete", a.deleteCard)
	}
}

// render adds the header data and executes name.
func (a *AdminModule) render(c *gin.Context, status int, name string, data gin.H) {
	data["user"] = ui.FromRequest(c, a.auth)
	if _, ok := data["flash"]; !ok {
		data["flash"] = auth.Flash(c)
	}
	c.HTML(status, name, data)
}

func (a *AdminModule) fail(c *gin.Context, status int, msg, back string) {
	a.render(c, status, "error.html", gin.H{
		"title": "Error",
		"error": msg,
		"back":  back,
	})
}

func (a *AdminModule) serverError(c *gin.Context, err error) {
	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("admin request failed")
	a.fail(c, http.StatusInternalServerError, msgInternalError, "/admin")
}

// confirmed reports whether the destructive form was confirmed, and shows
// the confirmation page when it was not.
func (a *AdminModule) confirmed(c *gin.Context, message, back string) bool {
	if c.PostForm("confirm") == "yes" {
		return true
	}
	a.render(c, http.StatusOK, "confirm.html", gin.H{
		"title":   "Confirm",
		"message": message,
		"action":  c.Request.URL.Path,
		"back":    back,
	})
	return false
}

func isOneOf(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil
}

func (a *AdminModule) dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	allNotes, err := a.notes.GetAllNotes(ctx)
	if err != nil {
		a.serverError(c, err)
		return
	}
	folders, err := a.notes.AllFolders(ctx)
	if err != nil {
		a.serverError(c, err)
		return
	}

	now := a.now()
	stats := ComputeStats(allNotes, folders, now)
	stats.LastLogin = now.Format(notes.DateLayout)
	if user, ok := auth.CurrentUser(c); ok {
		if t, found := a.analytics.LastLogin(user.Email); found {
			stats.LastLogin = t.Format(notes.DateLayout)
		}
	}

	a.render(c, http.StatusOK, "admin_dashboard.html", gin.H{
		"title":  "Admin",
		"stats":  stats,
		"logins": a.analytics.LoginsByDay(7),
	})
}

func (a *AdminModule) listNotes(c *gin.Context) {
	ctx := c.Request.Context()

	allNotes, err := a.notes.GetAllNotes(ctx)
	if err != nil {
		a.serverError(c, err)
		return
	}
	subjects, err := a.catalog.Subjects(ctx)
	if err != nil {
		a.serverError(c, err)
		return
	}

	a.render(c, http.StatusOK, "admin_notes.html", gin.H{
		"title":    "Manage notes",
		"table":    BuildTable(allNotes, ParseTableQuery(c.Request.URL.Query())),
		"subjects": subjects,
	})
}

func (a *AdminModule) deleteNote(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		a.fail(c, http.StatusNotFound, notes.ErrNoteNotFound.Error(), "/admin/notes")
		return
	}
	if !a.confirmed(c, "Are you sure you want to delete this note?", "/admin/notes") {
		return
	}

	err := a.notes.DeleteNote(c.Request.Context(), id)
	if errors.Is(err, notes.ErrNoteNotFound) {
		a.fail(c, http.StatusNotFound, err.Error(), "/admin/notes")
		return
	}
	if err != nil {
		a.serverError(c, err)
		return
	}

	auth.SetFlash(c, msgNoteDeleted)
	c.Redirect(http.StatusFound, "/admin/notes")
}

// deleteFile removes one attachment and sends the admin back to where the
// note is shown. A note that lost its last file is gone, so that case lands
// on the notes table.
func (a *AdminModule) deleteFile(c *gin.Context) {
	ctx := c.Request.Context()
	noteID, ok := parseID(c.Param("id"))
	if !ok {
		a.fail(c, http.StatusNotFound, notes.ErrNoteNotFound.Error(), "/admin/notes")
		return
	}

	note, found, err := a.notes.GetNote(ctx, noteID)
	if err != nil {
		a.serverError(c, err)
		return
	}
	if !found {
		a.fail(c, http.StatusNotFound, notes.ErrNoteNotFound.Error(), "/admin/notes")
		return
	}
	back := "/notes/" + strconv.FormatInt(note.ID, 10)
	if note.FolderID != nil {
		back = "/folders/" + strconv.FormatInt(*note.FolderID, 10)
	}

	if !a.confirmed(c, "Are you sure you want to delete this file?", back) {
		return
	}

	noteRemoved, err := a.notes.DeleteFileFromNote(ctx, noteID, c.Param("fileId"))
	if isOneOf(err, notes.ErrNoteNotFound, notes.ErrFileNotFound) {
		a.fail(c, http.StatusNotFound, err.Error(), back)
		return
	}
	if err != nil {
		a.serverError(c, err)
		return
	}

	auth.SetFlash(c, msgFileDeleted)
	if noteRemoved && note.FolderID == nil {
		back = "/admin/notes"
	}
	c.Redirect(http.StatusFound, back)
}
