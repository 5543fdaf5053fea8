// Package site serves the student-facing pages: the homepage grids, subject
// and folder pages, note file views and the sitemap.
package site

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"studynotes/auth"
	"studynotes/cache"
	"studynotes/catalog"
	"studynotes/metrics"
	"studynotes/models"
	"studynotes/notes"
	"studynotes/ui"
	"studynotes/views"
)

type SiteModule struct {
	auth    *auth.AuthModule
	catalog *catalog.Catalog
	notes   *notes.Service
	cache   *cache.Cache
	ttl     time.Duration
	domain  string
}

func NewSiteModule(a *auth.AuthModule, cat *catalog.Catalog, svc *notes.Service, c *cache.Cache, ttl time.Duration, domain string) *SiteModule {
	return &SiteModule{
		auth:    a,
		catalog: cat,
		notes:   svc,
		cache:   c,
		ttl:     ttl,
		domain:  strings.TrimSuffix(domain, "/"),
	}
}

func (s *SiteModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/sitemap.xml", cache.Middleware(s.cache, cache.KeySitemap, "application/xml; charset=utf-8", s.ttl), s.sitemap)
	router.GET("/metrics", metrics.Handler())

	pages := router.Group("/")
	pages.Use(s.auth.EnforceLogin)
	{
		pages.GET("/", s.index)
		pages.GET("/subjects/:slug", s.subject)
		pages.GET("/practical-notes/:slug", s.subject)
		pages.GET("/folders/:id", s.folder)
		pages.GET("/notes/:id", s.note)
		pages.GET("/files/:noteId/:fileId", s.file)
	}
}

// page adds the header data every template expects.
func (s *SiteModule) page(c *gin.Context, data gin.H) gin.H {
	data["user"] = ui.FromRequest(c, s.auth)
	if _, ok := data["flash"]; !ok {
		data["flash"] = auth.Flash(c)
	}
	return data
}

func (s *SiteModule) fail(c *gin.Context, status int, msg string) {
	c.HTML(status, "error.html", s.page(c, gin.H{
		"title": "Error",
		"error": msg,
		"back":  "/",
	}))
}

func (s *SiteModule) serverError(c *gin.Context, err error) {
	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("page failed")
	s.fail(c, http.StatusInternalServerError, "Something went wrong. Please try again.")
}

func (s *SiteModule) index(c *gin.Context) {
	grids, err := s.cache.Fragment(cache.KeyHome, s.ttl, func() (string, error) {
		cards, err := s.catalog.Cards(c.Request.Context())
		if err != nil {
			return "", err
		}
		return views.RenderString("home_grids.html", gin.H{"groups": catalog.CardGroups(cards)})
	})
	if err != nil {
		s.serverError(c, err)
		return
	}

	c.HTML(http.StatusOK, "home.html", s.page(c, gin.H{
		"title": "Home",
		"grids": template.HTML(grids),
	}))
}

func (s *SiteModule) subject(c *gin.Context) {
	ctx := c.Request.Context()
	slug := strings.TrimSuffix(c.Param("slug"), ".html")

	subject, ok, err := s.catalog.Get(ctx, slug)
	if err != nil {
		s.serverError(c, err)
		return
	}
	if !ok {
		s.fail(c, http.StatusNotFound, catalog.ErrSubjectNotFound.Error())
		return
	}

	folders, err := s.notes.GetFoldersBySubject(ctx, slug)
	if err != nil {
		s.serverError(c, err)
		return
	}
	subjectNotes, err := s.notes.LoadNotesBySubject(ctx, slug)
	if err != nil {
		s.serverError(c, err)
		return
	}

	c.HTML(http.StatusOK, "subject.html", s.page(c, gin.H{
		"title":   subject.Name(),
		"subject": subject,
		"folders": notes.FolderRows(folders, subjectNotes),
		"notes":   subjectNotes,
	}))
}

func (s *SiteModule) folder(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.fail(c, http.StatusNotFound, notes.ErrFolderNotFound.Error())
		return
	}

	folder, ok, err := s.notes.GetFolderByID(ctx, id)
	if err != nil {
		s.serverError(c, err)
		return
	}
	if !ok {
		s.fail(c, http.StatusNotFound, notes.ErrFolderNotFound.Error())
		return
	}

	subject, found, err := s.catalog.Get(ctx, folder.Subject)
	if err != nil {
		s.serverError(c, err)
		return
	}
	if !found {
		subject = catalog.Subject{Slug: folder.Subject, Category: models.CategoryTheory}
	}

	folderNotes, err := s.notes.LoadNotesByFolder(ctx, id)
	if err != nil {
		s.serverError(c, err)
		return
	}

	c.HTML(http.StatusOK, "folder.html", s.page(c, gin.H{
		"title":   folder.Name,
		"subject": subject,
		"folder":  folder,
		"notes":   folderNotes,
		"isAdmin": s.auth.IsAdmin(c),
	}))
}

func (s *SiteModule) note(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.fail(c, http.StatusNotFound, notes.ErrNoteNotFound.Error())
		return
	}

	note, err := s.notes.NoteFiles(c.Request.Context(), id)
	switch {
	case errors.Is(err, notes.ErrNoteNotFound):
		s.fail(c, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, notes.ErrNoFiles):
		c.HTML(http.StatusOK, "note.html", s.page(c, gin.H{
			"title": note.Title,
			"note":  note,
			"error": err.Error(),
		}))
		return
	case err != nil:
		s.serverError(c, err)
		return
	}

	c.HTML(http.StatusOK, "note.html", s.page(c, gin.H{
		"title": note.Title,
		"note":  note,
	}))
}

// file streams the decoded data URL of one attachment.
func (s *SiteModule) file(c *gin.Context) {
	noteID, err := strconv.ParseInt(c.Param("noteId"), 10, 64)
	if err != nil {
		s.fail(c, http.StatusNotFound, notes.ErrFileNotFound.Error())
		return
	}

	f, err := s.notes.GetFile(c.Request.Context(), noteID, c.Param("fileId"))
	if errors.Is(err, notes.ErrNoteNotFound) || errors.Is(err, notes.ErrFileNotFound) {
		s.fail(c, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.serverError(c, err)
		return
	}

	mimeType, data, err := notes.DecodeDataURL(f.URL)
	if err != nil {
		s.serverError(c, err)
		return
	}

	etag := `"` + cache.HashBytes(data) + `"`
	c.Header("ETag", etag)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}

	c.Header("Content-Disposition", `inline; filename="`+strings.ReplaceAll(f.Name, `"`, "")+`"`)
	c.Data(http.StatusOK, mimeType, data)
}

func (s *SiteModule) sitemap(c *gin.Context) {
	ctx := c.Request.Context()

	subjects, err := s.catalog.Subjects(ctx)
	if err != nil {
		log.Error().Err(err).Msg("sitemap: load subjects")
		c.Status(http.StatusInternalServerError)
		return
	}
	folders, err := s.notes.AllFolders(ctx)
	if err != nil {
		log.Error().Err(err).Msg("sitemap: load folders")
		c.Status(http.StatusInternalServerError)
		return
	}

	var sitemap strings.Builder
	sitemap.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	sitemap.WriteString("\n")
	sitemap.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	sitemap.WriteString("\n")

	writeURL := func(loc, lastmod, changefreq, priority string) {
		sitemap.WriteString("  <url>\n")
		sitemap.WriteString("    <loc>" + template.HTMLEscapeString(s.domain+loc) + "</loc>\n")
		if lastmod != "" {
			sitemap.WriteString("    <lastmod>" + lastmod + "</lastmod>\n")
		}
		sitemap.WriteString("    <changefreq>" + changefreq + "</changefreq>\n")
		sitemap.WriteString("    <priority>" + priority + "</priority>\n")
		sitemap.WriteString("  </url>\n")
	}

	writeURL("/", "", "weekly", "1.0")
	for _, subject := range subjects {
		writeURL(subject.URL(), "", "weekly", "0.8")
	}
	for _, f := range folders {
		lastmod := ""
		if t, ok := notes.ParseDate(f.Date); ok {
			lastmod = t.Format(notes.DateLayout)
		}
		writeURL("/folders/"+strconv.FormatInt(f.ID, 10), lastmod, "monthly", "0.6")
	}

	sitemap.WriteString("</urlset>\n")

	c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(sitemap.String()))
}
