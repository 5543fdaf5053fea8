package admin

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"studynotes/cache"
	"studynotes/catalog"
	"studynotes/models"
	"studynotes/notes"
)

const (
	msgFolderCreated  = "Folder created successfully!"
	msgFolderDeleted  = "Folder deleted successfully!"
	msgSubjectAdded   = "Subject added successfully!"
	msgSubjectUpdated = "Subject updated successfully!"
	msgSubjectDeleted = "Subject deleted successfully!"
	msgCardAdded      = "Card added successfully!"
	msgCardUpdated    = "Card updated successfully!"
	msgCardDeleted    = "Card deleted successfully!"
)

// Folders

func (a *AdminModule) renderFolders(c *gin.Context, status int, data gin.H) {
	ctx := c.Request.Context()

	subjects, err := a.catalog.Subjects(ctx)
	if err != nil {
		a.serverError(c, err)
		return
	}
	folders, err := a.notes.AllFolders(ctx)
	if err != nil {
		a.serverError(c, err)
		return
	}
	allNotes, err := a.notes.GetAllNotes(ctx)
	if err != nil {
		a.serverError(c, err)
		return
	}

	data["title"] = "Folders"
	data["subjects"] = subjects
	data["folders"] = notes.FolderRows(folders, allNotes)
	for _, k := range []string{"subject", "name"} {
		if _, ok := data[k]; !ok {
			data[k] = ""
		}
	}
	a.render(c, status, "admin_folders.html", data)
}

func (a *AdminModule) listFolders(c *gin.Context) {
	a.renderFolders(c, http.StatusOK, gin.H{})
}

func (a *AdminModule) createFolder(c *gin.Context) {
	subject := strings.TrimSpace(c.PostForm("subject"))
	name := c.PostForm("name")

	folder, err := a.notes.CreateFolder(c.Request.Context(), subject, name)
	if isOneOf(err, notes.ErrSubjectRequired, notes.ErrFolderNameRequired) {
		a.renderFolders(c, http.StatusBadRequest, gin.H{
			"error":   err.Error(),
			"subject": subject,
			"name":    name,
		})
		return
	}
	if err != nil {
		a.serverError(c, err)
		return
	}

	a.cache.Invalidate(cache.KeySitemap)
	a.renderFolders(c, http.StatusOK, gin.H{
		"success": msgFolderCreated,
		"subject": folder.Subject,
	})
}

func (a *AdminModule) deleteFolder(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		a.fail(c, http.StatusNotFound, notes.ErrFolderNotFound.Error(), "/admin/folders")
		return
	}
	if !a.confirmed(c, "Are you sure you want to delete this folder? All notes in this folder will also be deleted.", "/admin/folders") {
		return
	}

	_, err := a.notes.DeleteFolder(c.Request.Context(), id)
	if errors.Is(err, notes.ErrFolderNotFound) {
		a.fail(c, http.StatusNotFound, err.Error(), "/admin/folders")
		return
	}
	if err != nil {
		a.serverError(c, err)
		return
	}

	a.cache.Invalidate(cache.KeySitemap)
	a.renderFolders(c, http.StatusOK, gin.H{"success": msgFolderDeleted})
}

// folderOptions feeds the folder select of the upload form.
func (a *AdminModule) folderOptions(c *gin.Context) {
	folders, err := a.notes.GetFoldersBySubject(c.Request.Context(), c.Query("subject"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternalError})
		return
	}
	if len(folders) == 0 {
		c.JSON(http.StatusOK, gin.H{"folders": []models.Folder{}, "message": msgNoFolders})
		return
	}
	c.JSON(http.StatusOK, gin.H{"folders": folders})
}

// Subjects

func (a *AdminModule) renderSubjects(c *gin.Context, status int, data gin.H) {
	subjects, err := a.catalog.Subjects(c.Request.Context())
	if err != nil {
		a.serverError(c, err)
		return
	}

	data["title"] = "Subjects"
	data["subjects"] = subjects
	data["categories"] = models.Categories
	if _, ok := data["editing"]; !ok {
		data["editing"] = c.Query("edit")
	}
	a.render(c, status, "admin_subjects.html", data)
}

func (a *AdminModule) listSubjects(c *gin.Context) {
	a.renderSubjects(c, http.StatusOK, gin.H{})
}

func (a *AdminModule) addSubject(c *gin.Context) {
	_, err := a.catalog.AddSubject(c.Request.Context(), c.PostForm("name"), c.PostForm("category"))
	if isOneOf(err, catalog.ErrSubjectNameRequired, catalog.ErrSubjectExists, catalog.ErrInvalidCategory) {
		a.renderSubjects(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		a.serverError(c, err)
		return
	}

	a.cache.Invalidate(cache.KeySitemap)
	a.renderSubjects(c, http.StatusOK, gin.H{"success": msgSubjectAdded})
}

func (a *AdminModule) editSubject(c *gin.Context) {
	original := c.Param("slug")

	_, err := a.catalog.RenameSubject(c.Request.Context(), original, c.PostForm("name"), c.PostForm("category"))
	if errors.Is(err, catalog.ErrSubjectNotFound) {
		a.fail(c, http.StatusNotFound, err.Error(), "/admin/subjects")
		return
	}
	if isOneOf(err, catalog.ErrSubjectNameEmpty, catalog.ErrSubjectNameTaken, catalog.ErrInvalidCategory) {
		a.renderSubjects(c, http.StatusBadRequest, gin.H{
			"error":   err.Error(),
			"editing": original,
		})
		return
	}
	if err != nil {
		a.serverError(c, err)
		return
	}

	a.cache.Invalidate(cache.KeySitemap)
	a.renderSubjects(c, http.StatusOK, gin.H{
		"success": msgSubjectUpdated,
		"editing": "",
	})
}

func (a *AdminModule) deleteSubject(c *gin.Context) {
	slug := c.Param("slug")
	msg := `Are you sure you want to delete the subject "` + slug + `"? This will not affect existing notes with this subject.`
	if !a.confirmed(c, msg, "/admin/subjects") {
		return
	}

	err := a.catalog.DeleteSubject(c.Request.Context(), slug)
	if errors.Is(err, catalog.ErrSubjectNotFound) {
		a.fail(c, http.StatusNotFound, err.Error(), "/admin/subjects")
		return
	}
	if err != nil {
		a.serverError(c, err)
		return
	}

	a.cache.Invalidate(cache.KeySitemap)
	a.renderSubjects(c, http.StatusOK, gin.H{
		"success": msgSubjectDeleted,
		"editing": "",
	})
}

// Cards

func (a *AdminModule) renderCards(c *gin.Context, status int, data gin.H) {
	ctx := c.Request.Context()

	cards, err := a.catalog.Cards(ctx)
	if err != nil {
		a.serverError(c, err)
		return
	}

	if _, ok := data["editing"]; !ok {
		if id, ok := parseID(c.Query("edit")); ok {
			card, found, err := a.catalog.Card(ctx, id)
			if err != nil {
				a.serverError(c, err)
				return
			}
			if found {
				data["editing"] = &card
			}
		}
	}
	if _, ok := data["form"]; !ok {
		data["form"] = map[string]string{"title": "", "url": ""}
	}

	data["title"] = "Cards"
	data["cards"] = cards
	data["categories"] = models.Categories
	a.render(c, status, "admin_cards.html", data)
}

func (a *AdminModule) listCards(c *gin.Context) {
	a.renderCards(c, http.StatusOK, gin.H{})
}

func (a *AdminModule) addCard(c *gin.Context) {
	title := c.PostForm("title")
	url := c.PostForm("url")

	_, err := a.catalog.AddCard(c.Request.Context(), title, url, c.PostForm("category"))
	if isOneOf(err, catalog.ErrCardTitleRequired, catalog.ErrCardURLRequired, catalog.ErrInvalidCategory) {
		a.renderCards(c, http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"form":  map[string]string{"title": title, "url": url},
		})
		return
	}
	if err != nil {
		a.serverError(c, err)
		return
	}

	a.cache.Invalidate(cache.KeyHome)
	a.renderCards(c, http.StatusOK, gin.H{"success": msgCardAdded})
}

func (a *AdminModule) editCard(c *gin.Context) {
	ctx := c.Request.Context()
	id, ok := parseID(c.Param("id"))
	if !ok {
		a.fail(c, http.StatusNotFound, catalog.ErrCardNotFound.Error(), "/admin/cards")
		return
	}

	err := a.catalog.EditCard(ctx, id, c.PostForm("title"), c.PostForm("url"), c.PostForm("category"))
	if errors.Is(err, catalog.ErrCardNotFound) {
		a.fail(c, http.StatusNotFound, err.Error(), "/admin/cards")
		return
	}
	if isOneOf(err, catalog.ErrCardTitleRequired, catalog.ErrCardURLRequired, catalog.ErrInvalidCategory) {
		card := models.Card{
			ID:       id,
			Title:    c.PostForm("title"),
			URL:      c.PostForm("url"),
			Category: models.Category(c.PostForm("category")),
		}
		a.renderCards(c, http.StatusBadRequest, gin.H{
			"error":   err.Error(),
			"editing": &card,
		})
		return
	}
	if err != nil {
		a.serverError(c, err)
		return
	}

	a.cache.Invalidate(cache.KeyHome)
	a.renderCards(c, http.StatusOK, gin.H{
		"success": msgCardUpdated,
		"editing": (*models.Card)(nil),
	})
}

func (a *AdminModule) deleteCard(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		a.fail(c, http.StatusNotFound, catalog.ErrCardNotFound.Error(), "/admin/cards")
		return
	}
	if !a.confirmed(c, "Are you sure you want to delete this card?", "/admin/cards") {
		return
	}

	err := a.catalog.DeleteCard(c.Request.Context(), id)
	if errors.Is(err, catalog.ErrCardNotFound) {
		a.fail(c, http.StatusNotFound, err.Error(), "/admin/cards")
		return
	}
	if err != nil {
		a.serverError(c, err)
		return
	}

	a.cache.Invalidate(cache.KeyHome)
	a.renderCards(c, http.StatusOK, gin.H{
		"success": msgCardDeleted,
		"editing": (*models.Card)(nil),
	})
}
