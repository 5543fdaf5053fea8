package admin

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"studynotes/models"
	"studynotes/notes"
)

// MaxFileSize is the per-file upload limit, inclusive.
const MaxFileSize = 50 * 1024 * 1024

var allowedFileTypes = map[string]bool{
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// ValidationError is a form error tied to one field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// UploadForm is what the upload page submits.
type UploadForm struct {
	Subject     string
	FolderID    *int64
	Title       string
	Description string
	Files       []notes.Upload
}

// ValidateUpload returns the first problem with the form, or nil.
func ValidateUpload(form UploadForm) *ValidationError {
	if form.Subject == "" {
		return &ValidationError{Field: "subject", Message: "Please select a subject"}
	}
	if strings.TrimSpace(form.Title) == "" {
		return &ValidationError{Field: "title", Message: "Please enter a title"}
	}
	if len(form.Files) == 0 {
		return &ValidationError{Field: "files", Message: "Please select at least one file"}
	}
	for _, f := range form.Files {
		if !allowedFileTypes[f.Type()] {
			return &ValidationError{
				Field:   "files",
				Message: fmt.Sprintf("Invalid file type for %s. Please select valid file types (PDF, DOCX, JPG, PNG, GIF)", f.Name()),
			}
		}
		if f.Size() > MaxFileSize {
			return &ValidationError{Field: "files", Message: fmt.Sprintf("File %s exceeds 50MB limit", f.Name())}
		}
	}
	return nil
}

func parseFolderID(s string) *int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

// renderUpload shows the upload page. Every key the template compares is
// always present, so a nil verr is passed as a typed nil.
func (a *AdminModule) renderUpload(c *gin.Context, status int, form UploadForm, verr *ValidationError, success string) {
	ctx := c.Request.Context()

	subjects, err := a.catalog.Subjects(ctx)
	if err != nil {
		a.serverError(c, err)
		return
	}

	var folders []models.Folder
	noFolders := msgPickSubject
	if form.Subject != "" {
		folders, err = a.notes.GetFoldersBySubject(ctx, form.Subject)
		if err != nil {
			a.serverError(c, err)
			return
		}
		noFolders = msgNoFolders
	}

	data := gin.H{
		"title":     "Upload",
		"subjects":  subjects,
		"form":      form,
		"folders":   folders,
		"noFolders": noFolders,
		"error":     verr,
		"success":   success,
	}

	a.render(c, status, "admin_upload.html", data)
}

func (a *AdminModule) uploadPage(c *gin.Context) {
	a.renderUpload(c, http.StatusOK, UploadForm{Subject: c.Query("subject")}, nil, "")
}

func (a *AdminModule) uploadPost(c *gin.Context) {
	form := UploadForm{
		Subject:     strings.TrimSpace(c.PostForm("subject")),
		FolderID:    parseFolderID(c.PostForm("folderId")),
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
	}

	var files []notes.Upload
	if mf, err := c.MultipartForm(); err == nil {
		for _, fh := range mf.File["files"] {
			files = append(files, notes.FromMultipart(fh))
		}
	}

	order, err := ParseOrder(c.PostForm("order"), len(files))
	if err != nil {
		a.renderUpload(c, http.StatusBadRequest, form, &ValidationError{Field: "files", Message: "Invalid file order"}, "")
		return
	}
	form.Files = ApplyOrder(files, order)

	if verr := ValidateUpload(form); verr != nil {
		a.renderUpload(c, http.StatusBadRequest, form, verr, "")
		return
	}
	if form.FolderID != nil {
		folder, found, err := a.notes.GetFolderByID(c.Request.Context(), *form.FolderID)
		if err != nil {
			a.serverError(c, err)
			return
		}
		if !found || folder.Subject != form.Subject {
			a.renderUpload(c, http.StatusBadRequest, form, &ValidationError{Field: "folder", Message: msgInvalidFolder}, "")
			return
		}
	}

	_, err = a.notes.CreateNote(c.Request.Context(), notes.NewNote{
		Subject:     form.Subject,
		FolderID:    form.FolderID,
		Title:       strings.TrimSpace(form.Title),
		Description: form.Description,
		Files:       form.Files,
	})
	if err != nil {
		a.serverError(c, err)
		return
	}

	a.renderUpload(c, http.StatusOK, UploadForm{Subject: form.Subject}, nil, msgUploaded)
}

type reorderRequest struct {
	Order []int  `json:"order"`
	Op    string `json:"op" binding:"required"`
	Index int    `json:"index"`
	To    int    `json:"to"`
}

// reorder applies one list operation for the upload page and returns the
// resulting order.
func (a *AdminModule) reorder(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var out []int
	switch req.Op {
	case "up":
		out = MoveUp(req.Order, req.Index)
	case "down":
		out = MoveDown(req.Order, req.Index)
	case "remove":
		out = Remove(req.Order, req.Index)
	case "move":
		out = Move(req.Order, req.Index, req.To)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown operation " + strconv.Quote(req.Op)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": out})
}
