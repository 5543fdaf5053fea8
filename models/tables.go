package models

import "time"

// Storage keys. Every value under a key is one JSON document.
const (
	KeyUsers               = "users"
	KeyNotes               = "notes"
	KeyFolders             = "folders"
	KeySubjects            = "subjects"
	KeyCategorizedSubjects = "categorizedSubjects"
	KeyCards               = "cards"
)

// Entry is the only table behind the key/value store.
type Entry struct {
	Key       string    `gorm:"primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

type User struct {
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

// CurrentUser is the session record written at login.
type CurrentUser struct {
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

type Folder struct {
	ID      int64  `json:"id"`
	Subject string `json:"subject"`
	Name    string `json:"name"`
	Date    string `json:"date"`
}

type Note struct {
	ID          int64  `json:"id"`
	Subject     string `json:"subject"`
	FolderID    *int64 `json:"folderId,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"` // markdown
	Date        string `json:"date"`
	Files       []File `json:"files"`
}

// InFolder reports whether the note belongs to folderID.
func (n Note) InFolder(folderID int64) bool {
	return n.FolderID != nil && *n.FolderID == folderID
}

type File struct {
	ID          string `json:"id"` // "<noteId>-<index>"
	NoteID      int64  `json:"noteId"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Size        int64  `json:"size"`
	URL         string `json:"url"` // base64 data URL
	UploadOrder int    `json:"uploadOrder"`
}

type Category string

const (
	CategoryTheory    Category = "theory"
	CategoryPractical Category = "practical"
	CategoryExtra     Category = "extra"
)

// Categories lists the buckets in display order.
var Categories = []Category{CategoryTheory, CategoryPractical, CategoryExtra}

// ParseCategory accepts the stored value or the display label ("Theory").
func ParseCategory(s string) (Category, bool) {
	switch s {
	case "theory", "Theory":
		return CategoryTheory, true
	case "practical", "Practical":
		return CategoryPractical, true
	case "extra", "Extra", "Extra Material":
		return CategoryExtra, true
	}
	return "", false
}

// Label is the name shown in tables and selects.
func (c Category) Label() string {
	switch c {
	case CategoryPractical:
		return "Practical"
	case CategoryExtra:
		return "Extra"
	}
	return "Theory"
}

// CategorizedSubjects is the shape stored under categorizedSubjects.
type CategorizedSubjects struct {
	Theory    []string `json:"theory"`
	Practical []string `json:"practical"`
	Extra     []string `json:"extra"`
}

type Card struct {
	ID       int64    `json:"id"`
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Category Category `json:"category"`
}
