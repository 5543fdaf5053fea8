// Package views holds the HTML templates of every page.
package views

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"studynotes/catalog"
	"studynotes/notes"
)

//go:embed templates/*.html
var files embed.FS

var funcs = template.FuncMap{
	"now":         time.Now,
	"displayName": catalog.DisplayName,
	"subjectURL":  catalog.SubjectURL,
	"fileSize":    notes.FormatFileSize,
	"fileIcon":    notes.FileIcon,
	"markdown":    Markdown,
	"add":         func(a, b int) int { return a + b },
	"dict":        dict,
	"plural": func(n int, word string) string {
		if n == 1 {
			return word
		}
		return word + "s"
	},
}

// dict builds a map from alternating keys and values, for passing several
// values into a partial.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, errors.New("dict: odd number of arguments")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		k, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		m[k] = pairs[i+1]
	}
	return m, nil
}

var templates = template.Must(template.New("").Funcs(funcs).ParseFS(files, "templates/*.html"))

// Install makes the templates available to c.HTML.
func Install(router *gin.Engine) {
	router.SetHTMLTemplate(templates)
}

// Render executes one named template into w.
func Render(w io.Writer, name string, data any) error {
	return templates.ExecuteTemplate(w, name, data)
}

// RenderString is Render into a string.
func RenderString(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
