package views

import (
	"bytes"
	"html/template"

	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Note descriptions are written by admins but shown to everyone, so raw
// HTML is not passed through.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Linkify,
	),
)

// Markdown renders a note description.
func Markdown(source string) template.HTML {
	if source == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		log.Warn().Err(err).Msg("markdown render failed")
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(buf.String())
}
