package main

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/yuin/goldmark"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// markdown renders post content. goldmark drops raw HTML unless told
// otherwise, so the result is safe to mark as template.HTML.
func markdown(s string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(s), &buf); err != nil {
		return template.HTML("<p>" + template.HTMLEscapeString(s) + "</p>")
	}
	return template.HTML(buf.String())
}

func loadTemplates() map[string]*template.Template {
	templates := make(map[string]*template.Template)
	pages := []string{"blog.html", "detail.html", "admin.html"}

	for _, page := range pages {
		templates[page] = template.Must(
			template.New("").ParseFS(templateFS,
				"templates/base.html",
				"templates/"+page,
			))
	}

	return templates
}
