// Package report renders simulation results as a standalone HTML page.
//
// Images are embedded as data URIs, so the page has no external references and
// can be opened straight from disk.
package report

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aixiera/phosphene-web/models"
)

const (
	Title       = "Phosphene Vision Simulator"
	Subtitle    = "Upload a photo in jpg or png format and generate AlphaAMS, ArgusII, and PRIMA simulations."
	Placeholder = "Result will appear here"
)

// Card is one implant's slot on the page
type Card struct {
	Title    string
	Filename string
	DataURI  template.URL
	Ready    bool
}

// Page is everything the template renders
type Page struct {
	Title       string
	Subtitle    string
	Source      string
	GeneratedAt time.Time
	Cards       []Card
}

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #222; }
h1 { color: #7D56F4; margin-bottom: 0.25rem; }
.subtitle { color: #888888; margin-top: 0; }
.meta { color: #666666; font-size: 0.9rem; }
.cards { display: flex; gap: 1rem; flex-wrap: wrap; }
.card { border: 1px solid #ddd; border-radius: 8px; padding: 1rem; width: 300px; }
.card h2 { font-size: 1.1rem; margin-top: 0; }
.card img { width: 100%; image-rendering: pixelated; }
.placeholder { height: 200px; display: flex; align-items: center; justify-content: center; color: #888888; background: #f4f4f4; }
.download.disabled { color: #aaa; pointer-events: none; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="subtitle">{{.Subtitle}}</p>
{{if .Source}}<p class="meta">Source: {{.Source}}{{if not .GeneratedAt.IsZero}} · {{.GeneratedAt.Format "2006-01-02 15:04:05"}}{{end}}</p>{{end}}
<div class="cards">
{{range .Cards}}<div class="card">
<h2>{{.Title}}</h2>
{{if .Ready}}<img src="{{.DataURI}}" alt="{{.Title}} simulation">
<a class="download" href="{{.DataURI}}" download="{{.Filename}}">Download</a>
{{else}}<div class="placeholder">` + Placeholder + `</div>
<span class="download disabled">Download</span>
{{end}}</div>
{{end}}</div>
</body>
</html>
`))

// FromResults builds a page with one card per implant in display order
func FromResults(source string, results models.ResultSet) Page {
	page := Page{
		Title:       Title,
		Subtitle:    Subtitle,
		Source:      source,
		GeneratedAt: time.Now(),
	}

	for _, key := range results.Keys() {
		card := Card{
			Title:    string(key),
			Filename: key.Filename(),
		}
		if p := results.Get(key); p != nil && strings.HasPrefix(p.DataURI, models.DataURIPrefix) {
			card.DataURI = template.URL(p.DataURI)
			card.Ready = true
		}
		page.Cards = append(page.Cards, card)
	}
	return page
}

// Render writes the page as HTML
func Render(w io.Writer, page Page) error {
	if err := pageTemplate.Execute(w, page); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// WriteFile renders the page to path, creating parent directories
func WriteFile(path string, page Page) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := Render(f, page); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
