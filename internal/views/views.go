// Package views renders the server side HTML of the site.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"arkana/internal/admin"
	"arkana/internal/content"
	"arkana/internal/domain"
	"arkana/internal/pricing"
	"arkana/internal/relay"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Page names accepted by Render.
const (
	PageLanding   = "landing"
	PageAdmin     = "admin"
	PageError     = "error"
	PagePriceList = "pricelist"
)

// standalone pages are full documents that do not use the base layout.
var standalone = map[string]bool{PagePriceList: true}

var funcs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"join": strings.Join,
}

// Renderer holds one parsed template set per page.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	root, err := template.New("_root").Funcs(funcs).ParseFS(templateFS, "templates/base.tmpl")
	if err != nil {
		return nil, fmt.Errorf("views: base: %w", err)
	}
	files, err := fs.Glob(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, f := range files {
		name := strings.TrimSuffix(path.Base(f), ".tmpl")
		if name == "base" {
			continue
		}
		var t *template.Template
		if standalone[name] {
			t, err = template.New(name).Funcs(funcs).ParseFS(templateFS, f)
		} else {
			t, err = template.Must(root.Clone()).ParseFS(templateFS, f)
		}
		if err != nil {
			return nil, fmt.Errorf("views: %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes page with data.
func (r *Renderer) Render(w io.Writer, page string, data any) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("views: unknown page %q", page)
	}
	entry := "base"
	if standalone[page] {
		entry = page
	}
	return t.ExecuteTemplate(w, entry, data)
}

// Page carries what every page needs.
type Page struct {
	Title     string
	RequestID string
	Admin     bool
}

type Landing struct {
	Page
	Site        *content.Site
	Tabs        []pricing.Tab
	ActiveKey   string
	Active      domain.Category
	Session     admin.Session
	Prompt      *Prompt
	ShowForm    bool
	Form        FormState
	WhatsAppURL string
	PriceList   bool
}

// Prompt is the contact method dialog for a selected tier.
type Prompt struct {
	Key       string
	Tier      int
	Selection domain.Selection
}

type FormState struct {
	Fields  domain.BudgetRequest
	Notice  *relay.Notice
	Error   string
	Options []relay.ServiceOption
}

type AdminPanel struct {
	Page
	Categories []AdminCategory
	CanDelete  bool
	Draft      *domain.Category
	DraftLabel string
	Error      string
}

type AdminCategory struct {
	Key   string
	Label string
	Emoji string
	Title string
	Tiers int
}

type ErrorPage struct {
	Page
	Code    int
	Message string
}

type PriceList struct {
	Categories []domain.Category
	Extras     template.HTML
	Date       string
}
