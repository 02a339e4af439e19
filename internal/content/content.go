// Package content holds the static copy of the landing page. Section bodies
// are markdown, rendered once at start-up and sanitized before they reach a
// template.
package content

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"
)

//go:embed site.yaml
var siteYAML []byte

type Card struct {
	Icon     string `yaml:"icon"`
	Title    string `yaml:"title"`
	Subtitle string `yaml:"subtitle"`
	Text     string `yaml:"text"`
}

type Section struct {
	Title string        `yaml:"title"`
	Body  string        `yaml:"body"`
	Cards []Card        `yaml:"-"`
	HTML  template.HTML `yaml:"-"`
}

// Site is the rendered page copy.
type Site struct {
	About     Section
	Equipment Section
	Extras    Section
	Custom    Section
}

type siteDoc struct {
	About struct {
		Section `yaml:",inline"`
		Values  []Card `yaml:"values"`
	} `yaml:"about"`
	Equipment struct {
		Section `yaml:",inline"`
		Items   []Card `yaml:"items"`
	} `yaml:"equipment"`
	Extras Section `yaml:"extras"`
	Custom Section `yaml:"custom"`
}

// Load renders the embedded site copy.
func Load() (*Site, error) {
	return Parse(siteYAML)
}

// Parse renders site copy from raw YAML.
func Parse(raw []byte) (*Site, error) {
	var doc siteDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("content: parse: %w", err)
	}

	r := newRenderer()
	site := &Site{
		About:     doc.About.Section,
		Equipment: doc.Equipment.Section,
		Extras:    doc.Extras,
		Custom:    doc.Custom,
	}
	site.About.Cards = doc.About.Values
	site.Equipment.Cards = doc.Equipment.Items

	for _, s := range []*Section{&site.About, &site.Equipment, &site.Extras, &site.Custom} {
		html, err := r.render(s.Body)
		if err != nil {
			return nil, fmt.Errorf("content: %s: %w", s.Title, err)
		}
		s.HTML = html
	}
	return site, nil
}

type renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func newRenderer() *renderer {
	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	return &renderer{md: goldmark.New(), policy: policy}
}

func (r *renderer) render(body string) (template.HTML, error) {
	if body == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(body), &buf); err != nil {
		return "", err
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes())), nil
}
