package pricing

import (
	"fmt"
	"strings"

	"arkana/internal/domain"
)

// Tab is one entry of the category tab bar.
type Tab struct {
	Key    string
	Label  string
	Emoji  string
	Active bool
}

var knownTabs = map[string]struct{ label, emoji string }{
	"book":     {"Book", "📸"},
	"producto": {"Producto/Catálogo", "📦"},
	"redes":    {"Redes", "✨"},
	"eventos":  {"Eventos", "🎉"},
}

// Display tracks the active category tab over one catalog snapshot.
type Display struct {
	catalog *domain.Catalog
	active  string
}

// NewDisplay opens on requested when the catalog has it, otherwise on the
// first category.
func NewDisplay(c *domain.Catalog, requested string) *Display {
	d := &Display{catalog: c, active: c.First()}
	if c.Has(requested) {
		d.active = requested
	}
	return d
}

func (d *Display) ActiveKey() string { return d.active }

// Active returns the category whose tiers are on screen.
func (d *Display) Active() domain.Category {
	cat, _ := d.catalog.Get(d.active)
	return cat
}

// SelectTab switches to key. Unknown keys leave the display unchanged.
func (d *Display) SelectTab(key string) error {
	if !d.catalog.Has(key) {
		return fmt.Errorf("%w: %s", domain.ErrCategoryNotFound, key)
	}
	d.active = key
	return nil
}

// Tabs lists every category in catalog order.
func (d *Display) Tabs() []Tab {
	keys := d.catalog.Keys()
	tabs := make([]Tab, 0, len(keys))
	for _, k := range keys {
		tab := Tab{Key: k, Active: k == d.active}
		if known, ok := knownTabs[k]; ok {
			tab.Label, tab.Emoji = known.label, known.emoji
		} else {
			cat, _ := d.catalog.Get(k)
			tab.Label, tab.Emoji = firstWord(cat.Title, k), "📋"
		}
		tabs = append(tabs, tab)
	}
	return tabs
}

func firstWord(title, fallback string) string {
	if f := strings.Fields(title); len(f) > 0 {
		return f[0]
	}
	return fallback
}

// Select picks tier i of the active category.
func (d *Display) Select(i int) (domain.Selection, error) {
	cat := d.Active()
	if i < 0 || i >= len(cat.Tiers) {
		return domain.Selection{}, fmt.Errorf("%w: %d", domain.ErrTierNotFound, i)
	}
	t := cat.Tiers[i]
	return domain.Selection{
		Service:    cat.Title,
		Tier:       t.Name,
		Price:      t.DisplayPrice(),
		ServiceKey: d.active,
	}, nil
}
