package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Tier is one priced offering inside a category. Price is display text and is
// never computed with.
type Tier struct {
	Name      string   `json:"name" yaml:"name"`
	Price     string   `json:"price" yaml:"price"`
	PriceNote string   `json:"priceNote,omitempty" yaml:"priceNote,omitempty"`
	Features  []string `json:"features" yaml:"features"`
}

// DisplayPrice is the price followed by its note, e.g. "$260.000/mes".
func (t Tier) DisplayPrice() string {
	return t.Price + t.PriceNote
}

// Category groups the tiers shown under one pricing tab.
type Category struct {
	Key   string `json:"-" yaml:"key"`
	Title string `json:"title" yaml:"title"`
	Blurb string `json:"blurb" yaml:"blurb"`
	Tiers []Tier `json:"tiers" yaml:"tiers"`
}

// Clone returns a deep copy of the category.
func (c Category) Clone() Category {
	out := c
	if c.Tiers != nil {
		out.Tiers = make([]Tier, len(c.Tiers))
		for i, t := range c.Tiers {
			out.Tiers[i] = t
			if t.Features != nil {
				out.Tiers[i].Features = make([]string, len(t.Features))
				copy(out.Tiers[i].Features, t.Features)
			}
		}
	}
	return out
}

// Catalog maps category keys to categories. Insertion order is the tab order
// and survives JSON round trips.
type Catalog struct {
	keys    []string
	entries map[string]Category
}

// NewCatalog builds a catalog from categories in display order. Later
// duplicates replace earlier entries in place.
func NewCatalog(categories ...Category) *Catalog {
	c := &Catalog{entries: make(map[string]Category, len(categories))}
	for _, cat := range categories {
		c.Put(cat)
	}
	return c
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Keys returns the category keys in display order.
func (c *Catalog) Keys() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.keys...)
}

// First returns the first key in display order, or "" for an empty catalog.
func (c *Catalog) First() string {
	if c.Len() == 0 {
		return ""
	}
	return c.keys[0]
}

func (c *Catalog) Has(key string) bool {
	if c == nil {
		return false
	}
	_, ok := c.entries[key]
	return ok
}

// Get returns a deep copy of the category stored under key.
func (c *Catalog) Get(key string) (Category, bool) {
	if c == nil {
		return Category{}, false
	}
	cat, ok := c.entries[key]
	if !ok {
		return Category{}, false
	}
	return cat.Clone(), true
}

// Put stores cat under cat.Key, appending new keys and overwriting existing
// ones in place.
func (c *Catalog) Put(cat Category) {
	if c.entries == nil {
		c.entries = make(map[string]Category)
	}
	if _, ok := c.entries[cat.Key]; !ok {
		c.keys = append(c.keys, cat.Key)
	}
	c.entries[cat.Key] = cat.Clone()
}

// Delete removes key and reports whether it was present.
func (c *Catalog) Delete(key string) bool {
	if !c.Has(key) {
		return false
	}
	delete(c.entries, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
	return true
}

// Categories returns deep copies of all categories in display order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, 0, c.Len())
	for _, k := range c.Keys() {
		cat, _ := c.Get(k)
		out = append(out, cat)
	}
	return out
}

// Clone returns a deep copy of the catalog.
func (c *Catalog) Clone() *Catalog {
	return NewCatalog(c.Categories()...)
}

// MarshalJSON encodes the catalog as a JSON object whose members follow the
// display order.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range c.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c.entries[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping member order as display order.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("catalog: expected object, got %v", tok)
	}

	out := NewCatalog()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("catalog: expected key, got %v", tok)
		}
		var cat Category
		if err := dec.Decode(&cat); err != nil {
			return fmt.Errorf("catalog: category %q: %w", key, err)
		}
		cat.Key = key
		out.Put(cat)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*c = *out
	return nil
}

// NormalizeCategoryKey lowercases key and drops everything outside [a-z0-9].
func NormalizeCategoryKey(key string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(key) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
