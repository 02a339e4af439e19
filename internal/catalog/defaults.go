package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"arkana/internal/domain"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var defaultCatalog = mustParseDefaults(defaultsYAML)

func mustParseDefaults(raw []byte) *domain.Catalog {
	c, err := parseDefaults(raw)
	if err != nil {
		panic(err)
	}
	return c
}

func parseDefaults(raw []byte) (*domain.Catalog, error) {
	var doc struct {
		Categories []domain.Category `yaml:"categories"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("default catalog: %w", err)
	}
	if len(doc.Categories) == 0 {
		return nil, fmt.Errorf("default catalog: no categories")
	}
	for _, cat := range doc.Categories {
		if cat.Key == "" || cat.Key != domain.NormalizeCategoryKey(cat.Key) {
			return nil, fmt.Errorf("default catalog: invalid key %q", cat.Key)
		}
	}
	return domain.NewCatalog(doc.Categories...), nil
}

// Default returns a fresh copy of the built-in catalog.
func Default() *domain.Catalog {
	return defaultCatalog.Clone()
}
