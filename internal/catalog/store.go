package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"arkana/internal/domain"
	u "arkana/internal/utils"
)

// StorageKey is the storage entry holding the whole catalog document.
const StorageKey = "photography-packs"

// Store persists the catalog as a whole.
type Store interface {
	// Load returns the persisted catalog, or the default one when nothing
	// usable is stored. It never returns an empty catalog.
	Load() *domain.Catalog
	Save(c *domain.Catalog) error
	Reset() (*domain.Catalog, error)
}

// StorageStore keeps the catalog as one JSON document in a fiber.Storage. A
// single Set replaces the document, so readers never see a partial write.
type StorageStore struct {
	storage fiber.Storage
	key     string
}

func NewStorageStore(storage fiber.Storage) *StorageStore {
	return &StorageStore{storage: storage, key: StorageKey}
}

func (s *StorageStore) Load() *domain.Catalog {
	raw, err := s.storage.Get(s.key)
	if err != nil {
		u.Warn("Catalog read failed, serving defaults", "err", err)
		return Default()
	}
	if len(raw) == 0 {
		return Default()
	}
	var c domain.Catalog
	if err := json.Unmarshal(raw, &c); err != nil {
		u.Warn("Stored catalog is malformed, serving defaults", "err", err, "bytes", len(raw))
		return Default()
	}
	if c.Len() == 0 {
		u.Warn("Stored catalog is empty, serving defaults")
		return Default()
	}
	return &c
}

func (s *StorageStore) Save(c *domain.Catalog) error {
	if c.Len() == 0 {
		return domain.ErrLastCategory
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := s.storage.Set(s.key, raw, 0); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	return nil
}

func (s *StorageStore) Reset() (*domain.Catalog, error) {
	if err := s.storage.Delete(s.key); err != nil {
		return nil, fmt.Errorf("reset catalog: %w", err)
	}
	return Default(), nil
}
