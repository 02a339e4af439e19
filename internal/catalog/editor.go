package catalog

import (
	"fmt"
	"sync"

	"arkana/internal/domain"
)

// Placeholders used by the editor for new tiers and features.
const (
	NewTierName  = "Nuevo Plan"
	NewTierPrice = "$0"
	NewFeature   = "Nueva característica"
)

// Tier fields accepted by UpdateTierField.
const (
	FieldName      = "name"
	FieldPrice     = "price"
	FieldPriceNote = "priceNote"
)

// Editor holds one admin's draft of a single category. Changes stay in the
// draft until Commit writes it back through the Service.
type Editor struct {
	mu    sync.Mutex
	svc   *Service
	draft *domain.Category
}

func NewEditor(svc *Service) *Editor {
	return &Editor{svc: svc}
}

// StartEdit loads a deep copy of the category stored under key, replacing any
// previous draft.
func (e *Editor) StartEdit(key string) error {
	cat, ok := e.svc.Category(key)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrCategoryNotFound, key)
	}
	e.mu.Lock()
	e.draft = &cat
	e.mu.Unlock()
	return nil
}

// Draft returns a copy of the category being edited.
func (e *Editor) Draft() (domain.Category, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.draft == nil {
		return domain.Category{}, false
	}
	return e.draft.Clone(), true
}

func (e *Editor) SetTitle(title string) error {
	return e.edit(func(d *domain.Category) error {
		d.Title = title
		return nil
	})
}

func (e *Editor) SetBlurb(blurb string) error {
	return e.edit(func(d *domain.Category) error {
		d.Blurb = blurb
		return nil
	})
}

func (e *Editor) AddTier() error {
	return e.edit(func(d *domain.Category) error {
		d.Tiers = append(d.Tiers, domain.Tier{
			Name:     NewTierName,
			Price:    NewTierPrice,
			Features: []string{NewFeature},
		})
		return nil
	})
}

// RemoveTier drops the tier at i. An index out of range is a no-op.
func (e *Editor) RemoveTier(i int) error {
	return e.edit(func(d *domain.Category) error {
		if i < 0 || i >= len(d.Tiers) {
			return nil
		}
		d.Tiers = append(d.Tiers[:i], d.Tiers[i+1:]...)
		return nil
	})
}

// UpdateTierField sets name, price or priceNote on tier i. An empty priceNote
// removes the note.
func (e *Editor) UpdateTierField(i int, field, value string) error {
	return e.edit(func(d *domain.Category) error {
		t, err := tierAt(d, i)
		if err != nil {
			return err
		}
		switch field {
		case FieldName:
			t.Name = value
		case FieldPrice:
			t.Price = value
		case FieldPriceNote:
			t.PriceNote = value
		default:
			return fmt.Errorf("%w: %q", domain.ErrUnknownTierField, field)
		}
		return nil
	})
}

func (e *Editor) AddFeature(i int) error {
	return e.edit(func(d *domain.Category) error {
		t, err := tierAt(d, i)
		if err != nil {
			return err
		}
		t.Features = append(t.Features, NewFeature)
		return nil
	})
}

func (e *Editor) UpdateFeature(i, f int, value string) error {
	return e.edit(func(d *domain.Category) error {
		t, err := tierAt(d, i)
		if err != nil {
			return err
		}
		if f < 0 || f >= len(t.Features) {
			return fmt.Errorf("%w: feature %d of tier %d", domain.ErrTierNotFound, f, i)
		}
		t.Features[f] = value
		return nil
	})
}

// RemoveFeature drops feature f of tier i. A feature index out of range is a
// no-op.
func (e *Editor) RemoveFeature(i, f int) error {
	return e.edit(func(d *domain.Category) error {
		t, err := tierAt(d, i)
		if err != nil {
			return err
		}
		if f < 0 || f >= len(t.Features) {
			return nil
		}
		t.Features = append(t.Features[:f], t.Features[f+1:]...)
		return nil
	})
}

// Commit writes the draft into the catalog and clears it. On a failed save the
// draft is kept so the admin can retry.
func (e *Editor) Commit() (domain.Category, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.draft == nil {
		return domain.Category{}, domain.ErrNoDraft
	}
	cat := e.draft.Clone()
	if err := e.svc.Put(cat); err != nil {
		return domain.Category{}, err
	}
	e.draft = nil
	return cat, nil
}

// Cancel discards the draft.
func (e *Editor) Cancel() {
	e.mu.Lock()
	e.draft = nil
	e.mu.Unlock()
}

func (e *Editor) CreateCategory(key string) (domain.Category, error) {
	return e.svc.Create(key)
}

// DeleteCategory removes key from the catalog, dropping the draft when it
// belongs to the deleted category.
func (e *Editor) DeleteCategory(key string) error {
	if err := e.svc.Delete(key); err != nil {
		return err
	}
	e.mu.Lock()
	if e.draft != nil && e.draft.Key == key {
		e.draft = nil
	}
	e.mu.Unlock()
	return nil
}

func (e *Editor) edit(fn func(d *domain.Category) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.draft == nil {
		return domain.ErrNoDraft
	}
	return fn(e.draft)
}

func tierAt(d *domain.Category, i int) (*domain.Tier, error) {
	if i < 0 || i >= len(d.Tiers) {
		return nil, fmt.Errorf("%w: %d", domain.ErrTierNotFound, i)
	}
	return &d.Tiers[i], nil
}

// Drafts keeps one Editor per admin client.
type Drafts struct {
	mu      sync.Mutex
	svc     *Service
	editors map[string]*Editor
}

func NewDrafts(svc *Service) *Drafts {
	return &Drafts{svc: svc, editors: make(map[string]*Editor)}
}

// For returns the editor of clientID, creating it on first use.
func (d *Drafts) For(clientID string) *Editor {
	d.mu.Lock()
	defer d.mu.Unlock()
	ed, ok := d.editors[clientID]
	if !ok {
		ed = NewEditor(d.svc)
		d.editors[clientID] = ed
	}
	return ed
}

// Drop forgets the editor of clientID and its draft.
func (d *Drafts) Drop(clientID string) {
	d.mu.Lock()
	delete(d.editors, clientID)
	d.mu.Unlock()
}
