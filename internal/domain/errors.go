package domain

import "errors"

var (
	// ErrCategoryNotFound signals an unknown category key.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrCategoryExists signals that a new category would overwrite an existing one.
	ErrCategoryExists = errors.New("category already exists")
	// ErrInvalidCategoryKey signals a key that is empty after normalization.
	ErrInvalidCategoryKey = errors.New("invalid category key")
	// ErrLastCategory signals an attempt to delete the only remaining category.
	ErrLastCategory = errors.New("cannot delete the last category")
	// ErrNoDraft signals an editor operation without a category being edited.
	ErrNoDraft = errors.New("no category is being edited")
	// ErrUnknownTierField signals a tier field other than name, price or priceNote.
	ErrUnknownTierField = errors.New("unknown tier field")
	// ErrTierNotFound signals a tier index outside the draft.
	ErrTierNotFound = errors.New("tier not found")
	// ErrMissingFields signals a budget request with blank required fields.
	ErrMissingFields = errors.New("missing required fields")
	// ErrMailNotConfigured signals incomplete SMTP settings.
	ErrMailNotConfigured = errors.New("mail transport not configured")
	// ErrSubmissionInFlight signals a second submission while one is pending.
	ErrSubmissionInFlight = errors.New("submission already in flight")
)
