package core

import "fmt"

// ValidateItem validates a decoded upstream item.
//
// Validation rules:
//   - ID must be positive
//   - Parent, when present, must differ from ID
//
// NOT validated:
//   - Kind (unknown kinds are filtered by the resolver, not rejected here)
//   - Text and URL (either may legitimately be empty)
func ValidateItem(item Item) error {
	if item.ID <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidItem, ErrMissingID)
	}
	if item.Parent != nil && *item.Parent == item.ID {
		return fmt.Errorf("%w: %w", ErrInvalidItem, ErrSelfParent)
	}
	return nil
}

// ValidateRecord validates an IndexRecord against a fixed vector dimension.
func ValidateRecord(record IndexRecord, dims int) error {
	if record.KeyID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrMissingKey)
	}
	if len(record.Embedding) != dims {
		return fmt.Errorf("%w: %w: got %d, want %d", ErrInvalidRecord, ErrDimensionMismatch, len(record.Embedding), dims)
	}
	return nil
}
