package matchboard

import (
	"errors"
	"fmt"
)

// GameStore is the authoritative game state the engine reads from and writes
// to. It is deliberately narrow: the engine reads the card list, the selection,
// and the syncable fields its descriptors name, and writes only through
// SelectCard and SetField. Derived values (scores, match counts) stay inside
// the store and flow one way, store to render.
type GameStore interface {
	// Cards returns the current card list in board order.
	Cards() []Card
	// SelectedCardIDs returns the ids of the currently selected cards (at most 2).
	SelectedCardIDs() []string
	// SelectCard requests selection of the card with the given id.
	SelectCard(id string)
	// Field reads a syncable field by name. ok is false for unknown fields.
	Field(name string) (value any, ok bool)
	// SetField writes a syncable field by name.
	SetField(name string, value any) error
}

// ErrNilStore is returned when the engine is handed a nil store.
var ErrNilStore = errors.New("matchboard: nil game store")

// validateStore checks the store boundary: the store must exist and every
// enabled descriptor field must be readable.
func validateStore(store GameStore, fields []FieldDescriptor) error {
	if store == nil {
		return ErrNilStore
	}
	for _, f := range fields {
		if !f.Enabled {
			continue
		}
		if _, ok := store.Field(f.Name); !ok {
			return fmt.Errorf("matchboard: store does not expose syncable field %q", f.Name)
		}
	}
	return nil
}
