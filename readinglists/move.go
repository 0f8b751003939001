// Package readinglists holds the reading list board and its drag-and-drop reorder.
package readinglists

import (
	"github.com/jrsteele09/readify/internal/errors"
)

// Move returns a copy of items with the element at from taken out and reinserted at to.
// items is never modified.
func Move[T any](items []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return nil, errors.Wrapf(errors.ErrIndexOutRange, "move %d to %d in %d items", from, to, len(items))
	}

	out := make([]T, 0, len(items))
	moved := items[from]
	for i, item := range items {
		if i == from {
			continue
		}
		if len(out) == to {
			out = append(out, moved)
		}
		out = append(out, item)
	}
	if len(out) == to {
		out = append(out, moved)
	}
	return out, nil
}
