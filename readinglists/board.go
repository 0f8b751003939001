package readinglists

import (
	"context"
	"sync"

	"github.com/jrsteele09/readify/api"
	"github.com/jrsteele09/readify/internal/errors"
	"github.com/rs/zerolog/log"
)

// API is the part of the remote API the board needs.
type API interface {
	ReadingLists(ctx context.Context) ([]api.ReadingList, error)
	UpdateReadingList(ctx context.Context, id int, name string, items []api.ItemOrder) error
}

// Board is the user's reading lists as currently displayed.
type Board struct {
	api API

	mu    sync.RWMutex
	lists []api.ReadingList
}

func NewBoard(a API) *Board {
	return &Board{api: a}
}

// Load replaces the board with the authoritative lists.
func (b *Board) Load(ctx context.Context) error {
	lists, err := b.api.ReadingLists(ctx)
	if err != nil {
		return errors.Wrapf(err, "load reading lists")
	}
	b.mu.Lock()
	b.lists = cloneLists(lists)
	b.mu.Unlock()
	return nil
}

// Lists returns a copy of what the board currently shows.
func (b *Board) Lists() []api.ReadingList {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return cloneLists(b.lists)
}

func (b *Board) List(id int) (api.ReadingList, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	i := b.index(id)
	if i < 0 {
		return api.ReadingList{}, false
	}
	return cloneList(b.lists[i]), true
}

// Reorder moves the item at from to position to within list listID.
//
// The new order is shown at once and persisted with a single PUT carrying every item's new
// position. If the PUT fails the tentative order is dropped and the lists are fetched again;
// if that fetch fails too the board goes back to what it showed before the move.
func (b *Board) Reorder(ctx context.Context, listID, from, to int) error {
	b.mu.Lock()
	i := b.index(listID)
	if i < 0 {
		b.mu.Unlock()
		return errors.Wrapf(errors.ErrListNotFound, "reading list %d", listID)
	}
	list := b.lists[i]
	items, err := Move(list.Items, from, to)
	if err != nil {
		b.mu.Unlock()
		return err
	}
	if from == to {
		b.mu.Unlock()
		return nil
	}

	order := make([]api.ItemOrder, len(items))
	for pos := range items {
		items[pos].Order = pos
		order[pos] = api.ItemOrder{ID: items[pos].ID, Order: pos}
	}
	snapshot := cloneLists(b.lists)
	b.lists[i].Items = items
	b.mu.Unlock()

	err = b.api.UpdateReadingList(ctx, list.ID, list.Name, order)
	if err == nil {
		return nil
	}

	log.Err(err).Int("list_id", listID).Msg("Reorder rejected, reloading reading lists")
	if loadErr := b.Load(ctx); loadErr != nil {
		log.Err(loadErr).Int("list_id", listID).Msg("Reload failed, restoring previous order")
		b.mu.Lock()
		b.lists = snapshot
		b.mu.Unlock()
	}
	return errors.Wrapf(err, "reorder reading list %d", listID)
}

// index must be called with b.mu held.
func (b *Board) index(id int) int {
	for i, l := range b.lists {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func cloneLists(lists []api.ReadingList) []api.ReadingList {
	out := make([]api.ReadingList, len(lists))
	for i, l := range lists {
		out[i] = cloneList(l)
	}
	return out
}

func cloneList(l api.ReadingList) api.ReadingList {
	l.Items = append([]api.ReadingListItem(nil), l.Items...)
	return l
}
