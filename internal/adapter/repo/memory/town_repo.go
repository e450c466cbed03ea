package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"villagemap/internal/app/ports"
	"villagemap/internal/domain/town"
)

// TownRepo keeps documents as deep copies so callers never alias the store.
// Like the other memory repos it relies on TxManager for exclusion.
type TownRepo struct {
	store *Store
}

func NewTownRepo(store *Store) TownRepo {
	return TownRepo{store: store}
}

func (r TownRepo) Load(_ context.Context, village string) (*town.Document, error) {
	doc, ok := r.store.towns[village]
	if !ok {
		return nil, fmt.Errorf("town %q: %w", village, ports.ErrNotFound)
	}
	return doc.Clone(), nil
}

func (r TownRepo) Save(_ context.Context, village string, doc *town.Document) (time.Time, error) {
	r.store.towns[village] = doc.Clone()
	t := r.store.nextModTime(village)
	r.store.modTimes[village] = t
	return t, nil
}

func (r TownRepo) ModTime(_ context.Context, village string) (time.Time, error) {
	t, ok := r.store.modTimes[village]
	if !ok {
		return time.Time{}, fmt.Errorf("town %q: %w", village, ports.ErrNotFound)
	}
	return t, nil
}

func (r TownRepo) List(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(r.store.towns))
	for name := range r.store.towns {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

var _ ports.TownStore = TownRepo{}
