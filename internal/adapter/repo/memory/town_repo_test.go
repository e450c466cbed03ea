package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"villagemap/internal/app/ports"
	"villagemap/internal/domain/town"
)

func TestTownRepo_LoadReturnsCopies(t *testing.T) {
	store := NewStore()
	doc := town.NewDocument(town.Grid{Width: 320, Height: 320}, 80)
	store.SeedTown("dogville", doc)
	repo := NewTownRepo(store)

	got, err := repo.Load(context.Background(), "dogville")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got.Palette["house_a"] = "#000000"

	again, err := repo.Load(context.Background(), "dogville")
	if err != nil {
		t.Fatalf("load again: %v", err)
	}
	if _, ok := again.Palette["house_a"]; ok {
		t.Fatalf("mutation of a loaded document leaked into the store")
	}
}

func TestTownRepo_SaveAdvancesModTime(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewStore().WithClock(func() time.Time { return fixed })
	store.SeedTown("dogville", town.NewDocument(town.Grid{Width: 320, Height: 320}, 80))
	repo := NewTownRepo(store)
	ctx := context.Background()

	before, err := repo.ModTime(ctx, "dogville")
	if err != nil {
		t.Fatalf("mod time: %v", err)
	}
	doc, _ := repo.Load(ctx, "dogville")
	saved, err := repo.Save(ctx, "dogville", doc)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !saved.After(before) {
		t.Fatalf("expected strictly later mod time with frozen clock, before=%v saved=%v", before, saved)
	}
	if touched := store.Touch("dogville"); !touched.After(saved) {
		t.Fatalf("expected touch to advance mod time, saved=%v touched=%v", saved, touched)
	}
}

func TestTownRepo_MissingAndList(t *testing.T) {
	store := NewStore()
	store.SeedTown("zeta", town.NewDocument(town.Grid{Width: 80, Height: 80}, 80))
	store.SeedTown("alpha", town.NewDocument(town.Grid{Width: 80, Height: 80}, 80))
	repo := NewTownRepo(store)
	ctx := context.Background()

	if _, err := repo.Load(ctx, "nowhere"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.ModTime(ctx, "nowhere"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	names, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestTxManager_RunsCallback(t *testing.T) {
	store := NewStore()
	tx := NewTxManager(store)
	sentinel := errors.New("boom")
	called := false
	err := tx.RunInTx(context.Background(), func(context.Context) error {
		called = true
		return sentinel
	})
	if !called || !errors.Is(err, sentinel) {
		t.Fatalf("expected callback error to propagate, called=%v err=%v", called, err)
	}
}

var _ ports.TxManager = TxManager{}
