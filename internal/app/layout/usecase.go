package layout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"villagemap/internal/app/ports"
	"villagemap/internal/domain/town"
)

var ErrInvalidRequest = errors.New("invalid layout request")

// TownNotFoundError names the villages that do exist so callers can offer them.
type TownNotFoundError struct {
	Village   string
	Available []string
}

func (e *TownNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("town %q not found; no towns available", e.Village)
	}
	return fmt.Sprintf("town %q not found; available: %s", e.Village, strings.Join(e.Available, ", "))
}

func (e *TownNotFoundError) Unwrap() error {
	return ports.ErrNotFound
}

type ListTownsUseCase struct {
	Store     ports.TownStore
	TxManager ports.TxManager
}

func (u ListTownsUseCase) Execute(ctx context.Context) (ListTownsResponse, error) {
	names, err := listTowns(ctx, u.Store, u.TxManager)
	if err != nil {
		return ListTownsResponse{}, err
	}
	if names == nil {
		names = []string{}
	}
	return ListTownsResponse{Villages: names}, nil
}

type ListChunksUseCase struct {
	Store     ports.TownStore
	TxManager ports.TxManager
}

func (u ListChunksUseCase) Execute(ctx context.Context, req ListChunksRequest) (ListChunksResponse, error) {
	doc, err := loadTown(ctx, u.Store, u.TxManager, req.Village)
	if err != nil {
		return ListChunksResponse{}, err
	}
	return ListChunksResponse{
		Village: strings.TrimSpace(req.Village),
		Grid:    doc.Grid,
		Chunks:  doc.ChunkSummaries(),
	}, nil
}

// SceneUseCase builds the whole-town scene, or a single chunk's scene when
// ChunkKey is set.
type SceneUseCase struct {
	Store     ports.TownStore
	Catalog   ports.CatalogProvider
	TxManager ports.TxManager
}

func (u SceneUseCase) Execute(ctx context.Context, req SceneRequest) (SceneResponse, error) {
	village := strings.TrimSpace(req.Village)
	doc, err := loadTown(ctx, u.Store, u.TxManager, village)
	if err != nil {
		return SceneResponse{}, err
	}
	catalog, err := u.Catalog.Catalog(ctx)
	if err != nil {
		return SceneResponse{}, err
	}

	resp := SceneResponse{
		Village:    village,
		Grid:       doc.Grid,
		GrassColor: doc.Color("grass", town.DefaultGrassColor),
	}
	var houses []town.House
	if key := strings.TrimSpace(req.ChunkKey); key != "" {
		row, col, err := town.ParseChunkKey(key)
		if err != nil {
			return SceneResponse{}, err
		}
		if !doc.Partition().InRange(row, col) {
			return SceneResponse{}, fmt.Errorf("%w: %s", town.ErrChunkNotFound, key)
		}
		key = town.ChunkKey(row, col)
		chunkHouses, bounds, err := doc.ChunkHouses(key)
		if err != nil {
			return SceneResponse{}, err
		}
		resp.ChunkKey = key
		resp.Bounds = &bounds
		houses = chunkHouses
	} else {
		houses = town.AllHouses(doc)
		resp.Roads = doc.LineRoads()
		resp.PointsOfInterest = doc.PointsOfInterestList()
	}

	resp.Scene = town.BuildScene(doc, catalog, houses, town.SceneOptions{
		Village:       village,
		UseFootprints: req.UseFootprints,
	})
	resp.Stats = SceneStats{
		Houses:           len(houses),
		Drawn:            resp.Scene.Drawn,
		Skipped:          resp.Scene.Skipped,
		Roads:            len(resp.Roads),
		PointsOfInterest: len(resp.PointsOfInterest),
	}
	return resp, nil
}

func loadTown(ctx context.Context, store ports.TownStore, tx ports.TxManager, village string) (*town.Document, error) {
	village = strings.TrimSpace(village)
	if village == "" {
		return nil, ErrInvalidRequest
	}
	var doc *town.Document
	load := func(ctx context.Context) error {
		d, err := store.Load(ctx, village)
		if err != nil {
			return err
		}
		doc = d
		return nil
	}
	err := runInTx(ctx, tx, load)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return nil, err
	}
	available, listErr := listTowns(ctx, store, tx)
	if listErr != nil {
		return nil, err
	}
	return nil, &TownNotFoundError{Village: village, Available: available}
}

func listTowns(ctx context.Context, store ports.TownStore, tx ports.TxManager) ([]string, error) {
	var names []string
	err := runInTx(ctx, tx, func(ctx context.Context) error {
		n, err := store.List(ctx)
		names = n
		return err
	})
	return names, err
}

func runInTx(ctx context.Context, tx ports.TxManager, fn func(ctx context.Context) error) error {
	if tx == nil {
		return fn(ctx)
	}
	return tx.RunInTx(ctx, fn)
}
