package layout

import (
	"context"
	"errors"
	"testing"
	"time"

	"villagemap/internal/app/ports"
	"villagemap/internal/domain/town"
)

func TestListTowns_ReturnsStoreNames(t *testing.T) {
	uc := ListTownsUseCase{Store: &fakeStore{towns: map[string]*town.Document{
		"dogville": seedTown(t),
		"catburg":  seedTown(t),
	}}}
	resp, err := uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if len(resp.Villages) != 2 || resp.Villages[0] != "catburg" {
		t.Fatalf("unexpected villages %v", resp.Villages)
	}
}

func TestListChunks_CoversGrid(t *testing.T) {
	uc := ListChunksUseCase{Store: &fakeStore{towns: map[string]*town.Document{"dogville": seedTown(t)}}, TxManager: &fakeTx{}}
	resp, err := uc.Execute(context.Background(), ListChunksRequest{Village: " dogville "})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if len(resp.Chunks) != 16 {
		t.Fatalf("expected 16 chunks, got %d", len(resp.Chunks))
	}
	var r1c2 town.ChunkSummary
	for _, c := range resp.Chunks {
		if c.Key == "r1c2" {
			r1c2 = c
		}
	}
	if r1c2.HouseCount != 1 {
		t.Fatalf("expected one house in r1c2, got %+v", r1c2)
	}
}

func TestListChunks_MissingTownListsAvailable(t *testing.T) {
	uc := ListChunksUseCase{Store: &fakeStore{towns: map[string]*town.Document{"dogville": seedTown(t)}}}
	_, err := uc.Execute(context.Background(), ListChunksRequest{Village: "nowhere"})
	if !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var nf *TownNotFoundError
	if !errors.As(err, &nf) || len(nf.Available) != 1 || nf.Available[0] != "dogville" {
		t.Fatalf("expected available towns in error, got %v", err)
	}
}

func TestListChunks_RejectsEmptyVillage(t *testing.T) {
	if _, err := (ListChunksUseCase{}).Execute(context.Background(), ListChunksRequest{}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestScene_WholeTownIncludesDecorations(t *testing.T) {
	doc := seedTown(t)
	doc.Roads = []byte(`[{"type":"line","from":{"x":0,"y":0},"to":{"x":40,"y":0}},{"type":"curve"}]`)
	doc.PointsOfInterest = []byte(`[{"x":1,"y":1,"label":"Well"}]`)
	uc := SceneUseCase{
		Store:     &fakeStore{towns: map[string]*town.Document{"dogville": doc}},
		Catalog:   fakeCatalog{},
		TxManager: &fakeTx{},
	}
	resp, err := uc.Execute(context.Background(), SceneRequest{Village: "dogville", UseFootprints: true})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if resp.Stats.Houses != 2 || resp.Stats.Drawn != 1 || resp.Stats.Skipped != 1 {
		t.Fatalf("unexpected stats %+v", resp.Stats)
	}
	if resp.Stats.Roads != 1 || resp.Stats.PointsOfInterest != 1 {
		t.Fatalf("expected one line road and one poi, got %+v", resp.Stats)
	}
	if resp.Scene.Mode != town.ModeFootprints {
		t.Fatalf("expected footprint mode, got %s", resp.Scene.Mode)
	}
	if resp.Scene.Placements[0].Label != "001" {
		t.Fatalf("expected village prefix stripped, got %q", resp.Scene.Placements[0].Label)
	}
}

func TestScene_SingleChunk(t *testing.T) {
	uc := SceneUseCase{
		Store:   &fakeStore{towns: map[string]*town.Document{"dogville": seedTown(t)}},
		Catalog: fakeCatalog{},
	}
	resp, err := uc.Execute(context.Background(), SceneRequest{Village: "dogville", ChunkKey: "r1c2"})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if resp.Bounds == nil || resp.Bounds.XMin != 0 || resp.Bounds.YMax != 80 {
		t.Fatalf("unexpected bounds %+v", resp.Bounds)
	}
	if resp.Stats.Houses != 1 || resp.Scene.Mode != town.ModeSquares {
		t.Fatalf("unexpected chunk scene %+v", resp.Stats)
	}
	if len(resp.Roads) != 0 {
		t.Fatalf("chunk scenes carry no roads")
	}

	if _, err := uc.Execute(context.Background(), SceneRequest{Village: "dogville", ChunkKey: "row1"}); !errors.Is(err, town.ErrInvalidChunkKey) {
		t.Fatalf("expected ErrInvalidChunkKey, got %v", err)
	}
	if _, err := uc.Execute(context.Background(), SceneRequest{Village: "dogville", ChunkKey: "r9c9"}); !errors.Is(err, town.ErrChunkNotFound) {
		t.Fatalf("expected ErrChunkNotFound, got %v", err)
	}
}

func TestScene_CanonicalizesChunkKey(t *testing.T) {
	uc := SceneUseCase{
		Store:   &fakeStore{towns: map[string]*town.Document{"dogville": seedTown(t)}},
		Catalog: fakeCatalog{},
	}
	resp, err := uc.Execute(context.Background(), SceneRequest{Village: "dogville", ChunkKey: "r01c02"})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if resp.ChunkKey != "r1c2" || resp.Stats.Houses != 1 {
		t.Fatalf("expected zero-padded key resolved to r1c2 with 1 house, got key=%q houses=%d", resp.ChunkKey, resp.Stats.Houses)
	}
}

func TestScene_PropagatesCatalogError(t *testing.T) {
	wantErr := errors.New("catalog down")
	uc := SceneUseCase{
		Store:   &fakeStore{towns: map[string]*town.Document{"dogville": seedTown(t)}},
		Catalog: fakeCatalog{err: wantErr},
	}
	if _, err := uc.Execute(context.Background(), SceneRequest{Village: "dogville"}); !errors.Is(err, wantErr) {
		t.Fatalf("expected catalog error, got %v", err)
	}
}

func seedTown(t *testing.T) *town.Document {
	t.Helper()
	doc := town.NewDocument(town.Grid{Width: 320, Height: 320}, 80)
	for _, h := range []town.House{
		{ID: "dogville-001", ClassName: "A2", X: 10, Y: 10},
		{ID: "dogville-002", ClassName: "ZZ", X: -100, Y: 120},
	} {
		if _, err := town.AddHouse(doc, h); err != nil {
			t.Fatalf("seed house: %v", err)
		}
	}
	return doc
}

type fakeStore struct {
	towns map[string]*town.Document
}

func (s *fakeStore) Load(_ context.Context, village string) (*town.Document, error) {
	doc, ok := s.towns[village]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return doc.Clone(), nil
}

func (s *fakeStore) Save(_ context.Context, village string, doc *town.Document) (time.Time, error) {
	s.towns[village] = doc.Clone()
	return time.Now(), nil
}

func (s *fakeStore) ModTime(_ context.Context, village string) (time.Time, error) {
	if _, ok := s.towns[village]; !ok {
		return time.Time{}, ports.ErrNotFound
	}
	return time.Unix(0, 0), nil
}

func (s *fakeStore) List(_ context.Context) ([]string, error) {
	out := []string{}
	for _, name := range []string{"catburg", "dogville"} {
		if _, ok := s.towns[name]; ok {
			out = append(out, name)
		}
	}
	return out, nil
}

type fakeCatalog struct {
	err error
}

func (c fakeCatalog) Catalog(context.Context) (town.Catalog, error) {
	if c.err != nil {
		return town.Catalog{}, c.err
	}
	return town.Catalog{Classes: map[string]town.HouseClass{
		"A2": {Family: "A", Footprint: town.Footprint{Width: town.IntPtr(2), Height: town.IntPtr(3)}},
	}}, nil
}

type fakeTx struct {
	calls int
}

func (f *fakeTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

var (
	_ ports.TownStore       = (*fakeStore)(nil)
	_ ports.CatalogProvider = fakeCatalog{}
	_ ports.TxManager       = (*fakeTx)(nil)
)
