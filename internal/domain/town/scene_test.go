package town

import (
	"testing"
)

func testCatalog() Catalog {
	return Catalog{
		Classes: map[string]HouseClass{
			"A2": {Family: "A", Footprint: Footprint{
				Width:  IntPtr(2),
				Height: IntPtr(3),
				Tiles:  []FootprintTile{{X: 0, Y: 0}, {X: 1, Y: 2, Role: ConnectorRole}},
			}},
			"B1":    {Family: "B", Footprint: Footprint{Width: IntPtr(4), Height: IntPtr(4)}},
			"BROKE": {Family: "A", Footprint: Footprint{Width: IntPtr(2)}},
		},
		ClassPalette: map[string]string{"A": "house_a", "B": "house_b"},
	}
}

func TestBuildScene_SquaresAnchorIsTopRight(t *testing.T) {
	doc := newTestDocument()
	doc.Palette["house_a"] = "#111111"
	houses := []House{{ID: "Dogville-001", ClassName: "A2", Rotation: 90, X: 10, Y: 10}}

	scene := BuildScene(doc, testCatalog(), houses, SceneOptions{Village: "dogville"})
	if scene.Mode != ModeSquares || scene.Drawn != 1 || scene.Skipped != 0 {
		t.Fatalf("unexpected scene stats %+v", scene)
	}
	p := scene.Placements[0]
	if p.Width != 3 || p.Height != 2 {
		t.Fatalf("expected rotated size 3x2, got %vx%v", p.Width, p.Height)
	}
	if p.Corner != (Point{X: 7, Y: 8}) {
		t.Fatalf("expected corner (7,8), got %+v", p.Corner)
	}
	if p.Center != (Point{X: 8.5, Y: 9}) {
		t.Fatalf("expected center (8.5,9), got %+v", p.Center)
	}
	if p.Label != "001" {
		t.Fatalf("expected village prefix stripped, got %q", p.Label)
	}
	if p.Color != "#111111" || p.StyleKey != "house_a" {
		t.Fatalf("unexpected style %s/%s", p.StyleKey, p.Color)
	}
	if len(p.Tiles) != 0 {
		t.Fatalf("squares mode must not emit tiles")
	}
}

func TestBuildScene_FootprintTilesAreRotatedFromAnchor(t *testing.T) {
	doc := newTestDocument()
	houses := []House{{ID: "h", ClassName: "A2", Rotation: 90, X: 10, Y: 10}}

	scene := BuildScene(doc, testCatalog(), houses, SceneOptions{UseFootprints: true})
	p := scene.Placements[0]
	if scene.Mode != ModeFootprints || len(p.Tiles) != 2 {
		t.Fatalf("expected two tiles in footprint mode, got %+v", p.Tiles)
	}
	// (0,0) rotates to (2,0); (1,2) rotates to (0,1).
	if p.Tiles[0] != (PlacedTile{X: 7, Y: 9, Role: "house", Color: DefaultHouseColor}) {
		t.Fatalf("unexpected first tile %+v", p.Tiles[0])
	}
	if p.Tiles[1] != (PlacedTile{X: 9, Y: 8, Role: "connector", Color: DefaultConnectorColor}) {
		t.Fatalf("unexpected connector tile %+v", p.Tiles[1])
	}
	if p.GrassColor != DefaultGrassColor {
		t.Fatalf("expected grass underlay, got %q", p.GrassColor)
	}
}

func TestBuildScene_SkipsUnknownAndUnsized(t *testing.T) {
	doc := newTestDocument()
	houses := []House{
		{ID: "ok", ClassName: "B1"},
		{ID: "ghost", ClassName: "ZZ"},
		{ID: "broken", ClassName: "BROKE"},
	}
	scene := BuildScene(doc, testCatalog(), houses, SceneOptions{})
	if scene.Drawn != 1 || scene.Skipped != 2 || len(scene.Placements) != 1 {
		t.Fatalf("unexpected stats drawn=%d skipped=%d", scene.Drawn, scene.Skipped)
	}
	if scene.Placements[0].Color != DefaultHouseColor {
		t.Fatalf("expected default color when palette misses key, got %s", scene.Placements[0].Color)
	}
}

func TestBuildScene_OverrideAndHighlight(t *testing.T) {
	doc := newTestDocument()
	rot := 180
	houses := []House{{ID: "h", ClassName: "B1", X: 10, Y: 10}, {ID: "other", ClassName: "B1", X: 30, Y: 30}}
	scene := BuildScene(doc, testCatalog(), houses, SceneOptions{
		Overrides:   map[string]Override{"h": {X: 12, Y: 9, Rotation: &rot}},
		HighlightID: "h",
	})
	p := scene.Placements[0]
	if p.Anchor != (Point{X: 12, Y: 9}) || p.Rotation != 180 || !p.Pending || !p.Highlight {
		t.Fatalf("expected override applied, got %+v", p)
	}
	if scene.Placements[1].Pending || scene.Placements[1].Highlight {
		t.Fatalf("override leaked onto other house")
	}
	if scene.HighlightColor != HighlightColor {
		t.Fatalf("expected highlight color, got %q", scene.HighlightColor)
	}
}

func TestHouseLabel(t *testing.T) {
	cases := map[[2]string]string{
		{"dogville-001", "Dogville"}: "001",
		{"DOGVILLE-7", "dogville"}:   "7",
		{"a2-001", "Dogville"}:       "a2-001",
		{"dog", "Dogville"}:          "dog",
		{"x-1", ""}:                  "x-1",
	}
	for in, want := range cases {
		if got := HouseLabel(in[0], in[1]); got != want {
			t.Fatalf("HouseLabel(%q,%q): got=%q want=%q", in[0], in[1], got, want)
		}
	}
}
