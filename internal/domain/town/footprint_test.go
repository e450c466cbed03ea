package town

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeSize_SwapsOnQuarterTurns(t *testing.T) {
	fp := Footprint{Width: IntPtr(2), Height: IntPtr(3)}
	for _, r := range []int{90, 270, -90, 450} {
		w, h := NormalizeSize(fp, r)
		if w != 3 || h != 2 {
			t.Fatalf("rotation %d: got (%v,%v) want (3,2)", r, w, h)
		}
	}
	for _, r := range []int{0, 180, 360, -180} {
		w, h := NormalizeSize(fp, r)
		if w != 2 || h != 3 {
			t.Fatalf("rotation %d: got (%v,%v) want (2,3)", r, w, h)
		}
	}
}

func TestNormalizeSize_MissingDimension(t *testing.T) {
	for _, fp := range []Footprint{{}, {Width: IntPtr(4)}, {Height: IntPtr(4)}} {
		if w, h := NormalizeSize(fp, 90); w != 0 || h != 0 {
			t.Fatalf("expected (0,0) for %+v, got (%v,%v)", fp, w, h)
		}
	}
}

func TestExpandFootprintTiles_ExplicitTilesWin(t *testing.T) {
	fp := Footprint{
		Width:     IntPtr(3),
		Height:    IntPtr(3),
		Tiles:     []FootprintTile{{X: 0, Y: 0}, {X: 1, Y: 0, Role: ConnectorRole}},
		TileRects: []TileRect{{X: 0, Y: 0, Width: 3, Height: 3}},
	}
	want := []Cell{{X: 0, Y: 0, Role: "house"}, {X: 1, Y: 0, Role: "connector"}}
	if diff := cmp.Diff(want, ExpandFootprintTiles(fp)); diff != "" {
		t.Fatalf("cells mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandFootprintTiles_RectsExpandToUnitCells(t *testing.T) {
	fp := Footprint{
		Width:  IntPtr(5),
		Height: IntPtr(5),
		TileRects: []TileRect{
			{X: 0, Y: 0, Width: 2, Height: 1},
			{X: 2, Y: 0, Width: 1, Height: 2, Role: ConnectorRole},
			{X: 4, Y: 4, Width: -1, Height: 3},
		},
	}
	want := []Cell{
		{X: 0, Y: 0, Role: "house"},
		{X: 1, Y: 0, Role: "house"},
		{X: 2, Y: 0, Role: "connector"},
		{X: 2, Y: 1, Role: "connector"},
	}
	if diff := cmp.Diff(want, ExpandFootprintTiles(fp)); diff != "" {
		t.Fatalf("cells mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandFootprintTiles_FallsBackToSolidRectangle(t *testing.T) {
	fp := Footprint{Width: IntPtr(2), Height: IntPtr(2), TileRects: []TileRect{{Width: 0, Height: 4}}}
	want := []Cell{
		{X: 0, Y: 0, Role: "house"},
		{X: 0, Y: 1, Role: "house"},
		{X: 1, Y: 0, Role: "house"},
		{X: 1, Y: 1, Role: "house"},
	}
	if diff := cmp.Diff(want, ExpandFootprintTiles(fp)); diff != "" {
		t.Fatalf("cells mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandFootprintTiles_EmptyWhenNoSize(t *testing.T) {
	for _, fp := range []Footprint{{}, {Width: IntPtr(0), Height: IntPtr(3)}, {Width: IntPtr(-2), Height: IntPtr(-2)}} {
		if got := ExpandFootprintTiles(fp); len(got) != 0 {
			t.Fatalf("expected no cells for %+v, got %v", fp, got)
		}
	}
}

func TestFootprintTile_DecodesArraysAndSkipsMalformed(t *testing.T) {
	var fp Footprint
	raw := `{"width":2,"height":2,"tiles":[[0,0],[1,1,"connector"],[5],"bad",[1.0,0,"house"]]}`
	if err := json.Unmarshal([]byte(raw), &fp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []Cell{
		{X: 0, Y: 0, Role: "house"},
		{X: 1, Y: 1, Role: "connector"},
		{X: 1, Y: 0, Role: "house"},
	}
	if diff := cmp.Diff(want, ExpandFootprintTiles(fp)); diff != "" {
		t.Fatalf("cells mismatch (-want +got):\n%s", diff)
	}
}

func TestTileRect_SkipsMalformedEntries(t *testing.T) {
	var fp Footprint
	raw := `{"width":4,"height":4,"tile_rects":["junk",42,{"x":"a","width":1,"height":1},{"x":1.9,"y":0,"width":"2","height":1,"role":"connector"}]}`
	if err := json.Unmarshal([]byte(raw), &fp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []Cell{
		{X: 1, Y: 0, Role: "connector"},
		{X: 2, Y: 0, Role: "connector"},
	}
	if diff := cmp.Diff(want, ExpandFootprintTiles(fp)); diff != "" {
		t.Fatalf("cells mismatch (-want +got):\n%s", diff)
	}
}

func TestFootprint_IgnoresNonListTiles(t *testing.T) {
	var fp Footprint
	if err := json.Unmarshal([]byte(`{"width":2,"height":1,"tiles":"none","tile_rects":{"x":0}}`), &fp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []Cell{{X: 0, Y: 0, Role: "house"}, {X: 1, Y: 0, Role: "house"}}
	if diff := cmp.Diff(want, ExpandFootprintTiles(fp)); diff != "" {
		t.Fatalf("cells mismatch (-want +got):\n%s", diff)
	}
}

func TestFootprint_CoercesDimensions(t *testing.T) {
	cases := map[string][2]*int{
		`{"width":2.0,"height":3}`:    {IntPtr(2), IntPtr(3)},
		`{"width":"2","height":2.7}`:  {IntPtr(2), IntPtr(2)},
		`{"width":null,"height":"x"}`: {nil, nil},
		`{}`:                          {nil, nil},
	}
	for raw, want := range cases {
		var fp Footprint
		if err := json.Unmarshal([]byte(raw), &fp); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		if diff := cmp.Diff(want, [2]*int{fp.Width, fp.Height}); diff != "" {
			t.Fatalf("dimensions for %s (-want +got):\n%s", raw, diff)
		}
	}
}

func TestRotateTile_Formulas(t *testing.T) {
	cases := []struct {
		rotation int
		wantX    int
		wantY    int
	}{
		{0, 1, 2},
		{90, 0, 1},
		{180, 0, 0},
		{270, 2, 0},
		{360, 1, 2},
		{-90, 2, 0},
		{45, 1, 2},
	}
	for _, tc := range cases {
		x, y := RotateTile(1, 2, 2, 3, tc.rotation)
		if x != tc.wantX || y != tc.wantY {
			t.Fatalf("rotation %d: got (%d,%d) want (%d,%d)", tc.rotation, x, y, tc.wantX, tc.wantY)
		}
	}
}

func TestRotateTile_IsBijection(t *testing.T) {
	const w, h = 3, 5
	for _, r := range []int{0, 90, 180, 270} {
		outW, outH := w, h
		if r%180 == 90 {
			outW, outH = h, w
		}
		seen := map[[2]int]bool{}
		for x := 0; x < w; x++ {
			for y := 0; y < h; y++ {
				rx, ry := RotateTile(x, y, w, h, r)
				if rx < 0 || ry < 0 || rx >= outW || ry >= outH {
					t.Fatalf("rotation %d: (%d,%d) escaped grid to (%d,%d)", r, x, y, rx, ry)
				}
				if seen[[2]int{rx, ry}] {
					t.Fatalf("rotation %d: collision at (%d,%d)", r, rx, ry)
				}
				seen[[2]int{rx, ry}] = true
			}
		}
		if len(seen) != w*h {
			t.Fatalf("rotation %d: expected %d cells, got %d", r, w*h, len(seen))
		}
	}
}

func TestRotateTile_FourQuarterTurnsIsIdentity(t *testing.T) {
	const w, h = 4, 2
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			cx, cy, cw, ch := x, y, w, h
			for i := 0; i < 4; i++ {
				cx, cy = RotateTile(cx, cy, cw, ch, 90)
				cw, ch = ch, cw
			}
			if cx != x || cy != y {
				t.Fatalf("(%d,%d) came back as (%d,%d)", x, y, cx, cy)
			}
		}
	}
}
