package town

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type Footprint struct {
	Width     *int            `json:"width,omitempty"`
	Height    *int            `json:"height,omitempty"`
	Tiles     []FootprintTile `json:"tiles,omitempty"`
	TileRects []TileRect      `json:"tile_rects,omitempty"`
}

// FootprintTile is stored as [dx, dy] or [dx, dy, role].
type FootprintTile struct {
	X    int
	Y    int
	Role string

	malformed bool
}

func (t FootprintTile) MarshalJSON() ([]byte, error) {
	if t.Role == "" {
		return json.Marshal([2]int{t.X, t.Y})
	}
	return json.Marshal([]any{t.X, t.Y, t.Role})
}

// UnmarshalJSON tolerates short or non-array entries; they are dropped at
// expansion time rather than failing the whole catalog.
func (t *FootprintTile) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil || len(parts) < 2 {
		*t = FootprintTile{malformed: true}
		return nil
	}
	var x, y float64
	if json.Unmarshal(parts[0], &x) != nil || json.Unmarshal(parts[1], &y) != nil {
		*t = FootprintTile{malformed: true}
		return nil
	}
	out := FootprintTile{X: int(x), Y: int(y)}
	if len(parts) >= 3 {
		var role string
		if err := json.Unmarshal(parts[2], &role); err != nil {
			role = strings.Trim(string(parts[2]), `"`)
		}
		out.Role = role
	}
	*t = out
	return nil
}

// UnmarshalJSON coerces width and height the way tiles are coerced. A
// dimension that is not a number is treated as absent.
func (fp *Footprint) UnmarshalJSON(data []byte) error {
	var raw struct {
		Width     json.RawMessage `json:"width"`
		Height    json.RawMessage `json:"height"`
		Tiles     json.RawMessage `json:"tiles"`
		TileRects json.RawMessage `json:"tile_rects"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := Footprint{}
	// A tiles or tile_rects value that is not a list is ignored.
	if len(raw.Tiles) > 0 {
		_ = json.Unmarshal(raw.Tiles, &out.Tiles)
	}
	if len(raw.TileRects) > 0 {
		_ = json.Unmarshal(raw.TileRects, &out.TileRects)
	}
	if w, ok := coerceInt(raw.Width); ok {
		out.Width = &w
	}
	if h, ok := coerceInt(raw.Height); ok {
		out.Height = &h
	}
	*fp = out
	return nil
}

type TileRect struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Role   string `json:"role,omitempty"`

	malformed bool
}

// UnmarshalJSON marks non-object entries and non-numeric fields malformed so
// expansion skips just that rect. Missing fields default to zero.
func (r *TileRect) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		*r = TileRect{malformed: true}
		return nil
	}
	out := TileRect{}
	for name, dst := range map[string]*int{"x": &out.X, "y": &out.Y, "width": &out.Width, "height": &out.Height} {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		v, ok := coerceInt(raw)
		if !ok {
			*r = TileRect{malformed: true}
			return nil
		}
		*dst = v
	}
	if raw, ok := fields["role"]; ok {
		var role string
		if err := json.Unmarshal(raw, &role); err != nil {
			role = strings.Trim(string(raw), `"`)
		}
		out.Role = role
	}
	*r = out
	return nil
}

// coerceInt accepts JSON numbers (truncated) and integer strings.
func coerceInt(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int(f), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return v, true
		}
	}
	return 0, false
}

// Cell is one unit tile of an expanded footprint in local tile space.
type Cell struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Role string `json:"role"`
}

func IntPtr(v int) *int {
	return &v
}

func normalizeRotation(rotation int) int {
	return ((rotation % 360) + 360) % 360
}

// NormalizeSize returns the rotated bounding size. A footprint missing either
// dimension yields (0, 0) and must be skipped by callers.
func NormalizeSize(fp Footprint, rotation int) (float64, float64) {
	if fp.Width == nil || fp.Height == nil {
		return 0, 0
	}
	if normalizeRotation(rotation)%180 == 90 {
		return float64(*fp.Height), float64(*fp.Width)
	}
	return float64(*fp.Width), float64(*fp.Height)
}

// ExpandFootprintTiles prefers explicit tiles, then tile rects, then a solid
// width x height block. The first non-empty representation wins.
func ExpandFootprintTiles(fp Footprint) []Cell {
	if len(fp.Tiles) > 0 {
		out := make([]Cell, 0, len(fp.Tiles))
		for _, t := range fp.Tiles {
			if t.malformed {
				continue
			}
			role := t.Role
			if role == "" {
				role = DefaultHouseRole
			}
			out = append(out, Cell{X: t.X, Y: t.Y, Role: role})
		}
		if len(out) > 0 {
			return out
		}
	}

	if len(fp.TileRects) > 0 {
		out := make([]Cell, 0)
		for _, r := range fp.TileRects {
			if r.malformed {
				continue
			}
			role := r.Role
			if role == "" {
				role = DefaultHouseRole
			}
			for x := r.X; x < r.X+max(0, r.Width); x++ {
				for y := r.Y; y < r.Y+max(0, r.Height); y++ {
					out = append(out, Cell{X: x, Y: y, Role: role})
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}

	w, h := baseSize(fp)
	if w <= 0 || h <= 0 {
		return []Cell{}
	}
	out := make([]Cell, 0, w*h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			out = append(out, Cell{X: x, Y: y, Role: DefaultHouseRole})
		}
	}
	return out
}

func baseSize(fp Footprint) (int, int) {
	w, h := 0, 0
	if fp.Width != nil {
		w = *fp.Width
	}
	if fp.Height != nil {
		h = *fp.Height
	}
	return w, h
}

// RotateTile turns a local tile in 90 degree steps about the footprint's own
// axes so the result stays in non-negative tile space. Rotations that are not
// a multiple of 90 leave the tile where it is.
func RotateTile(x, y, baseWidth, baseHeight, rotation int) (int, int) {
	switch normalizeRotation(rotation) {
	case 90:
		return baseHeight - 1 - y, x
	case 180:
		return baseWidth - 1 - x, baseHeight - 1 - y
	case 270:
		return y, baseWidth - 1 - x
	default:
		return x, y
	}
}
