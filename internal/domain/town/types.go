package town

import (
	"encoding/json"
	"errors"
	"strings"
)

const (
	DefaultGridSize   = 320
	DefaultChunkSize  = 80
	ChunkKeyFormat    = "r{row}c{col}"
	AnchorTopLeft     = "top_left"
	DefaultHouseRole  = "house"
	ConnectorRole     = "connector"
	EditorAddedNote   = "added via editor"
	defaultPaletteKey = "house_a"
)

var (
	ErrHouseNotFound    = errors.New("house not found")
	ErrChunkNotFound    = errors.New("chunk not found")
	ErrClassNotFound    = errors.New("house class not found")
	ErrDuplicateHouseID = errors.New("duplicate house id")
	ErrInvalidChunkKey  = errors.New("invalid chunk key")
)

type Grid struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type GridChunks struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

type Chunking struct {
	Mode           string      `json:"mode,omitempty"`
	ChunkSize      int         `json:"chunk_size,omitempty"`
	GridChunks     *GridChunks `json:"grid_chunks,omitempty"`
	ChunkKeyFormat string      `json:"chunk_key_format,omitempty"`
	Anchor         string      `json:"anchor,omitempty"`
}

// House is a single placed building. X and Y name the anchor corner the
// rectangle extends away from toward decreasing x and y, i.e. the top-right
// corner once drawn, even though documents label it "top_left".
type House struct {
	ID        string  `json:"id"`
	ClassName string  `json:"class"`
	Rotation  int     `json:"rotation"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Occupants string  `json:"occupants,omitempty"`
	Notes     string  `json:"notes,omitempty"`
}

type ChunkEntry struct {
	Bounds Bounds  `json:"bounds"`
	Houses []House `json:"houses"`
}

// Document is a whole village layout as persisted on disk. Roads and points
// of interest are decorative and carried through untouched.
type Document struct {
	Grid             Grid
	Palette          map[string]string
	Chunking         Chunking
	HousesByChunk    map[string]*ChunkEntry
	Roads            json.RawMessage
	PointsOfInterest json.RawMessage
	Extra            map[string]json.RawMessage
}

func NewDocument(grid Grid, chunkSize int) *Document {
	return &Document{
		Grid:          grid,
		Palette:       map[string]string{},
		Chunking:      Chunking{ChunkSize: chunkSize},
		HousesByChunk: map[string]*ChunkEntry{},
	}
}

// Color resolves a palette key, falling back when the document leaves it unset.
func (d *Document) Color(key, fallback string) string {
	if c, ok := d.Palette[key]; ok && strings.TrimSpace(c) != "" {
		return c
	}
	return fallback
}

// Clone returns a deep copy so callers can mutate without aliasing a store.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		Grid:             d.Grid,
		Palette:          make(map[string]string, len(d.Palette)),
		Chunking:         d.Chunking,
		HousesByChunk:    make(map[string]*ChunkEntry, len(d.HousesByChunk)),
		Roads:            cloneRaw(d.Roads),
		PointsOfInterest: cloneRaw(d.PointsOfInterest),
	}
	if d.Chunking.GridChunks != nil {
		gc := *d.Chunking.GridChunks
		out.Chunking.GridChunks = &gc
	}
	for k, v := range d.Palette {
		out.Palette[k] = v
	}
	for k, entry := range d.HousesByChunk {
		if entry == nil {
			continue
		}
		houses := make([]House, len(entry.Houses))
		copy(houses, entry.Houses)
		out.HousesByChunk[k] = &ChunkEntry{Bounds: entry.Bounds, Houses: houses}
	}
	if len(d.Extra) > 0 {
		out.Extra = make(map[string]json.RawMessage, len(d.Extra))
		for k, v := range d.Extra {
			out.Extra[k] = cloneRaw(v)
		}
	}
	return out
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}

type HouseClass struct {
	Family    string    `json:"family"`
	Footprint Footprint `json:"footprint"`
}

// Catalog is the shared house class list plus the family to palette key map.
type Catalog struct {
	Classes      map[string]HouseClass `json:"classes"`
	ClassPalette map[string]string     `json:"class_palette,omitempty"`
}

func (c Catalog) Class(name string) (HouseClass, bool) {
	cls, ok := c.Classes[name]
	return cls, ok
}

func (c Catalog) PaletteKey(family string) string {
	if key, ok := c.ClassPalette[family]; ok && key != "" {
		return key
	}
	return defaultPaletteKey
}
