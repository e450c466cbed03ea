package town

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Bounds serializes as {"x":[min,max],"y":[min,max]}.
type Bounds struct {
	XMin float64
	XMax float64
	YMin float64
	YMax float64
}

func (b Bounds) Contains(x, y float64) bool {
	return x >= b.XMin && x < b.XMax && y > b.YMin && y <= b.YMax
}

func (b Bounds) Center() (float64, float64) {
	return (b.XMin + b.XMax) / 2, (b.YMin + b.YMax) / 2
}

func (b Bounds) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][2]float64{
		"x": {b.XMin, b.XMax},
		"y": {b.YMin, b.YMax},
	})
}

func (b *Bounds) UnmarshalJSON(data []byte) error {
	var raw struct {
		X []float64 `json:"x"`
		Y []float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.X) != 2 || len(raw.Y) != 2 {
		return fmt.Errorf("bounds want two values per axis, got x=%d y=%d", len(raw.X), len(raw.Y))
	}
	*b = Bounds{XMin: raw.X[0], XMax: raw.X[1], YMin: raw.Y[0], YMax: raw.Y[1]}
	return nil
}

// Partition is the resolved chunk grid of a document. The world spans
// [-width/2, width/2] horizontally with rows counted down from the top edge.
type Partition struct {
	XMin float64
	YMax float64
	Size int
	Rows int
	Cols int
}

func (d *Document) Partition() Partition {
	width := d.Grid.Width
	if width <= 0 {
		width = DefaultGridSize
	}
	height := d.Grid.Height
	if height <= 0 {
		height = DefaultGridSize
	}
	size := d.Chunking.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	rows := height / size
	cols := width / size
	if gc := d.Chunking.GridChunks; gc != nil {
		if gc.Rows > 0 {
			rows = gc.Rows
		}
		if gc.Cols > 0 {
			cols = gc.Cols
		}
	}
	return Partition{
		XMin: float64(-(width / 2)),
		YMax: float64(height / 2),
		Size: size,
		Rows: rows,
		Cols: cols,
	}
}

func ChunkKey(row, col int) string {
	return "r" + strconv.Itoa(row) + "c" + strconv.Itoa(col)
}

// ParseChunkKey accepts only r<digits>c<digits>.
func ParseChunkKey(key string) (int, int, error) {
	rest, ok := strings.CutPrefix(key, "r")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidChunkKey, key)
	}
	rowPart, colPart, ok := strings.Cut(rest, "c")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidChunkKey, key)
	}
	row, okRow := parseIndex(rowPart)
	col, okCol := parseIndex(colPart)
	if !okRow || !okCol {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidChunkKey, key)
	}
	return row, col, nil
}

func parseIndex(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (p Partition) PointToChunkKey(x, y float64) string {
	col := clampIndex(math.Floor((x-p.XMin)/float64(p.Size)), p.Cols)
	row := clampIndex(math.Floor((p.YMax-y)/float64(p.Size)), p.Rows)
	return ChunkKey(row, col)
}

func clampIndex(v float64, n int) int {
	if n <= 0 || math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > float64(n-1) {
		return n - 1
	}
	return int(v)
}

func (p Partition) ChunkBounds(row, col int) Bounds {
	xMin := p.XMin + float64(col*p.Size)
	yMax := p.YMax - float64(row*p.Size)
	return Bounds{
		XMin: xMin,
		XMax: xMin + float64(p.Size),
		YMin: yMax - float64(p.Size),
		YMax: yMax,
	}
}

func (p Partition) InRange(row, col int) bool {
	return row >= 0 && row < p.Rows && col >= 0 && col < p.Cols
}

func (d *Document) ChunkKeyForPoint(x, y float64) string {
	return d.Partition().PointToChunkKey(x, y)
}

// BoundsForKey derives bounds from the key alone.
func (d *Document) BoundsForKey(key string) (Bounds, error) {
	row, col, err := ParseChunkKey(key)
	if err != nil {
		return Bounds{}, err
	}
	return d.Partition().ChunkBounds(row, col), nil
}

// EnsureChunkEntry returns the entry for key, creating it with computed
// bounds and an empty house list the first time the chunk is touched.
func EnsureChunkEntry(doc *Document, key string) (*ChunkEntry, error) {
	if doc.HousesByChunk == nil {
		doc.HousesByChunk = map[string]*ChunkEntry{}
	}
	if entry, ok := doc.HousesByChunk[key]; ok && entry != nil {
		if entry.Houses == nil {
			entry.Houses = []House{}
		}
		if entry.Bounds == (Bounds{}) {
			if b, err := doc.BoundsForKey(key); err == nil {
				entry.Bounds = b
			}
		}
		return entry, nil
	}
	b, err := doc.BoundsForKey(key)
	if err != nil {
		return nil, err
	}
	entry := &ChunkEntry{Bounds: b, Houses: []House{}}
	doc.HousesByChunk[key] = entry
	return entry, nil
}

type ChunkSummary struct {
	Key        string `json:"key"`
	Row        int    `json:"row"`
	Col        int    `json:"col"`
	Bounds     Bounds `json:"bounds"`
	HouseCount int    `json:"house_count"`
}

func (s ChunkSummary) Description() string {
	return fmt.Sprintf("x %g..%g y %g..%g · %d", s.Bounds.XMin, s.Bounds.XMax, s.Bounds.YMin, s.Bounds.YMax, s.HouseCount)
}

// ChunkSummaries lists every chunk of the grid row-major, occupied or not.
func (d *Document) ChunkSummaries() []ChunkSummary {
	p := d.Partition()
	out := make([]ChunkSummary, 0, p.Rows*p.Cols)
	for row := 0; row < p.Rows; row++ {
		for col := 0; col < p.Cols; col++ {
			key := ChunkKey(row, col)
			count := 0
			if entry, ok := d.HousesByChunk[key]; ok && entry != nil {
				count = len(entry.Houses)
			}
			out = append(out, ChunkSummary{
				Key:        key,
				Row:        row,
				Col:        col,
				Bounds:     p.ChunkBounds(row, col),
				HouseCount: count,
			})
		}
	}
	return out
}

// ChunkHouses returns the stored houses of one chunk. Unknown but well-formed
// keys yield an empty list.
func (d *Document) ChunkHouses(key string) ([]House, Bounds, error) {
	b, err := d.BoundsForKey(key)
	if err != nil {
		return nil, Bounds{}, err
	}
	entry, ok := d.HousesByChunk[key]
	if !ok || entry == nil {
		return []House{}, b, nil
	}
	if entry.Bounds != (Bounds{}) {
		b = entry.Bounds
	}
	houses := make([]House, len(entry.Houses))
	copy(houses, entry.Houses)
	return houses, b, nil
}
