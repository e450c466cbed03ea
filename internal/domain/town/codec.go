package town

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var ErrMalformedDocument = errors.New("malformed town document")

var knownDocumentKeys = []string{
	"grid", "palette", "chunking", "houses_by_chunk", "houses", "roads", "points_of_interest",
}

type documentWire struct {
	Grid             Grid              `json:"grid"`
	Palette          map[string]string `json:"palette"`
	Chunking         Chunking          `json:"chunking"`
	Roads            json.RawMessage   `json:"roads"`
	PointsOfInterest json.RawMessage   `json:"points_of_interest"`
}

// UnmarshalJSON resolves every stored shape into HousesByChunk: chunk values
// may be {bounds, houses} objects or bare house arrays, and legacy documents
// keep a flat top-level "houses" list that is grouped by anchor here.
func (d *Document) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("%w: invalid json", ErrMalformedDocument)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return fmt.Errorf("%w: top level must be an object", ErrMalformedDocument)
	}

	var wire documentWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	out := Document{
		Grid:             wire.Grid,
		Palette:          wire.Palette,
		Chunking:         wire.Chunking,
		HousesByChunk:    map[string]*ChunkEntry{},
		Roads:            wire.Roads,
		PointsOfInterest: wire.PointsOfInterest,
	}
	if out.Palette == nil {
		out.Palette = map[string]string{}
	}

	var decodeErr error
	if grouped := root.Get("houses_by_chunk"); grouped.IsObject() {
		grouped.ForEach(func(key, value gjson.Result) bool {
			entry := &ChunkEntry{Houses: decodeHouses(chunkHouseList(value))}
			if b := value.Get("bounds"); value.IsObject() && b.Exists() {
				if err := json.Unmarshal([]byte(b.Raw), &entry.Bounds); err != nil {
					decodeErr = fmt.Errorf("%w: chunk %s bounds: %v", ErrMalformedDocument, key.String(), err)
					return false
				}
			}
			out.HousesByChunk[key.String()] = entry
			return true
		})
	}
	if decodeErr != nil {
		return decodeErr
	}

	if legacy := root.Get("houses"); legacy.IsArray() {
		for _, h := range decodeHouses(legacy) {
			key := out.ChunkKeyForPoint(h.X, h.Y)
			entry, err := EnsureChunkEntry(&out, key)
			if err != nil {
				return err
			}
			entry.Houses = append(entry.Houses, h)
		}
	}
	for key := range out.HousesByChunk {
		if _, err := EnsureChunkEntry(&out, key); err != nil {
			// Unparseable keys are kept so a save does not drop their houses.
			continue
		}
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	for _, k := range knownDocumentKeys {
		delete(all, k)
	}
	if len(all) > 0 {
		out.Extra = all
	}

	*d = out
	return nil
}

func chunkHouseList(value gjson.Result) gjson.Result {
	if value.IsArray() {
		return value
	}
	return value.Get("houses")
}

// decodeHouses skips entries that are not objects and coerces numbers the
// way hand-edited files tend to need (e.g. "rotation": "90").
func decodeHouses(list gjson.Result) []House {
	out := []House{}
	list.ForEach(func(_, h gjson.Result) bool {
		if !h.IsObject() {
			return true
		}
		out = append(out, House{
			ID:        h.Get("id").String(),
			ClassName: h.Get("class").String(),
			Rotation:  int(h.Get("rotation").Int()),
			X:         h.Get("x").Float(),
			Y:         h.Get("y").Float(),
			Occupants: h.Get("occupants").String(),
			Notes:     h.Get("notes").String(),
		})
		return true
	})
	return out
}

// MarshalJSON always writes the chunked shape and stamps the chunking
// metadata so the file documents its own key format.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Extra)+6)
	for k, v := range d.Extra {
		out[k] = v
	}
	out["grid"] = d.Grid
	palette := d.Palette
	if palette == nil {
		palette = map[string]string{}
	}
	out["palette"] = palette

	chunking := d.Chunking
	if chunking.ChunkSize <= 0 {
		chunking.ChunkSize = d.Partition().Size
	}
	if chunking.ChunkKeyFormat == "" {
		chunking.ChunkKeyFormat = ChunkKeyFormat
	}
	if chunking.Anchor == "" {
		chunking.Anchor = AnchorTopLeft
	}
	out["chunking"] = chunking

	byChunk := make(map[string]ChunkEntry, len(d.HousesByChunk))
	for k, entry := range d.HousesByChunk {
		if entry == nil {
			continue
		}
		houses := entry.Houses
		if houses == nil {
			houses = []House{}
		}
		byChunk[k] = ChunkEntry{Bounds: entry.Bounds, Houses: houses}
	}
	out["houses_by_chunk"] = byChunk
	if len(d.Roads) > 0 {
		out["roads"] = d.Roads
	}
	if len(d.PointsOfInterest) > 0 {
		out["points_of_interest"] = d.PointsOfInterest
	}
	return json.Marshal(out)
}

// GroupLegacy stamps the chunking block the way the conversion tool does,
// leaving houses already in HousesByChunk.
func (d *Document) GroupLegacy(chunkSize int) {
	if chunkSize > 0 && chunkSize != d.Chunking.ChunkSize {
		houses := AllHouses(d)
		d.Chunking.ChunkSize = chunkSize
		d.Chunking.GridChunks = nil
		d.HousesByChunk = map[string]*ChunkEntry{}
		for _, h := range houses {
			entry, _ := EnsureChunkEntry(d, d.ChunkKeyForPoint(h.X, h.Y))
			entry.Houses = append(entry.Houses, h)
		}
	}
	p := d.Partition()
	d.Chunking.Mode = fmt.Sprintf("%dx%d", p.Size, p.Size)
	d.Chunking.ChunkSize = p.Size
	d.Chunking.GridChunks = &GridChunks{Rows: p.Rows, Cols: p.Cols}
	d.Chunking.ChunkKeyFormat = ChunkKeyFormat
	d.Chunking.Anchor = AnchorTopLeft
}
