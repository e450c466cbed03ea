package town

import (
	"fmt"
	"sort"
)

func (d *Document) sortedChunkKeys() []string {
	keys := make([]string, 0, len(d.HousesByChunk))
	for k := range d.HousesByChunk {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FindHouseByID scans every chunk for id and returns the owning chunk key,
// the index inside that chunk's list and a pointer to the stored record.
func FindHouseByID(doc *Document, id string) (string, int, *House, bool) {
	for _, key := range doc.sortedChunkKeys() {
		entry := doc.HousesByChunk[key]
		if entry == nil {
			continue
		}
		for i := range entry.Houses {
			if entry.Houses[i].ID == id {
				return key, i, &entry.Houses[i], true
			}
		}
	}
	return "", 0, nil, false
}

func AllHouses(doc *Document) []House {
	out := make([]House, 0, CountHouses(doc))
	for _, key := range doc.sortedChunkKeys() {
		if entry := doc.HousesByChunk[key]; entry != nil {
			out = append(out, entry.Houses...)
		}
	}
	return out
}

func CountHouses(doc *Document) int {
	n := 0
	for _, entry := range doc.HousesByChunk {
		if entry != nil {
			n += len(entry.Houses)
		}
	}
	return n
}

// AddHouse stores h in the chunk its anchor falls in and returns that key.
// Rotation is stored in [0, 360).
func AddHouse(doc *Document, h House) (string, error) {
	if _, _, _, exists := FindHouseByID(doc, h.ID); exists {
		return "", fmt.Errorf("%w: %q", ErrDuplicateHouseID, h.ID)
	}
	h.Rotation = normalizeRotation(h.Rotation)
	key := doc.ChunkKeyForPoint(h.X, h.Y)
	entry, err := EnsureChunkEntry(doc, key)
	if err != nil {
		return "", err
	}
	entry.Houses = append(entry.Houses, h)
	return key, nil
}

type MoveResult struct {
	From string
	To   string
}

func (m MoveResult) ChangedChunk() bool {
	return m.From != m.To
}

// MoveHouse overwrites the anchor without checking grid extents; points
// outside the grid land in the clamped edge chunk.
func MoveHouse(doc *Document, id string, x, y float64) (MoveResult, error) {
	from, index, house, ok := FindHouseByID(doc, id)
	if !ok {
		return MoveResult{}, fmt.Errorf("%w: %q", ErrHouseNotFound, id)
	}
	house.X = x
	house.Y = y
	to := doc.ChunkKeyForPoint(x, y)
	if to == from {
		return MoveResult{From: from, To: to}, nil
	}

	moved := *house
	old := doc.HousesByChunk[from]
	old.Houses = append(old.Houses[:index], old.Houses[index+1:]...)
	entry, err := EnsureChunkEntry(doc, to)
	if err != nil {
		return MoveResult{}, err
	}
	entry.Houses = append(entry.Houses, moved)
	return MoveResult{From: from, To: to}, nil
}

// RotateHouse adds delta degrees and returns the new rotation in [0, 360).
// The anchor, and therefore the chunk, never changes.
func RotateHouse(doc *Document, id string, delta int) (int, error) {
	_, _, house, ok := FindHouseByID(doc, id)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrHouseNotFound, id)
	}
	house.Rotation = normalizeRotation(house.Rotation + delta)
	return house.Rotation, nil
}
