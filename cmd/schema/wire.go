package main

import "villagemap/internal/domain/town"

// These mirror the on-disk shapes. town.Document encodes itself by hand, so
// the schema is reflected from these instead.

type TownFile struct {
	Grid             GridFile              `json:"grid" jsonschema:"title=Grid,description=Even width and height of the square centred on the origin."`
	Palette          map[string]string     `json:"palette,omitempty" jsonschema:"title=Palette,description=Style key to hex color. Missing keys fall back to built-in colors."`
	Chunking         ChunkingFile          `json:"chunking,omitempty" jsonschema:"title=Chunking"`
	HousesByChunk    map[string]ChunkFile  `json:"houses_by_chunk" jsonschema:"title=Houses by chunk,description=Keyed r{row}c{col} with row 0 at the top and col 0 at the left."`
	Houses           []HouseFile           `json:"houses,omitempty" jsonschema:"title=Legacy houses,description=Flat list accepted on load and rewritten into houses_by_chunk on save."`
	Roads            []RoadFile            `json:"roads,omitempty" jsonschema:"title=Roads"`
	PointsOfInterest []PointOfInterestFile `json:"points_of_interest,omitempty" jsonschema:"title=Points of interest"`
}

type GridFile struct {
	Width  int `json:"width" jsonschema:"minimum=0,default=320"`
	Height int `json:"height" jsonschema:"minimum=0,default=320"`
}

type ChunkingFile struct {
	Mode           string         `json:"mode,omitempty" jsonschema:"example=80x80"`
	ChunkSize      int            `json:"chunk_size,omitempty" jsonschema:"minimum=1,default=80"`
	GridChunks     *GridChunkFile `json:"grid_chunks,omitempty"`
	ChunkKeyFormat string         `json:"chunk_key_format,omitempty" jsonschema:"enum=r{row}c{col}"`
	Anchor         string         `json:"anchor,omitempty" jsonschema:"enum=top_left"`
}

type GridChunkFile struct {
	Rows int `json:"rows" jsonschema:"minimum=1"`
	Cols int `json:"cols" jsonschema:"minimum=1"`
}

type ChunkFile struct {
	Bounds BoundsFile  `json:"bounds"`
	Houses []HouseFile `json:"houses"`
}

type BoundsFile struct {
	X []float64 `json:"x" jsonschema:"minItems=2,maxItems=2,description=[x_min and x_max]"`
	Y []float64 `json:"y" jsonschema:"minItems=2,maxItems=2,description=[y_min and y_max]"`
}

type HouseFile struct {
	ID        string  `json:"id" jsonschema:"minLength=1"`
	Class     string  `json:"class" jsonschema:"description=House class name from the catalog."`
	Rotation  int     `json:"rotation" jsonschema:"description=Degrees. Quarter turns change the footprint."`
	X         float64 `json:"x" jsonschema:"description=Anchor x. The house extends toward smaller x."`
	Y         float64 `json:"y" jsonschema:"description=Anchor y. The house extends toward smaller y."`
	Occupants string  `json:"occupants,omitempty"`
	Notes     string  `json:"notes,omitempty"`
}

type PointFile struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type RoadFile struct {
	Type  string    `json:"type" jsonschema:"description=Only line roads are drawn."`
	From  PointFile `json:"from"`
	To    PointFile `json:"to"`
	Width float64   `json:"width,omitempty" jsonschema:"default=2"`
	Color string    `json:"color,omitempty"`
}

type PointOfInterestFile struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius,omitempty" jsonschema:"default=2"`
	Color  string  `json:"color,omitempty"`
	Shape  string  `json:"shape,omitempty" jsonschema:"enum=circle,enum=square,default=circle"`
	Label  string  `json:"label,omitempty"`
}

type CatalogFile struct {
	Classes      map[string]HouseClassFile `json:"classes" jsonschema:"title=House classes"`
	ClassPalette map[string]string         `json:"class_palette,omitempty" jsonschema:"title=Class palette,description=Family to palette key. Unknown families use house_a."`
}

type HouseClassFile struct {
	Family    string        `json:"family"`
	Footprint FootprintFile `json:"footprint"`
}

type FootprintFile struct {
	Width     *int            `json:"width,omitempty" jsonschema:"minimum=0"`
	Height    *int            `json:"height,omitempty" jsonschema:"minimum=0"`
	Tiles     [][]any         `json:"tiles,omitempty" jsonschema:"description=Cells as [dx and dy] or [dx and dy and role]."`
	TileRects []town.TileRect `json:"tile_rects,omitempty"`
}
