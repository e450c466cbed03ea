package town

import (
	"strings"
)

const (
	ModeFootprints = "footprints"
	ModeSquares    = "squares"

	DefaultGrassColor     = "#5b8f4f"
	DefaultRoadColor      = "#4a4e69"
	DefaultPOIColor       = "#457b9d"
	DefaultConnectorColor = "#b5651d"
	DefaultHouseColor     = "#d62828"
	HighlightColor        = "#00b4d8"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Override replaces a house's stored anchor (and optionally rotation) while
// building a scene, used to preview an unsaved move.
type Override struct {
	X        float64
	Y        float64
	Rotation *int
}

type SceneOptions struct {
	Village       string
	UseFootprints bool
	Overrides     map[string]Override
	HighlightID   string
}

// PlacedTile is a 1x1 world-space cell whose lower-left corner is X, Y.
type PlacedTile struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Role  string  `json:"role"`
	Color string  `json:"color"`
}

// Placement is everything a renderer needs to paint one house.
type Placement struct {
	HouseID    string       `json:"house_id"`
	Label      string       `json:"label"`
	ClassName  string       `json:"class"`
	Family     string       `json:"family"`
	StyleKey   string       `json:"style_key"`
	Color      string       `json:"color"`
	GrassColor string       `json:"grass_color,omitempty"`
	Rotation   int          `json:"rotation"`
	Anchor     Point        `json:"anchor"`
	Corner     Point        `json:"corner"`
	Center     Point        `json:"center"`
	Width      float64      `json:"width"`
	Height     float64      `json:"height"`
	Tiles      []PlacedTile `json:"tiles,omitempty"`
	Occupants  string       `json:"occupants,omitempty"`
	Highlight  bool         `json:"highlight,omitempty"`
	Pending    bool         `json:"pending,omitempty"`
}

type Scene struct {
	Mode           string      `json:"mode"`
	Placements     []Placement `json:"placements"`
	Drawn          int         `json:"houses_drawn"`
	Skipped        int         `json:"houses_skipped"`
	HighlightColor string      `json:"highlight_color,omitempty"`
}

// BuildScene resolves houses into placements. Houses whose class is unknown
// or whose footprint lacks a size are counted as skipped.
func BuildScene(doc *Document, catalog Catalog, houses []House, opts SceneOptions) Scene {
	scene := Scene{Mode: ModeSquares, Placements: make([]Placement, 0, len(houses))}
	if opts.UseFootprints {
		scene.Mode = ModeFootprints
	}
	if opts.HighlightID != "" {
		scene.HighlightColor = HighlightColor
	}
	grass := doc.Color("grass", DefaultGrassColor)
	connector := doc.Color("house_connector", DefaultConnectorColor)

	for _, h := range houses {
		cls, ok := catalog.Class(h.ClassName)
		if !ok {
			scene.Skipped++
			continue
		}
		rotation := h.Rotation
		anchor := Point{X: h.X, Y: h.Y}
		pending := false
		if o, ok := opts.Overrides[h.ID]; ok && h.ID != "" {
			anchor = Point{X: o.X, Y: o.Y}
			if o.Rotation != nil {
				rotation = *o.Rotation
			}
			pending = true
		}
		width, height := NormalizeSize(cls.Footprint, rotation)
		if width <= 0 || height <= 0 {
			scene.Skipped++
			continue
		}

		styleKey := catalog.PaletteKey(cls.Family)
		color := doc.Color(styleKey, DefaultHouseColor)
		p := Placement{
			HouseID:   h.ID,
			Label:     houseLabel(h, opts.Village),
			ClassName: h.ClassName,
			Family:    cls.Family,
			StyleKey:  styleKey,
			Color:     color,
			Rotation:  rotation,
			Anchor:    anchor,
			Corner:    Point{X: anchor.X - width, Y: anchor.Y - height},
			Center:    Point{X: anchor.X - width/2, Y: anchor.Y - height/2},
			Width:     width,
			Height:    height,
			Occupants: h.Occupants,
			Highlight: opts.HighlightID != "" && h.ID == opts.HighlightID,
			Pending:   pending,
		}

		if opts.UseFootprints {
			baseW, baseH := baseSize(cls.Footprint)
			cells := ExpandFootprintTiles(cls.Footprint)
			if baseW > 0 && baseH > 0 && len(cells) > 0 {
				p.GrassColor = grass
				p.Tiles = make([]PlacedTile, 0, len(cells))
				for _, c := range cells {
					rx, ry := RotateTile(c.X, c.Y, baseW, baseH, rotation)
					tileColor := color
					if c.Role == ConnectorRole {
						tileColor = connector
					}
					p.Tiles = append(p.Tiles, PlacedTile{
						X:     anchor.X - float64(rx+1),
						Y:     anchor.Y - float64(ry+1),
						Role:  c.Role,
						Color: tileColor,
					})
				}
			}
		}

		scene.Placements = append(scene.Placements, p)
		scene.Drawn++
	}
	return scene
}

// HouseLabel strips the "<village>-" prefix ids conventionally carry.
func HouseLabel(id, village string) string {
	prefix := village + "-"
	if village != "" && len(id) >= len(prefix) && strings.EqualFold(id[:len(prefix)], prefix) {
		return id[len(prefix):]
	}
	return id
}

func houseLabel(h House, village string) string {
	if h.ID == "" {
		return h.ClassName
	}
	return HouseLabel(h.ID, village)
}
