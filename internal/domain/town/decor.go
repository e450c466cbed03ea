package town

import (
	"strings"

	"github.com/tidwall/gjson"
)

type RoadSegment struct {
	From  Point   `json:"from"`
	To    Point   `json:"to"`
	Width float64 `json:"width"`
	Color string  `json:"color"`
}

type PointOfInterest struct {
	Center Point   `json:"center"`
	Radius float64 `json:"radius"`
	Color  string  `json:"color"`
	Shape  string  `json:"shape"`
	Label  string  `json:"label,omitempty"`
}

// LineRoads reads the opaque road list; only "line" roads are drawable.
func (d *Document) LineRoads() []RoadSegment {
	color := d.Color("road", DefaultRoadColor)
	out := []RoadSegment{}
	gjson.ParseBytes(d.Roads).ForEach(func(_, r gjson.Result) bool {
		if r.Get("type").String() != "line" {
			return true
		}
		width := 2.0
		if w := r.Get("width"); w.Exists() {
			width = w.Float()
		}
		out = append(out, RoadSegment{
			From:  Point{X: r.Get("from.x").Float(), Y: r.Get("from.y").Float()},
			To:    Point{X: r.Get("to.x").Float(), Y: r.Get("to.y").Float()},
			Width: width,
			Color: color,
		})
		return true
	})
	return out
}

func (d *Document) PointsOfInterestList() []PointOfInterest {
	fallback := d.Color("poi", DefaultPOIColor)
	out := []PointOfInterest{}
	gjson.ParseBytes(d.PointsOfInterest).ForEach(func(_, p gjson.Result) bool {
		if !p.IsObject() {
			return true
		}
		poi := PointOfInterest{
			Center: Point{X: p.Get("x").Float(), Y: p.Get("y").Float()},
			Radius: 2,
			Color:  fallback,
			Shape:  "circle",
			Label:  p.Get("label").String(),
		}
		if r := p.Get("radius"); r.Exists() {
			poi.Radius = r.Float()
		}
		if c := p.Get("color"); c.Exists() && c.String() != "" {
			poi.Color = c.String()
		}
		if s := p.Get("shape"); s.Exists() {
			poi.Shape = strings.ToLower(s.String())
		}
		out = append(out, poi)
		return true
	})
	return out
}
