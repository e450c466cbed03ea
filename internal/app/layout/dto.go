package layout

import (
	"villagemap/internal/domain/town"
)

type ListTownsResponse struct {
	Villages []string `json:"villages"`
}

type ListChunksRequest struct {
	Village string
}

type ListChunksResponse struct {
	Village string              `json:"village"`
	Grid    town.Grid           `json:"grid"`
	Chunks  []town.ChunkSummary `json:"chunks"`
}

type SceneRequest struct {
	Village       string
	ChunkKey      string
	UseFootprints bool
}

type SceneStats struct {
	Houses           int `json:"houses"`
	Drawn            int `json:"drawn"`
	Skipped          int `json:"skipped"`
	Roads            int `json:"roads"`
	PointsOfInterest int `json:"points_of_interest"`
}

// SceneResponse is renderer input: geometry, style keys and resolved colors.
type SceneResponse struct {
	Village          string                 `json:"village"`
	ChunkKey         string                 `json:"chunk_key,omitempty"`
	Grid             town.Grid              `json:"grid"`
	Bounds           *town.Bounds           `json:"bounds,omitempty"`
	Scene            town.Scene             `json:"scene"`
	Roads            []town.RoadSegment     `json:"roads,omitempty"`
	PointsOfInterest []town.PointOfInterest `json:"points_of_interest,omitempty"`
	GrassColor       string                 `json:"grass_color"`
	Stats            SceneStats             `json:"stats"`
}
