package editor

import (
	"time"

	"villagemap/internal/domain/town"
)

type State string

const (
	StateIdle          State = "idle"
	StateChunkSelected State = "chunk_selected"
	StateHouseSelected State = "house_selected"
	StateMoveActive    State = "move_active"
)

const (
	AdvisoryConflict      = "conflict"
	AdvisoryResolvedChunk = "resolved_chunk"
	AdvisoryMovedChunk    = "moved_chunk"
)

// Advisory is a non-blocking note attached to a successful operation.
type Advisory struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PendingMove struct {
	HouseID     string  `json:"house_id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	SourceChunk string  `json:"source_chunk"`
}

type HouseOption struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	ClassName   string  `json:"class"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Description string  `json:"description"`
}

type View struct {
	Village         string              `json:"village"`
	State           State               `json:"state"`
	ChunkKey        string              `json:"chunk_key,omitempty"`
	Bounds          *town.Bounds        `json:"bounds,omitempty"`
	Houses          []HouseOption       `json:"houses,omitempty"`
	SelectedHouseID string              `json:"selected_house_id,omitempty"`
	Move            *PendingMove        `json:"move,omitempty"`
	Scene           *town.Scene         `json:"scene,omitempty"`
	Chunks          []town.ChunkSummary `json:"chunks,omitempty"`
	Baseline        time.Time           `json:"baseline"`
}

// AddHouseInput carries raw form fields; numbers are validated by AddHouse.
type AddHouseInput struct {
	ID        string `json:"id"`
	ClassName string `json:"class"`
	Rotation  string `json:"rotation"`
	X         string `json:"x"`
	Y         string `json:"y"`
}

type Result struct {
	Message    string     `json:"message"`
	Advisories []Advisory `json:"advisories,omitempty"`
	HouseID    string     `json:"house_id,omitempty"`
	ChunkKey   string     `json:"chunk_key,omitempty"`
	Rotation   *int       `json:"rotation,omitempty"`
	View       View       `json:"view"`
}
