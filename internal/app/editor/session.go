package editor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"villagemap/internal/app/ports"
	"villagemap/internal/domain/town"

	"github.com/cloudwego/hertz/pkg/common/hlog"
)

var (
	ErrNotInitialized  = errors.New("move state not initialized")
	ErrMoveNotActive   = fmt.Errorf("move mode is not active: %w", ErrNotInitialized)
	ErrValidation      = errors.New("invalid editor input")
	ErrNoChunkSelected = errors.New("select a chunk first")
	ErrNoHouseSelected = errors.New("select a house first")
	ErrInvalidRequest  = errors.New("invalid editor request")
)

type Deps struct {
	Store         ports.TownStore
	Catalog       ports.CatalogProvider
	TxManager     ports.TxManager
	Metrics       ports.EditorMetrics
	UseFootprints bool
}

// Session is one interactive edit of a single village. It is not safe for
// concurrent use; transports serialize calls (see Manager). Every committing
// operation reloads the document, mutates it and writes it back whole.
type Session struct {
	deps     Deps
	village  string
	baseline time.Time
	doc      *town.Document

	chunkKey        string
	selectedHouseID string
	move            *PendingMove
}

// Open loads the village and records its current modification time as the
// session baseline.
func Open(ctx context.Context, deps Deps, village string) (*Session, View, error) {
	village = strings.TrimSpace(village)
	if village == "" {
		return nil, View{}, ErrInvalidRequest
	}
	s := &Session{deps: deps, village: village}
	err := s.inTx(ctx, func(ctx context.Context) error {
		mtime, err := deps.Store.ModTime(ctx, village)
		if err != nil {
			return err
		}
		doc, err := deps.Store.Load(ctx, village)
		if err != nil {
			return err
		}
		s.baseline = mtime
		s.doc = doc
		return nil
	})
	if err != nil {
		return nil, View{}, err
	}
	return s, s.view(nil), nil
}

func (s *Session) Village() string {
	return s.village
}

func (s *Session) Baseline() time.Time {
	return s.baseline
}

func (s *Session) ChunkKey() string {
	return s.chunkKey
}

func (s *Session) SelectedHouseID() string {
	return s.selectedHouseID
}

// Document is the copy loaded by the most recent operation.
func (s *Session) Document() *town.Document {
	return s.doc
}

func (s *Session) PendingMove() (PendingMove, bool) {
	if s.move == nil {
		return PendingMove{}, false
	}
	return *s.move, true
}

func (s *Session) State() State {
	switch {
	case s.move != nil:
		return StateMoveActive
	case s.selectedHouseID != "":
		return StateHouseSelected
	case s.chunkKey != "":
		return StateChunkSelected
	default:
		return StateIdle
	}
}

// SelectChunk is valid from any state. A pending move survives so the house
// keeps rendering at its unsaved position.
func (s *Session) SelectChunk(ctx context.Context, key string) (View, error) {
	row, col, err := town.ParseChunkKey(strings.TrimSpace(key))
	if err != nil {
		return View{}, err
	}
	if s.doc != nil && !s.doc.Partition().InRange(row, col) {
		return View{}, fmt.Errorf("%w: %s", town.ErrChunkNotFound, key)
	}
	return s.render(ctx, town.ChunkKey(row, col))
}

func (s *Session) Refresh(ctx context.Context) (View, error) {
	if s.chunkKey == "" {
		return View{}, ErrNoChunkSelected
	}
	return s.render(ctx, s.chunkKey)
}

// SelectHouse records the selection without touching the document.
func (s *Session) SelectHouse(id string) (View, error) {
	if s.chunkKey == "" {
		return View{}, ErrNoChunkSelected
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return View{}, ErrInvalidRequest
	}
	houses, _, err := s.doc.ChunkHouses(s.chunkKey)
	if err != nil {
		return View{}, err
	}
	found := false
	for _, h := range houses {
		if h.ID == id {
			found = true
			break
		}
	}
	if !found {
		return View{}, fmt.Errorf("%w: %q in %s", town.ErrHouseNotFound, id, s.chunkKey)
	}
	s.selectedHouseID = id
	return s.view(nil), nil
}

// StartMove captures the house's stored anchor as the pending position. An
// empty id moves the selected house.
func (s *Session) StartMove(ctx context.Context, id string) (View, error) {
	if s.chunkKey == "" {
		return View{}, ErrNoChunkSelected
	}
	id = s.houseOrSelected(id)
	if id == "" {
		return View{}, ErrNoHouseSelected
	}
	var move *PendingMove
	err := s.inTx(ctx, func(ctx context.Context) error {
		doc, err := s.deps.Store.Load(ctx, s.village)
		if err != nil {
			return err
		}
		key, _, house, ok := town.FindHouseByID(doc, id)
		if !ok {
			return fmt.Errorf("%w: %q", town.ErrHouseNotFound, id)
		}
		move = &PendingMove{HouseID: id, X: house.X, Y: house.Y, SourceChunk: key}
		return nil
	})
	if err != nil {
		return View{}, err
	}
	s.move = move
	s.selectedHouseID = id
	return s.render(ctx, s.chunkKey)
}

func (s *Session) Nudge(ctx context.Context, dx, dy float64) (View, error) {
	if s.move == nil {
		return View{}, ErrMoveNotActive
	}
	if !finite(dx) || !finite(dy) {
		return View{}, fmt.Errorf("%w: nudge must be finite", ErrValidation)
	}
	s.move.X += dx
	s.move.Y += dy
	return s.render(ctx, s.chunkKey)
}

// NudgeDirection maps button names to one-unit steps. The chunk view draws x
// increasing to the left, so "left" is +x.
func (s *Session) NudgeDirection(ctx context.Context, direction string) (View, error) {
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "up":
		return s.Nudge(ctx, 0, 1)
	case "down":
		return s.Nudge(ctx, 0, -1)
	case "left":
		return s.Nudge(ctx, 1, 0)
	case "right":
		return s.Nudge(ctx, -1, 0)
	default:
		return View{}, fmt.Errorf("%w: unknown direction %q", ErrValidation, direction)
	}
}

// SaveMove writes the pending anchor, moving the house between chunks when
// needed. A document changed since the baseline is overwritten and reported.
func (s *Session) SaveMove(ctx context.Context) (Result, error) {
	if s.move == nil {
		return Result{}, ErrMoveNotActive
	}
	move := *s.move
	var (
		advisories []Advisory
		moved      town.MoveResult
	)
	err := s.commit(ctx, "save_move", func(doc *town.Document) error {
		res, err := town.MoveHouse(doc, move.HouseID, move.X, move.Y)
		if err != nil {
			return err
		}
		moved = res
		return nil
	}, &advisories)
	if err != nil {
		return Result{}, err
	}
	if moved.ChangedChunk() {
		advisories = append(advisories, Advisory{Code: AdvisoryMovedChunk, Message: "moved to " + moved.To})
	}

	s.move = nil
	s.selectedHouseID = ""
	return Result{
		Message:    "Move saved.",
		Advisories: advisories,
		HouseID:    move.HouseID,
		ChunkKey:   moved.To,
		View:       s.view(nil),
	}, nil
}

func (s *Session) CancelMove(ctx context.Context) (View, error) {
	if s.move == nil {
		return View{}, ErrMoveNotActive
	}
	s.move = nil
	s.selectedHouseID = ""
	return s.render(ctx, s.chunkKey)
}

// AddHouse stores a new house in the chunk its coordinates resolve to, which
// may differ from chunkKey (the chunk the caller is looking at).
func (s *Session) AddHouse(ctx context.Context, chunkKey string, in AddHouseInput) (Result, error) {
	chunkKey = strings.TrimSpace(chunkKey)
	if chunkKey == "" {
		chunkKey = s.chunkKey
	}
	if chunkKey == "" {
		return Result{}, ErrNoChunkSelected
	}
	if _, _, err := town.ParseChunkKey(chunkKey); err != nil {
		return Result{}, err
	}
	house, err := parseAddHouseInput(in)
	if err != nil {
		s.recordFailure("add_house")
		return Result{}, err
	}
	catalog, err := s.deps.Catalog.Catalog(ctx)
	if err != nil {
		s.recordFailure("add_house")
		return Result{}, err
	}
	if _, ok := catalog.Class(house.ClassName); !ok {
		s.recordFailure("add_house")
		return Result{}, fmt.Errorf("%w: %q", town.ErrClassNotFound, house.ClassName)
	}

	var (
		advisories []Advisory
		target     string
	)
	err = s.commit(ctx, "add_house", func(doc *town.Document) error {
		key, err := town.AddHouse(doc, house)
		if err != nil {
			return err
		}
		target = key
		return nil
	}, &advisories)
	if err != nil {
		return Result{}, err
	}
	if target != chunkKey {
		advisories = append(advisories, Advisory{
			Code:    AdvisoryResolvedChunk,
			Message: "added to " + target + " based on coordinates",
		})
	}
	return Result{
		Message:    fmt.Sprintf("Added %s to %s.", house.ID, s.village),
		Advisories: advisories,
		HouseID:    house.ID,
		ChunkKey:   target,
		View:       s.view(nil),
	}, nil
}

// RotateHouse works with or without an active move. An empty id rotates the
// selected house.
func (s *Session) RotateHouse(ctx context.Context, id string, delta int) (Result, error) {
	id = s.houseOrSelected(id)
	if id == "" {
		return Result{}, ErrNoHouseSelected
	}
	var (
		advisories []Advisory
		rotation   int
		chunkKey   string
	)
	err := s.commit(ctx, "rotate_house", func(doc *town.Document) error {
		r, err := town.RotateHouse(doc, id, delta)
		if err != nil {
			return err
		}
		rotation = r
		chunkKey, _, _, _ = town.FindHouseByID(doc, id)
		return nil
	}, &advisories)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Message:    fmt.Sprintf("Rotated %s to %d°.", id, rotation),
		Advisories: advisories,
		HouseID:    id,
		ChunkKey:   chunkKey,
		Rotation:   &rotation,
		View:       s.view(nil),
	}, nil
}

// View describes the session from the last loaded document without I/O.
func (s *Session) View() View {
	return s.view(nil)
}

// commit runs one load -> mutate -> persist cycle. The modification time is
// read before loading so a concurrent write is reported, never blocked.
func (s *Session) commit(ctx context.Context, op string, mutate func(doc *town.Document) error, advisories *[]Advisory) error {
	err := s.inTx(ctx, func(ctx context.Context) error {
		current, err := s.deps.Store.ModTime(ctx, s.village)
		if err != nil {
			return err
		}
		doc, err := s.deps.Store.Load(ctx, s.village)
		if err != nil {
			return err
		}
		if err := mutate(doc); err != nil {
			return err
		}
		if current.After(s.baseline) {
			*advisories = append(*advisories, Advisory{
				Code:    AdvisoryConflict,
				Message: "town data changed since you opened the editor",
			})
			hlog.CtxWarnf(ctx, "editor %s: %s overwrote changes made after %s", s.village, op, s.baseline.Format(time.RFC3339Nano))
			if s.deps.Metrics != nil {
				s.deps.Metrics.RecordConflict(op)
			}
		}
		saved, err := s.deps.Store.Save(ctx, s.village, doc)
		if err != nil {
			return err
		}
		s.baseline = saved
		s.doc = doc
		return nil
	})
	if err != nil {
		s.recordFailure(op)
		return err
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordCommit(op)
	}
	return nil
}

// render re-reads the document for chunkKey. The editor now shows what is on
// disk, so the baseline moves forward with it.
func (s *Session) render(ctx context.Context, chunkKey string) (View, error) {
	catalog, err := s.deps.Catalog.Catalog(ctx)
	if err != nil {
		return View{}, err
	}
	err = s.inTx(ctx, func(ctx context.Context) error {
		mtime, err := s.deps.Store.ModTime(ctx, s.village)
		if err != nil {
			return err
		}
		doc, err := s.deps.Store.Load(ctx, s.village)
		if err != nil {
			return err
		}
		s.baseline = mtime
		s.doc = doc
		return nil
	})
	if err != nil {
		return View{}, err
	}
	if chunkKey != s.chunkKey || s.move == nil {
		s.selectedHouseID = ""
	}
	s.chunkKey = chunkKey
	return s.view(&catalog), nil
}

func (s *Session) view(catalog *town.Catalog) View {
	v := View{
		Village:         s.village,
		State:           s.State(),
		ChunkKey:        s.chunkKey,
		SelectedHouseID: s.selectedHouseID,
		Baseline:        s.baseline,
	}
	if s.move != nil {
		m := *s.move
		v.Move = &m
	}
	if s.doc == nil {
		return v
	}
	if s.chunkKey == "" {
		v.Chunks = s.doc.ChunkSummaries()
		return v
	}
	houses, bounds, err := s.doc.ChunkHouses(s.chunkKey)
	if err != nil {
		return v
	}
	v.Bounds = &bounds
	v.Houses = make([]HouseOption, 0, len(houses))
	for _, h := range houses {
		v.Houses = append(v.Houses, HouseOption{
			ID:          h.ID,
			Label:       town.HouseLabel(h.ID, s.village),
			ClassName:   h.ClassName,
			X:           h.X,
			Y:           h.Y,
			Description: fmt.Sprintf("%s (%g, %g)", h.ClassName, h.X, h.Y),
		})
	}
	if catalog != nil {
		opts := town.SceneOptions{Village: s.village, UseFootprints: s.deps.UseFootprints}
		if s.move != nil {
			opts.Overrides = map[string]town.Override{s.move.HouseID: {X: s.move.X, Y: s.move.Y}}
			opts.HighlightID = s.move.HouseID
		}
		scene := town.BuildScene(s.doc, *catalog, houses, opts)
		v.Scene = &scene
	}
	return v
}

func (s *Session) houseOrSelected(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return s.selectedHouseID
	}
	return id
}

func (s *Session) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.deps.TxManager == nil {
		return fn(ctx)
	}
	return s.deps.TxManager.RunInTx(ctx, fn)
}

func (s *Session) recordFailure(op string) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordFailure(op)
	}
}

func parseAddHouseInput(in AddHouseInput) (town.House, error) {
	id := strings.TrimSpace(in.ID)
	className := strings.ToUpper(strings.TrimSpace(in.ClassName))
	if id == "" || className == "" {
		return town.House{}, fmt.Errorf("%w: id and class are required", ErrValidation)
	}
	rotation, errR := strconv.Atoi(strings.TrimSpace(in.Rotation))
	x, errX := strconv.ParseFloat(strings.TrimSpace(in.X), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(in.Y), 64)
	if errR != nil || errX != nil || errY != nil || !finite(x) || !finite(y) {
		return town.House{}, fmt.Errorf("%w: rotation, x and y must be numeric", ErrValidation)
	}
	return town.House{
		ID:        id,
		ClassName: className,
		Rotation:  rotation,
		X:         x,
		Y:         y,
		Notes:     town.EditorAddedNote,
	}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
