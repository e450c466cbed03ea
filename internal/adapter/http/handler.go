package httpadapter

import (
	"context"
	"errors"
	"strings"

	"villagemap/internal/app/editor"
	"villagemap/internal/app/layout"
	"villagemap/internal/app/ports"
	"villagemap/internal/domain/town"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/tidwall/gjson"
)

const defaultRotateDelta = 90

type Handler struct {
	TownsUC  layout.ListTownsUseCase
	ChunksUC layout.ListChunksUseCase
	SceneUC  layout.SceneUseCase
	Editor   *editor.Manager
	KPI      kpiSnapshotProvider

	// UseFootprints is the scene mode when a request does not pick one.
	UseFootprints bool
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware())

	towns := s.Group("/api/towns")
	towns.GET("", h.listTowns)
	towns.GET("/:village/chunks", h.listChunks)
	towns.GET("/:village/scene", h.townScene)
	towns.GET("/:village/chunks/:chunk/scene", h.chunkScene)
	towns.POST("/:village/sessions", h.openSession)

	sessions := s.Group("/api/sessions")
	sessions.GET("/:id", h.sessionView)
	sessions.DELETE("/:id", h.closeSession)
	sessions.POST("/:id/chunk", h.selectChunk)
	sessions.POST("/:id/house", h.selectHouse)
	sessions.POST("/:id/move/start", h.startMove)
	sessions.POST("/:id/move/nudge", h.nudge)
	sessions.POST("/:id/move/save", h.saveMove)
	sessions.POST("/:id/move/cancel", h.cancelMove)
	sessions.POST("/:id/houses", h.addHouse)
	sessions.POST("/:id/rotate", h.rotate)
	sessions.POST("/:id/refresh", h.refresh)

	s.GET("/ops/kpi", h.kpi)
}

type selectChunkRequest struct {
	ChunkKey string `json:"chunk_key"`
}

type houseRequest struct {
	HouseID string `json:"house_id"`
}

type nudgeRequest struct {
	DX        *float64 `json:"dx"`
	DY        *float64 `json:"dy"`
	Direction string   `json:"direction"`
}

type rotateRequest struct {
	HouseID string `json:"house_id"`
	Delta   *int   `json:"delta"`
}

type openSessionResponse struct {
	SessionID string      `json:"session_id"`
	View      editor.View `json:"view"`
}

func (h Handler) listTowns(c context.Context, ctx *app.RequestContext) {
	resp, err := h.TownsUC.Execute(c)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) listChunks(c context.Context, ctx *app.RequestContext) {
	resp, err := h.ChunksUC.Execute(c, layout.ListChunksRequest{Village: ctx.Param("village")})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) townScene(c context.Context, ctx *app.RequestContext) {
	resp, err := h.SceneUC.Execute(c, layout.SceneRequest{
		Village:       ctx.Param("village"),
		UseFootprints: h.footprints(ctx),
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) chunkScene(c context.Context, ctx *app.RequestContext) {
	resp, err := h.SceneUC.Execute(c, layout.SceneRequest{
		Village:       ctx.Param("village"),
		ChunkKey:      ctx.Param("chunk"),
		UseFootprints: h.footprints(ctx),
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) openSession(c context.Context, ctx *app.RequestContext) {
	if !h.editorConfigured(ctx) {
		return
	}
	id, view, err := h.Editor.Open(c, ctx.Param("village"))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusCreated, openSessionResponse{SessionID: id, View: view})
}

func (h Handler) sessionView(c context.Context, ctx *app.RequestContext) {
	h.withView(c, ctx, func(s *editor.Session) (editor.View, error) {
		return s.View(), nil
	})
}

func (h Handler) closeSession(c context.Context, ctx *app.RequestContext) {
	if !h.editorConfigured(ctx) {
		return
	}
	id := ctx.Param("id")
	if !h.Editor.Close(id) {
		writeError(ctx, editor.ErrSessionNotFound)
		return
	}
	hlog.CtxInfof(c, "editor session %s closed", id)
	ctx.SetStatusCode(consts.StatusNoContent)
}

func (h Handler) selectChunk(c context.Context, ctx *app.RequestContext) {
	var body selectChunkRequest
	if !decodeBody(ctx, &body) {
		return
	}
	h.withView(c, ctx, func(s *editor.Session) (editor.View, error) {
		return s.SelectChunk(c, body.ChunkKey)
	})
}

func (h Handler) selectHouse(c context.Context, ctx *app.RequestContext) {
	var body houseRequest
	if !decodeBody(ctx, &body) {
		return
	}
	h.withView(c, ctx, func(s *editor.Session) (editor.View, error) {
		return s.SelectHouse(body.HouseID)
	})
}

func (h Handler) startMove(c context.Context, ctx *app.RequestContext) {
	var body houseRequest
	if !decodeBody(ctx, &body) {
		return
	}
	h.withView(c, ctx, func(s *editor.Session) (editor.View, error) {
		return s.StartMove(c, body.HouseID)
	})
}

// nudge accepts either a named direction or an explicit {dx, dy} offset.
func (h Handler) nudge(c context.Context, ctx *app.RequestContext) {
	var body nudgeRequest
	if !decodeBody(ctx, &body) {
		return
	}
	h.withView(c, ctx, func(s *editor.Session) (editor.View, error) {
		if strings.TrimSpace(body.Direction) != "" {
			return s.NudgeDirection(c, body.Direction)
		}
		if body.DX == nil && body.DY == nil {
			return editor.View{}, editor.ErrValidation
		}
		var dx, dy float64
		if body.DX != nil {
			dx = *body.DX
		}
		if body.DY != nil {
			dy = *body.DY
		}
		return s.Nudge(c, dx, dy)
	})
}

func (h Handler) saveMove(c context.Context, ctx *app.RequestContext) {
	h.withResult(c, ctx, func(s *editor.Session) (editor.Result, error) {
		return s.SaveMove(c)
	})
}

func (h Handler) cancelMove(c context.Context, ctx *app.RequestContext) {
	h.withView(c, ctx, func(s *editor.Session) (editor.View, error) {
		return s.CancelMove(c)
	})
}

// addHouse takes the numeric fields as JSON numbers or strings; the editor
// validates them the same way either way.
func (h Handler) addHouse(c context.Context, ctx *app.RequestContext) {
	body := ctx.Request.Body()
	if len(body) > 0 && !gjson.ValidBytes(body) {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	field := func(name string) string {
		return gjson.GetBytes(body, name).String()
	}
	chunkKey := field("chunk_key")
	in := editor.AddHouseInput{
		ID:        field("id"),
		ClassName: field("class"),
		Rotation:  field("rotation"),
		X:         field("x"),
		Y:         field("y"),
	}
	if in.Rotation == "" {
		in.Rotation = "0"
	}
	h.withResult(c, ctx, func(s *editor.Session) (editor.Result, error) {
		return s.AddHouse(c, chunkKey, in)
	})
}

func (h Handler) rotate(c context.Context, ctx *app.RequestContext) {
	var body rotateRequest
	if !decodeBody(ctx, &body) {
		return
	}
	delta := defaultRotateDelta
	if body.Delta != nil {
		delta = *body.Delta
	}
	h.withResult(c, ctx, func(s *editor.Session) (editor.Result, error) {
		return s.RotateHouse(c, body.HouseID, delta)
	})
}

func (h Handler) refresh(c context.Context, ctx *app.RequestContext) {
	h.withView(c, ctx, func(s *editor.Session) (editor.View, error) {
		return s.Refresh(c)
	})
}

func (h Handler) withView(c context.Context, ctx *app.RequestContext, fn func(s *editor.Session) (editor.View, error)) {
	if !h.editorConfigured(ctx) {
		return
	}
	var view editor.View
	err := h.Editor.Do(c, ctx.Param("id"), func(s *editor.Session) error {
		v, err := fn(s)
		view = v
		return err
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, view)
}

func (h Handler) withResult(c context.Context, ctx *app.RequestContext, fn func(s *editor.Session) (editor.Result, error)) {
	if !h.editorConfigured(ctx) {
		return
	}
	var res editor.Result
	err := h.Editor.Do(c, ctx.Param("id"), func(s *editor.Session) error {
		r, err := fn(s)
		res = r
		return err
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	for _, a := range res.Advisories {
		hlog.CtxInfof(c, "editor session %s: %s advisory: %s", ctx.Param("id"), a.Code, a.Message)
	}
	ctx.JSON(consts.StatusOK, res)
}

func (h Handler) editorConfigured(ctx *app.RequestContext) bool {
	if h.Editor == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "editor not configured")
		return false
	}
	return true
}

func (h Handler) footprints(ctx *app.RequestContext) bool {
	raw := strings.ToLower(strings.TrimSpace(string(ctx.Query("footprints"))))
	switch raw {
	case "":
		return h.UseFootprints
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured")
		return
	}
	ctx.JSON(consts.StatusOK, h.KPI.SnapshotAny())
}

func decodeBody(ctx *app.RequestContext, out any) bool {
	if err := decodeJSON(ctx, out); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return false
	}
	return true
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return sonic.Unmarshal(body, out)
}

func writeError(ctx *app.RequestContext, err error) {
	var townErr *layout.TownNotFoundError
	switch {
	case errors.As(err, &townErr):
		ctx.JSON(consts.StatusNotFound, map[string]any{
			"error": map[string]any{
				"code":      "town_not_found",
				"message":   err.Error(),
				"available": townErr.Available,
			},
		})
	case errors.Is(err, editor.ErrSessionNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, town.ErrHouseNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "house_not_found", err.Error())
	case errors.Is(err, town.ErrClassNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "class_not_found", err.Error())
	case errors.Is(err, town.ErrChunkNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "chunk_not_found", err.Error())
	case errors.Is(err, town.ErrInvalidChunkKey):
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_chunk_key", err.Error())
	case errors.Is(err, town.ErrDuplicateHouseID):
		writeErrorBody(ctx, consts.StatusConflict, "duplicate_house_id", err.Error())
	case errors.Is(err, editor.ErrValidation):
		writeErrorBody(ctx, consts.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, editor.ErrNotInitialized):
		writeErrorBody(ctx, consts.StatusConflict, "move_not_initialized", err.Error())
	case errors.Is(err, editor.ErrNoChunkSelected):
		writeErrorBody(ctx, consts.StatusConflict, "no_chunk_selected", err.Error())
	case errors.Is(err, editor.ErrNoHouseSelected):
		writeErrorBody(ctx, consts.StatusConflict, "no_house_selected", err.Error())
	case errors.Is(err, editor.ErrInvalidRequest),
		errors.Is(err, layout.ErrInvalidRequest):
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, ports.ErrParse):
		writeErrorBody(ctx, consts.StatusUnprocessableEntity, "parse_error", err.Error())
	case errors.Is(err, ports.ErrNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ports.ErrConflict):
		writeErrorBody(ctx, consts.StatusConflict, "conflict", err.Error())
	default:
		hlog.Errorf("http: unhandled error: %v", err)
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
