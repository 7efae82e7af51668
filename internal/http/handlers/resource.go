package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/imgsrv/imageserver/internal/schema"
	"github.com/imgsrv/imageserver/internal/store"
)

// Entity is one record the resource controller can move between its wire
// and row shapes.
type Entity interface {
	SetID(id string)
	ToRow() schema.Row
	ToWire() schema.Wire
	ApplyUpdate(w schema.Wire) error
}

// Definition binds an entity kind to its constructors. New validates a
// creation payload; Load rebuilds from a persisted row; Prepare, when set,
// lets the route stamp request-derived fields (e.g. the owning user) on a
// freshly created entity before it is persisted.
type Definition struct {
	Kind    schema.Kind
	New     func(w schema.Wire) (Entity, error)
	Load    func(r schema.Row) (Entity, error)
	Prepare func(ctx *gin.Context, e Entity)
}

// ResourceHandler serves the standard list/show/create/update/delete verbs
// for one entity kind against the persistence store.
type ResourceHandler struct {
	def   Definition
	store store.Store
}

func NewResourceHandler(s store.Store, def Definition) *ResourceHandler {
	return &ResourceHandler{def: def, store: s}
}

const storeTimeout = 3 * time.Second

func (h *ResourceHandler) List(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	rows, err := h.store.List(cctx, h.def.Kind)
	if err != nil {
		RespondInternal(ctx, "Could not list records")
		return
	}

	items := make([]schema.Wire, 0, len(rows))
	for _, row := range rows {
		e, err := h.def.Load(row)
		if err != nil {
			RespondInternal(ctx, "Could not read records")
			return
		}
		items = append(items, e.ToWire())
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

func (h *ResourceHandler) Show(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	row, err := h.store.Get(cctx, h.def.Kind, id)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	e, err := h.def.Load(row)
	if err != nil {
		RespondInternal(ctx, "Could not read record")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, e.ToWire())
}

func (h *ResourceHandler) Create(ctx *gin.Context) {
	w, ok := BindWire(ctx)
	if !ok {
		return
	}

	e, err := h.def.New(w)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	if h.def.Prepare != nil {
		h.def.Prepare(ctx, e)
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	id, err := h.store.Insert(cctx, h.def.Kind, e.ToRow())
	if err != nil {
		RespondInternal(ctx, "Could not create record")
		return
	}
	e.SetID(id)

	ctx.JSON(http.StatusCreated, e.ToWire())
}

func (h *ResourceHandler) Update(ctx *gin.Context) {
	id := ctx.Param("id")

	w, ok := BindWire(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	row, err := h.store.Get(cctx, h.def.Kind, id)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	e, err := h.def.Load(row)
	if err != nil {
		RespondInternal(ctx, "Could not read record")
		return
	}

	if err := e.ApplyUpdate(w); err != nil {
		RespondDomainError(ctx, err)
		return
	}

	if err := h.store.Update(cctx, h.def.Kind, id, e.ToRow()); err != nil {
		RespondDomainError(ctx, err)
		return
	}
	e.SetID(id)

	ctx.JSON(http.StatusOK, e.ToWire())
}

func (h *ResourceHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	// deleting an absent id is a 404, not a silent no-op
	if err := h.store.Delete(cctx, h.def.Kind, id); err != nil {
		RespondDomainError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// BindWire decodes the request body into a flat wire mapping. Unknown keys
// are kept; the entity layer decides what to do with them.
func BindWire(ctx *gin.Context) (schema.Wire, bool) {
	var w schema.Wire

	if err := ctx.ShouldBindJSON(&w); err != nil {
		RespondBadRequest(ctx, "Invalid request body", gin.H{"json": "invalid_json_syntax"})
		return nil, false
	}

	if w == nil {
		w = schema.Wire{}
	}
	return w, true
}
