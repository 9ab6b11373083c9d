package load

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MpMogale/AVPermitSystemV2/internal/common/logger"
	"github.com/MpMogale/AVPermitSystemV2/internal/common/server"
)

// PermitStore 载荷模块需要的许可侧能力。
type PermitStore interface {
	PermitExists(ctx context.Context, id string) (bool, error)
}

// Handler 载荷模块的 HTTP 适配层。
type Handler struct {
	repo    *Repo
	permits PermitStore
	log     logger.Logger
}

func NewHandler(repo *Repo, permits PermitStore, log logger.Logger) *Handler {
	return &Handler{repo: repo, permits: permits, log: log}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/permits/{id}/load", h.getByPermit)
	r.Post("/permits/{id}/load", h.create)
	r.Get("/loads/{id}", h.get)
	r.Put("/loads/{id}", h.update)
	r.Delete("/loads/{id}", h.remove)
	r.Get("/loads/{id}/dimensions", h.getDimension)
	r.Put("/loads/{id}/dimensions", h.upsertDimension)
	r.Get("/loads/{id}/projections", h.listProjections)
	r.Put("/loads/{id}/projections", h.upsertProjection)
	r.Delete("/loads/{id}/projections/{side}", h.removeProjection)
}

type loadRequest struct {
	Description   string `json:"description"`
	LoadType      string `json:"load_type"`
	MassKg        int    `json:"mass_kg"`
	IsIndivisible bool   `json:"is_indivisible"`
	Notes         string `json:"notes"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	permitID := chi.URLParam(r, "id")
	ok, err := h.permits.PermitExists(r.Context(), permitID)
	if err != nil {
		h.log.Errorf("check permit %s: %v", permitID, err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		server.Error(w, http.StatusNotFound, "permit not found")
		return
	}
	var req loadRequest
	if err := server.Decode(r, &req); err != nil {
		server.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Description == "" {
		server.Error(w, http.StatusBadRequest, "description is required")
		return
	}
	actor := server.ActorFromContext(r.Context())
	l := &Load{
		ID:            uuid.NewString(),
		PermitID:      permitID,
		Description:   req.Description,
		LoadType:      req.LoadType,
		MassKg:        req.MassKg,
		IsIndivisible: req.IsIndivisible,
		Notes:         req.Notes,
		CreatedBy:     actor,
		UpdatedBy:     actor,
	}
	if err := h.repo.Create(r.Context(), l); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			server.Error(w, http.StatusConflict, "permit already has a load record")
			return
		}
		h.log.Errorf("create load for permit %s: %v", permitID, err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusCreated, l)
}

func (h *Handler) getByPermit(w http.ResponseWriter, r *http.Request) {
	permitID := chi.URLParam(r, "id")
	l, err := h.repo.GetByPermitID(r.Context(), permitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "load not found")
			return
		}
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, l)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	l, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "load not found")
			return
		}
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, l)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	l, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "load not found")
			return
		}
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	var req loadRequest
	if err := server.Decode(r, &req); err != nil {
		server.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Description == "" {
		server.Error(w, http.StatusBadRequest, "description is required")
		return
	}
	l.Description = req.Description
	l.LoadType = req.LoadType
	l.MassKg = req.MassKg
	l.IsIndivisible = req.IsIndivisible
	l.Notes = req.Notes
	l.UpdatedBy = server.ActorFromContext(r.Context())
	if err := h.repo.Update(r.Context(), l); err != nil {
		h.log.Errorf("update load %s: %v", id, err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, l)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "load not found")
			return
		}
		h.log.Errorf("delete load %s: %v", id, err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type dimensionRequest struct {
	LengthMm int `json:"length_mm"`
	WidthMm  int `json:"width_mm"`
	HeightMm int `json:"height_mm"`
}

func (h *Handler) upsertDimension(w http.ResponseWriter, r *http.Request) {
	loadID := chi.URLParam(r, "id")
	if _, err := h.repo.GetByID(r.Context(), loadID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "load not found")
			return
		}
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	var req dimensionRequest
	if err := server.Decode(r, &req); err != nil {
		server.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	d := &LoadDimension{
		ID:       uuid.NewString(),
		LoadID:   loadID,
		LengthMm: req.LengthMm,
		WidthMm:  req.WidthMm,
		HeightMm: req.HeightMm,
	}
	if err := h.repo.UpsertDimension(r.Context(), d); err != nil {
		h.log.Errorf("upsert dimension for load %s: %v", loadID, err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, d)
}

func (h *Handler) getDimension(w http.ResponseWriter, r *http.Request) {
	loadID := chi.URLParam(r, "id")
	d, err := h.repo.GetDimension(r.Context(), loadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "dimension not found")
			return
		}
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, d)
}

type projectionRequest struct {
	Side         string `json:"side"`
	ProjectionMm int    `json:"projection_mm"`
}

func (h *Handler) upsertProjection(w http.ResponseWriter, r *http.Request) {
	loadID := chi.URLParam(r, "id")
	if _, err := h.repo.GetByID(r.Context(), loadID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "load not found")
			return
		}
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	var req projectionRequest
	if err := server.Decode(r, &req); err != nil {
		server.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	side, ok := ParseProjectionSide(req.Side)
	if !ok {
		server.Errorf(w, http.StatusBadRequest, "unknown projection side %q", req.Side)
		return
	}
	if req.ProjectionMm < 0 {
		server.Error(w, http.StatusBadRequest, "projection_mm must not be negative")
		return
	}
	p := &LoadProjection{
		ID:           uuid.NewString(),
		LoadID:       loadID,
		Side:         side,
		ProjectionMm: req.ProjectionMm,
	}
	if err := h.repo.UpsertProjection(r.Context(), p); err != nil {
		h.log.Errorf("upsert projection for load %s: %v", loadID, err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, p)
}

func (h *Handler) listProjections(w http.ResponseWriter, r *http.Request) {
	loadID := chi.URLParam(r, "id")
	ps, err := h.repo.ListProjections(r.Context(), loadID)
	if err != nil {
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, ps)
}

func (h *Handler) removeProjection(w http.ResponseWriter, r *http.Request) {
	loadID := chi.URLParam(r, "id")
	side, ok := ParseProjectionSide(chi.URLParam(r, "side"))
	if !ok {
		server.Error(w, http.StatusBadRequest, "unknown projection side")
		return
	}
	if err := h.repo.DeleteProjection(r.Context(), loadID, side); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "projection not found")
			return
		}
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
