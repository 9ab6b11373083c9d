package route

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MpMogale/AVPermitSystemV2/internal/common/logger"
	"github.com/MpMogale/AVPermitSystemV2/internal/common/server"
)

// Handler 路线模块的 HTTP 适配层。
type Handler struct {
	repo *Repo
	log  logger.Logger
}

func NewHandler(repo *Repo, log logger.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/routes", h.list)
	r.Post("/routes", h.create)
	r.Get("/routes/{id}", h.get)
	r.Put("/routes/{id}", h.update)
	r.Delete("/routes/{id}", h.deactivate)
}

type routeRequest struct {
	Name              string `json:"name"`
	StartLocation     string `json:"start_location"`
	EndLocation       string `json:"end_location"`
	DistanceKm        int    `json:"distance_km"`
	EstimatedDuration int    `json:"estimated_duration_minutes"`
	Description       string `json:"description"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := server.Decode(r, &req); err != nil {
		server.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.StartLocation == "" || req.EndLocation == "" {
		server.Error(w, http.StatusBadRequest, "name, start_location and end_location are required")
		return
	}
	actor := server.ActorFromContext(r.Context())
	rt := &Route{
		ID:                uuid.NewString(),
		Name:              req.Name,
		StartLocation:     req.StartLocation,
		EndLocation:       req.EndLocation,
		DistanceKm:        req.DistanceKm,
		EstimatedDuration: req.EstimatedDuration,
		Description:       req.Description,
		IsActive:          true,
		CreatedBy:         actor,
		UpdatedBy:         actor,
	}
	if err := h.repo.Create(r.Context(), rt); err != nil {
		h.log.Errorf("create route: %v", err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusCreated, rt)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rt, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "route not found")
			return
		}
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, rt)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rt, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "route not found")
			return
		}
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	var req routeRequest
	if err := server.Decode(r, &req); err != nil {
		server.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.StartLocation == "" || req.EndLocation == "" {
		server.Error(w, http.StatusBadRequest, "name, start_location and end_location are required")
		return
	}
	rt.Name = req.Name
	rt.StartLocation = req.StartLocation
	rt.EndLocation = req.EndLocation
	rt.DistanceKm = req.DistanceKm
	rt.EstimatedDuration = req.EstimatedDuration
	rt.Description = req.Description
	rt.UpdatedBy = server.ActorFromContext(r.Context())
	if err := h.repo.Update(r.Context(), rt); err != nil {
		h.log.Errorf("update route %s: %v", id, err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, rt)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	rts, total, err := h.repo.List(r.Context(), q.Get("search"), q.Get("active") == "true", offset, limit)
	if err != nil {
		h.log.Errorf("list routes: %v", err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, map[string]interface{}{"items": rts, "total": total})
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.repo.Deactivate(r.Context(), id, server.ActorFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "route not found")
			return
		}
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
