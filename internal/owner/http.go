package owner

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MpMogale/AVPermitSystemV2/internal/common/logger"
	"github.com/MpMogale/AVPermitSystemV2/internal/common/server"
)

// Handler 所有者模块的 HTTP 适配层。
type Handler struct {
	repo *Repo
	log  logger.Logger
}

func NewHandler(repo *Repo, log logger.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/owners", h.list)
	r.Post("/owners", h.create)
	r.Get("/owners/{id}", h.get)
	r.Put("/owners/{id}", h.update)
	r.Get("/owners/{id}/vehicles", h.listVehicles)
	r.Post("/ownerships", h.createOwnership)
	r.Patch("/ownerships/{id}/end", h.endOwnership)
	r.Get("/vehicles/{id}/ownerships", h.listVehicleOwnerships)
}

type ownerRequest struct {
	OwnerType          string `json:"owner_type"`
	Name               string `json:"name"`
	RegistrationNumber string `json:"registration_number"`
	IDNumber           string `json:"id_number"`
	ContactPerson      string `json:"contact_person"`
	Email              string `json:"email"`
	Phone              string `json:"phone"`
	Address            string `json:"address"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req ownerRequest
	if err := server.Decode(r, &req); err != nil {
		server.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		server.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	ot, ok := ParseOwnerType(req.OwnerType)
	if !ok {
		server.Errorf(w, http.StatusBadRequest, "unknown owner type %q", req.OwnerType)
		return
	}
	actor := server.ActorFromContext(r.Context())
	o := &Owner{
		ID:                 uuid.NewString(),
		OwnerType:          ot,
		Name:               req.Name,
		RegistrationNumber: req.RegistrationNumber,
		IDNumber:           req.IDNumber,
		ContactPerson:      req.ContactPerson,
		Email:              req.Email,
		Phone:              req.Phone,
		Address:            req.Address,
		IsActive:           true,
		CreatedBy:          actor,
		UpdatedBy:          actor,
	}
	if err := h.repo.Create(r.Context(), o); err != nil {
		h.log.Errorf("create owner: %v", err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusCreated, o)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	o, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "owner not found")
			return
		}
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, o)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	o, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "owner not found")
			return
		}
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	var req ownerRequest
	if err := server.Decode(r, &req); err != nil {
		server.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		server.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.OwnerType != "" {
		ot, ok := ParseOwnerType(req.OwnerType)
		if !ok {
			server.Errorf(w, http.StatusBadRequest, "unknown owner type %q", req.OwnerType)
			return
		}
		o.OwnerType = ot
	}
	o.Name = req.Name
	o.RegistrationNumber = req.RegistrationNumber
	o.IDNumber = req.IDNumber
	o.ContactPerson = req.ContactPerson
	o.Email = req.Email
	o.Phone = req.Phone
	o.Address = req.Address
	o.UpdatedBy = server.ActorFromContext(r.Context())
	if err := h.repo.Update(r.Context(), o); err != nil {
		h.log.Errorf("update owner %s: %v", id, err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, o)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	os, total, err := h.repo.List(r.Context(), OwnerType(q.Get("owner_type")), q.Get("name"), offset, limit)
	if err != nil {
		h.log.Errorf("list owners: %v", err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, map[string]interface{}{"items": os, "total": total})
}

func (h *Handler) listVehicles(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	os, err := h.repo.ListOwnerVehicles(r.Context(), id, time.Now())
	if err != nil {
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, os)
}

type ownershipRequest struct {
	VehicleID      string    `json:"vehicle_id"`
	OwnerID        string    `json:"owner_id"`
	StartDate      time.Time `json:"start_date"`
	IsPrimaryOwner bool      `json:"is_primary_owner"`
}

func (h *Handler) createOwnership(w http.ResponseWriter, r *http.Request) {
	var req ownershipRequest
	if err := server.Decode(r, &req); err != nil {
		server.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.VehicleID == "" || req.OwnerID == "" {
		server.Error(w, http.StatusBadRequest, "vehicle_id and owner_id are required")
		return
	}
	if req.StartDate.IsZero() {
		req.StartDate = time.Now()
	}
	if _, err := h.repo.GetByID(r.Context(), req.OwnerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "owner not found")
			return
		}
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	actor := server.ActorFromContext(r.Context())
	o := &VehicleOwnership{
		ID:             uuid.NewString(),
		VehicleID:      req.VehicleID,
		OwnerID:        req.OwnerID,
		StartDate:      req.StartDate,
		IsPrimaryOwner: req.IsPrimaryOwner,
		CreatedBy:      actor,
		UpdatedBy:      actor,
	}
	if err := h.repo.CreateOwnership(r.Context(), o); err != nil {
		h.log.Errorf("create ownership: %v", err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusCreated, o)
}

type endOwnershipRequest struct {
	EndDate time.Time `json:"end_date"`
}

func (h *Handler) endOwnership(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req endOwnershipRequest
	if err := server.Decode(r, &req); err != nil {
		server.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.EndDate.IsZero() {
		req.EndDate = time.Now()
	}
	err := h.repo.EndOwnership(r.Context(), id, req.EndDate, server.ActorFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "ownership not found")
			return
		}
		server.Error(w, http.StatusConflict, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listVehicleOwnerships(w http.ResponseWriter, r *http.Request) {
	vehicleID := chi.URLParam(r, "id")
	os, err := h.repo.ListVehicleOwnerships(r.Context(), vehicleID)
	if err != nil {
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, os)
}
