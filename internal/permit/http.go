package permit

import (
	"context"
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

// RouteStore 挂接路线前的存在性检查。
type RouteStore interface {
	ActiveRouteExists(ctx context.Context, id string) (bool, error)
}

// Handler 许可模块的 HTTP 适配层。只做解析与映射，业务在 Service 里。
type Handler struct {
	svc    *Service
	repo   *Repo
	routes RouteStore
	log    logger.Logger
}

func NewHandler(svc *Service, repo *Repo, routes RouteStore, log logger.Logger) *Handler {
	return &Handler{svc: svc, repo: repo, routes: routes, log: log}
}

// Register 在共享的 /api 子路由上挂载许可相关路由。
func (h *Handler) Register(r chi.Router) {
	r.Get("/permits", h.listPermits)
	r.Post("/permits", h.createPermit)
	r.Post("/permits/validate", h.validateApplication)
	r.Get("/permits/types", h.listTypes)
	r.Post("/permits/types", h.createType)
	r.Get("/permits/{id}", h.getPermit)
	r.Delete("/permits/{id}", h.deletePermit)
	r.Patch("/permits/{id}/status", h.updateStatus)
	r.Get("/permits/{id}/constraints", h.listConstraints)
	r.Post("/permits/{id}/constraints", h.addConstraint)
	r.Delete("/permits/{id}/constraints/{constraintID}", h.removeConstraint)
	r.Get("/permits/{id}/routes", h.listRoutes)
	r.Post("/permits/{id}/routes", h.attachRoute)
	r.Delete("/permits/{id}/routes/{routeID}", h.detachRoute)
	r.Get("/routes/{id}/permits", h.listByRoute)
}

type createPermitRequest struct {
	VehicleID     string    `json:"vehicle_id"`
	PermitTypeID  string    `json:"permit_type_id"`
	ValidFromDate time.Time `json:"valid_from_date"`
	ValidToDate   time.Time `json:"valid_to_date"`
	Purpose       string    `json:"purpose"`
	Notes         string    `json:"notes"`
}

type createPermitResponse struct {
	Permit   *Permit  `json:"permit"`
	Warnings []string `json:"warnings,omitempty"`
}

func (h *Handler) createPermit(w http.ResponseWriter, r *http.Request) {
	var req createPermitRequest
	if err := server.Decode(r, &req); err != nil {
		server.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	actor := server.ActorFromContext(r.Context())

	p, res, err := h.svc.CreatePermit(r.Context(), CreatePermitInput{
		VehicleID:     req.VehicleID,
		PermitTypeID:  req.PermitTypeID,
		ValidFromDate: req.ValidFromDate,
		ValidToDate:   req.ValidToDate,
		Purpose:       req.Purpose,
		Notes:         req.Notes,
	}, actor)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			server.ValidationFailed(w, verr.Result.Errors)
		case errors.Is(err, gorm.ErrDuplicatedKey):
			server.Error(w, http.StatusConflict, "permit number conflict, please retry")
		case errors.Is(err, ErrSequenceExhausted):
			server.Error(w, http.StatusConflict, err.Error())
		default:
			h.log.Errorf("create permit: %v", err)
			server.Error(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	var warnings []string
	if res != nil {
		warnings = res.Warnings
	}
	server.JSON(w, http.StatusCreated, createPermitResponse{Permit: p, Warnings: warnings})
}

type validateRequest struct {
	VehicleID     string    `json:"vehicle_id"`
	PermitTypeID  string    `json:"permit_type_id"`
	ValidFromDate time.Time `json:"valid_from_date"`
	ValidToDate   time.Time `json:"valid_to_date"`
}

// validateApplication 预检接口：不落库，只返回校验结果。
func (h *Handler) validateApplication(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := server.Decode(r, &req); err != nil {
		server.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.svc.ValidateApplication(r.Context(), req.VehicleID, req.PermitTypeID, req.ValidFromDate, req.ValidToDate)
	if err != nil {
		h.log.Errorf("validate application: %v", err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, map[string]interface{}{
		"is_valid": res.IsValid(),
		"errors":   res.Errors,
		"warnings": res.Warnings,
	})
}

func (h *Handler) getPermit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.svc.GetPermit(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "permit not found")
			return
		}
		h.log.Errorf("get permit %s: %v", id, err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, p)
}

func (h *Handler) listPermits(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var status Status
	if raw := q.Get("status"); raw != "" {
		parsed, err := ParseStatus(raw)
		if err != nil {
			server.Errorf(w, http.StatusBadRequest, "unknown status %q", raw)
			return
		}
		status = parsed
	}
	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	ps, total, err := h.svc.ListPermits(r.Context(), ListPermitsFilter{
		VehicleID:    q.Get("vehicle_id"),
		Status:       status,
		PermitTypeID: q.Get("permit_type_id"),
		Offset:       offset,
		Limit:        limit,
	})
	if err != nil {
		h.log.Errorf("list permits: %v", err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, map[string]interface{}{
		"items": ps,
		"total": total,
	})
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req updateStatusRequest
	if err := server.Decode(r, &req); err != nil {
		server.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	to, err := ParseStatus(req.Status)
	if err != nil {
		server.Errorf(w, http.StatusBadRequest, "unknown status %q", req.Status)
		return
	}
	actor := server.ActorFromContext(r.Context())

	p, err := h.svc.UpdateStatus(r.Context(), id, to, req.Notes, actor)
	if err != nil {
		var terr *InvalidTransitionError
		switch {
		case errors.As(err, &terr):
			server.Error(w, http.StatusBadRequest, terr.Error())
		case errors.Is(err, gorm.ErrRecordNotFound):
			server.Error(w, http.StatusNotFound, "permit not found")
		case errors.Is(err, ErrConcurrentModification):
			server.Error(w, http.StatusConflict, err.Error())
		default:
			h.log.Errorf("update permit %s status: %v", id, err)
			server.Error(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	server.JSON(w, http.StatusOK, p)
}

func (h *Handler) deletePermit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeletePermit(r.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "permit not found")
			return
		}
		server.Error(w, http.StatusConflict, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- 许可类型 ----

type createTypeRequest struct {
	Name         string `json:"name"`
	Code         string `json:"code"`
	Description  string `json:"description"`
	FeeCents     int64  `json:"fee_cents"`
	ValidityDays int    `json:"validity_days"`
}

func (h *Handler) createType(w http.ResponseWriter, r *http.Request) {
	var req createTypeRequest
	if err := server.Decode(r, &req); err != nil {
		server.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Code == "" {
		server.Error(w, http.StatusBadRequest, "name and code are required")
		return
	}
	actor := server.ActorFromContext(r.Context())
	t := &PermitType{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Code:         req.Code,
		Description:  req.Description,
		FeeCents:     req.FeeCents,
		ValidityDays: req.ValidityDays,
		IsActive:     true,
		CreatedBy:    actor,
		UpdatedBy:    actor,
	}
	if err := h.repo.CreateType(r.Context(), t); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			server.Errorf(w, http.StatusConflict, "permit type code %q already exists", req.Code)
			return
		}
		h.log.Errorf("create permit type: %v", err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusCreated, t)
}

func (h *Handler) listTypes(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	ts, err := h.repo.ListTypes(r.Context(), activeOnly)
	if err != nil {
		h.log.Errorf("list permit types: %v", err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, ts)
}

// ---- 约束 ----

type addConstraintRequest struct {
	ConstraintType string `json:"constraint_type"`
	Value          string `json:"value"`
	Description    string `json:"description"`
}

func (h *Handler) addConstraint(w http.ResponseWriter, r *http.Request) {
	permitID := chi.URLParam(r, "id")
	var req addConstraintRequest
	if err := server.Decode(r, &req); err != nil {
		server.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ConstraintType == "" {
		server.Error(w, http.StatusBadRequest, "constraint_type is required")
		return
	}
	if _, err := h.repo.GetByID(r.Context(), permitID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "permit not found")
			return
		}
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	actor := server.ActorFromContext(r.Context())
	c := &PermitConstraint{
		ID:             uuid.NewString(),
		PermitID:       permitID,
		ConstraintType: req.ConstraintType,
		Value:          req.Value,
		Description:    req.Description,
		CreatedBy:      actor,
	}
	if err := h.repo.CreateConstraint(r.Context(), c); err != nil {
		h.log.Errorf("add constraint to permit %s: %v", permitID, err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusCreated, c)
}

func (h *Handler) listConstraints(w http.ResponseWriter, r *http.Request) {
	permitID := chi.URLParam(r, "id")
	cs, err := h.repo.ListConstraints(r.Context(), permitID)
	if err != nil {
		h.log.Errorf("list constraints for permit %s: %v", permitID, err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, cs)
}

func (h *Handler) removeConstraint(w http.ResponseWriter, r *http.Request) {
	permitID := chi.URLParam(r, "id")
	constraintID := chi.URLParam(r, "constraintID")
	if err := h.repo.DeleteConstraint(r.Context(), permitID, constraintID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "constraint not found")
			return
		}
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- 许可路线 ----

type attachRouteRequest struct {
	RouteID       string     `json:"route_id"`
	Sequence      int        `json:"sequence"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	Notes         string     `json:"notes"`
}

func (h *Handler) attachRoute(w http.ResponseWriter, r *http.Request) {
	permitID := chi.URLParam(r, "id")
	var req attachRouteRequest
	if err := server.Decode(r, &req); err != nil {
		server.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RouteID == "" {
		server.Error(w, http.StatusBadRequest, "route_id is required")
		return
	}
	if _, err := h.repo.GetByID(r.Context(), permitID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "permit not found")
			return
		}
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if h.routes != nil {
		ok, err := h.routes.ActiveRouteExists(r.Context(), req.RouteID)
		if err != nil {
			h.log.Errorf("check route %s: %v", req.RouteID, err)
			server.Error(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok {
			server.Error(w, http.StatusNotFound, "route not found or inactive")
			return
		}
	}
	if req.Sequence <= 0 {
		req.Sequence = 1
	}
	pr := &PermitRoute{
		ID:            uuid.NewString(),
		PermitID:      permitID,
		RouteID:       req.RouteID,
		Sequence:      req.Sequence,
		ScheduledDate: req.ScheduledDate,
		Notes:         req.Notes,
	}
	if err := h.repo.AttachRoute(r.Context(), pr); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			server.Error(w, http.StatusConflict, "route sequence already used for this permit")
			return
		}
		h.log.Errorf("attach route to permit %s: %v", permitID, err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusCreated, pr)
}

func (h *Handler) listRoutes(w http.ResponseWriter, r *http.Request) {
	permitID := chi.URLParam(r, "id")
	rs, err := h.repo.ListRoutes(r.Context(), permitID)
	if err != nil {
		h.log.Errorf("list routes for permit %s: %v", permitID, err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, rs)
}

func (h *Handler) listByRoute(w http.ResponseWriter, r *http.Request) {
	routeID := chi.URLParam(r, "id")
	ps, err := h.repo.ListByRoute(r.Context(), routeID)
	if err != nil {
		h.log.Errorf("list permits for route %s: %v", routeID, err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, ps)
}

func (h *Handler) detachRoute(w http.ResponseWriter, r *http.Request) {
	permitID := chi.URLParam(r, "id")
	routeID := chi.URLParam(r, "routeID")
	if err := h.repo.DetachRoute(r.Context(), permitID, routeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "permit route not found")
			return
		}
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
