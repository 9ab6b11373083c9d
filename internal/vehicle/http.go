package vehicle

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

// Handler 车辆模块的 HTTP 适配层。
type Handler struct {
	repo *Repo
	log  logger.Logger
}

func NewHandler(repo *Repo, log logger.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/vehicles", h.list)
	r.Post("/vehicles", h.create)
	r.Get("/vehicles/manufacturers", h.listManufacturers)
	r.Post("/vehicles/manufacturers", h.createManufacturer)
	r.Get("/vehicles/types", h.listTypes)
	r.Post("/vehicles/types", h.createType)
	r.Get("/vehicles/categories", h.listCategories)
	r.Post("/vehicles/categories", h.createCategory)
	r.Get("/vehicles/component-types", h.listComponentTypes)
	r.Post("/vehicles/component-types", h.createComponentType)
	r.Get("/vehicles/{id}", h.get)
	r.Put("/vehicles/{id}", h.update)
	r.Delete("/vehicles/{id}", h.deactivate)
	r.Get("/vehicles/{id}/components", h.listComponents)
	r.Post("/vehicles/{id}/components", h.addComponent)
	r.Get("/vehicles/{id}/events", h.listEvents)
	r.Post("/vehicles/{id}/events", h.recordEvent)
	r.Get("/vehicles/{id}/specifications", h.listSpecifications)
	r.Put("/vehicles/{id}/specifications", h.upsertSpecification)
	r.Get("/components/{id}/dimensions", h.getComponentDimension)
	r.Put("/components/{id}/dimensions", h.upsertComponentDimension)
	r.Get("/components/{id}/axle-groups", h.listAxleGroups)
	r.Post("/components/{id}/axle-groups", h.addAxleGroup)
	r.Get("/axle-groups/{id}/axles", h.listAxles)
	r.Post("/axle-groups/{id}/axles", h.addAxle)
}

type vehicleRequest struct {
	VIN                string `json:"vin"`
	RegistrationNumber string `json:"registration_number"`
	Name               string `json:"name"`
	ManufacturerID     string `json:"manufacturer_id"`
	VehicleTypeID      string `json:"vehicle_type_id"`
	VehicleCategoryID  string `json:"vehicle_category_id"`
	Model              string `json:"model"`
	YearOfManufacture  int    `json:"year_of_manufacture"`
	Color              string `json:"color"`
	GrossVehicleMassKg int    `json:"gross_vehicle_mass_kg"`
	UnladenMassKg      int    `json:"unladen_mass_kg"`
	LengthMm           int    `json:"length_mm"`
	WidthMm            int    `json:"width_mm"`
	HeightMm           int    `json:"height_mm"`
	WheelbaseMm        int    `json:"wheelbase_mm"`
	FrontOverhangMm    int    `json:"front_overhang_mm"`
	RearOverhangMm     int    `json:"rear_overhang_mm"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req vehicleRequest
	if err := server.Decode(r, &req); err != nil {
		server.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.VIN == "" || req.Name == "" || req.ManufacturerID == "" {
		server.Error(w, http.StatusBadRequest, "vin, name and manufacturer_id are required")
		return
	}
	actor := server.ActorFromContext(r.Context())
	v := &Vehicle{
		ID:                 uuid.NewString(),
		VIN:                req.VIN,
		RegistrationNumber: req.RegistrationNumber,
		Name:               req.Name,
		ManufacturerID:     req.ManufacturerID,
		VehicleTypeID:      req.VehicleTypeID,
		VehicleCategoryID:  req.VehicleCategoryID,
		Model:              req.Model,
		YearOfManufacture:  req.YearOfManufacture,
		Color:              req.Color,
		GrossVehicleMassKg: req.GrossVehicleMassKg,
		UnladenMassKg:      req.UnladenMassKg,
		LengthMm:           req.LengthMm,
		WidthMm:            req.WidthMm,
		HeightMm:           req.HeightMm,
		WheelbaseMm:        req.WheelbaseMm,
		FrontOverhangMm:    req.FrontOverhangMm,
		RearOverhangMm:     req.RearOverhangMm,
		IsActive:           true,
		CreatedBy:          actor,
		UpdatedBy:          actor,
	}
	if err := h.repo.Create(r.Context(), v); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			server.Errorf(w, http.StatusConflict, "vehicle with VIN %q already exists", req.VIN)
			return
		}
		h.log.Errorf("create vehicle: %v", err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusCreated, v)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	v, err := h.repo.FindWithCategory(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "vehicle not found")
			return
		}
		h.log.Errorf("get vehicle %s: %v", id, err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, v)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	v, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "vehicle not found")
			return
		}
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	var req vehicleRequest
	if err := server.Decode(r, &req); err != nil {
		server.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.VIN == "" || req.Name == "" {
		server.Error(w, http.StatusBadRequest, "vin and name are required")
		return
	}
	v.VIN = req.VIN
	v.RegistrationNumber = req.RegistrationNumber
	v.Name = req.Name
	if req.ManufacturerID != "" {
		v.ManufacturerID = req.ManufacturerID
	}
	v.VehicleTypeID = req.VehicleTypeID
	v.VehicleCategoryID = req.VehicleCategoryID
	v.Model = req.Model
	v.YearOfManufacture = req.YearOfManufacture
	v.Color = req.Color
	v.GrossVehicleMassKg = req.GrossVehicleMassKg
	v.UnladenMassKg = req.UnladenMassKg
	v.LengthMm = req.LengthMm
	v.WidthMm = req.WidthMm
	v.HeightMm = req.HeightMm
	v.WheelbaseMm = req.WheelbaseMm
	v.FrontOverhangMm = req.FrontOverhangMm
	v.RearOverhangMm = req.RearOverhangMm
	v.UpdatedBy = server.ActorFromContext(r.Context())
	if err := h.repo.Update(r.Context(), v); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			server.Errorf(w, http.StatusConflict, "vehicle with VIN %q already exists", req.VIN)
			return
		}
		h.log.Errorf("update vehicle %s: %v", id, err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, v)
}

// deactivate 软停用。许可和归属历史都引用车辆，不做物理删除。
func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.repo.Deactivate(r.Context(), id, server.ActorFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "vehicle not found")
			return
		}
		h.log.Errorf("deactivate vehicle %s: %v", id, err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	vs, total, err := h.repo.List(r.Context(), q.Get("manufacturer_id"), q.Get("category_id"), q.Get("active") == "true", offset, limit)
	if err != nil {
		h.log.Errorf("list vehicles: %v", err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, map[string]interface{}{"items": vs, "total": total})
}

// ---- 组件 ----

type componentRequest struct {
	ComponentTypeID    string `json:"component_type_id"`
	RegistrationNumber string `json:"registration_number"`
	SerialNumber       string `json:"serial_number"`
	ManufacturerName   string `json:"manufacturer_name"`
	Model              string `json:"model"`
	YearOfManufacture  int    `json:"year_of_manufacture"`
	MassKg             int    `json:"mass_kg"`
	Position           int    `json:"position"`
}

func (h *Handler) addComponent(w http.ResponseWriter, r *http.Request) {
	vehicleID := chi.URLParam(r, "id")
	if _, err := h.repo.GetByID(r.Context(), vehicleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "vehicle not found")
			return
		}
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	var req componentRequest
	if err := server.Decode(r, &req); err != nil {
		server.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ComponentTypeID == "" {
		server.Error(w, http.StatusBadRequest, "component_type_id is required")
		return
	}
	actor := server.ActorFromContext(r.Context())
	c := &VehicleComponent{
		ID:                 uuid.NewString(),
		VehicleID:          vehicleID,
		ComponentTypeID:    req.ComponentTypeID,
		RegistrationNumber: req.RegistrationNumber,
		SerialNumber:       req.SerialNumber,
		ManufacturerName:   req.ManufacturerName,
		Model:              req.Model,
		YearOfManufacture:  req.YearOfManufacture,
		MassKg:             req.MassKg,
		Position:           req.Position,
		IsActive:           true,
		CreatedBy:          actor,
		UpdatedBy:          actor,
	}
	if err := h.repo.CreateComponent(r.Context(), c); err != nil {
		h.log.Errorf("add component to vehicle %s: %v", vehicleID, err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusCreated, c)
}

func (h *Handler) listComponents(w http.ResponseWriter, r *http.Request) {
	vehicleID := chi.URLParam(r, "id")
	cs, err := h.repo.ListComponents(r.Context(), vehicleID)
	if err != nil {
		h.log.Errorf("list components for vehicle %s: %v", vehicleID, err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, cs)
}

type dimensionRequest struct {
	LengthMm int `json:"length_mm"`
	WidthMm  int `json:"width_mm"`
	HeightMm int `json:"height_mm"`
}

func (h *Handler) upsertComponentDimension(w http.ResponseWriter, r *http.Request) {
	componentID := chi.URLParam(r, "id")
	if _, err := h.repo.GetComponent(r.Context(), componentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "component not found")
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
	d := &ComponentDimension{
		ID:          uuid.NewString(),
		ComponentID: componentID,
		LengthMm:    req.LengthMm,
		WidthMm:     req.WidthMm,
		HeightMm:    req.HeightMm,
	}
	if err := h.repo.UpsertComponentDimension(r.Context(), d); err != nil {
		h.log.Errorf("upsert dimension for component %s: %v", componentID, err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, d)
}

func (h *Handler) getComponentDimension(w http.ResponseWriter, r *http.Request) {
	componentID := chi.URLParam(r, "id")
	d, err := h.repo.GetComponentDimension(r.Context(), componentID)
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

// ---- 轴组 / 轴 ----

type axleGroupRequest struct {
	Name          string `json:"name"`
	SpacingMm     int    `json:"spacing_mm"`
	UnladenMassKg int    `json:"unladen_mass_kg"`
	Position      int    `json:"position"`
}

func (h *Handler) addAxleGroup(w http.ResponseWriter, r *http.Request) {
	componentID := chi.URLParam(r, "id")
	if _, err := h.repo.GetComponent(r.Context(), componentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "component not found")
			return
		}
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	var req axleGroupRequest
	if err := server.Decode(r, &req); err != nil {
		server.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	actor := server.ActorFromContext(r.Context())
	g := &AxleGroup{
		ID:            uuid.NewString(),
		ComponentID:   componentID,
		Name:          req.Name,
		SpacingMm:     req.SpacingMm,
		UnladenMassKg: req.UnladenMassKg,
		Position:      req.Position,
		CreatedBy:     actor,
		UpdatedBy:     actor,
	}
	if err := h.repo.CreateAxleGroup(r.Context(), g); err != nil {
		h.log.Errorf("add axle group to component %s: %v", componentID, err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusCreated, g)
}

func (h *Handler) listAxleGroups(w http.ResponseWriter, r *http.Request) {
	componentID := chi.URLParam(r, "id")
	gs, err := h.repo.ListAxleGroups(r.Context(), componentID)
	if err != nil {
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, gs)
}

type axleRequest struct {
	TyreCount int    `json:"tyre_count"`
	LoadKg    int    `json:"load_kg"`
	Position  int    `json:"position"`
	TyreSize  string `json:"tyre_size"`
}

func (h *Handler) addAxle(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	var req axleRequest
	if err := server.Decode(r, &req); err != nil {
		server.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	actor := server.ActorFromContext(r.Context())
	a := &Axle{
		ID:          uuid.NewString(),
		AxleGroupID: groupID,
		TyreCount:   req.TyreCount,
		LoadKg:      req.LoadKg,
		Position:    req.Position,
		TyreSize:    req.TyreSize,
		CreatedBy:   actor,
		UpdatedBy:   actor,
	}
	if err := h.repo.CreateAxle(r.Context(), a); err != nil {
		h.log.Errorf("add axle to group %s: %v", groupID, err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusCreated, a)
}

func (h *Handler) listAxles(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	as, err := h.repo.ListAxles(r.Context(), groupID)
	if err != nil {
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, as)
}

// ---- 规格档案 ----

type specificationRequest struct {
	Kind                 string `json:"kind"`
	EngineType           string `json:"engine_type"`
	FuelType             string `json:"fuel_type"`
	PowerKw              int    `json:"power_kw"`
	DriveConfiguration   string `json:"drive_configuration"`
	EmissionStandard     string `json:"emission_standard"`
	DeckType             string `json:"deck_type"`
	PayloadKg            int    `json:"payload_kg"`
	KingpinHeightMm      int    `json:"kingpin_height_mm"`
	CraneType            string `json:"crane_type"`
	MaxLiftingCapacityKg int    `json:"max_lifting_capacity_kg"`
	MaxReachM            int    `json:"max_reach_m"`
	BoomType             string `json:"boom_type"`
	Notes                string `json:"notes"`
}

func (h *Handler) upsertSpecification(w http.ResponseWriter, r *http.Request) {
	vehicleID := chi.URLParam(r, "id")
	if _, err := h.repo.GetByID(r.Context(), vehicleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "vehicle not found")
			return
		}
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	var req specificationRequest
	if err := server.Decode(r, &req); err != nil {
		server.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	kind := SpecificationKind(req.Kind)
	switch kind {
	case SpecKindTruck, SpecKindTrailer, SpecKindCrane:
	default:
		server.Errorf(w, http.StatusBadRequest, "unknown specification kind %q", req.Kind)
		return
	}
	actor := server.ActorFromContext(r.Context())
	s := &VehicleSpecification{
		ID:                   uuid.NewString(),
		VehicleID:            vehicleID,
		Kind:                 kind,
		EngineType:           req.EngineType,
		FuelType:             req.FuelType,
		PowerKw:              req.PowerKw,
		DriveConfiguration:   req.DriveConfiguration,
		EmissionStandard:     req.EmissionStandard,
		DeckType:             req.DeckType,
		PayloadKg:            req.PayloadKg,
		KingpinHeightMm:      req.KingpinHeightMm,
		CraneType:            req.CraneType,
		MaxLiftingCapacityKg: req.MaxLiftingCapacityKg,
		MaxReachM:            req.MaxReachM,
		BoomType:             req.BoomType,
		Notes:                req.Notes,
		CreatedBy:            actor,
		UpdatedBy:            actor,
	}
	if err := h.repo.UpsertSpecification(r.Context(), s); err != nil {
		h.log.Errorf("upsert specification for vehicle %s: %v", vehicleID, err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, s)
}

func (h *Handler) listSpecifications(w http.ResponseWriter, r *http.Request) {
	vehicleID := chi.URLParam(r, "id")
	ss, err := h.repo.ListSpecifications(r.Context(), vehicleID)
	if err != nil {
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, ss)
}

// ---- 字典表 ----

func (h *Handler) createManufacturer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	}
	if err := server.Decode(r, &req); err != nil {
		server.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		server.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	actor := server.ActorFromContext(r.Context())
	m := &Manufacturer{ID: uuid.NewString(), Name: req.Name, Country: req.Country, IsActive: true, CreatedBy: actor, UpdatedBy: actor}
	if err := h.repo.CreateManufacturer(r.Context(), m); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			server.Errorf(w, http.StatusConflict, "manufacturer %q already exists", req.Name)
			return
		}
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusCreated, m)
}

func (h *Handler) listManufacturers(w http.ResponseWriter, r *http.Request) {
	ms, err := h.repo.ListManufacturers(r.Context())
	if err != nil {
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, ms)
}

func (h *Handler) createType(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := server.Decode(r, &req); err != nil {
		server.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		server.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	tp := &VehicleType{ID: uuid.NewString(), Name: req.Name, Description: req.Description, IsActive: true}
	if err := h.repo.CreateVehicleType(r.Context(), tp); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			server.Errorf(w, http.StatusConflict, "vehicle type %q already exists", req.Name)
			return
		}
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusCreated, tp)
}

func (h *Handler) listTypes(w http.ResponseWriter, r *http.Request) {
	ts, err := h.repo.ListVehicleTypes(r.Context())
	if err != nil {
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, ts)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		MaxLengthMm int    `json:"max_length_mm"`
		MaxWidthMm  int    `json:"max_width_mm"`
		MaxHeightMm int    `json:"max_height_mm"`
		MaxWeightKg int    `json:"max_weight_kg"`
	}
	if err := server.Decode(r, &req); err != nil {
		server.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		server.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	c := &VehicleCategory{
		ID: uuid.NewString(), Name: req.Name, Description: req.Description,
		MaxLengthMm: req.MaxLengthMm, MaxWidthMm: req.MaxWidthMm,
		MaxHeightMm: req.MaxHeightMm, MaxWeightKg: req.MaxWeightKg,
		IsActive: true,
	}
	if err := h.repo.CreateCategory(r.Context(), c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			server.Errorf(w, http.StatusConflict, "category %q already exists", req.Name)
			return
		}
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusCreated, c)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cs, err := h.repo.ListCategories(r.Context())
	if err != nil {
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, cs)
}

func (h *Handler) createComponentType(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := server.Decode(r, &req); err != nil {
		server.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		server.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	tp := &ComponentType{ID: uuid.NewString(), Name: req.Name, Description: req.Description, IsActive: true}
	if err := h.repo.CreateComponentType(r.Context(), tp); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			server.Errorf(w, http.StatusConflict, "component type %q already exists", req.Name)
			return
		}
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusCreated, tp)
}

func (h *Handler) listComponentTypes(w http.ResponseWriter, r *http.Request) {
	ts, err := h.repo.ListComponentTypes(r.Context())
	if err != nil {
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, ts)
}

type eventRequest struct {
	EventType   string     `json:"event_type"`
	Description string     `json:"description"`
	EventDate   *time.Time `json:"event_date"`
	Location    string     `json:"location"`
	RecordedBy  string     `json:"recorded_by"`
	Notes       string     `json:"notes"`
}

func (h *Handler) recordEvent(w http.ResponseWriter, r *http.Request) {
	vehicleID := chi.URLParam(r, "id")
	v, err := h.repo.GetByID(r.Context(), vehicleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "vehicle not found")
			return
		}
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !v.IsActive {
		server.Error(w, http.StatusBadRequest, "vehicle is inactive")
		return
	}
	var req eventRequest
	if err := server.Decode(r, &req); err != nil {
		server.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Description == "" {
		server.Error(w, http.StatusBadRequest, "description is required")
		return
	}
	et, ok := ParseEventType(req.EventType)
	if !ok {
		server.Errorf(w, http.StatusBadRequest, "unknown event type %q", req.EventType)
		return
	}
	eventDate := time.Now().UTC()
	if req.EventDate != nil {
		eventDate = *req.EventDate
	}
	e := &VehicleEvent{
		ID:          uuid.NewString(),
		VehicleID:   vehicleID,
		EventType:   et,
		Description: req.Description,
		EventDate:   eventDate,
		Location:    req.Location,
		RecordedBy:  req.RecordedBy,
		Notes:       req.Notes,
		CreatedBy:   server.ActorFromContext(r.Context()),
	}
	if err := h.repo.CreateEvent(r.Context(), e); err != nil {
		h.log.Errorf("record event for vehicle %s: %v", vehicleID, err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusCreated, e)
}

func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	vehicleID := chi.URLParam(r, "id")
	if _, err := h.repo.GetByID(r.Context(), vehicleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Error(w, http.StatusNotFound, "vehicle not found")
			return
		}
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	var eventType EventType
	if s := r.URL.Query().Get("type"); s != "" {
		et, ok := ParseEventType(s)
		if !ok {
			server.Errorf(w, http.StatusBadRequest, "unknown event type %q", s)
			return
		}
		eventType = et
	}
	var from, to *time.Time
	if s := r.URL.Query().Get("from"); s != "" {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			server.Error(w, http.StatusBadRequest, "from must be RFC3339")
			return
		}
		from = &ts
	}
	if s := r.URL.Query().Get("to"); s != "" {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			server.Error(w, http.StatusBadRequest, "to must be RFC3339")
			return
		}
		to = &ts
	}
	es, err := h.repo.ListEvents(r.Context(), vehicleID, eventType, from, to)
	if err != nil {
		h.log.Errorf("list events for vehicle %s: %v", vehicleID, err)
		server.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.JSON(w, http.StatusOK, es)
}
