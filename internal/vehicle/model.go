package vehicle

import "time"

// Manufacturer 是 manufacturers 表的 GORM 模型。
type Manufacturer struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Country   string    `gorm:"size:50" json:"country"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	CreatedBy string    `gorm:"size:64" json:"created_by"`
	UpdatedBy string    `gorm:"size:64" json:"updated_by"`
}

// VehicleType 车辆类型（牵引车、挂车、起重机等）。
type VehicleType struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Description string    `gorm:"size:200" json:"description"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// VehicleCategory 车辆类别，携带该类别的法定尺寸/质量上限。
// 超限许可（ABN）申请时用这些上限做尺寸比对。
type VehicleCategory struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Description string    `gorm:"size:200" json:"description"`
	MaxLengthMm int       `gorm:"not null;default:0" json:"max_length_mm"`
	MaxWidthMm  int       `gorm:"not null;default:0" json:"max_width_mm"`
	MaxHeightMm int       `gorm:"not null;default:0" json:"max_height_mm"`
	MaxWeightKg int       `gorm:"not null;default:0" json:"max_weight_kg"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Vehicle 是 vehicles 表的 GORM 模型。尺寸一律以毫米存储。
type Vehicle struct {
	ID                 string `gorm:"primaryKey;size:36" json:"id"`
	VIN                string `gorm:"uniqueIndex;size:17;not null" json:"vin"`
	RegistrationNumber string `gorm:"size:20" json:"registration_number"`
	Name               string `gorm:"size:100;not null" json:"name"`
	ManufacturerID     string `gorm:"index;size:36;not null" json:"manufacturer_id"`
	VehicleTypeID      string `gorm:"index;size:36" json:"vehicle_type_id"`
	VehicleCategoryID  string `gorm:"index;size:36" json:"vehicle_category_id"`
	Model              string `gorm:"size:50" json:"model"`
	YearOfManufacture  int    `json:"year_of_manufacture"`
	Color              string `gorm:"size:30" json:"color"`

	GrossVehicleMassKg int `json:"gross_vehicle_mass_kg"`
	UnladenMassKg      int `json:"unladen_mass_kg"`

	LengthMm        int `gorm:"not null;default:0" json:"length_mm"`
	WidthMm         int `gorm:"not null;default:0" json:"width_mm"`
	HeightMm        int `gorm:"not null;default:0" json:"height_mm"`
	WheelbaseMm     int `json:"wheelbase_mm"`
	FrontOverhangMm int `json:"front_overhang_mm"`
	RearOverhangMm  int `json:"rear_overhang_mm"`

	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	CreatedBy string    `gorm:"size:64" json:"created_by"`
	UpdatedBy string    `gorm:"size:64" json:"updated_by"`

	// 关联（查询时按需 Preload）
	Category *VehicleCategory `gorm:"foreignKey:VehicleCategoryID;references:ID" json:"category,omitempty"`
}

// ComponentType 组件类型（动力单元、半挂、平板等）。
type ComponentType struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Description string    `gorm:"size:200" json:"description"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// VehicleComponent 车辆组件；Position 表示在编组中的位置。
type VehicleComponent struct {
	ID                 string    `gorm:"primaryKey;size:36" json:"id"`
	VehicleID          string    `gorm:"index;size:36;not null" json:"vehicle_id"`
	ComponentTypeID    string    `gorm:"index;size:36;not null" json:"component_type_id"`
	RegistrationNumber string    `gorm:"size:50" json:"registration_number"`
	SerialNumber       string    `gorm:"size:100" json:"serial_number"`
	ManufacturerName   string    `gorm:"size:50" json:"manufacturer_name"`
	Model              string    `gorm:"size:50" json:"model"`
	YearOfManufacture  int       `json:"year_of_manufacture"`
	MassKg             int       `json:"mass_kg"`
	Position           int       `gorm:"not null;default:0" json:"position"`
	IsActive           bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	CreatedBy          string    `gorm:"size:64" json:"created_by"`
	UpdatedBy          string    `gorm:"size:64" json:"updated_by"`
}

// ComponentDimension 组件尺寸，一个组件至多一条。
type ComponentDimension struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	ComponentID string    `gorm:"uniqueIndex;size:36;not null" json:"component_id"`
	LengthMm    int       `gorm:"not null;default:0" json:"length_mm"`
	WidthMm     int       `gorm:"not null;default:0" json:"width_mm"`
	HeightMm    int       `gorm:"not null;default:0" json:"height_mm"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// AxleGroup 轴组；挂在组件上，SpacingMm 为组内轴距。
type AxleGroup struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	ComponentID   string    `gorm:"index;size:36;not null" json:"component_id"`
	Name          string    `gorm:"size:50" json:"name"`
	SpacingMm     int       `gorm:"not null;default:0" json:"spacing_mm"`
	UnladenMassKg int       `json:"unladen_mass_kg"`
	Position      int       `gorm:"not null;default:0" json:"position"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	CreatedBy     string    `gorm:"size:64" json:"created_by"`
	UpdatedBy     string    `gorm:"size:64" json:"updated_by"`
}

// Axle 单轴。
type Axle struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	AxleGroupID string    `gorm:"index;size:36;not null" json:"axle_group_id"`
	TyreCount   int       `gorm:"not null;default:0" json:"tyre_count"`
	LoadKg      int       `gorm:"not null;default:0" json:"load_kg"`
	Position    int       `gorm:"not null;default:0" json:"position"`
	TyreSize    string    `gorm:"size:50" json:"tyre_size"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	CreatedBy   string    `gorm:"size:64" json:"created_by"`
	UpdatedBy   string    `gorm:"size:64" json:"updated_by"`
}

// SpecificationKind 规格档案类别。
type SpecificationKind string

const (
	SpecKindTruck   SpecificationKind = "truck"
	SpecKindTrailer SpecificationKind = "trailer"
	SpecKindCrane   SpecificationKind = "crane"
)

// VehicleSpecification 车辆规格档案。
// 用 Kind 区分牵引车/挂车/起重机，各类别只填自己相关的字段；
// 一辆车同一类别至多一条。
type VehicleSpecification struct {
	ID        string            `gorm:"primaryKey;size:36" json:"id"`
	VehicleID string            `gorm:"uniqueIndex:idx_vehicle_spec_kind;size:36;not null" json:"vehicle_id"`
	Kind      SpecificationKind `gorm:"uniqueIndex:idx_vehicle_spec_kind;type:varchar(16);not null" json:"kind"`

	// truck
	EngineType         string `gorm:"size:50" json:"engine_type,omitempty"`
	FuelType           string `gorm:"size:30" json:"fuel_type,omitempty"`
	PowerKw            int    `json:"power_kw,omitempty"`
	DriveConfiguration string `gorm:"size:50" json:"drive_configuration,omitempty"`
	EmissionStandard   string `gorm:"size:50" json:"emission_standard,omitempty"`

	// trailer
	DeckType        string `gorm:"size:50" json:"deck_type,omitempty"`
	PayloadKg       int    `json:"payload_kg,omitempty"`
	KingpinHeightMm int    `json:"kingpin_height_mm,omitempty"`

	// crane
	CraneType            string `gorm:"size:50" json:"crane_type,omitempty"`
	MaxLiftingCapacityKg int    `json:"max_lifting_capacity_kg,omitempty"`
	MaxReachM            int    `json:"max_reach_m,omitempty"`
	BoomType             string `gorm:"size:50" json:"boom_type,omitempty"`

	Notes     string    `gorm:"size:500" json:"notes,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	CreatedBy string    `gorm:"size:64" json:"created_by"`
	UpdatedBy string    `gorm:"size:64" json:"updated_by"`
}

// EventType 车辆事件类别。
type EventType string

const (
	EventVehicleRegistered    EventType = "vehicle_registered"
	EventOwnershipChanged     EventType = "ownership_changed"
	EventPermitApplied        EventType = "permit_applied"
	EventPermitApproved       EventType = "permit_approved"
	EventPermitRejected       EventType = "permit_rejected"
	EventInspectionCompleted  EventType = "inspection_completed"
	EventViolationRecorded    EventType = "violation_recorded"
	EventMaintenancePerformed EventType = "maintenance_performed"
	EventOther                EventType = "other"
)

// ParseEventType 解析事件类别，非法值返回 false。
func ParseEventType(s string) (EventType, bool) {
	switch EventType(s) {
	case EventVehicleRegistered, EventOwnershipChanged, EventPermitApplied,
		EventPermitApproved, EventPermitRejected, EventInspectionCompleted,
		EventViolationRecorded, EventMaintenancePerformed, EventOther:
		return EventType(s), true
	}
	return "", false
}

// VehicleEvent 车辆事件时间线记录，只追加不修改。
type VehicleEvent struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	VehicleID   string    `gorm:"index;size:36;not null" json:"vehicle_id"`
	EventType   EventType `gorm:"type:varchar(32);index;not null" json:"event_type"`
	Description string    `gorm:"size:200;not null" json:"description"`
	EventDate   time.Time `gorm:"index;not null" json:"event_date"`
	Location    string    `gorm:"size:100" json:"location,omitempty"`
	RecordedBy  string    `gorm:"size:100" json:"recorded_by,omitempty"`
	Notes       string    `gorm:"size:500" json:"notes,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	CreatedBy   string    `gorm:"size:64" json:"created_by"`
}
