package vehicle

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) withCtx(ctx context.Context) *gorm.DB {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx)
}

func (r *Repo) Create(ctx context.Context, v *Vehicle) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(v).Error
}

func (r *Repo) Update(ctx context.Context, v *Vehicle) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Save(v).Error
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Vehicle, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var v Vehicle
	if err := db.Where("id = ?", id).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// FindWithCategory 连同类别上限一起取出，许可校验要用。
func (r *Repo) FindWithCategory(ctx context.Context, id string) (*Vehicle, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var v Vehicle
	if err := db.Preload("Category").Where("id = ?", id).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *Repo) GetByVIN(ctx context.Context, vin string) (*Vehicle, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var v Vehicle
	if err := db.Where("vin = ?", vin).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// List 支持按 manufacturer_id / category_id / is_active 过滤 + 分页。
func (r *Repo) List(ctx context.Context, manufacturerID, categoryID string, activeOnly bool, offset, limit int) ([]Vehicle, int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, 0, fmt.Errorf("repo db is nil")
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	q := db.Model(&Vehicle{})
	if manufacturerID != "" {
		q = q.Where("manufacturer_id = ?", manufacturerID)
	}
	if categoryID != "" {
		q = q.Where("vehicle_category_id = ?", categoryID)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var vs []Vehicle
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&vs).Error; err != nil {
		return nil, 0, err
	}
	return vs, total, nil
}

// Deactivate 软停用，不做物理删除。
func (r *Repo) Deactivate(ctx context.Context, id, actor string) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	res := db.Model(&Vehicle{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": false, "updated_by": actor})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ---- 组件 ----

func (r *Repo) CreateComponent(ctx context.Context, c *VehicleComponent) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(c).Error
}

func (r *Repo) GetComponent(ctx context.Context, id string) (*VehicleComponent, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var c VehicleComponent
	if err := db.Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) UpdateComponent(ctx context.Context, c *VehicleComponent) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Save(c).Error
}

func (r *Repo) ListComponents(ctx context.Context, vehicleID string) ([]VehicleComponent, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var cs []VehicleComponent
	if err := db.Where("vehicle_id = ?", vehicleID).Order("position ASC").Find(&cs).Error; err != nil {
		return nil, err
	}
	return cs, nil
}

// ComponentCount 活动组件数量，许可校验用。
func (r *Repo) ComponentCount(ctx context.Context, vehicleID string) (int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return 0, fmt.Errorf("repo db is nil")
	}
	var n int64
	err := db.Model(&VehicleComponent{}).
		Where("vehicle_id = ? AND is_active = ?", vehicleID, true).
		Count(&n).Error
	return n, err
}

// UpsertComponentDimension 一个组件只保留一条尺寸记录。
func (r *Repo) UpsertComponentDimension(ctx context.Context, d *ComponentDimension) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	var existing ComponentDimension
	err := db.Where("component_id = ?", d.ComponentID).First(&existing).Error
	if err == nil {
		d.ID = existing.ID
		d.CreatedAt = existing.CreatedAt
		return db.Save(d).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return db.Create(d).Error
}

func (r *Repo) GetComponentDimension(ctx context.Context, componentID string) (*ComponentDimension, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var d ComponentDimension
	if err := db.Where("component_id = ?", componentID).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// ---- 轴组 / 轴 ----

func (r *Repo) CreateAxleGroup(ctx context.Context, g *AxleGroup) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(g).Error
}

func (r *Repo) ListAxleGroups(ctx context.Context, componentID string) ([]AxleGroup, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var gs []AxleGroup
	if err := db.Where("component_id = ?", componentID).Order("position ASC").Find(&gs).Error; err != nil {
		return nil, err
	}
	return gs, nil
}

func (r *Repo) CreateAxle(ctx context.Context, a *Axle) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(a).Error
}

func (r *Repo) ListAxles(ctx context.Context, axleGroupID string) ([]Axle, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var as []Axle
	if err := db.Where("axle_group_id = ?", axleGroupID).Order("position ASC").Find(&as).Error; err != nil {
		return nil, err
	}
	return as, nil
}

// ---- 规格档案 ----

func (r *Repo) UpsertSpecification(ctx context.Context, s *VehicleSpecification) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	var existing VehicleSpecification
	err := db.Where("vehicle_id = ? AND kind = ?", s.VehicleID, s.Kind).First(&existing).Error
	if err == nil {
		s.ID = existing.ID
		s.CreatedAt = existing.CreatedAt
		return db.Save(s).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return db.Create(s).Error
}

func (r *Repo) ListSpecifications(ctx context.Context, vehicleID string) ([]VehicleSpecification, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var ss []VehicleSpecification
	if err := db.Where("vehicle_id = ?", vehicleID).Find(&ss).Error; err != nil {
		return nil, err
	}
	return ss, nil
}

// ---- 字典表 ----

func (r *Repo) CreateManufacturer(ctx context.Context, m *Manufacturer) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(m).Error
}

func (r *Repo) ListManufacturers(ctx context.Context) ([]Manufacturer, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var ms []Manufacturer
	if err := db.Order("name ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	return ms, nil
}

func (r *Repo) CreateVehicleType(ctx context.Context, t *VehicleType) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(t).Error
}

func (r *Repo) ListVehicleTypes(ctx context.Context) ([]VehicleType, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var ts []VehicleType
	if err := db.Order("name ASC").Find(&ts).Error; err != nil {
		return nil, err
	}
	return ts, nil
}

func (r *Repo) CreateCategory(ctx context.Context, c *VehicleCategory) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(c).Error
}

func (r *Repo) ListCategories(ctx context.Context) ([]VehicleCategory, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var cs []VehicleCategory
	if err := db.Order("name ASC").Find(&cs).Error; err != nil {
		return nil, err
	}
	return cs, nil
}

func (r *Repo) CreateComponentType(ctx context.Context, t *ComponentType) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(t).Error
}

func (r *Repo) ListComponentTypes(ctx context.Context) ([]ComponentType, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var ts []ComponentType
	if err := db.Order("name ASC").Find(&ts).Error; err != nil {
		return nil, err
	}
	return ts, nil
}

func (r *Repo) CreateEvent(ctx context.Context, e *VehicleEvent) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(e).Error
}

// ListEvents 按时间倒序返回车辆事件；eventType、from、to 为可选过滤条件。
func (r *Repo) ListEvents(ctx context.Context, vehicleID string, eventType EventType, from, to *time.Time) ([]VehicleEvent, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	q := db.Where("vehicle_id = ?", vehicleID)
	if eventType != "" {
		q = q.Where("event_type = ?", eventType)
	}
	if from != nil {
		q = q.Where("event_date >= ?", *from)
	}
	if to != nil {
		q = q.Where("event_date <= ?", *to)
	}
	var es []VehicleEvent
	if err := q.Order("event_date DESC").Find(&es).Error; err != nil {
		return nil, err
	}
	return es, nil
}
