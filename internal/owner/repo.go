package owner

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

func (r *Repo) Create(ctx context.Context, o *Owner) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(o).Error
}

func (r *Repo) Update(ctx context.Context, o *Owner) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Save(o).Error
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Owner, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var o Owner
	if err := db.Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// List 支持按 owner_type / 名称模糊过滤 + 分页。
func (r *Repo) List(ctx context.Context, ownerType OwnerType, name string, offset, limit int) ([]Owner, int64, error) {
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
	q := db.Model(&Owner{})
	if ownerType != "" {
		q = q.Where("owner_type = ?", ownerType)
	}
	if name != "" {
		q = q.Where("name LIKE ?", "%"+name+"%")
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var os []Owner
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&os).Error; err != nil {
		return nil, 0, err
	}
	return os, total, nil
}

// ---- 归属 ----

func (r *Repo) CreateOwnership(ctx context.Context, o *VehicleOwnership) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(o).Error
}

func (r *Repo) GetOwnership(ctx context.Context, id string) (*VehicleOwnership, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var o VehicleOwnership
	if err := db.Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// EndOwnership 结束一段归属；已结束的再结束视为非法。
func (r *Repo) EndOwnership(ctx context.Context, id string, endDate time.Time, actor string) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	o, err := r.GetOwnership(ctx, id)
	if err != nil {
		return err
	}
	if o.EndDate != nil {
		return fmt.Errorf("ownership %s already ended", id)
	}
	if endDate.Before(o.StartDate) {
		return fmt.Errorf("end date must not be before start date")
	}
	o.EndDate = &endDate
	o.UpdatedBy = actor
	return db.Save(o).Error
}

// ListVehicleOwnerships 一辆车的全部归属历史，按开始时间倒序。
func (r *Repo) ListVehicleOwnerships(ctx context.Context, vehicleID string) ([]VehicleOwnership, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var os []VehicleOwnership
	if err := db.Where("vehicle_id = ?", vehicleID).Order("start_date DESC").Find(&os).Error; err != nil {
		return nil, err
	}
	return os, nil
}

// ListOwnerVehicles 一个所有者名下当前有效的归属。
func (r *Repo) ListOwnerVehicles(ctx context.Context, ownerID string, at time.Time) ([]VehicleOwnership, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var os []VehicleOwnership
	err := db.Where("owner_id = ? AND start_date <= ? AND (end_date IS NULL OR end_date > ?)", ownerID, at, at).
		Find(&os).Error
	if err != nil {
		return nil, err
	}
	return os, nil
}

// HasActiveOwnership 判断车辆在 at 时刻是否有有效归属，许可校验用。
func (r *Repo) HasActiveOwnership(ctx context.Context, vehicleID string, at time.Time) (bool, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return false, fmt.Errorf("repo db is nil")
	}
	var n int64
	err := db.Model(&VehicleOwnership{}).
		Where("vehicle_id = ? AND start_date <= ? AND (end_date IS NULL OR end_date > ?)", vehicleID, at, at).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
