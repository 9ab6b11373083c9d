package permit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrConcurrentModification 带版本号的更新没有命中任何行，
// 说明别的请求已经改过这条许可。
var ErrConcurrentModification = errors.New("permit was modified by another request")

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

func (r *Repo) Create(ctx context.Context, p *Permit) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(p).Error
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Permit, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var p Permit
	err := db.Preload("PermitType").Preload("Vehicle").
		Where("id = ?", id).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) GetByNumber(ctx context.Context, number string) (*Permit, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var p Permit
	if err := db.Where("permit_number = ?", number).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateWithVersion 乐观并发更新：WHERE 带上读取时的版本号，
// 命中则版本号 +1，未命中返回 ErrConcurrentModification。
func (r *Repo) UpdateWithVersion(ctx context.Context, p *Permit, expectedVersion int64) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	res := db.Model(&Permit{}).
		Where("id = ? AND version = ?", p.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":        p.Status,
			"notes":         p.Notes,
			"approval_date": p.ApprovalDate,
			"updated_by":    p.UpdatedBy,
			"version":       expectedVersion + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// 区分记录不存在和版本不匹配
		var n int64
		if err := db.Model(&Permit{}).Where("id = ?", p.ID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return gorm.ErrRecordNotFound
		}
		return ErrConcurrentModification
	}
	p.Version = expectedVersion + 1
	return nil
}

// DeleteDraft 只允许物理删除草稿状态的许可。
func (r *Repo) DeleteDraft(ctx context.Context, id string) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	res := db.Where("id = ? AND status = ?", id, StatusDraft).Delete(&Permit{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := db.Model(&Permit{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return gorm.ErrRecordNotFound
		}
		return fmt.Errorf("only draft permits can be deleted")
	}
	return nil
}

// List 支持按 vehicle_id / status / permit_type_id 过滤 + 分页。
func (r *Repo) List(ctx context.Context, vehicleID string, status Status, permitTypeID string, offset, limit int) ([]Permit, int64, error) {
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
	q := db.Model(&Permit{})
	if vehicleID != "" {
		q = q.Where("vehicle_id = ?", vehicleID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if permitTypeID != "" {
		q = q.Where("permit_type_id = ?", permitTypeID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var ps []Permit
	if err := q.Preload("PermitType").Order("created_at DESC").Offset(offset).Limit(limit).Find(&ps).Error; err != nil {
		return nil, 0, err
	}
	return ps, total, nil
}

// LastNumberByPrefix 同前缀下编号最大的一条，没有则返回空串。
func (r *Repo) LastNumberByPrefix(ctx context.Context, prefix string) (string, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return "", fmt.Errorf("repo db is nil")
	}
	var p Permit
	err := db.Select("permit_number").
		Where("permit_number LIKE ?", prefix+"%").
		Order("permit_number DESC").
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return p.PermitNumber, nil
}

// PermitExists 供载荷等下游模块做外键前置检查。
func (r *Repo) PermitExists(ctx context.Context, id string) (bool, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return false, fmt.Errorf("repo db is nil")
	}
	var n int64
	if err := db.Model(&Permit{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Repo) NumberExists(ctx context.Context, number string) (bool, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return false, fmt.Errorf("repo db is nil")
	}
	var n int64
	err := db.Model(&Permit{}).Where("permit_number = ?", number).Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// HasOverlapping 同车同类型是否已有时间窗重叠的在途许可。
// 已取消/已驳回/已过期的不算在途。
func (r *Repo) HasOverlapping(ctx context.Context, vehicleID, permitTypeID string, from, to time.Time) (bool, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return false, fmt.Errorf("repo db is nil")
	}
	var n int64
	err := db.Model(&Permit{}).
		Where("vehicle_id = ? AND permit_type_id = ?", vehicleID, permitTypeID).
		Where("status NOT IN ?", []Status{StatusCancelled, StatusRejected, StatusExpired}).
		Where("(valid_from_date <= ? AND valid_to_date >= ?) OR (valid_from_date <= ? AND valid_to_date >= ?) OR (valid_from_date >= ? AND valid_to_date <= ?)",
			from, from, to, to, from, to).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ---- 许可类型 ----

func (r *Repo) CreateType(ctx context.Context, t *PermitType) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(t).Error
}

func (r *Repo) GetType(ctx context.Context, id string) (*PermitType, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var t PermitType
	if err := db.Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repo) UpdateType(ctx context.Context, t *PermitType) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Save(t).Error
}

func (r *Repo) ListTypes(ctx context.Context, activeOnly bool) ([]PermitType, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	q := db.Model(&PermitType{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var ts []PermitType
	if err := q.Order("code ASC").Find(&ts).Error; err != nil {
		return nil, err
	}
	return ts, nil
}

// ---- 约束 ----

func (r *Repo) CreateConstraint(ctx context.Context, c *PermitConstraint) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(c).Error
}

func (r *Repo) ListConstraints(ctx context.Context, permitID string) ([]PermitConstraint, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var cs []PermitConstraint
	if err := db.Where("permit_id = ?", permitID).Find(&cs).Error; err != nil {
		return nil, err
	}
	return cs, nil
}

func (r *Repo) DeleteConstraint(ctx context.Context, permitID, constraintID string) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	res := db.Where("id = ? AND permit_id = ?", constraintID, permitID).Delete(&PermitConstraint{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ---- 许可路线 ----

func (r *Repo) AttachRoute(ctx context.Context, pr *PermitRoute) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(pr).Error
}

func (r *Repo) ListRoutes(ctx context.Context, permitID string) ([]PermitRoute, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var rs []PermitRoute
	if err := db.Where("permit_id = ?", permitID).Order("sequence ASC").Find(&rs).Error; err != nil {
		return nil, err
	}
	return rs, nil
}

// ListByRoute 查询挂接了指定路线的许可证。
func (r *Repo) ListByRoute(ctx context.Context, routeID string) ([]Permit, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var ps []Permit
	err := db.
		Joins("JOIN permit_routes ON permit_routes.permit_id = permits.id").
		Where("permit_routes.route_id = ?", routeID).
		Order("permits.created_at DESC").
		Find(&ps).Error
	if err != nil {
		return nil, err
	}
	return ps, nil
}

func (r *Repo) DetachRoute(ctx context.Context, permitID, routeID string) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	res := db.Where("permit_id = ? AND route_id = ?", permitID, routeID).Delete(&PermitRoute{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
