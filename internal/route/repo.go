package route

import (
	"context"
	"fmt"

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

func (r *Repo) Create(ctx context.Context, rt *Route) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(rt).Error
}

func (r *Repo) Update(ctx context.Context, rt *Route) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Save(rt).Error
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Route, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var rt Route
	if err := db.Where("id = ?", id).First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

// ActiveRouteExists 活动路线存在性检查，挂接许可前使用。
func (r *Repo) ActiveRouteExists(ctx context.Context, id string) (bool, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return false, fmt.Errorf("repo db is nil")
	}
	var n int64
	err := db.Model(&Route{}).Where("id = ? AND is_active = ?", id, true).Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List 支持起止地模糊搜索 + 分页。
func (r *Repo) List(ctx context.Context, search string, activeOnly bool, offset, limit int) ([]Route, int64, error) {
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
	q := db.Model(&Route{})
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("name LIKE ? OR start_location LIKE ? OR end_location LIKE ?", like, like, like)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rts []Route
	if err := q.Order("name ASC").Offset(offset).Limit(limit).Find(&rts).Error; err != nil {
		return nil, 0, err
	}
	return rts, total, nil
}

// Deactivate 软停用；历史许可还引用着路线，不做物理删除。
func (r *Repo) Deactivate(ctx context.Context, id, actor string) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	res := db.Model(&Route{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": false, "updated_by": actor})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
