package load

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

func (r *Repo) Create(ctx context.Context, l *Load) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(l).Error
}

func (r *Repo) Update(ctx context.Context, l *Load) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Save(l).Error
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Load, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var l Load
	if err := db.Where("id = ?", id).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *Repo) GetByPermitID(ctx context.Context, permitID string) (*Load, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var l Load
	if err := db.Where("permit_id = ?", permitID).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&Load{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("load_id = ?", id).Delete(&LoadDimension{}).Error; err != nil {
			return err
		}
		return tx.Where("load_id = ?", id).Delete(&LoadProjection{}).Error
	})
}

// UpsertDimension 一条载荷只保留一条尺寸记录。
func (r *Repo) UpsertDimension(ctx context.Context, d *LoadDimension) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	var existing LoadDimension
	err := db.Where("load_id = ?", d.LoadID).First(&existing).Error
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

func (r *Repo) GetDimension(ctx context.Context, loadID string) (*LoadDimension, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var d LoadDimension
	if err := db.Where("load_id = ?", loadID).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// UpsertProjection 同一方向只保留一条伸出量。
func (r *Repo) UpsertProjection(ctx context.Context, p *LoadProjection) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	var existing LoadProjection
	err := db.Where("load_id = ? AND side = ?", p.LoadID, p.Side).First(&existing).Error
	if err == nil {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		return db.Save(p).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return db.Create(p).Error
}

func (r *Repo) ListProjections(ctx context.Context, loadID string) ([]LoadProjection, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var ps []LoadProjection
	if err := db.Where("load_id = ?", loadID).Order("side ASC").Find(&ps).Error; err != nil {
		return nil, err
	}
	return ps, nil
}

func (r *Repo) DeleteProjection(ctx context.Context, loadID string, side ProjectionSide) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	res := db.Where("load_id = ? AND side = ?", loadID, side).Delete(&LoadProjection{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
