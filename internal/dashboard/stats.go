package dashboard

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/MpMogale/AVPermitSystemV2/internal/owner"
	"github.com/MpMogale/AVPermitSystemV2/internal/permit"
	"github.com/MpMogale/AVPermitSystemV2/internal/route"
	"github.com/MpMogale/AVPermitSystemV2/internal/vehicle"
)

// Statistics 概览页的聚合数据。
type Statistics struct {
	TotalVehicles   int64            `json:"total_vehicles"`
	ActiveVehicles  int64            `json:"active_vehicles"`
	TotalOwners     int64            `json:"total_owners"`
	TotalRoutes     int64            `json:"total_routes"`
	TotalPermits    int64            `json:"total_permits"`
	PermitsByStatus map[string]int64 `json:"permits_by_status"`
	ExpiringSoon    int64            `json:"permits_expiring_soon"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// Collect 跑一组聚合查询拼出概览。expiringWithin 用于“即将到期”窗口。
func (r *Repo) Collect(ctx context.Context, now time.Time, expiringWithin time.Duration) (*Statistics, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	db := r.db.WithContext(ctx)

	s := &Statistics{
		PermitsByStatus: map[string]int64{},
		GeneratedAt:     now,
	}

	if err := db.Model(&vehicle.Vehicle{}).Count(&s.TotalVehicles).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&vehicle.Vehicle{}).Where("is_active = ?", true).Count(&s.ActiveVehicles).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&owner.Owner{}).Count(&s.TotalOwners).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&route.Route{}).Count(&s.TotalRoutes).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&permit.Permit{}).Count(&s.TotalPermits).Error; err != nil {
		return nil, err
	}

	type statusCount struct {
		Status string
		N      int64
	}
	var rows []statusCount
	err := db.Model(&permit.Permit{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		s.PermitsByStatus[row.Status] = row.N
	}

	err = db.Model(&permit.Permit{}).
		Where("status = ? AND valid_to_date BETWEEN ? AND ?", permit.StatusApproved, now, now.Add(expiringWithin)).
		Count(&s.ExpiringSoon).Error
	if err != nil {
		return nil, err
	}
	return s, nil
}
