package route

import "time"

// Route 运输路线。距离与预计时长由申报方填写，不在服务端计算。
type Route struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	Name              string    `gorm:"size:100;not null" json:"name"`
	StartLocation     string    `gorm:"size:200;not null" json:"start_location"`
	EndLocation       string    `gorm:"size:200;not null" json:"end_location"`
	DistanceKm        int       `json:"distance_km"`
	EstimatedDuration int       `json:"estimated_duration_minutes"`
	Description       string    `gorm:"size:500" json:"description"`
	IsActive          bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	CreatedBy         string    `gorm:"size:64" json:"created_by"`
	UpdatedBy         string    `gorm:"size:64" json:"updated_by"`
}
