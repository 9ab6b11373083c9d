package load

import "time"

// Load 许可对应的载荷描述，一张许可至多一条。
type Load struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	PermitID      string    `gorm:"uniqueIndex;size:36;not null" json:"permit_id"`
	Description   string    `gorm:"size:300;not null" json:"description"`
	LoadType      string    `gorm:"size:50" json:"load_type"`
	MassKg        int       `json:"mass_kg"`
	IsIndivisible bool      `gorm:"not null;default:false" json:"is_indivisible"`
	Notes         string    `gorm:"size:500" json:"notes"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	CreatedBy     string    `gorm:"size:64" json:"created_by"`
	UpdatedBy     string    `gorm:"size:64" json:"updated_by"`
}

// LoadDimension 载荷装载后的总尺寸，一条载荷至多一条。
type LoadDimension struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	LoadID    string    `gorm:"uniqueIndex;size:36;not null" json:"load_id"`
	LengthMm  int       `gorm:"not null;default:0" json:"length_mm"`
	WidthMm   int       `gorm:"not null;default:0" json:"width_mm"`
	HeightMm  int       `gorm:"not null;default:0" json:"height_mm"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ProjectionSide 伸出方向。
type ProjectionSide string

const (
	SideFront ProjectionSide = "front"
	SideRear  ProjectionSide = "rear"
	SideLeft  ProjectionSide = "left"
	SideRight ProjectionSide = "right"
	SideTop   ProjectionSide = "top"
)

// ParseProjectionSide 解析伸出方向，非法值返回 false。
func ParseProjectionSide(s string) (ProjectionSide, bool) {
	switch ProjectionSide(s) {
	case SideFront, SideRear, SideLeft, SideRight, SideTop:
		return ProjectionSide(s), true
	}
	return "", false
}

// LoadProjection 载荷超出车体的伸出量；同一载荷每个方向至多一条。
type LoadProjection struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	LoadID       string         `gorm:"uniqueIndex:idx_load_projection_side;size:36;not null" json:"load_id"`
	Side         ProjectionSide `gorm:"uniqueIndex:idx_load_projection_side;type:varchar(8);not null" json:"side"`
	ProjectionMm int            `gorm:"not null;default:0" json:"projection_mm"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
}
