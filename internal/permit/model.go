package permit

import (
	"fmt"
	"time"

	"github.com/MpMogale/AVPermitSystemV2/internal/vehicle"
)

// Status 许可证状态枚举（持久化为字符串）。
type Status string

const (
	StatusDraft       Status = "draft"        // 草稿，可编辑
	StatusSubmitted   Status = "submitted"    // 已提交，待受理
	StatusUnderReview Status = "under_review" // 审核中
	StatusApproved    Status = "approved"     // 已批准
	StatusRejected    Status = "rejected"     // 已驳回（可退回草稿重新提交）
	StatusExpired     Status = "expired"      // 已过期（终态）
	StatusCancelled   Status = "cancelled"    // 已取消（终态）
)

// ParseStatus 解析外部输入的状态值。
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusDraft, StatusSubmitted, StatusUnderReview, StatusApproved,
		StatusRejected, StatusExpired, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown permit status %q", s)
}

// AbnormalLoadCode 超限运输许可类型编码；该类型申请会触发车辆尺寸校验告警。
const AbnormalLoadCode = "ABN"

// PermitType 是 permit_types 表的 GORM 模型。
// 参考数据，创建后基本不变；Code 作为许可证编号前缀。
type PermitType struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Name         string    `gorm:"size:50;not null" json:"name"`
	Code         string    `gorm:"size:10;index;not null" json:"code"`
	Description  string    `gorm:"size:200" json:"description"`
	FeeCents     int64     `gorm:"not null;default:0" json:"fee_cents"` // 费用（单位：分）
	ValidityDays int       `gorm:"not null;default:0" json:"validity_days"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	CreatedBy    string    `gorm:"size:64" json:"created_by"`
	UpdatedBy    string    `gorm:"size:64" json:"updated_by"`
}

// Permit 是 permits 表的 GORM 模型。
//
// PermitNumber 上的唯一索引是编号生成并发竞争的最终兜底，不能去掉。
// Version 用于乐观并发控制：每次状态更新校验并自增，防止并发写互相覆盖。
type Permit struct {
	ID           string `gorm:"primaryKey;size:36" json:"id"`
	PermitNumber string `gorm:"uniqueIndex;size:50;not null" json:"permit_number"`
	VehicleID    string `gorm:"index;size:36;not null" json:"vehicle_id"`
	PermitTypeID string `gorm:"index;size:36;not null" json:"permit_type_id"`
	Status       Status `gorm:"type:varchar(16);index;not null" json:"status"`

	ApplicationDate time.Time  `gorm:"not null" json:"application_date"`
	ApprovalDate    *time.Time `json:"approval_date,omitempty"`
	ValidFromDate   time.Time  `gorm:"not null" json:"valid_from_date"`
	ValidToDate     time.Time  `gorm:"not null" json:"valid_to_date"`

	Purpose  string `gorm:"size:200" json:"purpose"`
	Notes    string `gorm:"size:500" json:"notes"`
	FeeCents int64  `gorm:"not null;default:0" json:"fee_cents"` // 申请时从 PermitType 拷贝（单位：分）

	Version int64 `gorm:"not null;default:1" json:"version"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	CreatedBy string    `gorm:"size:64" json:"created_by"`
	UpdatedBy string    `gorm:"size:64" json:"updated_by"`

	// 关联（查询时按需 Preload）
	Vehicle    *vehicle.Vehicle `gorm:"foreignKey:VehicleID;references:ID" json:"vehicle,omitempty"`
	PermitType *PermitType      `gorm:"foreignKey:PermitTypeID;references:ID" json:"permit_type,omitempty"`
}

// IsTerminal 终态判断：终态许可证不再参与任何流转。
func (p *Permit) IsTerminal() bool {
	return p.Status == StatusExpired || p.Status == StatusCancelled
}

// PermitConstraint 许可证附加约束（限速、护送车、时段限制等）。
type PermitConstraint struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	PermitID       string    `gorm:"index;size:36;not null" json:"permit_id"`
	ConstraintType string    `gorm:"size:100;not null" json:"constraint_type"`
	Description    string    `gorm:"size:500" json:"description"`
	Value          string    `gorm:"size:200" json:"value"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	CreatedBy      string    `gorm:"size:64" json:"created_by"`
}

// PermitRoute 许可证与路线的关联；Sequence 支持多段行程。
type PermitRoute struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	PermitID      string     `gorm:"uniqueIndex:idx_permit_route_seq;size:36;not null" json:"permit_id"`
	RouteID       string     `gorm:"index;size:36;not null" json:"route_id"`
	Sequence      int        `gorm:"uniqueIndex:idx_permit_route_seq;not null;default:1" json:"sequence"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
	Notes         string     `gorm:"size:200" json:"notes"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
