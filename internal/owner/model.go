package owner

import "time"

// OwnerType 所有者类别。
type OwnerType string

const (
	TypeIndividual OwnerType = "individual"
	TypeCompany    OwnerType = "company"
	TypeGovernment OwnerType = "government"
	TypeOther      OwnerType = "other"
)

// ParseOwnerType 解析所有者类别，非法值返回 false。
func ParseOwnerType(s string) (OwnerType, bool) {
	switch OwnerType(s) {
	case TypeIndividual, TypeCompany, TypeGovernment, TypeOther:
		return OwnerType(s), true
	}
	return "", false
}

// Owner 是 owners 表的 GORM 模型。
type Owner struct {
	ID                 string    `gorm:"primaryKey;size:36" json:"id"`
	OwnerType          OwnerType `gorm:"type:varchar(16);not null" json:"owner_type"`
	Name               string    `gorm:"size:100;not null" json:"name"`
	RegistrationNumber string    `gorm:"size:50" json:"registration_number"`
	IDNumber           string    `gorm:"size:30" json:"id_number"`
	ContactPerson      string    `gorm:"size:100" json:"contact_person"`
	Email              string    `gorm:"size:100" json:"email"`
	Phone              string    `gorm:"size:30" json:"phone"`
	Address            string    `gorm:"size:300" json:"address"`
	IsActive           bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	CreatedBy          string    `gorm:"size:64" json:"created_by"`
	UpdatedBy          string    `gorm:"size:64" json:"updated_by"`
}

// VehicleOwnership 车辆归属记录。EndDate 为空表示当前有效。
type VehicleOwnership struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	VehicleID      string     `gorm:"index;size:36;not null" json:"vehicle_id"`
	OwnerID        string     `gorm:"index;size:36;not null" json:"owner_id"`
	StartDate      time.Time  `gorm:"not null" json:"start_date"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	IsPrimaryOwner bool       `gorm:"not null;default:false" json:"is_primary_owner"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	CreatedBy      string     `gorm:"size:64" json:"created_by"`
	UpdatedBy      string     `gorm:"size:64" json:"updated_by"`
}

// Active 判断在 at 时刻该归属是否有效。
func (o *VehicleOwnership) Active(at time.Time) bool {
	if o == nil {
		return false
	}
	if o.StartDate.After(at) {
		return false
	}
	return o.EndDate == nil || o.EndDate.After(at)
}
