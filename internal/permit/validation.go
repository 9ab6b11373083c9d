package permit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/MpMogale/AVPermitSystemV2/internal/vehicle"
)

// ValidationResult 收集本次申请的全部错误与警告。
// 不做短路：一次把所有问题返回给调用方。
type ValidationResult struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// IsValid 只看 Errors；警告不阻断签发。
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) AddError(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) AddWarning(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// VehicleStore 校验器需要的车辆侧能力。
type VehicleStore interface {
	FindWithCategory(ctx context.Context, id string) (*vehicle.Vehicle, error)
	ComponentCount(ctx context.Context, vehicleID string) (int64, error)
}

// OwnershipStore 校验器需要的归属侧能力。
type OwnershipStore interface {
	HasActiveOwnership(ctx context.Context, vehicleID string, at time.Time) (bool, error)
}

// TypeStore 校验器需要的许可类型查询能力。
type TypeStore interface {
	GetType(ctx context.Context, id string) (*PermitType, error)
}

// OverlapStore 同车同类型时间窗重叠查询。
type OverlapStore interface {
	HasOverlapping(ctx context.Context, vehicleID, permitTypeID string, from, to time.Time) (bool, error)
}

// Validator 申请校验器。所有检查独立执行，不 fail-fast；
// 只有实体不存在时跳过依赖该实体的后续检查。
type Validator struct {
	vehicles   VehicleStore
	ownerships OwnershipStore
	types      TypeStore
	permits    OverlapStore
	nowFn      func() time.Time
}

func NewValidator(vehicles VehicleStore, ownerships OwnershipStore, types TypeStore, permits OverlapStore) *Validator {
	return &Validator{
		vehicles:   vehicles,
		ownerships: ownerships,
		types:      types,
		permits:    permits,
		nowFn:      time.Now,
	}
}

// ValidateApplication 按固定顺序跑全部业务检查。
// 返回的 error 只表示存储层故障；业务问题都在 ValidationResult 里。
func (v *Validator) ValidateApplication(ctx context.Context, vehicleID, permitTypeID string, validFrom, validTo time.Time) (*ValidationResult, error) {
	res := &ValidationResult{}
	now := v.nowFn()

	// 1. 车辆存在且在用
	veh, err := v.vehicles.FindWithCategory(ctx, vehicleID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		veh = nil
	}
	if veh == nil || !veh.IsActive {
		res.AddError("Vehicle not found or inactive")
		veh = nil
	}

	// 2. 许可类型存在且在用
	pt, err := v.types.GetType(ctx, permitTypeID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		pt = nil
	}
	if pt == nil || !pt.IsActive {
		res.AddError("Permit type not found or inactive")
		pt = nil
	}

	// 3. 有效期起止顺序
	if !validFrom.Before(validTo) {
		res.AddError("Valid from date must be before valid to date")
	}

	// 4. 起始日期不能早于当天
	if validFrom.Before(truncateToDay(now)) {
		res.AddError("Valid from date cannot be in the past")
	}

	// 5. 同车同类型时间窗重叠（只在两个实体都存在时有意义）
	if veh != nil && pt != nil {
		overlap, err := v.permits.HasOverlapping(ctx, vehicleID, permitTypeID, validFrom, validTo)
		if err != nil {
			return nil, err
		}
		if overlap {
			res.AddError("Vehicle already has an active or pending permit of this type for the specified period")
		}
	}

	// 6. 车辆必须有当前有效的归属
	if veh != nil {
		ok, err := v.ownerships.HasActiveOwnership(ctx, vehicleID, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			res.AddError("Vehicle must have an active owner")
		}
	}

	// 7. 超限许可与类别上限比对，超出只给警告
	if veh != nil && pt != nil && pt.Code == AbnormalLoadCode {
		v.checkDimensions(veh, res)
	}

	// 8. 无组件车辆给警告
	if veh != nil {
		n, err := v.vehicles.ComponentCount(ctx, vehicleID)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			res.AddWarning("Vehicle has no registered components")
		}
	}

	return res, nil
}

// checkDimensions 将整车尺寸与类别法定上限逐项比对。
// 审批超限需要人工判断，这里只产生警告。
func (v *Validator) checkDimensions(veh *vehicle.Vehicle, res *ValidationResult) {
	cat := veh.Category
	if cat == nil {
		res.AddWarning("Vehicle has no category assigned, dimension limits cannot be checked")
		return
	}
	if cat.MaxLengthMm > 0 && veh.LengthMm > cat.MaxLengthMm {
		res.AddWarning("Vehicle length %dmm exceeds category maximum %dmm", veh.LengthMm, cat.MaxLengthMm)
	}
	if cat.MaxWidthMm > 0 && veh.WidthMm > cat.MaxWidthMm {
		res.AddWarning("Vehicle width %dmm exceeds category maximum %dmm", veh.WidthMm, cat.MaxWidthMm)
	}
	if cat.MaxHeightMm > 0 && veh.HeightMm > cat.MaxHeightMm {
		res.AddWarning("Vehicle height %dmm exceeds category maximum %dmm", veh.HeightMm, cat.MaxHeightMm)
	}
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
