package permit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ValidationError 申请校验失败，携带全部业务错误。
type ValidationError struct {
	Result *ValidationResult
}

func (e *ValidationError) Error() string {
	return "permit application validation failed: " + strings.Join(e.Result.Errors, "; ")
}

// Service 封装许可领域的核心用例（不依赖 HTTP），便于复用和测试。
// 编号生成与状态流转只从这里走，传输层不做业务。
type Service struct {
	repo      *Repo
	validator *Validator
	numbers   *NumberGenerator
	nowFn     func() time.Time
}

func NewService(repo *Repo, validator *Validator) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		numbers:   NewNumberGenerator(repo),
		nowFn:     time.Now,
	}
}

// CreatePermitInput 创建许可的入参。
type CreatePermitInput struct {
	VehicleID     string
	PermitTypeID  string
	ValidFromDate time.Time
	ValidToDate   time.Time
	Purpose       string
	Notes         string
}

// ListPermitsFilter 查询条件。
type ListPermitsFilter struct {
	VehicleID    string
	Status       Status
	PermitTypeID string
	Offset       int
	Limit        int
}

// CreatePermit 校验申请、生成编号并落库，初始状态固定为草稿。
// 返回的 *ValidationResult 带回警告；校验不过返回 *ValidationError。
// 编号撞唯一索引时整个生成-插入流程重试一次。
func (s *Service) CreatePermit(ctx context.Context, in CreatePermitInput, actor string) (*Permit, *ValidationResult, error) {
	if s == nil || s.repo == nil {
		return nil, nil, fmt.Errorf("service not initialized")
	}
	if strings.TrimSpace(in.VehicleID) == "" {
		return nil, nil, fmt.Errorf("vehicle_id required")
	}
	if strings.TrimSpace(in.PermitTypeID) == "" {
		return nil, nil, fmt.Errorf("permit_type_id required")
	}

	res, err := s.validator.ValidateApplication(ctx, in.VehicleID, in.PermitTypeID, in.ValidFromDate, in.ValidToDate)
	if err != nil {
		return nil, nil, err
	}
	if !res.IsValid() {
		return nil, res, &ValidationError{Result: res}
	}

	pt, err := s.repo.GetType(ctx, in.PermitTypeID)
	if err != nil {
		return nil, res, err
	}

	now := s.nowFn()
	var p *Permit
	for attempt := 0; attempt < 2; attempt++ {
		number, err := s.numbers.Generate(ctx, pt.Code, now)
		if err != nil {
			return nil, res, err
		}
		p = &Permit{
			ID:              uuid.NewString(),
			PermitNumber:    number,
			VehicleID:       strings.TrimSpace(in.VehicleID),
			PermitTypeID:    strings.TrimSpace(in.PermitTypeID),
			Status:          StatusDraft,
			ApplicationDate: now,
			ValidFromDate:   in.ValidFromDate,
			ValidToDate:     in.ValidToDate,
			Purpose:         strings.TrimSpace(in.Purpose),
			Notes:           strings.TrimSpace(in.Notes),
			FeeCents:        pt.FeeCents,
			Version:         1,
			CreatedBy:       actor,
			UpdatedBy:       actor,
		}
		err = s.repo.Create(ctx, p)
		if err == nil {
			return p, res, nil
		}
		// 并发竞争撞了 permit_number 唯一索引才重试，其余错误直接上抛
		if !errors.Is(err, gorm.ErrDuplicatedKey) || attempt == 1 {
			return nil, res, err
		}
	}
	return p, res, nil
}

// UpdateStatus 根据状态机规则做状态流转，带乐观并发保护。
func (s *Service) UpdateStatus(ctx context.Context, permitID string, to Status, notes, actor string) (*Permit, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	permitID = strings.TrimSpace(permitID)
	if permitID == "" {
		return nil, fmt.Errorf("permit_id required")
	}
	if to == "" {
		return nil, fmt.Errorf("target status required")
	}

	p, err := s.repo.GetByID(ctx, permitID)
	if err != nil {
		return nil, err
	}
	version := p.Version

	if err := ApplyTransition(p, to, notes, actor, s.nowFn()); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateWithVersion(ctx, p, version); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetPermit(ctx context.Context, id string) (*Permit, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListPermits(ctx context.Context, f ListPermitsFilter) ([]Permit, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, fmt.Errorf("service not initialized")
	}
	return s.repo.List(ctx, f.VehicleID, f.Status, f.PermitTypeID, f.Offset, f.Limit)
}

// DeletePermit 物理删除，只允许删草稿；其它状态走取消流转。
func (s *Service) DeletePermit(ctx context.Context, id string) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("service not initialized")
	}
	return s.repo.DeleteDraft(ctx, strings.TrimSpace(id))
}

// ValidateApplication 独立校验入口，供创建前的预检接口使用。
func (s *Service) ValidateApplication(ctx context.Context, vehicleID, permitTypeID string, from, to time.Time) (*ValidationResult, error) {
	if s == nil || s.validator == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	return s.validator.ValidateApplication(ctx, vehicleID, permitTypeID, from, to)
}
