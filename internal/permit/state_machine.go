package permit

import (
	"fmt"
	"strings"
	"time"
)

// AllowTransition 定义许可证状态机的允许流转关系。
// draft 是唯一初始状态；expired / cancelled 为终态；
// 唯一的“回退”边是 rejected -> draft（驳回后重新编辑提交）。
var AllowTransition = map[Status][]Status{
	StatusDraft:       {StatusSubmitted, StatusCancelled},
	StatusSubmitted:   {StatusUnderReview, StatusCancelled},
	StatusUnderReview: {StatusApproved, StatusRejected},
	StatusApproved:    {StatusExpired, StatusCancelled},
	StatusRejected:    {StatusDraft},
	// 终态：不允许从 expired / cancelled 再流转
	StatusExpired:   {},
	StatusCancelled: {},
}

// InvalidTransitionError 非法状态流转。
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid permit status transition: %s -> %s", e.From, e.To)
}

// CanTransition 判断 from -> to 是否是一个允许的状态流转。
// 注意与一般状态机不同：原地流转（from == to）也视为非法。
func CanTransition(from, to Status) bool {
	allowed, ok := AllowTransition[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// ApplyTransition 对许可证应用状态变更，并维护关键字段：
// - 流转到 approved 时，仅在 ApprovalDate 尚未设置时盖章（幂等，二次批准不覆盖）
// - notes 非空时替换备注
// - 记录操作者
// 非法流转返回 *InvalidTransitionError，且不修改许可证任何字段。
func ApplyTransition(p *Permit, to Status, notes, actor string, now time.Time) error {
	if p == nil {
		return fmt.Errorf("permit is nil")
	}
	from := p.Status
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}

	p.Status = to

	if to == StatusApproved && p.ApprovalDate == nil {
		t := now
		p.ApprovalDate = &t
	}
	if strings.TrimSpace(notes) != "" {
		p.Notes = notes
	}
	p.UpdatedBy = actor
	return nil
}
