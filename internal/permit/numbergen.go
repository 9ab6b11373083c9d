package permit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// maxSequencePerYear 6 位序号的上限；同类型同年内超过即拒绝发号。
// 不做静默回绕：编号唯一性比可用性重要。
const maxSequencePerYear = 999999

// ErrSequenceExhausted 同一类型同一年份的序号用尽。
var ErrSequenceExhausted = errors.New("permit number sequence exhausted for this type and year")

// NumberStore 编号生成所需的最小存储能力。
type NumberStore interface {
	// LastNumberByPrefix 返回指定前缀下字典序最大的已有编号；没有则返回空串。
	LastNumberByPrefix(ctx context.Context, prefix string) (string, error)
	// NumberExists 判断编号是否已被占用。
	NumberExists(ctx context.Context, number string) (bool, error)
}

// NumberGenerator 许可证编号生成器。
//
// 编号格式：{类型编码}{4位年份}{6位零填充序号}，例如 ABN2025000001。
// 序号零填充保证字典序等于数值序，因此“取前缀下最大编号”即可得到最新序号；
// 年份嵌在前缀里，跨年自动从 1 重新计数。
//
// “查最大 -> 算下一个 -> 插入”不是原子操作，并发请求可能算出同一个号。
// Generate 在返回前做存在性复查并顺延，吸收普通竞争；真正的正确性兜底是
// permits.permit_number 上的唯一索引（见 Service.CreatePermit 的冲突重试）。
type NumberGenerator struct {
	store NumberStore
}

func NewNumberGenerator(store NumberStore) *NumberGenerator {
	return &NumberGenerator{store: store}
}

// Generate 生成下一个可用编号。
func (g *NumberGenerator) Generate(ctx context.Context, permitTypeCode string, now time.Time) (string, error) {
	if g == nil || g.store == nil {
		return "", fmt.Errorf("number generator not initialized")
	}
	code := strings.ToUpper(strings.TrimSpace(permitTypeCode))
	if code == "" {
		return "", fmt.Errorf("permit type code is empty")
	}

	prefix := fmt.Sprintf("%s%04d", code, now.UTC().Year())

	last, err := g.store.LastNumberByPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}

	next := 1
	if len(last) > len(prefix) {
		if n, parseErr := strconv.Atoi(last[len(prefix):]); parseErr == nil {
			next = n + 1
		}
		// 后缀解析失败按无历史处理，从 1 开始（存在性复查会跳过已占用的号）
	}

	for ; next <= maxSequencePerYear; next++ {
		candidate := fmt.Sprintf("%s%06d", prefix, next)
		exists, err := g.store.NumberExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrSequenceExhausted
}

// IsUnique 判断候选编号当前是否未被占用。
func (g *NumberGenerator) IsUnique(ctx context.Context, candidate string) (bool, error) {
	if g == nil || g.store == nil {
		return false, fmt.Errorf("number generator not initialized")
	}
	exists, err := g.store.NumberExists(ctx, candidate)
	if err != nil {
		return false, err
	}
	return !exists, nil
}
