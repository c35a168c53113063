package weight

import (
	"fmt"
	"sort"
)

// MinWeightViolation 最低起订重量未达标
// Actual 为该材质在整个购物车中的累计毛重，校验全有或全无，不做部分接受
type MinWeightViolation struct {
	Material string  `json:"material"`
	Required float64 `json:"required"`
	Actual   float64 `json:"actual"`
}

func (e *MinWeightViolation) Error() string {
	return fmt.Sprintf("minimum order weight for %s is %.2fg, cart has %.2fg",
		e.Material, e.Required, Round2(e.Actual))
}

// ValidateMinimumWeight 提交前校验：按材质累计毛重并与起订重量比较
// 边界含等于（累计 >= 起订即通过）；多个材质违规时报告名称最小者，保证确定性
func ValidateMinimumWeight(cart []Line, reg *Registry) *MinWeightViolation {
	totals := Aggregate(cart, GroupByMaterial, reg)

	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		min := reg.MinOrderWeight(name)
		if min <= 0 {
			continue
		}
		if totals[name].Gross < min {
			return &MinWeightViolation{Material: name, Required: min, Actual: totals[name].Gross}
		}
	}
	return nil
}
