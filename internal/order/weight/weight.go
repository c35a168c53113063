package weight

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Line 重量计算的展开输入：订单行项与其产品、订单头的连接结果
// 引擎只消费这个扁平结构，不做任何存储访问
type Line struct {
	OrderID         string
	OrderNumber     string
	DistributorID   string
	DistributorName string
	ProductID       string
	ModelNo         string
	CategoryID      string
	CategoryName    string
	MetalType       string
	MetalColor      string
	Stage           string
	Quantity        int
	BaseWeight      float64
	CreatedAt       time.Time
}

// DefaultStage 行项未设置工序时的隐式状态（历史数据兼容，注册表中不必有此行）
const DefaultStage = "PENDING"

// StageOrDefault 行项工序，空值回落到 PENDING
func (l Line) StageOrDefault() string {
	if l.Stage == "" {
		return DefaultStage
	}
	return l.Stage
}

// Weight 单行重量计算结果，内部累加始终用未舍入值
type Weight struct {
	Gross          float64 `json:"gross"`
	Pure           float64 `json:"pure"`
	PureApplicable bool    `json:"pure_applicable"` // false 表示纯度未设置（如白银），与"数量为零"区分
	MetalKnown     bool    `json:"metal_known"`     // false 表示金属未在注册表命中，按兜底系数计算
	MaterialName   string  `json:"material_name"`
}

// Compute 单行毛重/净金重
// 毛重 = 基准重量 × 换算系数 × 数量；净金重 = 毛重 × 纯度/100
func Compute(line Line, reg *Registry) Weight {
	m := reg.Resolve(line.MetalType)
	gross := line.BaseWeight * m.ConversionRatio * float64(line.Quantity)
	return Weight{
		Gross:          gross,
		Pure:           gross * (m.Purity / 100),
		PureApplicable: m.PureApplicable(),
		MetalKnown:     m.Known,
		MaterialName:   m.MaterialName,
	}
}

// GroupBy 聚合维度
type GroupBy int

const (
	GroupByMaterial GroupBy = iota
	GroupByMetalType
	GroupByCategory
	GroupByDistributor
	GroupByStage
)

// Filter 行项过滤条件，各条件正交组合，零值不过滤
type Filter struct {
	From          *time.Time
	To            *time.Time
	DistributorID string
	Stage         string
	OrderNumber   string
	CategoryID    string
	MetalType     string
	MetalColor    string
}

// Match 行项是否通过过滤
func (f Filter) Match(l Line) bool {
	if f.From != nil && l.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && l.CreatedAt.After(*f.To) {
		return false
	}
	if f.DistributorID != "" && l.DistributorID != f.DistributorID {
		return false
	}
	if f.Stage != "" && l.StageOrDefault() != f.Stage {
		return false
	}
	if f.OrderNumber != "" && !strings.Contains(l.OrderNumber, f.OrderNumber) {
		return false
	}
	if f.CategoryID != "" && l.CategoryID != f.CategoryID {
		return false
	}
	if f.MetalType != "" && l.MetalType != f.MetalType {
		return false
	}
	if f.MetalColor != "" && l.MetalColor != f.MetalColor {
		return false
	}
	return true
}

// Apply 过滤行项集合
func (f Filter) Apply(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if f.Match(l) {
			out = append(out, l)
		}
	}
	return out
}

// Bucket 一个分组键下的累计值，Count 按件数（数量之和）计
type Bucket struct {
	Count int     `json:"count"`
	Gross float64 `json:"gross"`
	Pure  float64 `json:"pure"`
}

// Key 分组键解析，材质维度经注册表连接（含未知金属兜底）
func (g GroupBy) Key(l Line, reg *Registry) string {
	switch g {
	case GroupByMaterial:
		return reg.Resolve(l.MetalType).MaterialName
	case GroupByMetalType:
		return l.MetalType
	case GroupByCategory:
		return l.CategoryName
	case GroupByDistributor:
		return l.DistributorName
	case GroupByStage:
		return l.StageOrDefault()
	}
	return ""
}

// Aggregate 所有看板/报表/订单视图共用的唯一聚合折叠
// 对同一 (lines, registry) 输入结果确定，与输入顺序无关
func Aggregate(lines []Line, groupBy GroupBy, reg *Registry) map[string]Bucket {
	result := make(map[string]Bucket)
	for _, l := range lines {
		key := groupBy.Key(l, reg)
		w := Compute(l, reg)
		b := result[key]
		b.Count += l.Quantity
		b.Gross += w.Gross
		b.Pure += w.Pure
		result[key] = b
	}
	return result
}

// SortedKeys 聚合结果的稳定键序，供展示层使用
func SortedKeys(buckets map[string]Bucket) []string {
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Round2 展示层两位小数舍入，聚合过程不使用
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
