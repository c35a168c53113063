package stage

import (
	"math"

	catalog "github.com/bitfantasy/gemflow/internal/catalog/entity"
	"github.com/bitfantasy/gemflow/internal/order/entity"
)

// Resolved 行项工序的解析结果
// Def 为 nil 表示工序名未注册（工序被删除或注册表之前的历史数据），
// 此时名称本身充当类型（遗留兼容），进度贡献序号0
type Resolved struct {
	Name string
	Def  *catalog.StageDefinition
}

// Type 工序类型，未注册时回落到名称本身
func (r Resolved) Type() string {
	if r.Def != nil {
		return r.Def.Type
	}
	return r.Name
}

// Sequence 进度序号，未注册时为0
func (r Resolved) Sequence() int {
	if r.Def != nil {
		return r.Def.Sequence
	}
	return 0
}

// Index 工序定义快照，按名称索引，请求期不可变
type Index struct {
	byName map[string]*catalog.StageDefinition
	maxSeq int
}

// NewIndex 构建工序快照
func NewIndex(defs []catalog.StageDefinition) *Index {
	idx := &Index{byName: make(map[string]*catalog.StageDefinition, len(defs))}
	for i := range defs {
		d := &defs[i]
		idx.byName[d.Name] = d
		if d.Sequence > idx.maxSeq {
			idx.maxSeq = d.Sequence
		}
	}
	return idx
}

// Resolve 按名称解析工序，空名称视为隐式 PENDING
func (idx *Index) Resolve(name string) Resolved {
	if name == "" {
		name = entity.OrderStatusPending
	}
	return Resolved{Name: name, Def: idx.byName[name]}
}

// MaxSequence 全部工序中的最大序号，下限1，避免进度计算除零
func (idx *Index) MaxSequence() int {
	if idx.maxSeq < 1 {
		return 1
	}
	return idx.maxSeq
}

// isType 工序是否属于指定类型，含名称即类型的遗留兜底
func (idx *Index) isType(stageName, typ string) bool {
	r := idx.Resolve(stageName)
	return r.Type() == typ || r.Name == typ
}

// DeriveOrderStatus 由全部行项工序推导订单状态（多数类型规则）
// 全部 COMPLETED → COMPLETED；全部 CANCELLED → CANCELLED；
// 全部 PENDING → PENDING；其余混合状态 → PROCESSING
// 这是订单状态的唯一事实来源，已存储的 Order.Status 只是它的缓存
func (idx *Index) DeriveOrderStatus(itemStages []string) string {
	if len(itemStages) == 0 {
		return entity.OrderStatusPending
	}

	all := func(typ string) bool {
		for _, s := range itemStages {
			if !idx.isType(s, typ) {
				return false
			}
		}
		return true
	}

	switch {
	case all(catalog.StageTypeCompleted):
		return entity.OrderStatusCompleted
	case all(catalog.StageTypeCancelled):
		return entity.OrderStatusCancelled
	case all(catalog.StageTypePending):
		return entity.OrderStatusPending
	default:
		return entity.OrderStatusProcessing
	}
}

// Progress 订单完成百分比
// round(Σ 行项工序序号 / (行项数 × 最大序号) × 100)
func (idx *Index) Progress(itemStages []string) int {
	if len(itemStages) == 0 {
		return 0
	}
	total := 0
	for _, s := range itemStages {
		total += idx.Resolve(s).Sequence()
	}
	max := len(itemStages) * idx.MaxSequence()
	return int(math.Round(float64(total) / float64(max) * 100))
}

// ReasonRequired 迁移到目标工序是否必须携带原因
func (idx *Index) ReasonRequired(stageName string) bool {
	r := idx.Resolve(stageName)
	return r.Def != nil && r.Def.RequiresReason
}
