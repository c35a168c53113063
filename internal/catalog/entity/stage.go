package entity

import (
	"strings"
	"time"
)

// 工序类型 CANCELLED/COMPLETED 为终态
const (
	StageTypeStandard  = "STANDARD"
	StageTypePending   = "PENDING"
	StageTypeOnHold    = "ON_HOLD"
	StageTypeCancelled = "CANCELLED"
	StageTypeCompleted = "COMPLETED"
)

// StageDefinition 可配置的生产工序节点
// Sequence 既是展示顺序也是进度条分子，允许有空洞和重复（影响进度计算）
type StageDefinition struct {
	ID             string    `json:"id" gorm:"primaryKey;size:32"`
	Name           string    `json:"name" gorm:"size:100;uniqueIndex;not null"`
	Type           string    `json:"type" gorm:"size:20;not null"`
	Sequence       int       `json:"sequence" gorm:"not null"`
	RequiresReason bool      `json:"requires_reason" gorm:"default:false"`
	Reasons        string    `json:"reasons" gorm:"size:1000"` // 逗号分隔的原因词表，仅 RequiresReason 时有意义
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (StageDefinition) TableName() string {
	return "order_stage_definitions"
}

// IsTerminal 是否终态工序
func (s *StageDefinition) IsTerminal() bool {
	return s.Type == StageTypeCancelled || s.Type == StageTypeCompleted
}

// ReasonList 拆分原因词表
func (s *StageDefinition) ReasonList() []string {
	if s.Reasons == "" {
		return nil
	}
	parts := strings.Split(s.Reasons, ",")
	reasons := make([]string, 0, len(parts))
	for _, r := range parts {
		if r = strings.TrimSpace(r); r != "" {
			reasons = append(reasons, r)
		}
	}
	return reasons
}

// ValidStageType 校验工序类型
func ValidStageType(t string) bool {
	switch t {
	case StageTypeStandard, StageTypePending, StageTypeOnHold, StageTypeCancelled, StageTypeCompleted:
		return true
	}
	return false
}
