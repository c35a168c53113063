package entity

import (
	"time"

	catalog "github.com/bitfantasy/gemflow/internal/catalog/entity"
)

// 订单状态 — 由明细工序推导，存储值仅为缓存，以 DeriveOrderStatus 为准
const (
	OrderStatusPending    = "PENDING"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusCancelled  = "CANCELLED"
)

// Order 经销商订单
type Order struct {
	ID                    string     `json:"id" gorm:"primaryKey;size:32"`
	OrderNumber           string     `json:"order_number" gorm:"size:32;uniqueIndex;not null"`
	DistributorID         string     `json:"distributor_id" gorm:"size:32;not null;index"`
	Status                string     `json:"status" gorm:"size:20;default:PENDING"`
	InstructionNote       string     `json:"instruction_note" gorm:"type:text"`
	RequestedDeliveryDate *time.Time `json:"requested_delivery_date"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`

	// 关联
	Items       []OrderItem          `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	Audits      []OrderStageAudit    `json:"audits,omitempty" gorm:"foreignKey:OrderID"`
	Distributor *catalog.Distributor `json:"distributor,omitempty" gorm:"foreignKey:DistributorID"`
}

func (Order) TableName() string {
	return "orders"
}

// 金属颜色
const (
	MetalColorYellow = "Yellow"
	MetalColorWhite  = "White"
	MetalColorRose   = "Rose"
)

// OrderItem 订单行项
// MetalType 按名称匹配 metals.name，不是外键——历史订单在金属改名/删除后
// 仍按当前注册表实时重算重量，重量本身从不落库
type OrderItem struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	OrderID      string    `json:"order_id" gorm:"size:32;not null;index"`
	ProductID    string    `json:"product_id" gorm:"size:32;not null;index"`
	MetalType    string    `json:"metal_type" gorm:"size:100"`
	MetalColor   string    `json:"metal_color" gorm:"size:20"`
	Size         string    `json:"size" gorm:"size:50"`
	Quantity     int       `json:"quantity" gorm:"not null;default:1"`
	Instructions string    `json:"instructions" gorm:"type:text"`
	Stage        string    `json:"stage" gorm:"size:100;default:PENDING"`
	StageReason  string    `json:"stage_reason" gorm:"size:500"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Product *catalog.Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// OrderStageAudit 工序变更审计，只追加，不修改不清理
type OrderStageAudit struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	OrderID   string    `json:"order_id" gorm:"size:32;not null;index"`
	Stage     string    `json:"stage" gorm:"size:100;not null"`
	Reason    string    `json:"reason" gorm:"size:500"`
	ChangedBy string    `json:"changed_by" gorm:"size:100"`
	CreatedAt time.Time `json:"created_at"`
}

func (OrderStageAudit) TableName() string {
	return "order_stage_audits"
}
