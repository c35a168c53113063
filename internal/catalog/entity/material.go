package entity

import "time"

// Material 材质分组（如黄金、白银）
type Material struct {
	ID             string    `json:"id" gorm:"primaryKey;size:32"`
	Name           string    `json:"name" gorm:"size:100;uniqueIndex;not null"`
	MinOrderWeight float64   `json:"min_order_weight" gorm:"type:decimal(10,2);default:0"` // 最低起订重量（克）
	IsVisible      bool      `json:"is_visible" gorm:"default:true"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// 关联
	Metals []Metal `json:"metals,omitempty" gorm:"foreignKey:MaterialID"`
}

func (Material) TableName() string {
	return "materials"
}

// Metal 材质下的可称重变体（如18K金、22K金）
// 约束: 每个材质下换算系数为1.0的金属（基准金属）至多一个，由服务层保证
type Metal struct {
	ID              string    `json:"id" gorm:"primaryKey;size:32"`
	Name            string    `json:"name" gorm:"size:100;uniqueIndex;not null"`
	MaterialID      string    `json:"material_id" gorm:"size:32;not null;index"`
	ConversionRatio float64   `json:"conversion_ratio" gorm:"type:decimal(10,4);not null"` // 相对基准金属的重量换算系数
	Purity          float64   `json:"purity" gorm:"type:decimal(5,2);default:0"`           // 纯度百分比 0-100，不适用时为0（如白银）
	IsVisible       bool      `json:"is_visible" gorm:"default:true"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Material *Material `json:"material,omitempty" gorm:"foreignKey:MaterialID"`
}

func (Metal) TableName() string {
	return "metals"
}

// BaseRatio 基准金属的换算系数
const BaseRatio = 1.0

// IsBase 是否为该材质的基准金属
func (m *Metal) IsBase() bool {
	return m.ConversionRatio == BaseRatio
}
