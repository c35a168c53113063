package entity

import (
	"strings"
	"time"
)

// 产品可见性
const (
	VisibilityAll     = "ALL"     // 所有经销商可见
	VisibilityAllowed = "ALLOWED" // 仅白名单经销商可见
)

// Product 产品目录条目
// BaseWeight 以该材质基准金属（换算系数1.0）计量
type Product struct {
	ID         string  `json:"id" gorm:"primaryKey;size:32"`
	ModelNo    string  `json:"model_no" gorm:"size:50;uniqueIndex;not null"`
	Title      string  `json:"title" gorm:"size:200"`
	CategoryID string  `json:"category_id" gorm:"size:32;not null;index"`
	BaseWeight float64 `json:"base_weight" gorm:"type:decimal(10,2);not null"` // 基准重量（克）
	MainImage  string  `json:"main_image" gorm:"size:512"`
	CADFile    string  `json:"cad_file" gorm:"size:512"`
	Tags       string  `json:"tags" gorm:"size:500"` // 逗号分隔

	Visibility          string `json:"visibility" gorm:"size:10;default:ALL"`
	AllowedDistributors string `json:"allowed_distributors" gorm:"type:text"` // 逗号分隔的经销商ID白名单

	IsActive  bool      `json:"is_active" gorm:"default:true"` // 软停用，被订单引用后不做物理删除
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

func (Product) TableName() string {
	return "products"
}

// TagList 拆分逗号分隔的标签
func (p *Product) TagList() []string {
	if p.Tags == "" {
		return nil
	}
	parts := strings.Split(p.Tags, ",")
	tags := make([]string, 0, len(parts))
	for _, t := range parts {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// VisibleTo 产品对指定经销商是否可见
func (p *Product) VisibleTo(distributorID string) bool {
	if p.Visibility != VisibilityAllowed {
		return true
	}
	for _, id := range strings.Split(p.AllowedDistributors, ",") {
		if strings.TrimSpace(id) == distributorID {
			return true
		}
	}
	return false
}
