package entity

import "time"

// Collection 产品系列：命名的产品分组，经销商侧按可见开关展示
type Collection struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Name      string    `json:"name" gorm:"size:100;uniqueIndex;not null"`
	IsVisible bool      `json:"is_visible" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Products []Product `json:"products,omitempty" gorm:"many2many:collection_products"`
}

func (Collection) TableName() string {
	return "collections"
}
