package entity

import "time"

// Category 产品类目（戒指、项链等）
type Category struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Name      string    `json:"name" gorm:"size:100;uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

// Size 尺寸词表（按类目分组展示）
type Size struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Name      string    `json:"name" gorm:"size:50;not null"`
	Category  string    `json:"category" gorm:"size:50;default:General"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Size) TableName() string {
	return "sizes"
}
