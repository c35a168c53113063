package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 订单域仓库集合
type Repositories struct {
	Order *OrderRepository
}

// NewRepositories 创建订单域仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Order: NewOrderRepository(db),
	}
}
