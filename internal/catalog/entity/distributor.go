package entity

import "time"

// Distributor 经销商档案
type Distributor struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	CompanyName string    `json:"company_name" gorm:"size:200;not null"`
	ContactName string    `json:"contact_name" gorm:"size:100"`
	Email       string    `json:"email" gorm:"size:200;uniqueIndex"`
	Phone       string    `json:"phone" gorm:"size:50"`
	Status      string    `json:"status" gorm:"size:20;default:active"` // active/disabled
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Distributor) TableName() string {
	return "distributors"
}

// 经销商状态
const (
	DistributorActive   = "active"
	DistributorDisabled = "disabled"
)
