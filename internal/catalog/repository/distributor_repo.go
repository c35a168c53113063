package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/gemflow/internal/catalog/entity"
	"gorm.io/gorm"
)

// DistributorRepository 经销商仓库
type DistributorRepository struct {
	db *gorm.DB
}

func NewDistributorRepository(db *gorm.DB) *DistributorRepository {
	return &DistributorRepository{db: db}
}

// FindAll 经销商列表
func (r *DistributorRepository) FindAll(ctx context.Context, search string) ([]entity.Distributor, error) {
	var items []entity.Distributor
	query := r.db.WithContext(ctx).Order("company_name ASC")
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("company_name ILIKE ? OR contact_name ILIKE ?", like, like)
	}
	err := query.Find(&items).Error
	return items, err
}

// FindByID 根据ID查找经销商
func (r *DistributorRepository) FindByID(ctx context.Context, id string) (*entity.Distributor, error) {
	var d entity.Distributor
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// Create 创建经销商
func (r *DistributorRepository) Create(ctx context.Context, d *entity.Distributor) error {
	return r.db.WithContext(ctx).Create(d).Error
}

// Update 更新经销商
func (r *DistributorRepository) Update(ctx context.Context, d *entity.Distributor) error {
	return r.db.WithContext(ctx).Save(d).Error
}

// CountOrders 经销商名下订单数
func (r *DistributorRepository) CountOrders(ctx context.Context, id string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("orders").
		Where("distributor_id = ?", id).Count(&count).Error
	return count, err
}
