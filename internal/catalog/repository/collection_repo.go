package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/gemflow/internal/catalog/entity"
	"gorm.io/gorm"
)

// CollectionRepository 产品系列仓库
type CollectionRepository struct {
	db *gorm.DB
}

func NewCollectionRepository(db *gorm.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

// FindAll 系列列表，visibleOnly 为 true 时只返回对经销商可见的
func (r *CollectionRepository) FindAll(ctx context.Context, visibleOnly bool) ([]entity.Collection, error) {
	var items []entity.Collection
	query := r.db.WithContext(ctx)
	if visibleOnly {
		query = query.Where("is_visible = ?", true)
	}
	err := query.Order("name ASC").Find(&items).Error
	return items, err
}

// FindByID 根据ID查找系列（带产品）
func (r *CollectionRepository) FindByID(ctx context.Context, id string) (*entity.Collection, error) {
	var c entity.Collection
	err := r.db.WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB {
			return db.Order("model_no ASC")
		}).
		Preload("Products.Category").
		Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create 创建系列
func (r *CollectionRepository) Create(ctx context.Context, c *entity.Collection) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// Update 更新系列
func (r *CollectionRepository) Update(ctx context.Context, c *entity.Collection) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// Delete 删除系列并清空产品关联
func (r *CollectionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c := entity.Collection{ID: id}
		if err := tx.Model(&c).Association("Products").Clear(); err != nil {
			return err
		}
		return tx.Delete(&c).Error
	})
}

// AddProducts 向系列追加产品，重复关联幂等
func (r *CollectionRepository) AddProducts(ctx context.Context, id string, products []entity.Product) error {
	c := entity.Collection{ID: id}
	return r.db.WithContext(ctx).Model(&c).Association("Products").Append(&products)
}

// RemoveProduct 从系列移除产品
func (r *CollectionRepository) RemoveProduct(ctx context.Context, id, productID string) error {
	c := entity.Collection{ID: id}
	return r.db.WithContext(ctx).Model(&c).
		Association("Products").Delete(&entity.Product{ID: productID})
}
