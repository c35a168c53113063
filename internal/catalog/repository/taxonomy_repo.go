package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/gemflow/internal/catalog/entity"
	"gorm.io/gorm"
)

// CategoryRepository 类目仓库
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// FindAll 类目列表
func (r *CategoryRepository) FindAll(ctx context.Context) ([]entity.Category, error) {
	var items []entity.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error
	return items, err
}

// FindByID 根据ID查找类目
func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*entity.Category, error) {
	var c entity.Category
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create 创建类目
func (r *CategoryRepository) Create(ctx context.Context, c *entity.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// Delete 删除类目
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Category{}).Error
}

// CountProductRefs 类目被产品引用的数量
func (r *CategoryRepository) CountProductRefs(ctx context.Context, id string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Product{}).
		Where("category_id = ?", id).Count(&count).Error
	return count, err
}

// SizeRepository 尺寸仓库
type SizeRepository struct {
	db *gorm.DB
}

func NewSizeRepository(db *gorm.DB) *SizeRepository {
	return &SizeRepository{db: db}
}

// FindAll 尺寸列表
func (r *SizeRepository) FindAll(ctx context.Context) ([]entity.Size, error) {
	var items []entity.Size
	err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error
	return items, err
}

// Create 创建尺寸
func (r *SizeRepository) Create(ctx context.Context, s *entity.Size) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// Delete 删除尺寸
func (r *SizeRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Size{}).Error
}

// CountOrderItemRefs 按名称统计订单行项对尺寸的引用数
func (r *SizeRepository) CountOrderItemRefs(ctx context.Context, sizeName string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("order_items").
		Where("size = ?", sizeName).Count(&count).Error
	return count, err
}

// FindByID 根据ID查找尺寸
func (r *SizeRepository) FindByID(ctx context.Context, id string) (*entity.Size, error) {
	var s entity.Size
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}
