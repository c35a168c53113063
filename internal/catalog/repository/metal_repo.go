package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/gemflow/internal/catalog/entity"
	"gorm.io/gorm"
)

// MetalRepository 金属仓库
type MetalRepository struct {
	db *gorm.DB
}

func NewMetalRepository(db *gorm.DB) *MetalRepository {
	return &MetalRepository{db: db}
}

// FindAll 金属列表（含所属材质）
func (r *MetalRepository) FindAll(ctx context.Context, visibleOnly bool) ([]entity.Metal, error) {
	var items []entity.Metal
	query := r.db.WithContext(ctx).Preload("Material").Order("name ASC")
	if visibleOnly {
		query = query.Where("is_visible = ?", true)
	}
	err := query.Find(&items).Error
	return items, err
}

// FindByID 根据ID查找金属
func (r *MetalRepository) FindByID(ctx context.Context, id string) (*entity.Metal, error) {
	var m entity.Metal
	err := r.db.WithContext(ctx).Preload("Material").Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// FindByName 根据名称查找金属
func (r *MetalRepository) FindByName(ctx context.Context, name string) (*entity.Metal, error) {
	var m entity.Metal
	err := r.db.WithContext(ctx).Preload("Material").Where("name = ?", name).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// FindBase 查找材质下的基准金属（系数1.0），excludeID 用于更新时排除自身
func (r *MetalRepository) FindBase(ctx context.Context, materialID, excludeID string) (*entity.Metal, error) {
	var m entity.Metal
	query := r.db.WithContext(ctx).
		Where("material_id = ? AND conversion_ratio = ?", materialID, entity.BaseRatio)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Create 创建金属
func (r *MetalRepository) Create(ctx context.Context, m *entity.Metal) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// Update 更新金属
func (r *MetalRepository) Update(ctx context.Context, m *entity.Metal) error {
	return r.db.WithContext(ctx).Save(m).Error
}

// Delete 删除金属
func (r *MetalRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Metal{}).Error
}

// CountOrderItemRefs 按名称统计订单行项对金属的引用数
// order_items.metal_type 是名称匹配不是外键，引用检查只能在应用层显式进行
func (r *MetalRepository) CountOrderItemRefs(ctx context.Context, metalName string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("order_items").
		Where("metal_type = ?", metalName).Count(&count).Error
	return count, err
}
