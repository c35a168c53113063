package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/gemflow/internal/catalog/entity"
	"gorm.io/gorm"
)

// MaterialRepository 材质仓库
type MaterialRepository struct {
	db *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

// FindAll 材质列表（含金属，按换算系数升序）
func (r *MaterialRepository) FindAll(ctx context.Context, visibleOnly bool) ([]entity.Material, error) {
	var items []entity.Material
	query := r.db.WithContext(ctx).
		Preload("Metals", func(db *gorm.DB) *gorm.DB {
			return db.Order("conversion_ratio ASC")
		}).
		Order("name ASC")
	if visibleOnly {
		query = query.Where("is_visible = ?", true).
			Preload("Metals", "is_visible = ?", true)
	}
	err := query.Find(&items).Error
	return items, err
}

// FindByID 根据ID查找材质
func (r *MaterialRepository) FindByID(ctx context.Context, id string) (*entity.Material, error) {
	var m entity.Material
	err := r.db.WithContext(ctx).Preload("Metals").Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// FindByName 根据名称查找材质
func (r *MaterialRepository) FindByName(ctx context.Context, name string) (*entity.Material, error) {
	var m entity.Material
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Create 创建材质
func (r *MaterialRepository) Create(ctx context.Context, m *entity.Material) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// Update 更新材质
func (r *MaterialRepository) Update(ctx context.Context, m *entity.Material) error {
	return r.db.WithContext(ctx).Save(m).Error
}

// Delete 删除材质
func (r *MaterialRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Material{}).Error
}

// CountMetals 材质下的金属数量
func (r *MaterialRepository) CountMetals(ctx context.Context, materialID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Metal{}).
		Where("material_id = ?", materialID).Count(&count).Error
	return count, err
}
