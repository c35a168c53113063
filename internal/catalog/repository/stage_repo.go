package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/gemflow/internal/catalog/entity"
	"gorm.io/gorm"
)

// StageRepository 工序定义仓库
type StageRepository struct {
	db *gorm.DB
}

func NewStageRepository(db *gorm.DB) *StageRepository {
	return &StageRepository{db: db}
}

// FindAll 工序列表，按序号升序
func (r *StageRepository) FindAll(ctx context.Context) ([]entity.StageDefinition, error) {
	var items []entity.StageDefinition
	err := r.db.WithContext(ctx).Order("sequence ASC").Find(&items).Error
	return items, err
}

// FindByID 根据ID查找工序
func (r *StageRepository) FindByID(ctx context.Context, id string) (*entity.StageDefinition, error) {
	var s entity.StageDefinition
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// FindByName 根据名称查找工序
func (r *StageRepository) FindByName(ctx context.Context, name string) (*entity.StageDefinition, error) {
	var s entity.StageDefinition
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Count 工序总数
func (r *StageRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.StageDefinition{}).Count(&count).Error
	return count, err
}

// Create 创建工序
func (r *StageRepository) Create(ctx context.Context, s *entity.StageDefinition) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// Update 更新工序
func (r *StageRepository) Update(ctx context.Context, s *entity.StageDefinition) error {
	return r.db.WithContext(ctx).Save(s).Error
}

// Delete 删除工序
func (r *StageRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.StageDefinition{}).Error
}

// Reorder 按给定ID顺序重写全部序号为 1..N，单事务
func (r *StageRepository) Reorder(ctx context.Context, orderedIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range orderedIDs {
			result := tx.Model(&entity.StageDefinition{}).
				Where("id = ?", id).
				Update("sequence", i+1)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrNotFound
			}
		}
		return nil
	})
}

// CountOrderItemRefs 按名称统计订单行项对工序的引用数
func (r *StageRepository) CountOrderItemRefs(ctx context.Context, stageName string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("order_items").
		Where("stage = ?", stageName).Count(&count).Error
	return count, err
}
