package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bitfantasy/gemflow/internal/catalog/entity"
	"gorm.io/gorm"
)

// ProductFilter 产品检索条件
type ProductFilter struct {
	Query      string   // 货号/标题模糊匹配
	CategoryID string
	MinWeight  *float64
	MaxWeight  *float64
	Tags       []string
	ActiveOnly bool
}

// ProductRepository 产品仓库
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// FindAll 产品检索
func (r *ProductRepository) FindAll(ctx context.Context, filter ProductFilter, page, pageSize int) ([]entity.Product, int64, error) {
	var items []entity.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Product{})

	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		query = query.Where("model_no ILIKE ? OR title ILIKE ?", like, like)
	}
	if filter.CategoryID != "" {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.MinWeight != nil {
		query = query.Where("base_weight >= ?", *filter.MinWeight)
	}
	if filter.MaxWeight != nil {
		query = query.Where("base_weight <= ?", *filter.MaxWeight)
	}
	if len(filter.Tags) > 0 {
		// 标签为逗号分隔字符串，子串匹配任意一个即命中
		conds := make([]string, 0, len(filter.Tags))
		args := make([]interface{}, 0, len(filter.Tags))
		for _, tag := range filter.Tags {
			conds = append(conds, "tags ILIKE ?")
			args = append(args, "%"+tag+"%")
		}
		query = query.Where(strings.Join(conds, " OR "), args...)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Category").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindAllForExport 全量产品（不分页），按货号排序
func (r *ProductRepository) FindAllForExport(ctx context.Context) ([]entity.Product, error) {
	var items []entity.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Order("model_no ASC").
		Find(&items).Error
	return items, err
}

// FindByID 根据ID查找产品
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	var p entity.Product
	err := r.db.WithContext(ctx).Preload("Category").Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByModelNo 根据货号查找产品
func (r *ProductRepository) FindByModelNo(ctx context.Context, modelNo string) (*entity.Product, error) {
	var p entity.Product
	err := r.db.WithContext(ctx).Where("model_no = ?", modelNo).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByIDs 批量查找产品
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []string) ([]entity.Product, error) {
	var items []entity.Product
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error
	return items, err
}

// Create 创建产品
func (r *ProductRepository) Create(ctx context.Context, p *entity.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// CreateBatch 批量创建产品（Excel导入）
func (r *ProductRepository) CreateBatch(ctx context.Context, products []entity.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&products).Error
}

// Update 更新产品
func (r *ProductRepository) Update(ctx context.Context, p *entity.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// Delete 删除产品
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Product{}).Error
}

// DistinctTags 活跃产品的标签全集（原始逗号分隔串，拆分去重在服务层）
func (r *ProductRepository) DistinctTags(ctx context.Context) ([]string, error) {
	var raw []string
	err := r.db.WithContext(ctx).Model(&entity.Product{}).
		Where("is_active = ? AND tags <> ''", true).
		Pluck("tags", &raw).Error
	return raw, err
}

// CountOrderItemRefs 产品被订单行项引用的数量
func (r *ProductRepository) CountOrderItemRefs(ctx context.Context, productID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("order_items").
		Where("product_id = ?", productID).Count(&count).Error
	return count, err
}
