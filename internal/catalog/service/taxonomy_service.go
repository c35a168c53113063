package service

import (
	"context"
	"strings"

	"github.com/bitfantasy/gemflow/internal/catalog/entity"
	"github.com/bitfantasy/gemflow/internal/catalog/repository"
	"github.com/google/uuid"
)

// TaxonomyService 类目与尺寸词表服务
type TaxonomyService struct {
	categoryRepo *repository.CategoryRepository
	sizeRepo     *repository.SizeRepository
}

func NewTaxonomyService(categoryRepo *repository.CategoryRepository, sizeRepo *repository.SizeRepository) *TaxonomyService {
	return &TaxonomyService{categoryRepo: categoryRepo, sizeRepo: sizeRepo}
}

// CreateCategoryRequest 创建类目请求
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,min=2"`
}

// CreateSizeRequest 创建尺寸请求
type CreateSizeRequest struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category"`
}

// ListCategories 类目列表
func (s *TaxonomyService) ListCategories(ctx context.Context) ([]entity.Category, error) {
	return s.categoryRepo.FindAll(ctx)
}

// CreateCategory 创建类目
func (s *TaxonomyService) CreateCategory(ctx context.Context, req *CreateCategoryRequest) (*entity.Category, error) {
	c := &entity.Category{
		ID:   uuid.New().String()[:32],
		Name: strings.TrimSpace(req.Name),
	}
	if err := s.categoryRepo.Create(ctx, c); err != nil {
		// 唯一索引冲突
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return c, nil
}

// DeleteCategory 删除类目，被产品引用时拒绝
func (s *TaxonomyService) DeleteCategory(ctx context.Context, id string) error {
	refs, err := s.categoryRepo.CountProductRefs(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return ErrInUse
	}
	return s.categoryRepo.Delete(ctx, id)
}

// ListSizes 尺寸列表
func (s *TaxonomyService) ListSizes(ctx context.Context) ([]entity.Size, error) {
	return s.sizeRepo.FindAll(ctx)
}

// CreateSize 创建尺寸
func (s *TaxonomyService) CreateSize(ctx context.Context, req *CreateSizeRequest) (*entity.Size, error) {
	category := req.Category
	if category == "" {
		category = "General"
	}
	sz := &entity.Size{
		ID:       uuid.New().String()[:32],
		Name:     strings.TrimSpace(req.Name),
		Category: category,
	}
	if err := s.sizeRepo.Create(ctx, sz); err != nil {
		return nil, err
	}
	return sz, nil
}

// DeleteSize 删除尺寸，被订单行项引用时拒绝
func (s *TaxonomyService) DeleteSize(ctx context.Context, id string) error {
	sz, err := s.sizeRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	refs, err := s.sizeRepo.CountOrderItemRefs(ctx, sz.Name)
	if err != nil {
		return err
	}
	if refs > 0 {
		return ErrInUse
	}
	return s.sizeRepo.Delete(ctx, id)
}
