package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bitfantasy/gemflow/internal/catalog/entity"
	"github.com/bitfantasy/gemflow/internal/catalog/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CollectionService 产品系列服务
type CollectionService struct {
	repo        *repository.CollectionRepository
	productRepo *repository.ProductRepository
}

func NewCollectionService(repo *repository.CollectionRepository, productRepo *repository.ProductRepository) *CollectionService {
	return &CollectionService{repo: repo, productRepo: productRepo}
}

// CreateCollectionRequest 创建系列请求
type CreateCollectionRequest struct {
	Name string `json:"name" binding:"required,min=2"`
}

// AssignProductsRequest 向系列分配产品请求
type AssignProductsRequest struct {
	ProductIDs []string `json:"product_ids" binding:"required,min=1"`
}

// List 系列列表，经销商只看可见的
func (s *CollectionService) List(ctx context.Context, visibleOnly bool) ([]entity.Collection, error) {
	return s.repo.FindAll(ctx, visibleOnly)
}

// Get 系列详情（带产品）
func (s *CollectionService) Get(ctx context.Context, id string) (*entity.Collection, error) {
	return s.repo.FindByID(ctx, id)
}

// Create 创建系列
func (s *CollectionService) Create(ctx context.Context, req *CreateCollectionRequest) (*entity.Collection, error) {
	c := &entity.Collection{
		ID:        uuid.New().String()[:32],
		Name:      strings.TrimSpace(req.Name),
		IsVisible: true,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return c, nil
}

// SetVisibility 切换系列对经销商的可见性
func (s *CollectionService) SetVisibility(ctx context.Context, id string, visible bool) (*entity.Collection, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.IsVisible = visible
	c.Products = nil
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete 删除系列，产品关联一并清除（分组不构成硬引用）
func (s *CollectionService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// AssignProducts 向系列分配产品，全部ID必须存在
func (s *CollectionService) AssignProducts(ctx context.Context, id string, req *AssignProductsRequest) (*entity.Collection, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	products, err := s.productRepo.FindByIDs(ctx, req.ProductIDs)
	if err != nil {
		return nil, err
	}
	if len(products) != len(req.ProductIDs) {
		return nil, repository.ErrNotFound
	}
	if err := s.repo.AddProducts(ctx, id, products); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// RemoveProduct 从系列移除产品
func (s *CollectionService) RemoveProduct(ctx context.Context, id, productID string) (*entity.Collection, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.RemoveProduct(ctx, id, productID); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}
