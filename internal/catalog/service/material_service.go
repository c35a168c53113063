package service

import (
	"context"
	"errors"

	"github.com/bitfantasy/gemflow/internal/cache"
	"github.com/bitfantasy/gemflow/internal/catalog/entity"
	"github.com/bitfantasy/gemflow/internal/catalog/repository"
	"github.com/google/uuid"
)

// MaterialService 材质服务
type MaterialService struct {
	repo      *repository.MaterialRepository
	metalRepo *repository.MetalRepository
	views     *cache.Views
}

func NewMaterialService(repo *repository.MaterialRepository, metalRepo *repository.MetalRepository, views *cache.Views) *MaterialService {
	return &MaterialService{repo: repo, metalRepo: metalRepo, views: views}
}

// CreateMaterialRequest 创建材质请求
type CreateMaterialRequest struct {
	Name           string  `json:"name" binding:"required"`
	MinOrderWeight float64 `json:"min_order_weight"`
}

// UpdateMaterialRequest 更新材质请求
type UpdateMaterialRequest struct {
	Name           *string  `json:"name"`
	MinOrderWeight *float64 `json:"min_order_weight"`
}

// List 材质列表
func (s *MaterialService) List(ctx context.Context, visibleOnly bool) ([]entity.Material, error) {
	return s.repo.FindAll(ctx, visibleOnly)
}

// Get 材质详情
func (s *MaterialService) Get(ctx context.Context, id string) (*entity.Material, error) {
	return s.repo.FindByID(ctx, id)
}

// Create 创建材质，名称重复时拒绝
func (s *MaterialService) Create(ctx context.Context, req *CreateMaterialRequest) (*entity.Material, error) {
	if _, err := s.repo.FindByName(ctx, req.Name); err == nil {
		return nil, ErrDuplicateName
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	m := &entity.Material{
		ID:             uuid.New().String()[:32],
		Name:           req.Name,
		MinOrderWeight: req.MinOrderWeight,
		IsVisible:      true,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	s.views.InvalidateAll(ctx)
	return m, nil
}

// Update 更新材质
func (s *MaterialService) Update(ctx context.Context, id string, req *UpdateMaterialRequest) (*entity.Material, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != m.Name {
		if _, err := s.repo.FindByName(ctx, *req.Name); err == nil {
			return nil, ErrDuplicateName
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		m.Name = *req.Name
	}
	if req.MinOrderWeight != nil {
		m.MinOrderWeight = *req.MinOrderWeight
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	s.views.InvalidateAll(ctx)
	return m, nil
}

// ToggleVisibility 切换材质可见性
func (s *MaterialService) ToggleVisibility(ctx context.Context, id string) (*entity.Material, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.IsVisible = !m.IsVisible
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Delete 删除材质
// 名下任何金属被订单行项按名称引用时拒绝（无外键约束，必须显式检查）
func (s *MaterialService) Delete(ctx context.Context, id string) error {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	for _, metal := range m.Metals {
		refs, err := s.metalRepo.CountOrderItemRefs(ctx, metal.Name)
		if err != nil {
			return err
		}
		if refs > 0 {
			return ErrInUse
		}
	}

	for _, metal := range m.Metals {
		if err := s.metalRepo.Delete(ctx, metal.ID); err != nil {
			return err
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.views.InvalidateAll(ctx)
	return nil
}
