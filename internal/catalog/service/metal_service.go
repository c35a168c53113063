package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bitfantasy/gemflow/internal/cache"
	"github.com/bitfantasy/gemflow/internal/catalog/entity"
	"github.com/bitfantasy/gemflow/internal/catalog/repository"
	"github.com/google/uuid"
)

// MetalService 金属服务
type MetalService struct {
	repo         *repository.MetalRepository
	materialRepo *repository.MaterialRepository
	views        *cache.Views
}

func NewMetalService(repo *repository.MetalRepository, materialRepo *repository.MaterialRepository, views *cache.Views) *MetalService {
	return &MetalService{repo: repo, materialRepo: materialRepo, views: views}
}

// CreateMetalRequest 创建金属请求
type CreateMetalRequest struct {
	Name            string  `json:"name" binding:"required"`
	MaterialID      string  `json:"material_id" binding:"required"`
	ConversionRatio float64 `json:"conversion_ratio" binding:"required,gt=0"`
	Purity          float64 `json:"purity" binding:"gte=0,lte=100"`
}

// UpdateMetalRequest 更新金属请求
type UpdateMetalRequest struct {
	Name            *string  `json:"name"`
	ConversionRatio *float64 `json:"conversion_ratio"`
	Purity          *float64 `json:"purity"`
}

// List 金属列表
func (s *MetalService) List(ctx context.Context, visibleOnly bool) ([]entity.Metal, error) {
	return s.repo.FindAll(ctx, visibleOnly)
}

// Create 创建金属
// 换算系数为1.0时执行基准金属唯一性硬约束：同材质下已有基准金属则拒绝
func (s *MetalService) Create(ctx context.Context, req *CreateMetalRequest) (*entity.Metal, error) {
	if _, err := s.materialRepo.FindByID(ctx, req.MaterialID); err != nil {
		return nil, fmt.Errorf("material lookup: %w", err)
	}

	if _, err := s.repo.FindByName(ctx, req.Name); err == nil {
		return nil, ErrDuplicateName
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if req.ConversionRatio == entity.BaseRatio {
		if _, err := s.repo.FindBase(ctx, req.MaterialID, ""); err == nil {
			return nil, ErrBaseMetalConflict
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	m := &entity.Metal{
		ID:              uuid.New().String()[:32],
		Name:            req.Name,
		MaterialID:      req.MaterialID,
		ConversionRatio: req.ConversionRatio,
		Purity:          req.Purity,
		IsVisible:       true,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	s.views.InvalidateAll(ctx)
	return s.repo.FindByID(ctx, m.ID)
}

// Update 更新金属
// 改为系数1.0时同样检查基准冲突（排除自身）
// 注意：改名会使历史订单行项的名称匹配失效，由未知金属兜底策略接住
func (s *MetalService) Update(ctx context.Context, id string, req *UpdateMetalRequest) (*entity.Metal, error) {
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

	if req.ConversionRatio != nil {
		if *req.ConversionRatio == entity.BaseRatio && m.ConversionRatio != entity.BaseRatio {
			if _, err := s.repo.FindBase(ctx, m.MaterialID, m.ID); err == nil {
				return nil, ErrBaseMetalConflict
			} else if !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
		}
		m.ConversionRatio = *req.ConversionRatio
	}
	if req.Purity != nil {
		m.Purity = *req.Purity
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	s.views.InvalidateAll(ctx)
	return m, nil
}

// ToggleVisibility 切换金属可见性
func (s *MetalService) ToggleVisibility(ctx context.Context, id string) (*entity.Metal, error) {
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

// Delete 删除金属，被订单行项按名称引用时拒绝
func (s *MetalService) Delete(ctx context.Context, id string) error {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	refs, err := s.repo.CountOrderItemRefs(ctx, m.Name)
	if err != nil {
		return err
	}
	if refs > 0 {
		return ErrInUse
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.views.InvalidateAll(ctx)
	return nil
}
