package service

import (
	"context"
	"errors"

	"github.com/bitfantasy/gemflow/internal/cache"
	"github.com/bitfantasy/gemflow/internal/catalog/entity"
	"github.com/bitfantasy/gemflow/internal/catalog/repository"
	"github.com/google/uuid"
)

// StageService 工序定义服务
type StageService struct {
	repo  *repository.StageRepository
	views *cache.Views
}

func NewStageService(repo *repository.StageRepository, views *cache.Views) *StageService {
	return &StageService{repo: repo, views: views}
}

// CreateStageRequest 创建工序请求
type CreateStageRequest struct {
	Name           string `json:"name" binding:"required"`
	Type           string `json:"type" binding:"required"`
	RequiresReason bool   `json:"requires_reason"`
	Reasons        string `json:"reasons"`
}

// UpdateStageRequest 更新工序请求
type UpdateStageRequest struct {
	Name           *string `json:"name"`
	Type           *string `json:"type"`
	RequiresReason *bool   `json:"requires_reason"`
	Reasons        *string `json:"reasons"`
}

// List 工序列表（序号升序）
func (s *StageService) List(ctx context.Context) ([]entity.StageDefinition, error) {
	return s.repo.FindAll(ctx)
}

// Create 创建工序，序号自动取 当前数量+1（只追加，调序走 Reorder）
func (s *StageService) Create(ctx context.Context, req *CreateStageRequest) (*entity.StageDefinition, error) {
	if !entity.ValidStageType(req.Type) {
		return nil, ErrInvalidStageType
	}
	if _, err := s.repo.FindByName(ctx, req.Name); err == nil {
		return nil, ErrDuplicateName
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	def := &entity.StageDefinition{
		ID:             uuid.New().String()[:32],
		Name:           req.Name,
		Type:           req.Type,
		Sequence:       int(count) + 1,
		RequiresReason: req.RequiresReason,
	}
	if req.RequiresReason {
		def.Reasons = req.Reasons
	}
	if err := s.repo.Create(ctx, def); err != nil {
		return nil, err
	}
	s.views.InvalidateAll(ctx)
	return def, nil
}

// Update 更新工序
func (s *StageService) Update(ctx context.Context, id string, req *UpdateStageRequest) (*entity.StageDefinition, error) {
	def, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != def.Name {
		if _, err := s.repo.FindByName(ctx, *req.Name); err == nil {
			return nil, ErrDuplicateName
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		def.Name = *req.Name
	}
	if req.Type != nil {
		if !entity.ValidStageType(*req.Type) {
			return nil, ErrInvalidStageType
		}
		def.Type = *req.Type
	}
	if req.RequiresReason != nil {
		def.RequiresReason = *req.RequiresReason
	}
	if req.Reasons != nil {
		def.Reasons = *req.Reasons
	}
	if !def.RequiresReason {
		def.Reasons = ""
	}

	if err := s.repo.Update(ctx, def); err != nil {
		return nil, err
	}
	s.views.InvalidateAll(ctx)
	return def, nil
}

// Delete 删除工序
// 被在途订单行项引用时拒绝：行项留着悬空工序名会让进度贡献归零、
// 状态推导退回名称兜底，宁可要求先迁移行项
func (s *StageService) Delete(ctx context.Context, id string) error {
	def, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	refs, err := s.repo.CountOrderItemRefs(ctx, def.Name)
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

// Reorder 按给定ID顺序重写全部序号为 1..N
func (s *StageService) Reorder(ctx context.Context, orderedIDs []string) error {
	if err := s.repo.Reorder(ctx, orderedIDs); err != nil {
		return err
	}
	s.views.InvalidateAll(ctx)
	return nil
}
