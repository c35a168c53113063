package service

import (
	"context"
	"errors"

	"github.com/bitfantasy/gemflow/internal/catalog/entity"
	"github.com/bitfantasy/gemflow/internal/catalog/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DistributorService 经销商档案服务
type DistributorService struct {
	repo *repository.DistributorRepository
}

func NewDistributorService(repo *repository.DistributorRepository) *DistributorService {
	return &DistributorService{repo: repo}
}

// CreateDistributorRequest 创建经销商请求
type CreateDistributorRequest struct {
	CompanyName string `json:"company_name" binding:"required"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email" binding:"required,email"`
	Phone       string `json:"phone"`
}

// UpdateDistributorRequest 更新经销商请求
type UpdateDistributorRequest struct {
	CompanyName *string `json:"company_name"`
	ContactName *string `json:"contact_name"`
	Phone       *string `json:"phone"`
	Status      *string `json:"status"`
}

// List 经销商列表
func (s *DistributorService) List(ctx context.Context, search string) ([]entity.Distributor, error) {
	return s.repo.FindAll(ctx, search)
}

// Get 经销商详情
func (s *DistributorService) Get(ctx context.Context, id string) (*entity.Distributor, error) {
	return s.repo.FindByID(ctx, id)
}

// Create 创建经销商，邮箱唯一
func (s *DistributorService) Create(ctx context.Context, req *CreateDistributorRequest) (*entity.Distributor, error) {
	d := &entity.Distributor{
		ID:          uuid.New().String()[:32],
		CompanyName: req.CompanyName,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		Status:      entity.DistributorActive,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return d, nil
}

// Update 更新经销商
func (s *DistributorService) Update(ctx context.Context, id string, req *UpdateDistributorRequest) (*entity.Distributor, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.CompanyName != nil {
		d.CompanyName = *req.CompanyName
	}
	if req.ContactName != nil {
		d.ContactName = *req.ContactName
	}
	if req.Phone != nil {
		d.Phone = *req.Phone
	}
	if req.Status != nil {
		if *req.Status != entity.DistributorActive && *req.Status != entity.DistributorDisabled {
			return nil, errors.New("invalid distributor status")
		}
		d.Status = *req.Status
	}
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// SetStatus 启用/停用经销商
// 停用只阻断登录与下单，历史订单保持可见
func (s *DistributorService) SetStatus(ctx context.Context, id, status string) (*entity.Distributor, error) {
	return s.Update(ctx, id, &UpdateDistributorRequest{Status: &status})
}
