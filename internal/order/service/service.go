package service

import (
	"context"
	"errors"

	"github.com/bitfantasy/gemflow/internal/cache"
	catalogrepo "github.com/bitfantasy/gemflow/internal/catalog/repository"
	"github.com/bitfantasy/gemflow/internal/order/repository"
	"github.com/bitfantasy/gemflow/internal/order/stage"
	"github.com/bitfantasy/gemflow/internal/order/weight"
)

// 业务规则错误 — 由处理器转为可操作的用户消息
var (
	ErrEmptyCart        = errors.New("order must contain at least one item")
	ErrReasonRequired   = errors.New("a reason is required for this stage")
	ErrItemNotInOrder   = errors.New("item does not belong to this order")
	ErrDeliveryTooSoon  = errors.New("requested delivery date is inside the minimum lead time")
	ErrUnknownStage     = errors.New("stage is not registered")
	ErrNothingToSplit   = errors.New("no items selected to split")
	ErrSplitWholeOrder  = errors.New("cannot split out every item of an order")
	ErrDistributorScope = errors.New("order belongs to another distributor")
)

// Services 订单域服务集合
type Services struct {
	Order     *OrderService
	Dashboard *DashboardService
	Report    *ReportService
}

// NewServices 创建订单域服务集合
// 目录域仓库用于装载金属/材质/工序快照，重量与状态全部实时推导
func NewServices(repos *repository.Repositories, catalogRepos *catalogrepo.Repositories, views *cache.Views, minLeadDays int) *Services {
	snap := &snapshotLoader{catalog: catalogRepos}
	return &Services{
		Order:     NewOrderService(repos.Order, catalogRepos, snap, views, minLeadDays),
		Dashboard: NewDashboardService(repos.Order, snap, views),
		Report:    NewReportService(repos.Order, snap),
	}
}

// snapshotLoader 请求期快照装载器
// 每次请求装载一次注册表与工序索引，之后全程传不可变快照
type snapshotLoader struct {
	catalog *catalogrepo.Repositories
}

// Registry 金属/材质注册表快照
func (s *snapshotLoader) Registry(ctx context.Context) (*weight.Registry, error) {
	metals, err := s.catalog.Metal.FindAll(ctx, false)
	if err != nil {
		return nil, err
	}
	materials, err := s.catalog.Material.FindAll(ctx, false)
	if err != nil {
		return nil, err
	}
	return weight.NewRegistry(metals, materials), nil
}

// Stages 工序定义快照
func (s *snapshotLoader) Stages(ctx context.Context) (*stage.Index, error) {
	defs, err := s.catalog.Stage.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return stage.NewIndex(defs), nil
}
