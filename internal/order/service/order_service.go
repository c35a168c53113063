package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/gemflow/internal/cache"
	catalog "github.com/bitfantasy/gemflow/internal/catalog/entity"
	catalogrepo "github.com/bitfantasy/gemflow/internal/catalog/repository"
	"github.com/bitfantasy/gemflow/internal/order/entity"
	"github.com/bitfantasy/gemflow/internal/order/repository"
	"github.com/bitfantasy/gemflow/internal/order/stage"
	"github.com/bitfantasy/gemflow/internal/order/weight"
	"github.com/google/uuid"
)

// OrderService 订单服务
type OrderService struct {
	repo        *repository.OrderRepository
	catalog     *catalogrepo.Repositories
	snap        *snapshotLoader
	views       *cache.Views
	minLeadDays int
}

func NewOrderService(repo *repository.OrderRepository, catalog *catalogrepo.Repositories, snap *snapshotLoader, views *cache.Views, minLeadDays int) *OrderService {
	return &OrderService{repo: repo, catalog: catalog, snap: snap, views: views, minLeadDays: minLeadDays}
}

// SubmitItemRequest 提交订单的单个行项
type SubmitItemRequest struct {
	ProductID    string `json:"product_id" binding:"required"`
	MetalType    string `json:"metal_type" binding:"required"`
	MetalColor   string `json:"metal_color"`
	Size         string `json:"size"`
	Quantity     int    `json:"quantity" binding:"required,gt=0"`
	Instructions string `json:"instructions"`
}

// SubmitOrderRequest 提交订单请求
type SubmitOrderRequest struct {
	DistributorID         string              `json:"distributor_id" binding:"required"`
	Items                 []SubmitItemRequest `json:"items" binding:"required"`
	InstructionNote       string              `json:"instruction_note"`
	RequestedDeliveryDate string              `json:"requested_delivery_date"` // 格式 2006-01-02
}

// TransitionItemRequest 行项工序迁移请求
type TransitionItemRequest struct {
	Stage  string `json:"stage" binding:"required"`
	Reason string `json:"reason"`
}

// SplitOrderRequest 拆单请求
type SplitOrderRequest struct {
	ItemIDs []string `json:"item_ids" binding:"required"`
}

// UpdateItemRequest 行项明细更新请求
type UpdateItemRequest struct {
	MetalType    *string `json:"metal_type"`
	MetalColor   *string `json:"metal_color"`
	Size         *string `json:"size"`
	Quantity     *int    `json:"quantity"`
	Instructions *string `json:"instructions"`
}

// ItemView 行项视图：明细 + 按当前注册表实时计算的重量
type ItemView struct {
	entity.OrderItem
	Weight        weight.Weight `json:"weight"`
	StageSequence int           `json:"stage_sequence"`
}

// OrderView 订单视图：订单 + 推导状态、进度与按材质重量汇总
type OrderView struct {
	entity.Order
	Items          []ItemView               `json:"items"`
	Progress       int                      `json:"progress"`
	MaterialTotals map[string]weight.Bucket `json:"material_totals"`
}

// ListWithCADFiles 含CAD文件产品的订单，供图纸浏览页使用
func (s *OrderService) ListWithCADFiles(ctx context.Context, query string) ([]entity.Order, error) {
	return s.repo.FindWithCADFiles(ctx, query)
}

// Submit 经销商提交购物车为订单
// 校验顺序：非空 → 交期提前量 → 起订重量；全部通过后单事务落库
func (s *OrderService) Submit(ctx context.Context, req *SubmitOrderRequest) (*OrderView, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}

	var deliveryDate *time.Time
	if req.RequestedDeliveryDate != "" {
		d, err := time.Parse("2006-01-02", req.RequestedDeliveryDate)
		if err != nil {
			return nil, fmt.Errorf("invalid delivery date: %w", err)
		}
		// 按日期比较，时刻无关
		earliest := time.Now().AddDate(0, 0, s.minLeadDays)
		earliest = time.Date(earliest.Year(), earliest.Month(), earliest.Day(), 0, 0, 0, 0, time.UTC)
		if d.Before(earliest) {
			return nil, ErrDeliveryTooSoon
		}
		deliveryDate = &d
	}

	productIDs := make([]string, 0, len(req.Items))
	for _, it := range req.Items {
		productIDs = append(productIDs, it.ProductID)
	}
	products, err := s.catalog.Product.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	productByID := make(map[string]float64, len(products))
	for _, p := range products {
		productByID[p.ID] = p.BaseWeight
	}

	reg, err := s.snap.Registry(ctx)
	if err != nil {
		return nil, err
	}

	cart := make([]weight.Line, 0, len(req.Items))
	for _, it := range req.Items {
		base, ok := productByID[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %s: %w", it.ProductID, catalogrepo.ErrNotFound)
		}
		cart = append(cart, weight.Line{
			ProductID:  it.ProductID,
			MetalType:  it.MetalType,
			Quantity:   it.Quantity,
			BaseWeight: base,
		})
	}
	if v := weight.ValidateMinimumWeight(cart, reg); v != nil {
		return nil, v
	}

	orderNumber, err := s.repo.GenerateOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	order := &entity.Order{
		ID:                    uuid.New().String()[:32],
		OrderNumber:           orderNumber,
		DistributorID:         req.DistributorID,
		Status:                entity.OrderStatusPending,
		InstructionNote:       req.InstructionNote,
		RequestedDeliveryDate: deliveryDate,
	}
	items := make([]entity.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, entity.OrderItem{
			ID:           uuid.New().String()[:32],
			ProductID:    it.ProductID,
			MetalType:    it.MetalType,
			MetalColor:   it.MetalColor,
			Size:         it.Size,
			Quantity:     it.Quantity,
			Instructions: it.Instructions,
			Stage:        entity.OrderStatusPending,
		})
	}
	audit := &entity.OrderStageAudit{
		ID:        uuid.New().String()[:32],
		Stage:     entity.OrderStatusPending,
		Reason:    "Initial Submission",
		ChangedBy: req.DistributorID,
	}

	if err := s.repo.CreateWithItems(ctx, order, items, audit); err != nil {
		return nil, err
	}
	s.views.InvalidateAll(ctx)

	return s.Get(ctx, order.ID, "")
}

// List 订单列表，distributorID 非空时强制只看自己的订单
func (s *OrderService) List(ctx context.Context, filter repository.OrderFilter, distributorID string, page, pageSize int) ([]OrderView, int64, error) {
	if distributorID != "" {
		filter.DistributorID = distributorID
	}
	orders, total, err := s.repo.FindAll(ctx, filter, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	reg, err := s.snap.Registry(ctx)
	if err != nil {
		return nil, 0, err
	}
	idx, err := s.snap.Stages(ctx)
	if err != nil {
		return nil, 0, err
	}

	views := make([]OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, buildView(&orders[i], reg, idx))
	}
	return views, total, nil
}

// Get 订单详情，distributorID 非空时校验归属
func (s *OrderService) Get(ctx context.Context, id, distributorID string) (*OrderView, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if distributorID != "" && order.DistributorID != distributorID {
		return nil, ErrDistributorScope
	}

	reg, err := s.snap.Registry(ctx)
	if err != nil {
		return nil, err
	}
	idx, err := s.snap.Stages(ctx)
	if err != nil {
		return nil, err
	}
	v := buildView(order, reg, idx)
	return &v, nil
}

// TransitionItem 行项工序迁移
// 目标工序要求原因而未携带时拒绝；迁移后订单状态按全部行项重新推导，
// 行项更新、状态重算和审计在一个事务中提交
func (s *OrderService) TransitionItem(ctx context.Context, orderID, itemID string, req *TransitionItemRequest, actor string) (*OrderView, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var target *entity.OrderItem
	for i := range order.Items {
		if order.Items[i].ID == itemID {
			target = &order.Items[i]
			break
		}
	}
	if target == nil {
		return nil, ErrItemNotInOrder
	}

	idx, err := s.snap.Stages(ctx)
	if err != nil {
		return nil, err
	}
	// 目标工序必须已注册，或是内置状态名（历史流程兼容）
	if idx.Resolve(req.Stage).Def == nil && !catalog.ValidStageType(req.Stage) {
		return nil, ErrUnknownStage
	}
	if idx.ReasonRequired(req.Stage) && req.Reason == "" {
		return nil, ErrReasonRequired
	}

	stages := make([]string, 0, len(order.Items))
	for _, it := range order.Items {
		if it.ID == itemID {
			stages = append(stages, req.Stage)
		} else {
			stages = append(stages, it.Stage)
		}
	}
	newStatus := idx.DeriveOrderStatus(stages)

	audit := &entity.OrderStageAudit{
		ID:        uuid.New().String()[:32],
		OrderID:   orderID,
		Stage:     req.Stage,
		Reason:    req.Reason,
		ChangedBy: actor,
	}
	if audit.Reason == "" {
		audit.Reason = fmt.Sprintf("Auto-updated: Item(s) moved to %s", req.Stage)
	}

	if err := s.repo.ApplyTransition(ctx, itemID, req.Stage, req.Reason, orderID, newStatus, audit); err != nil {
		return nil, err
	}
	s.views.InvalidateAll(ctx)

	return s.Get(ctx, orderID, "")
}

// SplitOrder 拆单：把选中的行项迁入新订单
// 新订单初始为 PENDING，继承交期与经销商；原订单状态按剩余行项重算
func (s *OrderService) SplitOrder(ctx context.Context, orderID string, req *SplitOrderRequest, actor string) (*OrderView, error) {
	if len(req.ItemIDs) == 0 {
		return nil, ErrNothingToSplit
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	selected := make(map[string]bool, len(req.ItemIDs))
	for _, id := range req.ItemIDs {
		selected[id] = true
	}
	owned := make(map[string]bool, len(order.Items))
	for _, it := range order.Items {
		owned[it.ID] = true
	}
	for _, id := range req.ItemIDs {
		if !owned[id] {
			return nil, ErrItemNotInOrder
		}
	}
	if len(selected) == len(order.Items) {
		return nil, ErrSplitWholeOrder
	}

	orderNumber, err := s.repo.GenerateOrderNumber(ctx)
	if err != nil {
		return nil, err
	}
	newOrder := &entity.Order{
		ID:                    uuid.New().String()[:32],
		OrderNumber:           orderNumber,
		DistributorID:         order.DistributorID,
		Status:                entity.OrderStatusPending,
		InstructionNote:       fmt.Sprintf("Split from %s", order.OrderNumber),
		RequestedDeliveryDate: order.RequestedDeliveryDate,
	}
	if err := s.repo.SplitInto(ctx, newOrder, req.ItemIDs, orderID); err != nil {
		return nil, err
	}

	// 两个订单的状态都按各自剩余/迁入行项重算
	if err := s.repairStatus(ctx, orderID, actor, fmt.Sprintf("Split into %s", newOrder.OrderNumber)); err != nil {
		return nil, err
	}
	if err := s.repairStatus(ctx, newOrder.ID, actor, fmt.Sprintf("Split from %s", order.OrderNumber)); err != nil {
		return nil, err
	}
	s.views.InvalidateAll(ctx)

	return s.Get(ctx, newOrder.ID, "")
}

// UpdateItemDetails 更新行项明细（金属/颜色/尺寸/数量/备注）
func (s *OrderService) UpdateItemDetails(ctx context.Context, orderID, itemID string, req *UpdateItemRequest) (*OrderView, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var target *entity.OrderItem
	for i := range order.Items {
		if order.Items[i].ID == itemID {
			target = &order.Items[i]
			break
		}
	}
	if target == nil {
		return nil, ErrItemNotInOrder
	}

	if req.MetalType != nil {
		target.MetalType = *req.MetalType
	}
	if req.MetalColor != nil {
		target.MetalColor = *req.MetalColor
	}
	if req.Size != nil {
		target.Size = *req.Size
	}
	if req.Quantity != nil {
		if *req.Quantity <= 0 {
			return nil, errors.New("quantity must be positive")
		}
		target.Quantity = *req.Quantity
	}
	if req.Instructions != nil {
		target.Instructions = *req.Instructions
	}

	item := *target
	item.Product = nil
	if err := s.repo.UpdateItemDetails(ctx, &item); err != nil {
		return nil, err
	}
	s.views.InvalidateAll(ctx)

	return s.Get(ctx, orderID, "")
}

// RepairOrderStatus 按当前行项工序重算并回写订单状态
// 存储的状态只是推导结果的缓存，任何漂移都可由此修复
func (s *OrderService) RepairOrderStatus(ctx context.Context, orderID, actor string) (*OrderView, error) {
	if err := s.repairStatus(ctx, orderID, actor, "Status recomputed from item stages"); err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID, "")
}

func (s *OrderService) repairStatus(ctx context.Context, orderID, actor, note string) error {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	idx, err := s.snap.Stages(ctx)
	if err != nil {
		return err
	}

	stages := make([]string, 0, len(order.Items))
	for _, it := range order.Items {
		stages = append(stages, it.Stage)
	}
	newStatus := idx.DeriveOrderStatus(stages)
	if newStatus == order.Status {
		return nil
	}

	audit := &entity.OrderStageAudit{
		ID:        uuid.New().String()[:32],
		OrderID:   orderID,
		Stage:     newStatus,
		Reason:    note,
		ChangedBy: actor,
	}
	return s.repo.UpdateStatus(ctx, orderID, newStatus, audit)
}

// buildView 订单视图组装：行项重量、进度与按材质汇总全部实时计算
func buildView(order *entity.Order, reg *weight.Registry, idx *stage.Index) OrderView {
	lines := LinesFromOrder(order)

	items := make([]ItemView, 0, len(order.Items))
	for i := range order.Items {
		items = append(items, ItemView{
			OrderItem:     order.Items[i],
			Weight:        weight.Compute(lines[i], reg),
			StageSequence: idx.Resolve(order.Items[i].Stage).Sequence(),
		})
	}

	stages := make([]string, 0, len(order.Items))
	for _, it := range order.Items {
		stages = append(stages, it.Stage)
	}

	totals := weight.Aggregate(lines, weight.GroupByMaterial, reg)
	for k, b := range totals {
		b.Gross = weight.Round2(b.Gross)
		b.Pure = weight.Round2(b.Pure)
		totals[k] = b
	}

	view := OrderView{
		Order:          *order,
		Items:          items,
		Progress:       idx.Progress(stages),
		MaterialTotals: totals,
	}
	view.Status = idx.DeriveOrderStatus(stages)
	return view
}

// LinesFromOrder 订单展开为重量引擎的扁平行项
func LinesFromOrder(order *entity.Order) []weight.Line {
	lines := make([]weight.Line, 0, len(order.Items))
	for _, it := range order.Items {
		l := weight.Line{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			DistributorID: order.DistributorID,
			ProductID:     it.ProductID,
			MetalType:     it.MetalType,
			MetalColor:    it.MetalColor,
			Stage:         it.Stage,
			Quantity:      it.Quantity,
			CreatedAt:     order.CreatedAt,
		}
		if order.Distributor != nil {
			l.DistributorName = order.Distributor.CompanyName
		}
		if it.Product != nil {
			l.ModelNo = it.Product.ModelNo
			l.BaseWeight = it.Product.BaseWeight
			l.CategoryID = it.Product.CategoryID
			if it.Product.Category != nil {
				l.CategoryName = it.Product.Category.Name
			}
		}
		lines = append(lines, l)
	}
	return lines
}

// LinesFromOrders 多订单展开
func LinesFromOrders(orders []entity.Order) []weight.Line {
	var lines []weight.Line
	for i := range orders {
		lines = append(lines, LinesFromOrder(&orders[i])...)
	}
	return lines
}
