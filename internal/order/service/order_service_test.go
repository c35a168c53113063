package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bitfantasy/gemflow/internal/cache"
	catalog "github.com/bitfantasy/gemflow/internal/catalog/entity"
	catalogrepo "github.com/bitfantasy/gemflow/internal/catalog/repository"
	"github.com/bitfantasy/gemflow/internal/order/entity"
	"github.com/bitfantasy/gemflow/internal/order/repository"
	"github.com/bitfantasy/gemflow/internal/order/weight"
	"github.com/bitfantasy/gemflow/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type orderTestEnv struct {
	db          *gorm.DB
	svc         *OrderService
	distributor *catalog.Distributor
	product     *catalog.Product
}

func setupOrderTest(t *testing.T) *orderTestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	catalogRepos := catalogrepo.NewRepositories(db)
	orderRepos := repository.NewRepositories(db)
	views := cache.NewViews(nil, zap.NewNop(), 0)
	services := NewServices(orderRepos, catalogRepos, views, 12)

	gold := testutil.SeedMaterial(t, db, "Gold", 50)
	testutil.SeedMetal(t, db, gold.ID, "18K Gold", 1.0, 75)
	testutil.SeedMetal(t, db, gold.ID, "22K Gold", 1.2, 91.6)
	silver := testutil.SeedMaterial(t, db, "Silver", 0)
	testutil.SeedMetal(t, db, silver.ID, "925 Silver", 0.6, 0)

	testutil.SeedStage(t, db, "PENDING", catalog.StageTypePending, 1, false)
	testutil.SeedStage(t, db, "Casting", catalog.StageTypeStandard, 2, false)
	testutil.SeedStage(t, db, "Quality Check", catalog.StageTypeStandard, 3, false)
	testutil.SeedStage(t, db, "On Hold", catalog.StageTypeOnHold, 4, true)
	testutil.SeedStage(t, db, "Delivered", catalog.StageTypeCompleted, 5, false)

	category := testutil.SeedCategory(t, db, "Rings")
	product := testutil.SeedProduct(t, db, "RNG-0001", category.ID, 10)
	distributor := testutil.SeedDistributor(t, db, "Golden Star Trading")

	return &orderTestEnv{
		db:          db,
		svc:         services.Order,
		distributor: distributor,
		product:     product,
	}
}

func (e *orderTestEnv) submit(t *testing.T, quantity int) *OrderView {
	t.Helper()
	view, err := e.svc.Submit(context.Background(), &SubmitOrderRequest{
		DistributorID: e.distributor.ID,
		Items: []SubmitItemRequest{
			{ProductID: e.product.ID, MetalType: "18K Gold", Quantity: quantity},
		},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	return view
}

func TestSubmitEmptyCart(t *testing.T) {
	env := setupOrderTest(t)
	_, err := env.svc.Submit(context.Background(), &SubmitOrderRequest{
		DistributorID: env.distributor.ID,
	})
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestSubmitMinimumWeightViolation(t *testing.T) {
	env := setupOrderTest(t)

	// 10g × 1.0 × 4 = 40g < 50g 起订
	_, err := env.svc.Submit(context.Background(), &SubmitOrderRequest{
		DistributorID: env.distributor.ID,
		Items: []SubmitItemRequest{
			{ProductID: env.product.ID, MetalType: "18K Gold", Quantity: 4},
		},
	})
	var violation *weight.MinWeightViolation
	if !errors.As(err, &violation) {
		t.Fatalf("expected MinWeightViolation, got %v", err)
	}
	if violation.Material != "Gold" || violation.Required != 50 {
		t.Errorf("unexpected violation: %+v", violation)
	}

	// 校验失败不留半截订单
	var count int64
	env.db.Model(&entity.Order{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no orders persisted, found %d", count)
	}
}

func TestSubmitMinimumWeightBoundary(t *testing.T) {
	env := setupOrderTest(t)

	// 10g × 1.0 × 5 = 50g，等于起订重量应通过
	view := env.submit(t, 5)
	if view.Status != entity.OrderStatusPending {
		t.Errorf("expected PENDING, got %s", view.Status)
	}
	if !strings.HasPrefix(view.OrderNumber, "ORD-") {
		t.Errorf("unexpected order number %s", view.OrderNumber)
	}
	if len(view.Audits) != 1 || view.Audits[0].Reason != "Initial Submission" {
		t.Errorf("expected initial audit entry, got %+v", view.Audits)
	}
}

func TestSubmitAccumulatesAcrossItems(t *testing.T) {
	env := setupOrderTest(t)

	// 单行不足50g，但同材质两行合计 10×1.0×3 + 10×1.2×2 = 54g
	view, err := env.svc.Submit(context.Background(), &SubmitOrderRequest{
		DistributorID: env.distributor.ID,
		Items: []SubmitItemRequest{
			{ProductID: env.product.ID, MetalType: "18K Gold", Quantity: 3},
			{ProductID: env.product.ID, MetalType: "22K Gold", Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if got := view.MaterialTotals["Gold"].Gross; got != 54 {
		t.Errorf("expected 54g gold, got %v", got)
	}
}

func TestSubmitDeliveryLeadTime(t *testing.T) {
	env := setupOrderTest(t)

	submitFor := func(date string) (*OrderView, error) {
		return env.svc.Submit(context.Background(), &SubmitOrderRequest{
			DistributorID:         env.distributor.ID,
			RequestedDeliveryDate: date,
			Items: []SubmitItemRequest{
				{ProductID: env.product.ID, MetalType: "18K Gold", Quantity: 5},
			},
		})
	}

	for _, days := range []int{5, 11} {
		date := time.Now().AddDate(0, 0, days).Format("2006-01-02")
		if _, err := submitFor(date); !errors.Is(err, ErrDeliveryTooSoon) {
			t.Fatalf("expected ErrDeliveryTooSoon for today+%d, got %v", days, err)
		}
	}

	// 提前量边界含等号：今天+12 恰好可接受
	boundary := time.Now().AddDate(0, 0, 12).Format("2006-01-02")
	view, err := submitFor(boundary)
	if err != nil {
		t.Fatalf("Submit at exact lead-time boundary failed: %v", err)
	}
	if view.RequestedDeliveryDate == nil {
		t.Error("expected delivery date to be stored")
	}

	if _, err := submitFor(time.Now().AddDate(0, 0, 20).Format("2006-01-02")); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
}

func TestSubmitUnknownMetalFallback(t *testing.T) {
	env := setupOrderTest(t)

	// 未注册金属按系数1、纯度0计算，不报错（白银无起订限制，Unknown 也没有）
	view, err := env.svc.Submit(context.Background(), &SubmitOrderRequest{
		DistributorID: env.distributor.ID,
		Items: []SubmitItemRequest{
			{ProductID: env.product.ID, MetalType: "Platinum 950", Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if view.Items[0].Weight.MetalKnown {
		t.Error("expected MetalKnown=false for unregistered metal")
	}
	if view.Items[0].Weight.Gross != 20 {
		t.Errorf("expected fallback gross 20, got %v", view.Items[0].Weight.Gross)
	}
	if _, ok := view.MaterialTotals[weight.UnknownMaterial]; !ok {
		t.Error("expected Unknown material bucket")
	}
}

func TestTransitionReasonRequired(t *testing.T) {
	env := setupOrderTest(t)
	view := env.submit(t, 5)
	itemID := view.Items[0].ID

	_, err := env.svc.TransitionItem(context.Background(), view.ID, itemID,
		&TransitionItemRequest{Stage: "On Hold"}, "admin-1")
	if !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("expected ErrReasonRequired, got %v", err)
	}

	got, err := env.svc.TransitionItem(context.Background(), view.ID, itemID,
		&TransitionItemRequest{Stage: "On Hold", Reason: "Customer request"}, "admin-1")
	if err != nil {
		t.Fatalf("TransitionItem failed: %v", err)
	}
	if got.Items[0].Stage != "On Hold" || got.Items[0].StageReason != "Customer request" {
		t.Errorf("unexpected item state: %+v", got.Items[0])
	}
}

func TestTransitionUnknownStageRejected(t *testing.T) {
	env := setupOrderTest(t)
	view := env.submit(t, 5)

	_, err := env.svc.TransitionItem(context.Background(), view.ID, view.Items[0].ID,
		&TransitionItemRequest{Stage: "Engraving"}, "admin-1")
	if !errors.Is(err, ErrUnknownStage) {
		t.Fatalf("expected ErrUnknownStage, got %v", err)
	}
}

func TestTransitionDerivesOrderStatus(t *testing.T) {
	env := setupOrderTest(t)

	view, err := env.svc.Submit(context.Background(), &SubmitOrderRequest{
		DistributorID: env.distributor.ID,
		Items: []SubmitItemRequest{
			{ProductID: env.product.ID, MetalType: "18K Gold", Quantity: 3},
			{ProductID: env.product.ID, MetalType: "22K Gold", Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// 一个行项开工，订单进入 PROCESSING
	got, err := env.svc.TransitionItem(context.Background(), view.ID, view.Items[0].ID,
		&TransitionItemRequest{Stage: "Casting"}, "admin-1")
	if err != nil {
		t.Fatalf("TransitionItem failed: %v", err)
	}
	if got.Status != entity.OrderStatusProcessing {
		t.Errorf("expected PROCESSING, got %s", got.Status)
	}

	// 全部行项完结，订单 COMPLETED
	if _, err := env.svc.TransitionItem(context.Background(), view.ID, view.Items[0].ID,
		&TransitionItemRequest{Stage: "Delivered"}, "admin-1"); err != nil {
		t.Fatalf("TransitionItem failed: %v", err)
	}
	got, err = env.svc.TransitionItem(context.Background(), view.ID, view.Items[1].ID,
		&TransitionItemRequest{Stage: "Delivered"}, "admin-1")
	if err != nil {
		t.Fatalf("TransitionItem failed: %v", err)
	}
	if got.Status != entity.OrderStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", got.Status)
	}
	if got.Progress != 100 {
		t.Errorf("expected progress 100, got %d", got.Progress)
	}

	// 审计只追加：初始 + 3次迁移
	if len(got.Audits) != 4 {
		t.Errorf("expected 4 audit entries, got %d", len(got.Audits))
	}
}

func TestSplitOrder(t *testing.T) {
	env := setupOrderTest(t)

	view, err := env.svc.Submit(context.Background(), &SubmitOrderRequest{
		DistributorID: env.distributor.ID,
		Items: []SubmitItemRequest{
			{ProductID: env.product.ID, MetalType: "18K Gold", Quantity: 3},
			{ProductID: env.product.ID, MetalType: "22K Gold", Quantity: 2},
			{ProductID: env.product.ID, MetalType: "925 Silver", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// 行项不属于该订单
	_, err = env.svc.SplitOrder(context.Background(), view.ID,
		&SplitOrderRequest{ItemIDs: []string{"missing-item"}}, "admin-1")
	if !errors.Is(err, ErrItemNotInOrder) {
		t.Fatalf("expected ErrItemNotInOrder, got %v", err)
	}

	// 不能拆走全部行项
	all := []string{view.Items[0].ID, view.Items[1].ID, view.Items[2].ID}
	_, err = env.svc.SplitOrder(context.Background(), view.ID,
		&SplitOrderRequest{ItemIDs: all}, "admin-1")
	if !errors.Is(err, ErrSplitWholeOrder) {
		t.Fatalf("expected ErrSplitWholeOrder, got %v", err)
	}

	newView, err := env.svc.SplitOrder(context.Background(), view.ID,
		&SplitOrderRequest{ItemIDs: []string{view.Items[2].ID}}, "admin-1")
	if err != nil {
		t.Fatalf("SplitOrder failed: %v", err)
	}
	if len(newView.Items) != 1 || newView.Items[0].ID != view.Items[2].ID {
		t.Errorf("expected split item in new order, got %+v", newView.Items)
	}
	if newView.OrderNumber == view.OrderNumber {
		t.Error("expected a fresh order number for the split order")
	}
	if !strings.Contains(newView.InstructionNote, view.OrderNumber) {
		t.Errorf("expected split note to reference source order, got %q", newView.InstructionNote)
	}

	source, err := env.svc.Get(context.Background(), view.ID, "")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(source.Items) != 2 {
		t.Errorf("expected 2 items left in source order, got %d", len(source.Items))
	}
}

func TestRepairOrderStatus(t *testing.T) {
	env := setupOrderTest(t)
	view := env.submit(t, 5)

	// 绕过服务直接改行项工序，模拟状态缓存漂移
	env.db.Model(&entity.OrderItem{}).
		Where("id = ?", view.Items[0].ID).
		Update("stage", "Delivered")

	repaired, err := env.svc.RepairOrderStatus(context.Background(), view.ID, "admin-1")
	if err != nil {
		t.Fatalf("RepairOrderStatus failed: %v", err)
	}
	if repaired.Status != entity.OrderStatusCompleted {
		t.Errorf("expected COMPLETED after repair, got %s", repaired.Status)
	}
}

func TestGetEnforcesDistributorScope(t *testing.T) {
	env := setupOrderTest(t)
	view := env.submit(t, 5)

	if _, err := env.svc.Get(context.Background(), view.ID, env.distributor.ID); err != nil {
		t.Fatalf("owner should see own order: %v", err)
	}
	if _, err := env.svc.Get(context.Background(), view.ID, "other-distributor"); !errors.Is(err, ErrDistributorScope) {
		t.Fatalf("expected ErrDistributorScope, got %v", err)
	}
}

func TestListWithCADFiles(t *testing.T) {
	env := setupOrderTest(t)

	// 两单同一产品，只有挂上CAD后才进入图纸浏览
	plain := env.submit(t, 5)
	orders, err := env.svc.ListWithCADFiles(context.Background(), "")
	if err != nil {
		t.Fatalf("ListWithCADFiles failed: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("expected no CAD orders before any product has a CAD file, got %d", len(orders))
	}

	env.db.Model(&catalog.Product{}).
		Where("id = ?", env.product.ID).
		Update("cad_file", "/uploads/cad/2026/ring.stl")
	withCAD := env.submit(t, 5)

	orders, err = env.svc.ListWithCADFiles(context.Background(), "")
	if err != nil {
		t.Fatalf("ListWithCADFiles failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected both orders of the CAD-bearing product, got %d", len(orders))
	}
	numbers := map[string]bool{orders[0].OrderNumber: true, orders[1].OrderNumber: true}
	if !numbers[plain.OrderNumber] || !numbers[withCAD.OrderNumber] {
		t.Fatalf("expected orders %s and %s, got %v", plain.OrderNumber, withCAD.OrderNumber, numbers)
	}

	// 按单号过滤
	orders, err = env.svc.ListWithCADFiles(context.Background(), withCAD.OrderNumber)
	if err != nil {
		t.Fatalf("ListWithCADFiles failed: %v", err)
	}
	if len(orders) != 1 || orders[0].OrderNumber != withCAD.OrderNumber {
		t.Fatalf("expected only %s, got %d orders", withCAD.OrderNumber, len(orders))
	}

	// 按货号过滤
	orders, err = env.svc.ListWithCADFiles(context.Background(), "RNG-0001")
	if err != nil {
		t.Fatalf("ListWithCADFiles failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected model-no match to return both orders, got %d", len(orders))
	}
}
