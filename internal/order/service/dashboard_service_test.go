package service

import (
	"fmt"
	"testing"
	"time"

	catalog "github.com/bitfantasy/gemflow/internal/catalog/entity"
	"github.com/bitfantasy/gemflow/internal/order/entity"
	"github.com/bitfantasy/gemflow/internal/order/stage"
	"github.com/bitfantasy/gemflow/internal/order/weight"
)

func dashboardFixtures() (*weight.Registry, *stage.Index) {
	reg := weight.NewRegistry(
		[]catalog.Metal{
			{Name: "18K Gold", MaterialID: "mat-gold", ConversionRatio: 1.0, Purity: 75},
		},
		[]catalog.Material{
			{ID: "mat-gold", Name: "Gold"},
		},
	)
	idx := stage.NewIndex([]catalog.StageDefinition{
		{Name: "PENDING", Type: catalog.StageTypePending, Sequence: 1},
		{Name: "Casting", Type: catalog.StageTypeStandard, Sequence: 2},
		{Name: "Delivered", Type: catalog.StageTypeCompleted, Sequence: 3},
	})
	return reg, idx
}

func tinyOrder(n int, distributorID string, baseWeight float64) entity.Order {
	return entity.Order{
		ID:            fmt.Sprintf("order-%04d", n),
		OrderNumber:   fmt.Sprintf("ORD-2026-%04d", n),
		DistributorID: distributorID,
		Distributor:   &catalog.Distributor{ID: distributorID, CompanyName: "Golden Star Trading"},
		Items: []entity.OrderItem{
			{
				ID:        fmt.Sprintf("item-%04d", n),
				ProductID: "prod-1",
				MetalType: "18K Gold",
				Quantity:  1,
				Stage:     "Casting",
				Product:   &catalog.Product{ID: "prod-1", ModelNo: "RNG-0001", BaseWeight: baseWeight},
			},
		},
	}
}

// 经销商汇总在累计期间不得舍入，否则微小重量逐单归零
func TestDashboardDistributorTotalsUnrounded(t *testing.T) {
	reg, idx := dashboardFixtures()

	orders := make([]entity.Order, 0, 100)
	for i := 0; i < 100; i++ {
		orders = append(orders, tinyOrder(i, "dist-1", 0.004))
	}

	d := buildDashboard(orders, reg, idx)

	if len(d.Distributors) != 1 {
		t.Fatalf("expected 1 distributor summary, got %d", len(d.Distributors))
	}
	s := d.Distributors[0]
	if s.Orders != 100 || s.Pieces != 100 {
		t.Errorf("expected 100 orders / 100 pieces, got %d / %d", s.Orders, s.Pieces)
	}
	if s.Gross != 0.4 {
		t.Errorf("expected gross 0.4 (100 × 0.004), got %v", s.Gross)
	}
	if s.Pure != 0.3 {
		t.Errorf("expected pure 0.3 (75%% of 0.4), got %v", s.Pure)
	}
}

func TestDashboardUrgentOrdersSortedBeforeCap(t *testing.T) {
	reg, idx := dashboardFixtures()

	// 25 个临近交期订单；最紧急的放在遍历顺序的最后
	orders := make([]entity.Order, 0, 25)
	for i := 0; i < 24; i++ {
		o := tinyOrder(i, "dist-1", 5)
		due := time.Now().Add(time.Duration(30+i) * time.Hour)
		o.RequestedDeliveryDate = &due
		orders = append(orders, o)
	}
	soonest := tinyOrder(99, "dist-1", 5)
	due := time.Now().Add(2 * time.Hour)
	soonest.RequestedDeliveryDate = &due
	orders = append(orders, soonest)

	d := buildDashboard(orders, reg, idx)

	if len(d.UrgentOrders) != 20 {
		t.Fatalf("expected urgent list capped at 20, got %d", len(d.UrgentOrders))
	}
	if d.UrgentOrders[0].OrderNumber != soonest.OrderNumber {
		t.Errorf("expected soonest-due order %s first, got %s",
			soonest.OrderNumber, d.UrgentOrders[0].OrderNumber)
	}
	for i := 1; i < len(d.UrgentOrders); i++ {
		if d.UrgentOrders[i].DeliveryDate.Before(d.UrgentOrders[i-1].DeliveryDate) {
			t.Errorf("urgent orders not sorted by delivery date at index %d", i)
		}
	}
}
