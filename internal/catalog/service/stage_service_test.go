package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bitfantasy/gemflow/internal/catalog/entity"
	"github.com/bitfantasy/gemflow/internal/testutil"
)

func TestStageCreateAssignsSequence(t *testing.T) {
	_, svc := setupCatalogTest(t)
	ctx := context.Background()

	first, err := svc.Stage.Create(ctx, &CreateStageRequest{Name: "Casting", Type: entity.StageTypeStandard})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	second, err := svc.Stage.Create(ctx, &CreateStageRequest{Name: "Polishing", Type: entity.StageTypeStandard})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if first.Sequence != 1 || second.Sequence != 2 {
		t.Errorf("expected sequences 1,2 got %d,%d", first.Sequence, second.Sequence)
	}
}

func TestStageCreateValidation(t *testing.T) {
	_, svc := setupCatalogTest(t)
	ctx := context.Background()

	if _, err := svc.Stage.Create(ctx, &CreateStageRequest{Name: "Casting", Type: "WEIRD"}); !errors.Is(err, ErrInvalidStageType) {
		t.Fatalf("expected ErrInvalidStageType, got %v", err)
	}

	if _, err := svc.Stage.Create(ctx, &CreateStageRequest{Name: "Casting", Type: entity.StageTypeStandard}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Stage.Create(ctx, &CreateStageRequest{Name: "Casting", Type: entity.StageTypeOnHold}); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestStageUpdateClearsReasonsWhenNotRequired(t *testing.T) {
	_, svc := setupCatalogTest(t)
	ctx := context.Background()

	s, err := svc.Stage.Create(ctx, &CreateStageRequest{
		Name: "On Hold", Type: entity.StageTypeOnHold,
		RequiresReason: true, Reasons: "Customer request, Material shortage",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(s.ReasonList()) != 2 {
		t.Fatalf("expected 2 reasons, got %v", s.ReasonList())
	}

	off := false
	updated, err := svc.Stage.Update(ctx, s.ID, &UpdateStageRequest{RequiresReason: &off})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.RequiresReason || updated.Reasons != "" {
		t.Errorf("expected reasons cleared, got %+v", updated)
	}
}

func TestStageDeleteInUse(t *testing.T) {
	db, svc := setupCatalogTest(t)
	ctx := context.Background()

	s, err := svc.Stage.Create(ctx, &CreateStageRequest{Name: "Casting", Type: entity.StageTypeStandard})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	category := testutil.SeedCategory(t, db, "Rings")
	product := testutil.SeedProduct(t, db, "RNG-0001", category.ID, 10)
	distributor := testutil.SeedDistributor(t, db, "Golden Star Trading")
	testutil.SeedOrder(t, db, distributor.ID, product.ID, []string{"Casting"})

	if err := svc.Stage.Delete(ctx, s.ID); !errors.Is(err, ErrInUse) {
		t.Fatalf("expected ErrInUse, got %v", err)
	}
}

func TestStageReorder(t *testing.T) {
	_, svc := setupCatalogTest(t)
	ctx := context.Background()

	a, _ := svc.Stage.Create(ctx, &CreateStageRequest{Name: "Casting", Type: entity.StageTypeStandard})
	b, _ := svc.Stage.Create(ctx, &CreateStageRequest{Name: "Polishing", Type: entity.StageTypeStandard})
	c, _ := svc.Stage.Create(ctx, &CreateStageRequest{Name: "Delivered", Type: entity.StageTypeCompleted})

	if err := svc.Stage.Reorder(ctx, []string{b.ID, a.ID, c.ID}); err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}

	stages, err := svc.Stage.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"Polishing", "Casting", "Delivered"}
	for i, s := range stages {
		if s.Name != want[i] || s.Sequence != i+1 {
			t.Errorf("position %d: got %s seq %d, want %s seq %d", i, s.Name, s.Sequence, want[i], i+1)
		}
	}
}
