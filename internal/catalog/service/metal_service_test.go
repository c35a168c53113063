package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bitfantasy/gemflow/internal/cache"
	"github.com/bitfantasy/gemflow/internal/catalog/repository"
	"github.com/bitfantasy/gemflow/internal/storage"
	"github.com/bitfantasy/gemflow/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupCatalogTest(t *testing.T) (*gorm.DB, *Services) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	views := cache.NewViews(nil, zap.NewNop(), 0)
	uploader := storage.NewUploader(nil, "test", t.TempDir())
	return db, NewServices(repos, views, uploader)
}

func TestBaseMetalUniqueness(t *testing.T) {
	db, svc := setupCatalogTest(t)
	gold := testutil.SeedMaterial(t, db, "Gold", 0)
	silver := testutil.SeedMaterial(t, db, "Silver", 0)

	ctx := context.Background()
	if _, err := svc.Metal.Create(ctx, &CreateMetalRequest{
		Name: "18K Gold", MaterialID: gold.ID, ConversionRatio: 1.0, Purity: 75,
	}); err != nil {
		t.Fatalf("first base metal should be accepted: %v", err)
	}

	// 同材质第二个基准金属被拒
	_, err := svc.Metal.Create(ctx, &CreateMetalRequest{
		Name: "24K Gold", MaterialID: gold.ID, ConversionRatio: 1.0, Purity: 99.9,
	})
	if !errors.Is(err, ErrBaseMetalConflict) {
		t.Fatalf("expected ErrBaseMetalConflict, got %v", err)
	}

	// 其他材质不受影响
	if _, err := svc.Metal.Create(ctx, &CreateMetalRequest{
		Name: "925 Silver", MaterialID: silver.ID, ConversionRatio: 1.0,
	}); err != nil {
		t.Fatalf("base metal in another material should be accepted: %v", err)
	}

	// 非基准金属随便加
	m, err := svc.Metal.Create(ctx, &CreateMetalRequest{
		Name: "22K Gold", MaterialID: gold.ID, ConversionRatio: 1.2, Purity: 91.6,
	})
	if err != nil {
		t.Fatalf("non-base metal should be accepted: %v", err)
	}

	// 把非基准金属改成1.0同样冲突
	ratio := 1.0
	if _, err := svc.Metal.Update(ctx, m.ID, &UpdateMetalRequest{ConversionRatio: &ratio}); !errors.Is(err, ErrBaseMetalConflict) {
		t.Fatalf("expected ErrBaseMetalConflict on update, got %v", err)
	}
}

func TestBaseMetalUpdateSelfAllowed(t *testing.T) {
	db, svc := setupCatalogTest(t)
	gold := testutil.SeedMaterial(t, db, "Gold", 0)
	base := testutil.SeedMetal(t, db, gold.ID, "18K Gold", 1.0, 75)

	// 基准金属自身更新（系数保持1.0）不应视为冲突
	ctx := context.Background()
	ratio := 1.0
	purity := 76.0
	if _, err := svc.Metal.Update(ctx, base.ID, &UpdateMetalRequest{
		ConversionRatio: &ratio,
		Purity:          &purity,
	}); err != nil {
		t.Fatalf("base metal self-update should be accepted: %v", err)
	}
}

func TestMetalDeleteInUse(t *testing.T) {
	db, svc := setupCatalogTest(t)
	gold := testutil.SeedMaterial(t, db, "Gold", 0)
	metal := testutil.SeedMetal(t, db, gold.ID, "18K Gold", 1.0, 75)

	category := testutil.SeedCategory(t, db, "Rings")
	product := testutil.SeedProduct(t, db, "RNG-0001", category.ID, 10)
	distributor := testutil.SeedDistributor(t, db, "Golden Star Trading")
	testutil.SeedOrder(t, db, distributor.ID, product.ID, []string{"PENDING"})

	ctx := context.Background()
	if err := svc.Metal.Delete(ctx, metal.ID); !errors.Is(err, ErrInUse) {
		t.Fatalf("expected ErrInUse for referenced metal, got %v", err)
	}
}

func TestDuplicateMetalName(t *testing.T) {
	db, svc := setupCatalogTest(t)
	gold := testutil.SeedMaterial(t, db, "Gold", 0)
	testutil.SeedMetal(t, db, gold.ID, "18K Gold", 1.0, 75)

	_, err := svc.Metal.Create(context.Background(), &CreateMetalRequest{
		Name: "18K Gold", MaterialID: gold.ID, ConversionRatio: 1.2, Purity: 75,
	})
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}
