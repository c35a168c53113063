package handler

import (
	"net/http"
	"testing"

	"github.com/bitfantasy/gemflow/internal/cache"
	catalog "github.com/bitfantasy/gemflow/internal/catalog/entity"
	catalogrepo "github.com/bitfantasy/gemflow/internal/catalog/repository"
	"github.com/bitfantasy/gemflow/internal/middleware"
	"github.com/bitfantasy/gemflow/internal/order/repository"
	"github.com/bitfantasy/gemflow/internal/order/service"
	"github.com/bitfantasy/gemflow/internal/testutil"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type orderHandlerEnv struct {
	db          *gorm.DB
	router      *gin.Engine
	distributor *catalog.Distributor
	product     *catalog.Product
}

func setupOrderHandlerTest(t *testing.T) *orderHandlerEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	catalogRepos := catalogrepo.NewRepositories(db)
	orderRepos := repository.NewRepositories(db)
	views := cache.NewViews(nil, zap.NewNop(), 0)
	services := service.NewServices(orderRepos, catalogRepos, views, 12)
	handlers := NewHandlers(services)

	api := testutil.AuthGroup(router, "/api/v1")
	api.POST("/orders", handlers.Order.Submit)
	api.GET("/orders", handlers.Order.List)
	api.GET("/orders/:id", handlers.Order.Get)

	admin := api.Group("", middleware.RequireAdmin())
	admin.PUT("/orders/:id/items/:itemId/stage", handlers.Order.TransitionItem)
	admin.GET("/dashboard", handlers.Dashboard.Get)
	admin.GET("/reports/weight", handlers.Report.Get)

	gold := testutil.SeedMaterial(t, db, "Gold", 50)
	testutil.SeedMetal(t, db, gold.ID, "18K Gold", 1.0, 75)
	testutil.SeedStage(t, db, "PENDING", catalog.StageTypePending, 1, false)
	testutil.SeedStage(t, db, "Casting", catalog.StageTypeStandard, 2, false)
	testutil.SeedStage(t, db, "Delivered", catalog.StageTypeCompleted, 3, false)

	category := testutil.SeedCategory(t, db, "Rings")
	product := testutil.SeedProduct(t, db, "RNG-0001", category.ID, 10)
	distributor := testutil.SeedDistributor(t, db, "Golden Star Trading")

	return &orderHandlerEnv{db: db, router: router, distributor: distributor, product: product}
}

func submitPayload(env *orderHandlerEnv, quantity int) map[string]interface{} {
	return map[string]interface{}{
		"distributor_id": env.distributor.ID,
		"items": []map[string]interface{}{
			{"product_id": env.product.ID, "metal_type": "18K Gold", "quantity": quantity},
		},
	}
}

func TestOrderSubmitAndGet(t *testing.T) {
	env := setupOrderHandlerTest(t)
	token := testutil.DistributorToken(env.distributor.ID)

	w := testutil.DoRequest(env.router, "POST", "/api/v1/orders", submitPayload(env, 5), token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	orderID := data["id"].(string)
	if data["status"] != "PENDING" {
		t.Errorf("expected PENDING, got %v", data["status"])
	}

	w = testutil.DoRequest(env.router, "GET", "/api/v1/orders/"+orderID, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestOrderSubmitMinWeightRejected(t *testing.T) {
	env := setupOrderHandlerTest(t)
	token := testutil.DistributorToken(env.distributor.ID)

	w := testutil.DoRequest(env.router, "POST", "/api/v1/orders", submitPayload(env, 2), token)
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["material"] != "Gold" {
		t.Errorf("expected Gold violation payload, got %v", data)
	}
}

func TestOrderScopeIsolation(t *testing.T) {
	env := setupOrderHandlerTest(t)
	owner := testutil.DistributorToken(env.distributor.ID)

	w := testutil.DoRequest(env.router, "POST", "/api/v1/orders", submitPayload(env, 5), owner)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	orderID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	// 其他经销商看不到
	other := testutil.SeedDistributor(t, env.db, "Other Trading")
	w = testutil.DoRequest(env.router, "GET", "/api/v1/orders/"+orderID, nil, testutil.DistributorToken(other.ID))
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for foreign distributor, got %d", w.Code)
	}

	// 管理员可以
	w = testutil.DoRequest(env.router, "GET", "/api/v1/orders/"+orderID, nil, testutil.AdminToken())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for admin, got %d: %s", w.Code, w.Body.String())
	}
}

func TestTransitionRequiresAdmin(t *testing.T) {
	env := setupOrderHandlerTest(t)
	owner := testutil.DistributorToken(env.distributor.ID)

	w := testutil.DoRequest(env.router, "POST", "/api/v1/orders", submitPayload(env, 5), owner)
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	orderID := data["id"].(string)
	itemID := data["items"].([]interface{})[0].(map[string]interface{})["id"].(string)

	path := "/api/v1/orders/" + orderID + "/items/" + itemID + "/stage"
	body := map[string]interface{}{"stage": "Casting"}

	w = testutil.DoRequest(env.router, "PUT", path, body, owner)
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for distributor, got %d", w.Code)
	}

	w = testutil.DoRequest(env.router, "PUT", path, body, testutil.AdminToken())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for admin, got %d: %s", w.Code, w.Body.String())
	}
	updated := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if updated["status"] != "PROCESSING" {
		t.Errorf("expected PROCESSING after transition, got %v", updated["status"])
	}
}

func TestDashboardAndReport(t *testing.T) {
	env := setupOrderHandlerTest(t)
	owner := testutil.DistributorToken(env.distributor.ID)
	admin := testutil.AdminToken()

	w := testutil.DoRequest(env.router, "POST", "/api/v1/orders", submitPayload(env, 5), owner)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.router, "GET", "/api/v1/dashboard?range=THIS_YEAR", nil, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	dash := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if dash["total_orders"].(float64) != 1 {
		t.Errorf("expected 1 order on dashboard, got %v", dash["total_orders"])
	}

	w = testutil.DoRequest(env.router, "GET", "/api/v1/reports/weight?mode=DISTRIBUTOR&distributor_id="+env.distributor.ID, nil, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	report := testutil.ParseResponse(w)["data"].(map[string]interface{})
	totals := report["grand_totals"].(map[string]interface{})
	gold := totals["Gold"].(map[string]interface{})
	if gold["gross"].(float64) != 50 {
		t.Errorf("expected 50g gross in report, got %v", gold["gross"])
	}
}
