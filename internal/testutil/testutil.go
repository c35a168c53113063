package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	catalog "github.com/bitfantasy/gemflow/internal/catalog/entity"
	"github.com/bitfantasy/gemflow/internal/middleware"
	order "github.com/bitfantasy/gemflow/internal/order/entity"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestSchema = "test_gemflow"
	JWTSecret  = "gemflow-jwt-secret-key-2025"
)

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// loadEnv loads .env from the project root
func loadEnv() {
	root := projectRoot()
	if root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB creates a test database connection using a dedicated test schema.
// Each test gets an isolated schema that is cleaned up after the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "gemflow")
	password := getEnv("DB_PASSWORD", "gemflow123")
	dbname := getEnv("DB_NAME", "gemflow")

	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// Create a unique test schema for isolation
	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000)

	// First: create schema using a temporary connection
	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to database for schema setup: %v", err)
	}
	setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName))
	sqlSetup, _ := setupDB.DB()
	sqlSetup.Close()

	// Second: open connection with search_path in DSN so ALL pooled connections use test schema
	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Migrate test tables
	err = db.AutoMigrate(
		&catalog.Material{},
		&catalog.Metal{},
		&catalog.Category{},
		&catalog.Size{},
		&catalog.Product{},
		&catalog.Collection{},
		&catalog.StageDefinition{},
		&catalog.Distributor{},
		&order.Order{},
		&order.OrderItem{},
		&order.OrderStageAudit{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	// Cleanup on test completion
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		// Reconnect to drop the schema
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			sqlClean, _ := cleanDB.DB()
			if sqlClean != nil {
				sqlClean.Close()
			}
		}
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, name, role, distributorID string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":            userID,
		"uid":            userID,
		"name":           name,
		"email":          name + "@test.com",
		"role":           role,
		"distributor_id": distributorID,
		"iss":            "gemflow",
		"iat":            now.Unix(),
		"exp":            now.Add(24 * time.Hour).Unix(),
		"jti":            fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// AdminToken returns a token for a default admin test user
func AdminToken() string {
	return GenerateTestToken("test-admin-001", "Test Admin", middleware.RoleAdmin, "")
}

// DistributorToken returns a token bound to a distributor
func DistributorToken(distributorID string) string {
	return GenerateTestToken("test-dist-001", "Test Distributor", middleware.RoleDistributor, distributorID)
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a handler.Response-like map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedMaterial creates a material with the given minimum order weight
func SeedMaterial(t *testing.T, db *gorm.DB, name string, minOrderWeight float64) *catalog.Material {
	t.Helper()
	m := &catalog.Material{
		ID:             uuid.New().String()[:32],
		Name:           name,
		MinOrderWeight: minOrderWeight,
		IsVisible:      true,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("Failed to seed material: %v", err)
	}
	return m
}

// SeedMetal creates a metal under a material
func SeedMetal(t *testing.T, db *gorm.DB, materialID, name string, ratio, purity float64) *catalog.Metal {
	t.Helper()
	m := &catalog.Metal{
		ID:              uuid.New().String()[:32],
		Name:            name,
		MaterialID:      materialID,
		ConversionRatio: ratio,
		Purity:          purity,
		IsVisible:       true,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("Failed to seed metal: %v", err)
	}
	return m
}

// SeedStage creates a stage definition
func SeedStage(t *testing.T, db *gorm.DB, name, stageType string, sequence int, requiresReason bool) *catalog.StageDefinition {
	t.Helper()
	s := &catalog.StageDefinition{
		ID:             uuid.New().String()[:32],
		Name:           name,
		Type:           stageType,
		Sequence:       sequence,
		RequiresReason: requiresReason,
	}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("Failed to seed stage: %v", err)
	}
	return s
}

// SeedCategory creates a product category
func SeedCategory(t *testing.T, db *gorm.DB, name string) *catalog.Category {
	t.Helper()
	c := &catalog.Category{
		ID:   uuid.New().String()[:32],
		Name: name,
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("Failed to seed category: %v", err)
	}
	return c
}

// SeedProduct creates a product
func SeedProduct(t *testing.T, db *gorm.DB, modelNo, categoryID string, baseWeight float64) *catalog.Product {
	t.Helper()
	p := &catalog.Product{
		ID:         uuid.New().String()[:32],
		ModelNo:    modelNo,
		Title:      "Test " + modelNo,
		CategoryID: categoryID,
		BaseWeight: baseWeight,
		Visibility: catalog.VisibilityAll,
		IsActive:   true,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("Failed to seed product: %v", err)
	}
	return p
}

// SeedDistributor creates a distributor
func SeedDistributor(t *testing.T, db *gorm.DB, companyName string) *catalog.Distributor {
	t.Helper()
	d := &catalog.Distributor{
		ID:          uuid.New().String()[:32],
		CompanyName: companyName,
		ContactName: "Contact",
		Email:       fmt.Sprintf("%s@test.com", uuid.New().String()[:8]),
		Status:      catalog.DistributorActive,
	}
	if err := db.Create(d).Error; err != nil {
		t.Fatalf("Failed to seed distributor: %v", err)
	}
	return d
}

// SeedOrder creates an order with items in the given stages
func SeedOrder(t *testing.T, db *gorm.DB, distributorID, productID string, stages []string) *order.Order {
	t.Helper()
	o := &order.Order{
		ID:            uuid.New().String()[:32],
		OrderNumber:   fmt.Sprintf("ORD-%d-%s", time.Now().Year(), uuid.New().String()[:4]),
		DistributorID: distributorID,
		Status:        order.OrderStatusPending,
	}
	if err := db.Create(o).Error; err != nil {
		t.Fatalf("Failed to seed order: %v", err)
	}
	for _, stage := range stages {
		item := &order.OrderItem{
			ID:        uuid.New().String()[:32],
			OrderID:   o.ID,
			ProductID: productID,
			MetalType: "18K Gold",
			Quantity:  1,
			Stage:     stage,
		}
		if err := db.Create(item).Error; err != nil {
			t.Fatalf("Failed to seed order item: %v", err)
		}
	}
	return o
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
