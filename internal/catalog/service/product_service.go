package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bitfantasy/gemflow/internal/catalog/entity"
	"github.com/bitfantasy/gemflow/internal/catalog/repository"
	"github.com/bitfantasy/gemflow/internal/storage"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// ProductService 产品目录服务
type ProductService struct {
	repo         *repository.ProductRepository
	categoryRepo *repository.CategoryRepository
	uploader     *storage.Uploader
}

func NewProductService(repo *repository.ProductRepository, categoryRepo *repository.CategoryRepository, uploader *storage.Uploader) *ProductService {
	return &ProductService{repo: repo, categoryRepo: categoryRepo, uploader: uploader}
}

// CreateProductRequest 创建产品请求
type CreateProductRequest struct {
	ModelNo             string   `json:"model_no" binding:"required"`
	Title               string   `json:"title"`
	CategoryID          string   `json:"category_id" binding:"required"`
	BaseWeight          float64  `json:"base_weight" binding:"required,gt=0"`
	MainImage           string   `json:"main_image"`
	CADFile             string   `json:"cad_file"`
	Tags                string   `json:"tags"`
	Visibility          string   `json:"visibility"`
	AllowedDistributors []string `json:"allowed_distributors"`
}

// UpdateProductRequest 更新产品请求
type UpdateProductRequest struct {
	Title               *string  `json:"title"`
	CategoryID          *string  `json:"category_id"`
	BaseWeight          *float64 `json:"base_weight"`
	MainImage           *string  `json:"main_image"`
	CADFile             *string  `json:"cad_file"`
	Tags                *string  `json:"tags"`
	Visibility          *string  `json:"visibility"`
	AllowedDistributors []string `json:"allowed_distributors"`
}

// Search 产品检索
func (s *ProductService) Search(ctx context.Context, filter repository.ProductFilter, page, pageSize int) ([]entity.Product, int64, error) {
	return s.repo.FindAll(ctx, filter, page, pageSize)
}

// SearchForDistributor 经销商商城检索：只看活跃产品并应用可见性白名单
func (s *ProductService) SearchForDistributor(ctx context.Context, distributorID string, filter repository.ProductFilter, page, pageSize int) ([]entity.Product, int64, error) {
	filter.ActiveOnly = true
	products, total, err := s.repo.FindAll(ctx, filter, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	visible := make([]entity.Product, 0, len(products))
	for _, p := range products {
		if p.VisibleTo(distributorID) {
			visible = append(visible, p)
		}
	}
	// 白名单过滤在页内进行，总数随之修正
	total -= int64(len(products) - len(visible))
	return visible, total, nil
}

// Get 产品详情
func (s *ProductService) Get(ctx context.Context, id string) (*entity.Product, error) {
	return s.repo.FindByID(ctx, id)
}

// Create 创建产品，货号重复时拒绝
func (s *ProductService) Create(ctx context.Context, req *CreateProductRequest) (*entity.Product, error) {
	if _, err := s.repo.FindByModelNo(ctx, req.ModelNo); err == nil {
		return nil, ErrDuplicateName
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if _, err := s.categoryRepo.FindByID(ctx, req.CategoryID); err != nil {
		return nil, fmt.Errorf("category lookup: %w", err)
	}

	visibility := req.Visibility
	if visibility != entity.VisibilityAllowed {
		visibility = entity.VisibilityAll
	}

	p := &entity.Product{
		ID:                  uuid.New().String()[:32],
		ModelNo:             req.ModelNo,
		Title:               req.Title,
		CategoryID:          req.CategoryID,
		BaseWeight:          req.BaseWeight,
		MainImage:           req.MainImage,
		CADFile:             req.CADFile,
		Tags:                req.Tags,
		Visibility:          visibility,
		AllowedDistributors: strings.Join(req.AllowedDistributors, ","),
		IsActive:            true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, p.ID)
}

// Update 更新产品
func (s *ProductService) Update(ctx context.Context, id string, req *UpdateProductRequest) (*entity.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *req.CategoryID); err != nil {
			return nil, fmt.Errorf("category lookup: %w", err)
		}
		p.CategoryID = *req.CategoryID
	}
	if req.BaseWeight != nil {
		p.BaseWeight = *req.BaseWeight
	}
	if req.MainImage != nil {
		p.MainImage = *req.MainImage
	}
	if req.CADFile != nil {
		p.CADFile = *req.CADFile
	}
	if req.Tags != nil {
		p.Tags = *req.Tags
	}
	if req.Visibility != nil {
		p.Visibility = *req.Visibility
		p.AllowedDistributors = strings.Join(req.AllowedDistributors, ",")
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, p.ID)
}

// SetActive 软停用/启用
func (s *ProductService) SetActive(ctx context.Context, id string, active bool) (*entity.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.IsActive = active
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete 删除产品
// 已被订单引用的产品不做物理删除，改为软停用
func (s *ProductService) Delete(ctx context.Context, id string) error {
	refs, err := s.repo.CountOrderItemRefs(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		_, err := s.SetActive(ctx, id, false)
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Tags 活跃产品的去重标签集
func (s *ProductService) Tags(ctx context.Context) ([]string, error) {
	raw, err := s.repo.DistinctTags(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for _, line := range raw {
		for _, t := range strings.Split(line, ",") {
			if t = strings.TrimSpace(t); t != "" {
				set[t] = struct{}{}
			}
		}
	}
	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags, nil
}

// UploadAsset 上传产品资源（主图/CAD文件），返回可访问路径
func (s *ProductService) UploadAsset(ctx context.Context, reader io.Reader, size int64, filename, contentType, kind string) (string, error) {
	subDir := "products"
	if kind == "cad" {
		subDir = "cad"
	}
	return s.uploader.Upload(ctx, reader, size, filename, contentType, subDir)
}

var productImportHeaders = []string{"Model No", "Title", "Category", "Base Weight (g)", "Tags"}

// GenerateImportTemplate 生成产品批量导入模板
func (s *ProductService) GenerateImportTemplate() (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Products"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	for i, h := range productImportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	// 示例行
	f.SetCellValue(sheet, "A2", "RNG-0001")
	f.SetCellValue(sheet, "B2", "Classic Solitaire Ring")
	f.SetCellValue(sheet, "C2", "Rings")
	f.SetCellValue(sheet, "D2", 4.25)
	f.SetCellValue(sheet, "E2", "Wedding, Classic")

	colWidths := []float64{14, 30, 16, 16, 30}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}
	return f, nil
}

// ImportResult 批量导入结果
type ImportResult struct {
	Created int      `json:"created"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// Import 从Excel批量导入产品，类目按名称匹配，货号重复或类目缺失的行跳过
func (s *ProductService) Import(ctx context.Context, f *excelize.File) (*ImportResult, error) {
	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read excel: %w", err)
	}

	result := &ImportResult{}
	if len(rows) < 2 {
		return result, nil
	}

	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	categoryByName := make(map[string]string, len(categories))
	for _, c := range categories {
		categoryByName[c.Name] = c.ID
	}

	var batch []entity.Product
	for i, row := range rows[1:] {
		rowNum := i + 2
		if len(row) < 4 || strings.TrimSpace(row[0]) == "" {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: model no is required", rowNum))
			continue
		}
		modelNo := strings.TrimSpace(row[0])

		categoryID, ok := categoryByName[strings.TrimSpace(row[2])]
		if !ok {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: unknown category %q", rowNum, row[2]))
			continue
		}

		weight, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		if err != nil || weight <= 0 {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: invalid base weight %q", rowNum, row[3]))
			continue
		}

		if _, err := s.repo.FindByModelNo(ctx, modelNo); err == nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: model no %s already exists", rowNum, modelNo))
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}

		p := entity.Product{
			ID:         uuid.New().String()[:32],
			ModelNo:    modelNo,
			CategoryID: categoryID,
			BaseWeight: weight,
			Visibility: entity.VisibilityAll,
			IsActive:   true,
		}
		if len(row) > 1 {
			p.Title = strings.TrimSpace(row[1])
		}
		if len(row) > 4 {
			p.Tags = strings.TrimSpace(row[4])
		}
		batch = append(batch, p)
	}

	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return nil, err
	}
	result.Created = len(batch)
	return result, nil
}

// DownloadCAD 下载产品CAD文件，未挂CAD的产品按不存在处理
func (s *ProductService) DownloadCAD(ctx context.Context, id string) (io.ReadCloser, string, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if p.CADFile == "" {
		return nil, "", repository.ErrNotFound
	}

	// 存储的是 /{bucket|uploads}/{objectPath}，下载按对象路径取
	objectPath := strings.TrimPrefix(p.CADFile, "/")
	if i := strings.Index(objectPath, "/"); i >= 0 {
		objectPath = objectPath[i+1:]
	}
	rc, err := s.uploader.Download(ctx, objectPath)
	if err != nil {
		return nil, "", err
	}

	filename := p.ModelNo + strings.ToLower(filepath.Ext(p.CADFile))
	return rc, filename, nil
}

// Export 全量产品目录导出为Excel
func (s *ProductService) Export(ctx context.Context) (*excelize.File, error) {
	products, err := s.repo.FindAllForExport(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "Products"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	headers := []string{"Model No", "Title", "Category", "Base Weight (g)", "Tags", "Visibility", "Active"}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for i, p := range products {
		row := strconv.Itoa(i + 2)
		categoryName := ""
		if p.Category != nil {
			categoryName = p.Category.Name
		}
		active := "Yes"
		if !p.IsActive {
			active = "No"
		}
		f.SetCellValue(sheet, "A"+row, p.ModelNo)
		f.SetCellValue(sheet, "B"+row, p.Title)
		f.SetCellValue(sheet, "C"+row, categoryName)
		f.SetCellValue(sheet, "D"+row, p.BaseWeight)
		f.SetCellValue(sheet, "E"+row, p.Tags)
		f.SetCellValue(sheet, "F"+row, p.Visibility)
		f.SetCellValue(sheet, "G"+row, active)
	}

	colWidths := []float64{14, 30, 16, 16, 30, 12, 8}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}
	return f, nil
}
