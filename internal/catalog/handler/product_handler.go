package handler

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bitfantasy/gemflow/internal/catalog/repository"
	"github.com/bitfantasy/gemflow/internal/catalog/service"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ProductHandler 产品目录处理器
type ProductHandler struct {
	svc *service.ProductService
}

func NewProductHandler(svc *service.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

func productFilter(c *gin.Context) repository.ProductFilter {
	filter := repository.ProductFilter{
		Query:      c.Query("q"),
		CategoryID: c.Query("category_id"),
		ActiveOnly: c.Query("active_only") == "true",
	}
	if v := c.Query("min_weight"); v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MinWeight = &w
		}
	}
	if v := c.Query("max_weight"); v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MaxWeight = &w
		}
	}
	if v := c.Query("tags"); v != "" {
		filter.Tags = strings.Split(v, ",")
	}
	return filter
}

// List GET /products
// 经销商身份下自动按可见性白名单过滤
func (h *ProductHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filter := productFilter(c)

	var (
		items interface{}
		total int64
		err   error
	)
	if distributorID := GetDistributorID(c); distributorID != "" {
		items, total, err = h.svc.SearchForDistributor(c.Request.Context(), distributorID, filter, page, pageSize)
	} else {
		items, total, err = h.svc.Search(c.Request.Context(), filter, page, pageSize)
	}
	if err != nil {
		InternalError(c, "获取产品列表失败: "+err.Error())
		return
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	Success(c, ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	})
}

// Get GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, p)
}

// Create POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	p, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, p)
}

// Update PUT /products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	p, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, p)
}

// SetActive PUT /products/:id/active
func (h *ProductHandler) SetActive(c *gin.Context) {
	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	p, err := h.svc.SetActive(c.Request.Context(), c.Param("id"), *req.Active)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, p)
}

// Delete DELETE /products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	Success(c, nil)
}

// Tags GET /products/tags
func (h *ProductHandler) Tags(c *gin.Context) {
	tags, err := h.svc.Tags(c.Request.Context())
	if err != nil {
		InternalError(c, "获取标签失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": tags})
}

// UploadAsset POST /products/upload
func (h *ProductHandler) UploadAsset(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		BadRequest(c, "请上传文件")
		return
	}
	defer file.Close()

	kind := c.PostForm("kind") // image / cad
	url, err := h.svc.UploadAsset(c.Request.Context(), file, header.Size, header.Filename,
		header.Header.Get("Content-Type"), kind)
	if err != nil {
		InternalError(c, "上传失败: "+err.Error())
		return
	}
	Success(c, gin.H{"url": url})
}

// DownloadTemplate GET /products/import-template
func (h *ProductHandler) DownloadTemplate(c *gin.Context) {
	f, err := h.svc.GenerateImportTemplate()
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\"Product_Import_Template.xlsx\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write template: "+err.Error())
	}
}

// DownloadCAD GET /products/:id/cad
func (h *ProductHandler) DownloadCAD(c *gin.Context) {
	rc, filename, err := h.svc.DownloadCAD(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Type", "application/octet-stream")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if _, err := io.Copy(c.Writer, rc); err != nil {
		InternalError(c, "write cad file: "+err.Error())
	}
}

// Export GET /products/export
func (h *ProductHandler) Export(c *gin.Context) {
	f, err := h.svc.Export(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	defer f.Close()

	filename := "Products_" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write export: "+err.Error())
	}
}

// Import POST /products/import
func (h *ProductHandler) Import(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		BadRequest(c, "请上传Excel文件")
		return
	}
	defer file.Close()

	f, err := excelize.OpenReader(file)
	if err != nil {
		BadRequest(c, "无法解析Excel文件: "+err.Error())
		return
	}
	defer f.Close()

	result, err := h.svc.Import(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, result)
}
