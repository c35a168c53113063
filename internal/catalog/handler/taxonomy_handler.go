package handler

import (
	"github.com/bitfantasy/gemflow/internal/catalog/service"
	"github.com/gin-gonic/gin"
)

// TaxonomyHandler 类目/尺寸处理器
type TaxonomyHandler struct {
	svc *service.TaxonomyService
}

func NewTaxonomyHandler(svc *service.TaxonomyService) *TaxonomyHandler {
	return &TaxonomyHandler{svc: svc}
}

// ListCategories GET /categories
func (h *TaxonomyHandler) ListCategories(c *gin.Context) {
	items, err := h.svc.ListCategories(c.Request.Context())
	if err != nil {
		InternalError(c, "获取类目列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// CreateCategory POST /categories
func (h *TaxonomyHandler) CreateCategory(c *gin.Context) {
	var req service.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	cat, err := h.svc.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, cat)
}

// DeleteCategory DELETE /categories/:id
func (h *TaxonomyHandler) DeleteCategory(c *gin.Context) {
	if err := h.svc.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	Success(c, nil)
}

// ListSizes GET /sizes
func (h *TaxonomyHandler) ListSizes(c *gin.Context) {
	items, err := h.svc.ListSizes(c.Request.Context())
	if err != nil {
		InternalError(c, "获取尺寸列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// CreateSize POST /sizes
func (h *TaxonomyHandler) CreateSize(c *gin.Context) {
	var req service.CreateSizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	size, err := h.svc.CreateSize(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, size)
}

// DeleteSize DELETE /sizes/:id
func (h *TaxonomyHandler) DeleteSize(c *gin.Context) {
	if err := h.svc.DeleteSize(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	Success(c, nil)
}
