package handler

import (
	"github.com/bitfantasy/gemflow/internal/catalog/service"
	"github.com/gin-gonic/gin"
)

// CollectionHandler 产品系列处理器
type CollectionHandler struct {
	svc *service.CollectionService
}

func NewCollectionHandler(svc *service.CollectionService) *CollectionHandler {
	return &CollectionHandler{svc: svc}
}

// List GET /collections
func (h *CollectionHandler) List(c *gin.Context) {
	visibleOnly := GetDistributorID(c) != ""
	items, err := h.svc.List(c.Request.Context(), visibleOnly)
	if err != nil {
		InternalError(c, "获取系列列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// Get GET /collections/:id
func (h *CollectionHandler) Get(c *gin.Context) {
	col, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, col)
}

// Create POST /collections
func (h *CollectionHandler) Create(c *gin.Context) {
	var req service.CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	col, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, col)
}

// SetVisibility PUT /collections/:id/visibility
func (h *CollectionHandler) SetVisibility(c *gin.Context) {
	var req struct {
		IsVisible *bool `json:"is_visible" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	col, err := h.svc.SetVisibility(c.Request.Context(), c.Param("id"), *req.IsVisible)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, col)
}

// Delete DELETE /collections/:id
func (h *CollectionHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	Success(c, nil)
}

// AssignProducts POST /collections/:id/products
func (h *CollectionHandler) AssignProducts(c *gin.Context) {
	var req service.AssignProductsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	col, err := h.svc.AssignProducts(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, col)
}

// RemoveProduct DELETE /collections/:id/products/:productId
func (h *CollectionHandler) RemoveProduct(c *gin.Context) {
	col, err := h.svc.RemoveProduct(c.Request.Context(), c.Param("id"), c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, col)
}
