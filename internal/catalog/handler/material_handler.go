package handler

import (
	"github.com/bitfantasy/gemflow/internal/catalog/service"
	"github.com/gin-gonic/gin"
)

// MaterialHandler 材质/金属注册表处理器
type MaterialHandler struct {
	materialSvc *service.MaterialService
	metalSvc    *service.MetalService
}

func NewMaterialHandler(materialSvc *service.MaterialService, metalSvc *service.MetalService) *MaterialHandler {
	return &MaterialHandler{materialSvc: materialSvc, metalSvc: metalSvc}
}

// ListMaterials GET /materials
func (h *MaterialHandler) ListMaterials(c *gin.Context) {
	visibleOnly := c.Query("visible_only") == "true" || GetDistributorID(c) != ""
	items, err := h.materialSvc.List(c.Request.Context(), visibleOnly)
	if err != nil {
		InternalError(c, "获取材质列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// CreateMaterial POST /materials
func (h *MaterialHandler) CreateMaterial(c *gin.Context) {
	var req service.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	m, err := h.materialSvc.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, m)
}

// UpdateMaterial PUT /materials/:id
func (h *MaterialHandler) UpdateMaterial(c *gin.Context) {
	var req service.UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	m, err := h.materialSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, m)
}

// ToggleMaterialVisibility PUT /materials/:id/visibility
func (h *MaterialHandler) ToggleMaterialVisibility(c *gin.Context) {
	m, err := h.materialSvc.ToggleVisibility(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, m)
}

// DeleteMaterial DELETE /materials/:id
func (h *MaterialHandler) DeleteMaterial(c *gin.Context) {
	if err := h.materialSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	Success(c, nil)
}

// ListMetals GET /metals
func (h *MaterialHandler) ListMetals(c *gin.Context) {
	visibleOnly := c.Query("visible_only") == "true" || GetDistributorID(c) != ""
	items, err := h.metalSvc.List(c.Request.Context(), visibleOnly)
	if err != nil {
		InternalError(c, "获取金属列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// CreateMetal POST /metals
func (h *MaterialHandler) CreateMetal(c *gin.Context) {
	var req service.CreateMetalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	m, err := h.metalSvc.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, m)
}

// UpdateMetal PUT /metals/:id
func (h *MaterialHandler) UpdateMetal(c *gin.Context) {
	var req service.UpdateMetalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	m, err := h.metalSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, m)
}

// ToggleMetalVisibility PUT /metals/:id/visibility
func (h *MaterialHandler) ToggleMetalVisibility(c *gin.Context) {
	m, err := h.metalSvc.ToggleVisibility(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, m)
}

// DeleteMetal DELETE /metals/:id
func (h *MaterialHandler) DeleteMetal(c *gin.Context) {
	if err := h.metalSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	Success(c, nil)
}
