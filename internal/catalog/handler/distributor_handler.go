package handler

import (
	"github.com/bitfantasy/gemflow/internal/catalog/service"
	"github.com/gin-gonic/gin"
)

// DistributorHandler 经销商档案处理器
type DistributorHandler struct {
	svc *service.DistributorService
}

func NewDistributorHandler(svc *service.DistributorService) *DistributorHandler {
	return &DistributorHandler{svc: svc}
}

// List GET /distributors
func (h *DistributorHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		InternalError(c, "获取经销商列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// Get GET /distributors/:id
func (h *DistributorHandler) Get(c *gin.Context) {
	d, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, d)
}

// Create POST /distributors
func (h *DistributorHandler) Create(c *gin.Context) {
	var req service.CreateDistributorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	d, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, d)
}

// Update PUT /distributors/:id
func (h *DistributorHandler) Update(c *gin.Context) {
	var req service.UpdateDistributorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	d, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, d)
}

// SetStatus PUT /distributors/:id/status
func (h *DistributorHandler) SetStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	d, err := h.svc.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, d)
}
