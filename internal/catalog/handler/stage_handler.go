package handler

import (
	"github.com/bitfantasy/gemflow/internal/catalog/service"
	"github.com/gin-gonic/gin"
)

// StageHandler 工序定义处理器
type StageHandler struct {
	svc *service.StageService
}

func NewStageHandler(svc *service.StageService) *StageHandler {
	return &StageHandler{svc: svc}
}

// List GET /stages
func (h *StageHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		InternalError(c, "获取工序列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// Create POST /stages
func (h *StageHandler) Create(c *gin.Context) {
	var req service.CreateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	s, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, s)
}

// Update PUT /stages/:id
func (h *StageHandler) Update(c *gin.Context) {
	var req service.UpdateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	s, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, s)
}

// Delete DELETE /stages/:id
func (h *StageHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	Success(c, nil)
}

// ReorderRequest 工序重排请求
type ReorderRequest struct {
	OrderedIDs []string `json:"ordered_ids" binding:"required"`
}

// Reorder PUT /stages/reorder
func (h *StageHandler) Reorder(c *gin.Context) {
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if err := h.svc.Reorder(c.Request.Context(), req.OrderedIDs); err != nil {
		respondError(c, err)
		return
	}
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		InternalError(c, "获取工序列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}
