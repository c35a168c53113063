package handler

import (
	"time"

	"github.com/bitfantasy/gemflow/internal/order/repository"
	"github.com/bitfantasy/gemflow/internal/order/service"
	"github.com/gin-gonic/gin"
)

// OrderHandler 订单处理器
type OrderHandler struct {
	svc *service.OrderService
}

func NewOrderHandler(svc *service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// Submit POST /orders
// 经销商身份下单时强制使用令牌中的经销商ID
func (h *OrderHandler) Submit(c *gin.Context) {
	var req service.SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if distributorID := GetDistributorID(c); distributorID != "" {
		req.DistributorID = distributorID
	}

	view, err := h.svc.Submit(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, view)
}

// List GET /orders
func (h *OrderHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)

	filter := repository.OrderFilter{
		DistributorID: c.Query("distributor_id"),
		Status:        c.Query("status"),
		OrderNumber:   c.Query("order_number"),
	}
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.From = &t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			end := t.AddDate(0, 0, 1).Add(-time.Second)
			filter.To = &end
		}
	}

	items, total, err := h.svc.List(c.Request.Context(), filter, GetDistributorID(c), page, pageSize)
	if err != nil {
		InternalError(c, "获取订单列表失败: "+err.Error())
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

// Get GET /orders/:id
// ListCADs GET /orders/cads?q= 含CAD文件产品的订单
func (h *OrderHandler) ListCADs(c *gin.Context) {
	orders, err := h.svc.ListWithCADFiles(c.Request.Context(), c.Query("q"))
	if err != nil {
		InternalError(c, "获取CAD订单失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": orders})
}

func (h *OrderHandler) Get(c *gin.Context) {
	view, err := h.svc.Get(c.Request.Context(), c.Param("id"), GetDistributorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, view)
}

// TransitionItem PUT /orders/:id/items/:itemId/stage
func (h *OrderHandler) TransitionItem(c *gin.Context) {
	var req service.TransitionItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	view, err := h.svc.TransitionItem(c.Request.Context(), c.Param("id"), c.Param("itemId"), &req, GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, view)
}

// Split POST /orders/:id/split
func (h *OrderHandler) Split(c *gin.Context) {
	var req service.SplitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	view, err := h.svc.SplitOrder(c.Request.Context(), c.Param("id"), &req, GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, view)
}

// UpdateItem PUT /orders/:id/items/:itemId
func (h *OrderHandler) UpdateItem(c *gin.Context) {
	var req service.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	view, err := h.svc.UpdateItemDetails(c.Request.Context(), c.Param("id"), c.Param("itemId"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, view)
}

// RepairStatus POST /orders/:id/repair-status
func (h *OrderHandler) RepairStatus(c *gin.Context) {
	view, err := h.svc.RepairOrderStatus(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, view)
}
