package handler

import (
	"errors"
	"strconv"

	"github.com/bitfantasy/gemflow/internal/order/repository"
	"github.com/bitfantasy/gemflow/internal/order/service"
	"github.com/bitfantasy/gemflow/internal/order/weight"
	"github.com/gin-gonic/gin"
)

// Handlers 订单域处理器集合
type Handlers struct {
	Order     *OrderHandler
	Dashboard *DashboardHandler
	Report    *ReportHandler
}

// NewHandlers 创建订单域处理器集合
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Order:     NewOrderHandler(svc.Order),
		Dashboard: NewDashboardHandler(svc.Dashboard),
		Report:    NewReportHandler(svc.Report),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse 列表响应结构
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Forbidden 禁止访问响应
func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict 业务冲突响应
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetDistributorID 从上下文获取经销商ID（管理员为空）
func GetDistributorID(c *gin.Context) string {
	id, _ := c.Get("distributor_id")
	if s, ok := id.(string); ok {
		return s
	}
	return ""
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

// respondError 业务错误到响应的统一映射
// 起订重量违规作为业务冲突返回，带材质、要求值与实际值
func respondError(c *gin.Context, err error) {
	var violation *weight.MinWeightViolation
	if errors.As(err, &violation) {
		c.JSON(409, Response{
			Code:    40901,
			Message: violation.Error(),
			Data:    violation,
		})
		return
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "记录不存在")
	case errors.Is(err, service.ErrEmptyCart):
		BadRequest(c, "订单至少包含一个行项")
	case errors.Is(err, service.ErrReasonRequired):
		BadRequest(c, "迁移到该工序必须填写原因")
	case errors.Is(err, service.ErrItemNotInOrder):
		BadRequest(c, "行项不属于该订单")
	case errors.Is(err, service.ErrDeliveryTooSoon):
		BadRequest(c, "交货日期早于最短交期")
	case errors.Is(err, service.ErrUnknownStage):
		BadRequest(c, "目标工序未注册")
	case errors.Is(err, service.ErrNothingToSplit):
		BadRequest(c, "请选择要拆分的行项")
	case errors.Is(err, service.ErrSplitWholeOrder):
		BadRequest(c, "不能拆走订单的全部行项")
	case errors.Is(err, service.ErrDistributorScope):
		Forbidden(c, "无权访问该订单")
	default:
		InternalError(c, err.Error())
	}
}
