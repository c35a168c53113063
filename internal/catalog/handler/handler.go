package handler

import (
	"errors"
	"strconv"

	"github.com/bitfantasy/gemflow/internal/catalog/repository"
	"github.com/bitfantasy/gemflow/internal/catalog/service"
	"github.com/gin-gonic/gin"
)

// Handlers 目录域处理器集合
type Handlers struct {
	Material    *MaterialHandler
	Taxonomy    *TaxonomyHandler
	Product     *ProductHandler
	Collection  *CollectionHandler
	Stage       *StageHandler
	Distributor *DistributorHandler
}

// NewHandlers 创建目录域处理器集合
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Material:    NewMaterialHandler(svc.Material, svc.Metal),
		Taxonomy:    NewTaxonomyHandler(svc.Taxonomy),
		Product:     NewProductHandler(svc.Product),
		Collection:  NewCollectionHandler(svc.Collection),
		Stage:       NewStageHandler(svc.Stage),
		Distributor: NewDistributorHandler(svc.Distributor),
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

// Conflict 业务冲突响应
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
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

// GetDistributorID 从上下文获取经销商ID（管理员为空）
func GetDistributorID(c *gin.Context) string {
	id, _ := c.Get("distributor_id")
	if s, ok := id.(string); ok {
		return s
	}
	return ""
}

// respondError 业务错误到响应的统一映射
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "记录不存在")
	case errors.Is(err, service.ErrDuplicateName):
		Conflict(c, "名称已存在")
	case errors.Is(err, service.ErrBaseMetalConflict):
		Conflict(c, "该材质已有基准金属（换算系数1.0）")
	case errors.Is(err, service.ErrInUse):
		Conflict(c, "记录已被引用，无法删除")
	case errors.Is(err, service.ErrInvalidStageType):
		BadRequest(c, "无效的工序类型")
	default:
		InternalError(c, err.Error())
	}
}
