package handler

import (
	"fmt"
	"time"

	"github.com/bitfantasy/gemflow/internal/order/service"
	"github.com/gin-gonic/gin"
)

// ReportHandler 重量报表处理器
type ReportHandler struct {
	svc *service.ReportService
}

func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// Get GET /reports/weight?mode=...
func (h *ReportHandler) Get(c *gin.Context) {
	var req service.ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	report, err := h.svc.Build(c.Request.Context(), &req)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	Success(c, report)
}

// Export GET /reports/weight/export?mode=...
func (h *ReportHandler) Export(c *gin.Context) {
	var req service.ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	f, err := h.svc.Export(c.Request.Context(), &req)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("Weight_Report_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write excel: "+err.Error())
	}
}
