package handler

import (
	"time"

	"github.com/bitfantasy/gemflow/internal/order/service"
	"github.com/gin-gonic/gin"
)

// DashboardHandler 运营看板处理器
type DashboardHandler struct {
	svc *service.DashboardService
}

func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// Get GET /dashboard?range=THIS_WEEK 或 range=CUSTOM&from=...&to=...
func (h *DashboardHandler) Get(c *gin.Context) {
	preset := c.DefaultQuery("range", service.RangeAll)

	var from, to *time.Time
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			from = &t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			end := t.AddDate(0, 0, 1).Add(-time.Second)
			to = &end
		}
	}

	d, err := h.svc.Build(c.Request.Context(), preset, from, to)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	Success(c, d)
}
