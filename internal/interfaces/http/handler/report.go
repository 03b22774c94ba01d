package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	reportapp "github.com/petstore/backend/internal/application/report"
	"github.com/petstore/backend/internal/domain/report"
)

// ReportHandler serves the dashboard and period lookups
type ReportHandler struct {
	BaseHandler
	dashboardService *reportapp.DashboardService
	loc              *time.Location
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(dashboardService *reportapp.DashboardService, loc *time.Location) *ReportHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ReportHandler{
		dashboardService: dashboardService,
		loc:              loc,
	}
}

// PeriodResponse is a resolved period with its bucket starts
type PeriodResponse struct {
	report.Period
	Buckets []time.Time `json:"buckets"`
}

// customBounds reads the inclusive from/to days used by period=custom
func (h *ReportHandler) customBounds(c *gin.Context) (from, to *time.Time, ok bool) {
	from, err := queryTime(c, "from", h.loc)
	if err != nil {
		h.BadRequest(c, "Invalid from date: "+err.Error())
		return nil, nil, false
	}
	to, err = queryTime(c, "to", h.loc)
	if err != nil {
		h.BadRequest(c, "Invalid to date: "+err.Error())
		return nil, nil, false
	}
	return from, to, true
}

// Dashboard handles GET /reports/dashboard?period=&from=&to=
func (h *ReportHandler) Dashboard(c *gin.Context) {
	from, to, ok := h.customBounds(c)
	if !ok {
		return
	}

	dashboard, err := h.dashboardService.Dashboard(c.Request.Context(), c.Query("period"), from, to)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, dashboard)
}

// Period handles GET /reports/period?period=&from=&to=
func (h *ReportHandler) Period(c *gin.Context) {
	from, to, ok := h.customBounds(c)
	if !ok {
		return
	}

	period, err := h.dashboardService.Period(c.Query("period"), from, to)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, PeriodResponse{
		Period:  period,
		Buckets: report.Buckets(period.Current.Start, period.Current.End, period.Granularity),
	})
}
