// This file implements the reporting endpoints: the monthly visit
// roster (JSON or CSV export), procedure-tag frequencies, birth/death
// counts and the dashboard summary. All of them are read-only.
package handler

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/patientdex/patient-dex/internal/report"
)

// ReportStore is the aggregation surface the handler needs. The
// repository's ReportRepo satisfies this.
type ReportStore interface {
	MonthlyReport(ctx context.Context, year, month int) ([]report.PatientRow, error)
	TagFrequency(ctx context.Context) ([]report.TagCount, error)
	LifeStatusCounts(ctx context.Context) (map[string]int, error)
	DashboardSummary(ctx context.Context, year, month int) (report.Summary, error)
}

// ReportHandler bundles dependencies for report endpoints.
type ReportHandler struct {
	Reports ReportStore
}

func NewReportHandler(r ReportStore) *ReportHandler {
	return &ReportHandler{Reports: r}
}

// Monthly handles GET /v1/reports/monthly?year=YYYY&month=M. With
// format=csv the roster is returned as a downloadable CSV named by
// year and zero-padded month; otherwise as JSON.
func (h *ReportHandler) Monthly(c echo.Context) error {
	year, err := strconv.Atoi(c.QueryParam("year"))
	if err != nil || year < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "year required"})
	}
	month, err := strconv.Atoi(c.QueryParam("month"))
	if err != nil || month < 1 || month > 12 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "month must be 1-12"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Reports.MonthlyReport(ctx, year, month)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if c.QueryParam("format") == "csv" {
		var buf bytes.Buffer
		if err := report.WriteCSV(&buf, rows); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "encode csv failed"})
		}
		c.Response().Header().Set(echo.HeaderContentDisposition,
			`attachment; filename="`+report.CSVFileName(year, month)+`"`)
		return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"year":     year,
		"month":    month,
		"patients": rows,
	})
}

// Tags handles GET /v1/reports/tags: counts of every procedure tag
// across all visits, sorted descending.
func (h *ReportHandler) Tags(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	counts, err := h.Reports.TagFrequency(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tags": counts})
}

// LifeStatus handles GET /v1/reports/life-status: patient counts for
// the two terminal statuses. ALIVE is excluded by design.
func (h *ReportHandler) LifeStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	counts, err := h.Reports.LifeStatusCounts(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"counts": counts})
}

// Dashboard handles GET /v1/dashboard with headline numbers for the
// current month.
func (h *ReportHandler) Dashboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	s, err := h.Reports.DashboardSummary(ctx, now.Year(), int(now.Month()))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, s)
}
