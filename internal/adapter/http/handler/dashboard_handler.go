package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"systempay-gateway/internal/adapter/http/dto"
	"systempay-gateway/internal/core/domain"
	"systempay-gateway/internal/core/ports"
	"systempay-gateway/pkg/apperror"
	"systempay-gateway/pkg/response"
)

// DashboardHandler exposes the operator reporting endpoints.
type DashboardHandler struct {
	reporting ports.ReportingService
}

func NewDashboardHandler(reporting ports.ReportingService) *DashboardHandler {
	return &DashboardHandler{reporting: reporting}
}

// ListTransactions handles GET /api/v1/dashboard/transactions.
// Filters: mode, order_ref, errors, from, to (unix seconds), page, page_size.
func (h *DashboardHandler) ListTransactions(c *gin.Context) {
	params := ports.LedgerListParams{
		OrderReference: c.Query("order_ref"),
		OnlyErrors:     c.Query("errors") == "true",
	}

	if m := c.Query("mode"); m != "" {
		mode := domain.TransactionMode(m)
		if mode != domain.ModeSubmit && mode != domain.ModeNotification {
			response.Error(c, apperror.Validation("mode must be SUBMIT or NOTIFICATION"))
			return
		}
		params.Mode = &mode
	}
	var err error
	if params.From, err = unixQuery(c, "from"); err != nil {
		response.Error(c, apperror.Validation("from must be a unix timestamp"))
		return
	}
	if params.To, err = unixQuery(c, "to"); err != nil {
		response.Error(c, apperror.Validation("to must be a unix timestamp"))
		return
	}
	params.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	params.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	items, total, err := h.reporting.ListTransactions(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.TransactionResponse, 0, len(items))
	for i := range items {
		out = append(out, toTransactionResponse(&items[i]))
	}

	totalPages := 0
	if params.PageSize > 0 {
		totalPages = int((total + int64(params.PageSize) - 1) / int64(params.PageSize))
	}
	response.OK(c, dto.TransactionListResponse{
		Items:      out,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	})
}

// GetTransaction handles GET /api/v1/dashboard/transactions/:id.
func (h *DashboardHandler) GetTransaction(c *gin.Context) {
	detail, err := h.reporting.GetTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.TransactionDetailResponse{
		TransactionResponse: toTransactionResponse(&detail.Transaction),
		ResultMessage:       detail.ResultMessage,
		SignatureValid:      detail.SignatureValid,
		Fields:              detail.Fields,
	})
}

// GetStats handles GET /api/v1/dashboard/stats?period=24h|7d|30d|all.
func (h *DashboardHandler) GetStats(c *gin.Context) {
	stats, err := h.reporting.GetStats(c.Request.Context(), c.Query("period"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.LedgerStatsResponse{
		TotalRecords:  stats.TotalRecords,
		Submissions:   stats.Submissions,
		Notifications: stats.Notifications,
		Complete:      stats.Complete,
		Rejected:      stats.Rejected,
		Errored:       stats.Errored,
		Captured:      stats.CapturedMinorUnits,
		Refunded:      stats.RefundedMinorUnits,
	})
}

func toTransactionResponse(t *domain.Transaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:             t.ID.String(),
		Mode:           string(t.Mode),
		OperationType:  string(t.OperationType),
		TransID:        t.TransID,
		TransDate:      t.TransDate,
		OrderReference: t.OrderReference,
		Amount:         t.Amount.String(),
		Currency:       t.CurrencyAlpha(),
		AuthResult:     t.AuthResult,
		ResultCode:     t.ResultCode,
		ErrorMessage:   t.ErrorMessage,
		Complete:       t.IsComplete(),
		CreatedAt:      t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func unixQuery(c *gin.Context, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
