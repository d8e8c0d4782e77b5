package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"systempay-gateway/internal/adapter/http/dto"
	"systempay-gateway/internal/core/domain"
	"systempay-gateway/internal/core/ports"
	"systempay-gateway/pkg/apperror"
	"systempay-gateway/pkg/response"
)

// resultCancelled is the vads_result code reported when the buyer
// abandons the hosted payment page.
const resultCancelled = "17"

// PaymentHandler exposes submission building and notification intake.
type PaymentHandler struct {
	engine ports.ReconciliationEngine
}

func NewPaymentHandler(engine ports.ReconciliationEngine) *PaymentHandler {
	return &PaymentHandler{engine: engine}
}

// Submit handles POST /api/v1/payments/submit. It returns the signed
// field set the storefront must POST to the hosted payment page.
func (h *PaymentHandler) Submit(c *gin.Context) {
	var req dto.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation("invalid submission request: "+err.Error()))
		return
	}

	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		response.Error(c, apperror.ErrInvalidAmount())
		return
	}

	order := domain.OrderSnapshot{
		Number:          req.OrderReference,
		TotalAmount:     amount,
		Currency:        req.Currency,
		ShippingName:    req.ShippingName,
		Customer:        toCustomer(req.Customer),
		BillingAddress:  toAddress(req.BillingAddress),
		ShippingAddress: toAddress(req.ShippingAddress),
	}

	sub, err := h.engine.BuildSubmission(c.Request.Context(), order, req.Overrides)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.SubmitResponse{
		GatewayURL:    sub.GatewayURL,
		Method:        http.MethodPost,
		Fields:        sub.Fields,
		TransactionID: sub.Transaction.ID.String(),
		TransID:       sub.Transaction.TransID,
		TransDate:     sub.Transaction.TransDate,
	})
}

// Notify handles POST /api/v1/payments/ipn, the server-to-server
// notification endpoint the gateway calls. A rejected transaction is a
// correctly delivered notification, so it still gets a 200; anything
// the gateway should not retry (bad form, bad signature) gets a 400.
func (h *PaymentHandler) Notify(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		response.Error(c, apperror.Validation("malformed form body"))
		return
	}

	decision, err := h.engine.ProcessNotification(c.Request.Context(), c.Request.PostForm)
	if err != nil {
		h.respondNotification(c, c.Request.PostForm, err)
		return
	}

	status := "processed"
	if decision.AlreadyApplied {
		status = "already_processed"
	}
	t := decision.Transaction
	response.OK(c, dto.NotificationResponse{
		Status:         status,
		Direction:      string(decision.Direction),
		OrderReference: t.OrderReference,
		TransID:        t.TransID,
		Amount:         t.Amount.String(),
		ResultCode:     t.ResultCode,
		ResultMessage:  domain.ResultMessage(t.ResultCode),
	})
}

// Replay handles GET /api/v1/payments/ipn, an operator-only re-run of a
// notification from query parameters. Idempotency makes the replay safe.
func (h *PaymentHandler) Replay(c *gin.Context) {
	form := c.Request.URL.Query()
	decision, err := h.engine.ProcessNotification(c.Request.Context(), form)
	if err != nil {
		h.respondNotification(c, form, err)
		return
	}

	status := "processed"
	if decision.AlreadyApplied {
		status = "already_processed"
	}
	t := decision.Transaction
	response.OK(c, dto.NotificationResponse{
		Status:         status,
		Direction:      string(decision.Direction),
		OrderReference: t.OrderReference,
		TransID:        t.TransID,
		Amount:         t.Amount.String(),
		ResultCode:     t.ResultCode,
		ResultMessage:  domain.ResultMessage(t.ResultCode),
	})
}

// Return handles POST /api/v1/payments/return, where the gateway sends
// the buyer's browser after the hosted page. It runs the same pipeline
// as Notify but answers in buyer-facing terms.
func (h *PaymentHandler) Return(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		response.Error(c, apperror.Validation("malformed form body"))
		return
	}
	form := c.Request.PostForm

	decision, err := h.engine.ProcessNotification(c.Request.Context(), form)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == "GW_003" {
			status := "rejected"
			message := "The payment was refused."
			if form.Get("vads_result") == resultCancelled {
				status = "cancelled"
				message = "The payment was cancelled."
			}
			response.OK(c, dto.ReturnResponse{
				OrderReference: form.Get("vads_order_id"),
				Status:         status,
				Message:        message,
			})
			return
		}
		response.Error(c, err)
		return
	}

	status := "paid"
	if decision.AlreadyApplied {
		status = "already_paid"
	}
	response.OK(c, dto.ReturnResponse{
		OrderReference: decision.Transaction.OrderReference,
		Status:         status,
		Message:        "Thank you, your payment has been confirmed.",
	})
}

// respondNotification maps a pipeline error onto the gateway-facing
// response. GW_003 means the notification itself was authentic and well
// formed, so the gateway must not redeliver it.
func (h *PaymentHandler) respondNotification(c *gin.Context, form url.Values, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Code == "GW_003" {
		code := form.Get("vads_result")
		response.OK(c, dto.NotificationResponse{
			Status:         "rejected",
			OrderReference: form.Get("vads_order_id"),
			TransID:        form.Get("vads_trans_id"),
			ResultCode:     code,
			ResultMessage:  domain.ResultMessage(code),
		})
		return
	}
	response.Error(c, err)
}

func toCustomer(req *dto.CustomerRequest) *domain.Customer {
	if req == nil {
		return nil
	}
	return &domain.Customer{ID: req.ID, Name: req.Name, Email: req.Email}
}

func toAddress(req *dto.AddressRequest) *domain.Address {
	if req == nil {
		return nil
	}
	return &domain.Address{
		Title:       req.Title,
		Line1:       req.Line1,
		Line2:       req.Line2,
		City:        req.City,
		State:       req.State,
		Zip:         req.Zip,
		CountryCode: req.CountryCode,
	}
}
