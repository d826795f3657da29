package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Injamhossan/contest-arena/internal/api/handler/v1/request"
	"github.com/Injamhossan/contest-arena/internal/api/handler/v1/response"
	"github.com/Injamhossan/contest-arena/internal/api/middleware"
	"github.com/Injamhossan/contest-arena/internal/domain"
)

type PaymentService interface {
	BeginPayment(ctx context.Context, sess domain.Session, contestID uint, typ domain.PaymentType, declared decimal.Decimal) (domain.Payment, error)
	ConfirmPayment(ctx context.Context, sess domain.Session, paymentID uint, processorRef string) (domain.Payment, error)
	GetPayment(ctx context.Context, sess domain.Session, id uint) (domain.Payment, error)
	ListPayments(ctx context.Context, sess domain.Session, filter domain.PaymentFilter) ([]domain.Payment, error)
}

type PaymentHandler struct {
	svc PaymentService
}

func NewPaymentHandler(svc PaymentService) *PaymentHandler {
	return &PaymentHandler{
		svc: svc,
	}
}

// HandleBeginPayment godoc
// @Summary      Open a payment intent
// @Description  Repeating the call while a payment is pending returns the same payment and client secret.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request  body      request.BeginPaymentRequest  true  "payment"
// @Success      201  {object}  domain.Payment
// @Failure      402  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      503  {object}  response.Err
// @Router       /payments/intents [post]
// @Security     BearerAuth
func (h *PaymentHandler) HandleBeginPayment(ctx *gin.Context) {
	var req request.BeginPaymentRequest
	if !bindJSON(ctx, &req) {
		return
	}

	payment, err := h.svc.BeginPayment(ctx.Request.Context(), middleware.Session(ctx),
		req.ContestID, domain.PaymentType(req.PaymentType), req.Amount)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusCreated, payment)
}

// HandleConfirmPayment godoc
// @Summary      Confirm a payment with the processor
// @Description  The status is taken from the processor, never from the caller. A payment still processing stays pending.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        paymentID  path      int                            true  "Payment ID"
// @Param        request    body      request.ConfirmPaymentRequest  true  "processor reference"
// @Success      200  {object}  domain.Payment
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      503  {object}  response.Err
// @Router       /payments/{paymentID}/confirm [post]
// @Security     BearerAuth
func (h *PaymentHandler) HandleConfirmPayment(ctx *gin.Context) {
	id, ok := pathID(ctx, "paymentID")
	if !ok {
		return
	}
	var req request.ConfirmPaymentRequest
	if !bindJSON(ctx, &req) {
		return
	}

	payment, err := h.svc.ConfirmPayment(ctx.Request.Context(), middleware.Session(ctx), id, req.ProcessorRef)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, payment)
}

// HandleGetPayment godoc
// @Summary      Get a payment
// @Tags         payments
// @Produce      json
// @Param        paymentID  path      int  true  "Payment ID"
// @Success      200  {object}  domain.Payment
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Router       /payments/{paymentID} [get]
// @Security     BearerAuth
func (h *PaymentHandler) HandleGetPayment(ctx *gin.Context) {
	id, ok := pathID(ctx, "paymentID")
	if !ok {
		return
	}

	payment, err := h.svc.GetPayment(ctx.Request.Context(), middleware.Session(ctx), id)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, payment)
}

// HandleListPayments godoc
// @Summary      List payments
// @Description  Users see their own payments. Admins see all and may filter on needs_refund.
// @Tags         payments
// @Produce      json
// @Param        contest_id    query     int     false  "Contest ID"
// @Param        payment_type  query     string  false  "creation, entry or update"
// @Param        status        query     string  false  "pending, completed or failed"
// @Param        needs_refund  query     bool    false  "refund flag"
// @Success      200  {array}   domain.Payment
// @Failure      400  {object}  response.Err
// @Router       /payments [get]
// @Security     BearerAuth
func (h *PaymentHandler) HandleListPayments(ctx *gin.Context) {
	var q request.ListPaymentsQuery
	if !bindQuery(ctx, &q) {
		return
	}

	payments, err := h.svc.ListPayments(ctx.Request.Context(), middleware.Session(ctx), q.Filter())
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, payments)
}
