package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/luisovando/payout-orchestrator/internal/domain/payout"
	httpMW "github.com/luisovando/payout-orchestrator/internal/http/middleware"
	"github.com/luisovando/payout-orchestrator/internal/http/response"
	"github.com/luisovando/payout-orchestrator/internal/platform/ctxutil"
	"github.com/luisovando/payout-orchestrator/internal/platform/logger"
	"github.com/luisovando/payout-orchestrator/internal/services"
)

// CreatePayoutRequest accepts the amount as a JSON string ("1000.50") or
// number. companyId is parsed by toCommand so any UUID casing is accepted.
type CreatePayoutRequest struct {
	CompanyID      string           `json:"companyId" binding:"required"`
	Amount         *decimal.Decimal `json:"amount" binding:"required"`
	Currency       string           `json:"currency" binding:"required"`
	IdempotencyKey string           `json:"idempotencyKey" binding:"required"`
}

type CreatePayoutResponse struct {
	PayoutID uuid.UUID     `json:"payoutId"`
	Status   payout.Status `json:"status"`
}

type PayoutView struct {
	PayoutID       uuid.UUID     `json:"payoutId"`
	CompanyID      uuid.UUID     `json:"companyId"`
	Amount         string        `json:"amount"`
	Currency       string        `json:"currency"`
	Status         payout.Status `json:"status"`
	IdempotencyKey string        `json:"idempotencyKey"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

type PayoutHandler struct {
	log     *logger.Logger
	payouts services.PayoutService
}

func NewPayoutHandler(log *logger.Logger, payouts services.PayoutService) *PayoutHandler {
	return &PayoutHandler{
		log:     log.With("handler", "PayoutHandler"),
		payouts: payouts,
	}
}

// POST /payouts
func (h *PayoutHandler) CreatePayout(c *gin.Context) {
	var req CreatePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug("Create payout request rejected", "error", err)
		response.RespondError(c, http.StatusBadRequest, CodeRequestInvalid, errors.New("request body is invalid"))
		return
	}

	httpMW.AddLogFields(c, "company_id", req.CompanyID, "idempotency_key", req.IdempotencyKey)
	cmd, err := req.toCommand()
	if err != nil {
		h.fail(c, err)
		return
	}

	res, err := h.payouts.Create(c.Request.Context(), cmd)
	if err != nil {
		h.fail(c, err)
		return
	}
	httpMW.AddLogFields(c, "payout_id", res.PayoutID, "created", res.Created)

	body := CreatePayoutResponse{PayoutID: res.PayoutID, Status: res.Status}
	if res.Created {
		response.RespondCreated(c, "/payouts/"+res.PayoutID.String(), body)
		return
	}
	response.RespondOK(c, body)
}

// GET /payouts/:id
func (h *PayoutHandler) GetPayout(c *gin.Context) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, CodeInvalidPayoutID, errors.New("payout id must be a UUID"))
		return
	}
	p, err := h.payouts.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.RespondOK(c, PayoutView{
		PayoutID:       p.ID,
		CompanyID:      p.CompanyID,
		Amount:         p.Amount.StringFixed(2),
		Currency:       p.Currency,
		Status:         p.Status,
		IdempotencyKey: p.IdempotencyKey,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	})
}

func (r CreatePayoutRequest) toCommand() (payout.CreatePayoutCommand, error) {
	companyID, err := uuid.Parse(strings.TrimSpace(r.CompanyID))
	if err != nil {
		return payout.CreatePayoutCommand{}, payout.ValidationError("companyId must be a UUID")
	}
	money, err := payout.NewMoney(*r.Amount, r.Currency)
	if err != nil {
		return payout.CreatePayoutCommand{}, err
	}
	return payout.CreatePayoutCommand{
		CompanyID:      companyID,
		Money:          money,
		IdempotencyKey: r.IdempotencyKey,
	}, nil
}

func (h *PayoutHandler) fail(c *gin.Context, err error) {
	if isServerError(err) {
		fields := []interface{}{"error", err, "code", string(payout.CodeOf(err))}
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			fields = append(fields, "request_id", td.RequestID)
		}
		h.log.Error("Payout request failed", fields...)
	}
	response.RespondAPIError(c, toAPIError(err))
}

