package checkout

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/pawfund/internal/campaign"
	"github.com/MrJamesThe3rd/pawfund/internal/checkout"
	"github.com/MrJamesThe3rd/pawfund/internal/fx"
	"github.com/MrJamesThe3rd/pawfund/internal/http/auth"
	"github.com/MrJamesThe3rd/pawfund/internal/http/respond"
)

type Handler struct {
	issuer *checkout.Issuer
}

func NewHandler(issuer *checkout.Issuer) *Handler {
	return &Handler{issuer: issuer}
}

// Routes expects to be mounted under the campaigns prefix behind the auth
// middleware.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/{id}/checkout", h.open)
}

type openRequest struct {
	RequestedAmount decimal.Decimal `json:"requestedAmount"`
}

type openResponse struct {
	RedirectURL    string          `json:"redirectUrl"`
	SessionID      string          `json:"sessionId"`
	ChargeAmount   decimal.Decimal `json:"chargeAmount"`
	ConversionRate decimal.Decimal `json:"conversionRate"`
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	campaignID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_id", "invalid campaign id")
		return
	}

	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	res, err := h.issuer.Open(r.Context(), campaignID, auth.DonorID(r.Context()), req.RequestedAmount)
	if err != nil {
		status, code := classify(err)
		if status >= http.StatusInternalServerError {
			slog.Error("failed to open checkout session", "campaign_id", campaignID, "error", err)
		}

		respond.Error(w, status, code, err.Error())

		return
	}

	respond.JSON(w, http.StatusCreated, openResponse{
		RedirectURL:    res.RedirectURL,
		SessionID:      res.SessionID,
		ChargeAmount:   res.ChargeAmount,
		ConversionRate: res.ConversionRate,
	})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, checkout.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, checkout.ErrMissingDonor):
		return http.StatusBadRequest, "missing_donor"
	case errors.Is(err, checkout.ErrBelowMinimum):
		return http.StatusBadRequest, "below_gateway_minimum"
	case errors.Is(err, campaign.ErrNotFound):
		return http.StatusNotFound, "campaign_not_found"
	case errors.Is(err, checkout.ErrAlreadyFunded):
		return http.StatusConflict, "campaign_already_funded"
	case errors.Is(err, checkout.ErrExceedsRemaining):
		return http.StatusUnprocessableEntity, "amount_exceeds_remaining"
	case errors.Is(err, fx.ErrRateUnavailable):
		return http.StatusServiceUnavailable, "exchange_rate_unavailable"
	case errors.Is(err, checkout.ErrGatewayUnavailable):
		return http.StatusBadGateway, "gateway_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
