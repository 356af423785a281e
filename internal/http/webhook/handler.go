package webhook

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/pawfund/internal/campaign"
	"github.com/MrJamesThe3rd/pawfund/internal/http/respond"
	"github.com/MrJamesThe3rd/pawfund/internal/reconcile"
	"github.com/MrJamesThe3rd/pawfund/internal/webhook"
)

const (
	SignatureHeader = "Stripe-Signature"

	maxBodyBytes = 64 << 10
)

type Handler struct {
	verifier   *webhook.Verifier
	reconciler *reconcile.Reconciler
}

func NewHandler(verifier *webhook.Verifier, reconciler *reconcile.Reconciler) *Handler {
	return &Handler{verifier: verifier, reconciler: reconciler}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/webhook", h.receive)
}

type receiveResponse struct {
	Outcome           reconcile.Outcome `json:"outcome"`
	EventID           string            `json:"eventId,omitempty"`
	DonationID        *uuid.UUID        `json:"donationId,omitempty"`
	NewRaisedAmount   *decimal.Decimal  `json:"newRaisedAmount,omitempty"`
	CampaignCompleted bool              `json:"campaignCompleted"`
}

// receive must see the body byte-for-byte as the provider signed it, so it is
// read raw and never decoded before verification.
func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(w, http.StatusRequestEntityTooLarge, "payload_too_large", "payload too large")
			return
		}

		respond.Error(w, http.StatusBadRequest, "invalid_body", "failed to read body")

		return
	}

	evt, err := h.verifier.Verify(raw, r.Header.Get(SignatureHeader))
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			slog.Warn("rejected webhook with invalid signature", "remote_addr", r.RemoteAddr, "error", err)
			respond.Error(w, http.StatusBadRequest, "invalid_signature", "invalid signature")

			return
		}

		slog.Warn("rejected malformed webhook", "error", err)
		respond.Error(w, http.StatusBadRequest, "malformed_event", err.Error())

		return
	}

	res, err := h.reconciler.Reconcile(r.Context(), evt)
	if err != nil {
		h.writeReconcileError(w, evt, err)
		return
	}

	if res.Outcome == reconcile.OutcomeIgnored {
		slog.Debug("ignored webhook event", "event_id", evt.ID, "type", evt.ProviderType)
	} else {
		slog.Info("reconciled payment",
			"event_id", evt.ID,
			"outcome", res.Outcome,
			"campaign_id", res.CampaignID,
			"raised", res.NewRaisedAmount,
			"completed_now", res.CompletedNow,
		)
	}

	resp := receiveResponse{
		Outcome:           res.Outcome,
		EventID:           evt.ID,
		CampaignCompleted: res.CampaignCompleted,
	}

	if res.DonationID != uuid.Nil {
		resp.DonationID = &res.DonationID
	}

	if res.Outcome == reconcile.OutcomeApplied {
		resp.NewRaisedAmount = &res.NewRaisedAmount
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) writeReconcileError(w http.ResponseWriter, evt *webhook.Event, err error) {
	switch {
	case errors.Is(err, campaign.ErrIncompleteMetadata):
		slog.Warn("webhook metadata incomplete", "event_id", evt.ID, "error", err)
		respond.Error(w, http.StatusBadRequest, "incomplete_metadata", err.Error())
	case errors.Is(err, campaign.ErrNotFound):
		slog.Error("webhook references unknown campaign", "event_id", evt.ID, "error", err)
		respond.Error(w, http.StatusNotFound, "campaign_not_found", "campaign not found")
	case errors.Is(err, reconcile.ErrTransient):
		slog.Error("failed to reconcile payment, provider will retry", "event_id", evt.ID, "error", err)
		respond.Error(w, http.StatusServiceUnavailable, "retryable_failure", "temporary failure, retry later")
	default:
		slog.Error("failed to reconcile payment", "event_id", evt.ID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
