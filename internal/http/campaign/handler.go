package campaign

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/MrJamesThe3rd/pawfund/internal/campaign"
	"github.com/MrJamesThe3rd/pawfund/internal/export"
	"github.com/MrJamesThe3rd/pawfund/internal/http/respond"
)

type Handler struct {
	svc      *campaign.Service
	exporter *export.Service
	currency string
}

func NewHandler(svc *campaign.Service, exporter *export.Service, currency string) *Handler {
	return &Handler{svc: svc, exporter: exporter, currency: currency}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{id}/donations", h.donations)
	r.Get("/{id}/export", h.export)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := campaign.ListFilter{}

	switch s := campaign.State(r.URL.Query().Get("state")); s {
	case "":
	case campaign.StateActive, campaign.StateCompleted:
		filter.State = &s
	default:
		respond.Error(w, http.StatusBadRequest, "invalid_state", "state must be active or completed")
		return
	}

	cs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list campaigns", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal_error", "internal error")

		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(cs, h.currency, requestLanguage(r)))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	c, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeLookupError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(c, h.currency, requestLanguage(r)))
}

func (h *Handler) donations(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if _, err := h.svc.Get(r.Context(), id); err != nil {
		writeLookupError(w, err)
		return
	}

	ds, err := h.svc.Donations(r.Context(), id)
	if err != nil {
		slog.Error("failed to list donations", "campaign_id", id, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal_error", "internal error")

		return
	}

	respond.JSON(w, http.StatusOK, toDonationList(ds))
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	c, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeLookupError(w, err)
		return
	}

	// Buffered so a failure can still be reported as JSON.
	var buf bytes.Buffer
	if err := h.exporter.Ledger(r.Context(), id, &buf); err != nil {
		writeLookupError(w, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(c, time.Now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write ledger", "campaign_id", id, "error", err)
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_id", "invalid campaign id")
		return uuid.Nil, false
	}

	return id, true
}

func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, campaign.ErrNotFound) {
		respond.Error(w, http.StatusNotFound, "campaign_not_found", "campaign not found")
		return
	}

	slog.Error("failed to load campaign", "error", err)
	respond.Error(w, http.StatusInternalServerError, "internal_error", "internal error")
}

func requestLanguage(r *http.Request) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return language.English
	}

	return tags[0]
}
