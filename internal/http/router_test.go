package http_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/pawfund/internal/campaign"
	"github.com/MrJamesThe3rd/pawfund/internal/checkout"
	"github.com/MrJamesThe3rd/pawfund/internal/export"
	"github.com/MrJamesThe3rd/pawfund/internal/fx"
	apihttp "github.com/MrJamesThe3rd/pawfund/internal/http"
	"github.com/MrJamesThe3rd/pawfund/internal/http/auth"
	httpcampaign "github.com/MrJamesThe3rd/pawfund/internal/http/campaign"
	httpcheckout "github.com/MrJamesThe3rd/pawfund/internal/http/checkout"
	httpwebhook "github.com/MrJamesThe3rd/pawfund/internal/http/webhook"
	"github.com/MrJamesThe3rd/pawfund/internal/reconcile"
	"github.com/MrJamesThe3rd/pawfund/internal/webhook"
)

func newTestRouter(t *testing.T) http.Handler {
	ctrl := gomock.NewController(t)

	repo := campaign.NewMockRepository(ctrl)
	svc := campaign.NewService(repo)
	issuer := checkout.NewIssuer(svc, fx.NewStatic(decimal.RequireFromString("0.002")), checkout.NewMockGateway(ctrl), checkout.Config{
		CampaignCurrency:   "kzt",
		SettlementCurrency: "usd",
		MinimumCharge:      decimal.RequireFromString("0.50"),
	})

	return apihttp.New(
		httpcampaign.NewHandler(svc, export.NewService(svc, "kzt"), "kzt"),
		httpcheckout.NewHandler(issuer),
		httpwebhook.NewHandler(webhook.NewVerifier("whsec_test"), reconcile.New(repo)),
		auth.NewMiddleware("jwt-secret").Handler,
		[]string{"https://pawfund.example"},
	)
}

func TestRouter(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{name: "Health", method: http.MethodGet, path: "/healthz", wantStatus: http.StatusOK, wantBody: "ok"},
		{
			name:       "CheckoutRequiresAuth",
			method:     http.MethodPost,
			path:       "/api/v1/campaigns/5b1f0a8e-4a4f-4b1e-9f53-8f1d2f3c4b5a/checkout",
			body:       `{"requestedAmount": 100}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "WebhookSkipsAuth",
			method:     http.MethodPost,
			path:       "/payments/webhook",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
		},
		{name: "UnknownRoute", method: http.MethodGet, path: "/api/v1/pets", wantStatus: http.StatusNotFound},
	}

	router := newTestRouter(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}
