package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// HTTPSource reads rates from a Frankfurter-compatible API:
//
//	GET {base}/latest?from=EUR&to=USD -> {"base":"EUR","rates":{"USD":1.08}}
type HTTPSource struct {
	client  *http.Client
	baseURL string
}

func NewHTTPSource(baseURL string) *HTTPSource {
	return &HTTPSource{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type latestResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

func (s *HTTPSource) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if sameCurrency(from, to) {
		return decimal.NewFromInt(1), nil
	}

	from, to = strings.ToUpper(from), strings.ToUpper(to)

	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/latest?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: executing request: %w", ErrRateUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: unexpected status code %d", ErrRateUnavailable, resp.StatusCode)
	}

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("%w: decoding response: %w", ErrRateUnavailable, err)
	}

	rate, ok := body.Rates[to]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: no %s rate for %s", ErrRateUnavailable, to, from)
	}

	return rate, nil
}
