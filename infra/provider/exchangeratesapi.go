package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amirasaad/fxconvert/pkg/config"
	"github.com/amirasaad/fxconvert/pkg/provider/exchange"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	// ExchangeRatesAPIName identifies tables produced by ExchangeRatesAPI.
	ExchangeRatesAPIName = "exchangeratesapi"
	maxResponseBytes     = 1 << 20
)

// latestResponse is the body of GET /latest.
// See: https://exchangeratesapi.io/documentation/
type latestResponse struct {
	Success   bool               `json:"success"`
	Timestamp int64              `json:"timestamp"`
	Base      string             `json:"base"`
	Date      string             `json:"date"`
	Rates     map[string]float64 `json:"rates"`
	Error     *apiError          `json:"error,omitempty"`
}

type apiError struct {
	Code int    `json:"code"`
	Type string `json:"type"`
	Info string `json:"info"`
}

func (e *apiError) String() string {
	if e == nil {
		return "unsuccessful response"
	}
	if e.Info != "" {
		return fmt.Sprintf("%s (%d): %s", e.Type, e.Code, e.Info)
	}
	return fmt.Sprintf("%s (%d)", e.Type, e.Code)
}

// ExchangeRatesAPI fetches rate tables from exchangeratesapi.io.
// Concurrent fetches of the same base share one request and outgoing
// requests are throttled.
type ExchangeRatesAPI struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	group      singleflight.Group
	logger     *slog.Logger
	now        func() time.Time
}

// NewExchangeRatesAPI creates the HTTP rate source from cfg.
func NewExchangeRatesAPI(cfg *config.RateSource, logger *slog.Logger) *ExchangeRatesAPI {
	if logger == nil {
		logger = slog.Default()
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		burst := cfg.BurstSize
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), burst)
	}
	return &ExchangeRatesAPI{
		apiKey:  cfg.ApiKey,
		baseURL: strings.TrimRight(cfg.ApiUrl, "/"),
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		limiter: limiter,
		logger:  logger.With(slog.String("component", "exchangeratesapi")),
		now:     time.Now,
	}
}

// FetchRates implements exchange.RateSource.
func (p *ExchangeRatesAPI) FetchRates(ctx context.Context, base string) (*exchange.RateTable, error) {
	ch := p.group.DoChan(base, func() (any, error) {
		return p.fetch(context.WithoutCancel(ctx), base)
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", exchange.ErrNetwork, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			p.logger.Debug("Shared in-flight rate fetch", "base", base)
		}
		return res.Val.(*exchange.RateTable), nil
	}
}

func (p *ExchangeRatesAPI) fetch(ctx context.Context, base string) (*exchange.RateTable, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %w", exchange.ErrNetwork, err)
		}
	}

	endpoint, err := url.Parse(p.baseURL + "/latest")
	if err != nil {
		return nil, fmt.Errorf("%w: invalid api url: %w", exchange.ErrAPI, err)
	}
	q := endpoint.Query()
	if p.apiKey != "" {
		q.Set("access_key", p.apiKey)
	}
	q.Set("base", base)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", exchange.ErrAPI, err)
	}
	req.Header.Set("Accept", "application/json")

	p.logger.Info("Fetching exchange rates", "base", base)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", exchange.ErrNetwork, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: server returned status %d", exchange.ErrNetwork, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", exchange.ErrNetwork, err)
	}

	var payload latestResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response (status %d): %w", exchange.ErrAPI, resp.StatusCode, err)
	}
	if !payload.Success {
		return nil, fmt.Errorf("%w: %s", exchange.ErrAPI, payload.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", exchange.ErrAPI, resp.StatusCode)
	}

	table := exchange.NewRateTable(payload.Base, payload.Rates, p.now())
	table.Provider = ExchangeRatesAPIName
	if payload.Timestamp > 0 {
		table.Timestamp = time.Unix(payload.Timestamp, 0).UTC()
	}
	p.logger.Info("Exchange rates fetched", "base", table.Base, "count", table.Len(), "date", payload.Date)
	return table, nil
}

var _ exchange.RateSource = (*ExchangeRatesAPI)(nil)
