package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amirasaad/fxconvert/pkg/config"
	"github.com/amirasaad/fxconvert/pkg/provider/exchange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const latestOK = `{
  "success": true,
  "timestamp": 1717171717,
  "base": "EUR",
  "date": "2024-05-31",
  "rates": {"USD": 1.1234, "PLN": 4.5678, "XXX": 0}
}`

func newTestAPI(t *testing.T, url string) *ExchangeRatesAPI {
	t.Helper()
	return NewExchangeRatesAPI(&config.RateSource{
		ApiKey:            "test-key",
		ApiUrl:            url + "/",
		HTTPTimeout:       2 * time.Second,
		RequestsPerMinute: 600,
		BurstSize:         10,
	}, nil)
}

func TestExchangeRatesAPI_FetchRates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("access_key"))
		assert.Equal(t, "EUR", r.URL.Query().Get("base"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(latestOK))
	}))
	defer srv.Close()

	table, err := newTestAPI(t, srv.URL).FetchRates(context.Background(), "EUR")
	require.NoError(t, err)

	assert.Equal(t, "EUR", table.Base)
	assert.Equal(t, ExchangeRatesAPIName, table.Provider)
	assert.Equal(t, 2, table.Len())
	assert.InDelta(t, 4.5678, table.Rates["PLN"], 1e-9)
	assert.Equal(t, int64(1717171717), table.Timestamp.Unix())
	assert.False(t, table.FetchedAt.IsZero())
}

func TestExchangeRatesAPI_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{
			name:   "rejected",
			status: http.StatusOK,
			body:   `{"success": false, "error": {"code": 101, "type": "invalid_access_key", "info": "bad key"}}`,
			want:   exchange.ErrAPI,
		},
		{
			name:   "client error",
			status: http.StatusUnauthorized,
			body:   `{"success": false, "error": {"code": 101, "type": "missing_access_key"}}`,
			want:   exchange.ErrAPI,
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `<html>oops</html>`,
			want:   exchange.ErrAPI,
		},
		{
			name:   "server error",
			status: http.StatusBadGateway,
			body:   `bad gateway`,
			want:   exchange.ErrNetwork,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := newTestAPI(t, srv.URL).FetchRates(context.Background(), "EUR")
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestExchangeRatesAPI_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestAPI(t, url).FetchRates(context.Background(), "EUR")
	assert.ErrorIs(t, err, exchange.ErrNetwork)
}

func TestExchangeRatesAPI_SharesInflightRequests(t *testing.T) {
	var hits atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		once.Do(func() { close(started) })
		<-release
		_, _ = w.Write([]byte(latestOK))
	}))
	defer srv.Close()

	api := newTestAPI(t, srv.URL)
	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := api.FetchRates(context.Background(), "EUR")
			errs <- err
		}()
	}

	<-started
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestExchangeRatesAPI_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = w.Write([]byte(latestOK))
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newTestAPI(t, srv.URL).FetchRates(ctx, "EUR")
	require.Error(t, err)
	assert.ErrorIs(t, err, exchange.ErrNetwork)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
