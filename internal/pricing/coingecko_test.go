package pricing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"positionScope/internal/model"
)

func TestCoinGeckoFetchPrices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("vs_currencies"); got != "usd" {
			t.Errorf("vs_currencies = %q, want usd", got)
		}
		if got := r.URL.Query().Get("ids"); got == "" {
			t.Error("ids query parameter missing")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ethereum":{"usd":2000.5},"usd-coin":{"usd":1.0}}`))
	}))
	defer server.Close()

	fetcher := NewCoinGeckoFetcher(server.URL, "usd")
	prices, err := fetcher.FetchPrices(context.Background(), []string{"ethereum", "usd-coin"})
	if err != nil {
		t.Fatalf("FetchPrices: %v", err)
	}
	if prices["ethereum"] != 2000.5 {
		t.Fatalf("ethereum price = %v, want 2000.5", prices["ethereum"])
	}
	if prices["usd-coin"] != 1.0 {
		t.Fatalf("usd-coin price = %v, want 1.0", prices["usd-coin"])
	}
}

func TestCoinGeckoFetchPricesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	fetcher := NewCoinGeckoFetcher(server.URL, "usd")
	_, err := fetcher.FetchPrices(context.Background(), []string{"ethereum"})
	if !errors.Is(err, model.ErrSourceUnavailable) {
		t.Fatalf("error = %v, want ErrSourceUnavailable", err)
	}
}

func TestCoinGeckoFetchPricesEmptyBatch(t *testing.T) {
	fetcher := NewCoinGeckoFetcher("", "usd")
	prices, err := fetcher.FetchPrices(context.Background(), nil)
	if err != nil {
		t.Fatalf("FetchPrices: %v", err)
	}
	if len(prices) != 0 {
		t.Fatalf("prices = %v, want empty", prices)
	}
}
