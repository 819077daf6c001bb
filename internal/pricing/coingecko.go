package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"positionScope/internal/model"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// canonicalIDs maps common token symbols to CoinGecko ids. Symbols
// outside the table fall back to their lowercase form.
var canonicalIDs = map[string]string{
	"ETH":   "ethereum",
	"WETH":  "weth",
	"BTC":   "bitcoin",
	"WBTC":  "wrapped-bitcoin",
	"BNB":   "binancecoin",
	"WBNB":  "wbnb",
	"USDC":  "usd-coin",
	"USDT":  "tether",
	"DAI":   "dai",
	"BUSD":  "binance-usd",
	"CAKE":  "pancakeswap-token",
	"UNI":   "uniswap",
	"ARB":   "arbitrum",
	"OP":    "optimism",
	"MATIC": "matic-network",
}

// CanonicalID resolves a token symbol to its price-feed id.
func CanonicalID(symbol string) string {
	if id, ok := canonicalIDs[strings.ToUpper(symbol)]; ok {
		return id
	}
	return strings.ToLower(symbol)
}

// CoinGeckoFetcher fetches batch prices from the CoinGecko simple-price
// endpoint: one GET per batch, ids comma-joined, one fiat currency.
type CoinGeckoFetcher struct {
	baseURL  string
	currency string
	client   *http.Client
}

func NewCoinGeckoFetcher(baseURL, currency string) *CoinGeckoFetcher {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if currency == "" {
		currency = "usd"
	}
	return &CoinGeckoFetcher{
		baseURL:  baseURL,
		currency: strings.ToLower(currency),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// FetchPrices returns canonical id -> price for the requested ids.
func (f *CoinGeckoFetcher) FetchPrices(ctx context.Context, ids []string) (map[string]float64, error) {
	if len(ids) == 0 {
		return map[string]float64{}, nil
	}

	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", f.currency)
	fullURL := fmt.Sprintf("%s/simple/price?%s", f.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: price feed: %s", model.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: price feed status %d", model.ErrSourceUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var decoded map[string]map[string]float64
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	out := make(map[string]float64, len(decoded))
	for id, currencies := range decoded {
		if price, ok := currencies[f.currency]; ok {
			out[id] = price
		}
	}
	return out, nil
}
