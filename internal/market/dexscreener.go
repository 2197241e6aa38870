package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/haoxiang14/solana-wallet-tracker/internal/logger"
)

const defaultBaseURL = "https://api.dexscreener.com"

// TokenStats is the market snapshot attached to a swap notification. All
// fields are best-effort; a zero value means the aggregator had no data.
type TokenStats struct {
	Symbol    string
	PriceUSD  float64
	MarketCap float64
	Volume24h float64
}

// Client fetches token market data from the DexScreener aggregator. Lookups
// are advisory; callers must tolerate a nil result.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

type pairsResponse struct {
	Pairs []struct {
		BaseToken struct {
			Symbol string `json:"symbol"`
		} `json:"baseToken"`
		PriceUSD string `json:"priceUsd"`
		Volume   struct {
			H24 float64 `json:"h24"`
		} `json:"volume"`
		MarketCap float64 `json:"marketCap"`
		Liquidity struct {
			USD float64 `json:"usd"`
		} `json:"liquidity"`
	} `json:"pairs"`
}

func NewClient(log logger.Logger) *Client {
	if log == nil {
		log = logger.Global()
	}
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.With(logger.F("component", "market")),
	}
}

// TokenStats looks up market data for a mint. Returns (nil, nil) when the
// aggregator knows nothing about the token; errors cover transport and
// decoding failures only.
func (c *Client) TokenStats(ctx context.Context, mint string) (*TokenStats, error) {
	url := fmt.Sprintf("%s/latest/dex/tokens/%s", c.baseURL, mint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build market request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch market data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch market data: status %d", resp.StatusCode)
	}

	var decoded pairsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode market data: %w", err)
	}
	if len(decoded.Pairs) == 0 {
		return nil, nil
	}

	// The first pair is the aggregator's highest-liquidity listing.
	pair := decoded.Pairs[0]
	price, _ := strconv.ParseFloat(pair.PriceUSD, 64)

	return &TokenStats{
		Symbol:    pair.BaseToken.Symbol,
		PriceUSD:  price,
		MarketCap: pair.MarketCap,
		Volume24h: pair.Volume.H24,
	}, nil
}
