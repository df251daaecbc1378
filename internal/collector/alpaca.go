package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"LevelScan/internal/model"
)

const alpacaDataURL = "https://data.alpaca.markets"

// AlpacaFetcher implements Fetcher using the Alpaca Market Data v2 REST
// API.
type AlpacaFetcher struct {
	APIKey    string
	APISecret string
	Client    *http.Client
}

// NewAlpacaFetcher creates a new Alpaca fetcher with optional proxy support.
func NewAlpacaFetcher(apiKey, apiSecret, proxyURL string) *AlpacaFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &AlpacaFetcher{
		APIKey:    apiKey,
		APISecret: apiSecret,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *AlpacaFetcher) Name() string { return "alpaca" }

// alpacaBars is the response shape of the v2 bars endpoint.
type alpacaBars struct {
	Bars []struct {
		Timestamp string  `json:"t"`
		Open      float64 `json:"o"`
		High      float64 `json:"h"`
		Low       float64 `json:"l"`
		Close     float64 `json:"c"`
		Volume    float64 `json:"v"`
	} `json:"bars"`
	NextPageToken *string `json:"next_page_token"`
}

func (f *AlpacaFetcher) FetchDailyBars(symbol string, from, to time.Time) ([]model.OHLCV, error) {
	var bars []model.OHLCV
	pageToken := ""

	for {
		endpoint := fmt.Sprintf("%s/v2/stocks/%s/bars?start=%s&end=%s&timeframe=1Day&adjustment=split&limit=10000",
			alpacaDataURL, url.PathEscape(symbol),
			url.QueryEscape(from.Format(time.RFC3339)),
			url.QueryEscape(to.Format(time.RFC3339)))
		if pageToken != "" {
			endpoint += "&page_token=" + url.QueryEscape(pageToken)
		}

		req, err := http.NewRequest("GET", endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("APCA-API-KEY-ID", f.APIKey)
		req.Header.Set("APCA-API-SECRET-KEY", f.APISecret)

		resp, err := f.Client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("alpaca fetch bars: %w", err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("alpaca read body: %w", err)
		}
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnprocessableEntity {
			return nil, fmt.Errorf("%w: alpaca has no bars for %s", ErrDataUnavailable, symbol)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("alpaca: status %d, body: %s", resp.StatusCode, string(body))
		}

		var page alpacaBars
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("alpaca decode: %w", err)
		}

		for _, b := range page.Bars {
			t, err := time.Parse(time.RFC3339, b.Timestamp)
			if err != nil {
				continue
			}
			bars = append(bars, model.OHLCV{
				Time:   t,
				Open:   b.Open,
				High:   b.High,
				Low:    b.Low,
				Close:  b.Close,
				Volume: b.Volume,
			})
		}

		if page.NextPageToken == nil || *page.NextPageToken == "" {
			break
		}
		pageToken = *page.NextPageToken
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: alpaca returned no bars for %s between %s and %s",
			ErrDataUnavailable, symbol, from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}
