package collector

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"LevelScan/internal/model"
)

const kiteBaseURL = "https://api.kite.trade"

// KiteFetcher implements Fetcher using the Zerodha Kite Connect REST
// API. The access token must already be generated for the day; token
// acquisition is an interactive flow handled outside this program.
type KiteFetcher struct {
	APIKey      string
	AccessToken string
	Exchange    string
	Client      *http.Client

	mu     sync.Mutex
	tokens map[string]int64 // trading symbol -> instrument token
}

// NewKiteFetcher creates a new Kite Connect fetcher with optional proxy
// support. Exchange defaults to NSE.
func NewKiteFetcher(apiKey, accessToken, exchange, proxyURL string) *KiteFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if exchange == "" {
		exchange = "NSE"
	}
	return &KiteFetcher{
		APIKey:      apiKey,
		AccessToken: accessToken,
		Exchange:    exchange,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *KiteFetcher) Name() string { return "kite" }

func (f *KiteFetcher) authorize(req *http.Request) {
	req.Header.Set("X-Kite-Version", "3")
	req.Header.Set("Authorization", fmt.Sprintf("token %s:%s", f.APIKey, f.AccessToken))
}

// instrumentToken resolves a trading symbol to its Kite instrument
// token, downloading and caching the exchange instrument dump on first
// use.
func (f *KiteFetcher) instrumentToken(symbol string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.tokens == nil {
		tokens, err := f.loadInstruments()
		if err != nil {
			return 0, fmt.Errorf("load instruments: %w", err)
		}
		f.tokens = tokens
	}

	token, ok := f.tokens[symbol]
	if !ok {
		return 0, fmt.Errorf("%w: unknown trading symbol %q on %s", ErrDataUnavailable, symbol, f.Exchange)
	}
	return token, nil
}

func (f *KiteFetcher) loadInstruments() (map[string]int64, error) {
	endpoint := fmt.Sprintf("%s/instruments/%s", kiteBaseURL, f.Exchange)
	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	f.authorize(req)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch instruments: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch instruments: status %d", resp.StatusCode)
	}

	r := csv.NewReader(resp.Body)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read instruments header: %w", err)
	}
	tokenCol, symbolCol := -1, -1
	for i, name := range header {
		switch name {
		case "instrument_token":
			tokenCol = i
		case "tradingsymbol":
			symbolCol = i
		}
	}
	if tokenCol < 0 || symbolCol < 0 {
		return nil, fmt.Errorf("instruments dump missing expected columns")
	}

	tokens := make(map[string]int64)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read instruments: %w", err)
		}
		token, err := strconv.ParseInt(record[tokenCol], 10, 64)
		if err != nil {
			continue
		}
		tokens[record[symbolCol]] = token
	}
	return tokens, nil
}

// kiteCandles is the response shape of the Kite historical data API.
// Each candle is [timestamp, open, high, low, close, volume].
type kiteCandles struct {
	Status string `json:"status"`
	Data   struct {
		Candles [][]interface{} `json:"candles"`
	} `json:"data"`
	Message string `json:"message"`
}

func (f *KiteFetcher) FetchDailyBars(symbol string, from, to time.Time) ([]model.OHLCV, error) {
	token, err := f.instrumentToken(symbol)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/instruments/historical/%d/day?from=%s&to=%s",
		kiteBaseURL, token,
		url.QueryEscape(from.Format("2006-01-02 15:04:05")),
		url.QueryEscape(to.Format("2006-01-02 15:04:05")))

	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	f.authorize(req)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kite fetch bars: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("kite read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kite: status %d, body: %s", resp.StatusCode, string(body))
	}

	var candles kiteCandles
	if err := json.Unmarshal(body, &candles); err != nil {
		return nil, fmt.Errorf("kite decode: %w", err)
	}
	if candles.Status != "success" {
		return nil, fmt.Errorf("kite api error: %s", candles.Message)
	}
	if len(candles.Data.Candles) == 0 {
		return nil, fmt.Errorf("%w: no candles for %s between %s and %s",
			ErrDataUnavailable, symbol, from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	bars := make([]model.OHLCV, 0, len(candles.Data.Candles))
	for _, c := range candles.Data.Candles {
		if len(c) < 6 {
			continue
		}
		ts, ok := c[0].(string)
		if !ok {
			continue
		}
		t, err := time.Parse("2006-01-02T15:04:05-0700", ts)
		if err != nil {
			continue
		}
		bars = append(bars, model.OHLCV{
			Time:   t,
			Open:   toFloat(c[1]),
			High:   toFloat(c[2]),
			Low:    toFloat(c[3]),
			Close:  toFloat(c[4]),
			Volume: toFloat(c[5]),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}
