package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/internal/s0_data/cache"
	"github.com/wonny/twpicks/pkg/httputil"
	"github.com/wonny/twpicks/pkg/logger"
)

// taipei is the exchange timezone used to derive bar dates
var taipei = time.FixedZone("CST", 8*60*60)

// Client fetches daily bars from the Yahoo Finance chart API
// ⭐ SSOT: 일봉(OHLCV) 조회는 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	cache      contracts.Cache
	logger     *logger.Logger
	baseURL    string
	rangeParam string
	interval   string
}

// NewClient creates a new Yahoo chart client
func NewClient(httpClient *httputil.Client, c contracts.Cache, baseURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		cache:      c,
		logger:     log.WithField("module", "yahoo"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		rangeParam: "6mo",
		interval:   "1d",
	}
}

// chartResponse mirrors the subset of /v8/finance/chart we read
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		ShortName string `json:"shortName"`
		LongName  string `json:"longName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// FetchBars returns ~6 months of daily bars for a TWSE symbol
func (c *Client) FetchBars(ctx context.Context, symbol string) (*contracts.BarSeries, error) {
	key := cache.BarsKey(symbol)
	if c.cache != nil {
		var cached contracts.BarSeries
		if ok, err := c.cache.Get(ctx, key, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	params := url.Values{}
	params.Set("range", c.rangeParam)
	params.Set("interval", c.interval)
	params.Set("includePrePost", "false")
	params.Set("events", "div,splits")
	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s.TW?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	var resp chartResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, nil, &resp); err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}

	series, err := parseChart(symbol, &resp)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, series, cache.TTLData); err != nil {
			c.logger.WithError(err).Warn("Failed to cache bars")
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  series.Len(),
	}).Debug("Fetched bars")
	return series, nil
}

// parseChart converts a chart payload into an ascending, close>0 bar series
func parseChart(symbol string, resp *chartResponse) (*contracts.BarSeries, error) {
	if len(resp.Chart.Result) == 0 {
		if e := resp.Chart.Error; e != nil {
			return nil, fmt.Errorf("yahoo chart %s: %s: %s", symbol, e.Code, e.Description)
		}
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, contracts.ErrNoData)
	}
	r := resp.Chart.Result[0]

	name := r.Meta.ShortName
	if name == "" {
		name = r.Meta.LongName
	}
	series := &contracts.BarSeries{Symbol: symbol, Name: strings.TrimSpace(name)}

	if len(r.Indicators.Quote) == 0 {
		return series, nil
	}
	q := r.Indicators.Quote[0]

	for i, ts := range r.Timestamp {
		bar := contracts.Bar{
			Date:   dateOf(ts),
			Open:   at(q.Open, i),
			High:   at(q.High, i),
			Low:    at(q.Low, i),
			Close:  at(q.Close, i),
			Volume: at(q.Volume, i),
		}
		if bar.Close <= 0 {
			continue
		}
		series.Bars = append(series.Bars, bar)
	}

	sort.SliceStable(series.Bars, func(i, j int) bool {
		return series.Bars[i].Date.Before(series.Bars[j].Date)
	})
	return series, nil
}

func dateOf(ts int64) time.Time {
	t := time.Unix(ts, 0).In(taipei)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, taipei)
}

// at reads a nullable column value; missing or null ⇒ 0
func at(col []*float64, i int) float64 {
	if i >= len(col) || col[i] == nil {
		return 0
	}
	return *col[i]
}
