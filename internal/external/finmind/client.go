package finmind

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/internal/s0_data/cache"
	"github.com/wonny/twpicks/pkg/config"
	"github.com/wonny/twpicks/pkg/httputil"
	"github.com/wonny/twpicks/pkg/logger"
)

// ErrNoCredential is returned by token-only datasets when FINMIND_TOKEN is unset
var ErrNoCredential = errors.New("finmind token not configured")

// Datasets
const (
	DatasetStockInfo  = "TaiwanStockInfo"
	DatasetMargin     = "TaiwanStockMarginPurchaseShortSale"
	DatasetDayTrading = "TaiwanStockDayTrading"
)

// Client handles communication with the FinMind data API
// ⭐ SSOT: FinMind 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	cache      contracts.Cache
	logger     *logger.Logger
	baseURL    string
	token      string
}

// NewClient creates a new FinMind client
func NewClient(httpClient *httputil.Client, c contracts.Cache, cfg config.FinMindConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		cache:      c,
		logger:     log.WithField("module", "finmind"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      strings.TrimSpace(cfg.Token),
	}
}

// Enabled reports whether a credential is configured
func (c *Client) Enabled() bool {
	return c.token != ""
}

// Row is one dataset row; field names vary between dataset versions
type Row map[string]interface{}

// Query identifies one dataset request
type Query struct {
	Dataset   string
	DataID    string
	StockID   string
	StartDate string // YYYY-MM-DD
	EndDate   string // YYYY-MM-DD
}

func (q Query) values() url.Values {
	v := url.Values{}
	v.Set("dataset", q.Dataset)
	if q.DataID != "" {
		v.Set("data_id", q.DataID)
	}
	if q.StockID != "" {
		v.Set("stock_id", q.StockID)
	}
	if q.StartDate != "" {
		v.Set("start_date", q.StartDate)
	}
	if q.EndDate != "" {
		v.Set("end_date", q.EndDate)
	}
	return v
}

type dataResponse struct {
	Msg    string `json:"msg"`
	Status int    `json:"status"`
	Data   []Row  `json:"data"`
}

// Fetch runs a dataset query: v4 (Bearer) first, v3 (token param) on failure
func (c *Client) Fetch(ctx context.Context, q Query) ([]Row, error) {
	cred := "N"
	if c.Enabled() {
		cred = "T"
	}
	key := fmt.Sprintf("finmind:%s:%s:%s:%s:%s:%s", q.Dataset, q.StockID, q.DataID, q.StartDate, q.EndDate, cred)

	if c.cache != nil {
		var cached []Row
		if ok, err := c.cache.Get(ctx, key, &cached); err == nil && ok {
			return cached, nil
		}
	}

	var rows []Row
	var err error
	if c.Enabled() {
		rows, err = c.fetchV4(ctx, q)
		if err != nil {
			c.logger.WithError(err).WithField("dataset", q.Dataset).Debug("FinMind v4 failed, falling back to v3")
		}
	}
	if !c.Enabled() || err != nil {
		rows, err = c.fetchV3(ctx, q)
		if err != nil {
			return nil, err
		}
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, rows, cache.TTLData); err != nil {
			c.logger.WithError(err).Warn("Failed to cache FinMind rows")
		}
	}
	return rows, nil
}

func (c *Client) fetchV4(ctx context.Context, q Query) ([]Row, error) {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.token)
	return c.get(ctx, c.baseURL+"/api/v4/data?"+q.values().Encode(), h)
}

func (c *Client) fetchV3(ctx context.Context, q Query) ([]Row, error) {
	v := q.values()
	if c.Enabled() {
		v.Set("token", c.token)
	}
	return c.get(ctx, c.baseURL+"/api/v3/data?"+v.Encode(), nil)
}

func (c *Client) get(ctx context.Context, fullURL string, h http.Header) ([]Row, error) {
	var resp dataResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, h, &resp); err != nil {
		return nil, err
	}
	// v3 는 status 필드가 없을 수 있음
	if resp.Status != 0 && resp.Status != http.StatusOK {
		return nil, fmt.Errorf("finmind status %d: %s", resp.Status, resp.Msg)
	}
	return resp.Data, nil
}
