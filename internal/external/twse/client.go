package twse

import (
	"net/http"
	"strings"

	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/pkg/config"
	"github.com/wonny/twpicks/pkg/httputil"
	"github.com/wonny/twpicks/pkg/logger"
)

// Client handles communication with the Taiwan Stock Exchange
// ⭐ SSOT: TWSE 호출(STOCK_DAY_ALL, T86, ISIN)은 이 패키지에서만
type Client struct {
	httpClient  *httputil.Client
	cache       contracts.Cache
	logger      *logger.Logger
	openAPIBase string
	baseURL     string
	isinBase    string
}

// NewClient creates a new TWSE client
func NewClient(httpClient *httputil.Client, c contracts.Cache, cfg config.TWSEConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient:  httpClient,
		cache:       c,
		logger:      log.WithField("module", "twse"),
		openAPIBase: strings.TrimRight(cfg.OpenAPIBaseURL, "/"),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		isinBase:    strings.TrimRight(cfg.ISINBaseURL, "/"),
	}
}

// refererHeader is required by www.twse.com.tw for JSON endpoints
func (c *Client) refererHeader() http.Header {
	h := http.Header{}
	h.Set("Referer", c.baseURL+"/")
	return h
}
