package twse

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/internal/s0_data/cache"
)

// Day-all source names
const (
	SourceOpenAPI = "openapi"
	SourceLegacy  = "legacy"
)

// Keyed-object field spellings, in priority order
var (
	keyedCode   = []string{"Code", "證券代號", "股票代號"}
	keyedName   = []string{"Name", "證券名稱", "股票名稱"}
	keyedVolume = []string{"TradeVolume", "成交股數", "成交股數(股)"}
	keyedClose  = []string{"ClosingPrice", "收盤價", "收盤"}
)

// Positional layout of the legacy STOCK_DAY_ALL rows
// [0]代號 [1]名稱 [2]成交股數 [3]成交金額 [4]開盤 [5]最高 [6]最低 [7]收盤
const (
	posCode   = 0
	posName   = 1
	posVolume = 2
	posClose  = 7
)

// ParseKeyedDayAll adapts OpenAPI keyed objects into canonical records
func ParseKeyedDayAll(rows []map[string]interface{}) []contracts.DayAllRecord {
	out := make([]contracts.DayAllRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, contracts.DayAllRecord{
			Symbol: text(pickFirst(r, keyedCode...)),
			Name:   text(pickFirst(r, keyedName...)),
			Volume: ParseNumber(pickFirst(r, keyedVolume...)),
			Close:  ParseNumber(pickFirst(r, keyedClose...)),
		})
	}
	return out
}

// ParsePositionalDayAll adapts legacy positional arrays into canonical records
func ParsePositionalDayAll(rows [][]interface{}) []contracts.DayAllRecord {
	out := make([]contracts.DayAllRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, contracts.DayAllRecord{
			Symbol: text(cell(r, posCode)),
			Name:   text(cell(r, posName)),
			Volume: ParseNumber(cell(r, posVolume)),
			Close:  ParseNumber(cell(r, posClose)),
		})
	}
	return out
}

// OpenAPIDayAll is the primary day-all source (openapi.twse.com.tw)
type OpenAPIDayAll struct{ c *Client }

// LegacyDayAll is the secondary day-all source (www.twse.com.tw exchangeReport)
type LegacyDayAll struct{ c *Client }

// OpenAPIDayAll returns the keyed-object day-all source
func (c *Client) OpenAPIDayAll() *OpenAPIDayAll { return &OpenAPIDayAll{c: c} }

// LegacyDayAll returns the positional-array day-all source
func (c *Client) LegacyDayAll() *LegacyDayAll { return &LegacyDayAll{c: c} }

// Name identifies the source
func (s *OpenAPIDayAll) Name() string { return SourceOpenAPI }

// FetchDayAll fetches and adapts /v1/exchangeReport/STOCK_DAY_ALL
func (s *OpenAPIDayAll) FetchDayAll(ctx context.Context) ([]contracts.DayAllRecord, error) {
	var rows []map[string]interface{}
	fetch := func() (bool, error) {
		url := s.c.openAPIBase + "/v1/exchangeReport/STOCK_DAY_ALL"
		err := s.c.httpClient.GetJSON(ctx, url, nil, &rows)
		return len(rows) > 0, err
	}
	if err := s.c.cached(ctx, cache.DayAllKey(SourceOpenAPI), cache.TTLDayAll, &rows, fetch); err != nil {
		return nil, fmt.Errorf("openapi STOCK_DAY_ALL: %w", err)
	}
	return ParseKeyedDayAll(rows), nil
}

// Name identifies the source
func (s *LegacyDayAll) Name() string { return SourceLegacy }

// FetchDayAll fetches and adapts exchangeReport/STOCK_DAY_ALL?response=json
func (s *LegacyDayAll) FetchDayAll(ctx context.Context) ([]contracts.DayAllRecord, error) {
	var resp struct {
		Stat string          `json:"stat"`
		Data [][]interface{} `json:"data"`
	}
	fetch := func() (bool, error) {
		url := s.c.baseURL + "/exchangeReport/STOCK_DAY_ALL?response=json"
		err := s.c.httpClient.GetJSON(ctx, url, s.c.refererHeader(), &resp)
		return len(resp.Data) > 0, err
	}
	if err := s.c.cached(ctx, cache.DayAllKey(SourceLegacy), cache.TTLDayAll, &resp, fetch); err != nil {
		return nil, fmt.Errorf("legacy STOCK_DAY_ALL: %w", err)
	}
	return ParsePositionalDayAll(resp.Data), nil
}

// cached serves dest from cache or runs fetch and stores the result
// fetch 가 false 를 반환하면 캐시하지 않음 (장 마감 전 빈 응답 고착 방지)
func (c *Client) cached(ctx context.Context, key string, ttl time.Duration, dest interface{}, fetch func() (bool, error)) error {
	if c.cache != nil {
		if ok, err := c.cache.Get(ctx, key, dest); err == nil && ok {
			return nil
		}
	}
	keep, err := fetch()
	if err != nil {
		return err
	}
	if keep && c.cache != nil {
		if err := c.cache.Set(ctx, key, dest, ttl); err != nil {
			c.logger.WithError(err).WithField("key", key).Warn("Failed to cache response")
		}
	}
	return nil
}
