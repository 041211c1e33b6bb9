package finmind

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/twpicks/internal/contracts"
)

// Field spellings observed across dataset versions, in priority order
var (
	marginKeys = []string{"MarginPurchaseTodayBalance", "MarginPurchaseBalance", "MarginPurchase"}
	shortKeys  = []string{"ShortSaleTodayBalance", "ShortSaleBalance", "ShortSale"}
	ratioKeys  = []string{"DayTradingRatio", "day_trading_ratio", "DayTradingVolumeRatio", "DayTradingVolumeRatio(%)", "dayTradingRatio"}
	volumeKeys = []string{"DayTradingVolume", "day_trading_volume", "DayTradingDealVolume", "DayTradingTradingVolume", "dayTradingVolume"}
	amountKeys = []string{"DayTradingAmount", "day_trading_amount", "dayTradingAmount"}
)

const dateLayout = "2006-01-02"

// MarginSeries returns margin-purchase / short-sale balances, ascending by date
func (c *Client) MarginSeries(ctx context.Context, symbol string, start, end time.Time) ([]contracts.MarginRow, error) {
	if !c.Enabled() {
		return nil, ErrNoCredential
	}
	rows, err := c.Fetch(ctx, Query{
		Dataset:   DatasetMargin,
		DataID:    symbol,
		StartDate: start.Format(dateLayout),
		EndDate:   end.Format(dateLayout),
	})
	if err != nil {
		return nil, fmt.Errorf("margin %s: %w", symbol, err)
	}
	return ParseMarginRows(rows), nil
}

// DayTradingSeries returns day-trading statistics, ascending by date
// data_id 로 조회 후 비어 있으면 stock_id 로 재조회
func (c *Client) DayTradingSeries(ctx context.Context, symbol string, start, end time.Time) ([]contracts.DayTradeRow, error) {
	if !c.Enabled() {
		return nil, ErrNoCredential
	}
	q := Query{
		Dataset:   DatasetDayTrading,
		DataID:    symbol,
		StartDate: start.Format(dateLayout),
		EndDate:   end.Format(dateLayout),
	}
	rows, err := c.Fetch(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("day trading %s: %w", symbol, err)
	}
	if len(rows) == 0 {
		q.DataID, q.StockID = "", symbol
		if rows, err = c.Fetch(ctx, q); err != nil {
			return nil, fmt.Errorf("day trading %s: %w", symbol, err)
		}
	}
	return ParseDayTradeRows(rows), nil
}

// FetchClassifications loads TaiwanStockInfo (works without a token)
func (c *Client) FetchClassifications(ctx context.Context) (map[string]contracts.Classification, error) {
	rows, err := c.Fetch(ctx, Query{Dataset: DatasetStockInfo})
	if err != nil {
		return nil, fmt.Errorf("stock info: %w", err)
	}

	out := make(map[string]contracts.Classification, len(rows))
	for _, r := range rows {
		sid := str(r["stock_id"])
		if sid == "" {
			continue
		}
		// 동일 종목이 여러 행일 수 있음: 첫 행 우선
		if _, dup := out[sid]; dup {
			continue
		}
		out[sid] = contracts.Classification{
			Symbol:   sid,
			Name:     str(r["stock_name"]),
			Industry: str(r["industry_category"]),
			Type:     str(r["type"]),
		}
	}
	return out, nil
}

// ParseMarginRows canonicalizes margin rows; rows without a date are dropped
func ParseMarginRows(rows []Row) []contracts.MarginRow {
	out := make([]contracts.MarginRow, 0, len(rows))
	for _, r := range rows {
		date := rowDate(r)
		if date == "" {
			continue
		}
		out = append(out, contracts.MarginRow{
			Date:          date,
			MarginBalance: num(pickFirst(r, marginKeys...)),
			ShortBalance:  num(pickFirst(r, shortKeys...)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// ParseDayTradeRows canonicalizes day-trading rows; Ratio is nil when absent or blank
func ParseDayTradeRows(rows []Row) []contracts.DayTradeRow {
	out := make([]contracts.DayTradeRow, 0, len(rows))
	for _, r := range rows {
		date := rowDate(r)
		if date == "" {
			continue
		}
		row := contracts.DayTradeRow{
			Date:   date,
			Volume: num(pickFirst(r, volumeKeys...)),
			Amount: num(pickFirst(r, amountKeys...)),
		}
		if v := pickFirst(r, ratioKeys...); v != nil && str(v) != "" {
			ratio := num(v)
			row.Ratio = &ratio
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func rowDate(r Row) string {
	d := str(pickFirst(r, "date", "Date"))
	if len(d) > 10 {
		d = d[:10]
	}
	return d
}

func pickFirst(r Row, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := r[k]; ok {
			return v
		}
	}
	return nil
}

func str(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// num parses a numeric field; blanks, "--" and garbage are 0
func num(v interface{}) float64 {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case json.Number:
		f, _ = val.Float64()
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(val, ",", ""))
		if s == "" || s == "--" {
			return 0
		}
		f, _ = strconv.ParseFloat(s, 64)
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
