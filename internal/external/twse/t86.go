package twse

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/internal/s0_data/cache"
)

// T86Layout maps a T86 row to category nets
// 거래소 양식이 바뀔 때마다 어댑터를 추가한다
type T86Layout interface {
	Name() string
	Parse(row []interface{}) (contracts.InstitutionalRecord, bool)
}

// splitForeignLayout is the current 19-column layout
// 外陸資(不含外資自營商)[4] + 外資自營商[7], 投信[10], 自營商合計[11]
type splitForeignLayout struct{}

func (splitForeignLayout) Name() string { return "split-foreign" }

func (splitForeignLayout) Parse(row []interface{}) (contracts.InstitutionalRecord, bool) {
	symbol := text(cell(row, 0))
	if !IsCommonStock(symbol) {
		return contracts.InstitutionalRecord{}, false
	}
	return contracts.InstitutionalRecord{
		Symbol: symbol,
		Name:   text(cell(row, 1)),
		CategoryNet: contracts.CategoryNet{
			Foreign: ParseNumber(cell(row, 4)) + ParseNumber(cell(row, 7)),
			Trust:   ParseNumber(cell(row, 10)),
			Dealer:  ParseNumber(cell(row, 11)),
		},
	}, true
}

// compactLayout is the older layout: 外資[4], 投信[7], 自營商[10]
type compactLayout struct{}

func (compactLayout) Name() string { return "compact" }

func (compactLayout) Parse(row []interface{}) (contracts.InstitutionalRecord, bool) {
	symbol := text(cell(row, 0))
	if !IsCommonStock(symbol) {
		return contracts.InstitutionalRecord{}, false
	}
	return contracts.InstitutionalRecord{
		Symbol: symbol,
		Name:   text(cell(row, 1)),
		CategoryNet: contracts.CategoryNet{
			Foreign: ParseNumber(cell(row, 4)),
			Trust:   ParseNumber(cell(row, 7)),
			Dealer:  ParseNumber(cell(row, 10)),
		},
	}, true
}

// SelectT86Layout picks the adapter from the header and row width
func SelectT86Layout(fields []string, rows [][]interface{}) T86Layout {
	for _, f := range fields {
		if strings.Contains(f, "外資自營商") {
			return splitForeignLayout{}
		}
	}
	if len(rows) > 0 && len(rows[0]) >= 19 {
		return splitForeignLayout{}
	}
	return compactLayout{}
}

// ParseT86 converts a T86 payload into a per-symbol record set
func ParseT86(date time.Time, fields []string, rows [][]interface{}) *contracts.InstitutionalDay {
	day := &contracts.InstitutionalDay{
		Date:    date,
		Records: make(map[string]contracts.InstitutionalRecord, len(rows)),
	}
	layout := SelectT86Layout(fields, rows)
	for _, row := range rows {
		rec, ok := layout.Parse(row)
		if !ok {
			continue
		}
		day.Records[rec.Symbol] = rec
	}
	return day
}

type t86Response struct {
	Stat   string          `json:"stat"`
	Date   string          `json:"date"`
	Fields []string        `json:"fields"`
	Data   [][]interface{} `json:"data"`
}

// FetchInstitutionalDay fetches T86 (三大法人買賣超) for one date
// 휴장일/미공개일은 빈 레코드셋 (에러 아님)
func (c *Client) FetchInstitutionalDay(ctx context.Context, date time.Time) (*contracts.InstitutionalDay, error) {
	ymd := date.Format("20060102")

	var resp t86Response
	fetch := func() (bool, error) {
		params := url.Values{}
		params.Set("response", "json")
		params.Set("date", ymd)
		params.Set("selectType", "ALLBUT0999")
		err := c.httpClient.GetJSON(ctx, c.baseURL+"/fund/T86?"+params.Encode(), c.refererHeader(), &resp)
		return len(resp.Data) > 0, err
	}
	if err := c.cached(ctx, cache.InstitutionalKey(date), cache.TTLData, &resp, fetch); err != nil {
		return nil, fmt.Errorf("T86 %s: %w", ymd, err)
	}

	day := ParseT86(date, resp.Fields, resp.Data)
	c.logger.WithFields(map[string]interface{}{
		"date":    ymd,
		"stat":    resp.Stat,
		"records": len(day.Records),
	}).Debug("Fetched T86")
	return day, nil
}
