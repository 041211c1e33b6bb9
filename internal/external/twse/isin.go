package twse

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"

	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/internal/s0_data/cache"
)

// ISINClassifications is the classification fallback scraped from isin.twse.com.tw
// FinMind TaiwanStockInfo 가 실패할 때 사용
type ISINClassifications struct{ c *Client }

// ISINClassifications returns the ISIN-page classification source
func (c *Client) ISINClassifications() *ISINClassifications { return &ISINClassifications{c: c} }

// FetchClassifications scrapes the listed-securities table (strMode=2)
func (s *ISINClassifications) FetchClassifications(ctx context.Context) (map[string]contracts.Classification, error) {
	var out map[string]contracts.Classification
	fetch := func() (bool, error) {
		body, err := s.c.httpClient.GetBytes(ctx, s.c.isinBase+"/isin/C_public.jsp?strMode=2", nil)
		if err != nil {
			return false, err
		}
		out, err = ParseISIN(body)
		return len(out) > 0, err
	}
	if err := s.c.cached(ctx, cache.ClassificationKey("isin"), cache.TTLInfo, &out, fetch); err != nil {
		return nil, fmt.Errorf("isin classifications: %w", err)
	}
	return out, nil
}

// ParseISIN parses the ISIN table; the page is served as MS950 (Big5)
// 컬럼: 有價證券代號及名稱 | ISIN | 上市日 | 市場別 | 產業別 | CFICode | 備註
func ParseISIN(body []byte) (map[string]contracts.Classification, error) {
	var r io.Reader = bytes.NewReader(body)
	if !utf8.Valid(body) {
		r = transform.NewReader(r, traditionalchinese.Big5.NewDecoder())
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse isin html: %w", err)
	}

	out := make(map[string]contracts.Classification)
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 5 {
			return
		}

		// "2330　台積電" (전각 공백 구분)
		codeName := strings.TrimSpace(cells.Eq(0).Text())
		parts := strings.FieldsFunc(codeName, func(r rune) bool {
			return r == '　' || r == ' ' || r == '\t'
		})
		if len(parts) == 0 || !IsCommonStock(parts[0]) {
			return
		}

		out[parts[0]] = contracts.Classification{
			Symbol:   parts[0],
			Name:     strings.Join(parts[1:], " "),
			Type:     strings.TrimSpace(cells.Eq(3).Text()),
			Industry: strings.TrimSpace(cells.Eq(4).Text()),
		}
	})
	return out, nil
}
