package twse

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/traditionalchinese"

	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/internal/s0_data/cache"
	"github.com/wonny/twpicks/pkg/config"
	"github.com/wonny/twpicks/pkg/httputil"
	"github.com/wonny/twpicks/pkg/logger"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	hc := httputil.New(&config.Config{}, logger.Nop())
	return NewClient(hc, cache.NewMemory(logger.Nop()), config.TWSEConfig{
		OpenAPIBaseURL: srv.URL,
		BaseURL:        srv.URL,
		ISINBaseURL:    srv.URL,
	}, logger.Nop())
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want float64
	}{
		{"nil", nil, 0},
		{"float", 12.5, 12.5},
		{"comma string", "1,234,567", 1234567},
		{"negative comma", "-12,000", -12000},
		{"blank", "  ", 0},
		{"double dash", "--", 0},
		{"garbage", "N/A", 0},
		{"json number", json.Number("42"), 42},
		{"infinity", math.Inf(1), 0},
		{"bool", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseNumber(tt.in))
		})
	}
}

func TestIsCommonStock(t *testing.T) {
	assert.True(t, IsCommonStock("2330"))
	assert.False(t, IsCommonStock("0050A"))
	assert.False(t, IsCommonStock("00878"))
	assert.False(t, IsCommonStock("ABCD"))
}

func TestParseKeyedDayAll(t *testing.T) {
	rows := []map[string]interface{}{
		{"Code": "2330", "Name": "台積電", "TradeVolume": "30,000,000", "ClosingPrice": "600.00"},
		{"證券代號": "2317", "證券名稱": "鴻海", "成交股數": "20000000", "收盤價": "100.5"},
		{"股票代號": "2303", "股票名稱": "聯電", "成交股數(股)": "1000", "收盤": "--"},
		{"Unexpected": "x"},
	}

	got := ParseKeyedDayAll(rows)
	require.Len(t, got, 4)
	assert.Equal(t, contracts.DayAllRecord{Symbol: "2330", Name: "台積電", Volume: 30000000, Close: 600}, got[0])
	assert.Equal(t, contracts.DayAllRecord{Symbol: "2317", Name: "鴻海", Volume: 20000000, Close: 100.5}, got[1])
	assert.Equal(t, 0.0, got[2].Close)
	assert.Equal(t, contracts.DayAllRecord{}, got[3])
}

func TestParsePositionalDayAll(t *testing.T) {
	rows := [][]interface{}{
		{"2330", "台積電", "30,000,000", "18,000,000,000", "598", "605", "595", "600", "+2", "50000"},
		{"2317", "鴻海"},
	}

	got := ParsePositionalDayAll(rows)
	require.Len(t, got, 2)
	assert.Equal(t, contracts.DayAllRecord{Symbol: "2330", Name: "台積電", Volume: 30000000, Close: 600}, got[0])
	assert.Equal(t, contracts.DayAllRecord{Symbol: "2317", Name: "鴻海"}, got[1])
}

func TestDayAllSources(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/exchangeReport/STOCK_DAY_ALL", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"Code":"2330","Name":"台積電","TradeVolume":"1000000","ClosingPrice":"600"}]`))
	})
	mux.HandleFunc("/exchangeReport/STOCK_DAY_ALL", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("response"))
		assert.NotEmpty(t, r.Header.Get("Referer"))
		_, _ = w.Write([]byte(`{"stat":"OK","data":[["2317","鴻海","2,000,000","0","0","0","0","100"]]}`))
	})
	client := newTestClient(t, mux)

	primary := client.OpenAPIDayAll()
	assert.Equal(t, SourceOpenAPI, primary.Name())
	got, err := primary.FetchDayAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2330", got[0].Symbol)

	legacy := client.LegacyDayAll()
	assert.Equal(t, SourceLegacy, legacy.Name())
	got, err = legacy.FetchDayAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 100.0, got[0].Close)
}

func TestSelectT86Layout(t *testing.T) {
	wide := make([]interface{}, 19)

	assert.Equal(t, "split-foreign", SelectT86Layout([]string{"證券代號", "外資自營商買賣超股數"}, nil).Name())
	assert.Equal(t, "split-foreign", SelectT86Layout(nil, [][]interface{}{wide}).Name())
	assert.Equal(t, "compact", SelectT86Layout([]string{"證券代號"}, [][]interface{}{{"2330"}}).Name())
}

func TestParseT86(t *testing.T) {
	date := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	t.Run("split foreign layout", func(t *testing.T) {
		row := []interface{}{"2330", "台積電 ", "0", "0", "1,000", "0", "0", "200", "0", "0", "300", "-50",
			"0", "0", "0", "0", "0", "0", "1,450"}
		day := ParseT86(date, nil, [][]interface{}{row, {"00878", "國泰永續高股息"}})

		require.Len(t, day.Records, 1)
		rec := day.Records["2330"]
		assert.Equal(t, "台積電", rec.Name)
		assert.Equal(t, contracts.CategoryNet{Foreign: 1200, Trust: 300, Dealer: -50}, rec.CategoryNet)
	})

	t.Run("compact layout", func(t *testing.T) {
		row := []interface{}{"2317", "鴻海", "0", "0", "500", "0", "0", "-100", "0", "0", "20"}
		day := ParseT86(date, []string{"證券代號", "證券名稱"}, [][]interface{}{row})

		assert.Equal(t, contracts.CategoryNet{Foreign: 500, Trust: -100, Dealer: 20}, day.Records["2317"].CategoryNet)
	})
}

func TestFetchInstitutionalDay(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fund/T86", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ALLBUT0999", r.URL.Query().Get("selectType"))
		switch r.URL.Query().Get("date") {
		case "20260105":
			_, _ = w.Write([]byte(`{"stat":"OK","fields":["證券代號","證券名稱"],"data":[["2317","鴻海","0","0","500","0","0","-100","0","0","20"]]}`))
		default:
			_, _ = w.Write([]byte(`{"stat":"很抱歉，沒有符合條件的資料!"}`))
		}
	})
	client := newTestClient(t, mux)

	day, err := client.FetchInstitutionalDay(context.Background(), time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, day.Empty())

	holiday, err := client.FetchInstitutionalDay(context.Background(), time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, holiday.Empty())
}

const isinFixture = `<html><body><table class="h4">
<tr><td>有價證券代號及名稱</td><td>國際證券辨識號碼(ISIN Code)</td><td>上市日</td><td>市場別</td><td>產業別</td><td>CFICode</td><td>備註</td></tr>
<tr><td colspan="7"><b>股票</b></td></tr>
<tr><td>2330　台積電</td><td>TW0002330008</td><td>1994/09/05</td><td>上市</td><td>半導體業</td><td>ESVUFR</td><td></td></tr>
<tr><td>6901　鑽石投資</td><td>TW0006901002</td><td>2023/01/01</td><td>上市臺灣創新板</td><td>其他業</td><td>ESVUFR</td><td></td></tr>
<tr><td>030001　權證</td><td>TW00030001</td><td>2023/01/01</td><td>上市</td><td></td><td>RWSCCE</td><td></td></tr>
</table></body></html>`

func TestParseISIN(t *testing.T) {
	got, err := ParseISIN([]byte(isinFixture))
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, contracts.Classification{Symbol: "2330", Name: "台積電", Type: "上市", Industry: "半導體業"}, got["2330"])
	assert.Equal(t, "上市臺灣創新板", got["6901"].Type)
}

func TestParseISIN_Big5(t *testing.T) {
	encoded, err := traditionalchinese.Big5.NewEncoder().String(isinFixture)
	require.NoError(t, err)

	got, err := ParseISIN([]byte(encoded))
	require.NoError(t, err)
	assert.Equal(t, "半導體業", got["2330"].Industry)
}

func TestFetchISINClassifications(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/isin/C_public.jsp", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("strMode"))
		_, _ = w.Write([]byte(isinFixture))
	})
	client := newTestClient(t, mux)

	got, err := client.ISINClassifications().FetchClassifications(context.Background())
	require.NoError(t, err)
	assert.Contains(t, got, "2330")
}
