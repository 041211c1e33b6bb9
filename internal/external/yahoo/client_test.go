package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/internal/s0_data/cache"
	"github.com/wonny/twpicks/pkg/config"
	"github.com/wonny/twpicks/pkg/httputil"
	"github.com/wonny/twpicks/pkg/logger"
)

const chartFixture = `{
  "chart": {
    "result": [{
      "meta": {"shortName": "TSMC", "longName": "Taiwan Semiconductor"},
      "timestamp": [1767571200, 1767657600, 1767744000],
      "indicators": {"quote": [{
        "open":   [600, null, 610],
        "high":   [605, 612, 615],
        "low":    [595, 600, 605],
        "close":  [602, null, 612],
        "volume": [1000, 2000, 3000]
      }]}
    }],
    "error": null
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	hc := httputil.New(&config.Config{}, logger.Nop())
	return NewClient(hc, cache.NewMemory(logger.Nop()), srv.URL, logger.Nop()), &hits
}

func TestFetchBars(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/2330.TW", r.URL.Path)
		assert.Equal(t, "6mo", r.URL.Query().Get("range"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		_, _ = w.Write([]byte(chartFixture))
	})

	series, err := client.FetchBars(context.Background(), "2330")
	require.NoError(t, err)

	assert.Equal(t, "TSMC", series.Name)
	require.Equal(t, 2, series.Len(), "null close bar is dropped")
	assert.Equal(t, 602.0, series.Bars[0].Close)
	assert.Equal(t, 612.0, series.Bars[1].Close)
	assert.True(t, series.Bars[0].Date.Before(series.Bars[1].Date))

	// 두 번째 호출은 캐시
	_, err = client.FetchBars(context.Background(), "2330")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchBars_HTTPError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.FetchBars(context.Background(), "9999")
	require.Error(t, err)
	assert.True(t, httputil.IsStatus(err, http.StatusNotFound))
}

func TestParseChart(t *testing.T) {
	tests := []struct {
		name     string
		resp     chartResponse
		wantErr  error
		wantBars int
		wantName string
	}{
		{
			name:    "no result",
			resp:    chartResponse{},
			wantErr: contracts.ErrNoData,
		},
		{
			name: "long name fallback and no quote",
			resp: func() chartResponse {
				var r chartResponse
				res := chartResult{Timestamp: []int64{1767571200}}
				res.Meta.LongName = "Hon Hai"
				r.Chart.Result = []chartResult{res}
				return r
			}(),
			wantBars: 0,
			wantName: "Hon Hai",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseChart("2317", &tt.resp)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBars, got.Len())
			assert.Equal(t, tt.wantName, got.Name)
		})
	}
}
