package contracts

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarSeries_Columns(t *testing.T) {
	s := &BarSeries{Symbol: "2330", Bars: []Bar{
		{Close: 10, High: 11, Low: 9, Volume: 100},
		{Close: 12, High: 13, Low: 11, Volume: 200},
	}}

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []float64{10, 12}, s.Closes())
	assert.Equal(t, []float64{11, 13}, s.Highs())
	assert.Equal(t, []float64{9, 11}, s.Lows())
	assert.Equal(t, []float64{100, 200}, s.Volumes())

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, 12.0, last.Close)

	var empty *BarSeries
	assert.Equal(t, 0, empty.Len())
	_, ok = empty.Last()
	assert.False(t, ok)
}

func TestBucket_Contains(t *testing.T) {
	lt100 := Bucket{Key: "lt100", Min: math.Inf(-1), Max: 100}
	mid := Bucket{Key: "100_300", Min: 100, Max: 300}

	tests := []struct {
		name   string
		bucket Bucket
		price  float64
		want   bool
	}{
		{"below upper bound", lt100, 99.99, true},
		{"upper bound is exclusive", lt100, 100, false},
		{"lower bound is inclusive", mid, 100, true},
		{"NaN never matches", mid, math.NaN(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.bucket.Contains(tt.price))
		})
	}
}

func TestBucket_JSONInfinity(t *testing.T) {
	b := Bucket{Key: "gt1000", Label: "1000以上", Min: 1000, Max: math.Inf(1)}

	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"gt1000","label":"1000以上","min":1000,"max":null}`, string(data))

	var back Bucket
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, 1000.0, back.Min)
	assert.True(t, math.IsInf(back.Max, 1))
}

func TestSecondarySignals_HotCount(t *testing.T) {
	var none *SecondarySignals
	assert.Equal(t, 0, none.HotCount())

	s := &SecondarySignals{
		Margin:   &MarginHeat{Hot: true},
		DayTrade: &DayTradeHeat{Hot: true},
	}
	assert.Equal(t, 2, s.HotCount())

	s.DayTrade = nil
	assert.Equal(t, 1, s.HotCount())
}

func TestPool_Helpers(t *testing.T) {
	var nilPool *Pool
	assert.Equal(t, 0, nilPool.Len())
	assert.Nil(t, nilPool.Symbols())

	p := &Pool{
		Entries: []PoolEntry{{Symbol: "2330"}, {Symbol: "2317"}},
		Info:    map[string]Classification{"2330": {Industry: "半導體業"}},
	}
	assert.Equal(t, []string{"2330", "2317"}, p.Symbols())

	_, ok := p.Lookup("2317")
	assert.True(t, ok)
	_, ok = p.Lookup("9999")
	assert.False(t, ok)

	c, ok := p.Classification("2330")
	assert.True(t, ok)
	assert.Equal(t, "半導體業", c.Industry)
}

func TestFlowWindow_Dates(t *testing.T) {
	w := &FlowWindow{Days: []*InstitutionalDay{
		{Date: time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)},
		{Date: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)},
	}}
	assert.Equal(t, []string{"20260106", "20260105"}, w.Dates())

	var nilWindow *FlowWindow
	assert.Nil(t, nilWindow.Dates())
}

func TestCategoryNet(t *testing.T) {
	a := CategoryNet{Foreign: 100, Trust: -20, Dealer: 5}
	assert.Equal(t, 85.0, a.Total())
	assert.Equal(t, CategoryNet{Foreign: 101, Trust: -19, Dealer: 6}, a.Add(CategoryNet{1, 1, 1}))
}
