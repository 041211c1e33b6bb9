package s1_universe

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/pkg/logger"
)

type stubDayAll struct {
	name    string
	records []contracts.DayAllRecord
	err     error
	calls   int
}

func (s *stubDayAll) Name() string { return s.name }

func (s *stubDayAll) FetchDayAll(context.Context) ([]contracts.DayAllRecord, error) {
	s.calls++
	return s.records, s.err
}

type stubClassifier struct {
	info map[string]contracts.Classification
	err  error
}

func (s stubClassifier) FetchClassifications(context.Context) (map[string]contracts.Classification, error) {
	return s.info, s.err
}

var testDate = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

func TestBuilder_checkExclusion(t *testing.T) {
	builder := &Builder{config: DefaultConfig()}
	info := map[string]contracts.Classification{
		"6901": {Type: "上市臺灣創新板"},
		"2330": {Type: "twse"},
	}

	tests := []struct {
		name string
		rec  contracts.DayAllRecord
		want string
	}{
		{
			name: "valid stock",
			rec:  contracts.DayAllRecord{Symbol: "2330", Volume: 30_000_000, Close: 600},
			want: "",
		},
		{
			name: "ETF code",
			rec:  contracts.DayAllRecord{Symbol: "00878", Volume: 30_000_000, Close: 20},
			want: ReasonNotCommonStock,
		},
		{
			name: "liquidity floor is exclusive",
			rec:  contracts.DayAllRecord{Symbol: "2317", Volume: 500_000, Close: 100},
			want: ReasonLowLiquidity,
		},
		{
			name: "price floor is exclusive",
			rec:  contracts.DayAllRecord{Symbol: "2317", Volume: 600_000, Close: 10},
			want: ReasonLowPrice,
		},
		{
			name: "innovation board",
			rec:  contracts.DayAllRecord{Symbol: "6901", Volume: 600_000, Close: 50},
			want: ReasonInnovation,
		},
		{
			name: "missing classification fails open",
			rec:  contracts.DayAllRecord{Symbol: "1101", Volume: 600_000, Close: 50},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := builder.checkExclusion(tt.rec, info)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsInnovationBoard(t *testing.T) {
	assert.True(t, IsInnovationBoard("創新板"))
	assert.True(t, IsInnovationBoard("創新版"))
	assert.True(t, IsInnovationBoard("Taiwan Innovation Board"))
	assert.False(t, IsInnovationBoard("twse"))
	assert.False(t, IsInnovationBoard(""))
}

func TestBuilder_Build_PoolInvariants(t *testing.T) {
	records := make([]contracts.DayAllRecord, 0, 50)
	for i := 0; i < 50; i++ {
		records = append(records, contracts.DayAllRecord{
			Symbol: fmt.Sprintf("%04d", 1000+i),
			Volume: float64(400_000 + (i%7)*100_000),
			Close:  float64(5 + i),
		})
	}
	records = append(records, records[10]) // 중복

	cfg := DefaultConfig()
	cfg.PoolSize = 20
	primary := &stubDayAll{name: "openapi", records: records}
	builder := NewBuilder(primary, nil, nil, cfg, logger.Nop())

	pool, err := builder.Build(context.Background(), testDate)
	require.NoError(t, err)

	assert.Equal(t, "openapi", pool.Source)
	assert.LessOrEqual(t, pool.Len(), cfg.PoolSize)
	assert.Equal(t, 51, pool.RawCount)

	seen := map[string]bool{}
	for i, e := range pool.Entries {
		assert.Greater(t, e.Volume, cfg.MinLiquidityShares)
		assert.Greater(t, e.Close, cfg.MinPrice)
		assert.False(t, seen[e.Symbol], "duplicate %s", e.Symbol)
		seen[e.Symbol] = true
		if i > 0 {
			assert.GreaterOrEqual(t, pool.Entries[i-1].Volume, e.Volume)
		}
	}
}

func TestBuilder_Build_FallsBackOnce(t *testing.T) {
	tests := []struct {
		name       string
		primary    *stubDayAll
		secondary  *stubDayAll
		wantSource string
		wantLen    int
	}{
		{
			name:       "primary ok",
			primary:    &stubDayAll{name: "openapi", records: []contracts.DayAllRecord{{Symbol: "2330", Volume: 1e6, Close: 600}}},
			secondary:  &stubDayAll{name: "legacy"},
			wantSource: "openapi",
			wantLen:    1,
		},
		{
			name:       "primary error",
			primary:    &stubDayAll{name: "openapi", err: errors.New("timeout")},
			secondary:  &stubDayAll{name: "legacy", records: []contracts.DayAllRecord{{Symbol: "2317", Volume: 1e6, Close: 100}}},
			wantSource: "legacy",
			wantLen:    1,
		},
		{
			name:       "primary empty",
			primary:    &stubDayAll{name: "openapi"},
			secondary:  &stubDayAll{name: "legacy", records: []contracts.DayAllRecord{{Symbol: "2317", Volume: 1e6, Close: 100}}},
			wantSource: "legacy",
			wantLen:    1,
		},
		{
			name:       "both fail",
			primary:    &stubDayAll{name: "openapi", err: errors.New("down")},
			secondary:  &stubDayAll{name: "legacy", err: errors.New("down")},
			wantSource: "none",
			wantLen:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := NewBuilder(tt.primary, tt.secondary, nil, DefaultConfig(), logger.Nop())

			pool, err := builder.Build(context.Background(), testDate)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSource, pool.Source)
			assert.Equal(t, tt.wantLen, pool.Len())
			assert.Equal(t, 1, tt.primary.calls)
			assert.LessOrEqual(t, tt.secondary.calls, 1)
		})
	}
}

func TestBuilder_Build_ClassifierFallback(t *testing.T) {
	records := []contracts.DayAllRecord{
		{Symbol: "2330", Volume: 2e6, Close: 600},
		{Symbol: "6901", Volume: 1e6, Close: 50},
	}
	classifiers := []contracts.ClassificationSource{
		stubClassifier{err: errors.New("finmind down")},
		stubClassifier{info: map[string]contracts.Classification{"6901": {Type: "創新板"}, "2330": {Industry: "半導體業"}}},
	}
	builder := NewBuilder(&stubDayAll{name: "openapi", records: records}, nil, classifiers, DefaultConfig(), logger.Nop())

	pool, err := builder.Build(context.Background(), testDate)
	require.NoError(t, err)
	assert.Equal(t, []string{"2330"}, pool.Symbols())
	assert.Equal(t, 1, pool.Excluded[ReasonInnovation])

	c, ok := pool.Classification("2330")
	require.True(t, ok)
	assert.Equal(t, "半導體業", c.Industry)
}

func TestBuilder_Build_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	builder := NewBuilder(&stubDayAll{name: "openapi", err: context.Canceled}, nil, nil, DefaultConfig(), logger.Nop())
	_, err := builder.Build(ctx, testDate)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuilder_Inspect(t *testing.T) {
	records := []contracts.DayAllRecord{
		{Symbol: "2330", Volume: 2e6, Close: 600},
		{Symbol: "2317", Volume: 100, Close: 100},
		{Symbol: "00878", Volume: 9e6, Close: 20},
	}
	builder := NewBuilder(&stubDayAll{name: "legacy", records: records}, nil, nil, DefaultConfig(), logger.Nop())

	diag, err := builder.Inspect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "legacy", diag.Source)
	assert.Equal(t, 3, diag.RawCount)
	assert.Equal(t, 2, diag.ParsedCount)
	assert.Equal(t, 1, diag.FilteredCount)
	assert.Equal(t, 1, diag.Excluded[ReasonLowLiquidity])
	assert.Len(t, diag.HeadPool, 1)
}
