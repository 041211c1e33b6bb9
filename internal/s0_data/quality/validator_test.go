package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/twpicks/internal/contracts"
)

func pool(n int, classified int) *contracts.Pool {
	p := &contracts.Pool{Info: map[string]contracts.Classification{}}
	for i := 0; i < n; i++ {
		sym := string(rune('A'+i)) + "000"
		p.Entries = append(p.Entries, contracts.PoolEntry{Symbol: sym})
		if i < classified {
			p.Info[sym] = contracts.Classification{Symbol: sym}
		}
	}
	return p
}

func window(requested, resolved int) *contracts.FlowWindow {
	w := &contracts.FlowWindow{Requested: requested}
	for i := 0; i < resolved; i++ {
		w.Days = append(w.Days, &contracts.InstitutionalDay{})
	}
	return w
}

func TestQualityGate_Check(t *testing.T) {
	gate := NewQualityGate(DefaultConfig())
	date := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		in        Input
		wantValid bool
		wantScore float64
		wantCov   map[string]float64
	}{
		{
			name:      "complete",
			in:        Input{Date: date, Pool: pool(10, 10), Window: window(10, 10), Fetched: 10, Scored: 10},
			wantValid: true,
			wantScore: 1.0,
			wantCov:   map[string]float64{CoverageBars: 1, CoverageHistory: 1, CoverageInstitutional: 1, CoverageClassification: 1},
		},
		{
			name:      "short window",
			in:        Input{Date: date, Pool: pool(10, 10), Window: window(10, 5), Fetched: 10, Scored: 10},
			wantValid: false,
			wantScore: 0.85,
			wantCov:   map[string]float64{CoverageInstitutional: 0.5},
		},
		{
			name:      "half the bars missing",
			in:        Input{Date: date, Pool: pool(10, 0), Window: window(10, 10), Fetched: 5, Scored: 5},
			wantValid: false,
			wantScore: 0.70,
			wantCov:   map[string]float64{CoverageBars: 0.5, CoverageHistory: 1, CoverageClassification: 0},
		},
		{
			name:      "empty universe",
			in:        Input{Date: date, Pool: &contracts.Pool{}, Window: window(10, 10)},
			wantValid: false,
			wantScore: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := gate.Check(tt.in)
			require.NotNil(t, snap)
			assert.Equal(t, date, snap.Date)
			assert.Equal(t, tt.wantValid, snap.IsValid(), snap.Warnings)
			assert.InDelta(t, tt.wantScore, snap.QualityScore, 1e-9)
			for key, want := range tt.wantCov {
				assert.InDelta(t, want, snap.Coverage[key], 1e-9, key)
			}
		})
	}
}

func TestQualityGate_NilWindow(t *testing.T) {
	snap := NewQualityGate(DefaultConfig()).Check(Input{Pool: pool(2, 2), Fetched: 2, Scored: 2})
	assert.Equal(t, 0.0, snap.Coverage[CoverageInstitutional])
	assert.False(t, snap.IsValid())
}
