package selection

import (
	"strings"

	"github.com/wonny/twpicks/internal/contracts"
)

// ReasonPass is the diagnostics reason when every gate holds
const ReasonPass = "PASS"

// Screener evaluates the gate chain
// ⭐ SSOT: 통과/실패 판정은 여기서만
type Screener struct {
	gates []Gate
}

// NewScreener creates a new screener
func NewScreener(gates []Gate) *Screener {
	return &Screener{gates: gates}
}

// Gates returns the configured chain
func (s *Screener) Gates() []Gate {
	return s.gates
}

// Screen reports whether all gates pass and the failed reasons in gate order
func (s *Screener) Screen(in GateInput) (bool, []string) {
	d := s.Evaluate(in)
	return len(d.Failed) == 0, d.Failed
}

// Evaluate runs every gate (no short-circuit) and records the outcome
func (s *Screener) Evaluate(in GateInput) contracts.Diagnostics {
	d := contracts.Diagnostics{
		Gates: make(map[string]bool, len(s.gates)),
	}
	for _, g := range s.gates {
		ok := g.Check(in)
		d.Gates[g.Name()] = ok
		if !ok {
			d.Failed = append(d.Failed, g.Reason())
		}
	}

	d.Reason = ReasonPass
	if len(d.Failed) > 0 {
		d.Reason = strings.Join(d.Failed, " / ")
	}
	return d
}
