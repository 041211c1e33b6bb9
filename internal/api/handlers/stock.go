package handlers

import (
	"context"
	"errors"
	"net/http"
	"regexp"

	"github.com/gorilla/mux"

	"github.com/wonny/twpicks/internal/brain"
	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/pkg/logger"
)

var stockSymbolPattern = regexp.MustCompile(`^[0-9A-Z]{4,6}$`)

// SymbolScorer scores one symbol end to end
type SymbolScorer interface {
	ScoreSymbol(ctx context.Context, symbol string, windowDays int) (*contracts.ScoreRecord, error)
	SecondaryEnabled() bool
}

// StockHandler serves single-symbol scoring
type StockHandler struct {
	scorer SymbolScorer
	logger *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(scorer SymbolScorer, log *logger.Logger) *StockHandler {
	return &StockHandler{
		scorer: scorer,
		logger: log.WithField("handler", "stock"),
	}
}

// StockResponse is the single-symbol detail view
type StockResponse struct {
	OK             bool                           `json:"ok"`
	Symbol         string                         `json:"symbol"`
	Name           string                         `json:"name"`
	Industry       string                         `json:"industry"`
	WindowDays     int                            `json:"windowDays"`
	Score          float64                        `json:"score"`
	Passed         bool                           `json:"passed"`
	TradeStyle     string                         `json:"tradeStyle"`
	Signals        contracts.RawSignals           `json:"signals"`
	Plan           contracts.Plan                 `json:"plan"`
	Badges         []string                       `json:"badges,omitempty"`
	Debug          contracts.Diagnostics          `json:"debug"`
	Inst           contracts.InstitutionalSummary `json:"inst"`
	FinMindEnabled bool                           `json:"finmindEnabled"`
	Secondary      *contracts.SecondarySignals    `json:"finmind"`
}

// GetStock scores one symbol with institutional detail and secondary signals
// GET /api/stock/{symbol}?window=10
func (h *StockHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	if !stockSymbolPattern.MatchString(symbol) {
		respondError(w, http.StatusBadRequest, "invalid symbol")
		return
	}
	windowDays := queryInt(r, "window", 0)

	rec, err := h.scorer.ScoreSymbol(r.Context(), symbol, windowDays)
	if err != nil {
		if errors.Is(err, brain.ErrInsufficientHistory) {
			respondError(w, http.StatusNotFound, "no bars")
			return
		}
		h.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to score symbol")
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, StockResponse{
		OK:             true,
		Symbol:         rec.Symbol,
		Name:           rec.Name,
		Industry:       rec.Industry,
		WindowDays:     rec.Institutional.WindowDays,
		Score:          rec.Score,
		Passed:         rec.Passed,
		TradeStyle:     rec.TradeStyle,
		Signals:        rec.Signals,
		Plan:           rec.Plan,
		Badges:         rec.Badges,
		Debug:          rec.Diagnostics,
		Inst:           rec.Institutional,
		FinMindEnabled: h.scorer.SecondaryEnabled(),
		Secondary:      rec.Secondary,
	})
}
