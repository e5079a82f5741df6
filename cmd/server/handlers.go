package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"glue-exchange/internal/broadcast"
	"glue-exchange/internal/candle"
	"glue-exchange/internal/curve"
	"glue-exchange/internal/domain"
	"glue-exchange/internal/exchange"
	"glue-exchange/internal/idhash"
	"glue-exchange/internal/observability"
	"glue-exchange/internal/storage"
)

// API wires the engine and supporting services into HTTP handlers.
type API struct {
	engine    *exchange.Engine
	trades    storage.TradeStore
	hub       *broadcast.Hub
	botSecret string
	logger    *log.Logger
}

// Routes registers every endpoint on the mux.
func (a *API) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/exchange/quote", a.handleQuote)
	mux.HandleFunc("/api/exchange/trade", a.handleTrade)
	mux.HandleFunc("/api/exchange/chart", a.handleChart)
	mux.HandleFunc("/api/exchange/ticker", a.handleTicker)
	mux.HandleFunc("/api/exchange/admin", a.handleAdminStats)
	mux.HandleFunc("/api/exchange/admin/parameters", a.handleAdminSetParameters)
	mux.HandleFunc("/api/exchange/admin/toggle", a.handleAdminToggle)
	mux.HandleFunc("/api/exchange/admin/reset", a.handleAdminReset)
	mux.HandleFunc("/api/simulate/path", a.handleSimulatePath)
	mux.HandleFunc("/api/simulate/stats", a.handleSimulateStats)
	mux.HandleFunc("/ws/market", a.hub.ServeWS)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeEngineError maps engine errors onto HTTP statuses: rejections
// are 400, the circuit breaker is 403, everything else is 500.
func (a *API) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, exchange.ErrMarketClosed):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, exchange.ErrInvalidAmount),
		errors.Is(err, exchange.ErrInvalidSide),
		errors.Is(err, exchange.ErrInsufficientBalance),
		errors.Is(err, exchange.ErrInsufficientAssetBalance),
		errors.Is(err, exchange.ErrInsufficientLiquidity),
		errors.Is(err, curve.ErrInvalidAmount),
		errors.Is(err, curve.ErrInvalidParams),
		errors.Is(err, storage.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		a.logger.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// errorReason labels rejections for metrics.
func errorReason(err error) string {
	switch {
	case errors.Is(err, exchange.ErrMarketClosed):
		return "market_closed"
	case errors.Is(err, exchange.ErrInvalidAmount), errors.Is(err, exchange.ErrInvalidSide):
		return "invalid_input"
	case errors.Is(err, exchange.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, exchange.ErrInsufficientAssetBalance):
		return "insufficient_asset_balance"
	case errors.Is(err, exchange.ErrInsufficientLiquidity):
		return "insufficient_liquidity"
	default:
		return "internal"
	}
}

// authorize gates bot/admin endpoints on the shared service secret.
// An unset secret leaves the instance open, which is the local dev mode.
func (a *API) authorize(w http.ResponseWriter, r *http.Request) bool {
	if a.botSecret == "" {
		return true
	}
	if r.Header.Get("X-Bot-Secret") != a.botSecret {
		writeError(w, http.StatusForbidden, "invalid service credential")
		return false
	}
	return true
}

func parseSide(action string) (domain.Side, bool) {
	switch strings.ToUpper(action) {
	case "BUY":
		return domain.SideBuy, true
	case "SELL":
		return domain.SideSell, true
	default:
		return "", false
	}
}

type tradeBody struct {
	Action string `json:"action"`
	Amount int64  `json:"amount"`
}

func (a *API) handleQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusBadRequest, "POST required")
		return
	}

	var body tradeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	side, ok := parseSide(body.Action)
	if !ok {
		writeError(w, http.StatusBadRequest, exchange.ErrInvalidSide.Error())
		return
	}

	q, err := a.engine.Quote(r.Context(), side, body.Amount)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}

	observability.QuotesTotal.WithLabelValues(string(side)).Inc()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"totalCoins": q.TotalCoins,
		"priceStart": q.PriceStart,
		"priceEnd":   q.PriceEnd,
	})
}

func (a *API) handleTrade(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusBadRequest, "POST required")
		return
	}
	if !a.authorize(w, r) {
		return
	}

	accountID := r.Header.Get("X-Account-Id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "X-Account-Id header required")
		return
	}

	var body tradeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	side, ok := parseSide(body.Action)
	if !ok {
		writeError(w, http.StatusBadRequest, exchange.ErrInvalidSide.Error())
		return
	}

	start := time.Now()
	rec, err := a.engine.ExecuteTrade(r.Context(), accountID, side, body.Amount)
	observability.TradeDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		observability.TradeErrorsTotal.WithLabelValues(errorReason(err)).Inc()
		a.writeEngineError(w, err)
		return
	}

	observability.TradesTotal.WithLabelValues(string(side)).Inc()
	a.updateMarketGauges(r)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"tradeId": idhash.ShortTradeID(rec.TradeID),
	})
}

func (a *API) updateMarketGauges(r *http.Request) {
	price, supply, err := a.engine.Ticker(r.Context())
	if err != nil {
		return
	}
	observability.SpotPrice.Set(price)
	observability.Supply.Set(float64(supply))
}

// parseChartWindow converts optional from/to query values (unix seconds,
// inclusive) into a millisecond range for the ledger scan. An omitted
// bound is open on that side.
func parseChartWindow(fromRaw, toRaw string) (fromMs, toMs int64, err error) {
	const maxUnixSec = math.MaxInt64/1000 - 1

	fromMs, toMs = 0, math.MaxInt64
	if fromRaw != "" {
		from, perr := strconv.ParseInt(fromRaw, 10, 64)
		if perr != nil || from < 0 || from > maxUnixSec {
			return 0, 0, fmt.Errorf("from must be a non-negative unix timestamp (seconds)")
		}
		fromMs = from * 1000
	}
	if toRaw != "" {
		to, perr := strconv.ParseInt(toRaw, 10, 64)
		if perr != nil || to < 0 || to > maxUnixSec {
			return 0, 0, fmt.Errorf("to must be a non-negative unix timestamp (seconds)")
		}
		// Inclusive of the whole final second.
		toMs = to*1000 + 999
	}
	if fromMs > toMs {
		return 0, 0, fmt.Errorf("from must not be after to")
	}
	return fromMs, toMs, nil
}

// chartCandle is the wire form of a candle; time is unix seconds.
type chartCandle struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

func (a *API) handleChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	resolutionMin := int64(1)
	if raw := q.Get("resolution"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "resolution must be a positive integer (minutes)")
			return
		}
		resolutionMin = parsed
	}

	var (
		trades []*domain.TradeRecord
		err    error
	)
	if q.Get("from") != "" || q.Get("to") != "" {
		fromMs, toMs, perr := parseChartWindow(q.Get("from"), q.Get("to"))
		if perr != nil {
			writeError(w, http.StatusBadRequest, perr.Error())
			return
		}
		trades, err = a.trades.GetByTimeRange(r.Context(), fromMs, toMs)
	} else {
		trades, err = a.trades.GetAll(r.Context())
	}
	if err != nil {
		a.writeEngineError(w, err)
		return
	}

	candles, err := candle.Build(trades, resolutionMin*60_000)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out := make([]chartCandle, 0, len(candles))
	for _, c := range candles {
		out = append(out, chartCandle{
			Time:  c.BucketStart / 1000,
			Open:  c.Open,
			High:  c.High,
			Low:   c.Low,
			Close: c.Close,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleTicker(w http.ResponseWriter, r *http.Request) {
	price, supply, err := a.engine.Ticker(r.Context())
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"price":  price,
		"supply": supply,
	})
}

func (a *API) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	if !a.authorize(w, r) {
		return
	}

	stats, err := a.engine.Stats(r.Context())
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type parametersBody struct {
	Base       float64 `json:"base"`
	Multiplier float64 `json:"multiplier"`
}

func (a *API) handleAdminSetParameters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusBadRequest, "POST required")
		return
	}
	if !a.authorize(w, r) {
		return
	}

	var body parametersBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	err := a.engine.SetParameters(r.Context(), curve.Params{
		BasePrice:  body.Base,
		Multiplier: body.Multiplier,
	})
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (a *API) handleAdminToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusBadRequest, "POST required")
		return
	}
	if !a.authorize(w, r) {
		return
	}

	open, err := a.engine.ToggleOpen(r.Context())
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"marketOpen": open})
}

func (a *API) handleAdminReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusBadRequest, "POST required")
		return
	}
	if !a.authorize(w, r) {
		return
	}

	var body parametersBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	season, err := a.engine.ResetSeason(r.Context(), curve.Params{
		BasePrice:  body.Base,
		Multiplier: body.Multiplier,
	})
	if err != nil {
		a.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"seasonId": season})
}
