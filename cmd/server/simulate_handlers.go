package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"glue-exchange/internal/curve"
	"glue-exchange/internal/observability"
	"glue-exchange/internal/simulation"
)

// Guardrails for simulation requests: these run on the API process, so
// a single request must not be able to occupy it for minutes.
const (
	maxPathSimulations = 16
	maxStatsIterations = 100_000
	maxSimulatedDays   = 365
)

type simulateBody struct {
	Config      *simulation.Config `json:"config"`
	Days        int                `json:"days"`
	Simulations int                `json:"simulations"`
	Iterations  int                `json:"iterations"`
	Seed        *int64             `json:"seed"`
}

// resolveSimulation fills in what the request left out: the production
// trader model, a current-time seed, and the live curve and supply.
func (a *API) resolveSimulation(r *http.Request, body *simulateBody) (simulation.Config, curve.Params, int64, error) {
	cfg := simulation.DefaultConfig()
	if body.Config != nil {
		cfg = *body.Config
	}

	stats, err := a.engine.Stats(r.Context())
	if err != nil {
		return cfg, curve.Params{}, 0, err
	}
	params := curve.Params{BasePrice: stats.BasePrice, Multiplier: stats.Multiplier}
	if body.Config == nil {
		cfg.InitialSupply = stats.Supply
	}

	seed := time.Now().UnixNano()
	if body.Seed != nil {
		seed = *body.Seed
	}
	return cfg, params, seed, nil
}

func (a *API) handleSimulatePath(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusBadRequest, "POST required")
		return
	}
	if !a.authorize(w, r) {
		return
	}

	var body simulateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if body.Days <= 0 {
		body.Days = 1
	}
	if body.Simulations <= 0 {
		body.Simulations = 4
	}
	if body.Simulations > maxPathSimulations || body.Days > maxSimulatedDays {
		writeError(w, http.StatusBadRequest, "simulation request too large")
		return
	}

	cfg, params, seed, err := a.resolveSimulation(r, &body)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}

	results, err := simulation.RunPaths(cfg, params, body.Days, body.Simulations, seed)
	if err != nil {
		a.writeSimulationError(w, err)
		return
	}

	observability.SimulationRunsTotal.WithLabelValues("path").Inc()
	writeJSON(w, http.StatusOK, results)
}

func (a *API) handleSimulateStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusBadRequest, "POST required")
		return
	}
	if !a.authorize(w, r) {
		return
	}

	var body simulateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if body.Days <= 0 {
		body.Days = 1
	}
	if body.Iterations <= 0 {
		body.Iterations = 10_000
	}
	if body.Iterations > maxStatsIterations || body.Days > maxSimulatedDays {
		writeError(w, http.StatusBadRequest, "simulation request too large")
		return
	}

	cfg, params, seed, err := a.resolveSimulation(r, &body)
	if err != nil {
		a.writeEngineError(w, err)
		return
	}

	res, err := simulation.RunStats(cfg, params, body.Days, body.Iterations, seed)
	if err != nil {
		a.writeSimulationError(w, err)
		return
	}

	observability.SimulationRunsTotal.WithLabelValues("stats").Inc()
	writeJSON(w, http.StatusOK, res)
}

func (a *API) writeSimulationError(w http.ResponseWriter, err error) {
	if errors.Is(err, simulation.ErrInvalidConfig) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.writeEngineError(w, err)
}
