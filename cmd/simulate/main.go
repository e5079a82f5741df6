// Package main runs bonding-curve simulations from the command line.
//
// Path mode renders a few full candle series; statistics mode runs a
// large batch and prints the terminal price distribution, optionally
// persisting the aggregate to ClickHouse as calibration history.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"glue-exchange/internal/curve"
	"glue-exchange/internal/domain"
	"glue-exchange/internal/idhash"
	"glue-exchange/internal/simulation"
	chstore "glue-exchange/internal/storage/clickhouse"
	"glue-exchange/internal/storage/migrations"
)

func main() {
	mode := flag.String("mode", "path", "simulation mode: path or stats")
	days := flag.Int("days", 1, "simulated horizon per run, in days")
	simulations := flag.Int("simulations", 4, "number of runs (path mode)")
	iterations := flag.Int("iterations", 10000, "number of runs (stats mode)")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed (fixed seed reproduces the batch)")
	basePrice := flag.Float64("base", 50, "curve base price")
	multiplier := flag.Float64("multiplier", 1.0003, "curve per-unit growth factor")
	initialSupply := flag.Int64("initial-supply", 0, "starting supply")
	configPath := flag.String("config", "", "JSON trader model file (defaults to production calibration)")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "persist stats aggregates to ClickHouse (optional)")

	flag.Parse()

	logger := log.New(os.Stderr, "[simulate] ", log.LstdFlags)

	cfg := simulation.DefaultConfig()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			logger.Fatalf("read config: %v", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			logger.Fatalf("parse config: %v", err)
		}
	}
	cfg.InitialSupply = *initialSupply

	params := curve.Params{BasePrice: *basePrice, Multiplier: *multiplier}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	switch *mode {
	case "path":
		start := time.Now()
		results, err := simulation.RunPaths(cfg, params, *days, *simulations, *seed)
		if err != nil {
			logger.Fatalf("path simulation: %v", err)
		}
		logger.Printf("%d path runs over %d day(s) in %v", len(results), *days, time.Since(start))
		if err := enc.Encode(results); err != nil {
			logger.Fatalf("encode results: %v", err)
		}

	case "stats":
		start := time.Now()
		res, err := simulation.RunStats(cfg, params, *days, *iterations, *seed)
		if err != nil {
			logger.Fatalf("stats simulation: %v", err)
		}
		logger.Printf("%d runs over %d day(s) in %v (winRate=%.3f)",
			res.Iterations, *days, time.Since(start), res.WinRate)
		if err := enc.Encode(res); err != nil {
			logger.Fatalf("encode results: %v", err)
		}

		if *clickhouseDSN != "" {
			if err := persistAggregate(*clickhouseDSN, res, *days, logger); err != nil {
				logger.Fatalf("persist aggregate: %v", err)
			}
		}

	default:
		logger.Fatalf("unknown mode %q (want path or stats)", *mode)
	}
}

// persistAggregate stores a stats batch in simulation_aggregates for
// later comparison across curve calibrations.
func persistAggregate(dsn string, res *simulation.StatsResult, days int, logger *log.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close()

	now := time.Now().UnixMilli()
	agg := &domain.SimulationAggregate{
		RunID:           idhash.ComputeRunID(res.Iterations, days, now),
		CreatedAtMs:     now,
		Iterations:      res.Iterations,
		Days:            days,
		InitialPrice:    res.InitialPrice,
		AvgPrice:        res.AvgPrice,
		MedianPrice:     res.MedianPrice,
		MinPrice:        res.MinPrice,
		MaxPrice:        res.MaxPrice,
		P05Price:        res.P05Price,
		P95Price:        res.P95Price,
		WinRate:         res.WinRate,
		AvgVolumePerSim: res.AvgVolumePerSim,
	}

	store := chstore.NewSimulationAggregateStore(conn)
	if err := store.Insert(ctx, agg); err != nil {
		return err
	}
	logger.Printf("aggregate %s persisted", agg.RunID)
	return nil
}
