// Package main runs the exchange service: the HTTP trading API, the
// market event WebSocket feed, and the Prometheus endpoint.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"glue-exchange/internal/broadcast"
	"glue-exchange/internal/bus"
	"glue-exchange/internal/config"
	"glue-exchange/internal/curve"
	"glue-exchange/internal/domain"
	"glue-exchange/internal/exchange"
	"glue-exchange/internal/observability"
	"glue-exchange/internal/storage"
	"glue-exchange/internal/storage/memory"
	"glue-exchange/internal/storage/migrations"
	pgstore "glue-exchange/internal/storage/postgres"
)

// seedCoins funds the in-memory market maker account so a dev instance
// can trade immediately.
const (
	seedAccountID = "market-maker"
	seedCoins     = 1_000_000
)

type stores struct {
	states   storage.MarketStateStore
	trades   storage.TradeStore
	accounts storage.AccountStore
}

func main() {
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, cleanup, err := createStores(ctx, cfg)
	if err != nil {
		logger.Fatalf("create stores: %v", err)
	}
	defer cleanup()

	if cfg.UseMemory {
		if err := st.accounts.Credit(ctx, seedAccountID, domain.CurrencyCoins, seedCoins); err != nil {
			logger.Fatalf("seed dev account: %v", err)
		}
		logger.Printf("dev mode: seeded %s with %d coins", seedAccountID, int(seedCoins))
	}

	events := bus.New()
	engine := exchange.New(exchange.Options{
		Config: exchange.Config{
			SeasonID:     cfg.SeasonID,
			SellFeePct:   cfg.SellFeePct,
			BurnSplit:    cfg.BurnSplit,
			FeeAccountID: cfg.FeeAccountID,
		},
		States:   st.states,
		Trades:   st.trades,
		Accounts: st.accounts,
		Events:   events,
		Logger:   log.New(os.Stdout, "[engine] ", log.LstdFlags|log.Lshortfile),
	})

	params := curve.Params{BasePrice: cfg.BasePrice, Multiplier: cfg.Multiplier}
	if err := engine.EnsureState(ctx, params); err != nil {
		logger.Fatalf("ensure market state: %v", err)
	}

	hub := broadcast.NewHub(events.Subscribe(64), log.New(os.Stdout, "[ws] ", log.LstdFlags))
	hub.OnClientCountChange(func(n int) {
		observability.WSClients.Set(float64(n))
	})
	go hub.Run(ctx)

	api := &API{
		engine:    engine,
		trades:    st.trades,
		hub:       hub,
		botSecret: cfg.BotSecret,
		logger:    logger,
	}

	mux := http.NewServeMux()
	api.Routes(mux)
	apiServer := &http.Server{Addr: cfg.Addr, Handler: mux}

	go startMetricsServer(cfg.MetricsAddr, logger)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("received signal %v, shutting down", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("shutdown: %v", err)
		}
	}()

	logger.Printf("exchange API listening on %s (season %d, base=%v multiplier=%v)",
		cfg.Addr, engine.SeasonID(), cfg.BasePrice, cfg.Multiplier)

	if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("api server: %v", err)
	}
	logger.Println("shutdown complete")
}

// createStores selects the storage backend. Memory mode needs no
// external services; Postgres mode applies the embedded migrations on
// startup.
func createStores(ctx context.Context, cfg *config.Config) (*stores, func(), error) {
	if cfg.UseMemory {
		return &stores{
			states:   memory.NewMarketStateStore(),
			trades:   memory.NewTradeStore(),
			accounts: memory.NewAccountStore(),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("apply postgres migrations: %w", err)
	}

	return &stores{
		states:   pgstore.NewMarketStateStore(pool),
		trades:   pgstore.NewTradeStore(pool),
		accounts: pgstore.NewAccountStore(pool),
	}, pool.Close, nil
}

// startMetricsServer exposes /metrics and a liveness probe on a
// separate listener so operational traffic never shares the API port.
func startMetricsServer(addr string, logger *log.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	logger.Printf("metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Printf("metrics server: %v", err)
	}
}
