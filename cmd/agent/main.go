// Package main runs the market-making agent against a live exchange.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"glue-exchange/internal/agent"
	"glue-exchange/internal/apiclient"
	"glue-exchange/internal/simulation"
)

func main() {
	baseURL := flag.String("url", envOr("EXCHANGE_URL", "http://localhost:3001"), "exchange API base URL")
	accountID := flag.String("account", envOr("AGENT_ACCOUNT_ID", "market-maker"), "trading account id")
	botSecret := flag.String("secret", os.Getenv("BOT_SECRET"), "service credential")
	seed := flag.Int64("seed", time.Now().UnixNano(), "decision stream seed")
	configPath := flag.String("config", "", "JSON trader model file (defaults to production calibration)")

	flag.Parse()

	logger := log.New(os.Stdout, "[agent] ", log.LstdFlags|log.Lshortfile)

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

	client := apiclient.New(*baseURL, *accountID, apiclient.WithBotSecret(*botSecret))

	maker, err := agent.New(client, cfg, *seed, logger)
	if err != nil {
		logger.Fatalf("create market maker: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := maker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("market maker: %v", err)
	}
	logger.Println("shutdown complete")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
