package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"oink_ledger/internal/config"
	"oink_ledger/internal/db"
	"oink_ledger/internal/logger"
	"oink_ledger/internal/service"
)

// seed_account sets a local account's balance and prints a token for it.
func main() {
	fid := flag.String("fid", "1234567890", "account fid")
	username := flag.String("username", "testuser", "display name")
	balance := flag.Int64("balance", -1, "balance to set (default: keep/bootstrap)")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	pool := db.Connect(cfg.DatabaseURL)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	balances := service.NewBalanceService(pool, cfg.DefaultBalance, nil)

	if *balance >= 0 {
		change, err := balances.SetBalance(ctx, *fid, *username, *balance, "seed")
		if err != nil {
			logger.Fatal("set balance failed", "error", err)
		}
		logger.Info("balance set", "fid", change.FID, "balance", change.Balance, "change", change.Change)
	}

	current, err := balances.GetBalance(ctx, *fid)
	if err != nil {
		logger.Fatal("get balance failed", "error", err)
	}
	fmt.Printf("fid=%s balance=%d\n", *fid, current)

	if tokens := service.NewIdentityTokens(cfg.JWTSecret); tokens != nil {
		token, err := tokens.Issue(*fid, 24*time.Hour)
		if err != nil {
			logger.Fatal("failed to generate token", "error", err)
		}
		fmt.Printf("token=%s\n", token)
	} else {
		fmt.Fprintln(os.Stderr, "JWT_SECRET not set; no token issued")
	}
}
