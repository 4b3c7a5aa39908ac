package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"oink_ledger/internal/db"
	"oink_ledger/internal/logger"
	"oink_ledger/internal/migrations"
)

func main() {
	apply := flag.Bool("apply", false, "apply migrations (default: list only)")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}

	if !*apply {
		names, err := migrations.List()
		if err != nil {
			logger.Fatal("list migrations", "error", err)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	applied, err := migrations.Apply(ctx, pool)
	for _, name := range applied {
		fmt.Printf("applied %s\n", name)
	}
	if err != nil {
		logger.Fatal("migration failed", "error", err)
	}
}
