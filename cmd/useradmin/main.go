// Command useradmin enables or disables a plantswap account.
//
//	useradmin -username alice -active=false
//
// It reads POSTGRES_DSN like the server does.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/prowe12/plantswap/internal/auth"
	"github.com/prowe12/plantswap/internal/config"
	"github.com/prowe12/plantswap/internal/logging"
	"github.com/prowe12/plantswap/internal/store"
)

func main() {
	username := flag.String("username", "", "account to change")
	active := flag.Bool("active", true, "whether the account may use protected endpoints")
	flag.Parse()

	if *username == "" {
		fmt.Fprintln(os.Stderr, "useradmin: -username is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	log := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := store.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("postgres connect", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	users := store.NewPostgresStore(pool)
	svc := auth.NewService(users, auth.NewBcryptHasher(cfg.BcryptCost), nil, cfg.AccessTokenTTL, log)
	if err := svc.SetActive(ctx, *username, *active); err != nil {
		log.Error("update failed", "error", err)
		os.Exit(1)
	}
}
