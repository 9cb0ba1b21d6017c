// Command dbcheck verifies the wallet database is reachable with the
// configured credentials and reports how many accounts it holds.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/frankieli/players_bet/internal/config"
	"github.com/frankieli/players_bet/internal/modules/wallet/domain"
)

func main() {
	timeout := flag.Duration("timeout", 5*time.Second, "Connect timeout")
	flag.Parse()

	cfg, err := config.LoadWagerConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if cfg.Database.Driver != "postgres" {
		fmt.Printf("ℹ️  DB_DRIVER is %s, nothing to check\n", cfg.Database.Driver)
		return
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ open: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to reach %s:%s as %s: %v\n",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.User, err)
		os.Exit(1)
	}
	fmt.Printf("✅ Connected to %s on %s:%s\n", cfg.Database.Name, cfg.Database.Host, cfg.Database.Port)

	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", domain.Account{}.TableName())
	if err := db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		fmt.Printf("⚠️  Wallet table not readable yet (run the monolith once to migrate): %v\n", err)
		return
	}
	fmt.Printf("✅ %d wallet accounts\n", count)
}
