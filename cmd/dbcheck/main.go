// Command dbcheck verifies that the configured store is reachable.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"minibackends/config"
	"minibackends/database"
)

func main() {
	app := flag.String("app", string(config.ShortURL), "which service's DATABASE_URL default to use (shorturl or todo)")
	flag.Parse()

	cfg, err := config.Load(config.App(*app))
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	db, err := database.Connect(cfg.DatabaseURL, cfg.DBConnectRetries, cfg.Logger())
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close(db)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := database.Ping(ctx, db); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	fmt.Println("Database connection successful!")
}
