package main

import (
	"log"
	"net/http"

	"predio-server/src/aggregator"
	"predio-server/src/api"
	"predio-server/src/bank"
	"predio-server/src/config"
	"predio-server/src/db"
	sqldb "predio-server/src/db/sql"
)

func main() {
	cfg := config.Load()

	// Connect to database and apply schema
	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("DB connection failed: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("DB migration failed: %v", err)
	}

	db.InitCache()

	aggClient := aggregator.NewHTTPClient(aggregator.Config{
		BaseURL:      cfg.AggregatorBaseURL,
		ClientID:     cfg.AggregatorClientID,
		ClientSecret: cfg.AggregatorClientSecret,
		RedirectURL:  cfg.AggregatorRedirectURL,
	})

	svc := bank.NewService(sqldb.NewStore(pool), aggClient, []byte(cfg.StateSecret), log.Default())

	// Router
	router := api.NewRouter(svc, cfg.JWTSecret, cfg.ReadOnly)

	log.Println("API server running on port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatal(err)
	}
}
