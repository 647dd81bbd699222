package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"agency-crm-backend/pkg/config"
	"agency-crm-backend/pkg/router"
	"agency-crm-backend/pkg/store"
)

func main() {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	s, err := store.NewStore(store.StoreConfig{
		DataDir:     cfg.DataDir,
		PostgresDSN: cfg.PostgresDSN,
		Debug:       cfg.Debug,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize store: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	if cfg.SeedOnStart {
		summary, err := store.SeedAllOrgs(s, time.Now())
		if err != nil {
			fmt.Printf("seed: failed: %v\n", err)
		} else {
			for orgID, res := range summary {
				fmt.Printf("seed: org=%s clients=%d activities=%d\n", orgID, res.AddedClients, res.AddedActivities)
			}
		}
	}

	handler := router.New(cfg, s)

	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	fmt.Printf("server: listening on %s (env=%s)\n", addr, cfg.Environment)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
