// cmd/server/main.go
package main

import (
	"context"
	"log"

	"github.com/Corphon/yt2blog/internal/app"
	"github.com/Corphon/yt2blog/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	application, err := app.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}
	defer application.Close()

	log.Printf("yt2blog listening on http://localhost:%s", cfg.Port)
	if err := application.Run(); err != nil {
		log.Printf("server error: %v", err)
	}
}
