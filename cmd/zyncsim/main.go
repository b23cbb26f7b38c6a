package main

import (
	"log"

	"github.com/zyncrender/max-plugin/internal/config"
	"github.com/zyncrender/max-plugin/internal/simulator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	srv := simulator.NewServer(cfg)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
