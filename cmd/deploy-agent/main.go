package main

import (
	"log"

	"github.com/MrSnakeDoc/deploy-agent/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ deploy-agent failed: %v", err)
	}
}
