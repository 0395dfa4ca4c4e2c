package main

import (
	"log"

	"github.com/MrSnakeDoc/skymock/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ skymock failed to start: %v", err)
	}
}
