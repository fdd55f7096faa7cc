package main

import (
	"log"

	"github.com/linklab/linkdex/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ linkdex failed to start: %v", err)
	}
}
