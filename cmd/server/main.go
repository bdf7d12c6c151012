// Command server runs the certification backend HTTP API.
package main

import (
	"context"
	"log"

	"github.com/attestly/certify-backend/internal/app"
)

func main() {
	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
