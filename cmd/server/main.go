// Command server runs the spendkeeper HTTP API and its gRPC health endpoint.
package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/spendkeeper/internal/server"
	"github.com/dmitrijs2005/spendkeeper/internal/server/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("spendkeeper server: %v", err)
	}

	app.Run(ctx)
}
