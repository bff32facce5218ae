package main

import (
	"context"
	"time"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/routes"
	"github.com/cppla/yatube/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db := config.InitDatabase(models.All()...)

	r, err := routes.SetupRouter(db)
	if err != nil {
		utils.Sugar.Fatalf("router setup failed: %v", err)
	}

	// Replaced and orphaned post images are removed after a grace period
	ctx, cancel := context.WithCancel(context.Background())
	utils.StartMediaCleaner(ctx, db, time.Duration(cfg.MediaCleanupIntervalMinutes)*time.Minute)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r, cancel); err != nil {
		cancel()
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
