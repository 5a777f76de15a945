package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cartorio/pkg/config"
	"cartorio/pkg/database"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))
	ctx := context.Background()

	// `./cartorio migrate [up|down|status]` runs the SQL migrations and exits.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		cmd := "up"
		if len(os.Args) > 2 {
			cmd = os.Args[2]
		}
		if err := runMigrate(ctx, cfg, cmd); err != nil {
			slog.Error("migrate failed", "err", err)
			os.Exit(1)
		}
		fmt.Println("migrate", cmd, "completed")
		return
	}

	if err := initDB(ctx, cfg); err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer database.Close(db)

	r := newRouter(cfg)
	slog.Info("listening", "addr", cfg.Addr(), "uploads", receiptStore.Base)
	if err := r.Run(cfg.Addr()); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func runMigrate(ctx context.Context, cfg *config.Config, cmd string) error {
	gdb, err := database.Open(ctx, cfg.DB, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer database.Close(gdb)
	return database.Goose(ctx, gdb, cmd)
}

// newRouter builds the engine with logging, recovery, CORS and error translation.
func newRouter(cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.CustomRecovery(recoveryHandler))
	r.Use(corsMiddleware(cfg.CORSOrigins))
	r.Use(errorHandler())
	setupRoutes(r)
	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return cors.Default()
	}
	cc := cors.DefaultConfig()
	cc.AllowOrigins = origins
	cc.MaxAge = 12 * time.Hour
	return cors.New(cc)
}
