// Command migrate applies the database migrations without starting the API.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"aura/internal/logger"
	"aura/internal/server"
	db "aura/repository/db"
)

func main() {
	cfg, err := server.ReadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "read config:", err)
		os.Exit(2)
	}
	logger.New(cfg.LogLevel, os.Stderr)

	if err := db.Migration(cfg.DBStr, cfg.MigratePath); err != nil {
		slog.Error("migration failed", "path", cfg.MigratePath, "err", err)
		os.Exit(1)
	}
	slog.Info("database is up to date")
}
