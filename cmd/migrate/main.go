package main

import (
	"context"
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/noah-isme/tutor-shift-api/pkg/config"
	"github.com/noah-isme/tutor-shift-api/pkg/database"
	"github.com/noah-isme/tutor-shift-api/pkg/logger"
)

func main() {
	flag.Usage = func() {
		log.Printf("usage: migrate [up|down|status|redo|reset|version|up-to VERSION|down-to VERSION]")
	}
	flag.Parse()

	command := "up"
	var args []string
	if flag.NArg() > 0 {
		command = flag.Arg(0)
		args = flag.Args()[1:]
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(context.Background(), cfg.Database, cfg.Schedule.Timezone)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if err := database.Migrate(context.Background(), db.DB, command, logr, args...); err != nil {
		logr.Error("migration failed", zap.Error(err))
		os.Exit(1)
	}
	logr.Info("migration finished", zap.String("command", command))
}
