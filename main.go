package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"deskchat/internal/attachments"
	"deskchat/internal/config"
	"deskchat/internal/console"
	"deskchat/internal/db"
	"deskchat/internal/observability"
	"deskchat/internal/repositories"
	"deskchat/internal/session"
	"deskchat/internal/telemetry"
	"deskchat/internal/transcript"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	setupLogger(cfg.Log.Level)

	database, err := db.Open(cfg.Database.Path, cfg.Database.BusyTimeout)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	userRepo := repositories.NewUserRepo(database)
	groupRepo := repositories.NewGroupRepo(database)
	messageRepo := repositories.NewMessageRepo(database, cfg.Chat.StrictMembership)

	builder := transcript.NewBuilder(messageRepo, userRepo, groupRepo, cfg.Chat.StrictMembership)
	files := attachments.NewStore(cfg.Attachments.Dir, cfg.Attachments.MaxBytes)

	publisher := telemetry.NewSlogPublisher(slog.Default())
	defer publisher.Close()
	audit := telemetry.NewAuditEmitter(publisher, "deskchat", cfg.Environment)

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := observability.Serve(cfg.Metrics.Addr); err != nil {
				slog.Error("metrics listener failed", "error", err)
			}
		}()
	}

	var ui *console.UI
	ctrl := session.NewController(
		userRepo, groupRepo, messageRepo,
		builder, files, audit,
		cfg.Refresh.Interval,
		func(entries []transcript.Entry) { ui.Render(entries) },
	)
	ui = console.New(ctrl, os.Stdin, os.Stdout)

	ui.Run(context.Background())
}

func setupLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
