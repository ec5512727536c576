package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ehsankolivand/telegramExtractor/internal/config"
	"github.com/ehsankolivand/telegramExtractor/internal/export"
	"github.com/ehsankolivand/telegramExtractor/internal/telegram"
)

func main() {
	var (
		link      = flag.String("link", "", "t.me link to the topic or chat (or TG_TARGET_LINK)")
		topicRoot = flag.Int64("topic", 0, "explicit topic root message id (0 = detect from link)")
		maxMsgs   = flag.Int("max", 0, "maximum messages to export (0 = all)")
		media     = flag.Bool("media", false, "download media content")
		outDir    = flag.String("out", "./telegram_export", "output base directory")
	)
	flag.Parse()

	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	target := *link
	if target == "" {
		target = cfg.TargetLink
	}
	if target == "" {
		slog.Error("no target link: pass -link or set TG_TARGET_LINK")
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("interrupt received, stopping")
		cancel()
	}()

	api := telegram.NewClient(cfg.APIURL, cfg.APIID, cfg.APIHash, cfg.Phone, slog.Default())
	runner := export.NewRunner(api, export.Config{
		Link:           target,
		ForceTopicRoot: *topicRoot,
		MaxMessages:    *maxMsgs,
		DownloadMedia:  *media,
		OutputBaseDir:  *outDir,
	}, slog.Default())

	state, err := runner.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("export failed", "error", err)
		os.Exit(1)
	}
	if state == nil {
		os.Exit(1)
	}

	fmt.Printf("\n=== Export Summary ===\n")
	fmt.Printf("Messages exported: %d\n", state.Exported)
	fmt.Printf("Media saved: %d\n", state.MediaSaved)
	fmt.Printf("Errors: %d\n", len(state.Errors))
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
