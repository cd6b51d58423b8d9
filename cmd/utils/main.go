package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/seating/cmd/utils/internal/commands"
)

const (
	appName    = "seating-utils"
	appVersion = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	config, err := apt.LoadConfig("UTILS", os.Args[2:])
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	logLevel, _ := config.GetString("log.level")
	if logLevel == "" {
		logLevel = "info"
	}
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := os.Args[1]

	switch command {
	case "seed-demo":
		if err := commands.SeedDemo(ctx, config, logger); err != nil {
			log.Fatalf("❌ Demo seeding failed: %v", err)
		}
		logger.Info("✅ Demo seeding completed successfully")

	case "reap-stale":
		if err := commands.ReapStale(ctx, config, logger, os.Stdout); err != nil {
			log.Fatalf("❌ Stale reap failed: %v", err)
		}

	case "call-next":
		if err := commands.CallNext(ctx, config, logger, os.Stdout); err != nil {
			log.Fatalf("❌ Call next failed: %v", err)
		}

	case "stats":
		if err := commands.Stats(ctx, config, logger, os.Stdout); err != nil {
			log.Fatalf("❌ Stats failed: %v", err)
		}

	case "tail-events":
		if err := commands.TailEvents(ctx, config, logger, os.Stdout); err != nil {
			log.Fatalf("❌ Event replay failed: %v", err)
		}

	case "watch-events":
		if err := commands.WatchEvents(ctx, config, logger, os.Stdout); err != nil {
			log.Fatalf("❌ Event watch failed: %v", err)
		}

	case "reset-db":
		if err := commands.ResetDB(ctx, config, logger); err != nil {
			log.Fatalf("❌ Database reset failed: %v", err)
		}
		logger.Info("✅ Database reset completed successfully")

	case "version":
		fmt.Printf("%s version %s\n", appName, appVersion)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - Seating utility commands

Usage:
  %s <command> [options]

Commands:
  seed-demo     Create demo queue parties and tomorrow's bookings through the API
  reap-stale    Remove called parties that never confirmed (--timeout=15m)
  call-next     Call the earliest waiting party
  stats         Print table, reservation and queue summaries (--date=YYYY-MM-DD)
  tail-events   Replay events retained in JetStream (--limit=100, --follow=true)
  watch-events  Print live events from NATS (--channel=queue)
  reset-db      Drop the seating database (USE WITH CAUTION)
  version       Print version information
  help          Show this help message

Environment Variables:
  UTILS_SEATING_URL    Seating service URL (default: http://localhost:8087)
  UTILS_DB_MONGO_URL   MongoDB connection URL (default: mongodb://localhost:27017)
  UTILS_NATS_URL       NATS server URL (default: nats://localhost:4222)
  UTILS_LOG_LEVEL      Log level: debug, info, warn, error (default: info)

Examples:
  %s seed-demo
  %s reap-stale --timeout=20m
  UTILS_DB_MONGO_URL=mongodb://localhost:27017 %s reset-db

`, appName, appName, appName, appName, appName)
}
