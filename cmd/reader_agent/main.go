package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tapband-wallet/internal/agent"
	"github.com/tapband-wallet/internal/config"
	"github.com/tapband-wallet/internal/logger"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("reader_agent")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Reader Agent",
		"reader_name", cfg.Reader.Name,
		"server_url", cfg.Reader.ServerURL,
	)

	// Initialize the durable delivery queue
	queue, err := agent.NewFileQueue(log, cfg.Reader.QueueDir)
	if err != nil {
		log.Error("Failed to initialize delivery queue", "error", err)
		os.Exit(1)
	}

	sender := agent.NewSender(log, cfg.Reader.ServerURL, cfg.Reader.APIKey, cfg.Reader.SubmitTimeout)
	debouncer := agent.NewDebouncer(cfg.Reader.DebounceWindow)
	readerAgent := agent.NewAgent(log, queue, sender, debouncer, &cfg.Reader)

	// Initialize the retry sweeper over its worker pool
	sweeper, err := agent.NewSweeper(log, queue, readerAgent, cfg.Reader.SweepInterval, cfg.Reader.SweepWorkers)
	if err != nil {
		log.Error("Failed to initialize retry sweeper", "error", err)
		os.Exit(1)
	}

	go sweeper.Run(appCtx)

	// Read token UIDs from stdin, one per line. The NFC reader integration
	// pipes scanned UIDs into this process.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			uid := strings.TrimSpace(scanner.Text())
			if uid == "" {
				continue
			}
			if err := readerAgent.Tap(appCtx, uid); err != nil {
				log.Error("Failed to handle tap", "uid", uid, "error", err)
			}
		}
		if err := scanner.Err(); err != nil {
			log.Error("Tap input stream failed", "error", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	log.Info("Shutdown signal received")

	// Cancel the application context and stop the sweep pool
	cancelAppCtx()
	sweeper.Shutdown()

	if pending, err := queue.Len(); err == nil && pending > 0 {
		log.Info("Undelivered scans remain journaled for next start", "pending", pending)
	}

	log.Info("Reader Agent shutdown completed successfully")
}
