package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/sociochat/engine/internal/api"
	"github.com/sociochat/engine/internal/config"
	"github.com/sociochat/engine/internal/engine"
	"github.com/sociochat/engine/internal/history"
	"github.com/sociochat/engine/internal/stats"
)

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	dsn            string
	signingSecret  string
	allowedOrigins stringSliceFlag
)

func main() {
	flag.StringVar(&addr, "addr", "", "server address (overrides CHAT_SERVER_ADDR)")
	flag.StringVar(&dsn, "dsn", "", "history store connection string (overrides CHAT_DATABASE_DSN)")
	flag.StringVar(&signingSecret, "signing-secret", "", "base64 encoded token signing secret (overrides CHAT_SIGNING_SECRET)")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	logger := log.New(os.Stderr, "[chat-engine] ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config:", err)
	}
	if addr != "" {
		cfg.ServerAddr = addr
	}
	if dsn != "" {
		cfg.DatabaseDSN = dsn
	}
	if signingSecret != "" {
		cfg.SigningSecret = signingSecret
	}
	if len(allowedOrigins) > 0 {
		cfg.AllowedOrigins = allowedOrigins
	}
	if err := cfg.Finalize(); err != nil {
		logger.Fatal("config:", err)
	}

	var recorder history.Recorder = history.NopRecorder{}
	if cfg.DatabaseDSN != "" {
		store, err := history.NewPgStore(cfg.DatabaseDSN)
		if err != nil {
			logger.Fatal("history store:", err)
		}

		asyncRecorder := history.NewAsyncRecorder(logger, store, cfg.HistoryBuffer)
		defer func() {
			if err := asyncRecorder.Close(); err != nil {
				logger.Println("history store close:", err)
			}
		}()
		recorder = asyncRecorder
	} else {
		logger.Println("no history store configured, messages will not be persisted")
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	chatEngine := engine.NewEngine(logger, recorder, statsUpdater)

	app := api.NewApp(mux, logger, chatEngine, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := app.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down chat engine...")
	chatEngine.Shutdown()

	logger.Println("shutdown complete")
}
