package main

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"kbsearch/app/internal/config"
	appdb "kbsearch/app/internal/db"
	"kbsearch/app/internal/helpcenter"
	apphttp "kbsearch/app/internal/http"
	"kbsearch/app/internal/kb"
	"kbsearch/app/internal/llm"
	applog "kbsearch/app/internal/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "failure loading configuration")
	}

	logger, err := applog.NewLogger(cfg.LogLevel)
	if err != nil {
		return eris.Wrap(err, "failure initialising logger")
	}

	sentryHub, flush, err := applog.InitSentry(logger, applog.SentrySettings{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
	})
	if err != nil {
		return eris.Wrap(err, "failure initialising sentry")
	}
	defer flush()

	dbConn, err := appdb.Open(appdb.Options{Path: cfg.DBPath})
	if err != nil {
		return eris.Wrap(err, "opening database")
	}
	defer func() {
		if closeErr := appdb.Close(dbConn); closeErr != nil {
			logger.WithError(closeErr).Error("closing database")
		}
	}()

	if err := kb.Migrate(ctx, dbConn, logger); err != nil {
		return eris.Wrap(err, "running migrations")
	}

	repository, err := kb.NewRepository(dbConn, logger)
	if err != nil {
		return eris.Wrap(err, "building article repository")
	}

	searcher, err := helpcenter.NewClient(helpcenter.ClientOptions{
		BaseURL:  cfg.HelpCenterURL,
		PageSize: cfg.SearchPageSize,
		Logger:   logger,
	})
	if err != nil {
		return eris.Wrap(err, "creating help center client")
	}

	// The answerer is optional: without an API key the service runs search-only.
	var answerer llm.Answerer
	if cfg.LLMAPIKey != "" {
		if cfg.LLMModel == "" {
			return eris.New("LLM_MODEL is required when LLM_API_KEY is set")
		}

		client, err := llm.NewClient(llm.ClientOptions{
			APIKey:  cfg.LLMAPIKey,
			BaseURL: cfg.LLMEndpoint,
			Logger:  logger,
		})
		if err != nil {
			return eris.Wrap(err, "creating llm client")
		}

		answerer, err = llm.NewAnswerer(llm.AnswererOptions{
			Client: client,
			Model:  cfg.LLMModel,
		})
		if err != nil {
			return eris.Wrap(err, "initialising answerer")
		}
	} else {
		logger.Info("LLM_API_KEY not set, running search-only")
	}

	kbService, err := kb.NewService(repository, searcher, answerer, logger, sentryHub)
	if err != nil {
		return eris.Wrap(err, "creating knowledge-base service")
	}

	transport, err := apphttp.NewServer(apphttp.Options{
		KBService:       kbService,
		Database:        dbConn,
		AnswerAvailable: answerer != nil,
		Logger:          logger,
		SentryHub:       sentryHub,
		RateLimiter: apphttp.RateLimiterSettings{
			Burst:             cfg.RateLimit.Burst,
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			ClientTTL:         cfg.RateLimit.ClientTTL,
		},
	})
	if err != nil {
		return eris.Wrap(err, "initialising http transport")
	}

	httpServer := &stdhttp.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.ServerPort),
		Handler: transport.Handler(),
	}

	logger.WithFields(logrus.Fields{
		"addr":        httpServer.Addr,
		"help_center": searcher.BaseURL(),
	}).Info("starting http server")

	serverErrCh := make(chan error, 1)
	go func() {
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErrCh:
		if err != nil {
			return eris.Wrap(err, "http server error")
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "shutting down http server")
	}

	logger.Info("http server shut down cleanly")
	return nil
}
