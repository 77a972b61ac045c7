package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"moneybook/internal/amqp"
	"moneybook/internal/backend"
	"moneybook/internal/backend/graphqlbackend"
	"moneybook/internal/backend/memory"
	"moneybook/internal/cli"
	"moneybook/internal/graphql"
	apphttp "moneybook/internal/http"
	applog "moneybook/internal/log"
	"moneybook/internal/retailers"
	"moneybook/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	beCfg := backend.Config{
		Type:            backend.Type(cfg.DataBackend),
		GraphQLEndpoint: cfg.BackendURL,
		GraphQLTimeout:  cfg.BackendTimeout,
		AuthToken:       cfg.BackendToken,
	}
	if err := beCfg.Validate(); err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	var be backend.Backend
	switch beCfg.Type {
	case backend.TypeGraphQL:
		opts := []graphql.Option{graphql.WithTimeout(beCfg.GraphQLTimeout)}
		if beCfg.AuthToken != "" {
			opts = append(opts, graphql.WithHeader("Authorization", "Bearer "+beCfg.AuthToken))
		}
		be = graphqlbackend.New(graphql.New(beCfg.GraphQLEndpoint, opts...))
		logger.Info("Initialized GraphQL backend", "url", beCfg.GraphQLEndpoint)
	default:
		be = memory.NewWithDefaults()
		logger.Info("Initialized memory backend")
	}

	journal := cli.OpenJournal(logger, cfg.SQLiteDBPath)
	defer journal.Close()

	// AMQP is optional; without it submissions are journaled but not
	// announced to the export worker.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, export events disabled", "error", err)
		} else {
			defer amqpClient.Close()
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	manager := services.NewManager(services.ManagerConfig{
		Creator:          be,
		Directory:        retailers.NewDirectory(be, be),
		Journal:          journal,
		AMQPClient:       amqpClient,
		SessionTTL:       cfg.SessionTTL,
		ConcurrencyLimit: cfg.ConcurrencyLimit,
	})

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Manager:    manager,
		Banks:      be,
		Categories: be,
		Journal:    journal,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		manager.Stop()
	})

	logger.Info("Starting moneybook server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	<-done
	logger.Info("Server stopped gracefully")
}
