package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"netbank/internal/api"
	"netbank/internal/config"
	"netbank/internal/domain"
	"netbank/internal/engine"
	"netbank/internal/repository/memory"
	"netbank/internal/service"
	"netbank/pkg/crypto"
	"netbank/pkg/metrics"
)

const (
	appName = "netbank"
)

func main() {
	logger := setupLogger()
	cfg := config.Load()
	logger.Info("Starting application",
		slog.String("name", appName))

	metricsCollector := metrics.NewMetricsCollector(logger)
	signer := crypto.NewSigner(cfg.SigningKey, logger)

	accounts := memory.NewAccountStore()
	payees := memory.NewPayeeDirectory()
	ledger := memory.NewLedger()
	seedDemoData(logger, accounts, ledger)

	transferEngine := engine.NewEngine(accounts, ledger, logger)
	statementService := service.NewStatementService(&service.MockEmailSender{}, cfg.StatementWorkers, logger)
	apiHandler := api.NewAPIHandler(transferEngine, accounts, payees, ledger, statementService, metricsCollector, signer, logger)

	metricsServer := metricsCollector.StartMetricsServer(cfg.MetricsAddr)
	httpServer := startHTTPServer(cfg.HTTPAddr, apiHandler, logger)
	waitForShutdown(logger, httpServer, metricsServer, statementService)
	logger.Info("Application shutdown complete")
}

func setupLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

// seedDemoData loads the demo session: two accounts for customer CUST001
// and a short transaction history, pushed oldest-first so the ledger head
// stays the most recent entry.
func seedDemoData(logger *slog.Logger, accounts *memory.AccountStore, ledger *memory.Ledger) {
	ctx := context.Background()

	demoAccounts := []*domain.Account{
		{AccountNumber: 1001, AccountType: domain.AccountSavings, Balance: decimal.NewFromInt(50000), CustomerID: "CUST001"},
		{AccountNumber: 1002, AccountType: domain.AccountCurrent, Balance: decimal.NewFromInt(120000), CustomerID: "CUST001"},
	}
	for _, a := range demoAccounts {
		if err := accounts.Save(ctx, a); err != nil {
			logger.Error("Failed to seed account", slog.String("error", err.Error()))
		}
	}

	history := []domain.TransactionRecord{
		{
			Timestamp:          time.Date(2025, 7, 13, 9, 15, 0, 0, time.UTC),
			Kind:               domain.KindCredit,
			Amount:             decimal.NewFromInt(5000),
			DestinationAccount: 1001,
			ResultingBalance:   decimal.NewFromInt(42500),
			Description:        "Freelance Payment",
		},
		{
			Timestamp:        time.Date(2025, 7, 14, 14, 30, 0, 0, time.UTC),
			Kind:             domain.KindDebit,
			Amount:           decimal.NewFromInt(-2500),
			SourceAccount:    1001,
			ResultingBalance: decimal.NewFromInt(40000),
			Description:      "Grocery Shopping",
		},
		{
			Timestamp:          time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC),
			Kind:               domain.KindCredit,
			Amount:             decimal.NewFromInt(10000),
			DestinationAccount: 1001,
			ResultingBalance:   decimal.NewFromInt(50000),
			Description:        "Salary Deposit",
		},
	}
	if err := ledger.Push(ctx, history...); err != nil {
		logger.Error("Failed to seed ledger", slog.String("error", err.Error()))
	}
}

func startHTTPServer(addr string, apiHandler *api.APIHandler, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()

	apiHandler.RegisterRoutes(mux)

	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"name": "%s", "status": "ok"}`, appName)
	})

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	return server
}

func waitForShutdown(
	logger *slog.Logger,
	httpServer *http.Server,
	metricsServer *http.Server,
	statementService *service.StatementService,
) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	}

	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Error("Metrics server shutdown failed", slog.String("error", err.Error()))
	}

	if err := statementService.Shutdown(ctx); err != nil {
		logger.Error("Statement service shutdown failed", slog.String("error", err.Error()))
	}
}
