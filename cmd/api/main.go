package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/sgi/credit/internal/config"
	"github.com/sgi/credit/internal/credit"
	creditStore "github.com/sgi/credit/internal/credit/store"
	"github.com/sgi/credit/internal/database"
	"github.com/sgi/credit/internal/debt"
	debtStore "github.com/sgi/credit/internal/debt/store"
	creditHandler "github.com/sgi/credit/internal/http/credit"
	debtHandler "github.com/sgi/credit/internal/http/debt"
	"github.com/sgi/credit/internal/recorder"

	apiHttp "github.com/sgi/credit/internal/http"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var (
		debtService   = debt.NewService(debtStore.New(db))
		recorderC     = recorder.NewClient(cfg.Recorder.URL, cfg.Recorder.Retries)
		creditService = credit.NewService(creditStore.New(db), debtService, recorderC, credit.RandomNumberGenerator{})
	)

	var (
		creditH = creditHandler.NewHandler(creditService)
		debtH   = debtHandler.NewHandler(debtService)
	)

	router := apiHttp.New(creditH, debtH)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "name", cfg.App.Name, "port", port)

	server := &http.Server{
		Addr:         port,
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	if err := server.ListenAndServe(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
