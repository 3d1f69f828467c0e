package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mfbank/internal/config"
	"mfbank/internal/db"
	"mfbank/internal/handlers"
	"mfbank/internal/janitor"
	"mfbank/internal/mail"
	"mfbank/internal/metrics"
	"mfbank/internal/services"
	"mfbank/internal/store"
	"mfbank/internal/websocket"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	users := store.NewUserStore(database)
	accounts := store.NewAccountStore(database)
	ledger := store.NewLedgerStore(database)
	transactions := store.NewTransactionStore(database)
	loans := store.NewLoanStore(database)
	otps := store.NewOTPStore(database)
	profiles := store.NewProfileStore(database)
	branches := store.NewBranchStore(database)
	contacts := store.NewContactStore(database)
	admin := store.NewAdminStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()
	collector := metrics.NewCollector()
	mailer := mail.NewClient(cfg.MailAPIURL, cfg.MailServiceID, cfg.MailTemplateID, cfg.MailPublicKey)

	ledgerService := services.NewLedgerService(txRunner, accounts, ledger, transactions, audit, hub, collector, cfg.Currency)
	loanService := services.NewLoanService(txRunner, loans, accounts, ledgerService, audit, hub, collector, cfg.Currency, cfg.LoanCreditOnApproval)
	signupService := services.NewSignupService(txRunner, otps, users, accounts, ledger, transactions, profiles, admin, audit, mailer, collector, services.SignupConfig{
		CodeTTL:             cfg.OTPTTL,
		ResendCooldown:      cfg.OTPResendCooldown,
		InvalidateOnResend:  cfg.OTPInvalidateOnResend,
		Currency:            cfg.Currency,
		OpeningBalanceMinor: cfg.OpeningBalanceMinor,
		JWTSecret:           cfg.JWTSecret,
		TokenTTL:            cfg.TokenTTL,
	})

	sweeper := janitor.New(otps, cfg.OTPPurgeAfter)
	if err := sweeper.Start(); err != nil {
		log.Fatalf("failed to start challenge janitor: %v", err)
	}
	defer sweeper.Stop()

	handler := handlers.New(database, txRunner, cfg, users, accounts, transactions, loans, profiles, branches, contacts, admin, audit, ledgerService, loanService, signupService, hub, collector.Handler())
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("mfbank API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
