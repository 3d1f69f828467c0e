package handlers

import (
	"net/http"

	"mfbank/internal/config"
	"mfbank/internal/db"
	"mfbank/internal/middleware"
	"mfbank/internal/store"
	"mfbank/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	reconcileDB  store.Selecter
	txRunner     db.TxRunner
	cfg          config.Config
	users        UserStore
	accounts     AccountStore
	transactions TransactionStore
	loans        LoanStore
	profiles     ProfileStore
	branches     BranchStore
	contacts     ContactStore
	admin        AdminStore
	audit        AuditStore
	ledger       LedgerService
	loanService  LoanService
	signup       SignupService
	hub          *websocket.Hub
	metrics      http.Handler
}

func New(reconcileDB store.Selecter, txRunner db.TxRunner, cfg config.Config, users UserStore, accounts AccountStore, transactions TransactionStore, loans LoanStore, profiles ProfileStore, branches BranchStore, contacts ContactStore, admin AdminStore, audit AuditStore, ledger LedgerService, loanService LoanService, signup SignupService, hub *websocket.Hub, metrics http.Handler) *Handler {
	return &Handler{
		reconcileDB:  reconcileDB,
		txRunner:     txRunner,
		cfg:          cfg,
		users:        users,
		accounts:     accounts,
		transactions: transactions,
		loans:        loans,
		profiles:     profiles,
		branches:     branches,
		contacts:     contacts,
		admin:        admin,
		audit:        audit,
		ledger:       ledger,
		loanService:  loanService,
		signup:       signup,
		hub:          hub,
		metrics:      metrics,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/signup", func(r chi.Router) {
		r.Post("/request-code", h.SignupRequestCode)
		r.Post("/resend", h.SignupResend)
		r.Post("/verify", h.SignupVerify)
	})
	router.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Get("/me", h.Me)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Get("/profile", h.GetProfile)
	})

	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/accounts", h.ListAccounts)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/accounts/{id}/balance", h.GetBalance)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/accounts/self-check", h.SelfCheck)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/transactions/transfer", h.Transfer)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/transactions", h.ListTransactions)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/loans", h.ApplyForLoan)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/loans", h.ListLoans)
	router.Get("/loans/products", h.ListLoanProducts)
	router.Get("/branches", h.ListBranches)
	router.Post("/contact", h.SubmitContact)
	router.Get("/ws/updates", h.WSUpdates)

	router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.With(middleware.RequireAdmin(h.admin, "CanViewUsers")).Get("/users", h.AdminListUsers)
		r.With(middleware.RequireAdmin(h.admin, "CanViewUsers")).Get("/accounts", h.AdminListAccounts)
		r.With(middleware.RequireAdmin(h.admin, "CanViewTransactions")).Get("/transactions", h.AdminListTransactions)
		r.With(middleware.RequireAdmin(h.admin, "CanManageLoans")).Get("/loans", h.AdminListLoans)
		r.With(middleware.RequireAdmin(h.admin, "CanManageLoans")).Post("/loans/{id}/decision", h.DecideLoan)
		r.With(middleware.RequireAdmin(h.admin, "CanManageLedger")).Post("/credit", h.AdminCredit)
		r.With(middleware.RequireAdmin(h.admin, "CanViewUsers")).Get("/contact", h.AdminListContact)
		r.With(middleware.RequireAdmin(h.admin, "CanViewTransactions")).Get("/audit", h.ListAuditLogs)
		r.With(middleware.RequireAdmin(h.admin, "CanViewTransactions")).Get("/reconcile", h.Reconcile)
		r.With(middleware.RequireAdmin(h.admin, "")).Post("/promote", h.PromoteAdmin)
		r.With(middleware.RequireAdmin(h.admin, "")).Post("/roles/grant", h.GrantRole)
	})

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Method(http.MethodGet, "/metrics", h.metrics)
	return router
}
