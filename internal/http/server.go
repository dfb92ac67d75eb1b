package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"despesas/internal/config"
	"despesas/internal/services"
)

const reportCacheSize = 64

type Server struct {
	http.Server

	ledger       *services.LedgerService
	reports      *services.Reports
	materializer *services.Materializer
	targetRate   float64

	summaryCache *lruCache[services.Summary]
	budgetCache  *lruCache[[]services.BudgetLine]
	trendCache   *lruCache[[]services.TrendPoint]
	savingsCache *lruCache[services.SavingsReport]
}

func NewServer(cfg *config.Config, ledger *services.LedgerService, reports *services.Reports, materializer *services.Materializer) *Server {
	s := &Server{
		ledger:       ledger,
		reports:      reports,
		materializer: materializer,
		targetRate:   cfg.TargetSavings,

		summaryCache: newLRUCache[services.Summary](reportCacheSize, cfg.ReportCacheTTL),
		budgetCache:  newLRUCache[[]services.BudgetLine](reportCacheSize, cfg.ReportCacheTTL),
		trendCache:   newLRUCache[[]services.TrendPoint](reportCacheSize, cfg.ReportCacheTTL),
		savingsCache: newLRUCache[services.SavingsReport](reportCacheSize, cfg.ReportCacheTTL),
	}

	s.Server = http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.routes(cfg),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) routes(cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/default-month", s.handleDefaultMonth)
		r.Get("/categories", s.handleListCategories)

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", s.handleListExpenses)
			r.Post("/", s.handleCreateExpense)
			r.Put("/{id}", s.handleUpdateExpense)
			r.Delete("/{id}", s.handleDeleteExpense)
		})

		r.Route("/incomes", func(r chi.Router) {
			r.Get("/", s.handleListIncomes)
			r.Post("/", s.handleCreateIncome)
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/", s.handleListSubscriptions)
			r.Post("/", s.handleCreateSubscription)
			r.Post("/run", s.handleRunMaterialization)
			r.Put("/{id}", s.handleUpdateSubscription)
			r.Delete("/{id}", s.handleDeleteSubscription)
			r.Post("/{id}/deactivate", s.handleDeactivateSubscription)
		})

		r.Post("/installments", s.handleCreateInstallmentPlan)

		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", s.handleListBudgets)
			r.Put("/{category}", s.handleSetBudget)
			r.Delete("/{category}", s.handleDeleteBudget)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/summary", s.handleSummaryReport)
			r.Get("/budgets", s.handleBudgetReport)
			r.Get("/trends", s.handleTrendReport)
			r.Get("/savings", s.handleSavingsReport)
		})
	})

	return r
}

// invalidateReports drops all cached report data after a write.
func (s *Server) invalidateReports() {
	s.summaryCache.Purge()
	s.budgetCache.Purge()
	s.trendCache.Purge()
	s.savingsCache.Purge()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
