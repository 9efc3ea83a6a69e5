// Package http exposes the tracker's JSON API: transactions, assets,
// budgets, reports, diary and the CSV export.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/huy7715/money-tracker/internal/cache"
	"github.com/huy7715/money-tracker/internal/core"
	applog "github.com/huy7715/money-tracker/internal/log"
	"github.com/huy7715/money-tracker/internal/services"
)

type Server struct {
	http.Server

	ledger    *services.LedgerService
	assets    *services.AssetService
	budgets   *services.BudgetService
	reports   *services.ReportService
	diary     *services.DiaryService
	scheduler *services.ContributionScheduler

	limiter *writeLimiter
	metrics *abuseMetrics

	// Monthly reports are read-heavy and cheap to invalidate wholesale
	// on any write.
	reportCache *cache.LRU[core.MonthlyReport]
	janitor     *cache.Janitor

	// Recurring contributions are checked at most once per calendar day,
	// piggybacked on the first data read of the day.
	contribMu      sync.Mutex
	lastContribDay string
	shutdownOnce   sync.Once
}

// Services bundles the dependencies the server routes to.
type Services struct {
	Ledger    *services.LedgerService
	Assets    *services.AssetService
	Budgets   *services.BudgetService
	Reports   *services.ReportService
	Diary     *services.DiaryService
	Scheduler *services.ContributionScheduler
}

// NewServer configures the API routes and returns a ready-to-run server.
func NewServer(addr string, deps Services) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:      deps.Ledger,
		assets:      deps.Assets,
		budgets:     deps.Budgets,
		reports:     deps.Reports,
		diary:       deps.Diary,
		scheduler:   deps.Scheduler,
		limiter:     newWriteLimiter(),
		metrics:     &abuseMetrics{},
		reportCache: cache.NewLRU[core.MonthlyReport](100, 5*time.Minute),
		janitor:     cache.NewJanitor(),
	}

	s.janitor.Track(s.reportCache)
	s.janitor.Start(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /api/data", s.withMiddleware(s.handleData))
	mux.HandleFunc("GET /api/available-months", s.withMiddleware(s.handleAvailableMonths))

	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/{id}", s.withMiddleware(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withMiddleware(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/assets", s.withMiddleware(s.handleListAssets))
	mux.HandleFunc("POST /api/assets", s.withMiddleware(s.handleCreateAsset))
	mux.HandleFunc("PUT /api/assets/{id}", s.withMiddleware(s.handleUpdateAsset))
	mux.HandleFunc("DELETE /api/assets/{id}", s.withMiddleware(s.handleDeleteAsset))
	mux.HandleFunc("GET /api/assets/{id}/balance", s.withMiddleware(s.handleAssetBalance))

	mux.HandleFunc("POST /api/budgets", s.withMiddleware(s.handleSetBudget))
	mux.HandleFunc("POST /api/budgets/adjust", s.withMiddleware(s.handleAdjustBudget))
	mux.HandleFunc("DELETE /api/budgets", s.withMiddleware(s.handleDeleteBudget))
	mux.HandleFunc("GET /api/budget-status", s.withMiddleware(s.handleBudgetStatus))

	mux.HandleFunc("GET /api/monthly-report", s.withMiddleware(s.handleMonthlyReport))
	mux.HandleFunc("GET /api/stats", s.withMiddleware(s.handleAllTimeStats))
	mux.HandleFunc("GET /export", s.withMiddleware(s.handleExport))

	mux.HandleFunc("GET /api/diary", s.withMiddleware(s.handleGetDiary))
	mux.HandleFunc("PUT /api/diary", s.withMiddleware(s.handleSaveDiary))
	mux.HandleFunc("GET /api/diary/dates", s.withMiddleware(s.handleDiaryDates))

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.janitor.Stop()
		if s.limiter != nil {
			s.limiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withMiddleware adds security headers, rate limiting and request
// logging to a handler.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := clientAddr(r)
		if flagSuspicious(r, s.metrics) {
			slog.WarnContext(r.Context(), "Suspicious request",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
		}

		requestID := "req_" + uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)

		logger := applog.FromContext(ctx).
			WithComponent(applog.ComponentHTTP).
			With(applog.FieldRequestID, requestID)
		ctx = context.WithValue(ctx, applog.LoggerContextKey, logger)
		r = r.WithContext(ctx)

		httpLog := applog.NewStructuredLogger(logger)
		httpLog.LogHTTPStart(ctx, r, clientIP)

		// Mutating requests are rate limited per client.
		if r.Method != http.MethodGet && !s.limiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		httpLog.LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds(), clientIP)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// invalidateReports drops cached reports after any ledger write. The
// cache is small, so clearing it wholesale beats tracking which months
// an edit touched.
func (s *Server) invalidateReports() {
	s.reportCache.Clear()
}

// checkRecurringOnce runs the contribution check at most once per day,
// on the first data read. Failures are logged and retried on the next
// read rather than failing the request.
func (s *Server) checkRecurringOnce(ctx context.Context) {
	if s.scheduler == nil {
		return
	}
	today := time.Now().Format("2006-01-02")

	s.contribMu.Lock()
	defer s.contribMu.Unlock()
	if s.lastContribDay == today {
		return
	}
	processed, err := s.scheduler.CheckRecurring(ctx, core.CurrentMonth())
	if err != nil {
		slog.ErrorContext(ctx, "Recurring contribution check failed", "error", err)
		return
	}
	s.lastContribDay = today
	if processed {
		s.invalidateReports()
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
