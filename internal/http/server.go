package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/insight"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/metrics"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/ports"
	"fintrack/internal/services"
)

// storeTimeout bounds every store call made by a handler.
const storeTimeout = 7 * time.Second

// Deps are the services the API is built on. Insight may be disabled;
// Metrics may be nil.
type Deps struct {
	Transactions *services.TransactionService
	Goals        *services.GoalService
	Analytics    *services.AnalyticsService
	Reports      *services.ReportService
	Insight      *insight.Service
	Store        ports.Pinger
	Metrics      *metrics.Collector
	Logger       *applog.Logger

	RateLimitPerMinute int
	Now                func() time.Time
}

type Server struct {
	http.Server
	deps     Deps
	limiter  *ratelimit.Limiter
	clientIP *security.ClientIP
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware into a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = applog.New(applog.DefaultConfig())
	}
	clientIP, _ := security.NewClientIP()

	s := &Server{deps: deps, clientIP: clientIP, started: deps.Now()}
	limiterCfg := ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}
	if deps.Metrics != nil {
		limiterCfg.OnReject = deps.Metrics.RateLimited
	}
	s.limiter = ratelimit.NewLimiter(limiterCfg)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
	}

	s.api(mux, "GET /api/transactions", s.handleListTransactions)
	s.api(mux, "POST /api/transactions", s.handleCreateTransaction)
	s.api(mux, "DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	s.api(mux, "GET /api/summary", s.handleSummary)
	s.api(mux, "GET /api/forecast", s.handleForecast)
	s.api(mux, "POST /api/forecast", s.handleForecast)
	s.api(mux, "GET /api/heatmap", s.handleHeatmap)
	s.api(mux, "GET /api/goals", s.handleListGoals)
	s.api(mux, "POST /api/goals", s.handleCreateGoal)
	s.api(mux, "POST /api/goals/{id}/savings", s.handleAddSavings)
	s.api(mux, "DELETE /api/goals/{id}", s.handleDeleteGoal)
	s.api(mux, "POST /api/insight", s.handleInsight)
	s.api(mux, "GET /api/report", s.handleReport)

	var handler http.Handler = mux
	if deps.Metrics != nil {
		handler = deps.Metrics.Middleware(handler)
	}
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(deps.Logger, s.clientIP.Extract).Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// api registers a rate-limited API route.
func (s *Server) api(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.limiter.Middleware(s.rateKey, writeRateLimited)(h))
}

// rateKey buckets by user when the request names one, otherwise by client IP.
func (s *Server) rateKey(r *http.Request) string {
	if id := r.Header.Get(headerUserID); id != "" {
		return "user:" + id
	}
	return "ip:" + s.clientIP.Extract(r)
}

func writeRateLimited(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded, try again later"})
}

// Shutdown stops background work and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
