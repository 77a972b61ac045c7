package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"moneybook/internal/backend"
	"moneybook/internal/cache"
	"moneybook/internal/core"
	"moneybook/internal/history"
	"moneybook/internal/middleware/ratelimit"
	"moneybook/internal/middleware/security"
	"moneybook/internal/middleware/trace"
	"moneybook/internal/services"
	appweb "moneybook/web"
)

// Deps carries the collaborators the server needs.
type Deps struct {
	Manager    *services.Manager
	Banks      backend.BankReader
	Categories backend.CategoryReader
	// Journal is optional; /history renders empty without it.
	Journal *history.Store
}

type Server struct {
	http.Server
	templates  *template.Template
	manager    *services.Manager
	banks      backend.BankReader
	categories backend.CategoryReader
	journal    *history.Store

	limiter  *ratelimit.Limiter
	detector *security.Detector

	banksCache      *cache.LRUCache[[]backend.Bank]
	categoriesCache *cache.LRUCache[[]core.Category]
	cacheManager    *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		manager:         deps.Manager,
		banks:           deps.Banks,
		categories:      deps.Categories,
		journal:         deps.Journal,
		limiter:         ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:        security.NewDetector(),
		banksCache:      cache.NewLRUCache[[]backend.Bank](1, time.Minute),
		categoriesCache: cache.NewLRUCache[[]core.Category](1, time.Hour),
		cacheManager:    cache.NewManager(),
	}
	s.cacheManager.Register(s.banksCache)
	s.cacheManager.Register(s.categoriesCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.guard(s.handleIndex))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/editor", s.guard(s.handleEditor))
	mux.HandleFunc("/editor/rows", s.guard(s.handleAddRow))
	mux.HandleFunc("/editor/rows/update", s.guard(s.handleUpdateRow))
	mux.HandleFunc("/editor/rows/delete", s.guard(s.handleDeleteRow))
	mux.HandleFunc("/editor/submit", s.guard(s.handleSubmit))
	mux.HandleFunc("/retailers", s.guard(s.handleCreateRetailer))
	mux.HandleFunc("/history", s.guard(s.handleHistory))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(s.detector.ExtractClientIP)
	handler := tracer.Middleware(headers.Middleware(mux))

	s.Server = http.Server{
		Addr:    addr,
		Handler: handler,
	}
	return s
}

// guard applies suspicious-request detection and POST rate limiting before
// the handler runs.
func (s *Server) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientIP := s.detector.ExtractClientIP(r)

		if s.detector.DetectSuspiciousRequest(r) {
			slog.WarnContext(r.Context(), "Suspicious request",
				"client_ip", clientIP, "method", r.Method, "path", r.URL.Path)
		}

		if r.Method == http.MethodPost && !s.limiter.Allow(clientIP) {
			slog.WarnContext(r.Context(), "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		next(w, r)
	}
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.cacheManager.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) getBanks(ctx context.Context) ([]backend.Bank, error) {
	if banks, found := s.banksCache.Get("banks"); found {
		return banks, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	banks, err := s.banks.ListBanks(cctx)
	if err != nil {
		return nil, err
	}
	s.banksCache.Set("banks", banks)
	return banks, nil
}

func (s *Server) getCategories(ctx context.Context) []core.Category {
	if cats, found := s.categoriesCache.Get("categories"); found {
		return cats
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	cats, err := s.categories.ListCategories(cctx)
	if err != nil || len(cats) == 0 {
		// Selection still needs to render; the fixed set is always valid.
		return core.Categories()
	}
	s.categoriesCache.Set("categories", cats)
	return cats
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}
