package web

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/axeflow/axeflow/internal/adapters/outbound/metrics"
	"github.com/axeflow/axeflow/internal/domain"
	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
	"github.com/rs/cors"
)

// Server is the summary site: issue count API, landing page and report files.
type Server struct {
	cfg        domain.ServeConfig
	issuesCSV  string
	reportsDir string
	metrics    *metrics.Metrics
	logger     hclog.Logger
}

// NewServer resolves the issues summary and reports directory against projectPath.
func NewServer(projectPath string, cfg domain.ProjectConfig, m *metrics.Metrics, logger hclog.Logger) *Server {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Server{
		cfg:        cfg.Serve,
		issuesCSV:  resolve(projectPath, cfg.Serve.IssuesCSV),
		reportsDir: resolve(projectPath, cfg.ReportsDir),
		metrics:    m,
		logger:     logger,
	}
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Router builds the HTTP handler tree.
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()
	router.Use(s.loggingMiddleware)

	router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	router.HandleFunc("/api/countIssues", s.handleCountIssues).Methods(http.MethodGet)
	router.HandleFunc("/api/reports", s.handleListReports).Methods(http.MethodGet)
	router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	router.PathPrefix("/reports/").Handler(
		http.StripPrefix("/reports/", http.FileServer(http.Dir(s.reportsDir))),
	).Methods(http.MethodGet)

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet},
	})
	return c.Handler(router)
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving accessibility summary", "addr", s.cfg.Addr, "issues_csv", s.issuesCSV)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(srw, r)
		s.logger.Debug("request", "method", r.Method, "uri", r.RequestURI, "status", srw.statusCode, "duration", time.Since(start))
	})
}

// statusResponseWriter captures the status code written by a handler.
type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}
