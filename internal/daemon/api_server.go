package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"airwaves/internal/api"
	"airwaves/internal/audio"
	"airwaves/internal/config"
	"airwaves/internal/logging"
	"airwaves/internal/services"
)

type apiServer struct {
	bind     string
	logger   *slog.Logger
	daemon   *Daemon
	showSvc  *api.ShowService
	queueSvc *api.QueueService
	pipeline *audio.Pipeline
	resolver *audio.Resolver

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:     strings.TrimSpace(cfg.Paths.APIBind),
		logger:   logging.NewComponentLogger(logger, "api-server"),
		daemon:   d,
		showSvc:  api.NewShowService(d.comps.Shows),
		queueSvc: api.NewQueueService(d.comps.Queue, d.comps.Shows, cfg.Queue.MaxAttempts),
		pipeline: d.comps.Pipeline,
		resolver: d.comps.Resolver,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/shows", s.handleShows)
	mux.HandleFunc("GET /api/shows/{id}", s.handleShow)
	mux.HandleFunc("GET /api/shows/{id}/stream", s.handleStream)
	mux.HandleFunc("POST /api/shows/{id}/process", s.handleProcess)
	mux.HandleFunc("POST /api/scrape", s.handleScrape)
	mux.HandleFunc("GET /api/queue", s.handleQueueSummary)
	mux.HandleFunc("GET /api/queue/jobs", s.handleJobs)
	mux.HandleFunc("POST /api/queue/retry", s.handleRetry)
	mux.HandleFunc("POST /api/queue/{name}/pause", s.handlePause)
	mux.HandleFunc("POST /api/queue/{name}/resume", s.handleResume)
	return s.withRequestID(mux)
}

func (s *apiServer) listen() error {
	if s.bind == "" {
		return errors.New("api bind address not configured")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) serve() error {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	if listener == nil {
		return errors.New("api server not listening")
	}
	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.ErrorWithContext(s.logger, "api server error", "api_serve_failed",
			logging.String(logging.FieldErrorHint, "check that api_bind is reachable and not in use"),
			logging.Error(err),
		)
		return fmt.Errorf("api serve: %w", err)
	}
	return nil
}

func (s *apiServer) stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	s.mu.Lock()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.mu.Unlock()
}

func (s *apiServer) addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		DatabasePath: status.DatabasePath,
		LockFilePath: status.LockFilePath,
		StorageDir:   status.StorageDir,
		Workflow:     api.FromStatusSummary(status.Workflow),
		Queues:       api.FromSummaries(status.Workflow.Queues),
		Dependencies: api.FromDependencies(status.Dependencies),
		Checks:       api.FromChecks(status.Checks),
	})
}

func (s *apiServer) handleShows(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, limit, err := api.ParsePagination(query.Get("page"), query.Get("limit"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.showSvc.List(r.Context(), page, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleShow(w http.ResponseWriter, r *http.Request) {
	show, err := s.showSvc.Describe(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, show)
}

func (s *apiServer) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.resolver == nil {
		s.writeError(w, r, services.Wrap(services.ErrConfiguration, "api", "stream", "stream resolver not configured", nil))
		return
	}
	target, err := s.resolver.StreamPath(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	span, partial := audio.ParseRange(r.Header.Get("Range"), target.Size)
	body, err := audio.OpenRange(target.AbsolutePath, span)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("open audio: %w", err))
		return
	}
	defer body.Close()

	// Large files outlive the server write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	header := w.Header()
	header.Set("Content-Type", audio.ContentType(target.Format))
	header.Set("Accept-Ranges", "bytes")
	header.Set("Content-Length", strconv.FormatInt(span.Length(), 10))
	status := http.StatusOK
	if partial {
		header.Set("Content-Range", span.ContentRange(target.Size))
		status = http.StatusPartialContent
	}
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, body); err != nil {
		logging.WithContext(r.Context(), s.logger).Debug("stream interrupted", logging.Error(err))
	}
}

func (s *apiServer) handleProcess(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !wantsWait(r.URL.Query().Get("wait")) {
		resp, err := s.queueSvc.EnqueueProcess(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusAccepted, resp)
		return
	}
	if s.pipeline == nil {
		s.writeError(w, r, services.Wrap(services.ErrConfiguration, "api", "process", "pipeline not configured", nil))
		return
	}
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})
	result, err := s.pipeline.ProcessShow(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req api.ScrapeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil {
		s.writeError(w, r, services.Public(services.ErrValidation, "request body must be JSON with an integer year"))
		return
	}
	resp, err := s.queueSvc.EnqueueScrape(r.Context(), req.Year)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, resp)
}

func (s *apiServer) handleQueueSummary(w http.ResponseWriter, r *http.Request) {
	resp, err := s.queueSvc.Summary(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := 0
	if v := strings.TrimSpace(query.Get("limit")); v != "" {
		_, parsed, err := api.ParsePagination("", v)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		limit = parsed
	}
	resp, err := s.queueSvc.Jobs(r.Context(), query.Get("queue"), query.Get("state"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handlePause(w http.ResponseWriter, r *http.Request) {
	if err := s.queueSvc.Pause(r.Context(), r.PathValue("name")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleResume(w http.ResponseWriter, r *http.Request) {
	if err := s.queueSvc.Resume(r.Context(), r.PathValue("name")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleRetry(w http.ResponseWriter, r *http.Request) {
	resp, err := s.queueSvc.Retry(r.Context(), r.URL.Query().Get("queue"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func wantsWait(value string) bool {
	value = strings.TrimSpace(value)
	return value == "1" || strings.EqualFold(value, "true")
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := services.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "api request failed", "api_request_failed",
			logging.String(logging.FieldErrorHint, "inspect the daemon log for the failing component"),
			logging.String("path", r.URL.Path),
			logging.Int("status", status),
			logging.Error(err),
		)
	}
	s.writeJSON(w, status, api.ErrorResponse{Error: services.Message(err)})
}
