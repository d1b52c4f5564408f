package web

import (
	"context"
	"net/http"

	"tagmap/internal/config"
	"tagmap/internal/logger"
	"tagmap/internal/tagio"
)

// maxUploadSize bounds request bodies carrying audio or image data.
const maxUploadSize = 512 << 20

type Server struct {
	ctx    context.Context
	jobMgr *JobManager
	config config.Config
	logger *logger.Logger
	svc    *tagio.Service
}

func NewServer(ctx context.Context, jobMgr *JobManager, cfg config.Config, log *logger.Logger, svc *tagio.Service) *Server {
	return &Server{
		ctx:    ctx,
		jobMgr: jobMgr,
		config: cfg,
		logger: log,
		svc:    svc,
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Tag endpoints on uploaded audio
	mux.HandleFunc("/api/tags/read", s.handleReadTags)
	mux.HandleFunc("/api/tags/write", s.handleWriteTags)
	mux.HandleFunc("/api/tags/clear", s.handleClearTags)
	mux.HandleFunc("/api/cover/read", s.handleReadCover)
	mux.HandleFunc("/api/cover/write", s.handleWriteCover)

	// Batch jobs over server-side directories
	mux.HandleFunc("/api/jobs", s.handleJobs)
	mux.HandleFunc("/api/jobs/", s.handleJobAction)
	mux.HandleFunc("/ws", s.handleWebSocket)

	return s.loggingMiddleware(mux)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
