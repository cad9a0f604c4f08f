// Package web serves the keep-alive and status endpoints. Hosting
// platforms ping /healthz to keep the service awake; /status exposes
// operational counters for the admins.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/temple-tools/dvarapala/internal/budget"
	"github.com/temple-tools/dvarapala/internal/model"
	"github.com/temple-tools/dvarapala/internal/questions"
	"github.com/temple-tools/dvarapala/internal/session"
)

// Server is the keep-alive HTTP server.
type Server struct {
	log       *zap.Logger
	sessions  *session.Manager
	budget    *budget.Tracker
	questions *questions.Store
	started   time.Time

	httpServer *http.Server
}

// New creates the server listening on addr.
func New(log *zap.Logger, addr string, sessions *session.Manager, tracker *budget.Tracker, qs *questions.Store) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		log:       log,
		sessions:  sessions,
		budget:    tracker,
		questions: qs,
		started:   time.Now(),
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("status server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type statusResponse struct {
	UptimeSeconds int64                `json:"uptime_seconds"`
	Sessions      map[model.Status]int `json:"sessions"`
	Budget        budgetStatus         `json:"oracle_budget"`
	QuestionBank  questions.Stats      `json:"question_bank"`
	BankVersion   int                  `json:"bank_version"`
}

type budgetStatus struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Sessions:      s.sessions.Stats(),
		Budget:        budgetStatus{Used: s.budget.Used(), Limit: s.budget.Limit()},
		QuestionBank:  s.questions.Snapshot().Stats(),
		BankVersion:   s.questions.Version(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Warn("status encode failed", zap.Error(err))
	}
}
