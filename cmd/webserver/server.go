package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"triviaquiz"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	cookieName   = "trivia-session"
	cookieIDKey  = "id"
	historyLimit = 50
)

// historyStore is the part of HistoryDB the server uses
type historyStore interface {
	RecordRound(ctx context.Context, round triviaquiz.Round) (int64, error)
	ListRounds(ctx context.Context, sessionID string, limit int) ([]triviaquiz.Round, error)
	Stats(ctx context.Context, sessionID string) (triviaquiz.SessionStats, error)
}

type Server struct {
	game     *triviaquiz.Game
	registry *triviaquiz.SessionRegistry
	history  historyStore
	store    sessions.Store
	logger   *zap.Logger
}

type stateResponse struct {
	SessionID string                       `json:"session_id"`
	State     triviaquiz.SessionView       `json:"state"`
	RateLimit triviaquiz.RateLimitSnapshot `json:"rate_limit"`
	Error     string                       `json:"error,omitempty"`
}

type generateRequest struct {
	Category string `json:"category"`
}

type answerRequest struct {
	Answer string `json:"answer"`
}

type historyResponse struct {
	SessionID string                  `json:"session_id"`
	Stats     triviaquiz.SessionStats `json:"stats"`
	Rounds    []triviaquiz.Round      `json:"rounds"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewServer(game *triviaquiz.Game, registry *triviaquiz.SessionRegistry, history historyStore, store sessions.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		game:     game,
		registry: registry,
		history:  history,
		store:    store,
		logger:   logger,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", triviaquiz.MetricsHandler())
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/answer", s.handleAnswer)
	mux.HandleFunc("POST /api/reveal", s.handleReveal)
	mux.HandleFunc("POST /api/more-info", s.handleMoreInfo)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	return s.logRequests(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"categories": triviaquiz.Categories})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, nil)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	category, err := triviaquiz.ParseCategory(req.Category)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error() + ": " + req.Category})
		return
	}

	s.withSession(w, r, func(st triviaquiz.SessionState) (triviaquiz.SessionState, error) {
		return s.game.Generate(r.Context(), st, category), nil
	})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	s.withSession(w, r, func(st triviaquiz.SessionState) (triviaquiz.SessionState, error) {
		return s.game.Select(st, req.Answer)
	})
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, s.game.Reveal)
}

func (s *Server) handleMoreInfo(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(st triviaquiz.SessionState) (triviaquiz.SessionState, error) {
		return s.game.MoreInfo(r.Context(), st)
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	session, err := s.session(w, r)
	if err != nil {
		s.logger.Error("Session lookup failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "session unavailable"})
		return
	}

	limit := historyLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	rounds, err := s.history.ListRounds(r.Context(), session.ID, limit)
	if err != nil {
		s.logger.Error("Failed to list rounds", zap.String("session_id", session.ID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load history"})
		return
	}
	stats, err := s.history.Stats(r.Context(), session.ID)
	if err != nil {
		s.logger.Error("Failed to load stats", zap.String("session_id", session.ID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load history"})
		return
	}
	if rounds == nil {
		rounds = []triviaquiz.Round{}
	}

	writeJSON(w, http.StatusOK, historyResponse{SessionID: session.ID, Stats: stats, Rounds: rounds})
}

type transition func(triviaquiz.SessionState) (triviaquiz.SessionState, error)

// withSession runs fn on the caller's session under its lock, after the
// question timer has been applied, and replies with the resulting state.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn transition) {
	session, err := s.session(w, r)
	if err != nil {
		s.logger.Error("Session lookup failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "session unavailable"})
		return
	}

	session.Lock()
	defer session.Unlock()

	s.apply(r.Context(), session, func(st triviaquiz.SessionState) (triviaquiz.SessionState, error) {
		return s.game.Refresh(st), nil
	})

	status := http.StatusOK
	resp := stateResponse{SessionID: session.ID}
	if fn != nil {
		if err := s.apply(r.Context(), session, fn); err != nil {
			status = statusFor(err)
			resp.Error = err.Error()
		}
	}

	resp.State = s.game.View(session.State)
	resp.RateLimit = s.game.RateLimit()
	writeJSON(w, status, resp)
}

// apply stores the result of fn and records the round when fn finished a question
func (s *Server) apply(ctx context.Context, session *triviaquiz.Session, fn transition) error {
	before := session.State
	after, err := fn(before)
	session.State = after

	if before.Phase() == triviaquiz.PhaseQuestionShown && after.Phase() == triviaquiz.PhaseAnswered && before.Question == after.Question {
		round, _ := triviaquiz.RoundFromState(session.ID, after, s.game.Now())
		if _, recErr := s.history.RecordRound(ctx, round); recErr != nil {
			s.logger.Error("Failed to record round", zap.String("session_id", session.ID), zap.Error(recErr))
		}
	}
	return err
}

// session finds the caller's session from the cookie, creating one if needed
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*triviaquiz.Session, error) {
	// a cookie that fails to decode still yields a usable new session
	cookie, err := s.store.Get(r, cookieName)
	if cookie == nil {
		return nil, err
	}
	id, _ := cookie.Values[cookieIDKey].(string)

	session, created := s.registry.GetOrCreate(id)
	if created {
		cookie.Values[cookieIDKey] = session.ID
		if err := cookie.Save(r, w); err != nil {
			return nil, err
		}
		s.logger.Info("Session started", zap.String("session_id", session.ID))
	}
	return session, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, triviaquiz.ErrInvalidAnswer), errors.Is(err, triviaquiz.ErrUnknownCategory):
		return http.StatusBadRequest
	case errors.Is(err, triviaquiz.ErrNoActiveQuestion),
		errors.Is(err, triviaquiz.ErrAlreadyAnswered),
		errors.Is(err, triviaquiz.ErrNotAnswered),
		errors.Is(err, triviaquiz.ErrQuestionUnavailable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

// logRequests logs every request except health and metrics probes
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/health" || path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		fields := []zap.Field{
			zap.Int("status", rec.status),
			zap.String("method", r.Method),
			zap.String("path", path),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", requestID),
		}
		switch {
		case rec.status >= http.StatusInternalServerError:
			s.logger.Error("Server error", fields...)
		case rec.status >= http.StatusBadRequest:
			s.logger.Warn("Client error", fields...)
		default:
			s.logger.Info("Request completed", fields...)
		}
	})
}
