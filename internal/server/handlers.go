package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/plushie/pkg/coordinator"
	"github.com/matzehuels/plushie/pkg/errors"
	"github.com/matzehuels/plushie/pkg/hook"
	"github.com/matzehuels/plushie/pkg/pipeline"
	"github.com/matzehuels/plushie/pkg/plushie"
	"github.com/matzehuels/plushie/pkg/session"
	"github.com/matzehuels/plushie/pkg/storage"
)

const maxBodySize = 1 << 20

// CompileRequest is the body of POST /compile.
type CompileRequest struct {
	Pattern  string `json:"pattern"`
	Leniency string `json:"leniency,omitempty"`
}

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// handleWebSocket runs one coordinator for the lifetime of the connection.
// Query parameters: encoding=json|msgpack, pattern=<initial pattern>.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	enc, err := coordinator.ParseEncoding(q.Get("encoding"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	params := s.params
	var initial *plushie.Plushie
	if src := q.Get("pattern"); src != "" {
		sg, err := s.runner.Compile(r.Context(), pipeline.Options{Source: src, Params: &params})
		if err != nil {
			s.writeError(w, err)
			return
		}
		g, err := sg.InitialGraph()
		if err != nil {
			s.writeError(w, err)
			return
		}
		initial = plushie.FromGraph(g, params)
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied.
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	id := session.GenerateID()
	logger := s.logger.With("session", id)
	obs := coordinator.NewWebSocketObserver(conn, enc, logger)
	defer obs.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	coord := coordinator.New(coordinator.Config{
		ID:       id,
		Plushie:  initial,
		Params:   &params,
		Observer: obs,
		AutoStop: s.autoStop,
		Logger:   s.logger,
	})

	sess := session.New(id, coord, cancel, s.sessionTTL)
	sess.RemoteAddr = r.RemoteAddr
	sess.Encoding = enc
	if err := s.sessions.Set(ctx, sess); err != nil {
		logger.Error("cannot register session", "error", err)
		return
	}
	defer func() {
		if err := s.sessions.Delete(context.Background(), id); err != nil {
			logger.Warn("cannot unregister session", "error", err)
		}
	}()

	logger.Info("session connected", "remote", r.RemoteAddr, "encoding", enc)
	if err := coord.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("session failed", "error", err)
	}
	logger.Info("session closed", "steps", coord.Stats().Steps)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	infos, err := s.sessions.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var req CompileRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body"))
		return
	}

	params := s.params
	if req.Leniency != "" {
		l, err := hook.ParseLeniency(req.Leniency)
		if err != nil {
			s.writeError(w, errors.Wrap(errors.ErrCodeInvalidParams, err, "invalid leniency"))
			return
		}
		params.HookLeniency = l
	}

	sg, err := s.runner.Compile(r.Context(), pipeline.Options{Source: req.Pattern, Params: &params})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sg)
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	limit := storage.DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid limit %q", v))
			return
		}
		limit = n
	}
	list, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := errors.ValidateSessionID(id); err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store != nil {
		return true
	}
	s.writeError(w, errors.New(errors.ErrCodeUnsupported, "result storage is not configured"))
	return false
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: errors.UserMessage(err), Code: errors.GetCode(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
