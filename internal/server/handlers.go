package server

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/issdc/missionchat/internal/models"
	"github.com/issdc/missionchat/pkg/utils"
)

// handleChat is the direct-match endpoint: the raw best match above the
// similarity threshold, or the fixed fallback. No session concept.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("chat request", zap.String("message", utils.Truncate(req.Message, 120)))

	reply, err := s.composer.Answer(r.Context(), req.Message)
	if err != nil {
		s.logger.Error("direct-match answer failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, models.ChatResponse{
		Response:     reply.Response,
		Context:      reply.Context,
		ResponseTime: utils.RoundSeconds(time.Since(start).Seconds()),
	})
}

// handleAsk is the conversational endpoint: always summarizes, carries
// session memory across turns.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("ask request",
		zap.String("session_id", req.SessionID),
		zap.String("message", utils.Truncate(req.Message, 120)),
	)

	reply, err := s.composer.Converse(r.Context(), req.Message, req.SessionID)
	if err != nil {
		s.logger.Error("conversational answer failed", zap.Error(err), zap.String("session_id", req.SessionID))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, models.ChatResponse{
		Response:     reply.Response,
		Context:      reply.Context,
		ResponseTime: utils.RoundSeconds(time.Since(start).Seconds()),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.retriever.Snapshot()
	resp := map[string]interface{}{
		"corpus_records":   snap.Corpus.Len(),
		"index_rows":       snap.Index.Size(),
		"active_sessions":  s.sessions.Len(),
		"config": map[string]interface{}{
			"embedding_dimensions": snap.Index.Dimensions(),
			"similarity_threshold": s.config.Retrieval.Threshold(),
			"top_k":                s.config.Retrieval.TopK,
			"memory_backend":       s.config.Memory.Backend,
			"summarize_backend":    s.config.Summarize.Backend,
			"summarize_model":      s.config.Summarize.Model,
		},
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, models.ErrorResponse{Error: message})
}
