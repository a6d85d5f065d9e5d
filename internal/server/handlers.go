package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/hyperjump/animerec/internal/models"
	"github.com/hyperjump/animerec/internal/search"
)

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var query models.FilterQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("filter request",
		zap.Strings("genres", query.Genres),
		zap.Strings("types", query.Types),
		zap.String("keyword", query.Keyword),
		zap.Int("limit", query.Limit),
	)
	response, err := s.engine.Filter(r.Context(), &query)
	if err != nil {
		s.respondEngineError(w, "filter", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var query models.SimilarQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("recommend request", zap.Strings("titles", query.Titles), zap.Int("limit", query.Limit))
	response, err := s.engine.Recommend(r.Context(), &query)
	if err != nil {
		s.respondEngineError(w, "recommend", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleTitles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	hits, err := s.engine.SearchTitles(r.Context(), q, limit)
	if err != nil {
		s.respondEngineError(w, "title search", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"titles": hits})
}

func (s *Server) handleTitleInfo(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	info, err := s.engine.Info(r.Context(), name)
	if err != nil {
		s.respondEngineError(w, "title info", err)
		return
	}
	s.respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := s.engine.Genres()
	if err != nil {
		s.respondEngineError(w, "genres", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"genres": genres})
}

func (s *Server) handleTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.engine.Types()
	if err != nil {
		s.respondEngineError(w, "types", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"types": types})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.Status(r.Context())
	if err != nil {
		s.respondEngineError(w, "status", err)
		return
	}
	s.respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	changed, err := s.engine.Reload(r.Context(), true)
	if err != nil {
		s.logger.Error("reload failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{"reloaded": changed}
	if snap := s.engine.Snapshot(); snap != nil {
		resp["snapshot_id"] = snap.ID
		resp["titles"] = snap.Catalog.Len()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if s.engine.Snapshot() == nil {
		status = "loading"
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": status})
}

// respondEngineError maps engine errors onto status codes: invalid input is 400, unknown
// titles 404 and an unloaded catalog 503.
func (s *Server) respondEngineError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, search.ErrInvalidQuery):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, search.ErrUnknownTitle):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, search.ErrNotLoaded):
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error(op+" failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
