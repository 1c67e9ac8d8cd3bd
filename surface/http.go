package surface

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// RegisterHTTP registers surface endpoints on a Chi router.
func (s *Service) RegisterHTTP(r chi.Router) {
	r.Post("/api/v1/surface/scan", s.handleScan)
	r.Get("/api/v1/surface/{session_id}/elements/{index}", s.handleDescribe)
	r.Get("/api/v1/surface/{session_id}/elements/{index}/path", s.handlePath)
	r.Get("/api/v1/surface/{session_id}/compare", s.handleCompare)
	r.Get("/api/v1/surface/{session_id}/active", s.handleActive)
	r.Post("/api/v1/surface/{session_id}/invalidate", s.handleInvalidate)
	r.Delete("/api/v1/surface/{session_id}", s.handleClose)
}

func (s *Service) handleScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	res, err := s.Scan(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Service) handleDescribe(w http.ResponseWriter, r *http.Request) {
	ses, index, ok := s.sessionAndIndex(w, r)
	if !ok {
		return
	}
	hidden, err := ses.IsHidden(index)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	disabled, err := ses.IsDisabled(index)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	path, err := ses.Path(index)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, describeResponse{Hidden: hidden, Disabled: disabled, Path: path})
}

func (s *Service) handlePath(w http.ResponseWriter, r *http.Request) {
	ses, index, ok := s.sessionAndIndex(w, r)
	if !ok {
		return
	}
	path, err := ses.Path(index)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

func (s *Service) handleCompare(w http.ResponseWriter, r *http.Request) {
	ses, err := s.Session(chi.URLParam(r, "session_id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	first, err1 := strconv.Atoi(r.URL.Query().Get("first"))
	second, err2 := strconv.Atoi(r.URL.Query().Get("second"))
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("first and second query params must be integers"))
		return
	}
	rel, err := ses.Compare(first, second)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"relation": int(rel), "meaning": rel.String()})
}

func (s *Service) handleActive(w http.ResponseWriter, r *http.Request) {
	ses, err := s.Session(chi.URLParam(r, "session_id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	d, err := ses.Active(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"active": d})
}

func (s *Service) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	if err := s.Invalidate(chi.URLParam(r, "session_id")); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (s *Service) handleClose(w http.ResponseWriter, r *http.Request) {
	if err := s.CloseSession(chi.URLParam(r, "session_id")); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

func (s *Service) sessionAndIndex(w http.ResponseWriter, r *http.Request) (*Session, int, bool) {
	ses, err := s.Session(chi.URLParam(r, "session_id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return nil, 0, false
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("index must be an integer"))
		return nil, 0, false
	}
	return ses, index, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
