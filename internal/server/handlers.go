package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/mdview/mdv/internal/apperr"
	"github.com/mdview/mdv/internal/workspace"
)

type registerRequest struct {
	Path string `json:"path"`
}

type registerResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type workspaceInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

type statusResponse struct {
	Status     string          `json:"status"`
	Workspaces []workspaceInfo `json:"workspaces"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeTaxonomyError maps a taxonomy error to its status with a uniform
// message, so responses never distinguish "outside root" from "missing".
func writeTaxonomyError(w http.ResponseWriter, err error) {
	msg := "internal error"
	switch {
	case errors.Is(err, apperr.ErrInvalidPath):
		msg = "invalid path"
	case errors.Is(err, apperr.ErrNotInAnyWorkspace):
		msg = "file not in any registered workspace"
	case errors.Is(err, apperr.ErrNotFound):
		msg = "not found"
	}
	writeJSON(w, apperr.HTTPStatus(err), map[string]string{"error": msg})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	d, err := s.service.Register(req.Path)
	if err != nil {
		writeTaxonomyError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, registerResponse{
		ID:   d.ID,
		Name: d.Name,
		URL:  workspace.ViewURL(d.ID),
	})
}

func (s *Server) handleUnregister(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if !s.service.Unregister(id) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "workspace not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "id": id})
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing path parameter"})
		return
	}

	active, err := s.service.ResolveActive(path)
	if err != nil {
		writeTaxonomyError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"url":          active.URL,
		"workspace_id": active.WorkspaceID,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	list := s.service.List()
	workspaces := make([]workspaceInfo, 0, len(list))
	for _, d := range list {
		workspaces = append(workspaces, workspaceInfo{ID: d.ID, Name: d.Name, Path: d.Root})
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: "ok", Workspaces: workspaces})
}

func (s *Server) handleScroll(w http.ResponseWriter, r *http.Request) {
	percent, err := strconv.Atoi(r.URL.Query().Get("percent"))
	if err != nil || percent < 0 || percent > 100 {
		http.Error(w, "percent must be an integer 0-100", http.StatusBadRequest)
		return
	}

	s.service.Scroll(percent)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "healthy",
		"timestamp":  time.Now().UTC(),
		"workspaces": len(s.service.List()),
		"viewers": map[string]int{
			"websocket": s.service.CommandSubscribers(),
			"sse":       s.service.ReloadSubscribers(),
		},
	})
}
