package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	altronErrors "github.com/TheAdaptoid/Altron-Core/internal/errors"
	"github.com/TheAdaptoid/Altron-Core/internal/thread"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case altronErrors.IsCategory(err, altronErrors.ErrNotFound):
		status = http.StatusNotFound
	case altronErrors.IsCategory(err, altronErrors.ErrInvalidInput),
		altronErrors.IsCategory(err, altronErrors.ErrUnsupportedRole):
		status = http.StatusBadRequest
	case altronErrors.IsCategory(err, altronErrors.ErrAlreadyExists):
		status = http.StatusConflict
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"agent":  s.agent.Name(),
		"model":  s.agent.Model(),
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Server) handleCreateThread(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, altronErrors.InvalidInput("malformed request body"))
			return
		}
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = thread.DefaultTitle
	}

	th, err := s.store.Create(title)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, th)
}

func (s *Server) handleListThreads(w http.ResponseWriter, r *http.Request) {
	threads, err := s.store.List()
	if err != nil {
		writeError(w, err)
		return
	}

	// Summaries only; message bodies stay behind GET /thread/{id}.
	type summary struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		Messages  int       `json:"messages"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}
	out := make([]summary, 0, len(threads))
	for _, th := range threads {
		out = append(out, summary{
			ID:        th.ID,
			Title:     th.Title,
			Messages:  len(th.Messages),
			CreatedAt: th.CreatedAt,
			UpdatedAt: th.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReadThread(w http.ResponseWriter, r *http.Request) {
	th, err := s.store.Load(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, th)
}

func (s *Server) handleUpdateThread(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, altronErrors.InvalidInput("malformed request body"))
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, altronErrors.InvalidInput("title is empty"))
		return
	}

	id := r.PathValue("id")
	unlock := s.store.Guard(id)
	defer unlock()

	th, err := s.store.Load(id)
	if err != nil {
		writeError(w, err)
		return
	}
	th.Title = strings.TrimSpace(req.Title)
	if err := s.store.Save(th); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, th)
}

func (s *Server) handleDeleteThread(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.Remove(id); err != nil {
		writeJSON(w, statusFor(err), map[string]interface{}{
			"id":      id,
			"deleted": false,
			"error":   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":      id,
		"deleted": true,
	})
}

func statusFor(err error) int {
	if altronErrors.IsCategory(err, altronErrors.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
