package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"civicquiz-service/internal/app"
	"civicquiz-service/internal/domain"
	"civicquiz-service/internal/mode"
	"github.com/gorilla/mux"
)

// NewRouter exposes the REST surface next to the websocket endpoint:
// mode listing for client menus and read-only session/analytics views.
func NewRouter(service *app.SessionService, registry *mode.Registry) *mux.Router {
	h := &restHandler{service: service, registry: registry}
	ws := NewWSHandler(service)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.HandleFunc("/ws", ws.ServeWS)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/modes", h.listModes).Methods(http.MethodGet)
	api.HandleFunc("/quizzes/{quizID}/session", h.sessionSnapshot).Methods(http.MethodGet)
	api.HandleFunc("/quizzes/{quizID}/analytics", h.analytics).Methods(http.MethodGet)
	api.HandleFunc("/quizzes/{quizID}/progress", h.progress).Methods(http.MethodGet)
	return r
}

type restHandler struct {
	service  *app.SessionService
	registry *mode.Registry
}

func (h *restHandler) listModes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.Configs())
}

func (h *restHandler) sessionSnapshot(w http.ResponseWriter, r *http.Request) {
	quizID := mux.Vars(r)["quizID"]
	snap, err := h.service.Snapshot(r.Context(), quizID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *restHandler) analytics(w http.ResponseWriter, r *http.Request) {
	quizID := mux.Vars(r)["quizID"]
	data, err := h.service.Analytics(r.Context(), quizID, r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (h *restHandler) progress(w http.ResponseWriter, r *http.Request) {
	quizID := mux.Vars(r)["quizID"]
	data, err := h.service.Progress(r.Context(), quizID, r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrModeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNotHost),
		errors.Is(err, domain.ErrSubmissionRejected):
		status = http.StatusForbidden
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
