package playback

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vidview/vidview/internal/httputil"
	"github.com/vidview/vidview/internal/plans"
)

// SourceProvider resolves the renditions available for a video. The storage
// package implements it with presigned URLs.
type SourceProvider interface {
	Renditions(ctx context.Context, videoID string) ([]VideoSource, error)
}

// ViewRecorder is notified when a viewer opens a session. Recording is
// best-effort; implementations must not fail the request.
type ViewRecorder interface {
	Record(ctx context.Context, videoID, remoteAddr, userAgent string)
}

type Handler struct {
	manager *Manager
	sources SourceProvider
	views   ViewRecorder
}

func NewHandler(manager *Manager, sources SourceProvider, views ViewRecorder) *Handler {
	return &Handler{manager: manager, sources: sources, views: views}
}

type sessionResponse struct {
	Session    Snapshot    `json:"session"`
	Directives []Directive `json:"directives"`
}

func (h *Handler) respond(w http.ResponseWriter, status int, s *Session, sink *RecordingSink) {
	httputil.WriteJSON(w, status, sessionResponse{
		Session:    s.Snapshot(),
		Directives: sink.Drain(),
	})
}

type openRequest struct {
	VideoID string `json:"videoId"`
	PlanID  string `json:"planId"`
}

func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.VideoID == "" {
		httputil.WriteError(w, http.StatusBadRequest, "videoId is required")
		return
	}

	plan := plans.Default()
	if req.PlanID != "" {
		p, ok := plans.ByID(req.PlanID)
		if !ok {
			httputil.WriteError(w, http.StatusBadRequest, "unknown plan")
			return
		}
		plan = p
	}

	sources, err := h.sources.Renditions(r.Context(), req.VideoID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to resolve video sources")
		return
	}

	session, sink, err := h.manager.Open(req.VideoID, sources, plan)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.views != nil {
		h.views.Record(r.Context(), req.VideoID, r.RemoteAddr, r.UserAgent())
	}

	h.respond(w, http.StatusCreated, session, sink)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, *RecordingSink, bool) {
	id := chi.URLParam(r, "id")
	session, sink, ok := h.manager.Get(id)
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, "session not found")
		return nil, nil, false
	}
	return session, sink, true
}

type qualityRequest struct {
	Quality string `json:"quality"`
}

func (h *Handler) SelectQuality(w http.ResponseWriter, r *http.Request) {
	session, sink, ok := h.session(w, r)
	if !ok {
		return
	}
	var req qualityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := session.SelectQuality(req.Quality); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respond(w, http.StatusOK, session, sink)
}

// Loaded is the sink's load-completion callback, posted by the front end once
// the new source is ready.
func (h *Handler) Loaded(w http.ResponseWriter, r *http.Request) {
	session, sink, ok := h.session(w, r)
	if !ok {
		return
	}
	session.HandleLoadComplete()
	h.respond(w, http.StatusOK, session, sink)
}

type tickRequest struct {
	ElapsedSeconds float64 `json:"elapsedSeconds"`
}

func (h *Handler) Tick(w http.ResponseWriter, r *http.Request) {
	session, sink, ok := h.session(w, r)
	if !ok {
		return
	}
	var req tickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	session.Tick(req.ElapsedSeconds)
	h.respond(w, http.StatusOK, session, sink)
}

func (h *Handler) Play(w http.ResponseWriter, r *http.Request) {
	session, sink, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := session.Play(); err != nil {
		if errors.Is(err, ErrLimitReached) {
			httputil.WriteError(w, http.StatusConflict, err.Error())
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respond(w, http.StatusOK, session, sink)
}

func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	session, sink, ok := h.session(w, r)
	if !ok {
		return
	}
	session.Pause()
	h.respond(w, http.StatusOK, session, sink)
}

type planRequest struct {
	PlanID string `json:"planId"`
}

func (h *Handler) SetPlan(w http.ResponseWriter, r *http.Request) {
	session, sink, ok := h.session(w, r)
	if !ok {
		return
	}
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	plan, found := plans.ByID(req.PlanID)
	if !found {
		httputil.WriteError(w, http.StatusBadRequest, "unknown plan")
		return
	}
	session.SetPlan(plan)
	h.respond(w, http.StatusOK, session, sink)
}

func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.manager.Close(id)
	w.WriteHeader(http.StatusNoContent)
}

// Routes mounts the playback API on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.Open)
	r.Post("/{id}/quality", h.SelectQuality)
	r.Post("/{id}/loaded", h.Loaded)
	r.Post("/{id}/tick", h.Tick)
	r.Post("/{id}/play", h.Play)
	r.Post("/{id}/pause", h.Pause)
	r.Post("/{id}/plan", h.SetPlan)
	r.Delete("/{id}", h.Close)
}
