package engage

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vidview/vidview/internal/auth"
	"github.com/vidview/vidview/internal/httputil"
	"github.com/vidview/vidview/internal/languages"
)

type Handler struct {
	moderator *Moderator
}

func NewHandler(moderator *Moderator) *Handler {
	return &Handler{moderator: moderator}
}

type threadResponse struct {
	Comments             []Comment `json:"comments"`
	TranslationAvailable bool      `json:"translationAvailable"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	comments, err := h.moderator.Thread(r.Context(), videoID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load comments")
		return
	}
	if comments == nil {
		comments = []Comment{}
	}
	httputil.WriteJSON(w, http.StatusOK, threadResponse{
		Comments:             comments,
		TranslationAvailable: h.moderator.TranslationAvailable(),
	})
}

type submitRequest struct {
	Text string `json:"text"`
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	authorID := auth.UserIDFromContext(r.Context())

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	comment, err := h.moderator.Submit(r.Context(), videoID, authorID, req.Text)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			httputil.WriteError(w, http.StatusBadRequest, verr.Message)
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, "failed to submit comment")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, comment)
}

func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	commentID := chi.URLParam(r, "commentID")
	if err := h.moderator.Like(r.Context(), videoID, commentID); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to record like")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Dislike(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	commentID := chi.URLParam(r, "commentID")
	if err := h.moderator.Dislike(r.Context(), videoID, commentID); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to record dislike")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type translateRequest struct {
	TargetLang string `json:"targetLang"`
}

func (h *Handler) Translate(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	commentID := chi.URLParam(r, "commentID")

	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !languages.IsValidTargetLanguage(req.TargetLang) {
		httputil.WriteError(w, http.StatusBadRequest, "unknown target language")
		return
	}

	state, err := h.moderator.RequestTranslation(r.Context(), videoID, commentID, req.TargetLang)
	switch {
	case errors.Is(err, ErrNotFound):
		httputil.WriteError(w, http.StatusNotFound, "comment not found")
		return
	case errors.Is(err, ErrAlreadyInFlight):
		httputil.WriteError(w, http.StatusConflict, "translation already in progress")
		return
	case err != nil:
		httputil.WriteError(w, http.StatusInternalServerError, "failed to request translation")
		return
	}

	status := http.StatusAccepted
	if state.Status == TranslationDone || state.Status == TranslationFailed {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, state)
}

// Routes mounts the comment API for one video under the router. The caller
// wraps the mutating routes in the auth middleware.
func (h *Handler) Routes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", h.Submit)
		r.Post("/{commentID}/like", h.Like)
		r.Post("/{commentID}/dislike", h.Dislike)
		r.Post("/{commentID}/translate", h.Translate)
	})
}
