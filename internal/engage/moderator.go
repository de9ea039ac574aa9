package engage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vidview/vidview/internal/validate"
)

var (
	ErrNotFound        = errors.New("comment not found")
	ErrAlreadyInFlight = errors.New("translation already in flight for this comment")
)

// ValidationError carries the human-readable reason a submission was rejected.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Translator is the external text-translation capability. A nil Translator on
// the moderator means the capability is not configured.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// Notifier receives moderation events the page surfaces to viewers.
type Notifier interface {
	CommentRemoved(videoID, commentID string)
}

const defaultRemovalThreshold = 2

// translationTimeout bounds a translator call so a comment cannot stay
// in-flight forever.
const translationTimeout = 30 * time.Second

// Moderator owns the comment threads and is their only writer. Every mutation
// runs under one mutex and persists the touched thread before returning, so
// rapid repeated actions serialize cleanly. Threads are kept newest first.
type Moderator struct {
	mu               sync.Mutex
	store            CommentStore
	translator       Translator
	notifier         Notifier
	removalThreshold int
	threads          map[string][]Comment
	loaded           map[string]bool
}

type Option func(*Moderator)

func WithTranslator(t Translator) Option {
	return func(m *Moderator) { m.translator = t }
}

func WithNotifier(n Notifier) Option {
	return func(m *Moderator) { m.notifier = n }
}

// WithRemovalThreshold overrides the dislike count at which a comment is
// deleted. The default of 2 is deliberate moderation policy, not a tunable
// most deployments should touch.
func WithRemovalThreshold(n int) Option {
	return func(m *Moderator) {
		if n > 0 {
			m.removalThreshold = n
		}
	}
}

func NewModerator(store CommentStore, opts ...Option) *Moderator {
	m := &Moderator{
		store:            store,
		removalThreshold: defaultRemovalThreshold,
		threads:          make(map[string][]Comment),
		loaded:           make(map[string]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TranslationAvailable reports whether the translation capability is
// configured, so the UI can disable the action up front.
func (m *Moderator) TranslationAvailable() bool {
	return m.translator != nil
}

// Thread returns the video's comments, newest first.
func (m *Moderator) Thread(ctx context.Context, videoID string) ([]Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureLoaded(ctx, videoID)
	return append([]Comment(nil), m.threads[videoID]...), nil
}

// ensureLoaded pulls the thread from the store on first touch. Load failure is
// non-fatal: the thread starts empty. Caller holds m.mu.
func (m *Moderator) ensureLoaded(ctx context.Context, videoID string) {
	if m.loaded[videoID] {
		return
	}
	m.loaded[videoID] = true
	comments, err := m.store.Load(ctx, videoID)
	if err != nil {
		log.Printf("engage: loading thread for %s failed, starting empty: %v", videoID, err)
		return
	}
	m.threads[videoID] = comments
}

// Submit validates and prepends a new comment.
func (m *Moderator) Submit(ctx context.Context, videoID, authorID, rawText string) (Comment, error) {
	if authorID == "" {
		return Comment{}, &ValidationError{Message: "you must be signed in to comment"}
	}
	text := strings.TrimSpace(rawText)
	if msg := validate.CommentBody(text); msg != "" {
		return Comment{}, &ValidationError{Message: msg}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureLoaded(ctx, videoID)

	c := Comment{
		ID:          uuid.NewString(),
		VideoID:     videoID,
		AuthorID:    authorID,
		Text:        text,
		Translation: idleTranslation(),
		CreatedAt:   time.Now().UTC(),
	}
	m.threads[videoID] = append([]Comment{c}, m.threads[videoID]...)
	m.persist(ctx, videoID)
	return c, nil
}

// Like increments the like counter. A vanished comment is silently ignored:
// the UI cannot act on a comment it can no longer see, so the race with
// concurrent removal is benign.
func (m *Moderator) Like(ctx context.Context, videoID, commentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureLoaded(ctx, videoID)

	idx := m.find(videoID, commentID)
	if idx < 0 {
		return nil
	}
	m.threads[videoID][idx].Likes++
	m.persist(ctx, videoID)
	return nil
}

// Dislike increments the dislike counter and hard-deletes the comment once it
// reaches the removal threshold.
func (m *Moderator) Dislike(ctx context.Context, videoID, commentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureLoaded(ctx, videoID)

	idx := m.find(videoID, commentID)
	if idx < 0 {
		return nil
	}
	thread := m.threads[videoID]
	thread[idx].Dislikes++
	if thread[idx].Dislikes >= m.removalThreshold {
		m.threads[videoID] = append(thread[:idx:idx], thread[idx+1:]...)
		if m.notifier != nil {
			m.notifier.CommentRemoved(videoID, commentID)
		}
	}
	m.persist(ctx, videoID)
	return nil
}

// RequestTranslation asks for the comment in targetLang. At most one
// translation may be outstanding per comment; a finished translation for the
// same language is served from the comment itself without calling out again.
func (m *Moderator) RequestTranslation(ctx context.Context, videoID, commentID, targetLang string) (TranslationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureLoaded(ctx, videoID)

	idx := m.find(videoID, commentID)
	if idx < 0 {
		return TranslationState{}, ErrNotFound
	}
	c := &m.threads[videoID][idx]

	switch c.Translation.Status {
	case TranslationInFlight:
		return c.Translation, ErrAlreadyInFlight
	case TranslationDone:
		if c.Translation.TargetLang == targetLang {
			return c.Translation, nil
		}
	}

	if m.translator == nil {
		c.Translation = TranslationState{
			Status:     TranslationFailed,
			TargetLang: targetLang,
			Text:       "translation is not available",
		}
		m.persist(ctx, videoID)
		return c.Translation, nil
	}

	c.Translation = TranslationState{Status: TranslationInFlight, TargetLang: targetLang}
	go m.runTranslation(videoID, commentID, targetLang, c.Text)
	return c.Translation, nil
}

// runTranslation performs the capability call off the lock and applies the
// outcome. The comment is re-looked-up at completion: if it was removed while
// the call was outstanding, the result is discarded rather than applied to a
// reused identifier.
func (m *Moderator) runTranslation(videoID, commentID, targetLang, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), translationTimeout)
	defer cancel()

	translated, err := func() (out string, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("translator panic: %v", r)
			}
		}()
		return m.translator.Translate(ctx, text, targetLang)
	}()

	// Persist under a fresh context; the call context may already be expired.
	saveCtx, saveCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer saveCancel()

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.find(videoID, commentID)
	if idx < 0 {
		log.Printf("engage: discarding stale translation for removed comment %s", commentID)
		return
	}
	c := &m.threads[videoID][idx]
	if err != nil {
		log.Printf("engage: translation of comment %s to %s failed: %v", commentID, targetLang, err)
		c.Translation = TranslationState{
			Status:     TranslationFailed,
			TargetLang: targetLang,
			Text:       "translation failed, please try again later",
		}
	} else {
		c.Translation = TranslationState{
			Status:     TranslationDone,
			TargetLang: targetLang,
			Text:       translated,
		}
	}
	m.persist(saveCtx, videoID)
}

// find returns the comment's index in its thread, or -1. Caller holds m.mu.
func (m *Moderator) find(videoID, commentID string) int {
	for i, c := range m.threads[videoID] {
		if c.ID == commentID {
			return i
		}
	}
	return -1
}

// persist writes the thread back. Persistence failure is logged, not
// surfaced: the in-memory thread stays authoritative for the process.
// Caller holds m.mu.
func (m *Moderator) persist(ctx context.Context, videoID string) {
	if err := m.store.Save(ctx, videoID, m.threads[videoID]); err != nil {
		log.Printf("engage: persisting thread for %s failed: %v", videoID, err)
	}
}
