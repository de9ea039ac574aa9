package playback

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vidview/vidview/internal/plans"
)

var (
	ErrNoSources      = errors.New("session requires at least one video source")
	ErrUnknownQuality = errors.New("unknown quality")
	ErrLimitReached   = errors.New("plan viewing limit reached")
)

// VideoSource is one rendition of a video. Quality is unique within a session;
// URL is an opaque locator handed straight to the media sink.
type VideoSource struct {
	Quality string `json:"quality"`
	URL     string `json:"url"`
}

type State string

const (
	StateStopped     State = "stopped"
	StatePlaying     State = "playing"
	StatePaused      State = "paused"
	StateLimitLocked State = "limit_locked"
)

// MediaSink is the video element the session drives. Implementations must not
// call back into the session.
type MediaSink interface {
	Load(url string)
	Seek(seconds float64)
	Play()
	Pause()
	CurrentPosition() float64
	IsPlaying() bool
}

// Notifier receives session events that the surrounding page surfaces to the
// viewer.
type Notifier interface {
	LimitReached(sessionID string, limitSeconds int)
}

// Session owns the playback state for one open video. All methods serialize on
// an internal mutex; the stored position is authoritative, the sink only
// mirrors it.
//
// A quality switch is a critical section: between Load being issued and
// HandleLoadComplete, ticks are dropped so the old source's timeline cannot
// bleed into the new one. The seek/resume pair is only ever emitted from
// HandleLoadComplete, never optimistically.
type Session struct {
	mu sync.Mutex

	id      string
	videoID string
	sources []VideoSource
	plan    plans.Plan

	selectedQuality string
	position        float64
	state           State
	limitReached    bool

	switching       bool
	pendingSeek     float64
	resumeAfterLoad bool

	sink     MediaSink
	notifier Notifier
}

// NewSession validates the source list and starts a paused session on the
// first source.
func NewSession(id, videoID string, sources []VideoSource, plan plans.Plan, sink MediaSink, notifier Notifier) (*Session, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	seen := make(map[string]bool, len(sources))
	for _, src := range sources {
		if seen[src.Quality] {
			return nil, fmt.Errorf("duplicate quality %q in source list", src.Quality)
		}
		seen[src.Quality] = true
	}

	s := &Session{
		id:              id,
		videoID:         videoID,
		sources:         append([]VideoSource(nil), sources...),
		plan:            plan,
		selectedQuality: sources[0].Quality,
		state:           StatePaused,
		sink:            sink,
		notifier:        notifier,
	}
	s.sink.Load(sources[0].URL)
	return s, nil
}

func (s *Session) ID() string      { return s.id }
func (s *Session) VideoID() string { return s.videoID }

// SelectQuality switches the active rendition while preserving the timeline
// position. Selecting the current quality is a no-op.
func (s *Session) SelectQuality(quality string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quality == s.selectedQuality {
		return nil
	}
	src, ok := s.findSource(quality)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuality, quality)
	}

	wasPlaying := s.state == StatePlaying
	s.pendingSeek = s.position
	s.resumeAfterLoad = wasPlaying || s.resumeAfterLoad
	s.switching = true
	s.selectedQuality = quality
	if wasPlaying {
		s.state = StatePaused
	}
	s.sink.Load(src.URL)
	return nil
}

// HandleLoadComplete is the sink's load-completion event. It closes the
// quality-switch critical section: seek to the captured position, then resume
// if the switch interrupted playback.
func (s *Session) HandleLoadComplete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.switching {
		return
	}
	s.switching = false
	s.sink.Seek(s.pendingSeek)
	if s.resumeAfterLoad && s.state != StateLimitLocked {
		s.resumeAfterLoad = false
		s.state = StatePlaying
		s.sink.Play()
	}
}

// Tick advances the watched position. Ticks are ignored while the session is
// limit-locked or mid quality switch.
func (s *Session) Tick(elapsedSeconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateLimitLocked || s.state == StateStopped || s.switching {
		return
	}
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}
	s.position += elapsedSeconds

	if !s.plan.Unlimited() && s.position >= float64(*s.plan.TimeLimitSeconds) {
		s.lock(*s.plan.TimeLimitSeconds)
	}
}

// lock transitions to LimitLocked and fires the notification exactly once.
// Caller holds s.mu.
func (s *Session) lock(limitSeconds int) {
	s.state = StateLimitLocked
	s.limitReached = true
	s.sink.Pause()
	if s.notifier != nil {
		s.notifier.LimitReached(s.id, limitSeconds)
	}
}

// SetPlan replaces the session's plan. The limit lock belongs to the old plan,
// so it clears; time already watched is not replayed against the new limit —
// if the new limit is already exceeded the session stays paused and locks on
// the next tick.
func (s *Session) SetPlan(plan plans.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if plan.ID == s.plan.ID {
		return
	}
	s.plan = plan
	s.limitReached = false
	if s.state == StateLimitLocked {
		s.state = StatePaused
	}

	exceeded := !plan.Unlimited() && s.position >= float64(*plan.TimeLimitSeconds)
	if s.state == StatePaused && s.resumeAfterLoad && !s.switching && !exceeded {
		s.resumeAfterLoad = false
		s.state = StatePlaying
		s.sink.Play()
	}
}

// Play resumes playback. While limit-locked the request is rejected and the
// limit notification re-emitted so the UI can explain why.
func (s *Session) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateLimitLocked:
		if s.notifier != nil && !s.plan.Unlimited() {
			s.notifier.LimitReached(s.id, *s.plan.TimeLimitSeconds)
		}
		return ErrLimitReached
	case StateStopped:
		return nil
	case StatePlaying:
		return nil
	}

	if s.switching {
		// Honor the intent once the pending load settles.
		s.resumeAfterLoad = true
		return nil
	}
	s.state = StatePlaying
	s.sink.Play()
	return nil
}

func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateLimitLocked || s.state == StateStopped {
		return
	}
	s.resumeAfterLoad = false
	if s.state == StatePlaying {
		s.sink.Pause()
	}
	s.state = StatePaused
}

// Stop ends the session when the video view closes.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StatePlaying {
		s.sink.Pause()
	}
	s.state = StateStopped
}

func (s *Session) findSource(quality string) (VideoSource, bool) {
	for _, src := range s.sources {
		if src.Quality == quality {
			return src, true
		}
	}
	return VideoSource{}, false
}

// Snapshot is the session state the API returns to the front end.
type Snapshot struct {
	ID              string        `json:"id"`
	VideoID         string        `json:"videoId"`
	Sources         []VideoSource `json:"sources"`
	SelectedQuality string        `json:"selectedQuality"`
	PositionSeconds float64       `json:"positionSeconds"`
	State           State         `json:"state"`
	LimitReached    bool          `json:"limitReached"`
	PlanID          string        `json:"planId"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:              s.id,
		VideoID:         s.videoID,
		Sources:         append([]VideoSource(nil), s.sources...),
		SelectedQuality: s.selectedQuality,
		PositionSeconds: s.position,
		State:           s.state,
		LimitReached:    s.limitReached,
		PlanID:          s.plan.ID,
	}
}
