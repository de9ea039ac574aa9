package playback

import "sync"

// Directive is one instruction for the front end's video element. The real
// sink lives in the browser, so the server records what it would have done and
// ships the batch back with each API response.
type Directive struct {
	Op      string  `json:"op"` // load, seek, play, pause
	URL     string  `json:"url,omitempty"`
	Seconds float64 `json:"seconds,omitempty"`
}

// RecordingSink implements MediaSink by queueing directives. It also mirrors
// the playing flag and position so CurrentPosition/IsPlaying answer what the
// element would report.
type RecordingSink struct {
	mu         sync.Mutex
	directives []Directive
	position   float64
	playing    bool
}

func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

func (r *RecordingSink) Load(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playing = false
	r.directives = append(r.directives, Directive{Op: "load", URL: url})
}

func (r *RecordingSink) Seek(seconds float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.position = seconds
	r.directives = append(r.directives, Directive{Op: "seek", Seconds: seconds})
}

func (r *RecordingSink) Play() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playing = true
	r.directives = append(r.directives, Directive{Op: "play"})
}

func (r *RecordingSink) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playing = false
	r.directives = append(r.directives, Directive{Op: "pause"})
}

func (r *RecordingSink) CurrentPosition() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.position
}

func (r *RecordingSink) IsPlaying() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playing
}

// Drain returns the queued directives and clears the queue.
func (r *RecordingSink) Drain() []Directive {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.directives
	r.directives = nil
	return out
}
