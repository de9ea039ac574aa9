package engage

import "time"

type TranslationStatus string

const (
	TranslationIdle     TranslationStatus = "idle"
	TranslationInFlight TranslationStatus = "in_flight"
	TranslationDone     TranslationStatus = "done"
	TranslationFailed   TranslationStatus = "failed"
)

// TranslationState is a tagged variant: TargetLang is set for every status but
// idle, Text only for done. An in-flight state doubles as the per-comment lock
// that keeps translation requests deduplicated.
type TranslationState struct {
	Status     TranslationStatus `json:"status"`
	TargetLang string            `json:"targetLang,omitempty"`
	Text       string            `json:"text,omitempty"`
}

func idleTranslation() TranslationState {
	return TranslationState{Status: TranslationIdle}
}

type Comment struct {
	ID          string           `json:"id"`
	VideoID     string           `json:"videoId"`
	AuthorID    string           `json:"authorId"`
	Text        string           `json:"text"`
	Likes       int              `json:"likes"`
	Dislikes    int              `json:"dislikes"`
	Translation TranslationState `json:"translation"`
	CreatedAt   time.Time        `json:"createdAt"`
}
