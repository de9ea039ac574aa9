package engage

import (
	"context"
	"fmt"
	"sync"

	"github.com/vidview/vidview/internal/database"
)

// CommentStore persists one video's full comment thread at a time. The
// moderator saves after every mutation, so Save replaces whatever was stored
// for that video.
type CommentStore interface {
	Load(ctx context.Context, videoID string) ([]Comment, error)
	Save(ctx context.Context, videoID string, comments []Comment) error
}

// PostgresStore keeps threads in the comments table.
type PostgresStore struct {
	db database.DBTX
}

func NewPostgresStore(db database.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Load(ctx context.Context, videoID string) ([]Comment, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, author_id, body, likes, dislikes, translation_status, translation_lang, translation_text, created_at
		 FROM comments WHERE video_id = $1 ORDER BY created_at DESC`,
		videoID,
	)
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		c := Comment{VideoID: videoID}
		var status, lang, text string
		if err := rows.Scan(&c.ID, &c.AuthorID, &c.Text, &c.Likes, &c.Dislikes, &status, &lang, &text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		c.Translation = TranslationState{Status: TranslationStatus(status), TargetLang: lang, Text: text}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read comments: %w", err)
	}
	return comments, nil
}

func (s *PostgresStore) Save(ctx context.Context, videoID string, comments []Comment) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM comments WHERE video_id = $1`, videoID); err != nil {
		return fmt.Errorf("clear thread: %w", err)
	}
	for _, c := range comments {
		// An in-flight request is an in-memory lock, not durable state.
		tr := c.Translation
		if tr.Status == TranslationInFlight {
			tr = idleTranslation()
		}
		if _, err := s.db.Exec(ctx,
			`INSERT INTO comments (id, video_id, author_id, body, likes, dislikes, translation_status, translation_lang, translation_text, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			c.ID, videoID, c.AuthorID, c.Text, c.Likes, c.Dislikes, string(tr.Status), tr.TargetLang, tr.Text, c.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert comment %s: %w", c.ID, err)
		}
	}
	return nil
}

// MemoryStore is the in-process store used in tests and DB-less runs.
type MemoryStore struct {
	mu      sync.Mutex
	threads map[string][]Comment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{threads: make(map[string][]Comment)}
}

func (s *MemoryStore) Load(_ context.Context, videoID string) ([]Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Comment(nil), s.threads[videoID]...), nil
}

func (s *MemoryStore) Save(_ context.Context, videoID string, comments []Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads[videoID] = append([]Comment(nil), comments...)
	return nil
}
