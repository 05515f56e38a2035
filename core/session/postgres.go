package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"postbot/core/logger"
	"log/slog"
)

// PostgresStore persists sessions in the sessions table. Expired rows are
// treated as absent on read; Put performs an UPSERT so concurrent duplicate
// deliveries for the same user settle on last-writer-wins.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type sessionRow struct {
	Stage    string         `db:"stage"`
	Title    string         `db:"title"`
	Tags     pq.StringArray `db:"tags"`
	HasTags  bool           `db:"has_tags"`
	Category string         `db:"category"`
	Content  string         `db:"content"`
}

// Get loads the session for key, filtering out expired rows.
func (p *PostgresStore) Get(ctx context.Context, key Key) (*Session, error) {
	const q = `
		SELECT stage, title, tags, has_tags, category, content
		FROM sessions
		WHERE namespace = $1 AND user_id = $2 AND expires_at > now()`

	var row sessionRow
	err := p.db.GetContext(ctx, &row, q, key.Namespace, key.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	s := &Session{
		Stage:    Stage(row.Stage),
		Title:    row.Title,
		Category: row.Category,
		Content:  row.Content,
	}
	if row.HasTags {
		s.Tags = append([]string{}, row.Tags...)
	}
	return s, nil
}

// Put upserts the session for key and resets its expiry window.
func (p *PostgresStore) Put(ctx context.Context, key Key, s *Session, ttl time.Duration) error {
	const q = `
		INSERT INTO sessions (namespace, user_id, stage, title, tags, has_tags, category, content, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now() + $9 * interval '1 second', now())
		ON CONFLICT (namespace, user_id) DO UPDATE SET
			stage      = EXCLUDED.stage,
			title      = EXCLUDED.title,
			tags       = EXCLUDED.tags,
			has_tags   = EXCLUDED.has_tags,
			category   = EXCLUDED.category,
			content    = EXCLUDED.content,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at`

	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := p.db.ExecContext(ctx, q,
		key.Namespace, key.UserID,
		string(s.Stage), s.Title, pq.Array(tags), s.Tags != nil, s.Category, s.Content,
		int64(ttl/time.Second),
	)
	if err != nil {
		return fmt.Errorf("session put: %w", err)
	}
	return nil
}

// Delete removes the session for key. Deleting an absent session is a no-op.
func (p *PostgresStore) Delete(ctx context.Context, key Key) error {
	const q = `DELETE FROM sessions WHERE namespace = $1 AND user_id = $2`

	if _, err := p.db.ExecContext(ctx, q, key.Namespace, key.UserID); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

// PurgeExpired removes rows past their expiry. Reads already ignore expired
// rows; this keeps the table from accumulating abandoned dialogues.
func (p *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("session purge: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		logger.DB.Debug("expired sessions purged",
			slog.String("event", "session.purge"),
			slog.Int64("count", n),
		)
	}
	return n, nil
}

// Sweep runs PurgeExpired on the given interval until ctx is cancelled.
func (p *PostgresStore) Sweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.PurgeExpired(ctx); err != nil && ctx.Err() == nil {
				logger.DB.Warn("session purge failed",
					slog.String("event", "session.purge"),
					slog.String("err", err.Error()),
				)
			}
		}
	}
}
