// Package session stores per-user posting dialogue state across independent
// webhook invocations.
package session

import (
	"context"
	"time"
)

// Stage identifies which field of the draft post is expected next.
// The stage is the single source of truth for dialogue progress: a field is
// considered collected if and only if its stage has been passed, so a
// legitimately empty value never reads as "not yet collected".
type Stage string

const (
	// StageNone indicates there is no active posting dialogue.
	StageNone Stage = "none"
	// StageAwaitingTitle waits for the post title.
	StageAwaitingTitle Stage = "awaiting_title"
	// StageAwaitingTags waits for the comma-separated tag list.
	StageAwaitingTags Stage = "awaiting_tags"
	// StageAwaitingCategory waits for the category name.
	StageAwaitingCategory Stage = "awaiting_category"
	// StageAwaitingContent waits for the post body.
	StageAwaitingContent Stage = "awaiting_content"
	// StageAwaitingPublishConfirmation waits for the publish keyword.
	StageAwaitingPublishConfirmation Stage = "awaiting_publish_confirmation"
)

// Session holds the draft post collected so far. Fields are populated
// strictly in stage order.
type Session struct {
	Stage    Stage
	Title    string
	Tags     []string
	Category string
	Content  string
}

// Clone returns a deep copy so callers can mutate freely without aliasing
// store-owned state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.Tags != nil {
		out.Tags = append([]string(nil), s.Tags...)
	}
	return &out
}

// Key addresses one user's session within a namespace. Structured on purpose:
// no "prefix_userID" string formatting anywhere.
type Key struct {
	Namespace string
	UserID    int64
}

// Store is the persistence contract for sessions. Get returns nil for both a
// missing and an expired session; the store is the only place TTL is
// enforced.
type Store interface {
	Get(ctx context.Context, key Key) (*Session, error)
	Put(ctx context.Context, key Key, s *Session, ttl time.Duration) error
	Delete(ctx context.Context, key Key) error
}
