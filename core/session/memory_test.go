package session

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStorePutGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	key := Key{Namespace: "telegram_post", UserID: 42}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected absent session, got %+v", got)
	}

	s := &Session{Stage: StageAwaitingTags, Title: "My Title"}
	if err := store.Put(ctx, key, s, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err = store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Stage != StageAwaitingTags || got.Title != "My Title" {
		t.Fatalf("unexpected session: %+v", got)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ = store.Get(ctx, key)
	if got != nil {
		t.Fatalf("expected absent after delete, got %+v", got)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }

	key := Key{Namespace: "telegram_post", UserID: 7}
	if err := store.Put(ctx, key, &Session{Stage: StageAwaitingTitle}, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}

	now = now.Add(59 * time.Minute)
	if got, _ := store.Get(ctx, key); got == nil {
		t.Fatal("session expired too early")
	}

	now = now.Add(2 * time.Minute)
	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected expired session to read as absent, got %+v", got)
	}
}

func TestMemoryStoreCopySemantics(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	key := Key{Namespace: "telegram_post", UserID: 9}

	s := &Session{Stage: StageAwaitingCategory, Tags: []string{"t1", "t2"}}
	if err := store.Put(ctx, key, s, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	s.Tags[0] = "mutated"
	s.Stage = StageNone

	got, _ := store.Get(ctx, key)
	if got.Stage != StageAwaitingCategory || got.Tags[0] != "t1" {
		t.Fatalf("store aliased caller memory: %+v", got)
	}

	got.Tags[1] = "mutated"
	again, _ := store.Get(ctx, key)
	if again.Tags[1] != "t2" {
		t.Fatalf("reader mutation leaked into store: %+v", again)
	}
}

func TestCloneDistinguishesNilAndEmptyTags(t *testing.T) {
	withEmpty := (&Session{Stage: StageAwaitingCategory, Tags: []string{}}).Clone()
	if withEmpty.Tags == nil {
		t.Fatal("empty tag list collapsed to nil")
	}
	withNil := (&Session{Stage: StageAwaitingTitle}).Clone()
	if withNil.Tags != nil {
		t.Fatal("nil tags grew a slice")
	}
}
