package webhook

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"

	"postbot/core/auth"
	"postbot/core/session"
	"postbot/core/wordpress"

	tele "gopkg.in/telebot.v4"
)

type sentMessage struct {
	chatID int64
	text   string
	menu   bool
}

type fakeSender struct {
	sent    []sentMessage
	sendErr error
}

func (f *fakeSender) Send(_ context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, menu: markup != nil})
	return f.sendErr
}

func (f *fakeSender) last(t *testing.T) sentMessage {
	t.Helper()
	if len(f.sent) == 0 {
		t.Fatal("no messages sent")
	}
	return f.sent[len(f.sent)-1]
}

type fakePublisher struct {
	calls  int
	posts  []wordpress.Post
	result wordpress.Result
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, post wordpress.Post) (wordpress.Result, error) {
	f.calls++
	f.posts = append(f.posts, post)
	if f.err != nil {
		return wordpress.Result{}, f.err
	}
	return f.result, nil
}

const (
	testUser int64 = 42
	testChat int64 = 4242
)

func newTestDispatcher(pub *fakePublisher) (*Dispatcher, *fakeSender, *session.MemoryStore) {
	sender := &fakeSender{}
	store := session.NewMemoryStore()
	d := NewDispatcher(Options{
		Gate:      auth.NewGate([]int64{testUser}),
		Store:     store,
		Sender:    sender,
		Publisher: pub,
		TTL:       time.Hour,
	})
	return d, sender, store
}

func send(d *Dispatcher, text string) Response {
	return d.HandleUpdate(context.Background(), Update{
		UpdateID: 1, UserID: testUser, ChatID: testChat, Text: text,
	})
}

func TestFullDialogueHappyPath(t *testing.T) {
	pub := &fakePublisher{result: wordpress.Result{ID: 7, Link: "https://blog.example.com/?p=7"}}
	d, sender, store := newTestDispatcher(pub)

	steps := []struct {
		text     string
		wantBody string
		wantSent string
	}{
		{"/start", "Session started", "Welcome! Use the menu below to navigate: /post - Begin a new session /endsession - Cancel the current session."},
		{"/post", "Request processed", "Send the post title."},
		{"My Title", "Request processed", "Title saved. Now, send tags (comma-separated)."},
		{"go, bots", "Request processed", "Tags saved. Now, send a category."},
		{"Tech News", "Request processed", "Category saved. Now, send the content."},
		{"Body text.", "Request processed", "Content saved. Type publish to submit your post."},
		{"publish", "Post submitted and session ended", "Post submitted successfully! View: https://blog.example.com/?p=7"},
	}
	for _, step := range steps {
		resp := send(d, step.text)
		if resp.Status != http.StatusOK || resp.Body != step.wantBody {
			t.Fatalf("%q: response = %d %q, want 200 %q", step.text, resp.Status, resp.Body, step.wantBody)
		}
		if got := sender.last(t).text; got != step.wantSent {
			t.Fatalf("%q: reply = %q, want %q", step.text, got, step.wantSent)
		}
	}

	if !sender.sent[0].menu {
		t.Error("welcome message must carry the menu keyboard")
	}
	if sender.sent[1].menu {
		t.Error("stage prompts must not carry a keyboard")
	}

	wantPost := wordpress.Post{
		Title:    "My Title",
		Tags:     []string{"go", "bots"},
		Category: "Tech News",
		Content:  "Body text.",
	}
	if pub.calls != 1 || !reflect.DeepEqual(pub.posts[0], wantPost) {
		t.Errorf("published %d times with %+v, want once with %+v", pub.calls, pub.posts, wantPost)
	}

	sess, err := store.Get(context.Background(), session.Key{Namespace: Namespace, UserID: testUser})
	if err != nil || sess != nil {
		t.Errorf("session after publish = %+v (%v), want gone", sess, err)
	}
}

func TestPublishFailureKeepsSession(t *testing.T) {
	pub := &fakePublisher{err: &wordpress.PublishError{Stage: wordpress.StagePost, Err: errors.New("boom")}}
	d, sender, store := newTestDispatcher(pub)

	for _, text := range []string{"/post", "t", "a,b", "c", "body"} {
		send(d, text)
	}

	resp := send(d, "publish")
	if resp.Status != http.StatusOK || resp.Body != "Request processed" {
		t.Fatalf("failed publish response = %d %q", resp.Status, resp.Body)
	}
	if got := sender.last(t).text; got != "Error creating post: boom" {
		t.Errorf("failure reply = %q", got)
	}

	sess, err := store.Get(context.Background(), session.Key{Namespace: Namespace, UserID: testUser})
	if err != nil || sess == nil {
		t.Fatalf("session after failed publish = %+v (%v), want preserved", sess, err)
	}
	if sess.Stage != session.StageAwaitingPublishConfirmation || sess.Title != "t" {
		t.Errorf("preserved session = %+v", sess)
	}

	// Retry once the backend recovers; no fields re-entered.
	pub.err = nil
	pub.result = wordpress.Result{ID: 1, Link: "https://blog.example.com/?p=1"}
	resp = send(d, "publish")
	if resp.Body != "Post submitted and session ended" {
		t.Fatalf("retry response = %q", resp.Body)
	}
	if pub.calls != 2 {
		t.Errorf("publisher called %d times, want 2", pub.calls)
	}
}

func TestCategoryErrorMessage(t *testing.T) {
	pub := &fakePublisher{err: &wordpress.PublishError{Stage: wordpress.StageCategory, Err: errors.New("nope")}}
	d, sender, _ := newTestDispatcher(pub)

	for _, text := range []string{"/post", "t", "a", "c", "body", "publish"} {
		send(d, text)
	}
	if got := sender.last(t).text; got != "Error creating category: nope" {
		t.Errorf("failure reply = %q", got)
	}
}

func TestUnauthorizedUser(t *testing.T) {
	d, sender, store := newTestDispatcher(&fakePublisher{})

	resp := d.HandleUpdate(context.Background(), Update{
		UpdateID: 1, UserID: 99, ChatID: 9999, Text: "/start",
	})
	if resp.Status != http.StatusForbidden || resp.Body != "Unauthorized user" {
		t.Fatalf("response = %d %q", resp.Status, resp.Body)
	}
	if got := sender.last(t); got.text != "Unauthorized user." || got.chatID != 9999 {
		t.Errorf("rejection reply = %+v", got)
	}

	sess, _ := store.Get(context.Background(), session.Key{Namespace: Namespace, UserID: 99})
	if sess != nil {
		t.Errorf("unauthorized update must not create state: %+v", sess)
	}
}

func TestMissingTokenRejectsEverything(t *testing.T) {
	d := NewDispatcher(Options{
		Gate:  auth.NewGate([]int64{testUser}),
		Store: session.NewMemoryStore(),
		TTL:   time.Hour,
	})
	resp := send(d, "/start")
	if resp.Status != http.StatusBadRequest || resp.Body != "Bot token missing" {
		t.Errorf("response = %d %q", resp.Status, resp.Body)
	}
}

func TestPlainTextWithoutSessionIgnored(t *testing.T) {
	d, sender, store := newTestDispatcher(&fakePublisher{})

	resp := send(d, "hello there")
	if resp.Status != http.StatusOK || resp.Body != "Request processed" {
		t.Fatalf("response = %d %q", resp.Status, resp.Body)
	}
	if len(sender.sent) != 0 {
		t.Errorf("stray text must not be answered: %+v", sender.sent)
	}
	sess, _ := store.Get(context.Background(), session.Key{Namespace: Namespace, UserID: testUser})
	if sess != nil {
		t.Errorf("stray text must not create state: %+v", sess)
	}
}

func TestEndSessionDropsState(t *testing.T) {
	d, sender, store := newTestDispatcher(&fakePublisher{})

	send(d, "/post")
	send(d, "half-done title")

	resp := send(d, "/endsession")
	if resp.Body != "Session ended" {
		t.Fatalf("response = %q", resp.Body)
	}
	if got := sender.last(t).text; got != "Session ended. Use /start to begin again." {
		t.Errorf("reply = %q", got)
	}
	sess, _ := store.Get(context.Background(), session.Key{Namespace: Namespace, UserID: testUser})
	if sess != nil {
		t.Errorf("session survived /endsession: %+v", sess)
	}
}

func TestFailedReplyDoesNotChangeResponse(t *testing.T) {
	d, sender, _ := newTestDispatcher(&fakePublisher{})
	sender.sendErr = errors.New("telegram down")

	resp := send(d, "/start")
	if resp.Status != http.StatusOK || resp.Body != "Session started" {
		t.Errorf("response = %d %q", resp.Status, resp.Body)
	}
}
