package webhook

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"postbot/core/auth"
	"postbot/core/session"

	"github.com/gin-gonic/gin"
)

func newTestRouter(d *Dispatcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	d.Register(r, "/telegram/webhook")
	return r
}

func post(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookStartCommand(t *testing.T) {
	d, sender, _ := newTestDispatcher(&fakePublisher{})
	r := newTestRouter(d)

	w := post(r, `{"update_id":10,"message":{"message_id":1,"text":"/start","from":{"id":42},"chat":{"id":4242}}}`)
	if w.Code != http.StatusOK || w.Body.String() != "Session started" {
		t.Fatalf("response = %d %q", w.Code, w.Body.String())
	}
	if got := sender.last(t); got.chatID != 4242 || !got.menu {
		t.Errorf("welcome reply = %+v", got)
	}
}

func TestWebhookRejectsPayloadWithoutMessage(t *testing.T) {
	d, _, _ := newTestDispatcher(&fakePublisher{})
	r := newTestRouter(d)

	for _, body := range []string{
		"not json at all",
		`{"update_id":10}`,
		`{"update_id":10,"message":null}`,
	} {
		w := post(r, body)
		if w.Code != http.StatusBadRequest || w.Body.String() != "No message received" {
			t.Errorf("body %q: response = %d %q", body, w.Code, w.Body.String())
		}
	}
}

func TestWebhookMissingTokenWinsOverBadPayload(t *testing.T) {
	d := NewDispatcher(Options{
		Gate:  auth.NewGate([]int64{testUser}),
		Store: session.NewMemoryStore(),
		TTL:   time.Hour,
	})
	r := newTestRouter(d)

	w := post(r, "whatever")
	if w.Code != http.StatusBadRequest || w.Body.String() != "Bot token missing" {
		t.Errorf("response = %d %q", w.Code, w.Body.String())
	}
}

func TestWebhookUnauthorized(t *testing.T) {
	d, _, _ := newTestDispatcher(&fakePublisher{})
	r := newTestRouter(d)

	w := post(r, `{"update_id":11,"message":{"message_id":2,"text":"/start","from":{"id":77},"chat":{"id":77}}}`)
	if w.Code != http.StatusForbidden || w.Body.String() != "Unauthorized user" {
		t.Errorf("response = %d %q", w.Code, w.Body.String())
	}
}
