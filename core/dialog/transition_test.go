package dialog

import (
	"reflect"
	"testing"

	"postbot/core/session"
)

func TestTransitionStartResetsAndShowsMenu(t *testing.T) {
	midFlow := &session.Session{Stage: session.StageAwaitingContent, Title: "t"}

	for _, sess := range []*session.Session{nil, midFlow} {
		res := Transition(sess, Input{Kind: KindStart})
		if !res.Reset {
			t.Error("start must reset")
		}
		if res.Session != nil {
			t.Error("start must not persist a session")
		}
		if res.Prompt.Text != MsgWelcome || !res.Prompt.Menu {
			t.Errorf("start prompt = %+v", res.Prompt)
		}
	}
}

func TestTransitionEndSession(t *testing.T) {
	res := Transition(&session.Session{Stage: session.StageAwaitingTags}, Input{Kind: KindEndSession})
	if !res.Reset || res.Session != nil {
		t.Errorf("endsession result = %+v", res)
	}
	if res.Prompt.Text != MsgEnded || res.Prompt.Menu {
		t.Errorf("endsession prompt = %+v", res.Prompt)
	}
}

func TestTransitionBeginPostFresh(t *testing.T) {
	for _, sess := range []*session.Session{nil, {Stage: session.StageNone}} {
		res := Transition(sess, Input{Kind: KindBeginPost})
		if res.Session == nil || res.Session.Stage != session.StageAwaitingTitle {
			t.Fatalf("begin post session = %+v", res.Session)
		}
		if res.Session.Title != "" || res.Session.Tags != nil {
			t.Errorf("fresh session must be empty: %+v", res.Session)
		}
		if res.Prompt.Text != "Send the post title." {
			t.Errorf("prompt = %q", res.Prompt.Text)
		}
	}
}

func TestTransitionBeginPostMidFlowKeepsFields(t *testing.T) {
	sess := &session.Session{
		Stage: session.StageAwaitingCategory,
		Title: "My Title",
		Tags:  []string{"a", "b"},
	}
	res := Transition(sess, Input{Kind: KindBeginPost})

	if res.Prompt.Text != "Send the post title." {
		t.Errorf("prompt = %q", res.Prompt.Text)
	}
	if !reflect.DeepEqual(res.Session, sess) {
		t.Errorf("mid-flow /post must not change state: got %+v want %+v", res.Session, sess)
	}
	if res.Session == sess {
		t.Error("result must be a copy, not the input session")
	}
}

func TestTransitionFieldFlow(t *testing.T) {
	sess := Transition(nil, Input{Kind: KindBeginPost}).Session

	steps := []struct {
		text      string
		wantStage session.Stage
		wantText  string
	}{
		{"  My Title  ", session.StageAwaitingTags, "Title saved. Now, send tags (comma-separated)."},
		{"go, bots", session.StageAwaitingCategory, "Tags saved. Now, send a category."},
		{"Tech News", session.StageAwaitingContent, "Category saved. Now, send the content."},
		{"Body text here.", session.StageAwaitingPublishConfirmation, "Content saved. Type publish to submit your post."},
	}
	for _, step := range steps {
		res := Transition(sess, Input{Kind: KindFieldInput, Text: step.text})
		if res.Session == nil || res.Session.Stage != step.wantStage {
			t.Fatalf("after %q stage = %+v, want %q", step.text, res.Session, step.wantStage)
		}
		if res.Prompt.Text != step.wantText {
			t.Errorf("after %q prompt = %q, want %q", step.text, res.Prompt.Text, step.wantText)
		}
		sess = res.Session
	}

	want := &session.Session{
		Stage:    session.StageAwaitingPublishConfirmation,
		Title:    "My Title",
		Tags:     []string{"go", "bots"},
		Category: "Tech News",
		Content:  "Body text here.",
	}
	if !reflect.DeepEqual(sess, want) {
		t.Errorf("collected draft = %+v, want %+v", sess, want)
	}
}

func TestTransitionInvalidAtConfirmation(t *testing.T) {
	sess := &session.Session{
		Stage:   session.StageAwaitingPublishConfirmation,
		Title:   "t",
		Content: "c",
	}
	res := Transition(sess, Input{Kind: KindFieldInput, Text: "not publish"})
	if res.Prompt.Text != "Invalid command. Type publish to submit your post." {
		t.Errorf("prompt = %q", res.Prompt.Text)
	}
	if !reflect.DeepEqual(res.Session, sess) {
		t.Errorf("invalid input must not change the draft: %+v", res.Session)
	}
}

func TestTransitionPublish(t *testing.T) {
	sess := &session.Session{Stage: session.StageAwaitingPublishConfirmation, Title: "t"}
	res := Transition(sess, Input{Kind: KindPublish})
	if !res.Publish {
		t.Error("publish flag not set")
	}
	if !reflect.DeepEqual(res.Session, sess) {
		t.Errorf("publish must carry the draft unchanged: %+v", res.Session)
	}
	if res.Prompt.Text != "" {
		t.Errorf("publish replies are owned by the dispatcher, got %q", res.Prompt.Text)
	}
}

func TestTransitionIgnoreNoSession(t *testing.T) {
	res := Transition(nil, Input{Kind: KindIgnoreNoSession})
	if res.Session != nil || res.Reset || res.Publish || res.Prompt.Text != "" {
		t.Errorf("ignore must be a full no-op: %+v", res)
	}
}
