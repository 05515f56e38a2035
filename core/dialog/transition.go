package dialog

import (
	"strings"

	"postbot/core/session"
)

// User-facing texts, kept byte-for-byte compatible with the previous bot.
const (
	MsgWelcome = "Welcome! Use the menu below to navigate: /post - Begin a new session /endsession - Cancel the current session."
	MsgEnded   = "Session ended. Use /start to begin again."

	msgSendTitle    = "Send the post title."
	msgTitleSaved   = "Title saved. Now, send tags (comma-separated)."
	msgTagsSaved    = "Tags saved. Now, send a category."
	msgCatSaved     = "Category saved. Now, send the content."
	msgContentSaved = "Content saved. Type publish to submit your post."
	msgInvalid      = "Invalid command. Type publish to submit your post."
)

// Prompt is the outbound reply computed by a transition. Menu marks the
// welcome message that carries the reply keyboard.
type Prompt struct {
	Text string
	Menu bool
}

// Result describes the outcome of one transition.
//
// Session is the state to persist; nil means nothing to persist. Reset asks
// the dispatcher to delete any stored session (start/endsession). Publish
// marks the terminal action: the dispatcher hands the draft to the content
// publisher and deletes the session only if publishing succeeds, so a
// failed publish never loses collected fields.
type Result struct {
	Session *session.Session
	Reset   bool
	Publish bool
	Prompt  Prompt
}

// Transition is the pure conversation step: given the loaded session (nil
// when absent) and the classified input, it computes the new session state
// and the reply. It never touches the store, the clock, or the network.
func Transition(sess *session.Session, input Input) Result {
	switch input.Kind {
	case KindStart:
		return Result{Reset: true, Prompt: Prompt{Text: MsgWelcome, Menu: true}}

	case KindEndSession:
		return Result{Reset: true, Prompt: Prompt{Text: MsgEnded}}

	case KindBeginPost:
		if sess == nil || sess.Stage == session.StageNone {
			return Result{
				Session: &session.Session{Stage: session.StageAwaitingTitle},
				Prompt:  Prompt{Text: msgSendTitle},
			}
		}
		// Historical quirk, kept on purpose: /post mid-flow re-prompts for
		// the title but leaves the collected fields and stage untouched.
		return Result{Session: sess.Clone(), Prompt: Prompt{Text: msgSendTitle}}

	case KindPublish:
		return Result{Session: sess.Clone(), Publish: true}

	case KindFieldInput:
		return applyField(sess, input.Text)

	default: // KindIgnoreNoSession
		return Result{}
	}
}

func applyField(sess *session.Session, text string) Result {
	next := sess.Clone()
	var prompt string

	switch sess.Stage {
	case session.StageAwaitingTitle:
		next.Title = strings.TrimSpace(text)
		next.Stage = session.StageAwaitingTags
		prompt = msgTitleSaved
	case session.StageAwaitingTags:
		next.Tags = SplitTags(text)
		next.Stage = session.StageAwaitingCategory
		prompt = msgTagsSaved
	case session.StageAwaitingCategory:
		next.Category = strings.TrimSpace(text)
		next.Stage = session.StageAwaitingContent
		prompt = msgCatSaved
	case session.StageAwaitingContent:
		next.Content = strings.TrimSpace(text)
		next.Stage = session.StageAwaitingPublishConfirmation
		prompt = msgContentSaved
	default:
		// Awaiting confirmation: anything but the publish keyword is rejected
		// without touching the draft.
		return Result{Session: next, Prompt: Prompt{Text: msgInvalid}}
	}

	return Result{Session: next, Prompt: Prompt{Text: prompt}}
}
