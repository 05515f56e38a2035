// Package dialog implements the posting conversation: classifying raw
// message text against the loaded session and advancing the dialogue
// field by field until the draft is published or abandoned.
package dialog

import (
	"strings"

	"postbot/core/session"
)

// Kind labels how an incoming message should be handled.
type Kind string

const (
	// KindStart resets the dialogue and shows the menu (/start).
	KindStart Kind = "start"
	// KindEndSession aborts the dialogue (/endsession).
	KindEndSession Kind = "end_session"
	// KindBeginPost opens the field-collection flow (/post).
	KindBeginPost Kind = "begin_post"
	// KindPublish confirms publication of the collected draft.
	KindPublish Kind = "publish"
	// KindFieldInput is plain text consumed by the current stage.
	KindFieldInput Kind = "field_input"
	// KindIgnoreNoSession is plain text from a user with no active dialogue.
	KindIgnoreNoSession Kind = "ignore_no_session"
)

// Input is the classified form of one incoming message.
type Input struct {
	Kind Kind
	Text string
}

const (
	cmdStart      = "/start"
	cmdEndSession = "/endsession"
	cmdPost       = "/post"
	keywordPub    = "publish"
)

// Classify decides which transition applies for raw text given the loaded
// session. Precedence: /start and /endsession always win, at any stage.
// /post is a command at every stage too (it is never stored as a field
// value), though mid-flow it only re-prompts; see Transition. The publish
// keyword is only special while the dialogue awaits confirmation — earlier
// in the flow the literal text "publish" is a perfectly valid field value.
func Classify(raw string, sess *session.Session) Input {
	text := strings.TrimSpace(raw)

	switch text {
	case cmdStart:
		return Input{Kind: KindStart}
	case cmdEndSession:
		return Input{Kind: KindEndSession}
	case cmdPost:
		return Input{Kind: KindBeginPost}
	}

	active := sess != nil && sess.Stage != session.StageNone
	if !active {
		return Input{Kind: KindIgnoreNoSession}
	}

	if sess.Stage == session.StageAwaitingPublishConfirmation && strings.EqualFold(text, keywordPub) {
		return Input{Kind: KindPublish}
	}

	return Input{Kind: KindFieldInput, Text: text}
}

// SplitTags parses a comma-separated tag list: tokens are trimmed and empty
// tokens dropped. The result is never nil, so "tags collected but empty"
// stays distinguishable from "tags not collected yet".
func SplitTags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
