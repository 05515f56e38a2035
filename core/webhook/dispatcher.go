// Package webhook receives Telegram updates over HTTP and drives the
// posting dialogue: authorize, load session, classify, transition, persist,
// reply. HTTP status codes are part of the contract with Telegram, so the
// dispatcher owns them rather than the transport layer.
package webhook

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"postbot/core/auth"
	"postbot/core/dialog"
	"postbot/core/logger"
	"postbot/core/session"
	"postbot/core/telegram"
	"postbot/core/wordpress"

	tele "gopkg.in/telebot.v4"
)

// Namespace keys all dialogue sessions written by this bot.
const Namespace = "telegram_post"

// Bodies returned to Telegram's webhook delivery.
const (
	bodyTokenMissing = "Bot token missing"
	bodyNoMessage    = "No message received"
	bodyUnauthorized = "Unauthorized user"
	bodyStarted      = "Session started"
	bodyEnded        = "Session ended"
	bodySubmitted    = "Post submitted and session ended"
	bodyProcessed    = "Request processed"
)

// Replies sent into the chat.
const (
	msgUnauthorized = "Unauthorized user."
	msgSubmitted    = "Post submitted successfully! View: "
	msgCatError     = "Error creating category: "
	msgPostError    = "Error creating post: "
)

// Sender delivers replies into a Telegram chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error
}

// Publisher submits a finished draft to the content backend.
type Publisher interface {
	Publish(ctx context.Context, post wordpress.Post) (wordpress.Result, error)
}

// Update is the slice of a Telegram update the dialogue cares about.
type Update struct {
	UpdateID int
	UserID   int64
	ChatID   int64
	Text     string
}

// Response is what the webhook endpoint answers to Telegram.
type Response struct {
	Status int
	Body   string
}

// Options wires the dispatcher's collaborators. Sender may be nil when no
// bot token is configured; every update is then rejected with 400.
type Options struct {
	Gate      *auth.Gate
	Store     session.Store
	Sender    Sender
	Publisher Publisher
	TTL       time.Duration
}

// Dispatcher processes one update at a time; all state lives in the store.
type Dispatcher struct {
	gate   *auth.Gate
	store  session.Store
	sender Sender
	pub    Publisher
	ttl    time.Duration
}

func NewDispatcher(opts Options) *Dispatcher {
	return &Dispatcher{
		gate:   opts.Gate,
		store:  opts.Store,
		sender: opts.Sender,
		pub:    opts.Publisher,
		ttl:    opts.TTL,
	}
}

// HandleUpdate runs the full pipeline for one update and reports what the
// HTTP layer should answer. It never returns an error: failures are logged,
// turned into chat replies where the user should know, and folded into the
// response body.
func (d *Dispatcher) HandleUpdate(ctx context.Context, upd Update) Response {
	start := time.Now()

	if d.sender == nil {
		return Response{Status: http.StatusBadRequest, Body: bodyTokenMissing}
	}

	if !d.gate.IsAuthorized(upd.UserID) {
		logger.Warn(ctx, "webhook", "auth",
			slog.String("status", "fail"),
			slog.Int64("user_id", upd.UserID),
		)
		d.reply(ctx, upd.ChatID, msgUnauthorized, nil)
		return Response{Status: http.StatusForbidden, Body: bodyUnauthorized}
	}

	key := session.Key{Namespace: Namespace, UserID: upd.UserID}
	sess, err := d.store.Get(ctx, key)
	if err != nil {
		logger.Error(ctx, "webhook", "session_load",
			slog.Int64("user_id", upd.UserID),
			slog.String("err", err.Error()),
		)
		return Response{Status: http.StatusOK, Body: bodyProcessed}
	}

	input := dialog.Classify(upd.Text, sess)
	res := dialog.Transition(sess, input)

	resp := Response{Status: http.StatusOK, Body: bodyProcessed}
	switch input.Kind {
	case dialog.KindStart:
		resp.Body = bodyStarted
	case dialog.KindEndSession:
		resp.Body = bodyEnded
	}

	if res.Publish {
		resp = d.publish(ctx, key, upd.ChatID, res.Session)
	} else {
		d.apply(ctx, key, res)
		if res.Prompt.Text != "" {
			var markup *tele.ReplyMarkup
			if res.Prompt.Menu {
				markup = telegram.MenuKeyboard()
			}
			d.reply(ctx, upd.ChatID, res.Prompt.Text, markup)
		}
	}

	stage := session.StageNone
	if res.Session != nil {
		stage = res.Session.Stage
	}
	logger.Info(ctx, "webhook", "update",
		slog.Int("update_id", upd.UpdateID),
		slog.Int64("user_id", upd.UserID),
		slog.String("command", string(input.Kind)),
		slog.String("stage", string(stage)),
		slog.Int("http_code", resp.Status),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return resp
}

// apply persists the transition outcome: reset deletes, a returned session
// is upserted with a fresh TTL.
func (d *Dispatcher) apply(ctx context.Context, key session.Key, res dialog.Result) {
	if res.Reset {
		if err := d.store.Delete(ctx, key); err != nil {
			logger.Error(ctx, "webhook", "session_delete",
				slog.Int64("user_id", key.UserID),
				slog.String("err", err.Error()),
			)
		}
		return
	}
	if res.Session == nil {
		return
	}
	if err := d.store.Put(ctx, key, res.Session, d.ttl); err != nil {
		logger.Error(ctx, "webhook", "session_save",
			slog.Int64("user_id", key.UserID),
			slog.String("err", err.Error()),
		)
	}
}

// publish hands the draft to the publisher. On success the session is
// deleted; on failure it is left in place so the user can retry with
// "publish" without re-entering fields.
func (d *Dispatcher) publish(ctx context.Context, key session.Key, chatID int64, sess *session.Session) Response {
	result, err := d.pub.Publish(ctx, wordpress.Post{
		Title:    sess.Title,
		Tags:     sess.Tags,
		Category: sess.Category,
		Content:  sess.Content,
	})
	if err != nil {
		logger.Error(ctx, "webhook", "publish",
			slog.String("status", "fail"),
			slog.Int64("user_id", key.UserID),
			slog.String("err", err.Error()),
		)
		d.reply(ctx, chatID, publishErrorMessage(err), nil)
		return Response{Status: http.StatusOK, Body: bodyProcessed}
	}

	d.reply(ctx, chatID, msgSubmitted+result.Link, nil)
	if err := d.store.Delete(ctx, key); err != nil {
		logger.Error(ctx, "webhook", "session_delete",
			slog.Int64("user_id", key.UserID),
			slog.String("err", err.Error()),
		)
	}
	return Response{Status: http.StatusOK, Body: bodySubmitted}
}

func publishErrorMessage(err error) string {
	var pubErr *wordpress.PublishError
	if errors.As(err, &pubErr) && pubErr.Stage == wordpress.StageCategory {
		return msgCatError + pubErr.Err.Error()
	}
	if errors.As(err, &pubErr) {
		return msgPostError + pubErr.Err.Error()
	}
	return msgPostError + err.Error()
}

// reply sends best-effort: a failed delivery is logged and the pipeline
// continues, since the HTTP answer to Telegram matters more than one lost
// chat message.
func (d *Dispatcher) reply(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup) {
	if d.sender == nil || chatID == 0 {
		return
	}
	if err := d.sender.Send(ctx, chatID, text, markup); err != nil {
		logger.Error(ctx, "tg", "send",
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()),
		)
	}
}
