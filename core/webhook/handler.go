package webhook

import (
	"net/http"

	"postbot/core/logger"

	"github.com/gin-gonic/gin"
	tele "gopkg.in/telebot.v4"
)

// Register mounts the webhook endpoint on the router.
func (d *Dispatcher) Register(r *gin.Engine, path string) {
	r.POST(path, d.handle)
}

// handle decodes the Telegram payload and delegates to HandleUpdate. Only
// plain text messages drive the dialogue; anything else is a 400.
func (d *Dispatcher) handle(c *gin.Context) {
	if d.sender == nil {
		c.String(http.StatusBadRequest, bodyTokenMissing)
		return
	}

	var upd tele.Update
	if err := c.ShouldBindJSON(&upd); err != nil || upd.Message == nil || upd.Message.Sender == nil || upd.Message.Chat == nil {
		c.String(http.StatusBadRequest, bodyNoMessage)
		return
	}

	u := Update{
		UpdateID: upd.ID,
		UserID:   upd.Message.Sender.ID,
		ChatID:   upd.Message.Chat.ID,
		Text:     upd.Message.Text,
	}
	ctx := logger.WithUpdateMeta(c.Request.Context(), u.UpdateID, u.UserID, u.ChatID)
	ctx = logger.WithRID(ctx, logger.BuildRID(u.UpdateID, u.ChatID, u.UserID))

	resp := d.HandleUpdate(ctx, u)
	c.String(resp.Status, resp.Body)
}
