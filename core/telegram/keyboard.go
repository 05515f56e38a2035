package telegram

import tele "gopkg.in/telebot.v4"

// MenuKeyboard returns the persistent reply keyboard shown on /start:
// a single row with the two commands the dialogue understands.
func MenuKeyboard() *tele.ReplyMarkup {
	return ReplyButtons([]string{"/post", "/endsession"})
}

// ReplyButtons builds a reply keyboard from rows of text.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	var keyboard []tele.Row
	for _, row := range rows {
		var buttons []tele.Btn
		for _, label := range row {
			buttons = append(buttons, markup.Text(label))
		}
		keyboard = append(keyboard, markup.Row(buttons...))
	}
	markup.Reply(keyboard...)
	return markup
}
