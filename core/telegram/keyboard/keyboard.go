package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn describes a convenience wrapper for inline button properties.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// InlineButtonsRows builds an inline keyboard from rows of InlineBtn.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, len(rows))
	for i, row := range rows {
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			r[j] = *markup.Data(btn.Text, btn.Unique, btn.Data).Inline()
		}
		inline[i] = r
	}
	markup.InlineKeyboard = inline
	return markup
}

// ChunkButtons splits a flat list of InlineBtn into rows with up to n buttons per row.
func ChunkButtons(buttons []InlineBtn, n int) [][]InlineBtn {
	if n <= 1 {
		out := make([][]InlineBtn, 0, len(buttons))
		for _, b := range buttons {
			out = append(out, []InlineBtn{b})
		}
		return out
	}
	var rows [][]InlineBtn
	for i := 0; i < len(buttons); i += n {
		end := i + n
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, buttons[i:end])
	}
	return rows
}

// AppendRow appends a row of buttons to an existing markup built with InlineButtonsRows.
func AppendRow(markup *tele.ReplyMarkup, row ...InlineBtn) *tele.ReplyMarkup {
	if markup == nil {
		markup = &tele.ReplyMarkup{}
	}
	r := make([]tele.InlineButton, len(row))
	for j, btn := range row {
		r[j] = *markup.Data(btn.Text, btn.Unique, btn.Data).Inline()
	}
	markup.InlineKeyboard = append(markup.InlineKeyboard, r)
	return markup
}
