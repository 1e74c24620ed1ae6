package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgcallbacks "github.com/m3rciful/shopbot/core/telegram/callbacks"
	"github.com/m3rciful/shopbot/core/telegram/format"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
	"github.com/m3rciful/shopbot/core/telegram/keyboard"
	"github.com/m3rciful/shopbot/internal/shop"

	tele "gopkg.in/telebot.v4"
)

const emptyShopMessage = "The shop is empty."

// payload returns the command arguments, e.g. "sword" for "/price sword".
func payload(c tele.Context) string {
	if msg := c.Message(); msg != nil {
		return strings.TrimSpace(msg.Payload)
	}
	return ""
}

func (a *App) handleStart(c tele.Context) error {
	return tghelpers.SendMD(c,
		"👋 Welcome to the shop assistant!\n\n"+
			"Use /shop to browse the catalogue, /price to look up an item, "+
			"and /total to calculate the value of a set of items.\n\n"+
			"Send /help for the full command list.")
}

func (a *App) handleHelp(c tele.Context) error {
	operator := a.isOperator(c.Sender().ID)

	var b strings.Builder
	b.WriteString("📖 *Commands*\n\n")
	for _, cmd := range a.reg.ListCommands(true) {
		fmt.Fprintf(&b, "%s — %s\n", cmd.Text, cmd.Description)
	}
	if operator {
		b.WriteString("\n*Operator commands*\n")
		b.WriteString("/additem <name> <buy> <sell> — add an item\n")
		b.WriteString("/removeitem <name> — remove an item\n")
	}
	return tghelpers.SendMD(c, b.String())
}

func (a *App) handleShop(c tele.Context) error {
	items := a.store.Items()
	if len(items) == 0 {
		return tghelpers.SendMD(c, emptyShopMessage)
	}
	text, rows := renderShopPage(items, 0, a.pageSize)
	return tghelpers.SendMD(c, text, keyboard.InlineButtonsRows(rows...))
}

func (a *App) handleShopPage(c tele.Context) error {
	page, err := tgcallbacks.PayloadInt(c)
	if err != nil {
		return err
	}
	items := a.store.Items()
	if len(items) == 0 {
		return tghelpers.EditOrSendMD(c, emptyShopMessage)
	}
	text, rows := renderShopPage(items, page, a.pageSize)
	return tghelpers.EditOrSendMD(c, text, keyboard.InlineButtonsRows(rows...))
}

func (a *App) handlePrice(c tele.Context) error {
	query := payload(c)
	if query == "" {
		return tghelpers.SendMD(c, "Usage: `/price <item name>`")
	}
	item, ok := a.store.Get(query)
	if !ok {
		return tghelpers.SendMD(c, fmt.Sprintf(
			"❌ *%s* is not in the shop. Try /search %s.",
			format.EscapeMarkdown(format.Title(query)),
			format.EscapeMarkdown(query),
		))
	}
	return tghelpers.SendMD(c, renderItemLine(item))
}

func (a *App) handleAddItem(c tele.Context) error {
	args := strings.Fields(payload(c))
	if len(args) < 3 {
		return tghelpers.SendMD(c, "Usage: `/additem <name> <buy price> <sell price>`")
	}

	buy, errBuy := strconv.ParseFloat(args[len(args)-2], 64)
	sell, errSell := strconv.ParseFloat(args[len(args)-1], 64)
	if errBuy != nil || errSell != nil {
		return tghelpers.SendMD(c, "⚠️ Prices must be numbers: `/additem <name> <buy> <sell>`")
	}
	name := strings.Join(args[:len(args)-2], " ")

	err := a.store.Add(tghelpers.BuildContext(c), name, buy, sell)
	switch {
	case errors.Is(err, shop.ErrAlreadyExists):
		return tghelpers.SendMD(c, fmt.Sprintf("⚠️ *%s* is already in the shop. Remove it first to change its prices.",
			format.EscapeMarkdown(format.Title(name))))
	case errors.Is(err, shop.ErrInvalidPrice):
		return tghelpers.SendMD(c, "⚠️ Prices must be zero or positive.")
	case err != nil:
		return err
	}

	return tghelpers.SendMD(c, fmt.Sprintf("✅ Added *%s* — Buy: %s | Sell: %s",
		format.EscapeMarkdown(format.Title(name)),
		format.Money(buy),
		format.Money(sell),
	))
}

func (a *App) handleRemoveItem(c tele.Context) error {
	name := payload(c)
	if name == "" {
		return tghelpers.SendMD(c, "Usage: `/removeitem <name>`")
	}

	err := a.store.Remove(tghelpers.BuildContext(c), name)
	if errors.Is(err, shop.ErrNotFound) {
		return tghelpers.SendMD(c, fmt.Sprintf("❌ *%s* is not in the shop.",
			format.EscapeMarkdown(format.Title(name))))
	}
	if err != nil {
		return err
	}
	return tghelpers.SendMD(c, fmt.Sprintf("🗑 Removed *%s* from the shop.",
		format.EscapeMarkdown(format.Title(name))))
}

// maxPickData bounds search pick payloads; Telegram rejects callback data
// over 64 bytes and the key travels raw in the payload.
const maxPickData = 48

func (a *App) handleSearch(c tele.Context) error {
	query := payload(c)
	matches, err := a.store.Search(query)
	if errors.Is(err, shop.ErrEmptyQuery) {
		return tghelpers.SendMD(c, "Usage: `/search <text>`")
	}
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return tghelpers.SendMD(c, fmt.Sprintf("🔍 No items matching *%s*.",
			format.EscapeMarkdown(query)))
	}

	shown := matches
	capped := false
	if len(shown) > a.pageSize {
		shown = shown[:a.pageSize]
		capped = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 *Results for \"%s\"* (%d)\n\n", format.EscapeMarkdown(query), len(matches))
	for _, it := range shown {
		b.WriteString(renderItemLine(it))
		b.WriteByte('\n')
	}
	if capped {
		fmt.Fprintf(&b, "\nShowing first %d of %d matches; refine the search to narrow down.", len(shown), len(matches))
	}
	b.WriteString("\nPick items below to include in your total, then run /total.")

	picks := make([]keyboard.InlineBtn, 0, len(shown))
	for _, it := range shown {
		if len(it.Key) > maxPickData {
			continue
		}
		label := format.Title(it.Key)
		if a.selection.Contains(c.Sender().ID, it.Key) {
			label = "✅ " + label
		}
		picks = append(picks, keyboard.InlineBtn{Text: label, Unique: cbSearchPick, Data: it.Key})
	}
	return tghelpers.SendMD(c, b.String(), keyboard.InlineButtonsRows(keyboard.ChunkButtons(picks, 2)...))
}

func (a *App) handleTotal(c tele.Context) error {
	items := a.store.Items()
	if len(items) == 0 {
		return tghelpers.SendMD(c, emptyShopMessage)
	}
	text, rows := a.renderSelection(c.Sender().ID, items, 0)
	return tghelpers.SendMD(c, text, keyboard.InlineButtonsRows(rows...))
}

// renderSelection builds the /total browser page for a user's current
// selection state.
func (a *App) renderSelection(userID int64, items []shop.Item, page int) (string, [][]keyboard.InlineBtn) {
	selected := make(map[string]bool)
	for _, key := range a.selection.Get(userID) {
		selected[key] = true
	}
	return renderTotalPage(items, selected, a.selection.Count(userID), page, a.pageSize)
}

func (a *App) handleTotalPage(c tele.Context) error {
	page, err := tgcallbacks.PayloadInt(c)
	if err != nil {
		return err
	}
	items := a.store.Items()
	if len(items) == 0 {
		return tghelpers.EditOrSendMD(c, emptyShopMessage)
	}
	text, rows := a.renderSelection(c.Sender().ID, items, page)
	return tghelpers.EditOrSendMD(c, text, keyboard.InlineButtonsRows(rows...))
}

func (a *App) handleTotalPick(c tele.Context) error {
	userID := c.Sender().ID
	items := a.store.Items()
	if len(items) == 0 {
		return tghelpers.EditOrSendMD(c, emptyShopMessage)
	}

	item, page, ok := resolvePick(items, a.pageSize, tgcallbacks.CallbackPayload(c))
	if !ok {
		// catalogue changed under the button; refresh instead of staging
		// whatever now sits at that index
		_ = respond(c, "The shop changed — refreshing")
		text, rows := a.renderSelection(userID, items, page)
		return tghelpers.EditOrSendMD(c, text, keyboard.InlineButtonsRows(rows...))
	}

	if added := a.selection.AddMany(userID, []string{item.Key}); len(added) == 0 {
		_ = respond(c, "Already selected")
	}

	text, rows := a.renderSelection(userID, items, page)
	return tghelpers.EditOrSendMD(c, text, keyboard.InlineButtonsRows(rows...))
}

func (a *App) handleSearchPick(c tele.Context) error {
	key := tgcallbacks.CallbackPayload(c)
	if _, ok := a.store.Get(key); !ok {
		return respond(c, "That item is no longer in the shop")
	}
	userID := c.Sender().ID
	if added := a.selection.AddMany(userID, []string{key}); len(added) == 0 {
		return respond(c, "Already selected")
	}
	return respond(c, fmt.Sprintf("Added — %d item(s) selected. Run /total when ready.", a.selection.Count(userID)))
}

func (a *App) handleTotalCalc(c tele.Context) error {
	keys := a.selection.Get(c.Sender().ID)
	if len(keys) == 0 {
		return respond(c, "Pick at least one item first")
	}
	return a.flow.Begin(c, keys)
}

func (a *App) handleTotalClear(c tele.Context) error {
	userID := c.Sender().ID
	a.selection.Clear(userID)
	items := a.store.Items()
	if len(items) == 0 {
		return tghelpers.EditOrSendMD(c, emptyShopMessage)
	}
	text, rows := a.renderSelection(userID, items, 0)
	return tghelpers.EditOrSendMD(c, text, keyboard.InlineButtonsRows(rows...))
}

func (a *App) handleTotalClose(c tele.Context) error {
	if err := c.Delete(); err != nil {
		return tghelpers.EditOrSendMD(c, "Closed. Run /total to start again.")
	}
	return nil
}
