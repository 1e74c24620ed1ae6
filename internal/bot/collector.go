package bot

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/telegram/format"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
	"github.com/m3rciful/shopbot/core/telegram/keyboard"
	"github.com/m3rciful/shopbot/core/telegram/state"
	"github.com/m3rciful/shopbot/internal/shop"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// stateAwaitQuantity routes typed replies to the quantity collector while a
// total-calculation run is in flight.
const stateAwaitQuantity state.State = "total_quantity"

// quantityRun walks an ordered list of selected keys and assigns exactly one
// quantity to each. Quantities default to zero until recorded; skipping or
// finishing early records explicit zeros, so no key is ever dropped or
// counted twice. Typed replies and button presses for the same run arrive on
// separate handler goroutines, so every method takes the run lock.
type quantityRun struct {
	mu   sync.Mutex
	keys []string
	qty  []float64
	pos  int
}

func newQuantityRun(keys []string) *quantityRun {
	return &quantityRun{
		keys: keys,
		qty:  make([]float64, len(keys)),
	}
}

// Current returns the key awaiting a quantity, or false when the run is done.
func (r *quantityRun) Current() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pos >= len(r.keys) {
		return "", false
	}
	return r.keys[r.pos], true
}

// Record stores the quantity for the current key and advances.
func (r *quantityRun) Record(q float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pos < len(r.keys) {
		r.qty[r.pos] = q
		r.pos++
	}
}

// Back steps to the previous key so its quantity can be re-entered.
// Re-entering overwrites the stored value, so nothing is double-counted.
func (r *quantityRun) Back() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pos == 0 {
		return false
	}
	r.pos--
	return true
}

// FinishEarly zero-fills every remaining key and completes the run.
func (r *quantityRun) FinishEarly() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.pos < len(r.keys) {
		r.qty[r.pos] = 0
		r.pos++
	}
}

// Complete reports whether every key has received a quantity.
func (r *quantityRun) Complete() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos >= len(r.keys)
}

// Step reports the 1-based position and total step count for display.
func (r *quantityRun) Step() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos + 1, len(r.keys)
}

// Size reports the number of keys in the run.
func (r *quantityRun) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}

// Pairs snapshots the collected (key, quantity) pairs in selection order.
func (r *quantityRun) Pairs() []shop.Pair {
	r.mu.Lock()
	defer r.mu.Unlock()
	pairs := make([]shop.Pair, len(r.keys))
	for i, k := range r.keys {
		pairs[i] = shop.Pair{Key: k, Quantity: r.qty[i]}
	}
	return pairs
}

// Subtotal computes the running buy/sell value of the steps recorded so far
// using current catalogue prices. Recomputing from scratch on every render
// keeps back-navigation from leaving a stale partial sum behind.
func (r *quantityRun) Subtotal(lookup shop.Lookup) (float64, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var buy, sell float64
	for i := 0; i < r.pos && i < len(r.keys); i++ {
		item, ok := lookup(r.keys[i])
		if !ok {
			continue
		}
		buy += item.Buy * r.qty[i]
		sell += item.Sell * r.qty[i]
	}
	return buy, sell
}

// parseQuantity validates a typed quantity reply. Policy: only positive
// numbers are accepted; zero comes exclusively from Skip/Finish, and
// anything unparsable or negative is rejected so the step re-prompts.
func parseQuantity(text string) (float64, error) {
	q, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if q <= 0 {
		return 0, fmt.Errorf("must be greater than zero")
	}
	return q, nil
}

// activeRun couples a quantityRun with its reply timer and the chat used for
// the timeout notice.
type activeRun struct {
	run    *quantityRun
	timer  *time.Timer
	chatID int64
	userID int64
}

// totalFlow drives quantity collection for all users. Runs are partitioned
// by user ID; the flow mutex guards the map and run hand-off, the run's own
// lock guards its progress.
type totalFlow struct {
	store     *shop.Store
	selection *shop.SelectionStore
	fsm       state.Manager
	timeout   time.Duration

	mu   sync.Mutex
	runs map[int64]*activeRun
	bot  *tele.Bot
}

func newTotalFlow(store *shop.Store, selection *shop.SelectionStore, fsm state.Manager, timeout time.Duration) *totalFlow {
	return &totalFlow{
		store:     store,
		selection: selection,
		fsm:       fsm,
		timeout:   timeout,
		runs:      make(map[int64]*activeRun),
	}
}

// SetBot wires the bot used for timeout notices once the runtime exists.
func (f *totalFlow) SetBot(b *tele.Bot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bot = b
}

// Begin starts a run over the user's current selection. A run already in
// flight is replaced: the old timer is stopped and its progress dropped.
func (f *totalFlow) Begin(c tele.Context, keys []string) error {
	userID := c.Sender().ID
	chatID := c.Chat().ID

	f.mu.Lock()
	if old, ok := f.runs[userID]; ok {
		old.timer.Stop()
	}
	ar := &activeRun{
		run:    newQuantityRun(keys),
		chatID: chatID,
		userID: userID,
	}
	ar.timer = time.AfterFunc(f.timeout, func() { f.expire(ar) })
	f.runs[userID] = ar
	f.mu.Unlock()

	f.fsm.SetState(userID, stateAwaitQuantity)
	return f.prompt(c, ar)
}

// active returns the caller's run, if any.
func (f *totalFlow) active(userID int64) (*activeRun, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ar, ok := f.runs[userID]
	return ar, ok
}

// stillActive reports whether ar is the run currently installed for its
// user. Handlers re-check this before mutating or prompting, so a reply
// racing the expiry timer cannot resurrect a dropped run.
func (f *totalFlow) stillActive(ar *activeRun) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.runs[ar.userID]
	return ok && cur == ar
}

// drop removes a run and stops its timer. It reports whether ar was still
// installed; a false return means expiry (or a replacement) won the race.
func (f *totalFlow) drop(ar *activeRun) bool {
	f.mu.Lock()
	cur, ok := f.runs[ar.userID]
	removed := ok && cur == ar
	if removed {
		delete(f.runs, ar.userID)
	}
	f.mu.Unlock()
	ar.timer.Stop()
	if removed {
		f.fsm.ClearState(ar.userID)
	}
	return removed
}

// expire abandons a run whose reply timer fired. The in-progress step is not
// recorded and the selection is kept, so the user can restart with /total.
func (f *totalFlow) expire(ar *activeRun) {
	f.mu.Lock()
	cur, ok := f.runs[ar.userID]
	if !ok || cur != ar {
		f.mu.Unlock()
		return
	}
	delete(f.runs, ar.userID)
	bot := f.bot
	f.mu.Unlock()

	f.fsm.ClearState(ar.userID)
	logger.TG.Info("quantity run abandoned",
		slog.String("event", "total.timeout"),
		slog.Int64("user_id", ar.userID),
	)
	if bot != nil {
		_, _ = bot.Send(tele.ChatID(ar.chatID),
			"⏱ Total calculation timed out. Your selection is kept — run /total to try again.")
	}
}

// prompt shows the current step: item, prices, running subtotal, and the
// step controls. Items removed from the catalogue since selection are
// auto-skipped here and surface in the final not-found list.
func (f *totalFlow) prompt(c tele.Context, ar *activeRun) error {
	var item shop.Item
	for {
		cur, ok := ar.run.Current()
		if !ok {
			return f.complete(c, ar)
		}
		it, exists := f.store.Get(cur)
		if exists {
			item = it
			break
		}
		ar.run.Record(0)
	}

	step, total := ar.run.Step()
	buy, sell := ar.run.Subtotal(f.store.Get)

	var b strings.Builder
	fmt.Fprintf(&b, "🧮 *Quantity %d/%d*\n\n", step, total)
	fmt.Fprintf(&b, "How many × *%s*? (Buy: %s | Sell: %s)\n\n",
		format.EscapeMarkdown(format.Title(item.Key)),
		format.Money(item.Buy),
		format.Money(item.Sell),
	)
	fmt.Fprintf(&b, "Running subtotal — Buy: %s | Sell: %s\n", format.Money(buy), format.Money(sell))
	b.WriteString("Reply with a number, e.g. `3`.")

	markup := keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "↩️ Back", Unique: cbQtyBack, Data: "back"},
			{Text: "⏭ Skip", Unique: cbQtySkip, Data: "skip"},
		},
		[]keyboard.InlineBtn{
			{Text: "✅ Finish", Unique: cbQtyFinish, Data: "finish"},
			{Text: "❌ Cancel", Unique: cbQtyCancel, Data: "cancel"},
		},
	)

	if !f.stillActive(ar) {
		return nil
	}
	ar.timer.Reset(f.timeout)
	return tghelpers.SendMD(c, b.String(), markup)
}

// HandleReply consumes a typed quantity for the user's active run.
func (f *totalFlow) HandleReply(c tele.Context) error {
	userID := c.Sender().ID
	ar, ok := f.active(userID)
	if !ok {
		// state said in-progress but the run is gone (e.g. expired between
		// routing and handling); reset so the user is not stuck
		f.fsm.ClearState(userID)
		return nil
	}

	q, err := parseQuantity(c.Text())
	if err != nil {
		if !f.stillActive(ar) {
			return nil
		}
		ar.timer.Reset(f.timeout)
		return tghelpers.SendMD(c, fmt.Sprintf("⚠️ %s — send a positive number, or use Skip.", err))
	}

	if !f.stillActive(ar) {
		f.fsm.ClearState(userID)
		return nil
	}
	ar.run.Record(q)
	return f.prompt(c, ar)
}

// Skip records an explicit zero for the current step.
func (f *totalFlow) Skip(c tele.Context) error {
	ar, ok := f.active(c.Sender().ID)
	if !ok || !f.stillActive(ar) {
		return respond(c, "No total calculation in progress")
	}
	ar.run.Record(0)
	return f.prompt(c, ar)
}

// Back re-opens the previous step.
func (f *totalFlow) Back(c tele.Context) error {
	ar, ok := f.active(c.Sender().ID)
	if !ok || !f.stillActive(ar) {
		return respond(c, "No total calculation in progress")
	}
	if !ar.run.Back() {
		return respond(c, "Already at the first item")
	}
	return f.prompt(c, ar)
}

// Finish zero-fills the remaining steps and completes the run.
func (f *totalFlow) Finish(c tele.Context) error {
	ar, ok := f.active(c.Sender().ID)
	if !ok || !f.stillActive(ar) {
		return respond(c, "No total calculation in progress")
	}
	ar.run.FinishEarly()
	return f.complete(c, ar)
}

// Cancel abandons the run, keeping the selection.
func (f *totalFlow) Cancel(c tele.Context) error {
	ar, ok := f.active(c.Sender().ID)
	if !ok {
		return respond(c, "No total calculation in progress")
	}
	if !f.drop(ar) {
		return respond(c, "No total calculation in progress")
	}
	return tghelpers.SendMD(c, "❌ Total calculation cancelled. Your selection is kept.")
}

// complete renders the summary and clears the selection — the one place the
// selection lifecycle ends. If expiry already dropped the run, the summary
// is withheld and the selection stays.
func (f *totalFlow) complete(c tele.Context, ar *activeRun) error {
	if !f.drop(ar) {
		return nil
	}

	sum := shop.Summarize(ar.run.Pairs(), f.store.Get)
	f.selection.Clear(ar.userID)

	var b strings.Builder
	b.WriteString("📦 *Total Calculation*\n\n")
	if breakdown := sum.Breakdown(); breakdown != "" {
		b.WriteString(breakdown)
		b.WriteString("\n\n")
	}
	if len(sum.NotFound) > 0 {
		fmt.Fprintf(&b, "⚠️ No longer in the shop: %s\n\n",
			format.EscapeMarkdown(strings.Join(sum.NotFound, ", ")))
	}
	fmt.Fprintf(&b, "💰 Total Buy: %s\n💵 Total Sell: %s",
		format.Money(sum.TotalBuy), format.Money(sum.TotalSell))

	logger.TG.Info("total computed",
		slog.String("event", "total.complete"),
		slog.Int64("user_id", ar.userID),
		slog.Int("items", ar.run.Size()),
		slog.Int("not_found", len(sum.NotFound)),
	)
	return tghelpers.SendMD(c, b.String())
}

func respond(c tele.Context, text string) error {
	return c.Respond(&tele.CallbackResponse{Text: text})
}
