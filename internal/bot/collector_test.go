package bot

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/shopbot/core/telegram/state"
	"github.com/m3rciful/shopbot/internal/shop"
)

func TestQuantityRunWalk(t *testing.T) {
	run := newQuantityRun([]string{"a", "b", "c"})

	key, ok := run.Current()
	if !ok || key != "a" {
		t.Fatalf("Current = %q, %v", key, ok)
	}
	if step, total := run.Step(); step != 1 || total != 3 {
		t.Fatalf("Step = %d/%d, want 1/3", step, total)
	}

	run.Record(2)
	run.Record(5)
	if key, _ := run.Current(); key != "c" {
		t.Fatalf("Current after two records = %q, want c", key)
	}

	run.Record(1)
	if !run.Complete() {
		t.Fatal("run should be complete")
	}
	if _, ok := run.Current(); ok {
		t.Fatal("Current on complete run should report done")
	}

	pairs := run.Pairs()
	want := []shop.Pair{{Key: "a", Quantity: 2}, {Key: "b", Quantity: 5}, {Key: "c", Quantity: 1}}
	for i := range want {
		if pairs[i] != want[i] {
			t.Fatalf("Pairs[%d] = %+v, want %+v", i, pairs[i], want[i])
		}
	}
}

func TestQuantityRunBackOverwrites(t *testing.T) {
	run := newQuantityRun([]string{"a", "b"})
	run.Record(7)

	if !run.Back() {
		t.Fatal("Back from step 2 should succeed")
	}
	if run.Back() {
		t.Fatal("Back from the first step should fail")
	}

	// re-entering replaces the old value, nothing is double-counted
	run.Record(3)
	run.Record(1)
	pairs := run.Pairs()
	if pairs[0].Quantity != 3 || pairs[1].Quantity != 1 {
		t.Fatalf("Pairs = %+v", pairs)
	}
}

func TestQuantityRunFinishEarlyZeroFills(t *testing.T) {
	run := newQuantityRun([]string{"a", "b", "c"})
	run.Record(4)
	run.FinishEarly()

	if !run.Complete() {
		t.Fatal("run should be complete after FinishEarly")
	}
	pairs := run.Pairs()
	if pairs[0].Quantity != 4 || pairs[1].Quantity != 0 || pairs[2].Quantity != 0 {
		t.Fatalf("Pairs = %+v, want remaining zero-filled", pairs)
	}
}

func TestQuantityRunSubtotal(t *testing.T) {
	lookup := func(key string) (shop.Item, bool) {
		items := map[string]shop.Item{
			"a": {Key: "a", Buy: 2, Sell: 1},
			"b": {Key: "b", Buy: 10, Sell: 4},
		}
		it, ok := items[key]
		return it, ok
	}

	run := newQuantityRun([]string{"a", "b", "gone"})
	run.Record(3)

	buy, sell := run.Subtotal(lookup)
	if buy != 6 || sell != 3 {
		t.Fatalf("subtotal after one step = %v/%v, want 6/3", buy, sell)
	}

	run.Record(1)
	run.Record(9) // missing key contributes nothing
	buy, sell = run.Subtotal(lookup)
	if buy != 16 || sell != 7 {
		t.Fatalf("final subtotal = %v/%v, want 16/7", buy, sell)
	}
}

func TestQuantityRunConcurrentRecord(t *testing.T) {
	// typed replies and button presses arrive on separate goroutines; every
	// recorded step must land on its own key with nothing lost
	run := newQuantityRun([]string{"a", "b", "c", "d"})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run.Record(1)
		}()
	}
	wg.Wait()

	if !run.Complete() {
		t.Fatal("run should be complete after four concurrent records")
	}
	for _, p := range run.Pairs() {
		if p.Quantity != 1 {
			t.Fatalf("Pairs = %+v, want every quantity recorded exactly once", run.Pairs())
		}
	}
}

func TestExpireAbandonsRun(t *testing.T) {
	store, err := shop.Open(filepath.Join(t.TempDir(), "shop.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	fsm := state.NewMemoryManager()
	sel := shop.NewSelectionStore()
	sel.AddMany(7, []string{"sword", "shield"})

	flow := newTotalFlow(store, sel, fsm, time.Minute)
	ar := &activeRun{run: newQuantityRun(sel.Get(7)), chatID: 1, userID: 7}
	ar.timer = time.AfterFunc(time.Hour, func() {})
	flow.runs[7] = ar
	fsm.SetState(7, stateAwaitQuantity)

	flow.expire(ar)

	if _, ok := flow.active(7); ok {
		t.Fatal("run still installed after expiry")
	}
	if flow.stillActive(ar) {
		t.Fatal("expired run reported as still active")
	}
	if fsm.InProgress(7) {
		t.Fatal("FSM state not cleared on expiry")
	}
	if got := sel.Get(7); len(got) != 2 {
		t.Fatalf("selection = %v, want it untouched by expiry", got)
	}

	// a second fire and a late drop are both no-ops
	flow.expire(ar)
	if flow.drop(ar) {
		t.Fatal("drop on an expired run should report it already gone")
	}
}

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"3", 3, true},
		{" 2.5 ", 2.5, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"many", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := parseQuantity(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("parseQuantity(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Errorf("parseQuantity(%q) accepted, want rejection", tc.in)
		}
	}
}
