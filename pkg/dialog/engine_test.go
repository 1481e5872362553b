package dialog

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kioskvoice/ordergate/pkg/menu"
)

type fakeSearcher struct {
	results map[string]menu.SearchResult
}

func (f *fakeSearcher) Search(_ context.Context, text string) (menu.SearchResult, error) {
	for key, result := range f.results {
		if strings.Contains(text, key) {
			return result, nil
		}
	}
	return menu.NoMatch(), nil
}

type recordingSink struct {
	mu        sync.Mutex
	snapshots []Snapshot
	orders    []Order
}

func (r *recordingSink) DialogStateChanged(_ string, snapshot Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, snapshot)
}

func (r *recordingSink) OrderSubmitted(_ string, order Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, order)
}

func (r *recordingSink) lastSnapshot(t *testing.T) Snapshot {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		t.Fatalf("no snapshots recorded")
	}
	return r.snapshots[len(r.snapshots)-1]
}

var americano = menu.Item{ID: 1, Name: "americano", DisplayName: "아메리카노", Category: "커피", Price: 4000}
var latte = menu.Item{ID: 2, Name: "cafe-latte", DisplayName: "카페라떼", Category: "커피", Price: 4500}

func newTestEngine(sink *recordingSink) *Engine {
	search := &fakeSearcher{results: map[string]menu.SearchResult{
		"아메리카노": menu.DirectMatch(americano),
		"카페라떼":  menu.DirectMatch(latte),
		"아아":    menu.AmbiguousMatch([]menu.Item{americano, latte}),
		"바닐라":   menu.Suggestion("혹시 카페라떼 중에서 찾으시는 건가요?", []menu.Item{latte}),
	}}
	return NewEngine(search, sink,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }),
	)
}

func TestHandle_DirectMatchWithEmbeddedQuantity(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	e := newTestEngine(sink)

	reply := e.Handle(context.Background(), "s1", "아메리카노 2개")
	if reply.Kind != ReplyNormal {
		t.Fatalf("reply kind=%v", reply.Kind)
	}

	snapshot := sink.lastSnapshot(t)
	if snapshot.State != "ORDER_CONFIRMATION" {
		t.Fatalf("state=%q, want ORDER_CONFIRMATION", snapshot.State)
	}
	if snapshot.CartItemCount != 1 {
		t.Fatalf("cart item count=%d, want 1", snapshot.CartItemCount)
	}
	if snapshot.Cart[0].Quantity != 2 {
		t.Fatalf("quantity=%d, want 2", snapshot.Cart[0].Quantity)
	}
	if snapshot.TotalPrice != 8000 {
		t.Fatalf("total=%d, want 8000", snapshot.TotalPrice)
	}
}

func TestHandle_QuantitySelectionRoundTrip(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	e := newTestEngine(sink)

	e.Handle(context.Background(), "s1", "아메리카노")
	snapshot := sink.lastSnapshot(t)
	if snapshot.State != "QUANTITY_SELECTION" {
		t.Fatalf("state=%q, want QUANTITY_SELECTION", snapshot.State)
	}
	if snapshot.CurrentMenu != "아메리카노" {
		t.Fatalf("currentMenu=%q", snapshot.CurrentMenu)
	}

	// Garbage quantity keeps the state and the pending item.
	e.Handle(context.Background(), "s1", "아무거나")
	if got := sink.lastSnapshot(t); got.State != "QUANTITY_SELECTION" {
		t.Fatalf("state after bad quantity=%q", got.State)
	}

	e.Handle(context.Background(), "s1", "하나")
	snapshot = sink.lastSnapshot(t)
	if snapshot.State != "ORDER_CONFIRMATION" {
		t.Fatalf("state=%q, want ORDER_CONFIRMATION", snapshot.State)
	}
	if snapshot.TotalPrice != 4000 {
		t.Fatalf("total=%d, want 4000", snapshot.TotalPrice)
	}
}

func TestHandle_GreetingIsAdvisory(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	e := newTestEngine(sink)

	// Greeting utterance transitions with the fixed prompt.
	reply := e.Handle(context.Background(), "s1", "안녕하세요")
	if !strings.Contains(reply.Message, "주문을 도와드릴게요") {
		t.Fatalf("greeting reply=%q", reply.Message)
	}
	if got := sink.lastSnapshot(t); got.State != "MENU_SELECTION" {
		t.Fatalf("state=%q, want MENU_SELECTION", got.State)
	}

	// A menu utterance in GREETING goes straight to menu handling.
	sink2 := &recordingSink{}
	e2 := newTestEngine(sink2)
	e2.Handle(context.Background(), "s2", "아메리카노 2개")
	if got := sink2.lastSnapshot(t); got.State != "ORDER_CONFIRMATION" {
		t.Fatalf("state=%q, want ORDER_CONFIRMATION", got.State)
	}
}

func TestHandle_AmbiguousAndNoMatchKeepState(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	e := newTestEngine(sink)

	reply := e.Handle(context.Background(), "s1", "아아")
	if !strings.Contains(reply.Message, "아메리카노") || !strings.Contains(reply.Message, "카페라떼") {
		t.Fatalf("ambiguous reply does not list candidates: %q", reply.Message)
	}
	if got := sink.lastSnapshot(t); got.State != "MENU_SELECTION" {
		t.Fatalf("state=%q, want MENU_SELECTION", got.State)
	}

	e.Handle(context.Background(), "s1", "짜장면")
	if got := sink.lastSnapshot(t); got.State != "MENU_SELECTION" {
		t.Fatalf("state after no-match=%q, want MENU_SELECTION", got.State)
	}
}

func TestHandle_AddMoreLoopsBackToMenuSelection(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	e := newTestEngine(sink)

	e.Handle(context.Background(), "s1", "아메리카노 2개")
	e.Handle(context.Background(), "s1", "더 주문할게요")
	if got := sink.lastSnapshot(t); got.State != "MENU_SELECTION" {
		t.Fatalf("state=%q, want MENU_SELECTION", got.State)
	}

	e.Handle(context.Background(), "s1", "카페라떼 1잔")
	snapshot := sink.lastSnapshot(t)
	if snapshot.CartItemCount != 2 {
		t.Fatalf("cart item count=%d, want 2", snapshot.CartItemCount)
	}
	if snapshot.TotalPrice != 8000+4500 {
		t.Fatalf("total=%d, want %d", snapshot.TotalPrice, 8000+4500)
	}
}

func TestHandle_OrderCompletionEmitsOnceAndClears(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	e := newTestEngine(sink)

	e.Handle(context.Background(), "s1", "아메리카노 2개")
	reply := e.Handle(context.Background(), "s1", "주문 완료")
	if reply.Kind != ReplyCompleted {
		t.Fatalf("kind=%v, want ReplyCompleted", reply.Kind)
	}

	sink.mu.Lock()
	orders := len(sink.orders)
	order := sink.orders[0]
	sink.mu.Unlock()
	if orders != 1 {
		t.Fatalf("orders=%d, want 1", orders)
	}
	if order.TotalPrice != 8000 {
		t.Fatalf("order total=%d, want 8000", order.TotalPrice)
	}
	if order.Timestamp == "" {
		t.Fatalf("order timestamp empty")
	}

	// Completing again finds a fresh empty session: no duplicate order.
	reply = e.Handle(context.Background(), "s1", "주문 완료")
	if reply.Kind != ReplyNormal || !strings.Contains(reply.Message, "장바구니가 비어") {
		t.Fatalf("second completion reply=%+v", reply)
	}
	sink.mu.Lock()
	orders = len(sink.orders)
	sink.mu.Unlock()
	if orders != 1 {
		t.Fatalf("orders after repeat=%d, want 1", orders)
	}
}

func TestConfirmCommandMatchesCompletion(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	e := newTestEngine(sink)

	e.Handle(context.Background(), "s1", "아메리카노 2개")
	reply := e.Confirm("s1")
	if reply.Kind != ReplyCompleted {
		t.Fatalf("kind=%v, want ReplyCompleted", reply.Kind)
	}

	if reply := e.Confirm("s1"); reply.Kind != ReplyNormal {
		t.Fatalf("confirm on cleared session kind=%v", reply.Kind)
	}
}

func TestCancelAndRepeat(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	e := newTestEngine(sink)

	if reply := e.Repeat("s1"); !strings.Contains(reply.Message, "이전 질문이 없습니다") {
		t.Fatalf("repeat without history=%q", reply.Message)
	}

	first := e.Handle(context.Background(), "s1", "아메리카노")
	if reply := e.Repeat("s1"); reply.Message != first.Message {
		t.Fatalf("repeat=%q, want %q", reply.Message, first.Message)
	}

	e.Cancel("s1")
	if reply := e.Repeat("s1"); !strings.Contains(reply.Message, "이전 질문이 없습니다") {
		t.Fatalf("repeat after cancel=%q", reply.Message)
	}
}

func TestHandle_ConcurrentSameSessionIsSerialized(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	e := newTestEngine(sink)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Handle(context.Background(), "s1", "아메리카노 1개")
		}()
	}
	wg.Wait()

	snapshot := sink.lastSnapshot(t)
	// Only the first utterance lands in MENU_SELECTION; the rest hit
	// ORDER_CONFIRMATION and reprompt. Exactly one item ends up in the cart.
	if snapshot.CartItemCount != 1 {
		t.Fatalf("cart item count=%d, want 1", snapshot.CartItemCount)
	}
	if snapshot.TotalPrice != 4000 {
		t.Fatalf("total=%d, want 4000", snapshot.TotalPrice)
	}
}
