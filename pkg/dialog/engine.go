// Package dialog implements the per-session order-taking state machine:
// GREETING -> MENU_SELECTION -> QUANTITY_SELECTION -> ORDER_CONFIRMATION,
// looping back on "add more" and ending by clearing the session.
package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kioskvoice/ordergate/pkg/menu"
)

type ReplyKind int

const (
	// ReplyNormal is an ordinary bot reply; the conversation continues.
	ReplyNormal ReplyKind = iota
	// ReplyCompleted signals the order was finalized and the session cleared.
	ReplyCompleted
)

type Reply struct {
	Kind    ReplyKind
	Message string
}

// Searcher resolves an utterance against the menu catalog.
type Searcher interface {
	Search(ctx context.Context, text string) (menu.SearchResult, error)
}

// EventSink receives dialog observer events. Implementations must be safe
// for concurrent use; the engine calls them while holding the session lock.
type EventSink interface {
	DialogStateChanged(sessionID string, snapshot Snapshot)
	OrderSubmitted(sessionID string, order Order)
}

type session struct {
	mu        sync.Mutex
	state     state
	cart      []CartItem
	lastReply string
}

type Engine struct {
	mu       sync.Mutex
	sessions map[string]*session

	search  Searcher
	intents IntentClassifier
	sink    EventSink
	logger  *slog.Logger
	now     func() time.Time
}

type EngineOption func(*Engine)

func WithIntents(intents IntentClassifier) EngineOption {
	return func(e *Engine) { e.intents = intents }
}

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

func NewEngine(search Searcher, sink EventSink, opts ...EngineOption) *Engine {
	e := &Engine{
		sessions: make(map[string]*session),
		search:   search,
		intents:  DefaultIntents(),
		sink:     sink,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) getOrCreate(sessionID string) *session {
	e.mu.Lock()
	defer e.mu.Unlock()
	sess := e.sessions[sessionID]
	if sess == nil {
		sess = &session{state: greeting{}}
		e.sessions[sessionID] = sess
	}
	return sess
}

func (e *Engine) remove(sessionID string) {
	e.mu.Lock()
	delete(e.sessions, sessionID)
	e.mu.Unlock()
}

// Handle processes one user utterance for the session. Mutations for one
// session are serialized: the inbound text path and the recognition
// callback path both land here and take the same per-session lock.
func (e *Engine) Handle(ctx context.Context, sessionID, text string) Reply {
	sess := e.getOrCreate(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	reply := e.dispatch(ctx, sessionID, sess, text)
	if reply.Kind == ReplyCompleted {
		return reply
	}

	sess.lastReply = reply.Message
	e.emitState(sessionID, sess)
	return reply
}

// Confirm finalizes the order, exactly like an order-complete utterance.
func (e *Engine) Confirm(sessionID string) Reply {
	sess := e.getOrCreate(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	reply := e.complete(sessionID, sess)
	if reply.Kind != ReplyCompleted {
		sess.lastReply = reply.Message
		e.emitState(sessionID, sess)
	}
	return reply
}

// Cancel discards the session's dialog state.
func (e *Engine) Cancel(sessionID string) Reply {
	e.remove(sessionID)
	e.logger.Info("order canceled", "session_id", sessionID)
	return Reply{Kind: ReplyNormal, Message: msgOrderCanceled}
}

// Repeat replays the last bot reply without mutating state.
func (e *Engine) Repeat(sessionID string) Reply {
	e.mu.Lock()
	sess := e.sessions[sessionID]
	e.mu.Unlock()

	if sess != nil {
		sess.mu.Lock()
		last := sess.lastReply
		sess.mu.Unlock()
		if last != "" {
			return Reply{Kind: ReplyNormal, Message: last}
		}
	}
	return Reply{Kind: ReplyNormal, Message: msgNoLastQuestion}
}

// Clear silently drops the session's dialog state (disconnect path).
func (e *Engine) Clear(sessionID string) {
	e.remove(sessionID)
}

func (e *Engine) dispatch(ctx context.Context, sessionID string, sess *session, text string) Reply {
	// Cross-cutting intents beat the per-state switch.
	if e.intents.IsOrderComplete(text) {
		return e.complete(sessionID, sess)
	}
	if e.intents.IsAddMore(text) {
		sess.state = menuSelection{}
		return Reply{Kind: ReplyNormal, Message: msgAddMore}
	}

	switch st := sess.state.(type) {
	case greeting:
		if e.intents.IsGreeting(text) {
			sess.state = menuSelection{}
			return Reply{Kind: ReplyNormal, Message: msgGreetingAck}
		}
		// Greeting is advisory: anything else is already a menu request.
		sess.state = menuSelection{}
		return e.handleMenuSelection(ctx, sess, text)
	case menuSelection:
		return e.handleMenuSelection(ctx, sess, text)
	case quantitySelection:
		return e.handleQuantitySelection(sess, st, text)
	case orderConfirmation:
		return Reply{Kind: ReplyNormal, Message: msgConfirmationReprompt}
	default:
		// Unreachable with the closed state set above.
		sess.state = menuSelection{}
		return Reply{Kind: ReplyNormal, Message: msgGreetingAck}
	}
}

func (e *Engine) handleMenuSelection(ctx context.Context, sess *session, text string) Reply {
	result, err := e.search.Search(ctx, text)
	if err != nil {
		e.logger.Warn("menu search failed", "error", err)
		return Reply{Kind: ReplyNormal, Message: msgSearchFailed}
	}

	switch result.Kind {
	case menu.KindDirectMatch:
		item := CartItem{
			Menu:      *result.Item,
			Quantity:  1,
			UnitPrice: result.Item.Price,
		}
		if qty := ExtractQuantity(text); qty > 0 {
			item.Quantity = qty
			sess.cart = append(sess.cart, item)
			sess.state = orderConfirmation{}
			return Reply{Kind: ReplyNormal, Message: addedToCartMessage(item, cartTotal(sess.cart))}
		}
		sess.state = quantitySelection{pending: item}
		return Reply{Kind: ReplyNormal, Message: fmt.Sprintf(msgAskQuantity, result.Item.DisplayName)}
	case menu.KindAmbiguousMatch:
		return Reply{Kind: ReplyNormal, Message: candidatesMessage(result.Candidates)}
	case menu.KindSuggestion:
		if msg := strings.TrimSpace(result.Message); msg != "" {
			return Reply{Kind: ReplyNormal, Message: msg}
		}
		if len(result.Candidates) > 0 {
			return Reply{Kind: ReplyNormal, Message: candidatesMessage(result.Candidates)}
		}
		return Reply{Kind: ReplyNormal, Message: msgNoMatch}
	default:
		return Reply{Kind: ReplyNormal, Message: msgNoMatch}
	}
}

func (e *Engine) handleQuantitySelection(sess *session, st quantitySelection, text string) Reply {
	qty := ExtractQuantity(text)
	if qty <= 0 {
		return Reply{Kind: ReplyNormal, Message: msgQuantityReprompt}
	}

	item := st.pending
	item.Quantity = qty
	sess.cart = append(sess.cart, item)
	sess.state = orderConfirmation{}
	return Reply{Kind: ReplyNormal, Message: addedToCartMessage(item, cartTotal(sess.cart))}
}

func (e *Engine) complete(sessionID string, sess *session) Reply {
	if len(sess.cart) == 0 {
		return Reply{Kind: ReplyNormal, Message: msgEmptyCart}
	}

	order := buildOrder(sessionID, sess.cart, e.now())
	e.remove(sessionID)
	e.logger.Info("order submitted",
		"session_id", sessionID,
		"items", len(order.Items),
		"total_price", order.TotalPrice,
	)
	if e.sink != nil {
		e.sink.OrderSubmitted(sessionID, order)
	}
	return Reply{Kind: ReplyCompleted, Message: fmt.Sprintf(msgOrderCompleted, order.TotalPrice)}
}

func (e *Engine) emitState(sessionID string, sess *session) {
	if e.sink == nil {
		return
	}
	snapshot := Snapshot{
		State:         sess.state.name(),
		Cart:          snapshotCart(sess.cart),
		NextAction:    sess.state.nextAction(),
		CartItemCount: len(sess.cart),
		TotalPrice:    cartTotal(sess.cart),
	}
	if st, ok := sess.state.(quantitySelection); ok {
		snapshot.CurrentMenu = st.pending.Menu.DisplayName
	}
	e.sink.DialogStateChanged(sessionID, snapshot)
}

func addedToCartMessage(item CartItem, total int) string {
	return fmt.Sprintf(msgAddedToCart, item.Menu.DisplayName, item.Quantity, total)
}

func candidatesMessage(candidates []menu.Item) string {
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.DisplayName)
	}
	return fmt.Sprintf(msgCandidates, strings.Join(names, ", "))
}

const (
	msgGreetingAck          = "네, 주문을 도와드릴게요. 주문하실 메뉴를 말씀해주세요."
	msgAskQuantity          = "%s 몇 개 드릴까요?"
	msgAddedToCart          = "%s %d개를 담았어요. 현재 주문 금액은 %d원입니다. 더 주문하시겠어요, 아니면 주문을 완료할까요?"
	msgCandidates           = "혹시 %s 중에서 찾으시는 건가요?"
	msgNoMatch              = "죄송합니다. 찾으시는 메뉴를 찾을 수 없습니다. 다른 메뉴를 말씀해 주세요."
	msgSearchFailed         = "죄송합니다. 처리 중 오류가 발생했습니다. 다시 말씀해 주세요."
	msgQuantityReprompt     = "수량을 잘 못 알아들었어요. 몇 개 드릴까요?"
	msgConfirmationReprompt = "주문을 완료하시려면 '주문 완료', 더 주문하시려면 '더 주문'이라고 말씀해주세요."
	msgAddMore              = "네, 더 주문하실 메뉴를 말씀해주세요."
	msgEmptyCart            = "장바구니가 비어 있습니다. 주문하실 메뉴를 말씀해주세요."
	msgOrderCompleted       = "주문이 완료되었습니다. 총 %d원입니다. 대화를 종료합니다."
	msgOrderCanceled        = "주문이 취소되었습니다."
	msgNoLastQuestion       = "이전 질문이 없습니다. 주문하실 메뉴를 말씀해 주세요."
)
