package dialog

import (
	"strings"
	"time"

	"github.com/kioskvoice/ordergate/pkg/menu"
)

// CartItem is one line of an in-flight order. UnitPrice is snapshotted from
// the catalog when the line is created so later price changes cannot alter
// an order the customer already heard.
type CartItem struct {
	Menu        menu.Item
	Temperature string // ICE, HOT, or empty
	Size        string // REGULAR, LARGE, or empty
	Quantity    int
	UnitPrice   int
}

func (ci CartItem) Total() int {
	return ci.UnitPrice * ci.Quantity
}

func (ci CartItem) optionLabel() string {
	parts := make([]string, 0, 2)
	if ci.Temperature != "" {
		parts = append(parts, ci.Temperature)
	}
	if ci.Size != "" {
		parts = append(parts, ci.Size)
	}
	return strings.Join(parts, "/")
}

func cartTotal(cart []CartItem) int {
	total := 0
	for _, item := range cart {
		total += item.Total()
	}
	return total
}

// Order is the immutable summary built at completion time.
type Order struct {
	SessionID  string      `json:"sessionId"`
	Items      []OrderItem `json:"items"`
	TotalPrice int         `json:"totalPrice"`
	Timestamp  string      `json:"timestamp"`
}

type OrderItem struct {
	MenuName    string `json:"menuName"`
	DisplayName string `json:"displayName"`
	Temperature string `json:"temperature,omitempty"`
	Size        string `json:"size,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int    `json:"unitPrice"`
	TotalPrice  int    `json:"totalPrice"`
}

func buildOrder(sessionID string, cart []CartItem, at time.Time) Order {
	items := make([]OrderItem, 0, len(cart))
	for _, line := range cart {
		items = append(items, OrderItem{
			MenuName:    line.Menu.Name,
			DisplayName: line.Menu.DisplayName,
			Temperature: line.Temperature,
			Size:        line.Size,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			TotalPrice:  line.Total(),
		})
	}
	return Order{
		SessionID:  sessionID,
		Items:      items,
		TotalPrice: cartTotal(cart),
		Timestamp:  at.Format(time.RFC3339),
	}
}

// Snapshot is the derived dialog-state view sent to observers on every
// non-completing turn.
type Snapshot struct {
	State         string         `json:"state"`
	CurrentMenu   string         `json:"currentMenu,omitempty"`
	Cart          []SnapshotItem `json:"cart"`
	NextAction    string         `json:"nextAction"`
	CartItemCount int            `json:"cartItemCount"`
	TotalPrice    int            `json:"totalPrice"`
}

type SnapshotItem struct {
	Menu     string `json:"menu"`
	Options  string `json:"options,omitempty"`
	Quantity int    `json:"quantity"`
	Price    int    `json:"price"`
}

func snapshotCart(cart []CartItem) []SnapshotItem {
	out := make([]SnapshotItem, 0, len(cart))
	for _, line := range cart {
		out = append(out, SnapshotItem{
			Menu:     line.Menu.DisplayName,
			Options:  line.optionLabel(),
			Quantity: line.Quantity,
			Price:    line.Total(),
		})
	}
	return out
}
