package chat

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lorenzogtrrz/orderchat/internal/domain/catalog"
	"github.com/lorenzogtrrz/orderchat/internal/domain/order"
)

// State is a position in the ordering dialogue.
type State string

const (
	StateWelcome          State = "welcome"
	StateBrowsingCategory State = "browsing_category"
	StateBrowsingProduct  State = "browsing_product"
	StateAwaitingQuantity State = "awaiting_quantity"
	StateCartReview       State = "cart_review"
	StateAwaitingName     State = "awaiting_name"
	StateAwaitingAddress  State = "awaiting_address"
	StateConfirming       State = "confirming"
)

// CartLine is a quantity of one product in the session's cart. Name and
// UnitPrice are copied from the catalog when the line is first added; catalog
// edits after that point do not touch existing lines.
type CartLine struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Session is one participant's conversational ordering context. All fields
// are guarded by mu; the engine holds the lock for the whole of an event
// step, so events on the same session never interleave.
type Session struct {
	mu sync.Mutex

	ID              string
	State           State
	Cart            []CartLine
	PendingProduct  *catalog.Product
	PendingCategory *catalog.Category
	Customer        order.Customer

	// lastSeen drives idle eviction in the registry. Written under the
	// registry lock, not the session lock.
	lastSeen time.Time
}

func newSession(id string) *Session {
	return &Session{ID: id, State: StateWelcome}
}

// addToCart merges quantity qty of product p into the cart. An existing line
// for the same product is incremented; otherwise a new line is appended, so
// cart order is first-added order.
func (s *Session) addToCart(p *catalog.Product, qty int) {
	for i := range s.Cart {
		if s.Cart[i].ProductID == p.ID {
			s.Cart[i].Quantity += qty
			return
		}
	}
	s.Cart = append(s.Cart, CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  qty,
	})
}

// cartTotal sums unit price times quantity over all lines. It never consults
// the catalog, so the total reflects prices at add-time.
func (s *Session) cartTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Cart {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total.Round(2)
}

// orderLines converts the cart to order lines for persistence.
func (s *Session) orderLines() []order.Line {
	lines := make([]order.Line, len(s.Cart))
	for i, l := range s.Cart {
		lines[i] = order.Line{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
		}
	}
	return lines
}

// Snapshot returns a copy of the session's observable state for tests and
// diagnostics, taken under the session lock.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := make([]CartLine, len(s.Cart))
	copy(cart, s.Cart)
	return SessionSnapshot{
		ID:       s.ID,
		State:    s.State,
		Cart:     cart,
		Customer: s.Customer,
	}
}

// SessionSnapshot is a point-in-time copy of a session's observable state.
type SessionSnapshot struct {
	ID       string
	State    State
	Cart     []CartLine
	Customer order.Customer
}
