package chat

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/lorenzogtrrz/orderchat/internal/domain/catalog"
	"github.com/lorenzogtrrz/orderchat/internal/domain/order"
)

// Canned quantity choices offered on the quantity prompt. Larger amounts are
// reached by selecting the same product again.
var quantityChoices = []int{1, 2, 3}

// Engine drives the ordering dialogue. One event at a time per session: both
// Handle methods lock the session for the whole step, so concurrent events
// for the same session ID are serialized while distinct sessions proceed in
// parallel.
//
// User mistakes (unknown product, empty cart on checkout) are answered with
// corrective messages and never returned as errors. A non-nil error always
// means a collaborator failed (catalog or order store); in that case the
// session is left exactly as it was before the step, so the participant can
// retry the same event.
type Engine struct {
	catalog  catalog.Repository
	orders   order.Repository
	registry *Registry
}

// NewEngine creates an Engine using the given collaborators and session
// registry.
func NewEngine(cat catalog.Repository, orders order.Repository, registry *Registry) *Engine {
	return &Engine{catalog: cat, orders: orders, registry: registry}
}

// Registry exposes the session registry for lifecycle management.
func (e *Engine) Registry() *Registry { return e.registry }

// Greet returns the opening messages for a session. Sent by the transport as
// soon as a connection is established.
func (e *Engine) Greet(sid string) []Message {
	s := e.registry.GetOrCreate(sid)
	s.mu.Lock()
	defer s.mu.Unlock()
	return welcomeMessages()
}

// HandleSelect processes one structured selection (a button click) for the
// given session and returns the ordered messages to render.
func (e *Engine) HandleSelect(ctx context.Context, sid, payload string) ([]Message, error) {
	s := e.registry.GetOrCreate(sid)
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case payload == "menu" || payload == "home":
		return e.openMenu(ctx, s)
	case strings.HasPrefix(payload, "cat:"):
		return e.selectCategory(ctx, s, strings.TrimPrefix(payload, "cat:"))
	case strings.HasPrefix(payload, "prod:"):
		return e.selectProduct(ctx, s, strings.TrimPrefix(payload, "prod:"))
	case strings.HasPrefix(payload, "qty:"):
		return e.selectQuantity(s, strings.TrimPrefix(payload, "qty:"))
	case payload == "cart":
		return e.viewCart(s), nil
	case payload == "clear_cart":
		return e.clearCart(s), nil
	case payload == "checkout":
		return e.checkout(s), nil
	case payload == "place_order" || payload == "confirm_order":
		return e.confirmOrder(ctx, s)
	default:
		return e.notUnderstood(s), nil
	}
}

// HandleText processes one free-text input, interpreted according to the
// session's current state (customer name, delivery address, or noise).
func (e *Engine) HandleText(_ context.Context, sid, text string) ([]Message, error) {
	s := e.registry.GetOrCreate(sid)
	s.mu.Lock()
	defer s.mu.Unlock()

	text = strings.TrimSpace(text)

	switch s.State {
	case StateAwaitingName:
		if text == "" {
			return []Message{Text("Por favor, digite o seu nome para continuar.")}, nil
		}
		s.Customer.Name = text
		s.State = StateAwaitingAddress
		return []Message{Text("Obrigado, " + text + "! Agora me diga o endereço de entrega.")}, nil

	case StateAwaitingAddress:
		if text == "" {
			return []Message{Text("Preciso do endereço de entrega para finalizar o pedido.")}, nil
		}
		s.Customer.Address = text
		s.State = StateConfirming
		return reviewMessages(s), nil

	default:
		return e.notUnderstood(s), nil
	}
}

// openMenu lists the categories. State only changes after the catalog read
// succeeds.
func (e *Engine) openMenu(ctx context.Context, s *Session) ([]Message, error) {
	cats, err := e.catalog.ListCategories(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}

	s.State = StateBrowsingCategory
	s.PendingProduct = nil
	s.PendingCategory = nil

	if len(cats) == 0 {
		return []Message{Text("Nosso cardápio está vazio no momento. Volte em breve!")}, nil
	}

	choices := make([]Choice, len(cats))
	for i, c := range cats {
		choices[i] = Choice{ID: "cat:" + c.ID, Title: c.Name}
	}
	return []Message{Options("Escolha uma categoria:", choices...)}, nil
}

// selectCategory lists the active products of one category.
func (e *Engine) selectCategory(ctx context.Context, s *Session, catID string) ([]Message, error) {
	cats, err := e.catalog.ListCategories(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}

	var found *catalog.Category
	for i := range cats {
		if cats[i].ID == catID {
			found = &cats[i]
			break
		}
	}
	if found == nil {
		return []Message{Text("Categoria não encontrada. Digite \"menu\" para ver o cardápio.")}, nil
	}

	products, err := e.catalog.ListActiveProducts(ctx, catID)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}

	s.State = StateBrowsingProduct
	s.PendingCategory = found
	s.PendingProduct = nil

	if len(products) == 0 {
		return []Message{
			Text("Nenhum produto disponível em " + found.Name + " no momento."),
			Options("O que deseja fazer?", menuChoices()...),
		}, nil
	}

	return []Message{
		Text("Produtos de " + found.Name + ". Toque em um para adicionar ao carrinho:"),
		ProductListing("", products),
	}, nil
}

// selectProduct stores the pending product and prompts for a quantity.
func (e *Engine) selectProduct(ctx context.Context, s *Session, prodID string) ([]Message, error) {
	p, err := e.catalog.GetProduct(ctx, prodID)
	if errors.Is(err, catalog.ErrNotFound) {
		return []Message{Text("Produto não encontrado. Digite \"menu\" para ver o cardápio.")}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get product")
	}
	if !p.Active {
		return []Message{Text("Este produto não está disponível no momento.")}, nil
	}

	s.State = StateAwaitingQuantity
	s.PendingProduct = p

	choices := make([]Choice, 0, len(quantityChoices)+1)
	for _, n := range quantityChoices {
		choices = append(choices, Choice{ID: "qty:" + strconv.Itoa(n), Title: strconv.Itoa(n)})
	}
	// Cancel returns to browsing without committing a cart line.
	if s.PendingCategory != nil {
		choices = append(choices, Choice{ID: "cat:" + s.PendingCategory.ID, Title: "Cancelar"})
	} else {
		choices = append(choices, Choice{ID: "menu", Title: "Cancelar"})
	}

	return []Message{Options(
		"Quantas unidades de "+p.Name+" ("+formatPrice(p.Price)+")?",
		choices...,
	)}, nil
}

// selectQuantity merges the pending product into the cart. Only honored in
// the quantity prompt itself; a stale qty event from any later state must not
// mutate the cart.
func (e *Engine) selectQuantity(s *Session, raw string) ([]Message, error) {
	if s.State != StateAwaitingQuantity || s.PendingProduct == nil {
		return e.notUnderstood(s), nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return []Message{Text("Quantidade inválida. Escolha uma das opções.")}, nil
	}

	p := s.PendingProduct
	s.addToCart(p, n)
	s.PendingProduct = nil
	s.PendingCategory = nil
	s.State = StateCartReview

	msgs := []Message{Text(strconv.Itoa(n) + "x " + p.Name + " adicionado ao carrinho!")}
	return append(msgs, cartMessages(s)...), nil
}

// viewCart emits the cart summary from any state. Pending selections are
// abandoned: they only have meaning while browsing.
func (e *Engine) viewCart(s *Session) []Message {
	s.State = StateCartReview
	s.PendingProduct = nil
	s.PendingCategory = nil
	return cartMessages(s)
}

// clearCart empties the cart and returns to the welcome state. Customer data
// already collected is kept.
func (e *Engine) clearCart(s *Session) []Message {
	s.Cart = nil
	s.PendingProduct = nil
	s.PendingCategory = nil
	s.State = StateWelcome
	return append([]Message{Text("Carrinho esvaziado.")}, welcomeMessages()...)
}

// checkout starts collecting customer details, guarded on a non-empty cart.
func (e *Engine) checkout(s *Session) []Message {
	if len(s.Cart) == 0 {
		return emptyCartMessages()
	}
	s.State = StateAwaitingName
	s.PendingProduct = nil
	s.PendingCategory = nil
	return []Message{Text("Para finalizar, qual é o seu nome?")}
}

// confirmOrder commits the cart as an order. The store write and the session
// mutation form one logical step: nothing on the session changes until the
// write succeeds, so a failed write leaves the participant in the confirming
// state free to retry.
func (e *Engine) confirmOrder(ctx context.Context, s *Session) ([]Message, error) {
	if len(s.Cart) == 0 {
		return emptyCartMessages(), nil
	}
	if s.State != StateConfirming {
		return e.notUnderstood(s), nil
	}

	o := &order.Order{
		ID:        uuid.New().String(),
		Lines:     s.orderLines(),
		Total:     s.cartTotal(),
		Customer:  s.Customer,
		Status:    order.StatusReceived,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	s.Cart = nil
	s.Customer = order.Customer{}
	s.PendingProduct = nil
	s.PendingCategory = nil
	s.State = StateWelcome

	return []Message{
		Text("Pedido confirmado! 🎉 Total: " + formatPrice(o.Total) + ". Já estamos preparando tudo."),
		Options("Posso ajudar em mais alguma coisa?", menuChoices()...),
	}, nil
}

// notUnderstood answers anything the engine cannot interpret without
// touching the session state.
func (e *Engine) notUnderstood(*Session) []Message {
	return []Message{Options(
		"Desculpe, não entendi. Toque em uma das opções abaixo:",
		menuChoices()...,
	)}
}
