package chat

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// formatPrice renders a money value the way the storefront does: R$ with
// exactly two decimal digits.
func formatPrice(v decimal.Decimal) string {
	return "R$ " + v.StringFixed(2)
}

func menuChoices() []Choice {
	return []Choice{
		{ID: "menu", Title: "Ver cardápio"},
		{ID: "cart", Title: "Ver carrinho"},
	}
}

func welcomeMessages() []Message {
	return []Message{Options(
		"Olá! 👋 Bem-vindo ao nosso delivery. Como posso ajudar?",
		menuChoices()...,
	)}
}

func emptyCartMessages() []Message {
	return []Message{Options(
		"Seu carrinho está vazio. Que tal dar uma olhada no cardápio?",
		menuChoices()...,
	)}
}

// cartMessages renders the cart summary with the follow-up actions.
func cartMessages(s *Session) []Message {
	if len(s.Cart) == 0 {
		return emptyCartMessages()
	}

	var b strings.Builder
	b.WriteString("Seu carrinho:\n")
	for _, l := range s.Cart {
		lineTotal := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		b.WriteString(strconv.Itoa(l.Quantity))
		b.WriteString("x ")
		b.WriteString(l.Name)
		b.WriteString(" - ")
		b.WriteString(formatPrice(lineTotal))
		b.WriteString("\n")
	}
	b.WriteString("Total: ")
	b.WriteString(formatPrice(s.cartTotal()))

	return []Message{
		Text(b.String()),
		Options("O que deseja fazer?",
			Choice{ID: "checkout", Title: "Finalizar pedido"},
			Choice{ID: "menu", Title: "Continuar comprando"},
			Choice{ID: "clear_cart", Title: "Esvaziar carrinho"},
		),
	}
}

// reviewMessages renders the final order review with the confirm option.
func reviewMessages(s *Session) []Message {
	var b strings.Builder
	b.WriteString("Confira o seu pedido:\n")
	for _, l := range s.Cart {
		lineTotal := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		b.WriteString(strconv.Itoa(l.Quantity))
		b.WriteString("x ")
		b.WriteString(l.Name)
		b.WriteString(" - ")
		b.WriteString(formatPrice(lineTotal))
		b.WriteString("\n")
	}
	b.WriteString("Total: ")
	b.WriteString(formatPrice(s.cartTotal()))
	b.WriteString("\nNome: ")
	b.WriteString(s.Customer.Name)
	b.WriteString("\nEndereço: ")
	b.WriteString(s.Customer.Address)

	return []Message{
		Text(b.String()),
		Options("Tudo certo?",
			Choice{ID: "confirm_order", Title: "Confirmar pedido"},
			Choice{ID: "cart", Title: "Voltar ao carrinho"},
		),
	}
}
