//go:build integration

package integration

import (
	"slices"
	"strings"
	"testing"
)

func TestGreetingOnConnect(t *testing.T) {
	conn := dialChat(t, "greet-1")

	msgs := readMessages(t, conn)
	if len(msgs) == 0 {
		t.Fatal("expected a greeting message")
	}
	if !strings.Contains(msgs[0].Text, "Bem-vindo") {
		t.Fatalf("expected a welcome greeting, got %q", msgs[0].Text)
	}
	ids := optionIDs(msgs)
	if !slices.Contains(ids, "menu") || !slices.Contains(ids, "cart") {
		t.Fatalf("expected menu and cart options, got %v", ids)
	}
}

func TestMenuListsSeededCategories(t *testing.T) {
	conn := dialChat(t, "menu-1")
	readMessages(t, conn) // greeting

	msgs := selectAndRead(t, conn, "menu")

	ids := optionIDs(msgs)
	for _, want := range []string{"cat:cat-pizzas", "cat:cat-burgers", "cat:cat-drinks"} {
		if !slices.Contains(ids, want) {
			t.Fatalf("expected category option %s, got %v", want, ids)
		}
	}
}

func TestCategoryHidesInactiveProducts(t *testing.T) {
	conn := dialChat(t, "browse-1")
	readMessages(t, conn)
	selectAndRead(t, conn, "menu")

	msgs := selectAndRead(t, conn, "cat:cat-pizzas")

	var products []chatProduct
	for _, m := range msgs {
		if m.Type == "products" {
			products = m.Products
		}
	}
	if len(products) != 2 {
		t.Fatalf("expected the 2 active pizzas, got %d products", len(products))
	}
	for _, p := range products {
		if p.ID == "prod-old-special" {
			t.Fatal("inactive product leaked into the listing")
		}
	}
}

func TestFullOrderFlow(t *testing.T) {
	conn := dialChat(t, "order-1")
	readMessages(t, conn)

	selectAndRead(t, conn, "menu")
	selectAndRead(t, conn, "cat:cat-pizzas")
	selectAndRead(t, conn, "prod:prod-margherita")
	msgs := selectAndRead(t, conn, "qty:2")
	if !strings.Contains(joinedText(msgs), "2x Pizza Margherita") {
		t.Fatalf("expected cart line in reply, got %q", joinedText(msgs))
	}

	selectAndRead(t, conn, "checkout")
	textAndRead(t, conn, "Ana Souza")
	msgs = textAndRead(t, conn, "Rua das Flores, 100")
	text := joinedText(msgs)
	if !strings.Contains(text, "Ana Souza") || !strings.Contains(text, "Rua das Flores, 100") {
		t.Fatalf("expected review with customer details, got %q", text)
	}
	// 2 * 49.90
	if !strings.Contains(text, "R$ 99.80") {
		t.Fatalf("expected total R$ 99.80 in review, got %q", text)
	}

	msgs = selectAndRead(t, conn, "confirm_order")
	if !strings.Contains(joinedText(msgs), "confirmado") {
		t.Fatalf("expected confirmation, got %q", joinedText(msgs))
	}

	// The session is reset: confirming again reports an empty cart instead of
	// duplicating the order.
	msgs = selectAndRead(t, conn, "confirm_order")
	if !strings.Contains(joinedText(msgs), "vazio") {
		t.Fatalf("expected empty-cart reply after commit, got %q", joinedText(msgs))
	}
}

func TestCartSurvivesReconnect(t *testing.T) {
	conn := dialChat(t, "reconnect-1")
	readMessages(t, conn)
	selectAndRead(t, conn, "prod:prod-guarana")
	selectAndRead(t, conn, "qty:3")
	conn.Close()

	conn2 := dialChat(t, "reconnect-1")
	readMessages(t, conn2) // fresh greeting, same session

	msgs := selectAndRead(t, conn2, "cart")
	if !strings.Contains(joinedText(msgs), "3x Guaraná 350ml") {
		t.Fatalf("expected the cart to survive the reconnect, got %q", joinedText(msgs))
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	connA := dialChat(t, "iso-a")
	readMessages(t, connA)
	selectAndRead(t, connA, "prod:prod-cheeseburger")
	selectAndRead(t, connA, "qty:1")

	connB := dialChat(t, "iso-b")
	readMessages(t, connB)

	msgs := selectAndRead(t, connB, "cart")
	if !strings.Contains(joinedText(msgs), "vazio") {
		t.Fatalf("expected an empty cart for the second session, got %q", joinedText(msgs))
	}
}
