package chat

import (
	"github.com/go-faster/jx"

	"github.com/lorenzogtrrz/orderchat/internal/domain/catalog"
)

// MessageKind discriminates the outbound message variants.
type MessageKind int

const (
	// KindText is plain prose.
	KindText MessageKind = iota
	// KindOptions is prose plus a fixed menu of selectable choices. Each
	// choice ID round-trips as the select payload of the next inbound event.
	KindOptions
	// KindProducts is a product grid alongside a textual prompt, with one
	// selectable choice per product.
	KindProducts
)

// Choice is one selectable option rendered as a button by the widget.
type Choice struct {
	ID    string
	Title string
}

// Message is one outbound chat message. The zero value is not useful; build
// messages with Text, Options, or ProductListing. Slices are never mutated
// after construction.
type Message struct {
	Kind     MessageKind
	Body     string
	Choices  []Choice
	Products []catalog.Product
}

// Text builds a plain prose message.
func Text(body string) Message {
	return Message{Kind: KindText, Body: body}
}

// Options builds a prose message with selectable choices.
func Options(body string, choices ...Choice) Message {
	return Message{Kind: KindOptions, Body: body, Choices: choices}
}

// ProductListing builds a product grid message. One choice is derived per
// product so the widget can both render cards and offer selection.
func ProductListing(body string, products []catalog.Product) Message {
	choices := make([]Choice, len(products))
	for i, p := range products {
		choices[i] = Choice{ID: "prod:" + p.ID, Title: p.Name}
	}
	return Message{Kind: KindProducts, Body: body, Choices: choices, Products: products}
}

// Encode writes the wire representation consumed by the chat widget:
//
//	{"text": "..."}
//	{"text": "...", "options": [{"id": "...", "title": "..."}]}
//	{"type": "products", "text": "...", "products": [...], "options": [...]}
func (m Message) Encode(e *jx.Encoder) {
	e.ObjStart()
	if m.Kind == KindProducts {
		e.FieldStart("type")
		e.Str("products")
	}
	if m.Body != "" {
		e.FieldStart("text")
		e.Str(m.Body)
	}
	if m.Kind == KindProducts {
		e.FieldStart("products")
		e.ArrStart()
		for _, p := range m.Products {
			encodeProduct(e, p)
		}
		e.ArrEnd()
	}
	if len(m.Choices) > 0 {
		e.FieldStart("options")
		e.ArrStart()
		for _, c := range m.Choices {
			e.ObjStart()
			e.FieldStart("id")
			e.Str(c.ID)
			e.FieldStart("title")
			e.Str(c.Title)
			e.ObjEnd()
		}
		e.ArrEnd()
	}
	e.ObjEnd()
}

func encodeProduct(e *jx.Encoder, p catalog.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	if p.Description != "" {
		e.FieldStart("description")
		e.Str(p.Description)
	}
	e.FieldStart("price")
	e.Num(jx.Num(p.Price.StringFixed(2)))
	if p.ImageURL != "" {
		e.FieldStart("imageUrl")
		e.Str(p.ImageURL)
	}
	e.ObjEnd()
}

// EncodeMessages writes an ordered message list as a JSON array.
func EncodeMessages(e *jx.Encoder, msgs []Message) {
	e.ArrStart()
	for _, m := range msgs {
		m.Encode(e)
	}
	e.ArrEnd()
}
