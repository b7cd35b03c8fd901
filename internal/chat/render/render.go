// Package render tags backend reply HTML with the display variant the
// widget styles it by.
package render

import (
	"html"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type Variant string

const (
	VariantCard  Variant = "card"
	VariantTable Variant = "table"
	VariantList  Variant = "list"
)

// Class is the CSS class the widget keys the variant's layout on.
func (v Variant) Class() string {
	return "webhook-" + string(v)
}

type Tagged struct {
	HTML    string  `json:"html"`
	Variant Variant `json:"variant"`
}

var markup = regexp.MustCompile(`<[^>]+>`)

var explicit = map[string]Variant{
	VariantCard.Class():  VariantCard,
	VariantTable.Class(): VariantTable,
	VariantList.Class():  VariantList,
}

// Classify never fails. A payload already carrying a webhook-* class on its
// first element comes back unchanged.
func Classify(raw string) Tagged {
	if !markup.MatchString(raw) {
		raw = Paragraph(raw)
	}

	trimmed := strings.TrimSpace(raw)
	nodes, err := xhtml.ParseFragment(strings.NewReader(trimmed), &xhtml.Node{
		Type:     xhtml.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return wrap(VariantCard, Paragraph(raw))
	}

	root := firstElement(nodes)
	if root != nil {
		for _, class := range classes(root) {
			if v, ok := explicit[class]; ok {
				return Tagged{HTML: raw, Variant: v}
			}
		}
	}

	switch {
	case root != nil && hasClass(root, "card"):
		return wrap(VariantCard, trimmed)
	case containsAny(nodes, atom.Table):
		return wrap(VariantTable, trimmed)
	case containsAny(nodes, atom.Ul, atom.Ol):
		return wrap(VariantList, trimmed)
	default:
		return wrap(VariantCard, trimmed)
	}
}

// Paragraph escapes plain text and wraps it in <p>.
func Paragraph(text string) string {
	return "<p>" + html.EscapeString(text) + "</p>"
}

func wrap(v Variant, inner string) Tagged {
	return Tagged{
		HTML:    `<div class="` + v.Class() + `">` + inner + `</div>`,
		Variant: v,
	}
}

func firstElement(nodes []*xhtml.Node) *xhtml.Node {
	for _, n := range nodes {
		if n.Type == xhtml.ElementNode {
			return n
		}
	}
	return nil
}

func classes(n *xhtml.Node) []string {
	for _, a := range n.Attr {
		if a.Key == "class" {
			return strings.Fields(a.Val)
		}
	}
	return nil
}

func hasClass(n *xhtml.Node, class string) bool {
	for _, c := range classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

func containsAny(nodes []*xhtml.Node, atoms ...atom.Atom) bool {
	var walk func(n *xhtml.Node) bool
	walk = func(n *xhtml.Node) bool {
		if n.Type == xhtml.ElementNode {
			for _, a := range atoms {
				if n.DataAtom == a {
					return true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	for _, n := range nodes {
		if walk(n) {
			return true
		}
	}
	return false
}
