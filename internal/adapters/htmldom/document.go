// Package htmldom реализует элементы страницы поверх разобранного HTML.
// Используется для офлайн-разбора сохраненных страниц и в тестах.
package htmldom

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"chat-forwarder/internal/domain"
)

// Document - разобранная HTML-страница.
type Document struct {
	doc *goquery.Document
}

// Parse разбирает HTML из потока.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return &Document{doc: doc}, nil
}

// ParseString разбирает HTML из строки.
func ParseString(html string) (*Document, error) {
	return Parse(strings.NewReader(html))
}

// Items возвращает все элементы, подходящие под селектор, в порядке документа.
func (d *Document) Items(selector string) []domain.RenderedItem {
	var items []domain.RenderedItem
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		items = append(items, &Node{sel: s})
	})
	return items
}

// Node - узел разобранного документа.
type Node struct {
	sel *goquery.Selection
}

var _ domain.RenderedItem = (*Node)(nil)

// NewNode оборачивает выборку goquery. Используется только первый узел выборки.
func NewNode(s *goquery.Selection) *Node {
	return &Node{sel: s.First()}
}

// Find реализует domain.Element.
func (n *Node) Find(selector string) (domain.Element, bool, error) {
	found := n.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, false, nil
	}
	return &Node{sel: found}, true, nil
}

// InnerText реализует domain.Element.
func (n *Node) InnerText() (string, error) {
	if n.sel.Length() == 0 {
		return "", domain.ErrElementNotFound
	}
	return innerText(n.sel.Get(0)), nil
}

// Serialize возвращает innerHTML узла.
func (n *Node) Serialize() (string, error) {
	html, err := n.sel.Html()
	if err != nil {
		return "", fmt.Errorf("failed to serialize node: %w", err)
	}
	return html, nil
}

// Selection возвращает исходную выборку goquery.
func (n *Node) Selection() *goquery.Selection {
	return n.sel
}
