// Package locator derives Playwright locators outside the browser: from parsed HTML, from a line
// of test source, and for debounced previews.
package locator

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// maxTextLocator is the longest visible text used for a text= locator.
const maxTextLocator = 60

// Suggestion is a locator proposed for one element of a document.
type Suggestion struct {
	Tag     string
	Locator string
}

// Document is a parsed page with the lookups locator synthesis needs.
type Document struct {
	root *html.Node
	byID map[string]*html.Node
}

func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	d := &Document{root: root, byID: map[string]*html.Node{}}
	walk(root, func(n *html.Node) {
		if id := attr(n, "id"); id != "" {
			if _, dup := d.byID[id]; !dup {
				d.byID[id] = n
			}
		}
	})
	return d, nil
}

// Suggest proposes a locator for every interactive element, in document order.
func (d *Document) Suggest() []Suggestion {
	var out []Suggestion
	walk(d.root, func(n *html.Node) {
		if !interactive(n) {
			return
		}
		out = append(out, Suggestion{Tag: n.Data, Locator: d.Locator(n)})
	})
	return out
}

// Locator builds the locator the in-page picker would report for n.
func (d *Document) Locator(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	if v := attr(n, "data-testid"); v != "" {
		return "data-testid=" + v
	}
	if v := attr(n, "data-test"); v != "" {
		return `css=[data-test="` + cssEscape(v) + `"]`
	}
	if v := attr(n, "data-qa"); v != "" {
		return `css=[data-qa="` + cssEscape(v) + `"]`
	}

	visible := visibleText(n)
	role := inferRole(n)
	name := strings.TrimSpace(firstNonEmpty(
		attr(n, "aria-label"),
		d.labelledByText(n),
		d.labelText(n),
		attr(n, "placeholder"),
		visible,
	))
	if role != "" && name != "" {
		return "role=" + role + `[name="` + escapeText(name) + `"]`
	}
	if visible != "" && len([]rune(visible)) <= maxTextLocator {
		return `text="` + escapeText(visible) + `"`
	}
	if id := attr(n, "id"); id != "" {
		return "css=#" + cssEscape(id)
	}
	return "css=" + structuralPath(n)
}

func (d *Document) labelledByText(n *html.Node) string {
	var parts []string
	for _, id := range strings.Fields(attr(n, "aria-labelledby")) {
		if t := visibleText(d.byID[id]); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func (d *Document) labelText(n *html.Node) string {
	if id := attr(n, "id"); id != "" {
		var label *html.Node
		walk(d.root, func(c *html.Node) {
			if label == nil && c.DataAtom == atom.Label && attr(c, "for") == id {
				label = c
			}
		})
		if t := visibleText(label); t != "" {
			return t
		}
	}
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.DataAtom == atom.Label {
			return visibleText(p)
		}
	}
	return ""
}

func inferRole(n *html.Node) string {
	if r := attr(n, "role"); r != "" {
		return r
	}
	switch n.DataAtom {
	case atom.Button:
		return "button"
	case atom.A:
		if attr(n, "href") != "" {
			return "link"
		}
	case atom.Input:
		switch strings.ToLower(attr(n, "type")) {
		case "submit", "button", "reset":
			return "button"
		case "checkbox":
			return "checkbox"
		case "radio":
			return "radio"
		case "range":
			return "slider"
		default:
			return "textbox"
		}
	case atom.Select:
		return "combobox"
	case atom.Textarea:
		return "textbox"
	}
	return ""
}

func interactive(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Button, atom.Input, atom.Select, atom.Textarea:
		return attr(n, "type") != "hidden"
	case atom.A:
		return attr(n, "href") != ""
	}
	return attr(n, "role") != "" || attr(n, "data-testid") != "" || attr(n, "onclick") != ""
}

// structuralPath walks from n up to, but not including, <html>.
func structuralPath(n *html.Node) string {
	var parts []string
	for e := n; e != nil && e.Type == html.ElementNode && e.DataAtom != atom.Html; e = e.Parent {
		sel := e.Data
		if e.Parent != nil {
			count, index := 0, 0
			for s := e.Parent.FirstChild; s != nil; s = s.NextSibling {
				if s.Type == html.ElementNode && s.Data == e.Data {
					count++
					if s == e {
						index = count
					}
				}
			}
			if count > 1 {
				sel += ":nth-of-type(" + strconv.Itoa(index) + ")"
			}
		}
		parts = append([]string{sel}, parts...)
	}
	return strings.Join(parts, " > ")
}

// visibleText approximates innerText: text content outside scripts, styles and hidden
// subtrees, with whitespace collapsed.
func visibleText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(c *html.Node) {
		switch c.Type {
		case html.TextNode:
			b.WriteString(c.Data)
			b.WriteByte(' ')
			return
		case html.ElementNode:
			switch c.DataAtom {
			case atom.Script, atom.Style, atom.Template, atom.Noscript, atom.Head:
				return
			}
			if hasAttr(c, "hidden") || strings.EqualFold(attr(c, "aria-hidden"), "true") {
				return
			}
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			collect(k)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// cssEscape serialises an identifier the way CSS.escape does.
func cssEscape(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == 0:
			b.WriteRune('\uFFFD')
		case (r >= 0x1 && r <= 0x1f) || r == 0x7f,
			i == 0 && r >= '0' && r <= '9',
			i == 1 && r >= '0' && r <= '9' && runes[0] == '-':
			fmt.Fprintf(&b, `\%x `, r)
		case i == 0 && r == '-' && len(runes) == 1:
			b.WriteString(`\-`)
		case r >= 0x80, r == '-', r == '_',
			r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func walk(n *html.Node, fn func(*html.Node)) {
	if n == nil {
		return
	}
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}
