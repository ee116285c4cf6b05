package browser

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// HTMLToText converts the markup of a rendered chat message into plain text.
// Paragraphs, headings and lists become line breaks, <pre> blocks keep their
// whitespace, and interactive chrome (buttons, svg icons, scripts) is dropped.
func HTMLToText(markup string) (string, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	w := &textWriter{}
	w.walk(doc, false)
	return strings.TrimSpace(w.b.String()), nil
}

// textWriter accumulates text while tracking trailing newlines so block
// boundaries never stack more than the requested number of line breaks.
type textWriter struct {
	b        strings.Builder
	newlines int
	space    bool
	lists    []*listState
}

type listState struct {
	ordered bool
	index   int
}

// walk recursively renders n; pre is true inside <pre>.
func (w *textWriter) walk(n *html.Node, pre bool) {
	switch n.Type {
	case html.CommentNode:
		return
	case html.TextNode:
		if pre {
			w.raw(n.Data)
		} else {
			w.inline(n.Data)
		}
		return
	case html.ElementNode:
		w.element(n, pre)
		return
	}
	w.children(n, pre)
}

func (w *textWriter) children(n *html.Node, pre bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, pre)
	}
}

func (w *textWriter) element(n *html.Node, pre bool) {
	tag := strings.ToLower(n.Data)
	if isSkippedElement(tag) {
		return
	}

	switch tag {
	case "br":
		w.raw("\n")
	case "hr":
		w.breakLine(2)
		w.raw("---")
		w.breakLine(2)
	case "pre":
		w.breakLine(2)
		w.children(n, true)
		w.breakLine(2)
	case "ul", "ol":
		if len(w.lists) > 0 {
			w.breakLine(1)
		} else {
			w.breakLine(2)
		}
		w.lists = append(w.lists, &listState{ordered: tag == "ol", index: startIndex(n)})
		w.children(n, pre)
		w.lists = w.lists[:len(w.lists)-1]
		if len(w.lists) > 0 {
			w.breakLine(1)
		} else {
			w.breakLine(2)
		}
	case "td", "th":
		w.space = true
		w.children(n, pre)
		w.space = true
	case "li":
		w.breakLine(1)
		w.raw(w.bullet())
		w.children(n, pre)
		w.breakLine(1)
	default:
		switch {
		case isParagraphElement(tag):
			w.breakLine(2)
			w.children(n, pre)
			w.breakLine(2)
		case isBlockElement(tag):
			w.breakLine(1)
			w.children(n, pre)
			w.breakLine(1)
		default:
			w.children(n, pre)
		}
	}
}

// bullet returns the marker for the next item of the innermost list.
func (w *textWriter) bullet() string {
	if len(w.lists) == 0 {
		return "- "
	}
	list := w.lists[len(w.lists)-1]
	indent := strings.Repeat("  ", len(w.lists)-1)
	if !list.ordered {
		return indent + "- "
	}
	marker := indent + strconv.Itoa(list.index) + ". "
	list.index++
	return marker
}

// inline writes collapsed text, keeping a single space between words.
func (w *textWriter) inline(s string) {
	if s == "" {
		return
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		w.space = true
		return
	}
	if isSpace(s[0]) {
		w.space = true
	}
	if w.space && w.newlines == 0 && w.b.Len() > 0 {
		w.b.WriteByte(' ')
	}
	w.b.WriteString(strings.Join(fields, " "))
	w.newlines = 0
	w.space = isSpace(s[len(s)-1])
}

// raw writes s verbatim.
func (w *textWriter) raw(s string) {
	if s == "" {
		return
	}
	w.b.WriteString(s)
	w.space = false

	trimmed := strings.TrimRight(s, "\n")
	if trimmed == "" {
		w.newlines += len(s)
	} else {
		w.newlines = len(s) - len(trimmed)
	}
}

// breakLine ensures the output ends with at least n newlines.
func (w *textWriter) breakLine(n int) {
	w.space = false
	if w.b.Len() == 0 {
		return
	}
	for w.newlines < n {
		w.b.WriteByte('\n')
		w.newlines++
	}
}

func startIndex(n *html.Node) int {
	for _, attr := range n.Attr {
		if attr.Key == "start" {
			if v, err := strconv.Atoi(attr.Val); err == nil {
				return v
			}
		}
	}
	return 1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r' || c == '\f'
}

// isSkippedElement returns true for elements that should be completely removed
func isSkippedElement(tagName string) bool {
	skipped := map[string]bool{
		"script":   true,
		"style":    true,
		"noscript": true,
		"iframe":   true,
		"embed":    true,
		"object":   true,
		"svg":      true,
		"button":   true,
		"template": true,
		"head":     true,
	}
	return skipped[tagName]
}

// isParagraphElement returns true for blocks separated by a blank line
func isParagraphElement(tagName string) bool {
	switch tagName {
	case "p", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "table":
		return true
	}
	return false
}

// isBlockElement returns true for block-level elements (for formatting)
func isBlockElement(tagName string) bool {
	blocks := map[string]bool{
		"div":        true,
		"section":    true,
		"article":    true,
		"header":     true,
		"footer":     true,
		"nav":        true,
		"main":       true,
		"aside":      true,
		"tr":         true,
		"form":       true,
		"fieldset":   true,
		"figure":     true,
		"figcaption": true,
		"thead":      true,
		"tbody":      true,
	}
	return blocks[tagName]
}
