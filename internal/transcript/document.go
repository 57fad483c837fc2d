package transcript

import (
	"strings"

	"golang.org/x/net/html"
)

// Document is raw markup plus its parsed tree, shared by all strategies of a call.
type Document struct {
	Raw  string
	root *html.Node
}

// NewDocument parses raw. Markup that fails to parse keeps a nil tree and
// only raw-text strategies can use it.
func NewDocument(raw string) *Document {
	d := &Document{Raw: raw}
	if root, err := html.Parse(strings.NewReader(raw)); err == nil {
		d.root = root
	}
	return d
}

// Title returns the trimmed text of the first <title> element.
func (d *Document) Title() string {
	n := findFirst(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "title"
	})
	if n == nil {
		return ""
	}
	return strings.TrimSpace(rawText(n))
}

// Scripts returns the text of every <script> element in document order.
func (d *Document) Scripts() []scriptBlock {
	var out []scriptBlock
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "script" {
			out = append(out, scriptBlock{ID: getAttrValue(n, "id"), Text: rawText(n)})
			return false
		}
		return true
	})
	return out
}

type scriptBlock struct {
	ID   string
	Text string
}

// walk visits nodes depth-first; fn returning false skips the node's children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(n, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// getAttrValue returns the value of an attribute.
func getAttrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return true
		}
	}
	return false
}

// rawText concatenates the text children of n without trimming.
func rawText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// getTextContent returns all visible text within a node, one space between text nodes.
func getTextContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(n *html.Node) bool {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return false
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				sb.WriteString(t)
				sb.WriteString(" ")
			}
		}
		return true
	})
	return strings.TrimSpace(sb.String())
}
