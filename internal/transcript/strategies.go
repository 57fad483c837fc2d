package transcript

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
)

// StructuredData reads the embedded __NEXT_DATA__ payload, which carries
// explicit author roles.
type StructuredData struct{}

func (StructuredData) Name() string { return "structured_data" }

type nextData struct {
	Props struct {
		PageProps struct {
			ServerResponse struct {
				Data struct {
					LinearConversation []struct {
						Message *struct {
							Author struct {
								Role string `json:"role"`
							} `json:"author"`
							Content struct {
								Parts []any `json:"parts"`
							} `json:"content"`
						} `json:"message"`
					} `json:"linear_conversation"`
				} `json:"data"`
			} `json:"serverResponse"`
		} `json:"pageProps"`
	} `json:"props"`
}

func (StructuredData) Attempt(doc *Document) ([]domain.Turn, bool) {
	for _, s := range doc.Scripts() {
		if s.ID != "__NEXT_DATA__" {
			continue
		}
		var nd nextData
		if err := json.Unmarshal([]byte(s.Text), &nd); err != nil {
			return nil, false
		}
		linear := nd.Props.PageProps.ServerResponse.Data.LinearConversation
		if linear == nil {
			return nil, false
		}
		var turns []domain.Turn
		for _, node := range linear {
			if node.Message == nil {
				continue
			}
			role := domain.Role(node.Message.Author.Role)
			if role != domain.RoleUser && role != domain.RoleAssistant {
				continue
			}
			var parts []string
			for _, p := range node.Message.Content.Parts {
				if str, ok := p.(string); ok && strings.TrimSpace(str) != "" {
					parts = append(parts, str)
				}
			}
			content := strings.TrimSpace(strings.Join(parts, "\n"))
			if content == "" {
				continue
			}
			turns = append(turns, domain.Turn{Role: role, Content: content})
		}
		return turns, len(turns) > 0
	}
	return nil, false
}

const (
	payloadScriptMarker = "window.__reactRouterContext"
	payloadScriptMinLen = 10000
	minLiteralLen       = 50
	embeddedJSONMinLen  = 10000
	maxJSONDepth        = 20
)

var quotedLiteral = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)

// ScriptMining pulls prose-like string literals out of the large router
// payload script. Roles alternate because the payload has no author field
// next to the text.
type ScriptMining struct{}

func (ScriptMining) Name() string { return "script_mining" }

func (ScriptMining) Attempt(doc *Document) ([]domain.Turn, bool) {
	var literals []string
	for _, s := range doc.Scripts() {
		if len(s.Text) <= payloadScriptMinLen || !strings.Contains(s.Text, payloadScriptMarker) {
			continue
		}
		literals = append(literals, mineLiterals(s.Text)...)
	}
	// One alternation across all blocks, starting at user.
	turns := alternate(literals)
	return turns, len(turns) > 0
}

func mineLiterals(script string) []string {
	var out []string
	for _, m := range quotedLiteral.FindAllStringSubmatch(script, -1) {
		if utf8.RuneCountInString(m[1]) < minLiteralLen {
			continue
		}
		literal := unescapeLiteral(m[1])
		if isEmbeddedJSON(literal) {
			if found, err := messagesFromJSON(literal); err == nil {
				out = append(out, found...)
				continue
			}
		}
		if looksTechnical(literal) {
			continue
		}
		out = append(out, literal)
	}
	return out
}

func isEmbeddedJSON(s string) bool {
	return utf8.RuneCountInString(s) > embeddedJSONMinLen &&
		(strings.HasPrefix(s, "[{") || strings.HasPrefix(s, `{"`))
}

var errInvalidPayload = errors.New("invalid json payload")

// messagesFromJSON walks the payload in document order, collecting message-like
// string values. Subtrees nested deeper than maxJSONDepth are ignored.
func messagesFromJSON(payload string) ([]string, error) {
	if !json.Valid([]byte(payload)) {
		return nil, errInvalidPayload
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	dec.UseNumber()
	var found []string
	if err := walkJSON(dec, 0, &found); err != nil {
		return nil, err
	}
	return found, nil
}

func walkJSON(dec *json.Decoder, depth int, found *[]string) error {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return errInvalidPayload
		}
		return err
	}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '[':
			for dec.More() {
				if err := walkJSON(dec, depth+1, found); err != nil {
					return err
				}
			}
		case '{':
			for dec.More() {
				// key
				if _, err := dec.Token(); err != nil {
					return err
				}
				if err := walkJSON(dec, depth+1, found); err != nil {
					return err
				}
			}
		}
		// closing delimiter
		_, err := dec.Token()
		return err
	case string:
		if depth <= maxJSONDepth && looksLikeMessage(v) {
			*found = append(*found, v)
		}
	}
	return nil
}

// domSelector matches one per-turn container shape.
type domSelector struct {
	match        func(*html.Node) bool
	explicitRole bool
}

var domSelectors = []domSelector{
	{match: func(n *html.Node) bool { return isDiv(n) && hasAttr(n, "data-message-author-role") }, explicitRole: true},
	{match: func(n *html.Node) bool { return isDiv(n) && hasAttr(n, "data-message-id") }},
	{match: func(n *html.Node) bool { return isDiv(n) && strings.Contains(getAttrValue(n, "class"), "message") }},
	{match: func(n *html.Node) bool { return isDiv(n) && strings.Contains(getAttrValue(n, "class"), "turn") }},
}

func isDiv(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == "div" }

// VisibleDOM reads rendered turn containers. The first selector with any
// match wins; nested matches inside a matched container are not revisited.
type VisibleDOM struct{}

func (VisibleDOM) Name() string { return "visible_dom" }

func (VisibleDOM) Attempt(doc *Document) ([]domain.Turn, bool) {
	for _, sel := range domSelectors {
		var nodes []*html.Node
		walk(doc.root, func(n *html.Node) bool {
			if sel.match(n) {
				nodes = append(nodes, n)
				return false
			}
			return true
		})
		if len(nodes) == 0 {
			continue
		}
		turns := domTurns(nodes, sel.explicitRole)
		if len(turns) > 0 {
			return turns, true
		}
	}
	return nil, false
}

func domTurns(nodes []*html.Node, explicitRole bool) []domain.Turn {
	var contents []string
	var roles []domain.Role
	for _, n := range nodes {
		text := getTextContent(n)
		if text == "" {
			continue
		}
		if explicitRole {
			role := domain.Role(getAttrValue(n, "data-message-author-role"))
			if role != domain.RoleUser && role != domain.RoleAssistant {
				continue
			}
			roles = append(roles, role)
		}
		contents = append(contents, text)
	}
	if !explicitRole {
		return alternate(contents)
	}
	turns := make([]domain.Turn, len(contents))
	for i := range contents {
		turns[i] = domain.Turn{Role: roles[i], Content: contents[i]}
	}
	return turns
}
