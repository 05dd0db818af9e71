package detect

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Snapshot is the parsed DOM of a page at the moment a detection pass runs.
// Every query treats "no match" as a normal negative result.
type Snapshot struct {
	root *html.Node
}

// ParseSnapshot parses an HTML document.
func ParseSnapshot(r io.Reader) (*Snapshot, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Snapshot{root: doc}, nil
}

// ParseSnapshotString parses an HTML document held in a string.
func ParseSnapshotString(s string) (*Snapshot, error) {
	return ParseSnapshot(strings.NewReader(s))
}

// Has reports whether any element matches the selector group.
func (s *Snapshot) Has(selector string) bool {
	return s != nil && querySelector(s.root, selector) != nil
}

// First returns the first element in document order matching the selector
// group, or nil.
func (s *Snapshot) First(selector string) *html.Node {
	if s == nil {
		return nil
	}
	return querySelector(s.root, selector)
}

// All returns every element matching the selector group in document order.
func (s *Snapshot) All(selector string) []*html.Node {
	if s == nil {
		return nil
	}
	return querySelectorAll(s.root, selector)
}

// Selector support is the subset the site table needs:
//   - tag, .class, #id, tag.class.other, tag#id
//   - [attr], [attr=val], tag[attr=val]
//   - descendant combinator (space)
//   - selector groups separated by commas

type simpleSelector struct {
	tag     string
	id      string
	classes []string
	attrKey string
	attrVal string
	hasVal  bool
}

// compound is a descendant chain, outermost first.
type compound []simpleSelector

func parseGroup(group string) []compound {
	var out []compound
	for _, sel := range strings.Split(group, ",") {
		parts := strings.Fields(sel)
		if len(parts) == 0 {
			continue
		}
		c := make(compound, 0, len(parts))
		for _, p := range parts {
			c = append(c, parseSimpleSelector(p))
		}
		out = append(out, c)
	}
	return out
}

// parseSimpleSelector parses "tag.class", "#id", "tag[attr=val]", etc.
func parseSimpleSelector(sel string) simpleSelector {
	var s simpleSelector

	if idx := strings.IndexByte(sel, '['); idx >= 0 {
		attrPart := strings.TrimRight(sel[idx+1:], "]")
		sel = sel[:idx]
		if eqIdx := strings.IndexByte(attrPart, '='); eqIdx >= 0 {
			s.attrKey = attrPart[:eqIdx]
			s.attrVal = strings.Trim(attrPart[eqIdx+1:], `"'`)
			s.hasVal = true
		} else {
			s.attrKey = attrPart
		}
	}

	// The rest is a tag followed by any mix of #id and .class parts.
	for i := len(sel) - 1; i >= 0; i-- {
		switch sel[i] {
		case '#':
			s.id = sel[i+1:]
			sel = sel[:i]
		case '.':
			s.classes = append([]string{sel[i+1:]}, s.classes...)
			sel = sel[:i]
		}
	}

	s.tag = strings.ToLower(sel)
	return s
}

func matchesSelector(n *html.Node, s simpleSelector) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if s.tag != "" && s.tag != "*" && n.Data != s.tag {
		return false
	}
	if s.id != "" && getAttr(n, "id") != s.id {
		return false
	}
	if len(s.classes) > 0 {
		have := strings.Fields(getAttr(n, "class"))
		for _, want := range s.classes {
			if !containsString(have, want) {
				return false
			}
		}
	}
	if s.attrKey != "" {
		if !hasAttr(n, s.attrKey) {
			return false
		}
		if s.hasVal && getAttr(n, s.attrKey) != s.attrVal {
			return false
		}
	}
	return true
}

// matchesCompound checks the last selector against n, then walks up the
// ancestors (stopping at scope) for the earlier ones.
func matchesCompound(n, scope *html.Node, c compound) bool {
	if !matchesSelector(n, c[len(c)-1]) {
		return false
	}
	i := len(c) - 2
	for p := n.Parent; p != nil && p != scope && i >= 0; p = p.Parent {
		if matchesSelector(p, c[i]) {
			i--
		}
	}
	return i < 0
}

func querySelectorAll(scope *html.Node, group string) []*html.Node {
	sels := parseGroup(group)
	if len(sels) == 0 || scope == nil {
		return nil
	}
	var results []*html.Node
	walkElements(scope, func(n *html.Node) bool {
		for _, c := range sels {
			if matchesCompound(n, scope, c) {
				results = append(results, n)
				break
			}
		}
		return true
	})
	return results
}

func querySelector(scope *html.Node, group string) *html.Node {
	sels := parseGroup(group)
	if len(sels) == 0 || scope == nil {
		return nil
	}
	var found *html.Node
	walkElements(scope, func(n *html.Node) bool {
		for _, c := range sels {
			if matchesCompound(n, scope, c) {
				found = n
				return false
			}
		}
		return true
	})
	return found
}

// walkElements visits the element descendants of root in document order
// until visit returns false.
func walkElements(root *html.Node, visit func(*html.Node) bool) {
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && !visit(c) {
				return false
			}
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(root)
}

// closest returns the nearest ancestor with the given tag, or nil.
func closest(n *html.Node, tag string) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == tag {
			return p
		}
	}
	return nil
}

// nodeText returns the text content of n. For meta elements it is the
// content attribute.
func nodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.ElementNode && n.Data == "meta" {
		return getAttr(n, "content")
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func renderNode(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

func getAttr(n *html.Node, key string) string {
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

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
