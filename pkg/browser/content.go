package browser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/playwright-community/playwright-go"
	"golang.org/x/net/html"
)

// ContentFormat selects the rendering produced by ExtractContent.
type ContentFormat string

const (
	FormatHTML     ContentFormat = "html"
	FormatText     ContentFormat = "text"
	FormatMarkdown ContentFormat = "markdown"
)

// ParseContentFormat validates a format name; empty means markdown.
func ParseContentFormat(s string) (ContentFormat, error) {
	switch ContentFormat(strings.ToLower(s)) {
	case "", FormatMarkdown:
		return FormatMarkdown, nil
	case FormatHTML:
		return FormatHTML, nil
	case FormatText:
		return FormatText, nil
	}
	return "", Errorf(KindValidation, "unsupported format %q (want html, text or markdown)", s)
}

// PageContent is the cleaned content of a page or element.
type PageContent struct {
	Title       string
	Description string
	Body        string
	Truncated   bool
}

var (
	skippedElements = set("script", "style", "noscript", "iframe", "embed", "object", "svg", "template")

	blockElements = set("div", "p", "section", "article", "header", "footer", "nav", "main", "aside",
		"h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "li", "table", "tr", "td", "th",
		"form", "fieldset", "blockquote", "pre", "br", "hr")

	voidElements = set("area", "base", "br", "col", "embed", "hr", "img", "input", "link", "meta",
		"param", "source", "track", "wbr")

	globalAttributes = set("id", "class", "role", "aria-label", "aria-describedby", "name")
)

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, item := range items {
		m[item] = true
	}
	return m
}

// CleanHTML parses rawHTML and renders it in the requested format with
// scripts, styles and other noise removed. Output is cut at maxLength
// characters; maxLength <= 0 means DefaultMaxLength.
func CleanHTML(rawHTML string, format ContentFormat, maxLength int) (*PageContent, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	w := &contentWriter{format: format, limit: maxLength}
	w.walk(doc, 0)

	return &PageContent{
		Title:       findTitle(doc),
		Description: findMetaDescription(doc),
		Body:        strings.TrimSpace(collapseBlankLines(w.b.String())),
		Truncated:   w.truncated,
	}, nil
}

type contentWriter struct {
	format    ContentFormat
	b         strings.Builder
	limit     int
	written   int
	truncated bool
	glue      bool // next text attaches to an opening marker
	pending   bool // source whitespace separates the next inline content
}

// emit writes s unless the budget is spent. Only visible text counts against it.
func (w *contentWriter) emit(s string, counted bool) {
	if w.truncated {
		return
	}
	if counted && w.written+len(s) > w.limit {
		cut := w.limit - w.written
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
		w.truncated = true
	}
	w.b.WriteString(s)
	if counted {
		w.written += len(s)
	}
}

func (w *contentWriter) walk(n *html.Node, depth int) {
	if w.truncated {
		return
	}

	switch n.Type {
	case html.CommentNode, html.DoctypeNode:
		return
	case html.TextNode:
		w.text(n)
		return
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if skippedElements[tag] || tag == "head" {
			return
		}
		switch w.format {
		case FormatHTML:
			w.htmlElement(n, tag, depth)
		case FormatMarkdown:
			w.markdownElement(n, tag, depth)
		default:
			w.textElement(n, tag, depth)
		}
		return
	}

	w.children(n, depth)
}

func (w *contentWriter) children(n *html.Node, depth int) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, depth)
	}
}

func (w *contentWriter) text(n *html.Node) {
	text := strings.Join(strings.Fields(n.Data), " ")
	if text == "" {
		if n.Data != "" {
			w.pending = true
		}
		return
	}
	if w.format == FormatHTML {
		text = html.EscapeString(text)
	}
	if !w.glue && (w.pending || unicode.IsSpace(rune(n.Data[0]))) {
		w.space()
	}
	w.glue = false
	w.pending = unicode.IsSpace(rune(n.Data[len(n.Data)-1]))
	w.emit(text, true)
}

// space separates inline content from preceding text.
func (w *contentWriter) space() {
	if needsSpace(w.b.String()) {
		w.emit(" ", false)
	}
	w.pending = false
}

// open writes an inline opening marker.
func (w *contentWriter) open(marker string) {
	if w.pending {
		w.space()
	}
	w.emit(marker, false)
	w.glue = true
}

func needsSpace(s string) bool {
	if s == "" {
		return false
	}
	switch s[len(s)-1] {
	case ' ', '\n':
		return false
	}
	return true
}

func (w *contentWriter) htmlElement(n *html.Node, tag string, depth int) {
	if depth > 0 && blockElements[tag] {
		w.emit("\n"+strings.Repeat("  ", depth), false)
	} else if w.pending {
		w.space()
	}

	w.emit("<"+tag, false)
	for _, a := range n.Attr {
		if keepAttribute(tag, a.Key) {
			w.emit(fmt.Sprintf(` %s="%s"`, a.Key, html.EscapeString(a.Val)), false)
		}
	}
	w.emit(">", false)

	if voidElements[tag] {
		return
	}
	w.glue = true
	w.children(n, depth+1)
	if blockElements[tag] {
		w.emit("\n"+strings.Repeat("  ", depth), false)
	}
	w.emit("</"+tag+">", false)
	w.glue = false
}

func (w *contentWriter) textElement(n *html.Node, tag string, depth int) {
	block := blockElements[tag]
	if block {
		w.emit("\n", false)
	}
	w.children(n, depth+1)
	if block {
		w.emit("\n", false)
	}
}

func (w *contentWriter) markdownElement(n *html.Node, tag string, depth int) {
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		w.emit("\n\n"+strings.Repeat("#", int(tag[1]-'0'))+" ", false)
		w.children(n, depth+1)
		w.emit("\n\n", false)
	case "li":
		w.emit("\n- ", false)
		w.children(n, depth+1)
	case "a":
		href := attr(n, "href")
		if href == "" {
			w.children(n, depth+1)
			return
		}
		w.open("[")
		w.children(n, depth+1)
		w.emit("]("+href+")", false)
	case "img":
		if alt := attr(n, "alt"); alt != "" {
			w.open("![")
			w.glue = false
			w.emit(alt, true)
			w.emit("]("+attr(n, "src")+")", false)
		}
	case "strong", "b":
		w.open("**")
		w.children(n, depth+1)
		w.emit("**", false)
	case "em", "i":
		w.open("_")
		w.children(n, depth+1)
		w.emit("_", false)
	case "code":
		w.open("`")
		w.children(n, depth+1)
		w.emit("`", false)
	case "pre":
		w.emit("\n\n```\n", false)
		w.children(n, depth+1)
		w.emit("\n```\n\n", false)
	default:
		w.textElement(n, tag, depth)
	}
}

func keepAttribute(tag, name string) bool {
	name = strings.ToLower(name)
	if globalAttributes[name] || strings.HasPrefix(name, "data-") {
		return true
	}

	switch tag {
	case "a":
		return name == "href" || name == "target"
	case "img":
		return name == "src" || name == "alt"
	case "input", "textarea", "select":
		return name == "type" || name == "placeholder" || name == "value"
	case "button":
		return name == "type"
	case "form":
		return name == "action" || name == "method"
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	blank := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " ")
		if strings.TrimSpace(line) == "" {
			blank++
			if blank > 1 {
				continue
			}
			line = ""
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// findNode returns the first element in document order accepted by match.
func findNode(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, match); found != nil {
			return found
		}
	}
	return nil
}

func findTitle(doc *html.Node) string {
	n := findNode(doc, func(n *html.Node) bool { return n.Data == "title" })
	if n == nil || n.FirstChild == nil || n.FirstChild.Type != html.TextNode {
		return ""
	}
	return strings.TrimSpace(n.FirstChild.Data)
}

func findMetaDescription(doc *html.Node) string {
	n := findNode(doc, func(n *html.Node) bool {
		return n.Data == "meta" && attr(n, "name") == "description" && attr(n, "content") != ""
	})
	if n == nil {
		return ""
	}
	return strings.TrimSpace(attr(n, "content"))
}

// ExtractContent cleans the HTML of the active tab, or of the first element
// matched by locator when it is set.
func (s *Session) ExtractContent(locator string, format ContentFormat, maxLength int) (*PageContent, error) {
	page, err := s.ActivePage()
	if err != nil {
		return nil, err
	}

	var raw string
	if locator == "" {
		raw, err = page.Content()
	} else {
		var target playwright.Locator
		if target, err = s.Resolve(locator); err != nil {
			return nil, err
		}
		raw, err = target.First().InnerHTML()
	}
	if err != nil {
		return nil, wrap("extractContent", err)
	}

	content, err := CleanHTML(raw, format, maxLength)
	if err != nil {
		return nil, wrap("extractContent", err)
	}
	if content.Title == "" {
		content.Title, _ = page.Title()
	}
	return content, nil
}
