package browser

import (
	"regexp"
	"strconv"
	"strings"
)

// SnapshotOptions filters the rendered snapshot.
type SnapshotOptions struct {
	// Interactive renders only interactive nodes as a flat list
	Interactive bool

	// Compact drops unnamed nodes that carry no text and no rendered descendants
	Compact bool

	// MaxDepth renders only nodes with depth < MaxDepth (top level is depth 0); 0 means unlimited
	MaxDepth int
}

// Validate rejects negative depth limits.
func (o SnapshotOptions) Validate() error {
	if o.MaxDepth < 0 {
		return Errorf(KindValidation, "maxDepth must be >= 0, got %d", o.MaxDepth)
	}
	return nil
}

// Snapshot is a rendered accessibility snapshot and the references it minted.
type Snapshot struct {
	Text       string
	Refs       []ElementRef
	Generation int
	// Retargeted holds the tokens that now name a different element than
	// in the previous snapshot of the same page.
	Retargeted []string
}

// AXNode is one node of a parsed aria snapshot.
type AXNode struct {
	Role     string
	Name     string
	Attrs    []string // e.g. "level=1", "checked"
	Text     string   // inline text after the colon
	Prop     string   // set for property lines such as "/url"
	Children []*AXNode

	roleIndex int // position among nodes with the same role
	nameIndex int // position among nodes with the same role and name
}

var interactiveRoles = map[string]bool{
	"button":           true,
	"link":             true,
	"textbox":          true,
	"searchbox":        true,
	"checkbox":         true,
	"radio":            true,
	"combobox":         true,
	"listbox":          true,
	"option":           true,
	"menuitem":         true,
	"menuitemcheckbox": true,
	"menuitemradio":    true,
	"tab":              true,
	"slider":           true,
	"spinbutton":       true,
	"switch":           true,
	"treeitem":         true,
}

// IsInteractive reports whether the node's role accepts user input.
func (n *AXNode) IsInteractive() bool {
	return interactiveRoles[n.Role]
}

// addressable nodes get a reference token when rendered.
func (n *AXNode) addressable() bool {
	if n.Prop != "" || n.Role == "text" {
		return false
	}
	return n.IsInteractive() || n.Name != ""
}

var (
	snapshotLineRegex = regexp.MustCompile(`^( *)- (.*)$`)
	snapshotKeyRegex  = regexp.MustCompile(`^([a-z][a-zA-Z]*)(?: "((?:[^"\\]|\\.)*)")?((?: \[[^\]]*\])*)$`)
	snapshotAttrRegex = regexp.MustCompile(`\[([^\]]*)\]`)
)

// ParseAriaSnapshot parses Playwright's YAML-like aria snapshot into a tree.
// Lines it does not understand are skipped.
func ParseAriaSnapshot(raw string) []*AXNode {
	type frame struct {
		node  *AXNode
		depth int
	}

	var roots []*AXNode
	var stack []frame

	for _, line := range strings.Split(raw, "\n") {
		m := snapshotLineRegex.FindStringSubmatch(strings.TrimRight(line, " \r"))
		if m == nil {
			continue
		}
		node := parseSnapshotEntry(m[2])
		if node == nil {
			continue
		}
		depth := len(m[1]) / 2

		for len(stack) > 0 && stack[len(stack)-1].depth >= depth {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, node)
		} else {
			parent := stack[len(stack)-1].node
			parent.Children = append(parent.Children, node)
		}
		stack = append(stack, frame{node: node, depth: depth})
	}

	indexNodes(roots)
	return roots
}

func parseSnapshotEntry(content string) *AXNode {
	if strings.HasPrefix(content, "/") {
		key, value, _ := strings.Cut(content[1:], ":")
		return &AXNode{Prop: key, Text: unquoteYAML(strings.TrimSpace(value))}
	}

	key, value := splitSnapshotEntry(content)
	km := snapshotKeyRegex.FindStringSubmatch(key)
	if km == nil {
		return nil
	}

	node := &AXNode{Role: km[1], Text: unquoteYAML(value)}
	if km[2] != "" {
		if name, err := strconv.Unquote(`"` + km[2] + `"`); err == nil {
			node.Name = name
		} else {
			node.Name = km[2]
		}
	}
	for _, am := range snapshotAttrRegex.FindAllStringSubmatch(km[3], -1) {
		node.Attrs = append(node.Attrs, am[1])
	}
	return node
}

// splitSnapshotEntry separates `key: value`. The key itself may be quoted
// YAML when it contains characters YAML would misread.
func splitSnapshotEntry(content string) (key, value string) {
	if content != "" && (content[0] == '\'' || content[0] == '"') {
		if end := closingQuote(content); end > 0 {
			key = unquoteYAML(content[:end+1])
			rest := strings.TrimPrefix(content[end+1:], ":")
			return key, strings.TrimSpace(rest)
		}
	}

	// The name is a quoted string that may itself contain ": ".
	inName := false
	for i := 0; i < len(content); i++ {
		switch c := content[i]; {
		case c == '\\' && inName:
			i++
		case c == '"':
			inName = !inName
		case c == ':' && !inName:
			return content[:i], strings.TrimSpace(content[i+1:])
		}
	}
	return content, ""
}

func closingQuote(s string) int {
	q := s[0]
	for i := 1; i < len(s); i++ {
		switch {
		case q == '"' && s[i] == '\\':
			i++
		case s[i] == q && q == '\'' && i+1 < len(s) && s[i+1] == '\'':
			i++
		case s[i] == q:
			return i
		}
	}
	return -1
}

func unquoteYAML(s string) string {
	if len(s) < 2 {
		return s
	}
	switch {
	case s[0] == '\'' && s[len(s)-1] == '\'':
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	case s[0] == '"' && s[len(s)-1] == '"':
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
	}
	return s
}

// indexNodes records, in document order, each node's position among nodes of
// its role and among nodes of its role and name. These positions match what
// Playwright's getByRole(...).nth() counts.
func indexNodes(roots []*AXNode) {
	byRole := make(map[string]int)
	byName := make(map[string]int)

	var visit func(n *AXNode)
	visit = func(n *AXNode) {
		if n.Prop == "" {
			n.roleIndex = byRole[n.Role]
			byRole[n.Role]++
			key := n.Role + "\x00" + n.Name
			n.nameIndex = byName[key]
			byName[key]++
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	for _, r := range roots {
		visit(r)
	}
}

// RenderSnapshot renders the tree and mints tokens e1, e2, ... in document
// order for every rendered addressable node.
func RenderSnapshot(roots []*AXNode, opts SnapshotOptions) (string, []ElementRef) {
	r := &snapshotRenderer{opts: opts}
	for _, n := range roots {
		if opts.Interactive {
			r.flat(n, 0)
		} else {
			r.tree(n, 0)
		}
	}
	return strings.TrimRight(r.b.String(), "\n"), r.refs
}

type snapshotRenderer struct {
	opts SnapshotOptions
	b    strings.Builder
	refs []ElementRef
}

func (r *snapshotRenderer) withinDepth(depth int) bool {
	return r.opts.MaxDepth == 0 || depth < r.opts.MaxDepth
}

func (r *snapshotRenderer) mint(n *AXNode) string {
	token := "e" + strconv.Itoa(len(r.refs)+1)
	nth := n.roleIndex
	if n.Name != "" {
		nth = n.nameIndex
	}
	r.refs = append(r.refs, ElementRef{Token: token, Role: n.Role, Name: n.Name, Nth: nth})
	return token
}

func (r *snapshotRenderer) flat(n *AXNode, depth int) {
	if !r.withinDepth(depth) {
		return
	}
	if n.IsInteractive() {
		r.line(n, 0, r.mint(n))
	}
	for _, c := range n.Children {
		r.flat(c, depth+1)
	}
}

func (r *snapshotRenderer) tree(n *AXNode, depth int) {
	if !r.keep(n, depth) {
		return
	}
	token := ""
	if n.addressable() {
		token = r.mint(n)
	}
	r.line(n, depth, token)
	for _, c := range n.Children {
		r.tree(c, depth+1)
	}
}

// keep decides whether n is rendered in tree mode.
func (r *snapshotRenderer) keep(n *AXNode, depth int) bool {
	if !r.withinDepth(depth) {
		return false
	}
	if !r.opts.Compact {
		return true
	}
	if n.Prop != "" {
		return false
	}
	if n.Name != "" || n.Text != "" || n.IsInteractive() {
		return true
	}
	for _, c := range n.Children {
		if r.keep(c, depth+1) {
			return true
		}
	}
	return false
}

func (r *snapshotRenderer) line(n *AXNode, depth int, token string) {
	r.b.WriteString(strings.Repeat("  ", depth))
	r.b.WriteString("- ")

	if n.Prop != "" {
		r.b.WriteString("/" + n.Prop + ": " + n.Text + "\n")
		return
	}

	r.b.WriteString(n.Role)
	if n.Name != "" {
		r.b.WriteString(" " + strconv.Quote(n.Name))
	}
	for _, a := range n.Attrs {
		r.b.WriteString(" [" + a + "]")
	}
	if token != "" {
		r.b.WriteString(" [ref=" + token + "]")
	}
	if n.Text != "" {
		r.b.WriteString(": " + n.Text)
	}
	r.b.WriteString("\n")
}

// Snapshot captures the active tab's accessibility tree, renders it and
// replaces the session's reference table with the minted tokens.
func (s *Session) Snapshot(opts SnapshotOptions) (*Snapshot, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	page, err := s.ActivePage()
	if err != nil {
		return nil, err
	}

	raw, err := page.Locator("body").AriaSnapshot()
	if err != nil {
		return nil, wrap("snapshot", err)
	}

	text, refs := RenderSnapshot(ParseAriaSnapshot(raw), opts)
	gen := s.Refs.Replace(page, refs)
	return &Snapshot{Text: text, Refs: refs, Generation: gen, Retargeted: s.Refs.Retargeted()}, nil
}
