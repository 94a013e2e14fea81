package browser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// ElementRef is a token minted by a snapshot for one accessibility node.
// The node is located again by role, accessible name and its position among
// nodes with the same role and name.
type ElementRef struct {
	Token      string
	Generation int
	Role       string
	Name       string
	Nth        int

	page playwright.Page
}

// String returns the generation-qualified form of the token, e.g. "e5#3".
func (r ElementRef) String() string {
	return fmt.Sprintf("%s#%d", r.Token, r.Generation)
}

func (r ElementRef) sameTarget(o ElementRef) bool {
	return r.Role == o.Role && r.Name == o.Name && r.Nth == o.Nth
}

func (r ElementRef) locate(page playwright.Page) playwright.Locator {
	opts := playwright.PageGetByRoleOptions{}
	if r.Name != "" {
		opts.Name = r.Name
		opts.Exact = playwright.Bool(true)
	}
	return page.GetByRole(playwright.AriaRole(r.Role), opts).Nth(r.Nth)
}

// RefTable holds the references of the current snapshot generation.
// Each Replace supersedes the whole table.
type RefTable struct {
	mu          sync.RWMutex
	generation  int
	page        playwright.Page
	refs        map[string]ElementRef
	invalidated bool
	retargeted  []string
}

// NewRefTable creates an empty table at generation 0.
func NewRefTable() *RefTable {
	return &RefTable{refs: make(map[string]ElementRef)}
}

// Replace installs refs as a new generation minted on page and returns the
// generation number. The Generation field of every element of refs is set.
func (t *RefTable) Replace(page playwright.Page, refs []ElementRef) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.retargeted = nil
	for _, r := range refs {
		prev, ok := t.refs[r.Token]
		if ok && !t.invalidated && t.page == page && !prev.sameTarget(r) {
			t.retargeted = append(t.retargeted, r.Token)
		}
	}

	t.generation++
	t.page = page
	t.invalidated = false
	t.refs = make(map[string]ElementRef, len(refs))
	for i := range refs {
		refs[i].Generation = t.generation
		refs[i].page = page
		t.refs[refs[i].Token] = refs[i]
	}
	return t.generation
}

// Retargeted lists the bare tokens of the current generation that named a
// different element in the generation it replaced, in minting order.
func (t *RefTable) Retargeted() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.retargeted...)
}

// Invalidate expires the current generation if it was minted on page.
func (t *RefTable) Invalidate(page playwright.Page) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.page == nil || t.page != page || t.invalidated {
		return
	}
	t.refs = make(map[string]ElementRef)
	t.invalidated = true
}

// Lookup finds token in the current generation. A non-zero generation pins
// the lookup: it fails unless that generation is still current.
func (t *RefTable) Lookup(token string, generation int) (ElementRef, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	switch {
	case t.generation == 0:
		return ElementRef{}, Errorf(KindUnknownRef, "unknown reference %s: no snapshot has been taken", token)
	case generation != 0 && generation != t.generation:
		return ElementRef{}, Errorf(KindUnknownRef,
			"reference %s#%d is stale: current snapshot is #%d, take a new snapshot", token, generation, t.generation)
	case t.invalidated:
		return ElementRef{}, Errorf(KindUnknownRef,
			"reference %s expired: the page navigated after snapshot #%d, take a new snapshot", token, t.generation)
	}

	ref, ok := t.refs[token]
	if !ok {
		return ElementRef{}, Errorf(KindUnknownRef, "unknown reference %s in snapshot #%d", token, t.generation)
	}
	return ref, nil
}

// Generation returns the current generation number, 0 before the first snapshot.
func (t *RefTable) Generation() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.generation
}

// Len returns the number of resolvable references.
func (t *RefTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.refs)
}

// LocatorKind tells a selector locator from a reference locator.
type LocatorKind int

const (
	SelectorLocator LocatorKind = iota
	RefLocator
)

// Locator is a parsed locator string.
type Locator struct {
	Kind       LocatorKind
	Selector   string
	Token      string
	Generation int
}

func (l Locator) String() string {
	if l.Kind == SelectorLocator {
		return l.Selector
	}
	if l.Generation != 0 {
		return fmt.Sprintf("%s#%d", l.Token, l.Generation)
	}
	return l.Token
}

var refTokenRegex = regexp.MustCompile(`^(?:@|ref=)?(e[1-9][0-9]*)(?:#([1-9][0-9]*))?$`)

// ParseLocator classifies raw as a reference token (e5, @e5, ref=e5, e5#3)
// or a selector. Anything that is not a token is a selector.
func ParseLocator(raw string) (Locator, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Locator{}, Errorf(KindValidation, "locator is empty")
	}

	m := refTokenRegex.FindStringSubmatch(s)
	if m == nil {
		return Locator{Kind: SelectorLocator, Selector: s}, nil
	}

	loc := Locator{Kind: RefLocator, Token: m[1]}
	if m[2] != "" {
		gen, err := strconv.Atoi(m[2])
		if err != nil {
			return Locator{}, Errorf(KindValidation, "invalid snapshot generation in %q", s)
		}
		loc.Generation = gen
	}
	return loc, nil
}

// Resolve turns a locator string into a Playwright locator on the active tab.
// Selectors are passed through. Tokens are looked up in the current
// generation and must have been minted on the active tab.
func (s *Session) Resolve(raw string) (playwright.Locator, error) {
	loc, err := ParseLocator(raw)
	if err != nil {
		return nil, err
	}

	page, err := s.ActivePage()
	if err != nil {
		return nil, err
	}

	if loc.Kind == SelectorLocator {
		return page.Locator(loc.Selector), nil
	}

	ref, err := s.Refs.Lookup(loc.Token, loc.Generation)
	if err != nil {
		return nil, err
	}
	if ref.page != page {
		return nil, Errorf(KindUnknownRef, "reference %s was minted on tab %d, not the active tab; switch back or take a new snapshot",
			loc.Token, s.Tabs.IndexOf(ref.page))
	}
	return ref.locate(page), nil
}
