// Package urlguard decides which URLs browser commands may open.
//
// Patterns are globs. A pattern containing "://" is matched against the whole
// URL ("https://*.example.com/*"); any other pattern is matched against the
// host name only ("*.internal", "localhost"). Schemes and hosts compare
// case-insensitively, paths case-sensitively. Denied patterns take precedence;
// when allowed patterns are configured a URL must match at least one of them.
package urlguard

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
)

// ErrBlocked is wrapped by every error returned for a URL the policy rejects.
var ErrBlocked = errors.New("blocked by navigation policy")

type pattern struct {
	raw     string
	fullURL bool
	glob    glob.Glob
}

func (p pattern) match(u *url.URL, raw string) bool {
	if p.fullURL {
		return p.glob.Match(foldSchemeHost(raw))
	}
	return p.glob.Match(strings.ToLower(u.Hostname()))
}

// Guard holds compiled allow and deny patterns. A nil *Guard allows everything.
type Guard struct {
	allowed []pattern
	denied  []pattern
}

// New compiles the allow and deny patterns.
func New(allowed, denied []string) (*Guard, error) {
	g := &Guard{}
	var err error
	if g.allowed, err = compile(allowed); err != nil {
		return nil, fmt.Errorf("invalid allowed pattern: %w", err)
	}
	if g.denied, err = compile(denied); err != nil {
		return nil, fmt.Errorf("invalid denied pattern: %w", err)
	}
	return g, nil
}

func compile(raw []string) ([]pattern, error) {
	out := make([]pattern, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		full := strings.Contains(r, "://")
		src := foldSchemeHost(r)
		if !full {
			src = strings.ToLower(r)
		}
		g, err := glob.Compile(src)
		if err != nil {
			return nil, fmt.Errorf("'%s': %w", r, err)
		}
		out = append(out, pattern{raw: r, fullURL: full, glob: g})
	}
	return out, nil
}

// foldSchemeHost lowercases everything up to the end of the authority of
// s ("HTTPS://EVIL.Test/Path" becomes "https://evil.test/Path").
func foldSchemeHost(s string) string {
	i := strings.Index(s, "://")
	if i < 0 {
		return s
	}
	end := len(s)
	if j := strings.IndexAny(s[i+3:], "/?#"); j >= 0 {
		end = i + 3 + j
	}
	return strings.ToLower(s[:end]) + s[end:]
}

// Check returns nil when rawURL may be opened. about: URLs are always allowed
// so a blank tab can be opened under any policy.
func (g *Guard) Check(rawURL string) error {
	if g == nil || rawURL == "" || strings.HasPrefix(rawURL, "about:") {
		return nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: cannot parse URL %q: %v", ErrBlocked, rawURL, err)
	}

	for _, p := range g.denied {
		if p.match(u, rawURL) {
			return fmt.Errorf("%w: %s matches denied pattern '%s'", ErrBlocked, rawURL, p.raw)
		}
	}

	if len(g.allowed) == 0 {
		return nil
	}
	for _, p := range g.allowed {
		if p.match(u, rawURL) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s matches no allowed pattern", ErrBlocked, rawURL)
}

// Allows reports whether rawURL passes Check.
func (g *Guard) Allows(rawURL string) bool {
	return g.Check(rawURL) == nil
}

// Patterns returns the configured allow and deny patterns.
func (g *Guard) Patterns() (allowed, denied []string) {
	if g == nil {
		return nil, nil
	}
	for _, p := range g.allowed {
		allowed = append(allowed, p.raw)
	}
	for _, p := range g.denied {
		denied = append(denied, p.raw)
	}
	return allowed, denied
}
