// Package browser is the browser command core: a single shared browser
// session driven through Playwright, the tab registry of that session, the
// element-reference scheme minted from accessibility snapshots, and raw
// input injection over the Chrome DevTools Protocol.
//
// # Session Lifecycle
//
// A Manager owns zero or one live Session:
//
//	Absent --Launch/Ensure--> Live --Close--> Absent
//
// Ensure creates the session lazily with the manager's default launch
// options, so commands issued after Close transparently relaunch a fresh
// session with one blank tab. A session whose browser process disconnected
// is discarded and relaunched on the next Ensure.
//
// # Tabs
//
// Tabs tracks the ordered set of open pages and the active index. Callers
// address tabs by index only. Closing the active tab activates the tab now
// at the same index, or the new last tab when the closed tab was last.
// Closing a tab before the active one shifts the active index down so the
// same page stays active. Pages opened by the page itself (popups) are
// appended without changing the active tab.
//
// # Element References
//
// Snapshot parses Playwright's aria snapshot of the active page, renders it
// with tokens (e1, e2, ...) next to addressable nodes and replaces the
// session's RefTable. Tokens are minted in document order, so an unchanged
// page yields the same tokens on every snapshot. A locator string is either
// a CSS/Playwright selector or a token, optionally written as @e5, ref=e5,
// or e5#3 to pin it to snapshot generation 3. Tokens from a superseded
// generation, from another tab, or minted before the page navigated fail
// with an unknown_ref Error.
//
// # Example Usage
//
//	mgr := browser.NewManager(browser.NewPlaywrightDriver(false), browser.DefaultLaunchOptions(), logger)
//	sess, err := mgr.Ensure(ctx)
//	snap, err := sess.Snapshot(ctx, browser.SnapshotOptions{Interactive: true})
//	target, err := sess.Resolve(ctx, "e1")
//	err = target.Click()
//	_, err = mgr.Close()
package browser
