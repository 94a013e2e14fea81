// Package browser exposes the browser core as a set of agent tools.
//
// Every command is a tools.Tool built by the same combinator: arguments are
// decoded from the tool call XML and validated before any driver call, the
// shared session is created on first use, and every outcome, including
// panics, is returned as a tools.Result. Failures carry IsError, the error
// kind and a message of the form
//
//	click failed [unknown_ref]: unknown reference e7 in snapshot #3
//
// # Locators
//
// Element commands take a single selector parameter that is either a
// Playwright selector ("#login", "text=Sign in") or a reference minted by
// the snapshot command ("e3", "@e3", "ref=e3"). A reference can be pinned to
// the snapshot that minted it with "e3#2"; it stops resolving once a newer
// snapshot is taken or its tab navigates.
//
// # Tabs
//
// newTab activates the new tab, pages opened by the page itself join the
// list without becoming active. When the active tab closes, the tab that
// moves into its index becomes active, or the new last tab.
//
// # Example Usage
//
//	registry := browser.NewRegistry(&browser.Env{
//	    Sessions:  core.NewManager(core.NewPlaywrightDriver(false), core.DefaultLaunchOptions(), logger),
//	    Workspace: guard,
//	})
//	defer registry.Shutdown()
//
//	res := registry.Dispatch(ctx, "navigate", []byte(`<arguments><url>https://example.com</url></arguments>`))
//	if res.IsError {
//	    // res.ErrorKind, res.Text()
//	}
package browser
