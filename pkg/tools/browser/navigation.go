package browser

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/browsercmd/pkg/agent/tools"
	"github.com/entrhq/browsercmd/pkg/browser"
)

var waitUntilStates = map[string]*playwright.WaitUntilState{
	"load":             playwright.WaitUntilStateLoad,
	"domcontentloaded": playwright.WaitUntilStateDomcontentloaded,
	"networkidle":      playwright.WaitUntilStateNetworkidle,
	"commit":           playwright.WaitUntilStateCommit,
}

// pageResult reports a page-affecting action together with the URL the
// active tab shows afterwards.
func pageResult(page playwright.Page, format string, args ...interface{}) *tools.Result {
	url := page.URL()
	return tools.TextResult("%s\nURL: %s", fmt.Sprintf(format, args...), url).
		WithMetadata("url", url)
}

type navigateArgs struct {
	URL       string `xml:"url"`
	WaitUntil string `xml:"waitUntil"`
}

func (a *navigateArgs) validate() error {
	if err := required("url", a.URL); err != nil {
		return err
	}
	if a.WaitUntil == "" {
		a.WaitUntil = "load"
	}
	return oneOf("waitUntil", a.WaitUntil, "load", "domcontentloaded", "networkidle", "commit")
}

func navigateCommand(env *Env) tools.Tool {
	return define(env, "navigate",
		"Navigate the active tab to a URL and wait for the page to load. References from earlier snapshots of this tab stop resolving.",
		tools.BaseToolSchema(map[string]interface{}{
			"url":       prop("string", "URL to open, including the scheme (e.g. https://example.com)"),
			"waitUntil": prop("string", "When navigation counts as finished: 'load' (default), 'domcontentloaded', 'networkidle' or 'commit'"),
		}, []string{"url"}),
		func(ctx context.Context, s *browser.Session, args *navigateArgs) (*tools.Result, error) {
			if err := env.checkURL("navigate", args.URL); err != nil {
				return nil, err
			}
			page, err := s.ActivePage()
			if err != nil {
				return nil, err
			}

			resp, err := page.Goto(args.URL, playwright.PageGotoOptions{
				WaitUntil: waitUntilStates[args.WaitUntil],
			})
			if err != nil {
				return nil, err
			}

			title, _ := page.Title()
			res := pageResult(page, "Navigated to %s\nTitle: %s", args.URL, title).
				WithMetadata("title", title)
			if resp != nil {
				res.WithMetadata("status", resp.Status())
			}
			return res, nil
		})
}

type noArgs struct{}

func historyCommand(env *Env, name, description string, step func(playwright.Page) (playwright.Response, error)) tools.Tool {
	return define(env, name, description,
		tools.BaseToolSchema(map[string]interface{}{}, nil),
		func(ctx context.Context, s *browser.Session, _ *noArgs) (*tools.Result, error) {
			page, err := s.ActivePage()
			if err != nil {
				return nil, err
			}
			if _, err := step(page); err != nil {
				return nil, err
			}
			title, _ := page.Title()
			return pageResult(page, "%s done\nTitle: %s", name, title), nil
		})
}

func backCommand(env *Env) tools.Tool {
	return historyCommand(env, "back", "Go back one entry in the active tab's history.",
		func(p playwright.Page) (playwright.Response, error) { return p.GoBack() })
}

func forwardCommand(env *Env) tools.Tool {
	return historyCommand(env, "forward", "Go forward one entry in the active tab's history.",
		func(p playwright.Page) (playwright.Response, error) { return p.GoForward() })
}

func reloadCommand(env *Env) tools.Tool {
	return historyCommand(env, "reload", "Reload the active tab.",
		func(p playwright.Page) (playwright.Response, error) { return p.Reload() })
}

func getURLCommand(env *Env) tools.Tool {
	return define(env, "getUrl", "Return the URL of the active tab.",
		tools.BaseToolSchema(map[string]interface{}{}, nil),
		func(ctx context.Context, s *browser.Session, _ *noArgs) (*tools.Result, error) {
			page, err := s.ActivePage()
			if err != nil {
				return nil, err
			}
			url := page.URL()
			return tools.TextResult("%s", url).WithMetadata("url", url), nil
		})
}

func getTitleCommand(env *Env) tools.Tool {
	return define(env, "getTitle", "Return the title of the active tab.",
		tools.BaseToolSchema(map[string]interface{}{}, nil),
		func(ctx context.Context, s *browser.Session, _ *noArgs) (*tools.Result, error) {
			page, err := s.ActivePage()
			if err != nil {
				return nil, err
			}
			title, err := page.Title()
			if err != nil {
				return nil, err
			}
			return tools.TextResult("%s", title).WithMetadata("title", title), nil
		})
}

type waitForURLArgs struct {
	URL     string   `xml:"url"`
	Timeout *float64 `xml:"timeout"`
}

func (a *waitForURLArgs) validate() error {
	if err := required("url", a.URL); err != nil {
		return err
	}
	return validTimeout(a.Timeout)
}

func waitForURLCommand(env *Env) tools.Tool {
	return define(env, "waitForUrl",
		"Wait until the active tab's URL matches a URL or glob pattern (e.g. '**/dashboard').",
		tools.BaseToolSchema(map[string]interface{}{
			"url":     prop("string", "Exact URL or glob pattern to wait for"),
			"timeout": prop("number", "Maximum wait in milliseconds. Default: 30000"),
		}, []string{"url"}),
		func(ctx context.Context, s *browser.Session, args *waitForURLArgs) (*tools.Result, error) {
			page, err := s.ActivePage()
			if err != nil {
				return nil, err
			}
			timeout := timeoutMillis(args.Timeout)
			if err := page.WaitForURL(args.URL, playwright.PageWaitForURLOptions{Timeout: &timeout}); err != nil {
				return nil, err
			}
			return pageResult(page, "URL matched %s", args.URL), nil
		})
}
