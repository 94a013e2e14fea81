package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/entrhq/browsercmd/pkg/agent/tools"
	"github.com/entrhq/browsercmd/pkg/browser"
)

type newTabArgs struct {
	URL string `xml:"url"`
}

func newTabCommand(env *Env) tools.Tool {
	return define(env, "newTab",
		"Open a new tab, make it active and optionally navigate it to a URL.",
		tools.BaseToolSchema(map[string]interface{}{
			"url": prop("string", "URL to open in the new tab. Default: about:blank"),
		}, nil),
		func(ctx context.Context, s *browser.Session, args *newTabArgs) (*tools.Result, error) {
			if err := env.checkURL("newTab", args.URL); err != nil {
				return nil, err
			}
			index, total, err := s.Tabs.Open(args.URL)
			if err != nil {
				return nil, err
			}
			page, err := s.ActivePage()
			if err != nil {
				return nil, err
			}
			return pageResult(page, "Opened tab %d (%d open)", index, total).
				WithMetadata("index", index).
				WithMetadata("total", total), nil
		})
}

type switchTabArgs struct {
	Index *int `xml:"index"`
}

func (a *switchTabArgs) validate() error {
	if a.Index == nil {
		return browser.Errorf(browser.KindValidation, "index is required")
	}
	return nil
}

func switchTabCommand(env *Env) tools.Tool {
	return define(env, "switchTab",
		"Make the tab at index active. Indices come from listTabs and start at 0.",
		tools.BaseToolSchema(map[string]interface{}{
			"index": prop("integer", "Index of the tab to activate"),
		}, []string{"index"}),
		func(ctx context.Context, s *browser.Session, args *switchTabArgs) (*tools.Result, error) {
			info, err := s.Tabs.Switch(*args.Index)
			if err != nil {
				return nil, err
			}
			return tools.TextResult("Switched to tab %d: %s\nURL: %s", info.Index, info.Title, info.URL).
				WithMetadata("index", info.Index).
				WithMetadata("title", info.Title).
				WithMetadata("url", info.URL), nil
		})
}

func listTabsCommand(env *Env) tools.Tool {
	return define(env, "listTabs",
		"List the open tabs in index order and mark the active one.",
		tools.BaseToolSchema(map[string]interface{}{}, nil),
		func(ctx context.Context, s *browser.Session, _ *noArgs) (*tools.Result, error) {
			tabs := s.Tabs.List()
			if len(tabs) == 0 {
				return tools.TextResult("No open tabs").WithMetadata("tabs", tabs), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "%d open tabs:\n", len(tabs))
			for _, tab := range tabs {
				marker := " "
				if tab.Active {
					marker = "*"
				}
				title := tab.Title
				if title == "" {
					title = "(untitled)"
				}
				fmt.Fprintf(&b, "%s [%d] %s - %s\n", marker, tab.Index, title, tab.URL)
			}
			return tools.TextResult("%s", strings.TrimRight(b.String(), "\n")).WithMetadata("tabs", tabs), nil
		})
}

type closeTabArgs struct {
	Index *int `xml:"index"`
}

func closeTabCommand(env *Env) tools.Tool {
	return define(env, "closeTab",
		`Close the tab at index, or the active tab. When the active tab closes, the tab that moves into its index
becomes active, or the last tab if it was the last one. Closing a tab renumbers the tabs after it.`,
		tools.BaseToolSchema(map[string]interface{}{
			"index": prop("integer", "Index of the tab to close. Default: the active tab"),
		}, nil),
		func(ctx context.Context, s *browser.Session, args *closeTabArgs) (*tools.Result, error) {
			closed, remaining, err := s.Tabs.Close(args.Index)
			if err != nil {
				return nil, err
			}

			page, active := s.Tabs.Active()
			if page == nil {
				return tools.TextResult("Closed tab %d, no tabs left", closed).
					WithMetadata("closed", closed).
					WithMetadata("remaining", remaining), nil
			}
			return pageResult(page, "Closed tab %d (%d remaining), tab %d is active", closed, remaining, active).
				WithMetadata("closed", closed).
				WithMetadata("remaining", remaining).
				WithMetadata("active", active), nil
		})
}
