package browser

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/browsercmd/pkg/agent/tools"
	"github.com/entrhq/browsercmd/pkg/browser"
)

type screenshotArgs struct {
	FullPage bool   `xml:"fullPage"`
	Selector string `xml:"selector"`
	Path     string `xml:"path"`
}

func screenshotCommand(env *Env) tools.Tool {
	return define(env, "screenshot",
		"Capture a PNG screenshot of the viewport, the full page or one element. The image is returned; with path it is also saved inside the workspace.",
		tools.BaseToolSchema(map[string]interface{}{
			"fullPage": prop("boolean", "Capture the whole scrollable page instead of the viewport. Default: false"),
			"selector": selectorProp("capture"),
			"path":     prop("string", "Optional file path inside the workspace to save the PNG to"),
		}, nil),
		func(ctx context.Context, s *browser.Session, args *screenshotArgs) (*tools.Result, error) {
			page, err := s.ActivePage()
			if err != nil {
				return nil, err
			}

			var data []byte
			what := "viewport"
			if args.Selector != "" {
				el, err := target(s, args.Selector)
				if err != nil {
					return nil, err
				}
				data, err = el.Screenshot()
				if err != nil {
					return nil, err
				}
				what = args.Selector
			} else {
				data, err = page.Screenshot(playwright.PageScreenshotOptions{FullPage: &args.FullPage})
				if err != nil {
					return nil, err
				}
				if args.FullPage {
					what = "full page"
				}
			}

			note := fmt.Sprintf("Screenshot of %s (%d bytes)", what, len(data))
			var saved string
			if args.Path != "" {
				if saved, err = env.writeFile("screenshot", args.Path, data); err != nil {
					return nil, err
				}
				note += ", saved to " + saved
			}

			res := pageResult(page, "%s", note).WithImage(data, "image/png")
			if saved != "" {
				res.WithMetadata("path", saved)
			}
			return res, nil
		})
}

type snapshotArgs struct {
	Interactive bool `xml:"interactive"`
	Compact     bool `xml:"compact"`
	MaxDepth    int  `xml:"maxDepth"`
}

func (a *snapshotArgs) options() browser.SnapshotOptions {
	return browser.SnapshotOptions{Interactive: a.Interactive, Compact: a.Compact, MaxDepth: a.MaxDepth}
}

func (a *snapshotArgs) validate() error {
	return a.options().Validate()
}

func snapshotCommand(env *Env) tools.Tool {
	return define(env, "snapshot",
		`Capture the accessibility tree of the active tab as text. Interactive elements carry a reference like [ref=e3]
that element commands accept as selector ('e3' or '@e3'). A new snapshot or a navigation of the tab invalidates earlier references.
A bare token always means the element of the latest snapshot. Pin it to a snapshot as 'e3#2' to have the command fail
instead once a newer snapshot exists.`,
		tools.BaseToolSchema(map[string]interface{}{
			"interactive": prop("boolean", "List only interactive elements (buttons, links, inputs, ...) as a flat list. Default: false"),
			"compact":     prop("boolean", "Drop unnamed structural nodes without content. Default: false"),
			"maxDepth":    prop("integer", "Render only this many tree levels; 0 means unlimited"),
		}, nil),
		func(ctx context.Context, s *browser.Session, args *snapshotArgs) (*tools.Result, error) {
			snap, err := s.Snapshot(args.options())
			if err != nil {
				return nil, err
			}
			page, err := s.ActivePage()
			if err != nil {
				return nil, err
			}

			text := strings.TrimRight(snap.Text, "\n")
			if text == "" {
				text = "(empty page)"
			}
			var header strings.Builder
			fmt.Fprintf(&header, "Snapshot #%d, %d references", snap.Generation, len(snap.Refs))
			if len(snap.Refs) > 0 {
				fmt.Fprintf(&header, " (pin as e<N>#%d, e.g. %s)", snap.Generation, snap.Refs[0])
			}
			if len(snap.Retargeted) > 0 {
				fmt.Fprintf(&header, "\nNow pointing at different elements than in snapshot #%d: %s",
					snap.Generation-1, strings.Join(snap.Retargeted, ", "))
			}
			return pageResult(page, "%s\n\n%s", header.String(), text).
				WithMetadata("generation", snap.Generation).
				WithMetadata("refs", len(snap.Refs)).
				WithMetadata("retargeted", snap.Retargeted), nil
		})
}

var pdfConfigOnce sync.Once

// pdfPageCount reads the number of pages of a PDF document.
func pdfPageCount(data []byte) (int, error) {
	pdfConfigOnce.Do(func() {
		// keep pdfcpu from creating its configuration directory
		model.ConfigPath = "disable"
	})
	return api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
}

type pdfArgs struct {
	Path string `xml:"path"`
}

func (a *pdfArgs) validate() error {
	return required("path", a.Path)
}

func pdfCommand(env *Env) tools.Tool {
	return define(env, "pdf",
		"Render the active tab to a PDF file inside the workspace. Only supported by headless Chromium.",
		tools.BaseToolSchema(map[string]interface{}{
			"path": prop("string", "File path inside the workspace, e.g. 'out/page.pdf'"),
		}, []string{"path"}),
		func(ctx context.Context, s *browser.Session, args *pdfArgs) (*tools.Result, error) {
			page, err := s.ActivePage()
			if err != nil {
				return nil, err
			}
			data, err := page.PDF()
			if err != nil {
				return nil, err
			}
			saved, err := env.writeFile("pdf", args.Path, data)
			if err != nil {
				return nil, err
			}

			pages, err := pdfPageCount(data)
			if err != nil {
				env.logger().Debugf("could not count pages of %s: %v", saved, err)
				return pageResult(page, "Saved PDF to %s (%d bytes, page count unavailable)", saved, len(data)).
					WithMetadata("path", saved), nil
			}
			return pageResult(page, "Saved %d-page PDF to %s (%d bytes)", pages, saved, len(data)).
				WithMetadata("path", saved).
				WithMetadata("pages", pages), nil
		})
}

type extractContentArgs struct {
	Selector  string `xml:"selector"`
	Format    string `xml:"format"`
	MaxLength *int   `xml:"maxLength"`

	format browser.ContentFormat
}

func (a *extractContentArgs) validate() error {
	format, err := browser.ParseContentFormat(a.Format)
	if err != nil {
		return err
	}
	a.format = format
	if a.MaxLength != nil && (*a.MaxLength < 100 || *a.MaxLength > 100000) {
		return browser.Errorf(browser.KindValidation, "maxLength must be between 100 and 100000, got %d", *a.MaxLength)
	}
	return nil
}

func extractContentCommand(env *Env) tools.Tool {
	return define(env, "extractContent",
		"Extract the readable content of the active tab, or of one element, without scripts, styles and other noise.",
		tools.BaseToolSchema(map[string]interface{}{
			"selector":  selectorProp("extract"),
			"format":    prop("string", "'markdown' (default), 'text' or 'html'"),
			"maxLength": prop("integer", "Maximum characters of content. Default: 10000"),
		}, nil),
		func(ctx context.Context, s *browser.Session, args *extractContentArgs) (*tools.Result, error) {
			maxLength := browser.DefaultMaxLength
			if args.MaxLength != nil {
				maxLength = *args.MaxLength
			}
			content, err := s.ExtractContent(args.Selector, args.format, maxLength)
			if err != nil {
				return nil, err
			}
			page, err := s.ActivePage()
			if err != nil {
				return nil, err
			}

			var b strings.Builder
			if content.Title != "" {
				fmt.Fprintf(&b, "Title: %s\n", content.Title)
			}
			if content.Description != "" {
				fmt.Fprintf(&b, "Description: %s\n", content.Description)
			}
			b.WriteString("\n")
			b.WriteString(content.Body)
			if content.Truncated {
				fmt.Fprintf(&b, "\n\n[content truncated at %d characters]", maxLength)
			}

			return pageResult(page, "%s", strings.TrimSpace(b.String())).
				WithMetadata("title", content.Title).
				WithMetadata("format", string(args.format)).
				WithMetadata("truncated", content.Truncated), nil
		})
}

func getTextCommand(env *Env) tools.Tool {
	return define(env, "getText",
		"Return the rendered text of an element.",
		tools.BaseToolSchema(map[string]interface{}{
			"selector": selectorProp("read"),
		}, []string{"selector"}),
		func(ctx context.Context, s *browser.Session, args *elementArgs) (*tools.Result, error) {
			el, err := target(s, args.Selector)
			if err != nil {
				return nil, err
			}
			text, err := el.InnerText()
			if err != nil {
				return nil, err
			}
			return tools.TextResult("%s", text), nil
		})
}

type getAttributeArgs struct {
	Selector  string `xml:"selector"`
	Attribute string `xml:"attribute"`
}

func (a *getAttributeArgs) validate() error {
	if err := required("selector", a.Selector); err != nil {
		return err
	}
	return required("attribute", a.Attribute)
}

func getAttributeCommand(env *Env) tools.Tool {
	return define(env, "getAttribute",
		"Return the value of an element attribute, e.g. 'href' or 'aria-expanded'. An absent attribute yields an empty value.",
		tools.BaseToolSchema(map[string]interface{}{
			"selector":  selectorProp("read"),
			"attribute": prop("string", "Attribute name"),
		}, []string{"selector", "attribute"}),
		func(ctx context.Context, s *browser.Session, args *getAttributeArgs) (*tools.Result, error) {
			el, err := target(s, args.Selector)
			if err != nil {
				return nil, err
			}
			value, err := el.GetAttribute(args.Attribute)
			if err != nil {
				return nil, err
			}
			return tools.TextResult("%s", value).WithMetadata("attribute", args.Attribute), nil
		})
}
