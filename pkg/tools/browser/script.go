package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/entrhq/browsercmd/pkg/agent/tools"
	"github.com/entrhq/browsercmd/pkg/browser"
)

type evaluateArgs struct {
	Script string `xml:"script"`
}

func (a *evaluateArgs) validate() error {
	return required("script", a.Script)
}

func evaluateCommand(env *Env) tools.Tool {
	return define(env, "evaluate",
		`Run JavaScript in the active tab and return its result. The script is an expression or a function,
e.g. 'document.title' or '() => [...document.links].map(a => a.href)'. Promises are awaited; non-string results are returned as JSON.`,
		tools.BaseToolSchema(map[string]interface{}{
			"script": prop("string", "JavaScript expression or function. Wrap it in CDATA when it contains < or &"),
		}, []string{"script"}),
		func(ctx context.Context, s *browser.Session, args *evaluateArgs) (*tools.Result, error) {
			page, err := s.ActivePage()
			if err != nil {
				return nil, err
			}
			value, err := page.Evaluate(args.Script)
			if err != nil {
				return nil, err
			}
			return pageResult(page, "Result:\n%s", formatValue(value)), nil
		})
}

// formatValue renders a script result: strings as is, undefined and null
// as "undefined", everything else as indented JSON.
func formatValue(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return "undefined"
	case string:
		return v
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
