package browser

import (
	"context"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/browsercmd/pkg/agent/tools"
	"github.com/entrhq/browsercmd/pkg/browser"
)

// maxWait bounds both the fixed wait and explicit wait timeouts.
const maxWait = 5 * time.Minute

var selectorStates = map[string]*playwright.WaitForSelectorState{
	"attached": playwright.WaitForSelectorStateAttached,
	"detached": playwright.WaitForSelectorStateDetached,
	"visible":  playwright.WaitForSelectorStateVisible,
	"hidden":   playwright.WaitForSelectorStateHidden,
}

func validTimeout(timeout *float64) error {
	if timeout == nil {
		return nil
	}
	if *timeout <= 0 || *timeout > float64(maxWait/time.Millisecond) {
		return browser.Errorf(browser.KindValidation, "timeout must be in (0, %d] ms, got %g", maxWait/time.Millisecond, *timeout)
	}
	return nil
}

// timeoutMillis returns the explicit timeout or the 30 second default.
func timeoutMillis(timeout *float64) float64 {
	if timeout != nil {
		return *timeout
	}
	return float64(browser.DefaultTimeout / time.Millisecond)
}

type waitForSelectorArgs struct {
	Selector string   `xml:"selector"`
	State    string   `xml:"state"`
	Timeout  *float64 `xml:"timeout"`
}

func (a *waitForSelectorArgs) validate() error {
	if err := required("selector", a.Selector); err != nil {
		return err
	}
	if a.State == "" {
		a.State = "visible"
	}
	if err := oneOf("state", a.State, "attached", "detached", "visible", "hidden"); err != nil {
		return err
	}
	return validTimeout(a.Timeout)
}

func waitForSelectorCommand(env *Env) tools.Tool {
	return define(env, "waitForSelector",
		"Wait until an element reaches a state. Fails with a timeout error when the state is not reached in time.",
		tools.BaseToolSchema(map[string]interface{}{
			"selector": selectorProp("wait for"),
			"state":    prop("string", "'visible' (default), 'hidden', 'attached' or 'detached'"),
			"timeout":  prop("number", "Maximum wait in milliseconds. Default: 30000"),
		}, []string{"selector"}),
		func(ctx context.Context, s *browser.Session, args *waitForSelectorArgs) (*tools.Result, error) {
			target, err := s.Resolve(args.Selector)
			if err != nil {
				return nil, err
			}
			timeout := timeoutMillis(args.Timeout)
			if err := target.First().WaitFor(playwright.LocatorWaitForOptions{
				State:   selectorStates[args.State],
				Timeout: &timeout,
			}); err != nil {
				return nil, err
			}
			return tools.TextResult("%s is %s", args.Selector, args.State), nil
		})
}

type waitArgs struct {
	Ms int `xml:"ms"`
}

func (a *waitArgs) validate() error {
	if a.Ms < 0 || time.Duration(a.Ms)*time.Millisecond > maxWait {
		return browser.Errorf(browser.KindValidation, "ms must be in [0, %d], got %d", maxWait/time.Millisecond, a.Ms)
	}
	return nil
}

func waitCommand(env *Env) tools.Tool {
	return define(env, "wait",
		"Pause for a fixed number of milliseconds, e.g. to let an animation finish. Prefer waitForSelector or waitForUrl when there is something to wait for.",
		tools.BaseToolSchema(map[string]interface{}{
			"ms": prop("integer", "Milliseconds to wait"),
		}, []string{"ms"}),
		func(ctx context.Context, s *browser.Session, args *waitArgs) (*tools.Result, error) {
			timer := time.NewTimer(time.Duration(args.Ms) * time.Millisecond)
			defer timer.Stop()

			select {
			case <-timer.C:
				return tools.TextResult("Waited %d ms", args.Ms), nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		})
}
