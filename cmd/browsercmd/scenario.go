package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/browsercmd/pkg/agent/tools"
	"github.com/entrhq/browsercmd/pkg/browser"
)

// Scenario is a scripted sequence of browser commands.
type Scenario struct {
	// Name is shown in the run header
	Name string `yaml:"name"`

	// ContinueOnError keeps running the remaining steps after a failed one
	ContinueOnError bool `yaml:"continue_on_error"`

	Steps []Step `yaml:"steps"`
}

// Step is one command of a scenario.
type Step struct {
	Command string                 `yaml:"command"`
	Args    map[string]interface{} `yaml:"args"`

	// ExpectError marks a step that must fail, e.g. a click on a stale reference
	ExpectError bool `yaml:"expect_error"`
}

// StepReport is the outcome of one step.
type StepReport struct {
	Command  string        `json:"command"`
	Passed   bool          `json:"passed"`
	Duration time.Duration `json:"duration"`
	Result   *tools.Result `json:"result"`
}

// ScenarioReport summarizes a run.
type ScenarioReport struct {
	Name    string       `json:"name"`
	Steps   []StepReport `json:"steps"`
	Skipped int          `json:"skipped"`
}

// Passed reports whether every step ran and passed.
func (r *ScenarioReport) Passed() bool {
	if r.Skipped > 0 {
		return false
	}
	for _, s := range r.Steps {
		if !s.Passed {
			return false
		}
	}
	return true
}

// LoadScenario reads and validates a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks that the scenario has steps and every step names a command.
func (s *Scenario) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario has no steps")
	}
	for i, step := range s.Steps {
		if strings.TrimSpace(step.Command) == "" {
			return fmt.Errorf("step %d: command is required", i+1)
		}
	}
	return nil
}

// Run executes the steps in order and prints a status line per step to out.
func (s *Scenario) Run(ctx context.Context, d dispatcher, out io.Writer) *ScenarioReport {
	report := &ScenarioReport{Name: s.Name}
	if s.Name != "" {
		fmt.Fprintln(out, headerStyle.Render(s.Name))
	}

	for i, step := range s.Steps {
		if ctx.Err() != nil {
			report.Skipped = len(s.Steps) - i
			break
		}

		res := step.run(ctx, d)
		report.Steps = append(report.Steps, res)
		printStep(out, i+1, res)

		if !res.Passed && !s.ContinueOnError {
			report.Skipped = len(s.Steps) - i - 1
			break
		}
	}

	passed := 0
	for _, r := range report.Steps {
		if r.Passed {
			passed++
		}
	}
	summary := fmt.Sprintf("%d/%d steps passed", passed, len(s.Steps))
	if report.Passed() {
		fmt.Fprintln(out, passStyle.Render(summary))
	} else {
		fmt.Fprintln(out, errorStyle.Render(summary))
	}
	return report
}

func (st Step) run(ctx context.Context, d dispatcher) StepReport {
	start := time.Now()

	var res *tools.Result
	if argsXML, err := tools.MapToArgumentsXML(st.Args); err != nil {
		res = tools.ErrorResult(string(browser.KindValidation), fmt.Sprintf("%s failed [%s]: %v", st.Command, browser.KindValidation, err))
	} else {
		res = d.Dispatch(ctx, st.Command, argsXML)
	}

	return StepReport{
		Command:  st.Command,
		Passed:   res.IsError == st.ExpectError,
		Duration: time.Since(start),
		Result:   res,
	}
}

func printStep(out io.Writer, n int, r StepReport) {
	mark := passStyle.Render("ok  ")
	if !r.Passed {
		mark = errorStyle.Render("FAIL")
	}

	first, _, _ := strings.Cut(r.Result.Text(), "\n")
	fmt.Fprintf(out, "%s %3d %s %s %s\n",
		mark, n,
		commandStyle.Render(r.Command),
		first,
		detailStyle.Render(r.Duration.Round(time.Millisecond).String()))
}
