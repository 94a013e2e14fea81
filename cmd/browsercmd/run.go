package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	var reportPath string

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a YAML scenario of browser commands",
		Long: `run executes the steps of a scenario file in order:

  name: sign in
  steps:
    - command: navigate
      args: {url: "https://example.com/login"}
    - command: snapshot
      args: {interactive: true}
    - command: fill
      args: {selector: e1, text: "ada@example.com"}
    - command: click
      args: {selector: e3}

A failed step stops the run unless continue_on_error is set. A step with
expect_error: true passes only when the command fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := LoadScenario(args[0])
			if err != nil {
				return err
			}

			h, err := newHost(cmd, opts)
			if err != nil {
				return err
			}
			defer h.close()

			report := sc.Run(cmd.Context(), h.registry, cmd.OutOrStdout())
			if reportPath != "" {
				if err := writeReport(reportPath, report); err != nil {
					return err
				}
			}
			if !report.Passed() {
				return fmt.Errorf("scenario failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&reportPath, "report", "o", "", "write a JSON report of every step to this file")
	return cmd
}

func writeReport(path string, report *ScenarioReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
