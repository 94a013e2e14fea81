package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/entrhq/browsercmd/pkg/agent/tools"
)

// toolSchema is the JSON form of one command printed by `tools --json`.
type toolSchema struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Schema      map[string]interface{} `json:"input_schema"`
}

func newToolsCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the enabled browser commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := newHost(cmd, opts)
			if err != nil {
				return err
			}
			defer h.close()

			if asJSON {
				return printSchemas(cmd.OutOrStdout(), h.registry.Tools())
			}
			printTools(cmd.OutOrStdout(), h.registry.Tools())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print names, descriptions and input schemas as JSON")
	return cmd
}

func printTools(out io.Writer, list []tools.Tool) {
	for _, t := range list {
		summary, _, _ := strings.Cut(t.Description(), "\n")
		fmt.Fprintf(out, "%s %s\n", commandStyle.Render(t.Name()), detailStyle.Render(summary))
	}
}

func printSchemas(out io.Writer, list []tools.Tool) error {
	schemas := make([]toolSchema, 0, len(list))
	for _, t := range list {
		schemas = append(schemas, toolSchema{Name: t.Name(), Description: t.Description(), Schema: t.Schema()})
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(schemas)
}
