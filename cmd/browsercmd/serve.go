package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/entrhq/browsercmd/pkg/agent/tools"
	"github.com/entrhq/browsercmd/pkg/browser"
)

// dispatcher runs commands; *browsertool.Registry implements it.
type dispatcher interface {
	Dispatch(ctx context.Context, name string, argumentsXML []byte) *tools.Result
	DispatchCall(ctx context.Context, call *tools.ToolCall) *tools.Result
}

// response is one JSON line written by serve.
type response struct {
	Tool   string        `json:"tool,omitempty"`
	Result *tools.Result `json:"result"`
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Execute XML tool calls read from stdin, one JSON result per line on stdout",
		Long: `serve reads tool calls such as

  <tool>
  <server_name>browser</server_name>
  <tool_name>navigate</tool_name>
  <arguments><url>https://example.com</url></arguments>
  </tool>

from stdin and writes one JSON object per call to stdout. The browser is
started by the first command that needs it and closed when stdin ends.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := newHost(cmd, opts)
			if err != nil {
				return err
			}
			defer h.close()

			return serve(cmd.Context(), os.Stdin, cmd.OutOrStdout(), h.registry)
		},
	}
}

// serve dispatches every complete tool call read from r in order. Text
// outside tool calls is ignored. It returns when r is exhausted or ctx ends.
func serve(ctx context.Context, r io.Reader, w io.Writer, d dispatcher) error {
	reader := bufio.NewReader(r)
	enc := json.NewEncoder(w)

	var pending strings.Builder
	for {
		line, readErr := reader.ReadString('\n')
		pending.WriteString(line)

		// Dispatch every finished call and keep one that is still open
		complete, rest := tools.SplitCompleteToolCalls(pending.String())
		if err := dispatchPending(ctx, complete, enc, d); err != nil {
			return err
		}
		pending.Reset()
		pending.WriteString(rest)

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				if pending.Len() > 0 {
					return enc.Encode(response{Result: tools.ErrorResult(string(browser.KindValidation), "incomplete tool call at end of input")})
				}
				return nil
			}
			return fmt.Errorf("failed to read tool calls: %w", readErr)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func dispatchPending(ctx context.Context, text string, enc *json.Encoder, d dispatcher) error {
	calls, parseErr := tools.ParseToolCalls(text)
	for _, call := range calls {
		res := d.DispatchCall(ctx, call)
		if err := enc.Encode(response{Tool: call.ToolName, Result: res}); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}
	if parseErr != nil {
		res := tools.ErrorResult(string(browser.KindValidation), "invalid tool call: "+parseErr.Error())
		if err := enc.Encode(response{Result: res}); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}
	return nil
}
