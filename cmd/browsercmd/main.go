// Package main provides browsercmd, a command-line host for the browser
// command set. It serves XML tool calls over stdin/stdout for an external
// decision loop, runs YAML scenarios, and lists the command schemas.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

// rootOptions holds the flags shared by every subcommand.
type rootOptions struct {
	configPath     string
	workspace      string
	allowDirs      []string
	headless       bool
	executablePath string
	viewport       string
	logLevel       string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		stop()
		os.Exit(1)
	}
	stop()
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "browsercmd",
		Short:         "Drive a headless browser through a small command set",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(`{{printf "browsercmd v%s\n" .Version}}`)

	addRootFlags(root, opts)

	root.AddCommand(
		newServeCommand(opts),
		newRunCommand(opts),
		newToolsCommand(opts),
	)
	return root
}

func addRootFlags(cmd *cobra.Command, opts *rootOptions) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default is ~/.browsercmd/config.json)")
	flags.StringVarP(&opts.workspace, "workspace", "w", ".", "directory screenshots and PDFs may be written to")
	flags.StringSliceVar(&opts.allowDirs, "allow-dir", nil, "extra directory outside the workspace that files may be written to (repeatable)")
	flags.BoolVar(&opts.headless, "headless", true, "run the browser without a visible window")
	flags.StringVar(&opts.executablePath, "executable-path", "", "path to a Chromium executable")
	flags.StringVar(&opts.viewport, "viewport", "", "viewport size as WIDTHxHEIGHT, e.g. 1280x720")
	flags.StringVar(&opts.logLevel, "log-level", "", "minimum log level: debug, info, warn or error")
}
