package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/kodexArg/terminal-singleton/internal/config"
	"github.com/kodexArg/terminal-singleton/internal/providers/terminal"
)

// rootFlags override environment configuration when set explicitly
type rootFlags struct {
	shell       string
	shellArgs   []string
	dir         string
	timeout     int
	logLevel    string
	logDev      bool
	metricsAddr string
	prompt      string
}

// NewRootCommand builds the terminal-singleton command: with no arguments it
// runs the REPL, and `exec` runs a single command.
func NewRootCommand() *cobra.Command {
	var f rootFlags

	rootCmd := &cobra.Command{
		Use:   "terminal-singleton",
		Short: "Drive one persistent shell line by line",
		Long: `Reads lines from standard input and runs each one in the same long-lived
shell, so the working directory and exported variables carry over.

Lines starting with ':' are driver commands:
  :pwd          print the working directory
  :cd <path>    change directory
  :last         print the last output
  :log          print every retained output
  :close        terminate the shell (the next line starts a new one)
  :quit         exit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newAppFromFlags(cmd, f)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			serverErr := app.StartServer(ctx)

			prompt := f.prompt
			if !cmd.Flags().Changed("prompt") && !isInteractive(cmd) {
				prompt = ""
			}

			repl := NewREPL(app.Provider, cmd.InOrStdin(), cmd.OutOrStdout(), prompt)
			if err := repl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			cancel()
			return <-serverErr
		},
	}

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&f.shell, "shell", "s", "", "Shell executable (env SHELL_PATH)")
	flags.StringSliceVarP(&f.shellArgs, "shell-arg", "a", nil, "Argument passed to the shell, repeatable (env SHELL_ARGS)")
	flags.StringVarP(&f.dir, "dir", "C", "", "Initial working directory (env SHELL_DIR)")
	flags.IntVarP(&f.timeout, "timeout", "t", 0, "Seconds to wait for each command (env SHELL_TIMEOUT)")
	flags.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error (env LOG_LEVEL)")
	flags.BoolVar(&f.logDev, "log-dev", false, "Human-readable development logs (env LOG_DEV)")
	flags.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address (env METRICS_ADDR)")
	rootCmd.Flags().StringVarP(&f.prompt, "prompt", "p", "> ", "Prompt shown before each line on a terminal")

	rootCmd.AddCommand(newExecCmd(&f))

	return rootCmd
}

func newExecCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "exec <command...>",
		Aliases: []string{"x"},
		Short:   "Run one command in a fresh shell and print its output",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppFromFlags(cmd, *f)
			if err != nil {
				return err
			}
			defer app.Close()

			line := strings.Join(args, " ")
			res, err := app.Provider.Execute(cmd.Context(), terminal.ToolExecuteCommand,
				map[string]interface{}{"command": line}, nil)
			if err != nil {
				return err
			}
			if !res.Success {
				return errors.New(*res.Error)
			}

			if out, _ := res.Data["output"].(string); out != "" {
				fmt.Fprintln(cmd.OutOrStdout(), out)
			}
			return nil
		},
	}
}

// newAppFromFlags loads the environment, applies explicitly set flags and
// wires the application.
func newAppFromFlags(cmd *cobra.Command, f rootFlags) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("shell") {
		cfg.Shell.Path = f.shell
	}
	if flags.Changed("shell-arg") {
		cfg.Shell.Args = f.shellArgs
	}
	if flags.Changed("dir") {
		cfg.Shell.Dir = f.dir
	}
	if flags.Changed("timeout") {
		cfg.Shell.TimeoutSeconds = f.timeout
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if flags.Changed("log-dev") {
		cfg.Logging.Development = f.logDev
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = f.metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewApp(cfg)
}

func isInteractive(cmd *cobra.Command) bool {
	in, ok := cmd.InOrStdin().(*os.File)
	return ok && isatty.IsTerminal(in.Fd())
}
