package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kodexArg/terminal-singleton/internal/providers/terminal"
	"github.com/kodexArg/terminal-singleton/internal/shared/types"
)

// maxLineBytes bounds one input line. The terminal's canonical line limit
// is far lower, so anything longer could not reach the shell intact anyway.
const maxLineBytes = 1 << 20

// REPL reads lines and runs them through the terminal provider. Failures
// are printed and the loop continues.
type REPL struct {
	provider *terminal.Provider
	in       io.Reader
	out      io.Writer
	prompt   string
}

// NewREPL creates a line driver over provider
func NewREPL(provider *terminal.Provider, in io.Reader, out io.Writer, prompt string) *REPL {
	return &REPL{provider: provider, in: in, out: out, prompt: prompt}
}

// Run processes lines until EOF, ":quit" or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go r.scan(ctx, lines, readErr)

	for {
		r.showPrompt()

		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = l
		}

		quit, err := r.handle(ctx, line)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

// scan feeds lines until EOF. It may outlive Run while blocked on a read.
func (r *REPL) scan(ctx context.Context, lines chan<- string, readErr chan<- error) {
	defer close(lines)

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		readErr <- fmt.Errorf("read input: %w", err)
	}
}

func (r *REPL) showPrompt() {
	if r.prompt != "" {
		fmt.Fprint(r.out, r.prompt)
	}
}

// handle runs one line and reports whether the driver should stop
func (r *REPL) handle(ctx context.Context, line string) (bool, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false, nil
	}
	if !strings.HasPrefix(trimmed, ":") {
		return false, r.call(ctx, terminal.ToolExecuteCommand, map[string]interface{}{"command": line}, "output")
	}

	name, arg, _ := strings.Cut(trimmed, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case ":quit", ":exit":
		return true, nil
	case ":pwd":
		return false, r.call(ctx, terminal.ToolGetWorkingDirectory, nil, "path")
	case ":cd":
		if arg == "" {
			fmt.Fprintln(r.out, "Error: usage :cd <path>")
			return false, nil
		}
		return false, r.call(ctx, terminal.ToolChangeDirectory, map[string]interface{}{"path": arg}, "message")
	case ":last":
		return false, r.call(ctx, terminal.ToolGetLastOutput, nil, "output")
	case ":log":
		return false, r.call(ctx, terminal.ToolGetFullLog, nil, "log")
	case ":close":
		return false, r.call(ctx, terminal.ToolCloseTerminal, nil, "message")
	case ":help":
		fmt.Fprintln(r.out, ":pwd  :cd <path>  :last  :log  :close  :quit")
		return false, nil
	default:
		fmt.Fprintf(r.out, "Error: unknown command %s\n", name)
		return false, nil
	}
}

// call executes toolID and prints the named data field or the error
func (r *REPL) call(ctx context.Context, toolID string, params map[string]interface{}, field string) error {
	res, err := r.provider.Execute(ctx, toolID, params, nil)
	if err != nil {
		return err
	}
	r.print(res, field)
	return nil
}

func (r *REPL) print(res *types.Result, field string) {
	if !res.Success {
		fmt.Fprintln(r.out, *res.Error)
		return
	}
	if text, _ := res.Data[field].(string); text != "" {
		fmt.Fprintln(r.out, text)
	}
}
