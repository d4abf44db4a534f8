package terminal

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kodexArg/terminal-singleton/internal/shared/types"
	"github.com/kodexArg/terminal-singleton/internal/shell"
)

// Provider exposes the shared terminal as a set of tools
type Provider struct {
	term   *Terminal
	logger *zap.Logger
}

// NewProvider creates a new terminal provider
func NewProvider(term *Terminal, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{term: term, logger: logger.Named("provider")}
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "terminal",
		Name:        "Terminal Service",
		Description: "One persistent interactive shell whose state survives between commands",
		Category:    types.CategorySystem,
		Capabilities: []string{
			"pty",
			"shell",
			"persistent",
			"respawn",
		},
		Tools: p.getTools(),
	}
}

// Execute routes to appropriate operation.
//
// A Go error is returned only for an unknown tool or a missing parameter.
// Shell failures come back as an unsuccessful Result so a driver loop can
// keep going.
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case ToolExecuteCommand:
		return p.executeCommand(ctx, params)
	case ToolGetWorkingDirectory:
		return p.getWorkingDirectory(ctx)
	case ToolChangeDirectory:
		return p.changeDirectory(ctx, params)
	case ToolGetLastOutput:
		return p.getLastOutput()
	case ToolGetFullLog:
		return p.getFullLog()
	case ToolCloseTerminal:
		return p.closeTerminal()
	default:
		return nil, fmt.Errorf("unknown tool: %s", toolID)
	}
}

func (p *Provider) getTools() []types.Tool {
	return []types.Tool{
		{
			ID:          ToolExecuteCommand,
			Name:        "Execute Command",
			Description: "Run a command in the persistent shell and return its combined output",
			Parameters: []types.Parameter{
				{
					Name:        "command",
					Type:        "string",
					Description: "Command line, forwarded to the shell verbatim",
					Required:    true,
				},
			},
			Returns: "output",
		},
		{
			ID:          ToolGetWorkingDirectory,
			Name:        "Get Working Directory",
			Description: "Return the shell's current directory",
			Parameters:  []types.Parameter{},
			Returns:     "path",
		},
		{
			ID:          ToolChangeDirectory,
			Name:        "Change Directory",
			Description: "Change the shell's current directory",
			Parameters: []types.Parameter{
				{
					Name:        "path",
					Type:        "string",
					Description: "Target directory, passed to cd verbatim",
					Required:    true,
				},
			},
			Returns: "path",
		},
		{
			ID:          ToolGetLastOutput,
			Name:        "Get Last Output",
			Description: "Return the output of the most recent command",
			Parameters:  []types.Parameter{},
			Returns:     "output",
		},
		{
			ID:          ToolGetFullLog,
			Name:        "Get Full Log",
			Description: "Return every retained command output, oldest first",
			Parameters:  []types.Parameter{},
			Returns:     "log",
		},
		{
			ID:          ToolCloseTerminal,
			Name:        "Close Terminal",
			Description: "Terminate the shell; the next command starts a fresh one",
			Parameters:  []types.Parameter{},
			Returns:     "success",
		},
	}
}

func (p *Provider) executeCommand(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	command, ok := params["command"].(string)
	if !ok {
		return nil, fmt.Errorf("command is required")
	}

	output, err := p.term.Run(ctx, command)
	if err != nil {
		p.logger.Error("Command failed", zap.String("command", command), zap.Error(err))
		return failure(fmt.Sprintf("Error running '%s'", command), err), nil
	}
	p.logger.Info("Command executed", zap.String("command", command))

	return &types.Result{
		Success: true,
		Data:    map[string]interface{}{"output": output},
	}, nil
}

func (p *Provider) getWorkingDirectory(ctx context.Context) (*types.Result, error) {
	path, err := p.term.WorkingDirectory(ctx)
	if err != nil {
		return failure("Error", err), nil
	}

	return &types.Result{
		Success: true,
		Data:    map[string]interface{}{"path": path},
	}, nil
}

func (p *Provider) changeDirectory(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	target, ok := params["path"].(string)
	if !ok {
		return nil, fmt.Errorf("path is required")
	}

	path, err := p.term.ChangeDirectory(ctx, target)
	if err != nil {
		return failure("Error", err), nil
	}

	return &types.Result{
		Success: true,
		Data: map[string]interface{}{
			"path":    path,
			"message": "Changed directory to: " + path,
		},
	}, nil
}

func (p *Provider) getLastOutput() (*types.Result, error) {
	return &types.Result{
		Success: true,
		Data:    map[string]interface{}{"output": p.term.LastOutput()},
	}, nil
}

func (p *Provider) getFullLog() (*types.Result, error) {
	return &types.Result{
		Success: true,
		Data:    map[string]interface{}{"log": p.term.FullLog()},
	}, nil
}

func (p *Provider) closeTerminal() (*types.Result, error) {
	if err := p.term.Close(); err != nil {
		return failure("Error closing terminal", err), nil
	}

	return &types.Result{
		Success: true,
		Data: map[string]interface{}{
			"closed":  true,
			"message": "Terminal closed",
		},
	}, nil
}

// failure renders err as an error-shaped result naming its kind
func failure(prefix string, err error) *types.Result {
	kind := kindOther
	switch k, ok := shell.KindOf(err); {
	case ok:
		kind = k.String()
	case errors.Is(err, ErrChangeDirectory):
		kind = kindCommand
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = kindCanceled
	}

	return types.Failure(fmt.Sprintf("%s: %v", prefix, err), map[string]interface{}{
		"error_kind": kind,
		"retryable":  shell.IsRetryable(err),
	})
}
