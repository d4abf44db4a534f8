// Package types provides the tool-call data structures shared by the
// terminal provider and its drivers.
//
// Core Types:
//   - Service: provider definition with its tools
//   - Tool, Parameter: tool specification
//   - Context: execution context for a call
//   - Result: standard operation result
//
// Example Usage:
//
//	res, err := provider.Execute(ctx, "terminal.execute_command",
//	    map[string]interface{}{"command": "ls"}, nil)
//	if err == nil && !res.Success {
//	    fmt.Println(*res.Error)
//	}
package types
