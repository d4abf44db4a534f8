// Package terminal exposes one persistent shell as a service.
//
// Terminal is the facade over shell.Registry: Run always reaches a live
// shell, respawning it when it died or was abandoned after a timeout, while
// LastOutput and FullLog read the current session without spawning.
// Provider publishes the same operations as tools whose failures come back
// as error-shaped results instead of Go errors.
//
// Example Usage:
//
//	term := terminal.New(shell.NewRegistry(opts), logger)
//	defer term.Close()
//
//	dir, err := term.ChangeDirectory(ctx, "/tmp")
//	// dir == "/tmp"
//
//	res, _ := terminal.NewProvider(term, logger).Execute(ctx,
//	    "terminal.execute_command", map[string]interface{}{"command": "ls"}, nil)
//	// res.Data["output"] holds the listing
//
// Tools:
//   - terminal.execute_command: Run a command, return its output
//   - terminal.get_working_directory: Current directory of the shell
//   - terminal.change_directory: cd, then report the new directory
//   - terminal.get_last_output: Output of the latest command
//   - terminal.get_full_log: All retained outputs
//   - terminal.close_terminal: Terminate the shell
package terminal
