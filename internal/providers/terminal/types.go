package terminal

// Tool identifiers served by Provider
const (
	ToolExecuteCommand      = "terminal.execute_command"
	ToolGetWorkingDirectory = "terminal.get_working_directory"
	ToolChangeDirectory     = "terminal.change_directory"
	ToolGetLastOutput       = "terminal.get_last_output"
	ToolGetFullLog          = "terminal.get_full_log"
	ToolCloseTerminal       = "terminal.close_terminal"
)

// Error kinds reported in failed results besides the shell kinds
const (
	kindCommand  = "command"
	kindCanceled = "canceled"
	kindOther    = "unknown"
)
