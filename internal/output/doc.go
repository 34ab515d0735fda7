// Package output renders ragprompt command results and maps errors to exit codes.
//
// Every command can print either styled, human-readable text or JSON
// (selected with --json). Styles are plain when the writer is not a terminal
// or --color=never is given.
//
//	printer := output.NewPrinter(cmd.OutOrStdout(), jsonMode, isTTY)
//	printer.Box("Resolved prompt", prompt)
//	printer.Error(err)
//
// Errors returned from commands should be *ExitError values built with
// NewUserError or NewSystemError; GetExitCode turns them into process exit
// codes (0 success, 1 user error, 2 system error). In JSON mode an error is
// written as {"error": "message", "code": N}.
package output
