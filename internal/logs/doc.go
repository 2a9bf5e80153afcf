// Package logs reads the agent's daily log files for the CLI.
//
// It locates the newest drivemover-YYYY-MM-DD.log file, returns its last lines
// with bounded memory, and follows appended lines until the caller's context
// ends, moving to the next day's file when the agent rotates.
package logs
