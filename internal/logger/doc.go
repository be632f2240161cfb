// Package logger provides logging facilities for gitcheckpoint.
//
// The Logger interface separates two audiences. Info, Warning and Error are
// debug records written as JSON lines to a log file through zap; they only
// reach the terminal for errors, or for warnings in verbose mode.
// InfoToUser, WarningToUser, Success and StatusMessage are what the person
// running the command sees, colored with fatih/color (NO_COLOR is honoured).
//
// # Usage
//
//	log := logger.NewWithOutput(true, "/path/to/gitcheckpoint.log", true, os.Stdout, os.Stderr)
//	defer log.Close()
//
//	log.Info("analyzing %s", repo)
//	log.Success("Auto checkpoint created: %s", tag)
//
// When file logging is disabled the zap core is a no-op, so debug calls cost
// only the formatting of their message.
package logger
