package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/cartridge/internal/entity"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Selection or validation failure (not found, ambiguous, invalid target, drift)
	ExitCommandError = 2 // Command error (missing directory, unreadable package, write failure)
)

// Error codes reported in CLI output. Engine errors keep their own code.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeOpenFailed  = "E002" // Package could not be opened or created
	ErrCodeWriteFailed = "E003" // Package could not be written
	ErrCodeBadInput    = "E004" // Flag or plan input rejected before touching the package
	ErrCodeDrift       = "E005" // verify found drift or violations
)

// ExitError carries the process exit status of a failed command. A command
// that returns one has already reported the failure through its
// OutputFormatter, so main only exits with Code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter writes command results as text for people or as one
// JSON document per command for scripts. Reports, listings and drift all
// go through Success; failures go through Error or Fail.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the JSON envelope of every command. Data holds the
// operation reports, listing, detail or verify result.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`  // success payload
	Error  *CLIError   `json:"error,omitempty"` // error details
}

// CLIError describes a failure. Code is an entity error code such as
// AMBIGUOUS_SELECTION, or one of the E-codes above for package and input
// problems.
type CLIError struct {
	Code    string      `json:"code"`              // "NOT_FOUND", "E002", etc.
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// Success writes data. Commands with a text form of their own (reports,
// listings, details) only call it in JSON mode.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err and returns the ExitError the command should return.
// Engine errors are reported under their own code with exit status 1;
// anything else uses fallback with exit status 2.
func (f *OutputFormatter) Fail(fallback, message string, err error) error {
	var engErr *entity.Error
	if errors.As(err, &engErr) {
		var details interface{}
		if len(engErr.Matches) > 0 {
			details = map[string]interface{}{"matches": engErr.Matches}
		}
		_ = f.Error(string(engErr.Code), engErr.Error(), details)
		return WrapExitError(ExitFailure, message, err)
	}
	_ = f.Error(fallback, fmt.Sprintf("%s: %v", message, err), nil)
	return WrapExitError(ExitCommandError, message, err)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
