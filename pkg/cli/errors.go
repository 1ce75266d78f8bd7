package cli

import (
	"errors"
	"fmt"
)

// Process exit codes.
const (
	// ExitOK means every descriptor was valid.
	ExitOK = 0
	// ExitInvalid means at least one descriptor failed validation.
	ExitInvalid = 1
	// ExitFailure means the command itself failed: bad flags, unreadable
	// configuration, storage errors.
	ExitFailure = 2
)

// ErrInvalidDescriptors is returned by commands that validated every input
// but found at least one invalid descriptor.
var ErrInvalidDescriptors = errors.New("invalid descriptors")

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrInvalidDescriptors):
		return ExitInvalid
	default:
		return ExitFailure
	}
}
