package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("gen: missing configuration")
	// ErrGenerationFailed indicates a code generation failure.
	ErrGenerationFailed = errors.New("gen: code generation failed")
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("gen: config error for %s (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("gen: config error for %s: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{Option: option, Value: value, Message: message}
}

// GenerationError represents an error while generating or writing a file.
type GenerationError struct {
	Class   string // class the file is generated for, if any
	File    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("gen: generation error")
	if e.Class != "" {
		b.WriteString(" for class ")
		b.WriteString(e.Class)
	}
	if e.File != "" {
		b.WriteString(" in ")
		b.WriteString(e.File)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(class, file, message string, cause error) *GenerationError {
	return &GenerationError{Class: class, File: file, Message: message, Cause: cause}
}

// IsConfigError reports whether err is a configuration error.
func IsConfigError(err error) bool {
	var e *ConfigError
	return errors.As(err, &e)
}

// IsGenerationError reports whether err is a generation error.
func IsGenerationError(err error) bool {
	var e *GenerationError
	return errors.As(err, &e)
}
