package errors

import (
	"fmt"
	"sort"
	"strings"

	"kae-hq/kae/pkg/appspec/types"
)

// ErrorType categorizes a violation found while loading a descriptor.
type ErrorType string

const (
	ErrorTypeFormat         ErrorType = "format"          // Value fails a regex/shape check
	ErrorTypeEnum           ErrorType = "enum"            // Value not in an allowed fixed set
	ErrorTypeMissingField   ErrorType = "missing_field"   // Required field absent after defaulting
	ErrorTypeRange          ErrorType = "range"           // Numeric ordering/bound violated
	ErrorTypeLengthMismatch ErrorType = "length_mismatch" // Paired lists disagree in length
	ErrorTypeUnresolvedPort ErrorType = "unresolved_port" // Service port target matches no container port
	ErrorTypeDuplicate      ErrorType = "duplicate"       // Name repeated where it must be unique
	ErrorTypeSyntax         ErrorType = "syntax"          // YAML/JSON syntax error
	ErrorTypeIO             ErrorType = "io"              // File I/O error
)

// Error is a single field-scoped violation.
type Error struct {
	Type       ErrorType      // Category of error
	Path       string         // Field path, e.g. "service.ports[0].targetPort"
	Message    string         // Error message
	Location   types.Location // Source location (file, line, column)
	Suggestion string         // Suggested fix (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] ", e.Type))
	if e.Path != "" {
		sb.WriteString(e.Path)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)

	if e.Location.IsValid() {
		sb.WriteString(fmt.Sprintf(" (%s)", e.Location.String()))
	}

	if e.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("\n  = suggestion: %s", e.Suggestion))
	}

	return sb.String()
}

// New creates an error of the given type without a path. Primitive
// validators return these; schemas attach the field path when collecting.
func New(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorList collects violations across a whole descriptor instead of failing
// on the first one.
type ErrorList struct {
	Errors []*Error
}

// NewErrorList creates a new empty error list.
func NewErrorList() *ErrorList {
	return &ErrorList{
		Errors: make([]*Error, 0),
	}
}

// Add appends an error to the list.
func (el *ErrorList) Add(err *Error) {
	el.Errors = append(el.Errors, err)
}

// AddError creates and adds a new error at the given path.
func (el *ErrorList) AddError(errType ErrorType, path, message string) {
	el.Add(&Error{
		Type:    errType,
		Path:    path,
		Message: message,
	})
}

// AddErrorWithSuggestion creates and adds a new error with a suggestion.
func (el *ErrorList) AddErrorWithSuggestion(errType ErrorType, path, message, suggestion string) {
	el.Add(&Error{
		Type:       errType,
		Path:       path,
		Message:    message,
		Suggestion: suggestion,
	})
}

// AddAt records err under path. Errors that are not *Error are recorded as
// format errors.
func (el *ErrorList) AddAt(path string, err error) {
	if err == nil {
		return
	}
	if e, ok := err.(*Error); ok {
		cp := *e
		cp.Path = path
		el.Add(&cp)
		return
	}
	el.AddError(ErrorTypeFormat, path, err.Error())
}

// HasErrors returns true if the error list contains any errors.
func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

// Count returns the number of errors in the list.
func (el *ErrorList) Count() int {
	return len(el.Errors)
}

// Error implements the error interface.
// It returns all errors formatted as a single string.
func (el *ErrorList) Error() string {
	if !el.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d error(s):\n", el.Count()))

	for _, err := range el.Errors {
		sb.WriteString("  ")
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}

	return sb.String()
}

// ToError returns nil if the error list is empty, otherwise returns the error list itself.
func (el *ErrorList) ToError() error {
	if !el.HasErrors() {
		return nil
	}
	return el
}

// HasErrorType returns true if the error list contains at least one error of the given type.
func (el *ErrorList) HasErrorType(errType ErrorType) bool {
	for _, err := range el.Errors {
		if err.Type == errType {
			return true
		}
	}
	return false
}

// ByPath returns all errors recorded at exactly path.
func (el *ErrorList) ByPath(path string) []*Error {
	var result []*Error
	for _, err := range el.Errors {
		if err.Path == path {
			result = append(result, err)
		}
	}
	return result
}

// Report groups error messages by field path.
func (el *ErrorList) Report() Report {
	report := make(Report)
	for _, err := range el.Errors {
		report[err.Path] = append(report[err.Path], err.Message)
	}
	return report
}

// Report maps a field path to one or more human-readable violation messages.
type Report map[string][]string

// Paths returns the report's field paths in sorted order.
func (r Report) Paths() []string {
	paths := make([]string, 0, len(r))
	for p := range r {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
