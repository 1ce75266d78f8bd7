// Package errors provides field-scoped error types for descriptor validation.
//
// Every violation carries a kind, the dotted/indexed path of the offending
// field and, when the descriptor came from a file, its source location.
//
// # Error Types
//
// ErrorTypeFormat: value fails a regex or shape check
//
// ErrorTypeEnum: value not in an allowed fixed set
//
// ErrorTypeMissingField: required field absent after defaulting
//
// ErrorTypeRange: numeric bound or ordering violated (maxReplicas < minReplicas)
//
// ErrorTypeLengthMismatch: paired lists disagree in length
//
// ErrorTypeUnresolvedPort: a service port target matches no container port
//
// ErrorTypeDuplicate: a name that must be unique is repeated
//
// ErrorTypeSyntax, ErrorTypeIO: the descriptor could not be read or decoded
//
// # Basic Usage
//
// Accumulate errors across a descriptor:
//
//	errList := errors.NewErrorList()
//	errList.AddError(errors.ErrorTypeMissingField, "service.ports", "at least one port is required")
//	errList.AddAt("appname", schema.ValidateAppName("Hello_World"))
//
//	if errList.HasErrors() {
//	    return errList.ToError()
//	}
//
// Group messages by path for a report:
//
//	for _, path := range errList.Report().Paths() {
//	    fmt.Println(path, errList.Report()[path])
//	}
package errors
