package appspec

import (
	"sort"
	"time"

	specErrors "kae-hq/kae/pkg/appspec/errors"
	"kae-hq/kae/pkg/appspec/types"
)

// Result is the outcome of validating one descriptor. Spec is set only when
// Errors is empty.
type Result struct {
	Spec   *types.AppSpec
	Errors *specErrors.ErrorList

	// Source is the file path or name the descriptor was read from.
	Source string
	// Kind is one of the Source constants.
	Kind string
	// AppName is the descriptor's appname when it could be read, even if
	// the descriptor is invalid.
	AppName string
	// Hash is the hex SHA-256 of the descriptor bytes.
	Hash string
	Size int
	// TooLarge is set by ValidateBytes when the descriptor was rejected
	// for exceeding the size limit.
	TooLarge bool

	Duration time.Duration
}

// Valid reports whether the descriptor passed validation.
func (r *Result) Valid() bool {
	return r.Spec != nil && !r.Errors.HasErrors()
}

// Err returns the error list, or nil when the descriptor is valid.
func (r *Result) Err() error {
	return r.Errors.ToError()
}

// Report groups the error messages by field path.
func (r *Result) Report() specErrors.Report {
	return r.Errors.Report()
}

// ErrorTypes returns the type of every error, one entry per error.
func (r *Result) ErrorTypes() []string {
	out := make([]string, 0, r.Errors.Count())
	for _, e := range r.Errors.Errors {
		out = append(out, string(e.Type))
	}
	return out
}

// IsSyntaxError reports whether the descriptor could not be decoded at all.
func (r *Result) IsSyntaxError() bool {
	return r.Errors.HasErrorType(specErrors.ErrorTypeSyntax)
}

// Entry is the structured form of one error used by JSON and YAML output.
type Entry struct {
	Path       string `json:"path"`
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	File       string `json:"file,omitempty"`
	Line       int    `json:"line,omitempty"`
	Column     int    `json:"column,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Entries returns the errors sorted by source position, then path.
func (r *Result) Entries() []Entry {
	entries := make([]Entry, 0, r.Errors.Count())
	for _, e := range r.Errors.Errors {
		entries = append(entries, Entry{
			Path:       e.Path,
			Kind:       string(e.Type),
			Message:    e.Message,
			File:       e.Location.File,
			Line:       e.Location.Line,
			Column:     e.Location.Column,
			Suggestion: e.Suggestion,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Line != entries[j].Line {
			return entries[i].Line < entries[j].Line
		}
		return entries[i].Path < entries[j].Path
	})
	return entries
}
