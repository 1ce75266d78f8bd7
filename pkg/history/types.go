package history

import (
	"context"
	"time"
)

// Record is the audit entry for one validation run. Descriptors are not
// stored; DescriptorHash identifies the exact input that was validated.
type Record struct {
	// Identity
	ID        string `json:"id"`                   // UUID v4
	RequestID string `json:"request_id,omitempty"` // HTTP request ID when validated by the server

	// Source
	AppName string `json:"appname"` // Descriptor appname, possibly invalid
	Source  string `json:"source"`  // File path or request name
	Kind    string `json:"kind"`    // "file", "stdin", "http", "git"
	Commit  string `json:"commit,omitempty"`

	// DescriptorHash is the SHA-256 of the descriptor bytes.
	DescriptorHash string `json:"descriptor_hash"`
	Size           int    `json:"size"`

	// Outcome
	Valid      bool          `json:"valid"`
	ErrorCount int           `json:"error_count"`
	Errors     []ErrorEntry  `json:"errors,omitempty"`
	Duration   time.Duration `json:"duration"`

	RecordedAt time.Time `json:"recorded_at"`
}

// ErrorEntry is one reported violation.
type ErrorEntry struct {
	Path    string `json:"path"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// Query defines filter parameters for history records. Zero values do not
// filter.
type Query struct {
	// Time range (inclusive)
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// Filters
	IDs     []string `json:"ids,omitempty"`
	AppName string   `json:"appname,omitempty"`
	Kind    string   `json:"kind,omitempty"`
	Valid   *bool    `json:"valid,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// SortOrder orders by RecordedAt: "desc" (default) or "asc".
	SortOrder string `json:"sort_order,omitempty"`
}

// Sort orders.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// DefaultQueryLimit caps Query results when Limit is unset.
const DefaultQueryLimit = 100

// Storage is implemented by history backends. Implementations must be safe
// for concurrent use.
type Storage interface {
	// Store persists a record.
	Store(ctx context.Context, record *Record) error

	// Query returns the records matching the filters, newest first unless
	// SortOrder is "asc". An empty result is not an error.
	Query(ctx context.Context, query *Query) ([]*Record, error)

	// Count returns the number of records matching the filters. Limit and
	// Offset are ignored.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes the records matching the filters and returns how many
	// were deleted. Limit and Offset are ignored.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the backend.
	Close() error
}

// Matches reports whether r satisfies the filters of q. Backends that filter
// in memory use it.
func (q *Query) Matches(r *Record) bool {
	if q == nil {
		return true
	}
	if q.StartTime != nil && r.RecordedAt.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && r.RecordedAt.After(*q.EndTime) {
		return false
	}
	if len(q.IDs) > 0 && !containsString(q.IDs, r.ID) {
		return false
	}
	if q.AppName != "" && r.AppName != q.AppName {
		return false
	}
	if q.Kind != "" && r.Kind != q.Kind {
		return false
	}
	if q.Valid != nil && r.Valid != *q.Valid {
		return false
	}
	return true
}

// Bool returns a pointer to b, for Query.Valid.
func Bool(b bool) *bool {
	return &b
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
