package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"kae-hq/kae/pkg/appspec"
	specErrors "kae-hq/kae/pkg/appspec/errors"
	"kae-hq/kae/pkg/history"
	"kae-hq/kae/pkg/telemetry/tracing"
)

// ValidateResponse is the body returned by POST /v1/validate.
type ValidateResponse struct {
	Valid    bool              `json:"valid"`
	Source   string            `json:"source"`
	AppName  string            `json:"appname,omitempty"`
	Hash     string            `json:"hash,omitempty"`
	RecordID string            `json:"record_id,omitempty"`
	Spec     json.RawMessage   `json:"spec,omitempty"`
	Errors   []appspec.Entry   `json:"errors,omitempty"`
	Report   specErrors.Report `json:"report,omitempty"`
}

// HistoryResponse is the body returned by GET /v1/history.
type HistoryResponse struct {
	Records []*history.Record `json:"records"`
	Total   int64             `json:"total"`
}

// ErrorResponse is the body of every non-validation error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleValidate validates the request body as a descriptor. The status is
// 200 when valid, 422 when invalid, 400 when the body is not YAML or JSON
// and 413 when it exceeds either size limit. The optional "name" query parameter labels the descriptor in
// reports and history.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.Server.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "descriptor exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "request body is empty")
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "request"
	}

	res := s.engine.Load().ValidateBytes(ctx, body, name, appspec.SourceHTTP)

	resp := ValidateResponse{
		Valid:   res.Valid(),
		Source:  res.Source,
		AppName: res.AppName,
		Hash:    res.Hash,
	}

	if s.deps.Recorder != nil {
		record, err := s.deps.Recorder.Record(ctx, res)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to record validation", "error", err)
		} else {
			resp.RecordID = record.ID
			tracing.SpanFromContext(ctx).SetAttributes(attribute.String(tracing.AttrHistoryID, record.ID))
		}
	}

	status := http.StatusOK
	switch {
	case res.Valid():
		spec, err := appspec.Encode(res.Spec, appspec.FormatJSON)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to encode normalized descriptor")
			return
		}
		resp.Spec = spec
	case res.TooLarge:
		status = http.StatusRequestEntityTooLarge
		resp.Errors = res.Entries()
	case res.IsSyntaxError():
		status = http.StatusBadRequest
		resp.Errors = res.Entries()
	default:
		status = http.StatusUnprocessableEntity
		resp.Errors = res.Entries()
		resp.Report = res.Report()
	}

	writeJSON(w, status, resp)
}

// handleHistory lists validation records. Query parameters: app, kind,
// valid (true/false), since and until (RFC 3339), limit, offset, order
// (asc/desc).
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	query, err := parseHistoryQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := s.deps.History.Query(r.Context(), query)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "history query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "history query failed")
		return
	}
	total, err := s.deps.History.Count(r.Context(), query)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "history count failed", "error", err)
		writeError(w, http.StatusInternalServerError, "history query failed")
		return
	}

	if records == nil {
		records = []*history.Record{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Records: records, Total: total})
}

func (s *Server) handleHistoryRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	records, err := s.deps.History.Query(r.Context(), &history.Query{IDs: []string{id}, Limit: 1})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "history lookup failed", "error", err, "record_id", id)
		writeError(w, http.StatusInternalServerError, "history query failed")
		return
	}
	if len(records) == 0 {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	writeJSON(w, http.StatusOK, records[0])
}

func parseHistoryQuery(r *http.Request) (*history.Query, error) {
	params := r.URL.Query()
	query := &history.Query{
		AppName:   params.Get("app"),
		Kind:      params.Get("kind"),
		SortOrder: params.Get("order"),
	}

	if query.SortOrder != "" && query.SortOrder != history.SortAsc && query.SortOrder != history.SortDesc {
		return nil, errors.New("order must be asc or desc")
	}
	if v := params.Get("valid"); v != "" {
		valid, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("valid must be true or false")
		}
		query.Valid = &valid
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"since", &query.StartTime}, {"until", &query.EndTime}} {
		if v := params.Get(p.name); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return nil, errors.New(p.name + " must be an RFC 3339 timestamp")
			}
			*p.dst = &t
		}
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &query.Limit}, {"offset", &query.Offset}} {
		if v := params.Get(p.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return nil, errors.New(p.name + " must be a non-negative integer")
			}
			*p.dst = n
		}
	}
	return query, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
