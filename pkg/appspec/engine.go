package appspec

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	specErrors "kae-hq/kae/pkg/appspec/errors"
	"kae-hq/kae/pkg/appspec/parser"
	"kae-hq/kae/pkg/appspec/schema"
	"kae-hq/kae/pkg/appspec/types"
	"kae-hq/kae/pkg/config"
	"kae-hq/kae/pkg/telemetry/logging"
	"kae-hq/kae/pkg/telemetry/metrics"
	"kae-hq/kae/pkg/telemetry/tracing"
)

// Source kinds label where a descriptor came from in metrics, traces and
// history records.
const (
	SourceFile  = "file"
	SourceStdin = "stdin"
	SourceHTTP  = "http"
	SourceGit   = "git"
	SourceRaw   = "raw"
)

// EngineConfig configures an Engine. Every telemetry field is optional.
type EngineConfig struct {
	// Schema options (strict fields, app types, metric table).
	Options schema.Options

	// MaxFileSize bounds a descriptor in bytes. Zero uses the parser default.
	MaxFileSize int64

	Logger  *logging.Logger
	Metrics *metrics.Collector
	Tracer  *tracing.Tracer
}

// Engine runs descriptors through parse, validate and default-fill. It holds
// no mutable state and is safe for concurrent use.
type Engine struct {
	schema      *schema.AppSpecSchema
	maxFileSize int64
	logger      *logging.Logger
	metrics     *metrics.Collector
	tracer      *tracing.Tracer
}

// NewEngine creates an engine. A nil config uses default options and no
// telemetry.
func NewEngine(cfg *EngineConfig) *Engine {
	if cfg == nil {
		cfg = &EngineConfig{Options: schema.DefaultOptions()}
	}

	e := &Engine{
		schema:      schema.NewAppSpecSchema(cfg.Options),
		maxFileSize: cfg.MaxFileSize,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
		tracer:      cfg.Tracer,
	}
	if e.logger == nil {
		e.logger = logging.Discard()
	}
	if e.tracer == nil {
		e.tracer = tracing.Noop()
	}
	return e
}

// OptionsFromConfig converts the validation section of the tool
// configuration into schema options.
func OptionsFromConfig(cfg config.ValidationConfig) schema.Options {
	opts := schema.Options{StrictFields: cfg.StrictFields}

	for _, t := range cfg.AppTypes {
		opts.AppTypes = append(opts.AppTypes, types.AppType(t))
	}
	if len(cfg.MetricTargets) > 0 {
		opts.MetricTargets = make(map[string][]schema.TargetKind, len(cfg.MetricTargets))
		for name, kinds := range cfg.MetricTargets {
			for _, k := range kinds {
				opts.MetricTargets[name] = append(opts.MetricTargets[name], schema.TargetKind(k))
			}
		}
	}
	return opts
}

// ValidateFile reads and validates the descriptor at path. I/O failures are
// reported in the result as io errors.
func (e *Engine) ValidateFile(ctx context.Context, path string) *Result {
	ctx, span := e.tracer.Start(ctx, "appspec.validate_file")
	defer span.End()

	start := time.Now()
	doc, err := e.parser().Parse(path)
	if err != nil {
		return e.finish(ctx, failed(path, SourceFile, nil, err), start)
	}
	return e.finish(ctx, e.validateDocument(doc, SourceFile), start)
}

// ValidateBytes validates a descriptor held in memory. source names the
// descriptor in locations and kind is one of the Source constants.
func (e *Engine) ValidateBytes(ctx context.Context, data []byte, source, kind string) *Result {
	ctx, span := e.tracer.Start(ctx, "appspec.validate")
	defer span.End()

	start := time.Now()
	p := e.parser()
	doc, err := p.ParseBytes(data, source)
	if err != nil {
		res := failed(source, kind, data, err)
		res.TooLarge = int64(len(data)) > p.MaxFileSize()
		return e.finish(ctx, res, start)
	}
	return e.finish(ctx, e.validateDocument(doc, kind), start)
}

// Validate validates an already decoded descriptor. The raw mapping is not
// modified.
func (e *Engine) Validate(ctx context.Context, raw map[string]interface{}) *Result {
	ctx, span := e.tracer.Start(ctx, "appspec.validate_raw")
	defer span.End()

	start := time.Now()
	errs := specErrors.NewErrorList()
	spec := e.schema.LoadInto(raw, errs)

	res := &Result{Source: SourceRaw, Kind: SourceRaw, Errors: errs}
	if spec != nil {
		res.AppName = spec.AppName
	}
	if !errs.HasErrors() {
		res.Spec = spec
	}
	return e.finish(ctx, res, start)
}

func (e *Engine) validateDocument(doc *parser.Document, kind string) *Result {
	errs := specErrors.NewErrorList()
	spec := e.schema.LoadInto(doc.Raw, errs)
	doc.Annotate(errs)

	res := &Result{
		Source: doc.Source,
		Kind:   kind,
		Hash:   hashOf(doc.Data),
		Size:   len(doc.Data),
		Errors: errs,
	}
	// The appname is kept for reporting even when the descriptor is rejected.
	if spec != nil {
		res.AppName = spec.AppName
	}
	if !errs.HasErrors() {
		res.Spec = spec
	}
	return res
}

func (e *Engine) parser() *parser.Parser {
	return parser.NewParser().WithMaxFileSize(e.maxFileSize)
}

// finish stamps the duration and reports the result to the logger, metrics
// and the active span.
func (e *Engine) finish(ctx context.Context, res *Result, start time.Time) *Result {
	res.Duration = time.Since(start)

	span := tracing.SpanFromContext(ctx)
	tracing.SetSourceAttributes(span, res.Kind, res.Source, res.Size)
	appType := ""
	if res.Spec != nil {
		appType = string(res.Spec.Type)
	}
	tracing.SetValidationAttributes(span, res.AppName, appType, res.Valid(), res.Errors.Count())

	if e.metrics != nil {
		e.metrics.RecordValidation(res.Kind, res.Valid(), res.ErrorTypes(), res.Duration, res.Size)
	}

	if res.Valid() {
		e.logger.DebugContext(ctx, "descriptor valid",
			"source", res.Source,
			"appname", res.AppName,
			"duration", res.Duration,
		)
	} else {
		e.logger.DebugContext(ctx, "descriptor invalid",
			"source", res.Source,
			"appname", res.AppName,
			"errors", res.Errors.Count(),
			"duration", res.Duration,
		)
	}
	return res
}

// failed builds the result of a descriptor that could not be parsed.
func failed(source, kind string, data []byte, err error) *Result {
	errs := specErrors.NewErrorList()
	if e, ok := err.(*specErrors.Error); ok {
		errs.Add(e)
	} else {
		errs.AddError(specErrors.ErrorTypeIO, "", err.Error())
	}

	res := &Result{Source: source, Kind: kind, Errors: errs, Size: len(data)}
	if data != nil {
		res.Hash = hashOf(data)
	}
	return res
}

func hashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Load validates raw with default options. On failure the error is an
// *errors.ErrorList.
func Load(raw map[string]interface{}) (*types.AppSpec, error) {
	return schema.NewAppSpecSchema(schema.DefaultOptions()).Load(raw)
}
