package schema

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/util/validation"
	"k8s.io/apimachinery/pkg/util/validation/field"

	specErrors "kae-hq/kae/pkg/appspec/errors"
	"kae-hq/kae/pkg/appspec/types"
)

// loadStandalone runs a schema's load on raw as a document root and converts
// collected violations into an *errors.ErrorList. Every load records
// violations in errs and reports whether its value was clean.
func loadStandalone[T any](fn func(interface{}, *field.Path, *specErrors.ErrorList) (*T, bool), raw map[string]interface{}) (*T, error) {
	errs := specErrors.NewErrorList()
	out, _ := fn(raw, nil, errs)
	if errs.HasErrors() {
		return nil, errs
	}
	return out, nil
}

// ConfigMapSchema validates a config file mount.
type ConfigMapSchema struct {
	opts Options
}

// NewConfigMapSchema creates a config map schema.
func NewConfigMapSchema(opts Options) *ConfigMapSchema {
	return &ConfigMapSchema{opts: opts.withDefaults()}
}

// Load validates raw and returns the normalized config map.
func (s *ConfigMapSchema) Load(raw map[string]interface{}) (*types.ConfigMap, error) {
	return loadStandalone(s.load, raw)
}

func (s *ConfigMapSchema) load(v interface{}, path *field.Path, errs *specErrors.ErrorList) (*types.ConfigMap, bool) {
	start := errs.Count()
	o, ok := asObject(v, path, errs, s.opts.StrictFields)
	if !ok {
		return nil, false
	}
	o.checkKnown("dir", "key", "filename")

	cm := &types.ConfigMap{}

	if dir, ok := o.stringAt("dir", true); ok {
		errs.AddAt(o.childString("dir"), ValidateAbsolutePath(dir))
		cm.Dir = dir
	}

	if key, ok := o.stringAt("key", true); ok {
		if key == "" {
			errs.AddError(specErrors.ErrorTypeFormat, o.childString("key"), "key must not be empty")
		}
		cm.Key = key
	}

	filename, _ := o.stringAt("filename", false)
	if filename == "" {
		filename = cm.Key
	}
	cm.Filename = filename

	return cm, errs.Count() == start
}

// SecretSchema validates secret-to-environment bindings.
type SecretSchema struct {
	opts Options
}

// NewSecretSchema creates a secret schema.
func NewSecretSchema(opts Options) *SecretSchema {
	return &SecretSchema{opts: opts.withDefaults()}
}

// Load validates raw and returns the normalized secret.
func (s *SecretSchema) Load(raw map[string]interface{}) (*types.Secret, error) {
	return loadStandalone(s.load, raw)
}

func (s *SecretSchema) load(v interface{}, path *field.Path, errs *specErrors.ErrorList) (*types.Secret, bool) {
	start := errs.Count()
	o, ok := asObject(v, path, errs, s.opts.StrictFields)
	if !ok {
		return nil, false
	}
	o.checkKnown("envNameList", "keyList")

	sec := &types.Secret{}

	envs, envOK := o.stringsAt("envNameList", true)
	if envOK {
		if len(envs) == 0 {
			errs.AddError(specErrors.ErrorTypeLengthMismatch, o.childString("envNameList"),
				"envNameList must not be empty")
			envOK = false
		}
		for i, name := range envs {
			if msgs := validation.IsEnvVarName(name); len(msgs) > 0 {
				errs.AddError(specErrors.ErrorTypeFormat, o.child("envNameList").Index(i).String(),
					fmt.Sprintf("%q: %s", name, strings.Join(msgs, "; ")))
			}
		}
		sec.EnvNameList = envs
	}

	// keyList defaults only when the field is absent; an explicit empty
	// list is compared like any other.
	if !o.has("keyList") {
		if envOK {
			sec.KeyList = append([]string(nil), envs...)
		}
		return sec, errs.Count() == start
	}

	keys, keysOK := o.stringsAt("keyList", false)
	if keysOK {
		sec.KeyList = keys
		if envOK && len(keys) != len(envs) {
			errs.AddError(specErrors.ErrorTypeLengthMismatch, o.childString("keyList"),
				fmt.Sprintf("keyList has %d entries but envNameList has %d", len(keys), len(envs)))
		}
	}

	return sec, errs.Count() == start
}

// UpdateStrategySchema validates a deployment update strategy.
type UpdateStrategySchema struct {
	opts Options
}

// NewUpdateStrategySchema creates an update strategy schema.
func NewUpdateStrategySchema(opts Options) *UpdateStrategySchema {
	return &UpdateStrategySchema{opts: opts.withDefaults()}
}

var strategyTypes = []string{string(types.StrategyRollingUpdate), string(types.StrategyRecreate)}

// Load validates raw and returns the normalized update strategy.
func (s *UpdateStrategySchema) Load(raw map[string]interface{}) (*types.UpdateStrategy, error) {
	return loadStandalone(s.load, raw)
}

func (s *UpdateStrategySchema) load(v interface{}, path *field.Path, errs *specErrors.ErrorList) (*types.UpdateStrategy, bool) {
	start := errs.Count()
	o, ok := asObject(v, path, errs, s.opts.StrictFields)
	if !ok {
		return nil, false
	}
	o.checkKnown("type", "rollingUpdate")

	us := &types.UpdateStrategy{}

	typ, ok := o.stringAt("type", true)
	if !ok {
		return us, false
	}
	if !contains(strategyTypes, typ) {
		errs.AddErrorWithSuggestion(specErrors.ErrorTypeEnum, o.childString("type"),
			fmt.Sprintf("unknown update strategy %q", typ),
			specErrors.SuggestEnumValue(typ, strategyTypes))
		return us, false
	}
	us.Type = types.StrategyType(typ)

	// rollingUpdate is only meaningful for RollingUpdate and is dropped otherwise.
	if us.Type != types.StrategyRollingUpdate || !o.has("rollingUpdate") {
		return us, errs.Count() == start
	}

	ru, ok := o.objectAt("rollingUpdate", false)
	if !ok {
		return us, false
	}
	ru.checkKnown("maxSurge", "maxUnavailable")

	us.RollingUpdate = &types.RollingUpdate{}
	if surge, ok := ru.stringAt("maxSurge", false); ok {
		errs.AddAt(ru.childString("maxSurge"), ValidatePercentage(surge))
		us.RollingUpdate.MaxSurge = surge
	}
	if unavailable, ok := ru.stringAt("maxUnavailable", false); ok {
		errs.AddAt(ru.childString("maxUnavailable"), ValidatePercentage(unavailable))
		us.RollingUpdate.MaxUnavailable = unavailable
	}

	return us, errs.Count() == start
}

// HPASchema validates a horizontal autoscaling policy.
type HPASchema struct {
	opts Options
}

// NewHPASchema creates an autoscaling schema. The metric-name table comes
// from opts.MetricTargets.
func NewHPASchema(opts Options) *HPASchema {
	return &HPASchema{opts: opts.withDefaults()}
}

// Load validates raw and returns the normalized autoscaling policy.
func (s *HPASchema) Load(raw map[string]interface{}) (*types.HPA, error) {
	return loadStandalone(s.load, raw)
}

func (s *HPASchema) load(v interface{}, path *field.Path, errs *specErrors.ErrorList) (*types.HPA, bool) {
	start := errs.Count()
	o, ok := asObject(v, path, errs, s.opts.StrictFields)
	if !ok {
		return nil, false
	}
	o.checkKnown("minReplicas", "maxReplicas", "metrics")

	hpa := &types.HPA{}

	minReplicas, minOK := o.intAt("minReplicas", true)
	if minOK {
		if minReplicas < 1 {
			errs.AddError(specErrors.ErrorTypeRange, o.childString("minReplicas"),
				fmt.Sprintf("minReplicas must be at least 1, got %d", minReplicas))
			minOK = false
		}
		hpa.MinReplicas = minReplicas
	}

	maxReplicas, maxOK := o.intAt("maxReplicas", true)
	if maxOK {
		hpa.MaxReplicas = maxReplicas
		if minOK && maxReplicas < minReplicas {
			errs.AddError(specErrors.ErrorTypeRange, o.childString("maxReplicas"),
				fmt.Sprintf("maxReplicas (%d) must be greater than or equal to minReplicas (%d)", maxReplicas, minReplicas))
		}
	}

	metrics, ok := o.listAt("metrics", true)
	if ok && len(metrics) == 0 {
		errs.AddError(specErrors.ErrorTypeMissingField, o.childString("metrics"),
			"at least one metric is required")
	}
	for i, m := range metrics {
		if metric, ok := s.loadMetric(m, o.child("metrics").Index(i), errs); ok {
			hpa.Metrics = append(hpa.Metrics, *metric)
		}
	}

	return hpa, errs.Count() == start
}

func (s *HPASchema) loadMetric(v interface{}, path *field.Path, errs *specErrors.ErrorList) (*types.Metric, bool) {
	start := errs.Count()
	o, ok := asObject(v, path, errs, s.opts.StrictFields)
	if !ok {
		return nil, false
	}
	o.checkKnown("name", string(TargetUtilization), string(TargetValue))

	name, ok := o.stringAt("name", true)
	if !ok {
		return nil, false
	}
	supported, known := s.opts.MetricTargets[name]
	if !known {
		errs.AddErrorWithSuggestion(specErrors.ErrorTypeEnum, o.childString("name"),
			fmt.Sprintf("unknown metric %q", name),
			specErrors.SuggestEnumValue(name, s.opts.metricNames()))
		return nil, false
	}

	metric := &types.Metric{Name: name}

	hasUtilization := o.has(string(TargetUtilization))
	hasValue := o.has(string(TargetValue))
	switch {
	case hasUtilization && hasValue:
		errs.AddError(specErrors.ErrorTypeFormat, pathString(path),
			"exactly one of averageUtilization and averageValue must be set")
		return nil, false
	case !hasUtilization && !hasValue:
		errs.AddError(specErrors.ErrorTypeMissingField, pathString(path),
			fmt.Sprintf("one of averageUtilization or averageValue is required for metric %q", name))
		return nil, false
	}

	kind := TargetValue
	if hasUtilization {
		kind = TargetUtilization
	}
	if !containsKind(supported, kind) {
		errs.AddError(specErrors.ErrorTypeEnum, o.childString(string(kind)),
			fmt.Sprintf("metric %q does not support %s (supported: %s)", name, kind, joinKinds(supported)))
		return nil, false
	}

	switch kind {
	case TargetUtilization:
		if u, ok := o.intAt(string(TargetUtilization), true); ok {
			if u < 1 {
				errs.AddError(specErrors.ErrorTypeRange, o.childString(string(TargetUtilization)),
					fmt.Sprintf("averageUtilization must be a positive percentage, got %d", u))
			}
			metric.AverageUtilization = &u
		}
	case TargetValue:
		if q, ok := o.stringAt(string(TargetValue), true); ok {
			if _, err := resource.ParseQuantity(q); err != nil {
				errs.AddError(specErrors.ErrorTypeFormat, o.childString(string(TargetValue)),
					fmt.Sprintf("%q is not a valid quantity: %v", q, err))
			}
			metric.AverageValue = q
		}
	}

	return metric, errs.Count() == start
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func containsKind(list []TargetKind, k TargetKind) bool {
	for _, item := range list {
		if item == k {
			return true
		}
	}
	return false
}

func joinKinds(kinds []TargetKind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
