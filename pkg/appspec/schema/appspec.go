package schema

import (
	"fmt"

	"k8s.io/apimachinery/pkg/util/validation/field"

	specErrors "kae-hq/kae/pkg/appspec/errors"
	"kae-hq/kae/pkg/appspec/types"
)

var appSpecFields = []string{"appname", "type", "builds", "service"}

// AppSpecSchema is the entry point of the schema set. It validates the
// whole descriptor and returns either the normalized tree or every violation
// found in it.
type AppSpecSchema struct {
	opts    Options
	service *ServiceSchema
}

// NewAppSpecSchema creates the top-level schema.
func NewAppSpecSchema(opts Options) *AppSpecSchema {
	opts = opts.withDefaults()
	return &AppSpecSchema{
		opts:    opts,
		service: NewServiceSchema(opts),
	}
}

// Load validates raw. On failure the returned error is an
// *errors.ErrorList and no descriptor is returned.
func (s *AppSpecSchema) Load(raw map[string]interface{}) (*types.AppSpec, error) {
	return loadStandalone(s.load, raw)
}

// LoadInto validates raw, recording violations in errs. The returned
// descriptor is only meaningful when errs gained no entries.
func (s *AppSpecSchema) LoadInto(raw map[string]interface{}, errs *specErrors.ErrorList) *types.AppSpec {
	spec, _ := s.load(raw, nil, errs)
	return spec
}

func (s *AppSpecSchema) load(v interface{}, path *field.Path, errs *specErrors.ErrorList) (*types.AppSpec, bool) {
	start := errs.Count()
	o, ok := asObject(v, path, errs, s.opts.StrictFields)
	if !ok {
		return nil, false
	}
	o.checkKnown(appSpecFields...)

	spec := &types.AppSpec{}

	if name, ok := o.stringAt("appname", true); ok {
		errs.AddAt(o.childString("appname"), ValidateAppName(name))
		spec.AppName = name
	}

	if typ, ok := o.stringAt("type", true); ok {
		allowed := s.opts.appTypeNames()
		if contains(allowed, typ) {
			spec.Type = types.AppType(typ)
		} else {
			errs.AddErrorWithSuggestion(specErrors.ErrorTypeEnum, o.childString("type"),
				fmt.Sprintf("unknown app type %q", typ),
				specErrors.SuggestEnumValue(typ, allowed))
		}
	}

	spec.Builds = s.loadBuilds(o, errs)

	if !o.has("service") {
		o.missing("service", "")
	} else if svc, _ := s.service.load(o.raw["service"], o.child("service"), errs); svc != nil {
		spec.Service = svc
	}

	return spec, errs.Count() == start
}

func (s *AppSpecSchema) loadBuilds(o *object, errs *specErrors.ErrorList) []types.Build {
	list, ok := o.listAt("builds", true)
	if !ok {
		return nil
	}
	if len(list) == 0 {
		errs.AddErrorWithSuggestion(specErrors.ErrorTypeMissingField, o.childString("builds"),
			"at least one build is required",
			specErrors.SuggestMissingField("builds", "[{name: web}]"))
		return nil
	}

	builds := make([]types.Build, 0, len(list))
	seen := make(map[string]int)
	for i, raw := range list {
		b, ok := asObject(raw, o.child("builds").Index(i), errs, s.opts.StrictFields)
		if !ok {
			continue
		}
		b.checkKnown("name")

		name, ok := b.stringAt("name", true)
		if !ok {
			continue
		}
		if err := ValidateTag(name); err != nil {
			errs.AddAt(b.childString("name"), err)
		} else if first, dup := seen[name]; dup {
			errs.AddError(specErrors.ErrorTypeDuplicate, b.childString("name"),
				fmt.Sprintf("build name %q is already used by builds[%d]", name, first))
		} else {
			seen[name] = i
		}
		builds = append(builds, types.Build{Name: name})
	}
	return builds
}
