package schema

import (
	"fmt"
	"math"
	"sort"

	"k8s.io/apimachinery/pkg/util/validation/field"

	specErrors "kae-hq/kae/pkg/appspec/errors"
)

// object wraps one raw mapping of the descriptor together with its field
// path and the shared error collector. Accessors record type and presence
// errors at the child path and report whether the value is usable.
type object struct {
	raw    map[string]interface{}
	path   *field.Path
	errs   *specErrors.ErrorList
	strict bool
}

// asObject converts v to an object, recording a format error at path when v
// is not a mapping.
func asObject(v interface{}, path *field.Path, errs *specErrors.ErrorList, strict bool) (*object, bool) {
	m, ok := toMap(v)
	if !ok {
		errs.AddError(specErrors.ErrorTypeFormat, pathString(path),
			fmt.Sprintf("expected a mapping, got %s", kindOf(v)))
		return nil, false
	}
	return &object{raw: m, path: path, errs: errs, strict: strict}, true
}

func toMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func pathString(p *field.Path) string {
	if p == nil {
		return ""
	}
	return p.String()
}

// child returns the field path of name.
func (o *object) child(name string) *field.Path {
	return o.path.Child(name)
}

// childString returns the field path of name as a string.
func (o *object) childString(name string) string {
	return o.child(name).String()
}

// has reports whether name is present with a non-null value.
func (o *object) has(name string) bool {
	v, ok := o.raw[name]
	return ok && v != nil
}

func (o *object) get(name string) (interface{}, bool) {
	v, ok := o.raw[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (o *object) missing(name, example string) {
	o.errs.AddErrorWithSuggestion(specErrors.ErrorTypeMissingField, o.childString(name),
		"field is required", specErrors.SuggestMissingField(name, example))
}

func (o *object) wrongType(name, want string, v interface{}) {
	o.errs.AddError(specErrors.ErrorTypeFormat, o.childString(name),
		fmt.Sprintf("expected %s, got %s", want, kindOf(v)))
}

// stringAt returns the string value of name.
func (o *object) stringAt(name string, required bool) (string, bool) {
	v, ok := o.get(name)
	if !ok {
		if required {
			o.missing(name, "")
		}
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		o.wrongType(name, "a string", v)
		return "", false
	}
	return s, true
}

// intAt returns the integer value of name.
func (o *object) intAt(name string, required bool) (int, bool) {
	v, ok := o.get(name)
	if !ok {
		if required {
			o.missing(name, "")
		}
		return 0, false
	}
	n, ok := toInt(v)
	if !ok {
		if isWholeNumber(v) {
			o.errs.AddError(specErrors.ErrorTypeFormat, o.childString(name),
				fmt.Sprintf("expected an integer between %d and %d, got %v", math.MinInt32, math.MaxInt32, v))
			return 0, false
		}
		o.wrongType(name, "an integer", v)
		return 0, false
	}
	return n, true
}

// boolAt returns the boolean value of name.
func (o *object) boolAt(name string) (bool, bool) {
	v, ok := o.get(name)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	if !ok {
		o.wrongType(name, "a boolean", v)
		return false, false
	}
	return b, true
}

// listAt returns the sequence value of name.
func (o *object) listAt(name string, required bool) ([]interface{}, bool) {
	v, ok := o.get(name)
	if !ok {
		if required {
			o.missing(name, "")
		}
		return nil, false
	}
	l, ok := v.([]interface{})
	if !ok {
		o.wrongType(name, "a list", v)
		return nil, false
	}
	return l, true
}

// stringsAt returns the value of name as a list of strings. Every element
// that is not a string is reported at its index.
func (o *object) stringsAt(name string, required bool) ([]string, bool) {
	l, ok := o.listAt(name, required)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(l))
	valid := true
	for i, item := range l {
		s, isString := item.(string)
		if !isString {
			o.errs.AddError(specErrors.ErrorTypeFormat, o.child(name).Index(i).String(),
				fmt.Sprintf("expected a string, got %s", kindOf(item)))
			valid = false
			continue
		}
		out = append(out, s)
	}
	return out, valid
}

// objectAt returns the mapping value of name as an object.
func (o *object) objectAt(name string, required bool) (*object, bool) {
	v, ok := o.get(name)
	if !ok {
		if required {
			o.missing(name, "")
		}
		return nil, false
	}
	return asObject(v, o.child(name), o.errs, o.strict)
}

// checkKnown reports keys outside known when strict field checking is on.
func (o *object) checkKnown(known ...string) {
	if !o.strict {
		return
	}
	allowed := make(map[string]bool, len(known))
	for _, k := range known {
		allowed[k] = true
	}
	keys := make([]string, 0, len(o.raw))
	for k := range o.raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if allowed[k] {
			continue
		}
		o.errs.AddErrorWithSuggestion(specErrors.ErrorTypeFormat, o.childString(k),
			"unknown field", specErrors.SuggestFieldName(k, known))
	}
}

// toInt accepts whole numbers within the 32-bit range used by every
// numeric descriptor field. Anything else is not an integer.
func toInt(v interface{}) (int, bool) {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int64:
		n = x
	case int32:
		return int(x), true
	case uint64:
		if x > math.MaxInt32 {
			return 0, false
		}
		return int(x), true
	case float64:
		if x != math.Trunc(x) || x < math.MinInt32 || x > math.MaxInt32 {
			return 0, false
		}
		return int(x), true
	default:
		return 0, false
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}

func isWholeNumber(v interface{}) bool {
	switch x := v.(type) {
	case int, int32, int64, uint64:
		return true
	case float64:
		return x == math.Trunc(x) && !math.IsInf(x, 0)
	default:
		return false
	}
}

func kindOf(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case int, int32, int64, uint64:
		return "an integer"
	case float64:
		return "a number"
	case []interface{}:
		return "a list"
	case map[string]interface{}, map[interface{}]interface{}:
		return "a mapping"
	default:
		return fmt.Sprintf("%T", v)
	}
}
