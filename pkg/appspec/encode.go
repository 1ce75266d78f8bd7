package appspec

import (
	"encoding/json"
	"fmt"

	"sigs.k8s.io/yaml"

	"kae-hq/kae/pkg/appspec/types"
)

// Format is an output encoding for normalized descriptors.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Encode renders a normalized descriptor. Both encodings go through the
// JSON field tags, so targetPort keeps its integer or string form.
func Encode(spec *types.AppSpec, format Format) ([]byte, error) {
	if spec == nil {
		return nil, fmt.Errorf("cannot encode a nil descriptor")
	}

	switch format {
	case FormatYAML, "":
		return yaml.Marshal(spec)
	case FormatJSON:
		data, err := json.MarshalIndent(spec, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported format %q: must be 'yaml' or 'json'", format)
	}
}
