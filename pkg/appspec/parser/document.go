package parser

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	specErrors "kae-hq/kae/pkg/appspec/errors"
	"kae-hq/kae/pkg/appspec/types"
)

// Document is a decoded descriptor together with the source position of
// every field in it.
type Document struct {
	Source string
	Raw    map[string]interface{}
	Data   []byte

	// locations maps a field path ("service.ports[0].targetPort") to the
	// position of its key, or of the item for sequence elements.
	locations map[string]types.Location
}

// Location returns the source position of path. A path that does not
// exist in the document (a missing required field, say) resolves to its
// nearest existing ancestor.
func (d *Document) Location(path string) types.Location {
	for p := path; p != ""; p = parentPath(p) {
		if loc, ok := d.locations[p]; ok {
			return loc
		}
	}
	return types.Location{File: d.Source}
}

// Annotate sets the location of every error in errs that has none.
func (d *Document) Annotate(errs *specErrors.ErrorList) {
	if errs == nil {
		return
	}
	for _, e := range errs.Errors {
		if !e.Location.IsValid() {
			e.Location = d.Location(e.Path)
		}
	}
}

func (d *Document) index(node *yaml.Node, prefix string) {
	if node == nil {
		return
	}
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}

	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			path := key.Value
			if prefix != "" {
				path = prefix + "." + key.Value
			}
			d.locations[path] = d.at(key)
			d.index(value, path)
		}
	case yaml.SequenceNode:
		for i, item := range node.Content {
			path := prefix + "[" + strconv.Itoa(i) + "]"
			d.locations[path] = d.at(item)
			d.index(item, path)
		}
	}
}

func (d *Document) at(node *yaml.Node) types.Location {
	return types.Location{File: d.Source, Line: node.Line, Column: node.Column}
}

// parentPath strips the last ".name" or "[i]" element of path.
func parentPath(path string) string {
	i := strings.LastIndexAny(path, ".[")
	if i <= 0 {
		return ""
	}
	return path[:i]
}
