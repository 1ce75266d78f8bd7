package parser

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	specErrors "kae-hq/kae/pkg/appspec/errors"
	"kae-hq/kae/pkg/appspec/types"
)

// DefaultMaxFileSize is the largest descriptor accepted when none is configured.
const DefaultMaxFileSize = 10 * 1024 * 1024

// Parser decodes YAML or JSON descriptors into raw mappings.
type Parser struct {
	maxFileSize int64
}

// NewParser creates a new parser with default configuration.
func NewParser() *Parser {
	return &Parser{
		maxFileSize: DefaultMaxFileSize,
	}
}

// WithMaxFileSize sets the maximum file size limit. Values <= 0 keep the default.
func (p *Parser) WithMaxFileSize(size int64) *Parser {
	if size > 0 {
		p.maxFileSize = size
	}
	return p
}

// MaxFileSize returns the configured size limit in bytes.
func (p *Parser) MaxFileSize() int64 {
	return p.maxFileSize
}

// Parse reads and decodes the descriptor at path.
func (p *Parser) Parse(path string) (*Document, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, &specErrors.Error{
			Type:     specErrors.ErrorTypeIO,
			Message:  fmt.Sprintf("failed to access file: %v", err),
			Location: types.Location{File: path},
		}
	}

	if fileInfo.Size() > p.maxFileSize {
		return nil, &specErrors.Error{
			Type:     specErrors.ErrorTypeIO,
			Message:  fmt.Sprintf("file size %d exceeds maximum %d bytes", fileInfo.Size(), p.maxFileSize),
			Location: types.Location{File: path},
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &specErrors.Error{
			Type:     specErrors.ErrorTypeIO,
			Message:  fmt.Sprintf("failed to read file: %v", err),
			Location: types.Location{File: path},
		}
	}

	return p.decode(data, path)
}

// ParseBytes decodes a descriptor held in memory. source names it in
// locations and may be empty.
func (p *Parser) ParseBytes(data []byte, source string) (*Document, error) {
	if int64(len(data)) > p.maxFileSize {
		return nil, &specErrors.Error{
			Type:     specErrors.ErrorTypeIO,
			Message:  fmt.Sprintf("data size %d exceeds maximum %d bytes", len(data), p.maxFileSize),
			Location: types.Location{File: source},
		}
	}
	return p.decode(data, source)
}

var yamlLinePattern = regexp.MustCompile(`line (\d+)`)

func (p *Parser) decode(data []byte, source string) (*Document, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, &specErrors.Error{
			Type:       specErrors.ErrorTypeSyntax,
			Message:    fmt.Sprintf("YAML parsing failed: %v", err),
			Location:   types.Location{File: source, Line: errorLine(err), Column: 1},
			Suggestion: "Check YAML syntax (indentation, colons, quotes)",
		}
	}

	root := &node
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		loc := types.Location{File: source, Line: root.Line, Column: root.Column}
		if root.Kind == 0 || root.Kind == yaml.DocumentNode {
			return nil, &specErrors.Error{
				Type:     specErrors.ErrorTypeSyntax,
				Message:  "descriptor is empty",
				Location: types.Location{File: source},
			}
		}
		return nil, &specErrors.Error{
			Type:     specErrors.ErrorTypeSyntax,
			Message:  fmt.Sprintf("descriptor must be a mapping, got %s", kindName(root.Kind)),
			Location: loc,
		}
	}

	var raw map[string]interface{}
	if err := root.Decode(&raw); err != nil {
		return nil, &specErrors.Error{
			Type:     specErrors.ErrorTypeSyntax,
			Message:  fmt.Sprintf("failed to decode descriptor: %v", err),
			Location: types.Location{File: source, Line: root.Line, Column: root.Column},
		}
	}

	doc := &Document{
		Source:    source,
		Raw:       raw,
		Data:      data,
		locations: make(map[string]types.Location),
	}
	doc.index(root, "")
	return doc, nil
}

// errorLine extracts the line number from a yaml.v3 error message.
func errorLine(err error) int {
	m := yamlLinePattern.FindStringSubmatch(err.Error())
	if m == nil {
		return 1
	}
	n, convErr := strconv.Atoi(m[1])
	if convErr != nil || n < 1 {
		return 1
	}
	return n
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "a list"
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.AliasNode:
		return "an alias"
	default:
		return "an unsupported node"
	}
}
