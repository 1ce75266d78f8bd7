// Package parser decodes application descriptors from YAML or JSON.
//
// Decoding goes through a yaml.Node tree so that every field path can be
// mapped back to its line and column. JSON input is accepted as the YAML
// subset it is.
//
//	p := parser.NewParser().WithMaxFileSize(1 << 20)
//	doc, err := p.Parse("app.yaml")
//	if err != nil {
//	    // *errors.Error of type io or syntax
//	}
//	loc := doc.Location("service.ports[0].targetPort")
package parser
