// Package appspec validates application deployment descriptors.
//
// A descriptor names an application, its builds and its service topology:
// containers, exposed ports, config mounts, secrets, update strategy and
// autoscaling policy. The Engine decodes a descriptor, runs it through the
// schema set in the schema subpackage and returns either a fully defaulted
// descriptor or every violation found, keyed by field path and annotated
// with its line and column.
//
// # Subpackages
//
//   - types: the normalized descriptor model
//   - errors: error kinds, the ErrorList collector and path reports
//   - parser: YAML/JSON decoding with a field location index
//   - schema: primitive validators and the layered schemas
//
// # Usage
//
//	engine := appspec.NewEngine(&appspec.EngineConfig{
//	    Options: appspec.OptionsFromConfig(cfg.Validation),
//	    Metrics: collector,
//	})
//
//	res := engine.ValidateFile(ctx, "app.yaml")
//	if !res.Valid() {
//	    for path, msgs := range res.Report() {
//	        fmt.Println(path, msgs)
//	    }
//	}
//
//	out, err := appspec.Encode(res.Spec, appspec.FormatYAML)
//
// Encoding a normalized descriptor and validating the output again yields
// the same descriptor.
package appspec
