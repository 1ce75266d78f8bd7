// kae validates application deployment descriptors.
//
// A descriptor is a YAML or JSON document describing one application: its
// builds, its Kubernetes service and containers, autoscaling and update
// strategy. kae checks every field, resolves service ports against the
// container ports they target, fills defaults and prints the normalized
// descriptor or every error found, with its source position.
//
// Usage:
//
//	# Validate a descriptor
//	kae validate -f deploy/app.yaml
//
//	# Validate every descriptor in a directory, as JSON
//	kae validate -d deploy/ --format json
//
//	# Re-validate on change
//	kae watch deploy/
//
//	# Run the HTTP validation service
//	kae serve --config kae.yaml
//
//	# Inspect recorded validations
//	kae history query --app hello --valid=false
package main

func main() {
	Execute()
}
