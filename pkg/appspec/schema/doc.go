// Package schema validates raw application descriptors and builds the
// normalized, fully-defaulted typed model from them.
//
// The schema set is closed and composed explicitly: AppSpecSchema owns a
// ServiceSchema, which owns a ContainerSchema, an UpdateStrategySchema and
// an HPASchema; the container schema owns the ConfigMap and Secret schemas.
// Every schema can also be used on its own through its Load method.
//
// # Validation Model
//
// A single *errors.ErrorList is passed down the tree. Each schema records
// every violation it finds at its field path (built with
// k8s.io/apimachinery/pkg/util/validation/field) and keeps validating
// independent siblings. A field whose own value is malformed is not
// cross-checked against other fields, so one mistake yields one error.
//
// Service port resolution is the main cross-field rule. An explicit
// targetPort must match a containerPort (integer form) or a container port
// name (string form) of any container in the service. Resolution only runs
// once every container's ports validated cleanly.
//
// # Basic Usage
//
//	s := schema.NewAppSpecSchema(schema.DefaultOptions())
//	spec, err := s.Load(raw)
//	if err != nil {
//	    report := err.(*errors.ErrorList).Report()
//	    for _, path := range report.Paths() {
//	        fmt.Println(path, report[path])
//	    }
//	}
//
// # Defaults
//
// Load never mutates raw. The returned value carries every default:
// imagePullPolicy Always, tty false, user root, replicas 1, mountpoint
// path "/", configmap filename = key, secret keyList = envNameList and
// targetPort = port.
package schema
