// Package types defines the normalized application descriptor model.
//
// Values of these types are only produced by the schema package after a
// descriptor passed validation, so every optional field has already been
// defaulted:
//
//   - Service.User defaults to "root" and Service.Replicas to 1
//   - ServicePort.TargetPort defaults to ServicePort.Port
//   - Container.ImagePullPolicy defaults to Always and TTY to false
//   - ConfigMap.Filename defaults to ConfigMap.Key
//   - Secret.KeyList defaults to a copy of Secret.EnvNameList
//
// # Core Types
//
// AppSpec: root descriptor (appname, type, builds, service)
//
// Service: containers, exposed ports, mountpoints, replicas, labels, update
// strategy and autoscaling
//
// Container: image, command, env, ports, config mounts and secrets
//
// Location: source location (file, line, column) used by error reports
//
// The JSON tags match the descriptor field names, so encoding a normalized
// value and validating it again yields the same value.
package types
