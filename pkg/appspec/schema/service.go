package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/apimachinery/pkg/util/validation/field"

	specErrors "kae-hq/kae/pkg/appspec/errors"
	"kae-hq/kae/pkg/appspec/types"
)

var serviceFields = []string{
	"user", "replicas", "labels", "mountpoints", "ports", "containers", "updateStrategy", "hpa",
}

// ServiceSchema validates a service and cross-checks its ports against the
// ports its containers declare.
type ServiceSchema struct {
	opts      Options
	container *ContainerSchema
	strategy  *UpdateStrategySchema
	hpa       *HPASchema
}

// NewServiceSchema creates a service schema.
func NewServiceSchema(opts Options) *ServiceSchema {
	opts = opts.withDefaults()
	return &ServiceSchema{
		opts:      opts,
		container: NewContainerSchema(opts),
		strategy:  NewUpdateStrategySchema(opts),
		hpa:       NewHPASchema(opts),
	}
}

// Load validates raw and returns the normalized service.
func (s *ServiceSchema) Load(raw map[string]interface{}) (*types.Service, error) {
	return loadStandalone(s.load, raw)
}

// servicePortResult is a validated service port and whether its targetPort
// was given explicitly and needs resolving.
type servicePortResult struct {
	port     types.ServicePort
	ok       bool
	explicit bool
}

func (s *ServiceSchema) load(v interface{}, path *field.Path, errs *specErrors.ErrorList) (*types.Service, bool) {
	start := errs.Count()
	o, ok := asObject(v, path, errs, s.opts.StrictFields)
	if !ok {
		return nil, false
	}
	o.checkKnown(serviceFields...)

	svc := &types.Service{
		User:     types.DefaultUser,
		Replicas: 1,
	}

	if user, ok := o.stringAt("user", false); ok {
		if user == "" {
			errs.AddError(specErrors.ErrorTypeFormat, o.childString("user"), "user must not be empty")
		} else {
			svc.User = user
		}
	}

	if replicas, ok := o.intAt("replicas", false); ok {
		if replicas < 1 {
			errs.AddError(specErrors.ErrorTypeRange, o.childString("replicas"),
				fmt.Sprintf("replicas must be a positive integer, got %d", replicas))
		}
		svc.Replicas = replicas
	}

	if labels, ok := o.stringsAt("labels", false); ok {
		for i, l := range labels {
			errs.AddAt(o.child("labels").Index(i).String(), ValidateLabel(l))
		}
		svc.Labels = labels
	}

	svc.Mountpoints = s.loadMountpoints(o, errs)

	containersOK, missingPorts := s.loadContainers(o, svc, errs)
	ports := s.loadPorts(o, errs)

	if o.has("updateStrategy") {
		if us, ok := s.strategy.load(o.raw["updateStrategy"], o.child("updateStrategy"), errs); ok {
			svc.UpdateStrategy = us
		}
	}
	if o.has("hpa") {
		if hpa, ok := s.hpa.load(o.raw["hpa"], o.child("hpa"), errs); ok {
			svc.HPA = hpa
		}
	}

	// Resolution only runs against container ports that validated cleanly.
	if containersOK {
		s.resolvePorts(o, svc, ports, missingPorts, errs)
	}

	for _, p := range ports {
		if p.ok {
			svc.Ports = append(svc.Ports, p.port)
		}
	}

	return svc, errs.Count() == start
}

func (s *ServiceSchema) loadMountpoints(o *object, errs *specErrors.ErrorList) []types.Mountpoint {
	list, ok := o.listAt("mountpoints", false)
	if !ok {
		return nil
	}

	mountpoints := make([]types.Mountpoint, 0, len(list))
	for i, raw := range list {
		m, ok := asObject(raw, o.child("mountpoints").Index(i), errs, s.opts.StrictFields)
		if !ok {
			continue
		}
		m.checkKnown("host", "path")

		mp := types.Mountpoint{Path: "/"}
		if host, ok := m.stringAt("host", true); ok {
			errs.AddAt(m.childString("host"), ValidateHost(host))
			mp.Host = host
		}
		if p, ok := m.stringAt("path", false); ok {
			errs.AddAt(m.childString("path"), ValidateAbsolutePath(p))
			mp.Path = p
		}
		mountpoints = append(mountpoints, mp)
	}
	return mountpoints
}

// loadContainers validates every container. It reports whether all
// container port lists are usable for resolution and which containers omit
// ports entirely.
func (s *ServiceSchema) loadContainers(o *object, svc *types.Service, errs *specErrors.ErrorList) (bool, []int) {
	list, ok := o.listAt("containers", true)
	if !ok {
		return false, nil
	}
	if len(list) == 0 {
		errs.AddError(specErrors.ErrorTypeMissingField, o.childString("containers"),
			"at least one container is required")
		return false, nil
	}

	portsOK := true
	var missingPorts []int
	seen := make(map[string]int)

	for i, raw := range list {
		path := o.child("containers").Index(i)
		c, result := s.container.loadContainer(raw, path, errs)
		if c == nil {
			portsOK = false
			continue
		}
		if !result.portsOK {
			portsOK = false
		}
		if !result.hasPorts {
			missingPorts = append(missingPorts, i)
		}
		if c.Name != "" {
			if first, dup := seen[c.Name]; dup {
				errs.AddError(specErrors.ErrorTypeDuplicate, path.Child("name").String(),
					fmt.Sprintf("container name %q is already used by containers[%d]", c.Name, first))
			} else {
				seen[c.Name] = i
			}
		}
		svc.Containers = append(svc.Containers, *c)
	}

	return portsOK, missingPorts
}

func (s *ServiceSchema) loadPorts(o *object, errs *specErrors.ErrorList) []servicePortResult {
	list, ok := o.listAt("ports", true)
	if !ok {
		return nil
	}
	if len(list) == 0 {
		errs.AddError(specErrors.ErrorTypeMissingField, o.childString("ports"),
			"a service must expose at least one port")
		return nil
	}

	results := make([]servicePortResult, 0, len(list))
	seen := make(map[int]int)
	for i, raw := range list {
		r := s.loadServicePort(raw, o.child("ports").Index(i), errs)
		if r.ok {
			if first, dup := seen[r.port.Port]; dup {
				errs.AddError(specErrors.ErrorTypeDuplicate, o.child("ports").Index(i).Child("port").String(),
					fmt.Sprintf("port %d is already exposed by ports[%d]", r.port.Port, first))
			} else {
				seen[r.port.Port] = i
			}
		}
		results = append(results, r)
	}
	return results
}

func (s *ServiceSchema) loadServicePort(v interface{}, path *field.Path, errs *specErrors.ErrorList) servicePortResult {
	start := errs.Count()
	o, ok := asObject(v, path, errs, s.opts.StrictFields)
	if !ok {
		return servicePortResult{}
	}
	o.checkKnown("port", "targetPort")

	var r servicePortResult

	port, portOK := o.intAt("port", true)
	if portOK {
		if err := ValidatePort(port); err != nil {
			errs.AddAt(o.childString("port"), err)
			portOK = false
		}
		r.port.Port = port
	}

	raw, present := o.get("targetPort")
	switch {
	case !present:
		// Absent targetPort is the port itself; nothing to resolve.
		if portOK {
			r.port.TargetPort = intstr.FromInt32(int32(port))
		}
	default:
		r.explicit = true
		if name, isString := raw.(string); isString {
			if name == "" {
				errs.AddError(specErrors.ErrorTypeFormat, o.childString("targetPort"),
					"targetPort must not be empty")
			}
			r.port.TargetPort = intstr.FromString(name)
		} else if n, isInt := toInt(raw); isInt {
			if err := ValidatePort(n); err != nil {
				errs.AddAt(o.childString("targetPort"), err)
			}
			r.port.TargetPort = intstr.FromInt32(int32(n))
			// A target equal to its own port is the defaulted form, so
			// normalized output validates the same way as the original.
			if portOK && n == port {
				r.explicit = false
			}
		} else {
			o.wrongType("targetPort", "an integer or a port name", raw)
		}
	}

	r.ok = errs.Count() == start
	return r
}

// resolvePorts matches each explicit targetPort against the union of
// container ports: integers against containerPort, strings against port
// names. When a target cannot be matched and some containers declare no
// ports at all, the missing port lists are reported instead.
func (s *ServiceSchema) resolvePorts(o *object, svc *types.Service, ports []servicePortResult, missingPorts []int, errs *specErrors.ErrorList) {
	numbers := svc.ContainerPortNumbers()
	names := svc.ContainerPortNames()
	reported := make(map[int]bool)

	for i, p := range ports {
		if !p.ok || !p.explicit {
			continue
		}

		target := p.port.TargetPort
		var found bool
		switch target.Type {
		case intstr.Int:
			found = numbers[int(target.IntVal)]
		case intstr.String:
			found = names[target.StrVal]
		}
		if found {
			continue
		}

		if len(missingPorts) > 0 {
			for _, j := range missingPorts {
				if reported[j] {
					continue
				}
				reported[j] = true
				errs.AddErrorWithSuggestion(specErrors.ErrorTypeMissingField,
					o.child("containers").Index(j).Child("ports").String(),
					fmt.Sprintf("container declares no ports, so service port target %s cannot be resolved", target.String()),
					specErrors.SuggestMissingField("ports", "[{name: http, containerPort: 8080}]"))
			}
			continue
		}

		errs.AddError(specErrors.ErrorTypeUnresolvedPort,
			o.child("ports").Index(i).Child("targetPort").String(),
			unresolvedMessage(target, numbers, names))
	}
}

func unresolvedMessage(target intstr.IntOrString, numbers map[int]bool, names map[string]bool) string {
	if target.Type == intstr.String {
		declared := make([]string, 0, len(names))
		for n := range names {
			declared = append(declared, n)
		}
		sort.Strings(declared)
		return fmt.Sprintf("targetPort %q does not name any container port (declared names: [%s])",
			target.StrVal, strings.Join(declared, ", "))
	}

	declared := make([]int, 0, len(numbers))
	for n := range numbers {
		declared = append(declared, n)
	}
	sort.Ints(declared)
	parts := make([]string, len(declared))
	for i, n := range declared {
		parts[i] = strconv.Itoa(n)
	}
	return fmt.Sprintf("targetPort %d does not match any containerPort (declared: [%s])",
		target.IntVal, strings.Join(parts, ", "))
}
