package schema

import (
	"fmt"

	"k8s.io/apimachinery/pkg/util/validation/field"

	specErrors "kae-hq/kae/pkg/appspec/errors"
	"kae-hq/kae/pkg/appspec/types"
)

var pullPolicies = []string{
	string(types.PullAlways),
	string(types.PullIfNotPresent),
	string(types.PullNever),
}

var containerFields = []string{
	"name", "image", "imagePullPolicy", "command", "args", "env", "tty",
	"workingDir", "ports", "volumes", "configs", "secrets",
}

// ContainerSchema validates one container of a service.
type ContainerSchema struct {
	opts      Options
	configMap *ConfigMapSchema
	secret    *SecretSchema
}

// NewContainerSchema creates a container schema.
func NewContainerSchema(opts Options) *ContainerSchema {
	opts = opts.withDefaults()
	return &ContainerSchema{
		opts:      opts,
		configMap: NewConfigMapSchema(opts),
		secret:    NewSecretSchema(opts),
	}
}

// Load validates raw and returns the normalized container.
func (s *ContainerSchema) Load(raw map[string]interface{}) (*types.Container, error) {
	return loadStandalone(s.load, raw)
}

func (s *ContainerSchema) load(v interface{}, path *field.Path, errs *specErrors.ErrorList) (*types.Container, bool) {
	c, result := s.loadContainer(v, path, errs)
	return c, result.clean
}

// containerResult tells the service schema what it may rely on.
type containerResult struct {
	clean    bool // no violations anywhere in the container
	portsOK  bool // ports list absent or fully valid
	hasPorts bool // ports field present
}

func (s *ContainerSchema) loadContainer(v interface{}, path *field.Path, errs *specErrors.ErrorList) (*types.Container, containerResult) {
	start := errs.Count()
	o, ok := asObject(v, path, errs, s.opts.StrictFields)
	if !ok {
		return nil, containerResult{}
	}
	o.checkKnown(containerFields...)

	c := &types.Container{
		ImagePullPolicy: types.PullAlways,
	}

	if name, ok := o.stringAt("name", true); ok {
		errs.AddAt(o.childString("name"), ValidateTag(name))
		c.Name = name
	}

	if image, ok := o.stringAt("image", false); ok {
		if image == "" {
			errs.AddError(specErrors.ErrorTypeFormat, o.childString("image"), "image must not be empty")
		}
		c.Image = image
	}

	if policy, ok := o.stringAt("imagePullPolicy", false); ok {
		if contains(pullPolicies, policy) {
			c.ImagePullPolicy = types.PullPolicy(policy)
		} else {
			errs.AddErrorWithSuggestion(specErrors.ErrorTypeEnum, o.childString("imagePullPolicy"),
				fmt.Sprintf("unknown image pull policy %q", policy),
				specErrors.SuggestEnumValue(policy, pullPolicies))
		}
	}

	if command, ok := o.stringsAt("command", false); ok {
		c.Command = command
	}
	if args, ok := o.stringsAt("args", false); ok {
		c.Args = args
	}

	if env, ok := o.stringsAt("env", false); ok {
		for i, e := range env {
			errs.AddAt(o.child("env").Index(i).String(), ValidateEnv(e))
		}
		c.Env = env
	}

	if tty, ok := o.boolAt("tty"); ok {
		c.TTY = tty
	}

	if wd, ok := o.stringAt("workingDir", false); ok {
		c.WorkingDir = wd
	}

	if volumes, ok := o.stringsAt("volumes", false); ok {
		for i, vol := range volumes {
			errs.AddAt(o.child("volumes").Index(i).String(), ValidateDockerVolumes([]string{vol}))
		}
		c.Volumes = volumes
	}

	if configs, ok := o.listAt("configs", false); ok {
		for i, raw := range configs {
			if cm, ok := s.configMap.load(raw, o.child("configs").Index(i), errs); ok {
				c.Configs = append(c.Configs, *cm)
			}
		}
	}

	if o.has("secrets") {
		if sec, ok := s.secret.load(o.raw["secrets"], o.child("secrets"), errs); ok {
			c.Secrets = sec
		}
	}

	result := containerResult{hasPorts: o.has("ports")}
	portsStart := errs.Count()
	c.Ports = s.loadPorts(o, errs)
	result.portsOK = errs.Count() == portsStart
	result.clean = errs.Count() == start

	return c, result
}

// loadPorts validates the container's port list: names unique within the
// container, numbers in the TCP range.
func (s *ContainerSchema) loadPorts(o *object, errs *specErrors.ErrorList) []types.ContainerPort {
	list, ok := o.listAt("ports", false)
	if !ok {
		return nil
	}

	ports := make([]types.ContainerPort, 0, len(list))
	seenNames := make(map[string]int)
	seenNumbers := make(map[int]int)

	for i, raw := range list {
		p, ok := asObject(raw, o.child("ports").Index(i), errs, s.opts.StrictFields)
		if !ok {
			continue
		}
		p.checkKnown("name", "containerPort")

		var port types.ContainerPort

		if name, ok := p.stringAt("name", false); ok {
			if err := ValidatePortName(name); err != nil {
				errs.AddAt(p.childString("name"), err)
			} else if first, dup := seenNames[name]; dup {
				errs.AddError(specErrors.ErrorTypeDuplicate, p.childString("name"),
					fmt.Sprintf("port name %q is already used by ports[%d]", name, first))
			} else {
				seenNames[name] = i
			}
			port.Name = name
		}

		if number, ok := p.intAt("containerPort", true); ok {
			if err := ValidatePort(number); err != nil {
				errs.AddAt(p.childString("containerPort"), err)
			} else if first, dup := seenNumbers[number]; dup {
				errs.AddError(specErrors.ErrorTypeDuplicate, p.childString("containerPort"),
					fmt.Sprintf("containerPort %d is already declared by ports[%d]", number, first))
			} else {
				seenNumbers[number] = i
			}
			port.ContainerPort = number
		}

		ports = append(ports, port)
	}

	return ports
}
