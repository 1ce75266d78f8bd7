package types

import "k8s.io/apimachinery/pkg/util/intstr"

// AppType is the kind of workload an application descriptor describes.
type AppType string

const (
	AppTypeWeb    AppType = "web"
	AppTypeWorker AppType = "worker"
	AppTypeJob    AppType = "job"
)

// PullPolicy is a container image pull policy.
type PullPolicy string

const (
	PullAlways       PullPolicy = "Always"
	PullIfNotPresent PullPolicy = "IfNotPresent"
	PullNever        PullPolicy = "Never"
)

// StrategyType is a deployment update strategy.
type StrategyType string

const (
	StrategyRollingUpdate StrategyType = "RollingUpdate"
	StrategyRecreate      StrategyType = "Recreate"
)

// DefaultUser is the service user when none is given.
const DefaultUser = "root"

// AppSpec is the root of a normalized application descriptor.
type AppSpec struct {
	AppName string   `json:"appname"`
	Type    AppType  `json:"type"`
	Builds  []Build  `json:"builds"`
	Service *Service `json:"service"`
}

// Build names one image build of the application.
type Build struct {
	Name string `json:"name"`
}

// Service describes the service topology: containers, exposed ports and scaling.
type Service struct {
	User           string          `json:"user"`
	Replicas       int             `json:"replicas"`
	Labels         []string        `json:"labels,omitempty"`
	Mountpoints    []Mountpoint    `json:"mountpoints,omitempty"`
	Ports          []ServicePort   `json:"ports"`
	Containers     []Container     `json:"containers"`
	UpdateStrategy *UpdateStrategy `json:"updateStrategy,omitempty"`
	HPA            *HPA            `json:"hpa,omitempty"`
}

// Mountpoint routes an external host and path to the service.
type Mountpoint struct {
	Host string `json:"host"`
	Path string `json:"path"`
}

// ServicePort is a port exposed by the service. TargetPort is either a
// container port number or the name of a container port; it is never
// converted between the two forms.
type ServicePort struct {
	Port       int                `json:"port"`
	TargetPort intstr.IntOrString `json:"targetPort"`
}

// Container is one runnable unit of the service.
type Container struct {
	Name            string          `json:"name"`
	Image           string          `json:"image,omitempty"`
	ImagePullPolicy PullPolicy      `json:"imagePullPolicy"`
	Command         []string        `json:"command,omitempty"`
	Args            []string        `json:"args,omitempty"`
	Env             []string        `json:"env,omitempty"`
	TTY             bool            `json:"tty"`
	WorkingDir      string          `json:"workingDir,omitempty"`
	Ports           []ContainerPort `json:"ports,omitempty"`
	Volumes         []string        `json:"volumes,omitempty"`
	Configs         []ConfigMap     `json:"configs,omitempty"`
	Secrets         *Secret         `json:"secrets,omitempty"`
}

// ContainerPort is a port opened by a container.
type ContainerPort struct {
	Name          string `json:"name,omitempty"`
	ContainerPort int    `json:"containerPort"`
}

// ConfigMap mounts one config key as a file under Dir.
type ConfigMap struct {
	Dir      string `json:"dir"`
	Key      string `json:"key"`
	Filename string `json:"filename"`
}

// Secret exposes secret keys as environment variables. EnvNameList[i] is
// populated from KeyList[i].
type Secret struct {
	EnvNameList []string `json:"envNameList"`
	KeyList     []string `json:"keyList"`
}

// UpdateStrategy controls how a new version of the service replaces the old one.
type UpdateStrategy struct {
	Type          StrategyType   `json:"type"`
	RollingUpdate *RollingUpdate `json:"rollingUpdate,omitempty"`
}

// RollingUpdate holds percentage bounds for a rolling update.
type RollingUpdate struct {
	MaxSurge       string `json:"maxSurge,omitempty"`
	MaxUnavailable string `json:"maxUnavailable,omitempty"`
}

// HPA is a horizontal autoscaling policy.
type HPA struct {
	MinReplicas int      `json:"minReplicas"`
	MaxReplicas int      `json:"maxReplicas"`
	Metrics     []Metric `json:"metrics"`
}

// Metric is one autoscaling target. Exactly one of AverageUtilization and
// AverageValue is set.
type Metric struct {
	Name               string `json:"name"`
	AverageUtilization *int   `json:"averageUtilization,omitempty"`
	AverageValue       string `json:"averageValue,omitempty"`
}

// ContainerPortNames returns the set of named container ports across all containers.
func (s *Service) ContainerPortNames() map[string]bool {
	names := make(map[string]bool)
	for _, c := range s.Containers {
		for _, p := range c.Ports {
			if p.Name != "" {
				names[p.Name] = true
			}
		}
	}
	return names
}

// ContainerPortNumbers returns the set of container port numbers across all containers.
func (s *Service) ContainerPortNumbers() map[int]bool {
	numbers := make(map[int]bool)
	for _, c := range s.Containers {
		for _, p := range c.Ports {
			numbers[p.ContainerPort] = true
		}
	}
	return numbers
}
