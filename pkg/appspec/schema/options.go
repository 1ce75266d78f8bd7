package schema

import (
	"sort"

	"kae-hq/kae/pkg/appspec/types"
)

// TargetKind is the kind of value an autoscaling metric target holds.
type TargetKind string

const (
	// TargetUtilization is an integer percentage in averageUtilization.
	TargetUtilization TargetKind = "averageUtilization"
	// TargetValue is a resource quantity in averageValue.
	TargetValue TargetKind = "averageValue"
)

// Options configures a schema set.
type Options struct {
	// StrictFields reports keys that are not part of the descriptor format.
	StrictFields bool

	// AppTypes is the set of accepted AppSpec.type values.
	AppTypes []types.AppType

	// MetricTargets maps each accepted HPA metric name to the target kinds
	// it supports.
	MetricTargets map[string][]TargetKind
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		StrictFields: false,
		AppTypes:     []types.AppType{types.AppTypeWeb, types.AppTypeWorker, types.AppTypeJob},
		MetricTargets: map[string][]TargetKind{
			"cpu":    {TargetUtilization},
			"memory": {TargetValue},
		},
	}
}

// withDefaults fills empty option fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if len(o.AppTypes) == 0 {
		o.AppTypes = d.AppTypes
	}
	if len(o.MetricTargets) == 0 {
		o.MetricTargets = d.MetricTargets
	}
	return o
}

func (o Options) metricNames() []string {
	names := make([]string, 0, len(o.MetricTargets))
	for name := range o.MetricTargets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (o Options) appTypeNames() []string {
	names := make([]string, 0, len(o.AppTypes))
	for _, t := range o.AppTypes {
		names = append(names, string(t))
	}
	return names
}
