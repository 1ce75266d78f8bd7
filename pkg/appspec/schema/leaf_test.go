package schema

import (
	"reflect"
	"testing"

	specErrors "kae-hq/kae/pkg/appspec/errors"
)

// expectErrorAt asserts that err is an ErrorList holding an error of errType at path.
func expectErrorAt(t *testing.T, err error, errType specErrors.ErrorType, path string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error at %q, got nil", errType, path)
	}
	errList, ok := err.(*specErrors.ErrorList)
	if !ok {
		t.Fatalf("expected *ErrorList, got %T", err)
	}
	for _, e := range errList.ByPath(path) {
		if e.Type == errType {
			return
		}
	}
	t.Errorf("expected %s error at %q, got: %v", errType, path, errList.Errors)
}

func TestConfigMapSchema_Load(t *testing.T) {
	s := NewConfigMapSchema(DefaultOptions())

	t.Run("explicit filename", func(t *testing.T) {
		cm, err := s.Load(map[string]interface{}{"dir": "/dir1", "key": "key1", "filename": "name1"})
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cm.Dir != "/dir1" || cm.Key != "key1" || cm.Filename != "name1" {
			t.Errorf("Load() = %+v", cm)
		}
	})

	t.Run("filename defaults to key", func(t *testing.T) {
		raw := map[string]interface{}{"dir": "/dir1", "key": "key1"}
		cm, err := s.Load(raw)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cm.Filename != "key1" {
			t.Errorf("Filename = %q, want key1", cm.Filename)
		}
		if _, ok := raw["filename"]; ok {
			t.Error("Load() mutated its input")
		}
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Load(map[string]interface{}{"dir": "/ddd"})
		expectErrorAt(t, err, specErrors.ErrorTypeMissingField, "key")
	})

	t.Run("relative dir", func(t *testing.T) {
		_, err := s.Load(map[string]interface{}{"dir": "ddd", "key": "key1"})
		expectErrorAt(t, err, specErrors.ErrorTypeFormat, "dir")
	})

	t.Run("both missing", func(t *testing.T) {
		_, err := s.Load(map[string]interface{}{})
		expectErrorAt(t, err, specErrors.ErrorTypeMissingField, "dir")
		expectErrorAt(t, err, specErrors.ErrorTypeMissingField, "key")
	})
}

func TestSecretSchema_Load(t *testing.T) {
	s := NewSecretSchema(DefaultOptions())

	t.Run("explicit key list", func(t *testing.T) {
		sec, err := s.Load(map[string]interface{}{
			"envNameList": []interface{}{"aa", "bb"},
			"keyList":     []interface{}{"key1", "key2"},
		})
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !reflect.DeepEqual(sec.EnvNameList, []string{"aa", "bb"}) || !reflect.DeepEqual(sec.KeyList, []string{"key1", "key2"}) {
			t.Errorf("Load() = %+v", sec)
		}
	})

	t.Run("key list defaults to env names", func(t *testing.T) {
		sec, err := s.Load(map[string]interface{}{"envNameList": []interface{}{"aa", "bb"}})
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !reflect.DeepEqual(sec.KeyList, []string{"aa", "bb"}) {
			t.Errorf("KeyList = %v, want [aa bb]", sec.KeyList)
		}
		sec.KeyList[0] = "changed"
		if sec.EnvNameList[0] != "aa" {
			t.Error("KeyList shares storage with EnvNameList")
		}
	})

	t.Run("explicit empty key list", func(t *testing.T) {
		_, err := s.Load(map[string]interface{}{
			"envNameList": []interface{}{"aa", "bb"},
			"keyList":     []interface{}{},
		})
		expectErrorAt(t, err, specErrors.ErrorTypeLengthMismatch, "keyList")
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := s.Load(map[string]interface{}{
			"envNameList": []interface{}{"aa", "bb"},
			"keyList":     []interface{}{"key1"},
		})
		expectErrorAt(t, err, specErrors.ErrorTypeLengthMismatch, "keyList")
	})

	t.Run("empty env names", func(t *testing.T) {
		_, err := s.Load(map[string]interface{}{"envNameList": []interface{}{}})
		expectErrorAt(t, err, specErrors.ErrorTypeLengthMismatch, "envNameList")
	})

	t.Run("missing env names", func(t *testing.T) {
		_, err := s.Load(map[string]interface{}{"keyList": []interface{}{"k"}})
		expectErrorAt(t, err, specErrors.ErrorTypeMissingField, "envNameList")
	})
}

func TestUpdateStrategySchema_Load(t *testing.T) {
	s := NewUpdateStrategySchema(DefaultOptions())

	raw := func(surge string) map[string]interface{} {
		return map[string]interface{}{
			"type": "RollingUpdate",
			"rollingUpdate": map[string]interface{}{
				"maxSurge":       surge,
				"maxUnavailable": "35%",
			},
		}
	}

	us, err := s.Load(raw("25%"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if us.RollingUpdate == nil || us.RollingUpdate.MaxSurge != "25%" || us.RollingUpdate.MaxUnavailable != "35%" {
		t.Errorf("Load() = %+v", us)
	}

	for _, surge := range []string{"2a5%", "-25%"} {
		_, err := s.Load(raw(surge))
		expectErrorAt(t, err, specErrors.ErrorTypeFormat, "rollingUpdate.maxSurge")
	}

	_, err = s.Load(map[string]interface{}{"type": "hahahn"})
	expectErrorAt(t, err, specErrors.ErrorTypeEnum, "type")

	t.Run("recreate drops rolling update", func(t *testing.T) {
		r := raw("not-a-percentage")
		r["type"] = "Recreate"
		us, err := s.Load(r)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if us.RollingUpdate != nil {
			t.Errorf("RollingUpdate = %+v, want nil", us.RollingUpdate)
		}
	})

	t.Run("enum suggestion", func(t *testing.T) {
		_, err := s.Load(map[string]interface{}{"type": "Recreat"})
		errs := err.(*specErrors.ErrorList).ByPath("type")
		if len(errs) != 1 || errs[0].Suggestion != "Did you mean 'Recreate'?" {
			t.Errorf("errors = %v", errs)
		}
	})
}

func TestHPASchema_Load(t *testing.T) {
	s := NewHPASchema(DefaultOptions())

	base := func() map[string]interface{} {
		return map[string]interface{}{
			"minReplicas": 2,
			"maxReplicas": 3,
			"metrics": []interface{}{
				map[string]interface{}{"name": "cpu", "averageUtilization": 50},
			},
		}
	}
	metric := func(raw map[string]interface{}) map[string]interface{} {
		return raw["metrics"].([]interface{})[0].(map[string]interface{})
	}

	hpa, err := s.Load(base())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if hpa.MinReplicas != 2 || hpa.MaxReplicas != 3 {
		t.Errorf("Load() = %+v", hpa)
	}
	if len(hpa.Metrics) != 1 || hpa.Metrics[0].AverageUtilization == nil || *hpa.Metrics[0].AverageUtilization != 50 {
		t.Errorf("Metrics = %+v", hpa.Metrics)
	}

	tests := []struct {
		name    string
		mutate  func(map[string]interface{})
		errType specErrors.ErrorType
		path    string
	}{
		{
			name:    "max below min",
			mutate:  func(r map[string]interface{}) { r["maxReplicas"] = 1 },
			errType: specErrors.ErrorTypeRange,
			path:    "maxReplicas",
		},
		{
			name:    "min zero",
			mutate:  func(r map[string]interface{}) { r["minReplicas"] = 0 },
			errType: specErrors.ErrorTypeRange,
			path:    "minReplicas",
		},
		{
			name:    "metrics missing",
			mutate:  func(r map[string]interface{}) { delete(r, "metrics") },
			errType: specErrors.ErrorTypeMissingField,
			path:    "metrics",
		},
		{
			name:    "metrics empty",
			mutate:  func(r map[string]interface{}) { r["metrics"] = []interface{}{} },
			errType: specErrors.ErrorTypeMissingField,
			path:    "metrics",
		},
		{
			name:    "unknown metric name",
			mutate:  func(r map[string]interface{}) { metric(r)["name"] = "haha" },
			errType: specErrors.ErrorTypeEnum,
			path:    "metrics[0].name",
		},
		{
			name:    "both targets set",
			mutate:  func(r map[string]interface{}) { metric(r)["averageValue"] = "haha" },
			errType: specErrors.ErrorTypeFormat,
			path:    "metrics[0]",
		},
		{
			name: "no target set",
			mutate: func(r map[string]interface{}) {
				delete(metric(r), "averageUtilization")
			},
			errType: specErrors.ErrorTypeMissingField,
			path:    "metrics[0]",
		},
		{
			name: "cpu with value target",
			mutate: func(r map[string]interface{}) {
				delete(metric(r), "averageUtilization")
				metric(r)["averageValue"] = "500m"
			},
			errType: specErrors.ErrorTypeEnum,
			path:    "metrics[0].averageValue",
		},
		{
			name: "memory with utilization target",
			mutate: func(r map[string]interface{}) {
				metric(r)["name"] = "memory"
			},
			errType: specErrors.ErrorTypeEnum,
			path:    "metrics[0].averageUtilization",
		},
		{
			name: "memory with malformed quantity",
			mutate: func(r map[string]interface{}) {
				m := metric(r)
				m["name"] = "memory"
				delete(m, "averageUtilization")
				m["averageValue"] = "haha"
			},
			errType: specErrors.ErrorTypeFormat,
			path:    "metrics[0].averageValue",
		},
		{
			name:    "utilization not an integer",
			mutate:  func(r map[string]interface{}) { metric(r)["averageUtilization"] = "50%" },
			errType: specErrors.ErrorTypeFormat,
			path:    "metrics[0].averageUtilization",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := base()
			tt.mutate(raw)
			_, err := s.Load(raw)
			expectErrorAt(t, err, tt.errType, tt.path)
		})
	}

	t.Run("memory with quantity", func(t *testing.T) {
		raw := base()
		m := metric(raw)
		m["name"] = "memory"
		delete(m, "averageUtilization")
		m["averageValue"] = "512Mi"
		hpa, err := s.Load(raw)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if hpa.Metrics[0].AverageValue != "512Mi" || hpa.Metrics[0].AverageUtilization != nil {
			t.Errorf("Metrics = %+v", hpa.Metrics)
		}
	})
}

func TestHPASchema_ConfigurableMetrics(t *testing.T) {
	opts := DefaultOptions()
	opts.MetricTargets = map[string][]TargetKind{
		"cpu":      {TargetUtilization, TargetValue},
		"requests": {TargetValue},
	}
	s := NewHPASchema(opts)

	_, err := s.Load(map[string]interface{}{
		"minReplicas": 1,
		"maxReplicas": 4,
		"metrics": []interface{}{
			map[string]interface{}{"name": "cpu", "averageValue": "250m"},
			map[string]interface{}{"name": "requests", "averageValue": "100"},
		},
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	_, err = s.Load(map[string]interface{}{
		"minReplicas": 1,
		"maxReplicas": 4,
		"metrics": []interface{}{
			map[string]interface{}{"name": "memory", "averageValue": "1Gi"},
		},
	})
	expectErrorAt(t, err, specErrors.ErrorTypeEnum, "metrics[0].name")
}
