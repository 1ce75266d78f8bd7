package schema

import (
	"testing"

	specErrors "kae-hq/kae/pkg/appspec/errors"
)

func TestValidateAppName(t *testing.T) {
	good := []string{"aaa", "aaa-bbb", "a1-bbb", "a"}
	bad := []string{"1a_aa", "aa_bb", "AAA", "aaa*bb", "aaa#bbb", "-", "", "1abc"}

	for _, name := range good {
		if err := ValidateAppName(name); err != nil {
			t.Errorf("ValidateAppName(%q) = %v, want nil", name, err)
		}
	}
	for _, name := range bad {
		if err := ValidateAppName(name); err == nil {
			t.Errorf("ValidateAppName(%q) = nil, want error", name)
		}
	}
}

func TestValidateTag(t *testing.T) {
	good := []string{"aaa", "AAA", "aaa-bbb", "a1-bbb", "aa_bb", "_", "aa.bb"}
	bad := []string{"aaa*bb", "aa#bbn", "", "a b"}

	for _, tag := range good {
		if err := ValidateTag(tag); err != nil {
			t.Errorf("ValidateTag(%q) = %v, want nil", tag, err)
		}
	}
	for _, tag := range bad {
		if err := ValidateTag(tag); err == nil {
			t.Errorf("ValidateTag(%q) = nil, want error", tag)
		}
	}
}

func TestValidateDockerVolumes(t *testing.T) {
	tests := []struct {
		name    string
		volumes []string
		wantErr bool
	}{
		{"two absolute paths", []string{"/haha:/kakak"}, false},
		{"nested paths", []string{"/var/log/app:/data/logs"}, false},
		{"empty list", nil, false},
		{"no colon", []string{"hahah"}, true},
		{"single absolute path", []string{"/hahah"}, true},
		{"relative host path", []string{"haha:/kkkk"}, true},
		{"relative container path", []string{"/hhah:bbbb"}, true},
		{"second entry bad", []string{"/a:/b", "c:/d"}, true},
		{"three parts", []string{"/a:/b:/c"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDockerVolumes(tt.volumes)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDockerVolumes(%v) error = %v, wantErr %v", tt.volumes, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePercentage(t *testing.T) {
	good := []string{"0%", "25%", "100%", "250%"}
	bad := []string{"2a5%", "-25%", "25", "%", "25 %", ""}

	for _, s := range good {
		if err := ValidatePercentage(s); err != nil {
			t.Errorf("ValidatePercentage(%q) = %v, want nil", s, err)
		}
	}
	for _, s := range bad {
		if err := ValidatePercentage(s); err == nil {
			t.Errorf("ValidatePercentage(%q) = nil, want error", s)
		}
	}
}

func TestValidateAbsolutePath(t *testing.T) {
	if err := ValidateAbsolutePath("/etc/app"); err != nil {
		t.Errorf("ValidateAbsolutePath(/etc/app) = %v", err)
	}
	for _, p := range []string{"etc/app", "", "./app"} {
		if err := ValidateAbsolutePath(p); err == nil {
			t.Errorf("ValidateAbsolutePath(%q) = nil, want error", p)
		}
	}
}

func TestValidateEnv(t *testing.T) {
	good := []string{"ENVA=a", "EMPTY=", "a.b=c=d", "_X=1"}
	bad := []string{"ENVA", "=a", "1A=b", "A B=c"}

	for _, s := range good {
		if err := ValidateEnv(s); err != nil {
			t.Errorf("ValidateEnv(%q) = %v, want nil", s, err)
		}
	}
	for _, s := range bad {
		if err := ValidateEnv(s); err == nil {
			t.Errorf("ValidateEnv(%q) = nil, want error", s)
		}
	}
}

func TestValidatePort(t *testing.T) {
	tests := []struct {
		port    int
		wantErr bool
	}{
		{1, false},
		{8080, false},
		{65535, false},
		{0, true},
		{-1, true},
		{65536, true},
	}

	for _, tt := range tests {
		err := ValidatePort(tt.port)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePort(%d) error = %v, wantErr %v", tt.port, err, tt.wantErr)
			continue
		}
		if err != nil && err.(*specErrors.Error).Type != specErrors.ErrorTypeRange {
			t.Errorf("ValidatePort(%d) type = %s, want range", tt.port, err.(*specErrors.Error).Type)
		}
	}
}

func TestValidateLabel(t *testing.T) {
	good := []string{"proctype=router", "app.kubernetes.io/name=hello", "tier="}
	bad := []string{"proctype", "=router", "bad key=x", "k=not valid"}

	for _, s := range good {
		if err := ValidateLabel(s); err != nil {
			t.Errorf("ValidateLabel(%q) = %v, want nil", s, err)
		}
	}
	for _, s := range bad {
		if err := ValidateLabel(s); err == nil {
			t.Errorf("ValidateLabel(%q) = nil, want error", s)
		}
	}
}

func TestValidateHost(t *testing.T) {
	if err := ValidateHost("hello.geetest.com"); err != nil {
		t.Errorf("ValidateHost() = %v", err)
	}
	for _, h := range []string{"Hello.com", "under_score.com", ""} {
		if err := ValidateHost(h); err == nil {
			t.Errorf("ValidateHost(%q) = nil, want error", h)
		}
	}
}
