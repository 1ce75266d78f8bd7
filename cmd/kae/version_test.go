package main

import (
	"encoding/json"
	"strings"
	"testing"

	"kae-hq/kae/pkg/version"
)

func TestPrintVersion(t *testing.T) {
	orig := version.Version
	version.Version = "1.2.3-test"
	t.Cleanup(func() {
		version.Version = orig
		versionFlags.format = "text"
	})

	versionFlags.format = "text"
	cmd, out := newTestCommand("")
	if err := printVersion(cmd, nil); err != nil {
		t.Fatalf("printVersion() error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "kae 1.2.3-test\n") || !strings.Contains(out.String(), "OS/Arch: ") {
		t.Errorf("unexpected output:\n%s", out.String())
	}

	versionFlags.format = "json"
	cmd, out = newTestCommand("")
	if err := printVersion(cmd, nil); err != nil {
		t.Fatalf("printVersion() error = %v", err)
	}
	var info version.Info
	if err := json.Unmarshal(out.Bytes(), &info); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if info.Version != "1.2.3-test" || info.GoVersion == "" {
		t.Errorf("unexpected info %+v", info)
	}

	versionFlags.format = "csv"
	if err := printVersion(cmd, nil); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestVersionCommandExists(t *testing.T) {
	if versionCmd.Use != "version" {
		t.Errorf("versionCmd.Use = %q, want %q", versionCmd.Use, "version")
	}
	if versionCmd.Short == "" {
		t.Error("versionCmd.Short should not be empty")
	}
}
