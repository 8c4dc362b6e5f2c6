package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	if info.Version == "" || info.GoVersion != runtime.Version() {
		t.Fatalf("unexpected build info %+v", info)
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Fatalf("unexpected platform %q", info.Platform)
	}
	s := info.String()
	if !strings.HasPrefix(s, info.Version) || !strings.Contains(s, "tools "+ComponentVersions.Tools) {
		t.Fatalf("unexpected version string %q", s)
	}
}
