// Package version reports what build of the assistant is running.
//
// Version, BuildDate and GitCommit are stamped at link time:
//
//	go build -ldflags "-X github.com/dileep-u-k/weather-assistant/internal/version.version=v1.2.0"
//
// ComponentVersions is bumped by hand whenever the prompt or a tool changes
// behaviour, so logs and the root endpoint show which logic produced an answer.
package version

import (
	"fmt"
	"runtime"
)

var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

// ComponentVersions tracks logic changes that do not show up in the binary version.
var ComponentVersions = struct {
	// Tools changes with the weather tool's request or output format.
	Tools string
	// Prompt changes with the system prompt or the agent loop.
	Prompt string
}{
	Tools:  "v1.0",
	Prompt: "v1.0",
}

type BuildInfo struct {
	Version, BuildDate, GitCommit, GoVersion, Platform string
}

func Get() BuildInfo {
	return BuildInfo{
		Version:   version,
		BuildDate: buildDate,
		GitCommit: gitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String renders the version with component tags, e.g. "dev (tools v1.0, prompt v1.0)".
func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (tools %s, prompt %s)", b.Version, ComponentVersions.Tools, ComponentVersions.Prompt)
}
