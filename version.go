package blocktl

import "runtime"

// Build metadata. GitCommit and BuildDate are set at link time:
//
//	go build -ldflags "-X github.com/ZaguanLabs/blocktl.GitCommit=$(git rev-parse HEAD)"
const (
	// Name is the application name, also the keychain service name.
	Name = "blocktl"

	// Description is a short description of the application.
	Description = "Block-preserving content translation with back-translation review"

	// Version is the semantic version of the application.
	Version = "0.3.0"
)

var (
	// GitCommit is the git commit hash.
	GitCommit = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version"`
}

// Build returns the build metadata, leaving unset link-time values empty.
func Build() BuildInfo {
	info := BuildInfo{Name: Name, Version: Version, GoVersion: runtime.Version()}
	if GitCommit != "unknown" {
		info.GitCommit = GitCommit
	}
	if BuildDate != "unknown" {
		info.BuildDate = BuildDate
	}
	return info
}

// FullVersion returns the version with the short commit appended when known.
func FullVersion() string {
	commit := Build().GitCommit
	if commit == "" {
		return Version
	}
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return Version + "+" + commit
}

// UserAgent is sent by the HTTP-based providers.
func UserAgent() string {
	return Name + "/" + Version
}
