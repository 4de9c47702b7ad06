// Package version reports the build of the running binary
package version

// BuildInfo holds version information about the service build
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns the build information for service. Version, commit and date
// are set at build time:
//
//	-ldflags "-X 'datacompliance/internal/core/version.version=v1.2.0' -X 'datacompliance/internal/core/version.commit=abcd'"
func Info(service string) BuildInfo {
	return BuildInfo{
		Service: service,
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
