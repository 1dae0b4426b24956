package version

// Version is set via build-time ldflags in release builds:
// go build -ldflags "-X git.home.luguber.info/inful/docsite/internal/version.Version=v0.4.0".
var Version = "dev"

// Build metadata, also injected via ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by `docsite --version`.
func String() string {
	return "docsite " + Version + " (commit " + GitCommit + ", built " + BuildTime + ")"
}
