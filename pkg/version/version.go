package version

// Set at build time via -ldflags "-X .../pkg/version.GitVersion=...".
var (
	GitVersion = "v0.0.0-dev"
	BuildTime  = "unknown"
)
