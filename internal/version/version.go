package version

// Version is the current version of the pairwise-alpha engine.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/rxtech-lab/pairwise-alpha/internal/version.Version=1.2.3"
// Setting it to "main" marks a development build that runs any config.
var Version = "v1.0.0"

// GetVersion returns the current engine version.
func GetVersion() string {
	return Version
}
