package version

// Version is the router build version, set with
// -ldflags "-X github.com/rxtech-lab/argo-router/internal/version.Version=1.2.3".
// "main" marks a development build.
var Version = "main"

// GetVersion returns the router build version.
func GetVersion() string {
	return Version
}
