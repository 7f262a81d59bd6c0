package version

// Version is overridden at build time via -ldflags "-X chatrelay-go/internal/version.Version=...".
var Version = "dev"
