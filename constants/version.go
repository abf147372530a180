package constants

// Version is reported by /health and the version command. Overridden at build time with -ldflags.
var Version = "1.0.0"
