package timbre

// Version is the release of the study engine. Overridden at build time with
// -ldflags "-X github.com/aretw0/timbre.Version=...".
var Version = "0.1.0-dev"
