package fshcompiler

// Version is the compiler version, overridable at build time via
// -ldflags "-X github.com/FHIR/sushi-sub009.Version=...".
var Version = "0.1.0-dev"
