package version

// Version is the current version of satchel. It is set at build time with
// ldflags.
var Version = "dev"
