// Package build carries values stamped in at build time.
package build

// Version is the application version reported by the CLI. The default is
// overridden by linker flags in release builds.
var Version = "dev"
