// Package misc keeps build time program identification.
package misc

import (
	"os"
	"path/filepath"
	"strings"
)

// Set at build time via ldflags.
var (
	version = "dev"
	githash = "unknown"
)

// GetAppName returns name of the executable without extension.
func GetAppName() string {
	name := filepath.Base(os.Args[0])
	if strings.HasSuffix(name, ".test") || strings.HasSuffix(name, ".test.exe") {
		// running under go test
		return "pdfpages"
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return githash
}
