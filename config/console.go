package config

import (
	"os"
)

// EnableColorOutput checks if colorized output is possible for the stream.
// Colors are never used when NO_COLOR is set in the environment or when
// stream is redirected.
func EnableColorOutput(stream *os.File) bool {
	if v, ok := os.LookupEnv("NO_COLOR"); ok && len(v) > 0 {
		return false
	}
	if stream == nil {
		return false
	}
	return enableTerminalColors(stream)
}
