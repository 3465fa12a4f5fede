// Package debug holds the loggers shared by the rest of the module.
//
// Setting $WAYLAND_DEBUG to a positive integer enables tracing of every
// protocol message. Setting $DECOR_DEBUG does the same for decoration
// engine state transitions.
package debug

import (
	"os"
	"strconv"

	"github.com/charmbracelet/log"
)

var (
	// Log is used for warnings and for wire traces.
	Log = log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "wayland",
		Level:  log.WarnLevel,
	})

	// Engine is used by decoration engines.
	Engine = log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "decor",
		Level:  log.WarnLevel,
	})
)

func init() {
	if enabled("WAYLAND_DEBUG") {
		Log.SetLevel(log.DebugLevel)
	}
	if enabled("DECOR_DEBUG") {
		Engine.SetLevel(log.DebugLevel)
	}
}

func enabled(env string) bool {
	level, err := strconv.ParseInt(os.Getenv(env), 10, 0)
	return (err == nil) && (level > 0)
}

// Printf traces a protocol message if $WAYLAND_DEBUG is set.
func Printf(str string, args ...any) {
	Log.Debugf(str, args...)
}
