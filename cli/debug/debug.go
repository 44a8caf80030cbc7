package debug

import (
	"os"

	"github.com/sirupsen/logrus"
)

const envDebug = "FORMULA_DEBUG"

// Enable sets the FORMULA_DEBUG env var to true
// and makes the logger to log at debug level.
func Enable() {
	os.Setenv(envDebug, "1")
	logrus.SetLevel(logrus.DebugLevel)
}

// Disable sets the FORMULA_DEBUG env var to false
// and makes the logger to log at info level.
func Disable() {
	os.Setenv(envDebug, "")
	logrus.SetLevel(logrus.InfoLevel)
}

// IsEnabled checks whether the debug flag is set or not.
func IsEnabled() bool {
	return os.Getenv(envDebug) != ""
}
