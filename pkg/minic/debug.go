package minic

import (
	"os"

	"github.com/sirupsen/logrus"
)

// EnableDebugFromEnv implements a simple env-var feature flag: when
// MINIC_DEBUG is set to any non-empty value, per-stage trace lines from
// the tokenizer, parser and code generator are raised from their default
// (silent) level up to Debug.
func EnableDebugFromEnv() {
	if os.Getenv("MINIC_DEBUG") != "" {
		logrus.SetLevel(logrus.DebugLevel)
	}
}
