package app

import (
	"os"
	"sync"
)

// TestModeEnv, when set to "1", makes the binary exit before touching the
// store or the network.
const TestModeEnv = "ZAMZAM_TEST_MODE"

var testMode = sync.OnceValue(func() bool {
	return os.Getenv(TestModeEnv) == "1"
})

// InTestMode reports whether the application should skip runtime side effects.
func InTestMode() bool {
	return testMode()
}
