package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("ZAMZAM_TEST_MODE", "1")
		for _, key := range []string{"CACHE_REDIS_ADDR", "BACKUP_REDIS_ADDR"} {
			_ = os.Unsetenv(key)
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
