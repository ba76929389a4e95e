package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

// ensureTestMode stops the binaries from dialing Postgres and Redis and gives
// config loading a usable pair of token secrets.
func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("PAISAID_TEST_MODE", "1")
		if os.Getenv("JWT_ACCESS_SECRET") == "" {
			_ = os.Setenv("JWT_ACCESS_SECRET", "test-access-secret")
		}
		if os.Getenv("JWT_REFRESH_SECRET") == "" {
			_ = os.Setenv("JWT_REFRESH_SECRET", "test-refresh-secret")
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
