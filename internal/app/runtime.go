package app

import (
	"os"
	"strconv"
	"sync/atomic"
)

const testModeEnv = "COMANDA_TEST_MODE"

// testMode caches the parsed flag; nil means not read yet.
var testMode atomic.Pointer[bool]

func readTestMode() *bool {
	enabled, err := strconv.ParseBool(os.Getenv(testModeEnv))
	enabled = err == nil && enabled
	testMode.Store(&enabled)
	return &enabled
}

// InTestMode reports whether the binaries must stay offline: no postgres,
// redis or broker connections and no listening sockets.
func InTestMode() bool {
	if v := testMode.Load(); v != nil {
		return *v
	}
	return *readTestMode()
}

// RefreshTestMode re-reads COMANDA_TEST_MODE, for tests that toggle it.
func RefreshTestMode() {
	readTestMode()
}
