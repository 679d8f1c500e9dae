// Package testing switches the comanda binaries into offline mode. Test
// packages that boot main-like wiring import it for its side effects.
package testing

import (
	"os"
	stdtesting "testing"
)

var offlineEnv = map[string]string{
	"COMANDA_TEST_MODE": "1",
	"STORE_DRIVER":      "memory",
	"EVENTS_DRIVER":     "none",
}

func init() {
	for key, value := range offlineEnv {
		if _, set := os.LookupEnv(key); set && key != "COMANDA_TEST_MODE" {
			continue
		}
		_ = os.Setenv(key, value)
	}
}

// TestMain lets packages delegate their TestMain here.
func TestMain(m *stdtesting.M) {
	os.Exit(m.Run())
}
