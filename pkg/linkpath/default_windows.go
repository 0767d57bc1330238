//go:build windows

package linkpath

import "os"

// Default returns the registry store, or an INI store when EnvINIPath is set
// (PharLap-style targets).
func Default() (Store, error) {
	if p := os.Getenv(EnvINIPath); p != "" {
		return NewINIStore(p), nil
	}
	return NewRegistryStore(), nil
}
