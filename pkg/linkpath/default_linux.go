//go:build linux

package linkpath

import "os"

// Default returns the INI store at LinuxINIPath, or at EnvINIPath when set.
func Default() (Store, error) {
	if p := os.Getenv(EnvINIPath); p != "" {
		return NewINIStore(p), nil
	}
	return NewINIStore(LinuxINIPath), nil
}
