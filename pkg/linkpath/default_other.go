//go:build !linux && !windows

package linkpath

import "os"

func Default() (Store, error) {
	if p := os.Getenv(EnvINIPath); p != "" {
		return NewINIStore(p), nil
	}
	return nil, ErrUnsupportedPlatform
}
