//go:build windows

package linkpath

import "os"

// renameio does not support Windows; the INI variant is only used there when
// NIP2P_CONFIG_INI is set.
func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}
