//go:build !windows

package linkpath

import "github.com/google/renameio/v2"

// writeFile replaces path atomically so the driver never reads a partial file.
func writeFile(path string, data []byte) error {
	return renameio.WriteFile(path, data, 0o644)
}
