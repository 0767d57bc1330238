// Package linkpath persists the driver's "skip link path validation" override.
//
// The NI-P2P driver reads the setting once when a stream is created, so it
// must be changed before streams are opened. Windows keeps it in the registry,
// Linux in an INI file; Default picks the variant for the running platform.
package linkpath

import "errors"

// ItemName is the value or key name the driver looks up.
const ItemName = "SkipLinkPathValidation"

// EnvINIPath overrides the INI file used by Default.
const EnvINIPath = "NIP2P_CONFIG_INI"

// ErrUnsupportedPlatform is returned by Default where the driver has no
// configuration store.
var ErrUnsupportedPlatform = errors.New("linkpath: no link path validation store on this platform")

// Store reads and writes the override.
type Store interface {
	// Set stores the override. true disables link path validation.
	Set(skip bool) error
	// Clear removes the override, and its enclosing section or key when
	// nothing else is left in it. Clearing an absent override is a no-op.
	Clear() error
	// Get returns the stored value and whether one is present.
	Get() (skip bool, present bool, err error)
}
