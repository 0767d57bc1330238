//go:build windows

package linkpath

import (
	"strings"

	"golang.org/x/sys/windows/registry"
)

// registryTree maps KeyTree onto a registry hive.
type registryTree struct {
	root registry.Key
}

// NewRegistryStore returns the store the Windows driver reads.
func NewRegistryStore() *KeyStore {
	return NewKeyStore(registryTree{root: registry.LOCAL_MACHINE}, RegistryKeyPath)
}

func (t registryTree) SetUint32(path, name string, v uint32) error {
	k, _, err := registry.CreateKey(t.root, path, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()
	return k.SetDWordValue(name, v)
}

func (t registryTree) GetUint32(path, name string) (uint32, error) {
	k, err := registry.OpenKey(t.root, path, registry.QUERY_VALUE)
	if err != nil {
		return 0, err
	}
	defer k.Close()
	v, _, err := k.GetIntegerValue(name)
	return uint32(v), err
}

func (t registryTree) DeleteValue(path, name string) error {
	k, err := registry.OpenKey(t.root, path, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()
	return k.DeleteValue(name)
}

func (t registryTree) ValueCount(path string) (int, error) {
	k, err := registry.OpenKey(t.root, path, registry.QUERY_VALUE)
	if err != nil {
		return 0, err
	}
	defer k.Close()
	info, err := k.Stat()
	if err != nil {
		return 0, err
	}
	return int(info.ValueCount), nil
}

func (t registryTree) DeleteKey(path string) error {
	parent, base := "", path
	if i := strings.LastIndexByte(path, '\\'); i >= 0 {
		parent, base = path[:i], path[i+1:]
	}
	k, err := registry.OpenKey(t.root, parent, registry.ALL_ACCESS)
	if err != nil {
		return err
	}
	defer k.Close()
	return registry.DeleteKey(k, base)
}
