package linkpath

import (
	"errors"
	"fmt"
	"io/fs"

	"go.uber.org/zap"

	"github.com/srediag/nip2p-go/internal/logging"
)

// RegistryKeyPath is the driver's configuration key below HKEY_LOCAL_MACHINE.
const RegistryKeyPath = `SYSTEM\CurrentControlSet\Services\nistreamk\Config`

// KeyTree is a hierarchical store of named 32-bit values, such as the
// Windows registry. Missing keys or values must be reported with an error
// matching fs.ErrNotExist.
type KeyTree interface {
	// SetUint32 creates path when needed and stores name under it.
	SetUint32(path, name string, v uint32) error
	GetUint32(path, name string) (uint32, error)
	DeleteValue(path, name string) error
	ValueCount(path string) (int, error)
	// DeleteKey removes path. It fails when path still has subkeys.
	DeleteKey(path string) error
}

// KeyStore keeps the override as a DWORD value under a key of a KeyTree.
type KeyStore struct {
	tree KeyTree
	path string
	log  *zap.Logger
}

var _ Store = (*KeyStore)(nil)

// NewKeyStore returns a store for the value ItemName under path.
func NewKeyStore(tree KeyTree, path string) *KeyStore {
	return &KeyStore{
		tree: tree,
		path: path,
		log:  logging.Named("linkpath").With(zap.String("key", path)),
	}
}

// Path returns the key holding the override.
func (s *KeyStore) Path() string { return s.path }

func (s *KeyStore) Set(skip bool) error {
	var v uint32
	if skip {
		v = 1
	}
	if err := s.tree.SetUint32(s.path, ItemName, v); err != nil {
		return fmt.Errorf("set %s\\%s: %w", s.path, ItemName, err)
	}
	s.log.Info("link path validation override set", zap.Bool("skip", skip))
	return nil
}

func (s *KeyStore) Clear() error {
	err := s.tree.DeleteValue(s.path, ItemName)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete %s\\%s: %w", s.path, ItemName, err)
	}
	s.log.Info("link path validation override cleared")

	// The key is shared with other driver settings; drop it only when empty.
	n, err := s.tree.ValueCount(s.path)
	if err != nil {
		s.log.Debug("cannot inspect configuration key", zap.Error(err))
		return nil
	}
	if n == 0 {
		if err := s.tree.DeleteKey(s.path); err != nil {
			s.log.Debug("configuration key left in place", zap.Error(err))
		}
	}
	return nil
}

func (s *KeyStore) Get() (bool, bool, error) {
	v, err := s.tree.GetUint32(s.path, ItemName)
	if errors.Is(err, fs.ErrNotExist) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("read %s\\%s: %w", s.path, ItemName, err)
	}
	return v != 0, true, nil
}
