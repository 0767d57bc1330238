package linkpath

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/valyala/bytebufferpool"
	"go.uber.org/zap"
	"gopkg.in/ini.v1"

	"github.com/srediag/nip2p-go/internal/logging"
)

// SectionName is the INI section holding driver settings.
const SectionName = "NI-P2P"

// Well-known INI locations.
const (
	LinuxINIPath   = "/etc/natinst/nip2p/config.ini"
	PharLapINIPath = "c:/ni-rt.ini"
)

// INIStore keeps the override as a key of the NI-P2P section of an INI file.
// Section and key names are case sensitive. A file left with no settings by
// Clear is removed; its directory is kept.
type INIStore struct {
	path    string
	section string
	log     *zap.Logger
}

var _ Store = (*INIStore)(nil)

// NewINIStore returns a store backed by the INI file at path.
func NewINIStore(path string) *INIStore {
	return &INIStore{
		path:    path,
		section: SectionName,
		log:     logging.Named("linkpath").With(zap.String("path", path)),
	}
}

// Path returns the INI file location.
func (s *INIStore) Path() string { return s.path }

func (s *INIStore) exists() (bool, error) {
	_, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (s *INIStore) load() (*ini.File, error) {
	f, err := ini.LoadSources(ini.LoadOptions{}, s.path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.path, err)
	}
	return f, nil
}

func (s *INIStore) save(f *ini.File) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := f.WriteTo(buf); err != nil {
		return fmt.Errorf("encode %s: %w", s.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := writeFile(s.path, buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

func (s *INIStore) Set(skip bool) error {
	ok, err := s.exists()
	if err != nil {
		return err
	}
	f := ini.Empty()
	if ok {
		if f, err = s.load(); err != nil {
			return err
		}
	}
	f.Section(s.section).Key(ItemName).SetValue(formatBool(skip))
	if err := s.save(f); err != nil {
		return err
	}
	s.log.Info("link path validation override set", zap.Bool("skip", skip))
	return nil
}

func (s *INIStore) Clear() error {
	ok, err := s.exists()
	if err != nil || !ok {
		return err
	}
	f, err := s.load()
	if err != nil {
		return err
	}
	sec, err := f.GetSection(s.section)
	if err != nil {
		return nil
	}
	if !sec.HasKey(ItemName) && len(sec.Keys()) > 0 {
		return nil
	}
	sec.DeleteKey(ItemName)
	if len(sec.Keys()) == 0 {
		f.DeleteSection(s.section)
	}
	if isEmpty(f) {
		if err := os.Remove(s.path); err != nil {
			return fmt.Errorf("remove %s: %w", s.path, err)
		}
		s.log.Info("link path validation override cleared, config file removed")
		return nil
	}
	if err := s.save(f); err != nil {
		return err
	}
	s.log.Info("link path validation override cleared")
	return nil
}

// isEmpty reports whether f holds nothing but an empty default section.
func isEmpty(f *ini.File) bool {
	for _, sec := range f.Sections() {
		if sec.Name() != ini.DefaultSection || len(sec.Keys()) > 0 {
			return false
		}
	}
	return true
}

func (s *INIStore) Get() (bool, bool, error) {
	ok, err := s.exists()
	if err != nil || !ok {
		return false, false, err
	}
	f, err := s.load()
	if err != nil {
		return false, false, err
	}
	sec, err := f.GetSection(s.section)
	if err != nil || !sec.HasKey(ItemName) {
		return false, false, nil
	}
	v, err := sec.Key(ItemName).Bool()
	if err != nil {
		return false, true, fmt.Errorf("%s in %s: %w", ItemName, s.path, err)
	}
	return v, true, nil
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
