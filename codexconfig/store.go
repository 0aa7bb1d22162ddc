package codexconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Cache timings for parsed config documents.
const (
	DefaultCacheTTL        = 30 * time.Second
	DefaultCleanupInterval = 5 * time.Minute
	configFilePerm         = 0o600
	configDirPerm          = 0o755
)

// document is a decoded config.toml.
type document map[string]any

// cachedDocument is a parsed document and the file stamp it was read at.
type cachedDocument struct {
	doc   document
	stamp stamp
}

// Store reads and writes the feature flags and personality in config.toml.
//
// The path is resolved on every call, so a change to CODEX_HOME moves the
// store to the new file. Parsed documents are cached per path and reused
// only while the file's size and modification time are unchanged, so edits
// made outside the store are seen on the next read.
type Store struct {
	resolve func() (string, error)

	mu    sync.Mutex // Serializes read-modify-write cycles
	cache *gocache.Cache
	group singleflight.Group
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithPath pins the store to a fixed config.toml path.
func WithPath(path string) StoreOption {
	return func(s *Store) {
		s.resolve = func() (string, error) { return path, nil }
	}
}

// WithLookup resolves the path from CODEX_HOME through lookup.
func WithLookup(lookup LookupFunc) StoreOption {
	return func(s *Store) {
		s.resolve = func() (string, error) { return ConfigPath(lookup) }
	}
}

// WithCacheTTL overrides how long a parsed document is reused.
func WithCacheTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.cache = gocache.New(ttl, DefaultCleanupInterval)
	}
}

// NewStore creates a Store. Without options it follows the process
// environment's CODEX_HOME.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		resolve: func() (string, error) { return ConfigPath(os.LookupEnv) },
		cache:   gocache.New(DefaultCacheTTL, DefaultCleanupInterval),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the config.toml path the next call would use.
func (s *Store) Path() (string, error) {
	return s.resolve()
}

// Invalidate drops every cached document.
func (s *Store) Invalidate() {
	s.cache.Flush()
}

// ReadFeature reads [features].<name>.
// ok is false when the file, the table or the key is missing.
func (s *Store) ReadFeature(name string) (value bool, ok bool, err error) {
	doc, err := s.load()
	if err != nil {
		return false, false, err
	}
	table, present := doc[TableFeatures]
	if !present {
		return false, false, nil
	}
	features, isTable := table.(map[string]any)
	if !isTable {
		return false, false, fmt.Errorf("%s is not a table", TableFeatures)
	}
	raw, present := features[name]
	if !present {
		return false, false, nil
	}
	b, isBool := raw.(bool)
	if !isBool {
		return false, false, fmt.Errorf("%s.%s is not a boolean", TableFeatures, name)
	}
	return b, true, nil
}

// WriteFeature sets [features].<name>, creating the table when needed.
func (s *Store) WriteFeature(name string, value bool) error {
	return s.edit(func(content string) string {
		return upsertKey(content, TableFeatures, name, boolLiteral(value))
	})
}

// ReadPersonality reads the top-level personality key.
func (s *Store) ReadPersonality() (string, bool, error) {
	doc, err := s.load()
	if err != nil {
		return "", false, err
	}
	raw, present := doc[KeyPersonality]
	if !present {
		return "", false, nil
	}
	v, isString := raw.(string)
	if !isString {
		return "", false, fmt.Errorf("%s is not a string", KeyPersonality)
	}
	return v, true, nil
}

// WritePersonality sets the top-level personality key.
func (s *Store) WritePersonality(value string) error {
	return s.edit(func(content string) string {
		return upsertKey(content, "", KeyPersonality, stringLiteral(value))
	})
}

// load returns the parsed document, sharing one disk read between
// concurrent callers. A cached document is dropped when the file's stamp
// no longer matches.
func (s *Store) load() (document, error) {
	path, err := s.resolve()
	if err != nil {
		return nil, err
	}
	current := fileStamp(path)
	if cached, found := s.cache.Get(path); found {
		if entry, ok := cached.(cachedDocument); ok && entry.stamp == current {
			return entry.doc, nil
		}
		s.cache.Delete(path)
	}

	v, err, _ := s.group.Do(path, func() (any, error) {
		// Stamp before reading: a write racing the read leaves a stale
		// stamp, which forces a re-read next time.
		before := fileStamp(path)
		doc, err := readDocument(path)
		if err != nil {
			return nil, err
		}
		s.cache.SetDefault(path, cachedDocument{doc: doc, stamp: before})
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(document), nil
}

// edit applies fn to the current file content, validates the result and
// replaces the file.
func (s *Store) edit(fn func(content string) string) error {
	path, err := s.resolve()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read config: %w", err)
	}

	next := fn(string(data))
	doc, err := decode(next)
	if err != nil {
		return fmt.Errorf("edited config is invalid: %w", err)
	}

	if err := writeAtomic(path, []byte(next)); err != nil {
		return err
	}
	s.cache.SetDefault(path, cachedDocument{doc: doc, stamp: fileStamp(path)})
	return nil
}

func readDocument(path string) (document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return document{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	doc, err := decode(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return doc, nil
}

func decode(content string) (document, error) {
	doc := document{}
	if _, err := toml.Decode(content, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, configDirPerm); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	perm := os.FileMode(configFilePerm)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}
