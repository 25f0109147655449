package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const (
	cacheFileExtension = ".json"
	cacheDirPerm       = 0o750
	cacheFilePerm      = 0o600
	bytesPerMB         = 1 << 20
)

// Common cache errors.
var (
	ErrCacheNotFound   = errors.New("cache entry not found")
	ErrCacheExpired    = errors.New("cache entry expired")
	ErrInvalidCacheKey = errors.New("cache key cannot be empty")
	ErrCacheDisabled   = errors.New("cache is disabled")
	ErrNoDirectory     = errors.New("cache directory cannot be empty")
)

// Options configures a FileStore.
type Options struct {
	Directory string
	Enabled   bool
	TTL       time.Duration
	MaxSizeMB int

	// Now defaults to time.Now.
	Now func() time.Time
}

// Stats summarises the store contents.
type Stats struct {
	Entries int
	Expired int
	Bytes   int64
}

// FileStore keeps one JSON file per entry. It is safe for concurrent use.
type FileStore struct {
	directory string
	enabled   bool
	ttl       time.Duration
	maxBytes  int64
	now       func() time.Time

	mu sync.RWMutex
}

// NewFileStore creates the store and its directory. A disabled store accepts
// every call and reports ErrCacheDisabled.
func NewFileStore(opts Options) (*FileStore, error) {
	if !opts.Enabled {
		return &FileStore{}, nil
	}
	if opts.Directory == "" {
		return nil, ErrNoDirectory
	}
	if err := os.MkdirAll(opts.Directory, cacheDirPerm); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &FileStore{
		directory: opts.Directory,
		enabled:   true,
		ttl:       opts.TTL,
		maxBytes:  int64(opts.MaxSizeMB) * bytesPerMB,
		now:       opts.Now,
	}, nil
}

// Get returns a fresh entry. Expired entries return ErrCacheExpired.
func (s *FileStore) Get(key string) (*Entry, error) {
	entry, err := s.GetStale(key)
	if err != nil {
		return nil, err
	}
	if entry.IsExpired(s.now()) {
		return nil, ErrCacheExpired
	}
	return entry, nil
}

// GetStale returns an entry regardless of its age.
func (s *FileStore) GetStale(key string) (*Entry, error) {
	if !s.enabled {
		return nil, ErrCacheDisabled
	}
	if key == "" {
		return nil, ErrInvalidCacheKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrCacheNotFound
		}
		return nil, fmt.Errorf("reading cache file: %w", err)
	}

	var entry Entry
	if err = json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decoding cache entry: %w", err)
	}
	return &entry, nil
}

// Set stores data under key, replacing any previous entry.
func (s *FileStore) Set(key, operation string, data json.RawMessage) error {
	if !s.enabled {
		return ErrCacheDisabled
	}
	if key == "" {
		return ErrInvalidCacheKey
	}

	entry := NewEntry(key, operation, data, s.now(), s.ttl)
	encoded, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(key)
	tmp := path + ".tmp"
	if err = os.WriteFile(tmp, encoded, cacheFilePerm); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming cache file: %w", err)
	}
	return nil
}

// Delete removes an entry. Missing entries are not an error.
func (s *FileStore) Delete(key string) error {
	if !s.enabled {
		return ErrCacheDisabled
	}
	if key == "" {
		return ErrInvalidCacheKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting cache file: %w", err)
	}
	return nil
}

// Clear removes every entry.
func (s *FileStore) Clear() error {
	if !s.enabled {
		return ErrCacheDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.files()
	if err != nil {
		return err
	}
	for _, f := range files {
		if err = os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", filepath.Base(f.path), err)
		}
	}
	return nil
}

// Prune removes expired entries, then the oldest entries until the store
// fits its size limit. It returns the number of files removed.
func (s *FileStore) Prune() (int, error) {
	if !s.enabled {
		return 0, ErrCacheDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.files()
	if err != nil {
		return 0, err
	}

	now := s.now()
	removed := 0
	var total int64
	kept := files[:0]
	for _, f := range files {
		if f.expiresAt.IsZero() || now.After(f.expiresAt) {
			if os.Remove(f.path) == nil {
				removed++
			}
			continue
		}
		total += f.size
		kept = append(kept, f)
	}

	if s.maxBytes <= 0 || total <= s.maxBytes {
		return removed, nil
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].storedAt.Before(kept[j].storedAt) })
	for _, f := range kept {
		if total <= s.maxBytes {
			break
		}
		if os.Remove(f.path) == nil {
			removed++
			total -= f.size
		}
	}
	return removed, nil
}

// Stats counts entries and their total size.
func (s *FileStore) Stats() (Stats, error) {
	if !s.enabled {
		return Stats{}, ErrCacheDisabled
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	files, err := s.files()
	if err != nil {
		return Stats{}, err
	}
	now := s.now()
	var st Stats
	for _, f := range files {
		st.Entries++
		st.Bytes += f.size
		if f.expiresAt.IsZero() || now.After(f.expiresAt) {
			st.Expired++
		}
	}
	return st, nil
}

// IsEnabled reports whether caching is active.
func (s *FileStore) IsEnabled() bool { return s.enabled }

// Directory returns the cache directory.
func (s *FileStore) Directory() string { return s.directory }

// TTL returns the freshness window of new entries.
func (s *FileStore) TTL() time.Duration { return s.ttl }

type cacheFile struct {
	path      string
	size      int64
	storedAt  time.Time
	expiresAt time.Time
}

// files lists cache files with their timestamps. Unreadable entries get zero
// timestamps so Prune treats them as expired. Callers hold mu.
func (s *FileStore) files() ([]cacheFile, error) {
	dirEntries, err := os.ReadDir(s.directory)
	if err != nil {
		return nil, fmt.Errorf("reading cache directory: %w", err)
	}

	var out []cacheFile
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != cacheFileExtension {
			continue
		}
		info, infoErr := de.Info()
		if infoErr != nil {
			continue
		}
		f := cacheFile{path: filepath.Join(s.directory, de.Name()), size: info.Size()}
		if data, readErr := os.ReadFile(f.path); readErr == nil {
			var e Entry
			if json.Unmarshal(data, &e) == nil {
				f.storedAt, f.expiresAt = e.StoredAt, e.ExpiresAt
			}
		}
		out = append(out, f)
	}
	return out, nil
}

// path maps a key to its file. Keys are hex digests, so they are already
// filesystem safe; anything else is hashed first.
func (s *FileStore) path(key string) string {
	if !isHexKey(key) {
		key, _ = GenerateKey(KeyParams{Operation: key})
	}
	return filepath.Join(s.directory, key+cacheFileExtension)
}

func isHexKey(key string) bool {
	if len(key) != 64 { //nolint:mnd // Hex-encoded SHA-256.
		return false
	}
	for _, r := range key {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
