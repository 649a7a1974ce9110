package cache

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"lukechampine.com/blake3"
)

// Manifest is a small disk-resident, TTL'd cache of "object key -> content
// hash last seen" records, used by the collection mirror to decide
// whether a remote object needs to be re-downloaded. Every record is one
// file under basePath, sharded nginx-style (levels=2:2) to keep any single
// directory small; the filename encodes both the content hash and the
// record's expiry so a read never needs a second stat.
type Manifest struct {
	basePath string
	ttl      time.Duration
	mu       sync.RWMutex
}

func NewManifest(basePath string, ttl time.Duration) (*Manifest, error) {
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve manifest path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("create manifest dir: %w", err)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manifest{basePath: absPath, ttl: ttl}, nil
}

// Seen reports whether key was last recorded with exactly contentHash and
// the record has not yet expired. A true result means the mirror can skip
// writing the object to disk again; the local file itself is not checked.
func (m *Manifest) Seen(key string, contentHash [32]byte) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dir := m.dirFor(key)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	want := hex.EncodeToString(contentHash[:])
	prefix := m.keyHash(key) + "_"
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		hash, expiresAt, ok := parseManifestFilename(e.Name())
		if !ok {
			continue
		}
		if time.Now().After(expiresAt) {
			return false
		}
		return hash == want
	}
	return false
}

// Record stores key -> contentHash with a fresh TTL, overwriting any prior
// record for key.
func (m *Manifest) Record(key string, contentHash [32]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dir := m.dirFor(key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create manifest shard: %w", err)
	}

	// Remove stale records for this key before writing the new one.
	prefix := m.keyHash(key) + "_"
	if entries, err := os.ReadDir(dir); err == nil {
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), prefix) {
				_ = os.Remove(filepath.Join(dir, e.Name()))
			}
		}
	}

	hash := hex.EncodeToString(contentHash[:])
	expiresAt := time.Now().Add(m.ttl).Unix()
	name := fmt.Sprintf("%s_%s_%d.manifest", m.keyHash(key), hash, expiresAt)
	return os.WriteFile(filepath.Join(dir, name), nil, 0o644)
}

func (m *Manifest) keyHash(key string) string {
	sum := blake3.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

func (m *Manifest) dirFor(key string) string {
	h := m.keyHash(key)
	n := len(h)
	return filepath.Join(m.basePath, h[n-2:], h[n-4:n-2])
}

// parseManifestFilename splits "<keyhash>_<contenthash>_<expiry>.manifest".
func parseManifestFilename(name string) (hash string, expiresAt time.Time, ok bool) {
	name = strings.TrimSuffix(name, ".manifest")
	parts := strings.Split(name, "_")
	if len(parts) != 3 {
		return "", time.Time{}, false
	}
	ts, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", time.Time{}, false
	}
	return parts[1], time.Unix(ts, 0), true
}
